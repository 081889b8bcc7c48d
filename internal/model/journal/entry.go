package journal

import (
	"time"

	"github.com/haven-space/sanctum-backend/internal/analysis/crisis"
)

// MaxContentLength bounds journal entries; private reflection gets much
// more room than public posts.
const MaxContentLength = 5000

// Entry is a private journal entry tied to a session token.
type Entry struct {
	ID             string          `json:"id"`
	Content        string          `json:"content"`
	Mood           string          `json:"mood,omitempty"`
	Prompt         string          `json:"prompt,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	WordCount      int             `json:"wordCount"`
	CrisisDetected bool            `json:"crisisDetected,omitempty"`
	Severity       crisis.Severity `json:"severityLevel,omitempty"`
}

// Public is the entry view returned to clients, without crisis metadata.
type Public struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood,omitempty"`
	Prompt    string    `json:"prompt,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	WordCount int       `json:"wordCount"`
}

// PublicView strips the crisis fields.
func (e Entry) PublicView() Public {
	return Public{
		ID:        e.ID,
		Content:   e.Content,
		Mood:      e.Mood,
		Prompt:    e.Prompt,
		Timestamp: e.Timestamp,
		WordCount: e.WordCount,
	}
}

// Stats aggregates a session's journaling activity.
type Stats struct {
	TotalEntries         int `json:"totalEntries"`
	TotalWords           int `json:"totalWords"`
	AverageWordsPerEntry int `json:"averageWordsPerEntry"`
}
