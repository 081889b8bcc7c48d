package post

import (
	"time"

	"github.com/haven-space/sanctum-backend/internal/analysis/crisis"
)

// MaxContentLength bounds community post bodies.
const MaxContentLength = 500

// Post is an anonymous community post. It carries no author identity at
// all; the support count is the only thing other users can change.
type Post struct {
	ID             string          `json:"id"`
	Content        string          `json:"content"`
	Feeling        string          `json:"feeling"`
	Timestamp      time.Time       `json:"timestamp"`
	SupportCount   int             `json:"supportCount"`
	CrisisDetected bool            `json:"crisisDetected"`
	Severity       crisis.Severity `json:"severityLevel"`
}

// Public is the sanitized view served on the anonymous feed. Crisis fields
// stay internal unless the caller explicitly asks for support metadata.
type Public struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Feeling      string    `json:"feeling"`
	Timestamp    time.Time `json:"timestamp"`
	SupportCount int       `json:"supportCount"`

	NeedsSupport bool            `json:"needsSupport,omitempty"`
	Severity     crisis.Severity `json:"severityLevel,omitempty"`
}

// PublicView projects a post onto its feed representation.
func (p Post) PublicView(includeSupport bool) Public {
	view := Public{
		ID:           p.ID,
		Content:      p.Content,
		Feeling:      p.Feeling,
		Timestamp:    p.Timestamp,
		SupportCount: p.SupportCount,
	}
	if includeSupport && p.CrisisDetected {
		view.NeedsSupport = true
		view.Severity = p.Severity
	}
	return view
}
