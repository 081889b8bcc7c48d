package chat

import (
	"time"

	"github.com/haven-space/sanctum-backend/internal/analysis/crisis"
)

// MaxMessageLength bounds a single chat message.
const MaxMessageLength = 1000

// Roles a message can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in an anonymous support conversation. Sessions are
// identified only by a client-held opaque token; history lives in the
// ephemeral store and vanishes with its TTL.
type Message struct {
	ID             string          `json:"id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	Timestamp      time.Time       `json:"timestamp"`
	CrisisDetected bool            `json:"crisisDetected,omitempty"`
	Severity       crisis.Severity `json:"severityLevel,omitempty"`
	Fallback       bool            `json:"fallback,omitempty"`
}
