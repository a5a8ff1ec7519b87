package pipeline

import (
	"time"
)

// Rejection error codes
const (
	CodeInvalidInput    = "invalid_input"
	CodeUnauthorized    = "unauthorized"
	CodeForbiddenBanned = "forbidden_banned"
	CodeForbiddenMuted  = "forbidden_muted"
	CodeRejectedSpam    = "rejected_spam"
	CodeRejectedToxic   = "rejected_toxic"
)

// Rejection is a structured gate rejection, returned synchronously to the
// submitter. It is never silently dropped.
type Rejection struct {
	Code          string     `json:"error_code"`
	Message       string     `json:"message"`
	Reason        string     `json:"reason,omitempty"`   // too_fast / too_many
	Category      string     `json:"category,omitempty"` // toxicity category
	Explanation   string     `json:"explanation,omitempty"`
	MuteExpiresAt *time.Time `json:"mute_expires_at,omitempty"`
}

func (r *Rejection) Error() string {
	return r.Code + ": " + r.Message
}
