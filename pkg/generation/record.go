package generation

import (
	"time"

	"github.com/google/uuid"
)

// maxStoredTextLen bounds the stored copies of input and output so the audit
// table cannot grow unbounded from oversized reviews.
const maxStoredTextLen = 500

// Record is the append-only audit row for one generation call. Never mutated
// after creation.
type Record struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ReviewText   string // truncated
	ReplyText    string // truncated
	Language     string
	Tone         string
	BusinessType string

	PromptTokens     int
	CompletionTokens int
	EstimatedCost    float64
	Duration         time.Duration

	Success      bool
	ErrorMessage string

	CreatedAt time.Time
}

// truncate bounds s to maxStoredTextLen runes.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxStoredTextLen {
		return s
	}
	return string(runes[:maxStoredTextLen])
}
