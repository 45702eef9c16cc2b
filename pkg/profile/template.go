package profile

import (
	"time"

	"github.com/google/uuid"
)

// Template is a saved reply preset a user can apply when generating, fixing
// the tone and language and optionally pre-filling instructions.
type Template struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Tone      string
	Language  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BusinessProfile is the slice of the user record a business owner edits:
// the fields the prompt builder reads as defaults.
type BusinessProfile struct {
	BusinessName    string
	BusinessType    string
	DefaultTone     string
	DefaultLanguage string
}
