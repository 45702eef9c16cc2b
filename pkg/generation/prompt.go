package generation

import (
	"fmt"
	"strings"
)

// Sampling policy constants. Fixed (not user-tunable) to keep output
// characteristics consistent and moderation-friendly.
const (
	samplingTemperature      = 0.7
	samplingPresencePenalty  = 0.1
	samplingFrequencyPenalty = 0.2
	maxReplyTokens           = 300
)

// Supported request vocabularies. Unknown values are rejected by the HTTP
// layer; empty values fall back to the defaults below.
var (
	Tones     = []string{"professional", "friendly", "apologetic", "enthusiastic"}
	Languages = []string{"en", "es", "fr", "de", "it", "pt"}

	DefaultTone     = "professional"
	DefaultLanguage = "en"
)

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
}

// GenerateRequest carries the caller-supplied fields for one reply.
type GenerateRequest struct {
	ReviewText   string
	Tone         string
	Language     string
	BusinessType string
	BusinessName string
}

// withDefaults fills unset optional fields.
func (r GenerateRequest) withDefaults() GenerateRequest {
	if r.Tone == "" {
		r.Tone = DefaultTone
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	if r.BusinessType == "" {
		r.BusinessType = "business"
	}
	return r
}

// buildPrompt constructs the message list deterministically: the same inputs
// always produce the same prompt.
func buildPrompt(req GenerateRequest) []Message {
	langName, ok := languageNames[req.Language]
	if !ok {
		langName = languageNames[DefaultLanguage]
	}

	var sb strings.Builder
	sb.WriteString("You write replies to customer reviews on behalf of a ")
	sb.WriteString(req.BusinessType)
	if req.BusinessName != "" {
		sb.WriteString(fmt.Sprintf(" called %q", req.BusinessName))
	}
	sb.WriteString(". Reply in ")
	sb.WriteString(langName)
	sb.WriteString(" with a ")
	sb.WriteString(req.Tone)
	sb.WriteString(" tone. Keep the reply under 120 words, thank the customer, address their specific points, and never invent facts about the business.")

	return []Message{
		{Role: "system", Content: sb.String()},
		{Role: "user", Content: "Customer review:\n" + req.ReviewText},
	}
}
