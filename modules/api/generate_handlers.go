package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/generation"
	"github.com/replyforge/replyforge/pkg/usage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type generateRequest struct {
	ReviewText   string `json:"review_text"`
	Tone         string `json:"tone"`
	Language     string `json:"language"`
	BusinessType string `json:"business_type"`
}

type generateResponse struct {
	Reply            string         `json:"reply"`
	Fallback         bool           `json:"fallback"`
	PromptTokens     int            `json:"prompt_tokens"`
	CompletionTokens int            `json:"completion_tokens"`
	Usage            *usageResponse `json:"usage,omitempty"`
}

type usageResponse struct {
	Used     int64     `json:"used"`
	Limit    int64     `json:"limit"`
	Percent  int       `json:"percent"`
	ResetsAt time.Time `json:"resets_at"`
}

// withProfileDefaults fills request fields the caller omitted from the
// user's business profile.
func withProfileDefaults(req generateRequest, user *auth.User) generation.GenerateRequest {
	out := generation.GenerateRequest{
		ReviewText:   req.ReviewText,
		Tone:         req.Tone,
		Language:     req.Language,
		BusinessType: req.BusinessType,
		BusinessName: user.BusinessName,
	}
	if out.Tone == "" {
		out.Tone = user.DefaultTone
	}
	if out.Language == "" {
		out.Language = user.DefaultLanguage
	}
	if out.BusinessType == "" {
		out.BusinessType = user.BusinessType
	}
	return out
}

func (m *Module) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.respondError(w, r, errInvalidJSON)
		return
	}

	ent, err := m.entitlements.Check(r.Context(), user)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	reply, err := m.gateway.Generate(r.Context(), user.ID, withProfileDefaults(req, user))
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	resp := generateResponse{
		Reply:            reply.Text,
		Fallback:         reply.Fallback,
		PromptTokens:     reply.PromptTokens,
		CompletionTokens: reply.CompletionTokens,
	}
	if reply.Usage != nil {
		resp.Usage = &usageResponse{
			Used:     reply.Usage.RequestCount,
			Limit:    user.MonthlyQuota,
			Percent:  usage.PercentUsed(reply.Usage.RequestCount, user.MonthlyQuota),
			ResetsAt: ent.ResetsAt,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

type historyItem struct {
	ID         string    `json:"id"`
	ReviewText string    `json:"review_text"`
	ReplyText  string    `json:"reply_text"`
	Language   string    `json:"language"`
	Tone       string    `json:"tone"`
	Success    bool      `json:"success"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m *Module) handleHistory(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit < 1 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	records, err := m.generations.ListByUser(r.Context(), user.ID, limit, offset)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	items := make([]historyItem, 0, len(records))
	for _, rec := range records {
		items = append(items, historyItem{
			ID:         rec.ID.String(),
			ReviewText: rec.ReviewText,
			ReplyText:  rec.ReplyText,
			Language:   rec.Language,
			Tone:       rec.Tone,
			Success:    rec.Success,
			CreatedAt:  rec.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"limit":  limit,
		"offset": offset,
	})
}

type statsResponse struct {
	TotalGenerations int64         `json:"total_generations"`
	CurrentPeriod    usageResponse `json:"current_period"`
}

func (m *Module) handleStats(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	total, err := m.generations.CountByUser(r.Context(), user.ID)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	ent, err := m.entitlements.Current(r.Context(), user)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, statsResponse{
		TotalGenerations: total,
		CurrentPeriod: usageResponse{
			Used:     ent.Used,
			Limit:    ent.Limit,
			Percent:  usage.PercentUsed(ent.Used, ent.Limit),
			ResetsAt: ent.ResetsAt,
		},
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
