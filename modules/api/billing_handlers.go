package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/replyforge/replyforge/pkg/plan"
)

// maxWebhookBody bounds webhook payloads; provider events are small.
const maxWebhookBody = 64 * 1024

type planResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MonthlyQuota int64    `json:"monthly_quota"`
	PriceCents   int64    `json:"price_cents"`
	Currency     string   `json:"currency"`
	Features     []string `json:"features"`
}

func (m *Module) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans := m.plans.List()
	out := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		features := make([]string, 0, len(p.Features))
		for _, f := range p.Features {
			features = append(features, string(f))
		}
		out = append(out, planResponse{
			ID:           string(p.ID),
			Name:         p.Name,
			MonthlyQuota: p.MonthlyQuota,
			PriceCents:   p.Price.Amount,
			Currency:     p.Price.Currency,
			Features:     features,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type checkoutRequest struct {
	Plan string `json:"plan"`
}

func (m *Module) handleCheckout(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.respondError(w, r, errInvalidJSON)
		return
	}

	session, err := m.billing.Checkout(r.Context(), user, plan.ID(req.Plan))
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"url":        session.URL,
		"session_id": session.SessionID,
		"expires_at": session.ExpiresAt,
	})
}

func (m *Module) handleBillingStatus(w http.ResponseWriter, r *http.Request) {
	summary := m.billing.Status(userFrom(r))
	respondJSON(w, http.StatusOK, map[string]any{
		"plan":    string(summary.Plan.ID),
		"status":  string(summary.Status),
		"valid":   summary.Valid,
		"ends_at": summary.EndsAt,
	})
}

func (m *Module) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := m.billing.Cancel(r.Context(), userFrom(r)); err != nil {
		m.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancellation_scheduled"})
}

func (m *Module) handleReactivate(w http.ResponseWriter, r *http.Request) {
	if err := m.billing.Reactivate(r.Context(), userFrom(r)); err != nil {
		m.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reactivated"})
}

// handleWebhook receives provider events. Signature failures return 400
// with no retry semantics; failures after verification return 500 so the
// provider redelivers. Events the reconciler does not act on are still
// acknowledged with 200.
func (m *Module) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		m.respondError(w, r, errInvalidJSON)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		signature = r.Header.Get("Paddle-Signature")
	}

	if err := m.billing.HandleWebhook(r.Context(), payload, signature); err != nil {
		m.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"received": time.Now().UTC().Format(time.RFC3339)})
}
