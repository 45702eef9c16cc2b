package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/billing"
	"github.com/replyforge/replyforge/pkg/entitlement"
	"github.com/replyforge/replyforge/pkg/generation"
	"github.com/replyforge/replyforge/pkg/jwt"
	"github.com/replyforge/replyforge/pkg/logger"
	"github.com/replyforge/replyforge/pkg/profile"
	"github.com/replyforge/replyforge/pkg/validator"
)

// errInvalidJSON marks an unparseable request body.
var errInvalidJSON = errors.New("invalid JSON body")

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string                     `json:"code"`
	Message string                     `json:"message"`
	Fields  validator.ValidationErrors `json:"fields,omitempty"`
	Details map[string]any             `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// respondError maps domain sentinels to HTTP statuses and a stable error
// code vocabulary. Unknown errors become a generic 500; the underlying
// message is only exposed when devMode is set.
func (m *Module) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := m.classify(err)

	if status >= http.StatusInternalServerError {
		m.log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
			logger.Component("api"),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: body})
}

func (m *Module) classify(err error) (int, *errorBody) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusUnprocessableEntity, &errorBody{
			Code:    "validation_failed",
			Message: "validation failed",
			Fields:  validationErrs,
		}
	}

	var expired *entitlement.SubscriptionExpiredError
	if errors.As(err, &expired) {
		body := &errorBody{
			Code:    "subscription_expired",
			Message: expired.Error(),
			Details: map[string]any{
				"subscription_expired": true,
				"plan":                 expired.PlanID,
			},
		}
		if expired.ExpiredAt != nil {
			body.Details["expired_at"] = expired.ExpiredAt.UTC().Format(time.RFC3339)
		}
		return http.StatusForbidden, body
	}

	var quota *entitlement.QuotaExceededError
	if errors.As(err, &quota) {
		return http.StatusTooManyRequests, &errorBody{
			Code:    "quota_exceeded",
			Message: quota.Error(),
			Details: map[string]any{
				"limit":     quota.Limit,
				"current":   quota.Current,
				"resets_at": quota.ResetsAt.UTC().Format(time.RFC3339),
			},
		}
	}

	switch {
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrExpiredToken):
		return http.StatusUnauthorized, &errorBody{Code: "unauthenticated", Message: "authentication required"}

	case errors.Is(err, auth.ErrAccountInactive):
		return http.StatusForbidden, &errorBody{Code: "account_inactive", Message: "account is deactivated"}

	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, profile.ErrTemplateNotFound),
		errors.Is(err, profile.ErrNotOwner):
		return http.StatusNotFound, &errorBody{Code: "not_found", Message: "resource not found"}

	case errors.Is(err, auth.ErrEmailAlreadyExists):
		return http.StatusConflict, &errorBody{Code: "email_taken", Message: "email is already registered"}

	case errors.Is(err, generation.ErrEmptyReview):
		return http.StatusUnprocessableEntity, &errorBody{Code: "validation_failed", Message: "review text is required"}

	case errors.Is(err, billing.ErrPlanNotPurchasable),
		errors.Is(err, billing.ErrNoSubscription),
		errors.Is(err, billing.ErrNotSupported):
		return http.StatusBadRequest, &errorBody{Code: "bad_request", Message: err.Error()}

	case errors.Is(err, errInvalidJSON):
		return http.StatusBadRequest, &errorBody{Code: "bad_request", Message: "invalid JSON body"}

	case errors.Is(err, billing.ErrInvalidSignature):
		return http.StatusBadRequest, &errorBody{Code: "invalid_signature", Message: "webhook signature verification failed"}

	case errors.Is(err, billing.ErrInvalidPayload):
		return http.StatusBadRequest, &errorBody{Code: "bad_request", Message: "invalid webhook payload"}
	}

	body := &errorBody{Code: "internal_error", Message: "internal server error"}
	if m.devMode {
		body.Message = err.Error()
	}
	return http.StatusInternalServerError, body
}
