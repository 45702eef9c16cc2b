package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/replyforge/replyforge/pkg/auth"
)

type registerRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	BusinessName string `json:"business_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	BusinessName       string     `json:"business_name,omitempty"`
	BusinessType       string     `json:"business_type,omitempty"`
	DefaultTone        string     `json:"default_tone,omitempty"`
	DefaultLanguage    string     `json:"default_language,omitempty"`
	Plan               string     `json:"plan"`
	SubscriptionStatus string     `json:"subscription_status"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at,omitempty"`
	MonthlyQuota       int64      `json:"monthly_quota"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:                 u.ID.String(),
		Email:              u.Email,
		Name:               u.Name,
		BusinessName:       u.BusinessName,
		BusinessType:       u.BusinessType,
		DefaultTone:        u.DefaultTone,
		DefaultLanguage:    u.DefaultLanguage,
		Plan:               string(u.PlanID),
		SubscriptionStatus: string(u.SubscriptionStatus),
		SubscriptionEndsAt: u.SubscriptionEndsAt,
		MonthlyQuota:       u.MonthlyQuota,
	}
}

func (m *Module) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.respondError(w, r, errInvalidJSON)
		return
	}

	user, err := m.auth.Register(r.Context(), req.Email, req.Password, req.Name, req.BusinessName)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	token, err := m.verifier.IssueToken(user)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(user)})
}

func (m *Module) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.respondError(w, r, errInvalidJSON)
		return
	}

	user, err := m.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	token, err := m.verifier.IssueToken(user)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(user)})
}

func (m *Module) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, toUserResponse(userFrom(r)))
}
