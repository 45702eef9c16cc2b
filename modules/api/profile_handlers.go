package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/replyforge/replyforge/pkg/profile"
)

type businessProfileRequest struct {
	BusinessName    string `json:"business_name"`
	BusinessType    string `json:"business_type"`
	DefaultTone     string `json:"default_tone"`
	DefaultLanguage string `json:"default_language"`
}

func (m *Module) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	respondJSON(w, http.StatusOK, businessProfileRequest{
		BusinessName:    user.BusinessName,
		BusinessType:    user.BusinessType,
		DefaultTone:     user.DefaultTone,
		DefaultLanguage: user.DefaultLanguage,
	})
}

func (m *Module) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	var req businessProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.respondError(w, r, errInvalidJSON)
		return
	}

	err := m.profiles.UpdateBusinessProfile(r.Context(), user, profile.BusinessProfile{
		BusinessName:    req.BusinessName,
		BusinessType:    req.BusinessType,
		DefaultTone:     req.DefaultTone,
		DefaultLanguage: req.DefaultLanguage,
	})
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(user))
}

type templateRequest struct {
	Name     string `json:"name"`
	Tone     string `json:"tone"`
	Language string `json:"language"`
	Body     string `json:"body"`
}

type templateResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tone      string    `json:"tone"`
	Language  string    `json:"language"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTemplateResponse(tpl *profile.Template) templateResponse {
	return templateResponse{
		ID:        tpl.ID.String(),
		Name:      tpl.Name,
		Tone:      tpl.Tone,
		Language:  tpl.Language,
		Body:      tpl.Body,
		CreatedAt: tpl.CreatedAt,
		UpdatedAt: tpl.UpdatedAt,
	}
}

func (m *Module) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	templates, err := m.profiles.Templates(r.Context(), user.ID)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	out := make([]templateResponse, 0, len(templates))
	for i := range templates {
		out = append(out, toTemplateResponse(&templates[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (m *Module) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.respondError(w, r, errInvalidJSON)
		return
	}

	tpl, err := m.profiles.CreateTemplate(r.Context(), user.ID, req.Name, req.Tone, req.Language, req.Body)
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toTemplateResponse(tpl))
}

func (m *Module) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	templateID, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		m.respondError(w, r, profile.ErrTemplateNotFound)
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		m.respondError(w, r, errInvalidJSON)
		return
	}

	tpl, err := m.profiles.UpdateTemplate(r.Context(), user.ID, templateID, req.Name, req.Tone, req.Language, req.Body)
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTemplateResponse(tpl))
}

func (m *Module) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)

	templateID, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		m.respondError(w, r, profile.ErrTemplateNotFound)
		return
	}

	if err := m.profiles.DeleteTemplate(r.Context(), user.ID, templateID); err != nil {
		m.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
