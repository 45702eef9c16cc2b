package profile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/generation"
	"github.com/replyforge/replyforge/pkg/logger"
	"github.com/replyforge/replyforge/pkg/validator"
)

const (
	maxNameLen = 100
	maxBodyLen = 2000
)

// Service manages business profiles and saved reply templates. Every
// template operation checks ownership before touching the record.
type Service struct {
	users     auth.UserStore
	templates TemplateStore
	log       *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a profile Service.
func NewService(users auth.UserStore, templates TemplateStore, opts ...Option) *Service {
	s := &Service{
		users:     users,
		templates: templates,
		log:       logger.NewDiscard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateBusinessProfile stores the generation defaults on the user record.
func (s *Service) UpdateBusinessProfile(ctx context.Context, user *auth.User, p BusinessProfile) error {
	if err := validator.Apply(
		validator.MaxLen("business_name", p.BusinessName, maxNameLen),
		validator.MaxLen("business_type", p.BusinessType, maxNameLen),
		validator.OneOf("default_tone", p.DefaultTone, generation.Tones...),
		validator.OneOf("default_language", p.DefaultLanguage, generation.Languages...),
	); err != nil {
		return err
	}

	user.BusinessName = p.BusinessName
	user.BusinessType = p.BusinessType
	user.DefaultTone = p.DefaultTone
	user.DefaultLanguage = p.DefaultLanguage

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("profile: failed to update business profile: %w", err)
	}
	return nil
}

// CreateTemplate saves a new reply template for the user.
func (s *Service) CreateTemplate(ctx context.Context, userID uuid.UUID, name, tone, language, body string) (*Template, error) {
	if err := validator.Apply(
		validator.Required("name", name),
		validator.MaxLen("name", name, maxNameLen),
		validator.OneOf("tone", tone, generation.Tones...),
		validator.OneOf("language", language, generation.Languages...),
		validator.MaxLen("body", body, maxBodyLen),
	); err != nil {
		return nil, err
	}
	if tone == "" {
		tone = generation.DefaultTone
	}
	if language == "" {
		language = generation.DefaultLanguage
	}

	now := s.now().UTC()
	tpl := &Template{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Tone:      tone,
		Language:  language,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("profile: failed to create template: %w", err)
	}
	return tpl, nil
}

// Templates lists the user's saved templates.
func (s *Service) Templates(ctx context.Context, userID uuid.UUID) ([]Template, error) {
	return s.templates.ListByUser(ctx, userID)
}

// UpdateTemplate replaces the mutable fields of an owned template.
func (s *Service) UpdateTemplate(ctx context.Context, userID, templateID uuid.UUID, name, tone, language, body string) (*Template, error) {
	tpl, err := s.owned(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}

	if err := validator.Apply(
		validator.Required("name", name),
		validator.MaxLen("name", name, maxNameLen),
		validator.OneOf("tone", tone, generation.Tones...),
		validator.OneOf("language", language, generation.Languages...),
		validator.MaxLen("body", body, maxBodyLen),
	); err != nil {
		return nil, err
	}

	tpl.Name = name
	if tone != "" {
		tpl.Tone = tone
	}
	if language != "" {
		tpl.Language = language
	}
	tpl.Body = body
	tpl.UpdatedAt = s.now().UTC()

	if err := s.templates.Update(ctx, tpl); err != nil {
		return nil, fmt.Errorf("profile: failed to update template: %w", err)
	}
	return tpl, nil
}

// DeleteTemplate removes an owned template.
func (s *Service) DeleteTemplate(ctx context.Context, userID, templateID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, templateID); err != nil {
		return err
	}
	if err := s.templates.Delete(ctx, templateID); err != nil {
		return fmt.Errorf("profile: failed to delete template: %w", err)
	}
	return nil
}

func (s *Service) owned(ctx context.Context, userID, templateID uuid.UUID) (*Template, error) {
	tpl, err := s.templates.ByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tpl.UserID != userID {
		return nil, ErrNotOwner
	}
	return tpl, nil
}
