// Package api wires the HTTP surface: JSON route handlers over the auth,
// entitlement, generation, billing and profile services.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/replyforge/replyforge/pkg/auth"
	"github.com/replyforge/replyforge/pkg/billing"
	"github.com/replyforge/replyforge/pkg/entitlement"
	"github.com/replyforge/replyforge/pkg/generation"
	"github.com/replyforge/replyforge/pkg/logger"
	"github.com/replyforge/replyforge/pkg/plan"
	"github.com/replyforge/replyforge/pkg/profile"
	"github.com/replyforge/replyforge/pkg/ratelimit"
)

// Module holds the services the HTTP handlers delegate to.
type Module struct {
	auth         *auth.Service
	verifier     *auth.Verifier
	entitlements *entitlement.Resolver
	gateway      *generation.Gateway
	generations  generation.Store
	billing      *billing.Service
	profiles     *profile.Service
	plans        *plan.Catalog

	loginLimiter    *ratelimit.Limiter
	generateLimiter *ratelimit.Limiter

	log     *slog.Logger
	devMode bool
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the module logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Module) { m.log = log }
}

// WithDevMode includes internal error messages in 500 responses. Never
// enable outside local development.
func WithDevMode(enabled bool) Option {
	return func(m *Module) { m.devMode = enabled }
}

// WithLoginLimiter rate limits login and register by client IP.
func WithLoginLimiter(l *ratelimit.Limiter) Option {
	return func(m *Module) { m.loginLimiter = l }
}

// WithGenerateLimiter rate limits generation calls by user.
func WithGenerateLimiter(l *ratelimit.Limiter) Option {
	return func(m *Module) { m.generateLimiter = l }
}

// New creates the API module.
func New(
	authSvc *auth.Service,
	verifier *auth.Verifier,
	entitlements *entitlement.Resolver,
	gateway *generation.Gateway,
	generations generation.Store,
	billingSvc *billing.Service,
	profiles *profile.Service,
	plans *plan.Catalog,
	opts ...Option,
) *Module {
	m := &Module{
		auth:         authSvc,
		verifier:     verifier,
		entitlements: entitlements,
		gateway:      gateway,
		generations:  generations,
		billing:      billingSvc,
		profiles:     profiles,
		plans:        plans,
		log:          logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Router builds the chi router for the whole API.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", m.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		if m.loginLimiter != nil {
			r.Use(ratelimit.Middleware(m.loginLimiter, ratelimit.ByClientIP))
		}
		r.Post("/register", m.handleRegister)
		r.Post("/login", m.handleLogin)
		r.With(m.requireUser).Get("/me", m.handleMe)
	})

	r.Route("/generate", func(r chi.Router) {
		r.Use(m.requireUser)
		if m.generateLimiter != nil {
			r.Use(ratelimit.Middleware(m.generateLimiter, m.userKey))
		}
		r.Post("/", m.handleGenerate)
		r.Get("/history", m.handleHistory)
		r.Get("/stats", m.handleStats)
	})

	r.Route("/billing", func(r chi.Router) {
		r.Get("/plans", m.handlePlans)
		// The raw body is needed for signature verification, so no auth
		// middleware runs on the webhook route.
		r.Post("/webhook", m.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(m.requireUser)
			r.Post("/checkout", m.handleCheckout)
			r.Get("/status", m.handleBillingStatus)
			r.Post("/cancel", m.handleCancel)
			r.Post("/reactivate", m.handleReactivate)
		})
	})

	r.Route("/profile", func(r chi.Router) {
		r.Use(m.requireUser)
		r.Get("/", m.handleGetProfile)
		r.Put("/", m.handleUpdateProfile)
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", m.handleListTemplates)
			r.Post("/", m.handleCreateTemplate)
			r.Put("/{templateID}", m.handleUpdateTemplate)
			r.Delete("/{templateID}", m.handleDeleteTemplate)
		})
	})

	return r
}

func (m *Module) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
