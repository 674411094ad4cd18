// Package api is the HTTP surface of the quest service. Every /api route
// requires a bearer token; the identity it names owns the session.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Tarunjit45/ExamGenius/internal/curriculum"
	"github.com/Tarunjit45/ExamGenius/internal/notify"
	"github.com/Tarunjit45/ExamGenius/internal/quest"
)

const (
	defaultMaxUpload = 20 << 20
	readyTimeout     = 3 * time.Second
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config holds the server's collaborators.
type Config struct {
	Engine  *quest.Engine
	Auth    *Authenticator
	Library *curriculum.Library // optional
	Hub     *notify.Hub         // optional; /api/events is not served without it
	// Checks run on /readyz, keyed by the name reported on failure.
	Checks         map[string]HealthCheck
	MaxUploadBytes int64
}

// Server serves the quest API.
type Server struct {
	engine    *quest.Engine
	auth      *Authenticator
	library   *curriculum.Library
	hub       *notify.Hub
	checks    map[string]HealthCheck
	maxUpload int64
}

// NewServer creates a Server from cfg.
func NewServer(cfg Config) *Server {
	s := &Server{
		engine:    cfg.Engine,
		auth:      cfg.Auth,
		library:   cfg.Library,
		hub:       cfg.Hub,
		checks:    cfg.Checks,
		maxUpload: cfg.MaxUploadBytes,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = defaultMaxUpload
	}
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth.middleware)

		r.Post("/session", s.handleSignIn)
		r.Get("/session", s.handleGetSession)
		r.Delete("/session", s.handleSignOut)

		r.Get("/syllabi", s.handleListSyllabi)
		r.Post("/syllabus", s.handleUploadSyllabus)
		r.Post("/syllabus/{syllabusID}", s.handleUseSyllabus)

		r.Post("/plan", s.handleCreatePlan)
		r.Get("/plan/export.xlsx", s.handleExportPlan)

		r.Get("/missions/{missionID}/aids/{kind}", s.handleFetchAid)
		r.Post("/missions/{missionID}/quiz", s.handleSubmitQuiz)

		if s.hub != nil {
			r.Get("/events", s.handleEvents)
		}
	})
	return r
}
