// Package web serves a read-only status API for a running attendance loop.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/attendance-tracker/internal/attendance"
	"github.com/kozaktomas/attendance-tracker/internal/facematch"
	"github.com/kozaktomas/attendance-tracker/internal/library"
)

// Server represents the status server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	ledger     *attendance.Ledger
	identities []library.IdentitySummary
	startedAt  time.Time
}

// NewServer creates a status server for ledger and the loaded library.
func NewServer(addr string, ledger *attendance.Ledger, known []facematch.KnownIdentity) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:     r,
		ledger:     ledger,
		identities: library.Summarize(known),
		startedAt:  time.Now(),
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/attendance", s.handleAttendance)
		r.Get("/library", s.handleLibrary)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting status server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
