package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AlexTLDR/guestlist/internal/config"
	"github.com/AlexTLDR/guestlist/internal/rsvp"
	"github.com/AlexTLDR/guestlist/internal/server/handlers"
	"github.com/gorilla/sessions"
)

const sessionName = "auth-session"

type Server struct {
	config       *config.Config
	service      *rsvp.Service
	logger       *slog.Logger
	sessionStore *sessions.CookieStore
	router       *http.ServeMux
	httpServer   *http.Server
}

// GetService implements handlers.Server interface
func (s *Server) GetService() *rsvp.Service {
	return s.service
}

// GetConfig implements handlers.Server interface
func (s *Server) GetConfig() *config.Config {
	return s.config
}

// GetLogger implements handlers.Server interface
func (s *Server) GetLogger() *slog.Logger {
	return s.logger
}

// GetCurrentUser implements handlers.AdminServer interface
func (s *Server) GetCurrentUser(r *http.Request) (string, string) {
	session, _ := s.sessionStore.Get(r, sessionName)
	email, _ := session.Values["email"].(string)
	name, _ := session.Values["name"].(string)
	return email, name
}

func New(cfg *config.Config, service *rsvp.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.WithGroup("http")
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode

	s := &Server{
		config:       cfg,
		service:      service,
		logger:       logger,
		sessionStore: store,
		router:       http.NewServeMux(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /healthz", handlers.HandleHealth())

	// Public routes
	s.router.HandleFunc("GET /api/rsvp", handlers.HandleInvitations(s))
	s.router.HandleFunc("POST /api/rsvp/lookup", handlers.HandleLookup(s))
	s.router.HandleFunc("POST /api/rsvp", handlers.HandleRSVPSubmit(s))

	// Auth routes
	s.router.HandleFunc("GET /auth/google", s.handleGoogleLogin)
	s.router.HandleFunc("GET /auth/google/callback", s.handleGoogleCallback)
	s.router.HandleFunc("/auth/logout", s.handleLogout)

	// Admin routes (protected)
	s.router.HandleFunc("GET /admin/responses", s.requireAuth(handlers.HandleAdminResponses(s)))
	s.router.HandleFunc("GET /admin/responses.csv", s.requireAuth(handlers.HandleAdminDownloadCSV(s)))
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.withTimeout(s.router))
}

// Start serves HTTP on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// requireAuth is a middleware that checks if user is authenticated
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, _ := s.GetCurrentUser(r)
		if email == "" {
			http.Redirect(w, r, "/auth/google", http.StatusSeeOther)
			return
		}

		// Check if email is in whitelist
		if !s.config.IsAdminEmail(email) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	if s.config.RequestTimeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		switch {
		case rec.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case rec.status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
