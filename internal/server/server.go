package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/auth"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/chat"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/gate"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/handler"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/model"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/server/middleware"
	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// KeygenPerIP limits unauthenticated key generation per client IP
	// per KeygenWindow.
	KeygenPerIP  int
	KeygenWindow time.Duration

	// AzureConfigured is reported on /health; it reflects whether remote
	// credentials were present at startup, independent of local mode.
	AzureConfigured bool
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		KeygenPerIP:     10,
		KeygenWindow:    time.Minute,
	}
}

// Server is the top-level HTTP server. It owns the Chi router and wires the
// authorization gate ahead of the conversation endpoints.
type Server struct {
	cfg        Config
	router     chi.Router
	httpServer *http.Server

	chatSvc   *chat.Service
	gate      *gate.Gate
	store     *store.Store
	validator *auth.Validator
	admin     *auth.AdminAuth
	logger    *slog.Logger
}

// New creates a Server, wires up all routes and middleware, and returns it
// ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, chatSvc *chat.Service, g *gate.Gate, st *store.Store, validator *auth.Validator, admin *auth.AdminAuth, logger *slog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		chatSvc:   chatSvc,
		gate:      g,
		store:     st,
		validator: validator,
		admin:     admin,
		logger:    logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-ID", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	chatHandler := handler.NewChatHandler(s.chatSvc)
	keyHandler := handler.NewKeyHandler(s.store, s.validator, s.logger)

	r.Get("/health", s.handleHealth)

	// Key generation is open but throttled by client IP. The per-key
	// limiter cannot apply here since the caller has no key yet.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ThrottleByIP(s.cfg.KeygenPerIP, s.cfg.KeygenWindow))
		r.Post("/auth/generate-key", keyHandler.Generate)
	})

	// Conversation endpoints sit behind the gate: key validation first,
	// then the per-key sliding window.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Gate(s.gate))
		r.Post("/chat", chatHandler.Chat)
		r.Get("/history", chatHandler.History)
	})

	// Key management requires an admin token minted via the CLI.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(s.admin))
		r.Get("/admin/keys", keyHandler.List)
		r.Delete("/admin/keys/{keyID}", keyHandler.Revoke)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := model.HealthResponse{
		Status:          "ok",
		LocalMode:       s.chatSvc.ProviderName() == "local",
		AzureConfigured: s.cfg.AzureConfigured,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before returning.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "provider", s.chatSvc.ProviderName())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
