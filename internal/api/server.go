// Package api serves the bot's operational HTTP endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/tipbot/internal/telegram"
)

// Pinger reports whether a dependency is reachable. storage.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UpdateHandler processes one Telegram update. *bot.Dispatcher implements it.
type UpdateHandler interface {
	Deliver(ctx context.Context, update telegram.Update)
}

// Config holds server configuration.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// WebhookSecret must match the X-Telegram-Bot-Api-Secret-Token header.
	// Empty disables the check.
	WebhookSecret string
	// MaxConcurrentUpdates bounds how many webhook updates are processed at once.
	MaxConcurrentUpdates int
}

// Server exposes /healthz, /metrics and, in webhook mode, /telegram/webhook.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	config     Config
	store      Pinger
	gatherer   prometheus.Gatherer
	updates    UpdateHandler
	logger     *slog.Logger

	// baseCtx outlives individual webhook requests; updates are processed
	// after the response has been sent.
	baseCtx  context.Context
	sem      chan struct{}
	inflight sync.WaitGroup
}

// NewServer creates a new ops server. updates may be nil when the bot runs
// in polling mode.
func NewServer(ctx context.Context, cfg Config, store Pinger, gatherer prometheus.Gatherer, updates UpdateHandler, logger *slog.Logger) *Server {
	if cfg.MaxConcurrentUpdates <= 0 {
		cfg.MaxConcurrentUpdates = 50
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:   mux.NewRouter(),
		config:   cfg,
		store:    store,
		gatherer: gatherer,
		updates:  updates,
		logger:   logger,
		baseCtx:  ctx,
		sem:      make(chan struct{}, cfg.MaxConcurrentUpdates),
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	if s.updates != nil {
		s.router.HandleFunc("/telegram/webhook", s.handleWebhook).Methods(http.MethodPost)
	}

	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully. It returns
// only after every accepted webhook update has been handled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting ops server", "addr", s.config.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down ops server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.Wait()
	return err
}

// Wait blocks until all webhook updates handed to the UpdateHandler have
// finished.
func (s *Server) Wait() {
	s.inflight.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("Health check failed", "error", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.config.WebhookSecret != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != s.config.WebhookSecret {
		s.logger.Warn("Webhook call with bad secret", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&update); err != nil {
		s.logger.Warn("Invalid webhook payload", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	select {
	case s.sem <- struct{}{}:
	default:
		// Telegram retries updates that were not acknowledged.
		s.logger.Warn("Too many updates in flight, rejecting", "update_id", update.UpdateID)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() { <-s.sem }()
		s.updates.Deliver(s.baseCtx, update)
	}()

	w.WriteHeader(http.StatusOK)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
