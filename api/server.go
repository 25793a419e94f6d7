// Package api exposes the query pipeline over a JSON HTTP API.
//
// Conversation memory is per-session and in-process only; sessions are
// created and discarded via the sessions endpoints and never persisted.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/secondbrainhq/secondbrain/internal/agent"
	"github.com/secondbrainhq/secondbrain/internal/log"
)

// Server timeouts. Queries run a multi-stage LLM pipeline, so the write
// timeout is generous.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 5 * time.Minute
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

// Asker answers questions against the knowledge base.
type Asker interface {
	Ask(ctx context.Context, question string, history []*ai.Message) (agent.QueryResult, error)
}

// Pinger reports backend storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config for the API server.
type Config struct {
	Host     string
	Port     int
	MaxTurns int // per-session conversation memory size
}

// Server is the JSON API server.
type Server struct {
	asker    Asker
	pinger   Pinger
	sessions *SessionManager
	logger   log.Logger
	srv      *http.Server
}

// NewServer creates the API server with all routes registered.
func NewServer(cfg Config, asker Asker, pinger Pinger, logger log.Logger) (*Server, error) {
	if asker == nil {
		return nil, errors.New("asker is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = agent.DefaultMaxTurns
	}

	s := &Server{
		asker:    asker,
		pinger:   pinger,
		sessions: NewSessionManager(maxTurns),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)

	handler := Recovery(logger)(Logging(logger)(mux))

	s.srv = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	return s, nil
}

// Handler returns the server's handler for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// ListenAndServe starts the server and blocks until ctx is canceled or the
// listener fails, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return <-errCh
}
