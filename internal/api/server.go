package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/graph"
	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/trie"
)

const shutdownTimeout = 5 * time.Second

// Server serves read-only queries over a trie that is no longer being
// written to.
type Server struct {
	trie     *trie.Trie
	exporter *graph.Exporter
	server   *http.Server
	addr     string
	logger   zerolog.Logger
}

// NewServer creates a new API server
func NewServer(addr string, t *trie.Trie, logger zerolog.Logger) *Server {
	s := &Server{
		trie:     t,
		exporter: graph.NewExporter(t),
		addr:     addr,
		logger:   logger,
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/complete", s.complete).Methods(http.MethodGet)
	r.HandleFunc("/graph", s.dumpGraph).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.stats).Methods(http.MethodGet)
	r.HandleFunc("/contains/{word:.+}", s.contains).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, fmt.Errorf("no route for %s %s", r.Method, r.URL.Path))
	})

	s.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the address the server is configured to listen on
func (s *Server) Addr() string {
	return s.addr
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.logger.Info().Str("addr", listener.Addr().String()).Msg("Server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server")
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}

// Helper functions for HTTP responses
func (s *Server) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error().Err(err).Msg("Failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respond(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps trie errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, trie.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, trie.ErrInvalidByte):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// complete handles GET /complete?prefix=P
func (s *Server) complete(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	words, err := s.trie.Complete([]byte(prefix))
	if err != nil {
		s.respondError(w, statusFor(err), err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"prefix": prefix,
		"words":  words,
	})
}

// dumpGraph handles GET /graph?prefix=P
func (s *Server) dumpGraph(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	scope := trie.WholeTree()
	if prefix != "" {
		node, err := s.trie.Descend([]byte(prefix))
		if err != nil {
			s.respondError(w, statusFor(err), err)
			return
		}
		scope = trie.Subtree(node)
	}

	dot, err := s.exporter.DumpString(scope, prefix)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(dot))
}

// stats handles GET /stats
func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.trie.Stats())
}

// contains handles GET /contains/{word}
func (s *Server) contains(w http.ResponseWriter, r *http.Request) {
	word := mux.Vars(r)["word"]
	if err := trie.Validate([]byte(word)); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"word":    word,
		"present": s.trie.Contains([]byte(word)),
	})
}
