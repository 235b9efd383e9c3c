// Package devserver is a local stand-in for the marketplace search service.
//
// It serves an in-memory catalog through the same search endpoint the
// client talks to, pushes catalog changes over a notification websocket and
// reloads its catalog file when it changes on disk.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gigglobal/gigs/pkg/gigapi"
	"github.com/gigglobal/gigs/pkg/log"
	"github.com/gigglobal/gigs/pkg/realtime"
	"github.com/rs/cors"
)

// MaxPageSize bounds the size path segment.
const MaxPageSize = 100

type Server struct {
	catalog   *Catalog
	hub       *realtime.Hub
	heartbeat time.Duration
	log       *log.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithHeartbeat sets how often idle notification sockets get a heartbeat.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// NewServer serves catalog and publishes its changes on hub.
func NewServer(catalog *Catalog, hub *realtime.Hub, opts ...Option) *Server {
	s := &Server{
		catalog:   catalog,
		hub:       hub,
		heartbeat: 30 * time.Second,
		log:       log.ForService("devserver"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the served catalog.
func (s *Server) Catalog() *Catalog {
	return s.catalog
}

// Handler returns the full HTTP handler including CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(mux)
}

// ListenAndServe serves on addr until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("serving %d gigs on http://%s", s.catalog.Len(), ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// publish broadcasts catalog changes to notification listeners.
func (s *Server) publish(events ...realtime.Event) {
	for _, e := range events {
		s.log.Debugf("%s %s", e.Type, e.GigID)
		s.hub.Broadcast(e)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, gigapi.ErrorResponse{Message: message})
}
