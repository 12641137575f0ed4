// Package server exposes the delivery engine over HTTP: the SSE stream, catchup,
// technical acks, event ingestion from the CRUD services, presence and health.
package server

import (
	"civic-stream/auth"
	"civic-stream/contract"
	"civic-stream/domain"
	"civic-stream/domain/event"
	"civic-stream/observability"
	"civic-stream/services"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Emitter appends and publishes an event, see runtime.Publisher.
type Emitter interface {
	Emit(ctx context.Context, evt event.DomainEvent) (event.Notification, error)
}

type Catchupper interface {
	Catchup(ctx context.Context, subject domain.Subject, wm services.Watermark) (services.CatchupResult, error)
}

// Bus is the part of the realtime bus the HTTP layer needs.
type Bus interface {
	contract.IBus
	ChannelCount() int
}

type MembershipApplier interface {
	Apply(evt event.DomainEvent)
}

type Deps struct {
	Log        *slog.Logger
	Tokens     auth.Tokens
	Bus        Bus
	Publisher  Emitter
	Catchup    Catchupper
	Ack        services.IAckService
	Presence   contract.IPresenceTracker
	Membership MembershipApplier
	Authorizer contract.Authorizer
	Snapshots  contract.SnapshotSource
	Monitor    *observability.Monitor
}

type StreamOptions struct {
	Heartbeats   domain.HeartbeatPolicy
	QueueSize    int
	WriteTimeout time.Duration
	SuppressEcho bool
}

type Server struct {
	deps   Deps
	stream StreamOptions
	log    *slog.Logger
}

func New(deps Deps, stream StreamOptions) *Server {
	return &Server{deps: deps, stream: stream, log: deps.Log}
}

// Handler returns the routed handler with authentication applied to every route but /healthz.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /v1/stream", s.handleStream)
	api.HandleFunc("GET /v1/catchup", s.handleCatchup)
	api.HandleFunc("POST /v1/ack", s.handleAck)
	api.HandleFunc("GET /v1/ack/{eventId}", s.handleAckStatus)
	api.HandleFunc("POST /v1/events", s.handleIngest)
	api.HandleFunc("GET /v1/presence/{subjectId}", s.handlePresence)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("/v1/", auth.Middleware(s.deps.Tokens, s.log)(api))
	return mux
}

// Run serves until ctx is done, then drains in-flight requests for at most grace.
// Open streams end on shutdown because their request contexts are cancelled.
func (s *Server) Run(ctx context.Context, address string, grace time.Duration) error {
	httpServer := &http.Server{
		Addr:              address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	s.log.Info("Shutting down HTTP server")
	return httpServer.Shutdown(shutdownCtx)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
