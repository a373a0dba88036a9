package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/gantry/internal/logging"
	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

// Server exposes the webhook intake and run inspection API.
type Server struct {
	coordinator *coordinator
	store       ports.RunStore
	logger      *slog.Logger
	registry    *prometheus.Registry
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRunStore enables the /runs endpoints.
func WithRunStore(store ports.RunStore) Option {
	return func(s *Server) { s.store = store }
}

// WithMetricsRegistry enables /metrics backed by the given registry.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// NewServer wires a webhook server around the dispatcher.
func NewServer(d Dispatcher, opts ...Option) *Server {
	s := &Server{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.coordinator = newCoordinator(d, s.logger)
	return s
}

// Handler builds the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/events", s.handleEvent)
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{id}", s.handleGetRun)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Wait blocks until in-flight dispatches drain. Called during shutdown.
func (s *Server) Wait() {
	s.coordinator.Wait()
}

// eventPayload is the webhook body. Ref arrives in full form
// (refs/heads/main, refs/tags/v1.2.0); push events carrying a tag ref are
// normalized to tag_push so workflow rules see a single event kind per shape.
type eventPayload struct {
	Event   string `json:"event"`
	Ref     string `json:"ref"`
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

func (p eventPayload) trigger() (domain.Trigger, error) {
	t := domain.Trigger{
		Event:   domain.EventKind(p.Event),
		Ref:     p.Ref,
		SHA:     p.SHA,
		Message: p.Message,
	}
	switch t.Event {
	case domain.EventPush, domain.EventPullRequest, domain.EventTagPush:
	default:
		return domain.Trigger{}, fmt.Errorf("unknown event %q", p.Event)
	}
	if t.Event == domain.EventPush && strings.HasPrefix(t.Ref, "refs/tags/") {
		t.Event = domain.EventTagPush
	}
	t.Ref = domain.ShortRef(t.Ref)
	if t.Ref == "" {
		return domain.Trigger{}, errors.New("missing ref")
	}
	return t, nil
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	trig, err := payload.trigger()
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	// The dispatch outlives the request; detach it from the request context.
	s.coordinator.Dispatch(context.WithoutCancel(r.Context()), trig)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "run store not configured", http.StatusNotFound)
		return
	}
	runs, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.logger.Error("encode runs", "err", err)
	}
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "run store not configured", http.StatusNotFound)
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.store.Load(r.Context(), id)
	if errors.Is(err, domain.ErrRunNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(run); err != nil {
		s.logger.Error("encode run", "err", err)
	}
}
