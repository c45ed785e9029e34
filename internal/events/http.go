package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sapliy/emergency-dispatch/pkg/jsonutil"
	"github.com/sapliy/emergency-dispatch/pkg/observability"
)

const maxEventBytes = 1 << 20

var errUnauthorized = errors.New("unauthorized")

// HealthCheck reports the health of one dependency.
type HealthCheck func(ctx context.Context) error

// Server exposes health, metrics and the push endpoint for document events.
type Server struct {
	router *Router
	secret []byte
	logger *observability.Logger
	checks map[string]HealthCheck

	inflight sync.WaitGroup
}

// NewServer builds the HTTP surface. An empty pushSecret disables bearer auth.
func NewServer(router *Router, pushSecret string, logger *observability.Logger) *Server {
	s := &Server{
		router: router,
		logger: logger,
		checks: make(map[string]HealthCheck),
	}
	if pushSecret != "" {
		s.secret = []byte(pushSecret)
	}
	return s
}

func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/v1/events", s.PushEvent).Methods(http.MethodPost)
	return r
}

// Handler returns the routes wrapped with tracing.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.Routes(), "dispatcher")
}

// Wait blocks until every accepted event has been handled.
func (s *Server) Wait() {
	s.inflight.Wait()
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		jsonutil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "failed": failed})
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PushEvent accepts an event envelope and handles it in the background.
func (s *Server) PushEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.authorize(r); err != nil {
		s.logger.WithContext(r.Context()).Warn("rejected event push", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusUnauthorized, "invalid or missing bearer token")
		return
	}

	var e Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&e); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "invalid event body")
		return
	}
	if err := e.Validate(); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := context.WithoutCancel(r.Context())
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		if err := s.router.Dispatch(ctx, &e); err != nil {
			s.logger.WithContext(ctx).Error("event handler failed", "event_id", e.ID, "error", err)
		}
	}()

	jsonutil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "id": e.ID})
}

func (s *Server) authorize(r *http.Request) error {
	if s.secret == nil {
		return nil
	}
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return fmt.Errorf("%w: missing bearer token", errUnauthorized)
	}

	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("%w: %v", errUnauthorized, err)
	}
	if !token.Valid {
		return errUnauthorized
	}
	return nil
}
