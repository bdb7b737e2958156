package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/aretw0/relux"
	"github.com/aretw0/relux/internal/logging"
	"github.com/aretw0/relux/pkg/domain"
	"github.com/aretw0/relux/pkg/relay"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxActionBody bounds POST /actions bodies.
const maxActionBody = 1 << 20

// Inspector is the read side of a relux instance plus its dispatch entry point.
// *relux.Relux implements it.
type Inspector interface {
	Relays() []relay.Observable
	Relay(name string) (relay.Observable, bool)
	Dispatch(ctx context.Context, action domain.Action) error
}

var _ Inspector = (*relux.Relux)(nil)

// Decoder builds an action from a request body.
type Decoder func(body []byte) (domain.Action, error)

// Decode returns a Decoder that unmarshals JSON into an A.
// An empty body yields the zero A.
func Decode[A any]() Decoder {
	return func(body []byte) (domain.Action, error) {
		var a A
		if len(strings.TrimSpace(string(body))) == 0 {
			return a, nil
		}
		if err := json.Unmarshal(body, &a); err != nil {
			return nil, err
		}
		return a, nil
	}
}

// Server serves relay snapshots and accepts actions over HTTP.
// It never touches states directly: reads go through relays and writes
// through Dispatch.
type Server struct {
	Inspector Inspector
	decoders  map[string]Decoder
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithDecoder exposes POST /actions/{name}, decoding bodies with dec.
func WithDecoder(name string, dec Decoder) Option {
	return func(s *Server) {
		s.decoders[name] = dec
	}
}

// WithGatherer serves metrics from g on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for in.
func NewHandler(in Inspector, opts ...Option) http.Handler {
	s := &Server{
		Inspector: in,
		decoders:  make(map[string]Decoder),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/relays", s.ListRelays)
	r.Get("/relays/{key}", s.GetRelay)
	r.Get("/relays/{key}/events", s.SubscribeRelay)
	r.Get("/actions", s.ListActions)
	r.Post("/actions/{name}", s.PostAction)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Snapshot is the wire shape of one relay's current value.
type Snapshot struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "relux-http",
		"version": relux.Version,
	})
}

// ListRelays handles the GET /relays request.
func (s *Server) ListRelays(w http.ResponseWriter, r *http.Request) {
	relays := s.Inspector.Relays()
	resp := make([]Snapshot, 0, len(relays))
	for _, rl := range relays {
		resp = append(resp, Snapshot{Key: rl.Key().String(), Value: rl.Value()})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetRelay handles the GET /relays/{key} request.
// Keys contain slashes and must be path-escaped.
func (s *Server) GetRelay(w http.ResponseWriter, r *http.Request) {
	rl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, Snapshot{Key: rl.Key().String(), Value: rl.Value()})
}

// SubscribeRelay handles the GET /relays/{key}/events request (SSE).
// The current snapshot is sent first, then every change until the client
// goes away or the relay is released.
func (s *Server) SubscribeRelay(w http.ResponseWriter, r *http.Request) {
	rl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeRelay: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	key := rl.Key().String()
	updates := rl.WatchAny(r.Context())
	s.logger.Info("SSE: subscribing to relay", "relay", key)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "relay", key)
			return
		case v, ok := <-updates:
			if !ok {
				fmt.Fprintf(w, "event: closed\ndata: %s\n\n", key)
				flusher.Flush()
				return
			}
			data, err := json.Marshal(v)
			if err != nil {
				s.logger.Warn("SSE: failed to encode snapshot", "relay", key, "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// ListActions handles the GET /actions request.
func (s *Server) ListActions(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.decoders))
	for name := range s.decoders {
		names = append(names, name)
	}
	sort.Strings(names)
	s.writeJSON(w, http.StatusOK, names)
}

// PostAction handles the POST /actions/{name} request.
func (s *Server) PostAction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	dec, ok := s.decoders[name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown action: %s", name), http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxActionBody))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostAction: unreadable body", "action", name, "err", err)
		return
	}
	action, err := dec(body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid action: %v", err), http.StatusBadRequest)
		s.logger.Warn("PostAction: decode failed", "action", name, "err", err)
		return
	}

	if err := s.Inspector.Dispatch(r.Context(), action); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNilAction) {
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("Dispatch error: %v", err), status)
		s.logger.Error("PostAction: dispatch failed", "action", name, "err", err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"action": domain.ActionName(action)})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (relay.Observable, bool) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil {
		http.Error(w, "Invalid relay key", http.StatusBadRequest)
		return nil, false
	}
	rl, ok := s.Inspector.Relay(key)
	if !ok {
		http.Error(w, fmt.Sprintf("Relay not found: %s", key), http.StatusNotFound)
		return nil, false
	}
	return rl, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
