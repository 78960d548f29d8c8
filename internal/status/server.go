// Package status serves the latest recommendation and process health over HTTP.
//
// Routes:
//
//	GET /healthz          liveness plus bus version
//	GET /recommendation   latest snapshot as JSON, ?mode=position for the reduced payload
//	GET /metrics          Prometheus exposition
//	GET /stream           WebSocket feed, one JSON message per new snapshot
package status

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-signal/internal/bus"
	"github.com/rxtech-lab/argo-signal/internal/dispatch"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often /stream checks the bus for a new version.
const DefaultPollInterval = 250 * time.Millisecond

// Health is the /healthz body.
type Health struct {
	Status     string    `json:"status"`
	Symbol     string    `json:"symbol"`
	BusVersion uint64    `json:"bus_version"`
	StartedAt  time.Time `json:"started_at"`
}

type Server struct {
	mu         sync.Mutex
	symbol     string
	bus        *bus.Bus
	metrics    *metrics.Metrics
	logger     *logger.Logger
	upgrader   websocket.Upgrader
	poll       time.Duration
	startedAt  time.Time
	httpServer *http.Server
	listener   net.Listener
}

func New(symbol string, b *bus.Bus, m *metrics.Metrics, log *logger.Logger) (*Server, error) {
	if b == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "bus is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Server{
		mu:      sync.Mutex{},
		symbol:  symbol,
		bus:     b,
		metrics: m,
		logger:  log.Named("status"),
		upgrader: websocket.Upgrader{ //nolint:exhaustruct
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		poll:       DefaultPollInterval,
		startedAt:  time.Now(),
		httpServer: nil,
		listener:   nil,
	}, nil
}

// SetPollInterval changes the /stream polling period. Call before Start.
func (s *Server) SetPollInterval(d time.Duration) {
	if d > 0 {
		s.poll = d
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	router.HandleFunc("/recommendation", s.handleRecommendation).Methods("GET")
	router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	router.HandleFunc("/stream", s.handleStream)

	return router
}

// Start listens on address and serves in the background. ":0" picks a free port.
func (s *Server) Start(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "status server already started")
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to listen on %s", address)
	}

	s.listener = listener
	s.httpServer = &http.Server{ //nolint:exhaustruct
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Status server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("Status server listening", zap.String("address", listener.Addr().String()))

	return nil
}

// Addr is the bound address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{
		Status:     "ok",
		Symbol:     s.symbol,
		BusVersion: s.bus.Version(),
		StartedAt:  s.startedAt,
	})
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.bus.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no recommendation published yet"})

		return
	}

	mode := dispatch.PayloadMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = dispatch.PayloadFull
	}

	if !mode.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be full or position"})

		return
	}

	writeJSON(w, http.StatusOK, dispatch.Payload(rec, mode))
}

// handle websocket stream
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))

		return
	}
	defer conn.Close()

	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var sent uint64

	for {
		if version := s.bus.Version(); version != sent {
			if rec, ok := s.bus.Latest(); ok {
				if err := conn.WriteJSON(rec); err != nil {
					return
				}

				sent = rec.Seq
			}
		}

		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}
