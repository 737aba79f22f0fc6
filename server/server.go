package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Ashenafi-pixel/limbo-crash-engine/config"
	"github.com/Ashenafi-pixel/limbo-crash-engine/metrics"
	"github.com/Ashenafi-pixel/limbo-crash-engine/round"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	engine   *round.Controller
	hub      *Hub
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	stop     func()
}

// New assembles the engine from cfg (frame scheduler, wallet, recorders) and the HTTP surface around it.
func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	engine, err := buildEngine(cfg, log, m)
	if err != nil {
		return nil, err
	}
	return newServer(cfg, log, engine, m, reg), nil
}

func newServer(cfg *config.Config, log *zap.Logger, engine *round.Controller, m *metrics.Metrics, reg *prometheus.Registry) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		log:      log,
		engine:   engine,
		hub:      NewHub(log.Named("ws")),
		metrics:  m,
		registry: reg,
	}
	s.stop = engine.Subscribe(func(st round.State) {
		data, err := json.Marshal(st)
		if err != nil {
			s.log.Error("encode state", zap.Error(err))
			return
		}
		s.hub.Broadcast(data)
	})
	return s
}

// Handler returns the full route table wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /health", s.health)
	s.route(mux, "GET /api/state", s.getState)
	s.route(mux, "POST /api/round/start", s.roundStart)
	s.route(mux, "POST /api/round/reset", s.roundReset)
	s.route(mux, "GET /api/round/can-start", s.canStart)
	s.route(mux, "GET /api/ws", s.stream)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return cors(s.requestLogger(mux))
}

// route registers h and counts requests under the pattern rather than the raw path.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	counter := s.metrics.HttpRequests.MustCurryWith(prometheus.Labels{"endpoint": pattern})
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		counter.WithLabelValues(r.Method).Inc()
		h(w, r)
	})
}

// Run serves until ctx is canceled, then shuts down gracefully and stops the engine.
func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Port
	if port <= 0 {
		port = 8081
	}
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("crash engine listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close stops state broadcasting, cancels any running round's ticks and drops websocket clients.
func (s *Server) Close() {
	s.stop()
	s.engine.Reset()
	s.hub.CloseAll()
}

func cors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// requestLogger logs method and path for each request (no body).
func (s *Server) requestLogger(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "crash-engine"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
