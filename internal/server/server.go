// Package server is the HTTP control surface the monitoring host drives:
// refresh and fetch dispatch, the schema walk, health, and the agent's
// own /metrics endpoint. Dispatch is serialized at this edge so module
// code never sees concurrent calls.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/metric-agent/pkg/agent"
	"github.com/metric-agent/pkg/config"
	"github.com/metric-agent/pkg/host"
	"github.com/metric-agent/pkg/module"
	"github.com/metric-agent/pkg/telemetry"
)

const shutdownTimeout = 5 * time.Second

// HTTPServer exposes the dispatcher and schema table over HTTP.
type HTTPServer struct {
	addr   string
	server *http.Server
	log    *zap.Logger

	// serializes refresh/fetch: the dispatch layer below is
	// single-threaded by contract.
	mu         sync.Mutex
	dispatcher *agent.Dispatcher
	schema     *host.SchemaTable
}

// statusWriter captures the response status code for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

type refreshResponse struct {
	Cluster   int            `json:"cluster"`
	Instances map[int]string `json:"instances"`
}

type fetchResponse struct {
	Cluster  int      `json:"cluster"`
	Item     int      `json:"item"`
	Instance int      `json:"instance"`
	Status   string   `json:"status"`
	Value    *float64 `json:"value,omitempty"`
}

// NewHTTPServer wires the handlers. The prometheus registry carries the
// agent's self-metrics, not collected values.
func NewHTTPServer(cfg config.ServerConfig, dispatcher *agent.Dispatcher, schema *host.SchemaTable, tel *telemetry.Metrics, log *zap.Logger) *HTTPServer {
	s := &HTTPServer{
		addr:       cfg.Addr,
		log:        log,
		dispatcher: dispatcher,
		schema:     schema,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(tel.Registry(), promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(log),
	}))
	mux.HandleFunc("/health", s.withLogging("health check", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))
	mux.HandleFunc("/schema", s.withLogging("schema walk", s.handleSchema))
	mux.HandleFunc("/refresh", s.withLogging("refresh request", s.handleRefresh))
	mux.HandleFunc("/fetch", s.withLogging("fetch request", s.handleFetch))

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *HTTPServer) withLogging(msg string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(ww, r)
		s.log.Debug(msg,
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", ww.status),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *HTTPServer) handleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.schema.Metrics())
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cluster, ok := intParam(w, r, "cluster")
	if !ok {
		return
	}
	s.mu.Lock()
	instances, err := s.dispatcher.Refresh(cluster)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, agent.ErrUnknownCluster) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Cluster: cluster, Instances: instances})
}

func (s *HTTPServer) handleFetch(w http.ResponseWriter, r *http.Request) {
	cluster, ok := intParam(w, r, "cluster")
	if !ok {
		return
	}
	item, ok := intParam(w, r, "item")
	if !ok {
		return
	}
	inst := host.NoIndom
	if r.URL.Query().Get("instance") != "" {
		if inst, ok = intParam(w, r, "instance"); !ok {
			return
		}
	}

	s.mu.Lock()
	result := s.dispatcher.Fetch(cluster, item, inst)
	s.mu.Unlock()

	resp := fetchResponse{Cluster: cluster, Item: item, Instance: inst, Status: result.Status.String()}
	if result.Status == module.StatusOK {
		v := result.Value
		resp.Value = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid or missing " + name})
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Handler exposes the routing for tests.
func (s *HTTPServer) Handler() http.Handler { return s.server.Handler }

// Start begins listening without blocking the caller.
func (s *HTTPServer) Start() error {
	s.log.Info("starting HTTP server",
		zap.String("listen_addr", s.addr),
		zap.Duration("read_timeout", s.server.ReadTimeout),
		zap.Duration("write_timeout", s.server.WriteTimeout))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Fatal("HTTP server failed to listen",
				zap.Error(err),
				zap.String("listen_addr", s.addr))
		}
	}()
	return nil
}

// Shutdown drains in-flight requests within a bounded window.
func (s *HTTPServer) Shutdown() error {
	s.log.Info("shutting down HTTP server", zap.String("listen_addr", s.addr))
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil
		}
		return err
	}
	return nil
}
