// Package httpapi is the HTTP+WebSocket surface of the console: one server
// struct, one http.ServeMux, one handler method per route, structured like
// the teacher's IngestServer.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"

	"github.com/fleetdeck/fleetdeck/internal/fleeterr"
	"github.com/fleetdeck/fleetdeck/internal/logengine"
	"github.com/fleetdeck/fleetdeck/internal/power"
	"github.com/fleetdeck/fleetdeck/internal/services"
)

// Server is the console's HTTP entry point.
type Server struct {
	facade     *logengine.Facade
	enumerator *services.Enumerator
	guard      *power.Guard
	root       string
	log        *zap.SugaredLogger

	parserPool fastjson.ParserPool
	srv        *http.Server
}

// New builds a Server; call Start to begin serving.
func New(root string, facade *logengine.Facade, enumerator *services.Enumerator, guard *power.Guard, log *zap.SugaredLogger) *Server {
	return &Server{root: root, facade: facade, enumerator: enumerator, guard: guard, log: log}
}

// Start builds the mux and begins serving on addr, blocking until the
// server is shut down.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/services", s.withTrace(s.handleListServices))
	mux.HandleFunc("GET /api/services/{name}/status", s.withTrace(s.handleServiceStatus))
	mux.HandleFunc("POST /api/services/{name}/power", s.withTrace(s.handlePower))
	mux.HandleFunc("GET /api/services/{name}/config", s.withTrace(s.handleConfig))
	mux.HandleFunc("GET /api/services/{name}/config-data", s.withTrace(s.handleConfigData))
	mux.HandleFunc("POST /api/services/{name}/config/env", s.withTrace(s.handleConfigEnv))
	mux.HandleFunc("GET /api/services/{name}/logs/files", s.withTrace(s.handleLogFiles))
	mux.HandleFunc("GET /api/services/{name}/logs/read", s.withTrace(s.handleLogRead))
	mux.HandleFunc("GET /api/services/{name}/logs/time-range", s.withTrace(s.handleTimeRange))
	mux.HandleFunc("POST /api/services/{name}/logs/search", s.withTrace(s.handleLogSearch))
	mux.HandleFunc("GET /api/services/{name}/logs/histogram", s.withTrace(s.handleHistogram))
	mux.HandleFunc("GET /ws/logs/{name}", s.handleWebSocketLogs)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv = &http.Server{Addr: addr, Handler: mux}
	s.log.Infof("httpapi: listening on %s", addr)

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// withTrace stamps every request with a trace ID (reused from the teacher's
// SDK instance-ID pattern, via google/uuid) threaded through log fields.
func (s *Server) withTrace(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceID := uuid.NewString()
		start := time.Now()
		next(w, r)
		s.log.Debugw("request", "trace_id", traceID, "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientClosedRequest is nginx's de facto 499 status for a request the
// client disconnected before the server finished handling it; net/http has
// no named constant for it.
const clientClosedRequest = 499

// writeError maps a fleeterr.Kind to a status code: 400 for validation
// failures, 499 for cancelled requests, 500 for everything else.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch fleeterr.KindOf(err) {
	case fleeterr.KindValidation:
		status = http.StatusBadRequest
	case fleeterr.KindCancelled:
		status = clientClosedRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) envPath(service string) string {
	return s.enumerator.ServiceDir(service) + "/.env"
}

func (s *Server) composePath(service string) string {
	return s.enumerator.ServiceDir(service) + "/docker-compose.yml"
}
