package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/fpl-squad/backend/internal/api/handlers"
	"github.com/wonny/fpl-squad/backend/pkg/logger"
	"github.com/wonny/fpl-squad/backend/pkg/metrics"
)

// RouterDeps groups everything the router mounts
type RouterDeps struct {
	Squad   *handlers.SquadHandler
	Runs    *handlers.RunsHandler // nil = /api/squad/runs 비활성
	Metrics *metrics.Manager      // nil = /metrics 비활성
	MCP     http.Handler          // nil = /mcp 비활성
	Checks  map[string]HealthCheck
	Logger  *logger.Logger
}

// HealthCheck pings one dependency (redis, postgres)
type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(deps.Checks)).Methods("GET")

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	// MCP (streamable HTTP: POST 요청, GET 스트림, DELETE 세션 종료)
	if deps.MCP != nil {
		r.Handle("/mcp", deps.MCP).Methods("GET", "POST", "DELETE")
	}

	// API (서브라우터 없이 등록해야 mux가 메서드 불일치를 405로 응답)
	r.HandleFunc("/api/players", deps.Squad.GetPlayers).Methods("GET")
	r.HandleFunc("/api/player/{id:[0-9]+}", deps.Squad.GetPlayer).Methods("GET")
	r.HandleFunc("/api/squad/build", deps.Squad.BuildSquad).Methods("GET")
	r.HandleFunc("/api/squad/analyze", deps.Squad.AnalyzeSquad).Methods("POST")
	if deps.Runs != nil {
		r.HandleFunc("/api/squad/runs", deps.Runs.GetRuns).Methods("GET")
	}

	r.NotFoundHandler = jsonStatusHandler(http.StatusNotFound, "Not found")
	r.MethodNotAllowedHandler = jsonStatusHandler(http.StatusMethodNotAllowed, "Method not allowed")

	// Apply middleware
	r.Use(loggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(recoveryMiddleware(deps.Logger))

	return r
}

// jsonStatusHandler answers unmatched requests in the API's error format
func jsonStatusHandler(status int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": message})
	})
}

// HealthResponse is the /health body
type HealthResponse struct {
	Status  string            `json:"status"` // ok | degraded
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// healthCheckHandler reports 503 when any dependency check fails
func healthCheckHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Service: "fpl-squad-api"}
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := checks[name](ctx)
			cancel()

			if err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				continue
			}
			resp.Checks[name] = "ok"
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}
}

// statusRecorder captures the response status for logs and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses (MCP SSE) working through the wrapper
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// loggingMiddleware logs HTTP requests and records request metrics
func loggingMiddleware(log *logger.Logger, m *metrics.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			m.ObserveHTTP(route, r.Method, rec.status, time.Since(start))

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
