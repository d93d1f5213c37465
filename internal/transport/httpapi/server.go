// Package httpapi serves the job control API over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/jobs"
	"github.com/goodnatureofminers/blockinsight7000-indexer/internal/indexer/model"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	codeAuthFailed    = "AUTH_FAILED"
	codeNotFound      = "NOT_FOUND"
	codeConflict      = "CONFLICT"
	codeInvalidAction = "INVALID_ACTION"
	codeInternal      = "INTERNAL"
)

// Options configures the control API.
type Options struct {
	Username string
	Password string
	// AllowedOrigins for CORS; empty allows any origin.
	AllowedOrigins []string
}

// Server routes control requests to the job service.
type Server struct {
	jobs    JobService
	opts    Options
	metrics Metrics
	logger  *zap.Logger
}

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func NewServer(jobService JobService, opts Options, metrics Metrics, logger *zap.Logger) (*Server, error) {
	if jobService == nil {
		return nil, errors.New("http api job service is required")
	}
	if metrics == nil {
		return nil, errors.New("http api metrics is required")
	}
	if opts.Username == "" || opts.Password == "" {
		return nil, errors.New("http api credentials are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		jobs:    jobService,
		opts:    opts,
		metrics: metrics,
		logger:  logger.Named("http_api"),
	}, nil
}

// Handler returns the routed handler. Every route, including /health, requires Basic-Auth.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/jobs", s.handleListJobs)
	mux.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /v1/jobs/{id}/{action}", s.handleJobAction)
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "Route not found", nil)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(s.observe(s.authenticate(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	items, err := s.jobs.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": job})
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	action, err := jobs.ParseAction(r.PathValue("action"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidAction, "Unknown action",
			map[string]any{"action": r.PathValue("action")})
		return
	}

	job, err := s.jobs.Apply(r.Context(), r.PathValue("id"), action)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": job})
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *model.StateConflictError
	switch {
	case errors.Is(err, model.ErrJobNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Job not found", nil)
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, codeConflict, conflict.Error(),
			map[string]any{"status": conflict.Status})
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, codeInternal, "Internal error", nil)
	}
}

// observe records route metrics and logs every request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.metrics.ObserveRequest(r.Pattern, rec.status, started)
		s.logger.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(started)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	writeJSON(w, status, apiError{Code: code, Message: message, Details: details})
}
