// Package http implements the read-only REST API over a loaded directory.
// The directory must not be modified while the server is running.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alem-hub/study-dept/internal/application/query"
	"github.com/alem-hub/study-dept/internal/domain/shared"
	"github.com/alem-hub/study-dept/internal/domain/student"
	"github.com/alem-hub/study-dept/internal/interface/http/handlers"
	"github.com/alem-hub/study-dept/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Addr - address to bind (default: ":8080").
	Addr string

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// CacheMaxAge - Cache-Control max-age for API responses; 0 disables.
	CacheMaxAge time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
		CacheMaxAge:    time.Minute,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains all dependencies required by HTTP handlers.
type Dependencies struct {
	SearchStudents *query.SearchStudentsHandler
	SuggestNames   *query.SuggestNamesHandler

	// Directory is only read, for health reporting.
	Directory *student.StudyDept

	// Health runs the dependency checks. When nil, a checker with only the
	// directory check is used.
	Health *handlers.CompositeHealthChecker

	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	logger     *logger.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger,
	}

	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.logger = s.logger.With(logger.Component("http"))

	if s.deps.Health == nil {
		s.deps.Health = handlers.NewCompositeHealthChecker()
		if s.deps.Directory != nil {
			s.deps.Health.AddCheck("directory", handlers.NewDirectoryCheck(s.deps.Directory))
		}
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Addr,
		Handler:        s.Handler(),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupRoutes() {
	health := handlers.NoCacheMiddleware(http.HandlerFunc(s.handleHealth))
	s.router.Handle("GET /health", health)
	s.router.Handle("GET /healthz", health) // Kubernetes alias

	api := handlers.CacheControlMiddleware(s.config.CacheMaxAge)
	s.router.Handle("GET /api/v1/students", api(http.HandlerFunc(s.handleSearchStudents)))
	s.router.Handle("GET /api/v1/suggest", api(http.HandlerFunc(s.handleSuggestNames)))
}

// Handler returns the router wrapped with all middleware. The request ID
// is assigned first so the access log and a recovered panic both carry it.
func (s *Server) Handler() http.Handler {
	return handlers.Chain(
		s.requestIDMiddleware,
		s.loggingMiddleware,
		s.recoveryMiddleware,
		handlers.SecurityHeadersMiddleware,
	)(s.router)
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// requestIDMiddleware reuses X-Request-ID or assigns a new one. The ID
// becomes the correlation ID of the query.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Latency(time.Since(start)),
			logger.CorrelationID(getRequestID(r.Context())),
		)
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered",
					logger.Any("error", err),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
					logger.CorrelationID(getRequestID(r.Context())),
				)
				writeJSONError(w, r, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth answers 503 only when a critical check fails. A failing
// optional check (the suggestion cache) reports "degraded" with 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	students := 0
	if s.deps.Directory != nil {
		students = s.deps.Directory.Len()
	}

	health := s.deps.Health.Check(r.Context())
	status, code := "ok", http.StatusOK
	switch {
	case !health.Healthy:
		status, code = "unavailable", http.StatusServiceUnavailable
	case len(health.Degraded) > 0:
		status = "degraded"
	}

	writeJSON(w, r, code, map[string]any{
		"status":   status,
		"message":  health.Message,
		"checks":   health.Checks,
		"students": students,
		"uptime":   s.Uptime().Round(time.Second).String(),
	}, nil)
}

// handleSearchStudents serves GET /api/v1/students.
//
// Parameters: name, born_before, born_after (Y-M-D), enrolled_before,
// enrolled_after, sort (repeatable, key[:asc|desc]), offset, limit.
func (s *Server) handleSearchStudents(w http.ResponseWriter, r *http.Request) {
	q, err := searchQueryFromRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q.CorrelationID = getRequestID(r.Context())

	res, err := s.deps.SearchStudents.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, res.Students, &ResponseMeta{
		TotalCount: res.TotalFound,
		Offset:     q.Offset,
		Limit:      q.Limit,
		HasMore:    q.Offset+len(res.Students) < res.TotalFound,
	})
}

// handleSuggestNames serves GET /api/v1/suggest?q=...
func (s *Server) handleSuggestNames(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.SuggestNames.Handle(r.Context(), query.SuggestNamesQuery{
		Query:         r.URL.Query().Get("q"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, res.Names, &ResponseMeta{
		TotalCount: len(res.Names),
		FromCache:  res.FromCache,
	})
}

func searchQueryFromRequest(r *http.Request) (query.SearchStudentsQuery, error) {
	params := r.URL.Query()
	filter := student.NewFilter()

	if params.Has("name") {
		filter = filter.Name(params.Get("name"))
	}
	if params.Has("born_before") {
		d, err := student.ParseDate(params.Get("born_before"))
		if err != nil {
			return query.SearchStudentsQuery{}, err
		}
		filter = filter.BornBefore(d)
	}
	if params.Has("born_after") {
		d, err := student.ParseDate(params.Get("born_after"))
		if err != nil {
			return query.SearchStudentsQuery{}, err
		}
		filter = filter.BornAfter(d)
	}
	if params.Has("enrolled_before") {
		year, err := intParam(params.Get("enrolled_before"), "enrolled_before")
		if err != nil {
			return query.SearchStudentsQuery{}, err
		}
		filter = filter.EnrolledBefore(year)
	}
	if params.Has("enrolled_after") {
		year, err := intParam(params.Get("enrolled_after"), "enrolled_after")
		if err != nil {
			return query.SearchStudentsQuery{}, err
		}
		filter = filter.EnrolledAfter(year)
	}

	sort, err := student.ParseSort(params["sort"])
	if err != nil {
		return query.SearchStudentsQuery{}, err
	}

	q := query.SearchStudentsQuery{Filter: filter, Sort: sort}
	if params.Has("offset") {
		if q.Offset, err = intParam(params.Get("offset"), "offset"); err != nil {
			return query.SearchStudentsQuery{}, err
		}
	}
	if params.Has("limit") {
		if q.Limit, err = intParam(params.Get("limit"), "limit"); err != nil {
			return query.SearchStudentsQuery{}, err
		}
	}
	return q, nil
}

func intParam(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, shared.WrapError("http", "Parse", shared.ErrInvalidInput, name+" must be an integer", err)
	}
	return n, nil
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSONError(w, r, http.StatusServiceUnavailable, "request_cancelled", err.Error())
	default:
		s.logger.Error("request failed", logger.Err(err), logger.CorrelationID(getRequestID(r.Context())))
		writeJSONError(w, r, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Addr))

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server. Calling it before Start makes
// a later Start return immediately.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version,omitempty"`
	TotalCount int       `json:"total_count"`
	Offset     int       `json:"offset,omitempty"`
	Limit      int       `json:"limit,omitempty"`
	HasMore    bool      `json:"has_more,omitempty"`
	FromCache  bool      `json:"from_cache,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any, meta *ResponseMeta) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if meta == nil {
		meta = &ResponseMeta{}
	}
	meta.Timestamp = time.Now().UTC()
	meta.Version = "v1"

	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      meta,
		RequestID: getRequestID(r.Context()),
	})
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: message},
		RequestID: getRequestID(r.Context()),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER TYPES AND FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}
