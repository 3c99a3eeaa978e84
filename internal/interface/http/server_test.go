package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/study-dept/internal/application/query"
	"github.com/alem-hub/study-dept/internal/domain/student"
	"github.com/alem-hub/study-dept/internal/interface/http/handlers"
	"github.com/alem-hub/study-dept/pkg/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dept := student.NewStudyDept()
	for _, s := range []student.Student{
		student.NewStudent("John Peter Taylor", student.NewDate(1983, 7, 13), 2014),
		student.NewStudent("John Taylor", student.NewDate(1981, 6, 30), 2012),
		student.NewStudent("Peter Taylor", student.NewDate(1982, 2, 23), 2011),
		student.NewStudent("James Bond", student.NewDate(1981, 7, 16), 2013),
	} {
		require.True(t, dept.AddStudent(s))
	}

	return NewServer(DefaultConfig(), Dependencies{
		SearchStudents: query.NewSearchStudentsHandler(dept, nil),
		SuggestNames:   query.NewSuggestNamesHandler(dept, nil, nil),
		Directory:      dept,
	})
}

type envelope[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data"`
	Error     *APIError `json:"error"`
	Meta      *ResponseMeta
	RequestID string `json:"request_id"`
}

func get[T any](t *testing.T, s *Server, target string, header ...string) (*httptest.ResponseRecorder, envelope[T]) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestSearchStudents(t *testing.T) {
	s := newTestServer(t)

	rec, body := get[[]query.StudentDTO](t, s,
		"/api/v1/students?enrolled_after=2011&sort=birth_date:desc&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "John Peter Taylor", body.Data[0].Name)
	assert.Equal(t, "James Bond", body.Data[1].Name)
	assert.Equal(t, 3, body.Meta.TotalCount)
	assert.True(t, body.Meta.HasMore)
}

func TestSearchStudents_NameFilter(t *testing.T) {
	s := newTestServer(t)

	_, body := get[[]query.StudentDTO](t, s, "/api/v1/students?name=bond+JAMES")
	require.Len(t, body.Data, 1)
	assert.Equal(t, query.StudentDTO{ID: 4, Name: "James Bond", BirthDate: "1981-7-16", EnrollmentYear: 2013}, body.Data[0])
}

func TestSearchStudents_BadRequest(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/api/v1/students?born_before=1981/1/1",
		"/api/v1/students?enrolled_after=soon",
		"/api/v1/students?sort=age",
		"/api/v1/students?offset=-1",
	} {
		rec, body := get[any](t, s, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		require.NotNil(t, body.Error, target)
		assert.Equal(t, "invalid_argument", body.Error.Code)
	}
}

func TestSuggestNames(t *testing.T) {
	s := newTestServer(t)

	rec, body := get[[]string](t, s, "/api/v1/suggest?q=taylor+john", "X-Request-ID", "req-42")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"John Peter Taylor", "John Taylor"}, body.Data)
	assert.Equal(t, "req-42", body.RequestID)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, body := get[map[string]any](t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body.Data["status"])
	assert.EqualValues(t, 4, body.Data["students"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHealth_Degraded(t *testing.T) {
	health := handlers.NewCompositeHealthChecker()
	health.AddOptionalCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	s := NewServer(DefaultConfig(), Dependencies{Directory: student.NewStudyDept(), Health: health})

	rec, body := get[map[string]any](t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", body.Data["status"])
}

func TestHealth_EmptyDirectory(t *testing.T) {
	s := NewServer(DefaultConfig(), Dependencies{Directory: student.NewStudyDept()})

	rec, body := get[map[string]any](t, s, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "unavailable", body.Data["status"])
}

func TestSearchStudents_CacheControl(t *testing.T) {
	s := newTestServer(t)

	rec, _ := get[[]query.StudentDTO](t, s, "/api/v1/students")
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
}

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	s := NewServer(DefaultConfig(), Dependencies{
		Logger: logger.New(logger.Options{Output: &logs, Format: logger.FormatJSON}),
	})

	// Nil handlers panic inside the route; the middleware turns that into a 500.
	rec, body := get[any](t, s, "/api/v1/suggest?q=x", "X-Request-ID", "req-panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "internal_server_error", body.Error.Code)
	assert.Equal(t, "req-panic", body.RequestID)
	assert.Equal(t, "req-panic", rec.Header().Get("X-Request-ID"))

	access := findLogEntry(t, &logs, "http request")
	assert.EqualValues(t, http.StatusInternalServerError, access.Fields["status"])
	assert.Equal(t, "req-panic", access.Fields["correlation_id"])
}

func TestAccessLog_CorrelationID(t *testing.T) {
	var logs bytes.Buffer
	s := newTestServer(t)
	s.logger = logger.New(logger.Options{Output: &logs, Format: logger.FormatJSON})

	rec, _ := get[[]string](t, s, "/api/v1/suggest?q=bond", "X-Request-ID", "req-7")
	require.Equal(t, http.StatusOK, rec.Code)

	entry := findLogEntry(t, &logs, "http request")
	assert.Equal(t, "req-7", entry.Fields["correlation_id"])
	assert.Equal(t, "/api/v1/suggest", entry.Fields["path"])
	assert.EqualValues(t, http.StatusOK, entry.Fields["status"])
}

func TestAccessLog_GeneratedCorrelationID(t *testing.T) {
	var logs bytes.Buffer
	s := newTestServer(t)
	s.logger = logger.New(logger.Options{Output: &logs, Format: logger.FormatJSON})

	rec, _ := get[map[string]any](t, s, "/health")

	entry := findLogEntry(t, &logs, "http request")
	assert.NotEmpty(t, entry.Fields["correlation_id"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), entry.Fields["correlation_id"])
}

func findLogEntry(t *testing.T, logs *bytes.Buffer, message string) logger.LogEntry {
	t.Helper()
	sc := bufio.NewScanner(logs)
	sc.Buffer(nil, 1<<20)
	for sc.Scan() {
		var entry logger.LogEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		if entry.Message == message {
			return entry
		}
	}
	t.Fatalf("no %q entry in log:\n%s", message, logs.String())
	return logger.LogEntry{}
}

func TestShutdownBeforeStart(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	s := NewServer(cfg, Dependencies{})

	require.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, s.Start())
}
