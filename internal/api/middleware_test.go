package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/banshee-data/path-planner/internal/monitoring"
)

// TestStatusCodeColor tests the statusCodeColor helper
func TestStatusCodeColor(t *testing.T) {
	tests := []struct {
		code     int
		contains string
	}{
		{200, "200"},
		{201, "201"},
		{301, "301"},
		{400, "400"},
		{404, "404"},
		{500, "500"},
		{100, "100"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("code_%d", tt.code), func(t *testing.T) {
			result := statusCodeColor(tt.code)
			if !strings.Contains(result, tt.contains) {
				t.Errorf("Expected result to contain %s, got %s", tt.contains, result)
			}
		})
	}
}

// TestLoggingResponseWriter tests the response writer wrapper
func TestLoggingResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	lrw := &loggingResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	lrw.WriteHeader(http.StatusCreated)
	if lrw.statusCode != http.StatusCreated {
		t.Errorf("Expected status code 201, got %d", lrw.statusCode)
	}

	lrw.Flush() // Should not panic
}

// TestLoggingMiddleware tests the logging middleware
func TestLoggingMiddleware(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("OK"))
	})
	wrapped := LoggingMiddleware(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions?limit=5", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", w.Code)
	}
	if len(lines) != 1 {
		t.Fatalf("Expected one log line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "418") || !strings.Contains(lines[0], "/api/sessions?limit=5") {
		t.Errorf("Unexpected log line %q", lines[0])
	}
}

// TestLoggingMiddlewareSkipsUpgrades checks websocket upgrades reach the
// handler with the original writer.
func TestLoggingMiddlewareSkipsUpgrades(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()
	logged := false
	monitoring.SetLogger(func(string, ...interface{}) { logged = true })

	rec := httptest.NewRecorder()
	var got http.ResponseWriter
	wrapped := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = w
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Upgrade", "websocket")
	wrapped.ServeHTTP(rec, req)

	if got != rec {
		t.Error("Expected the original ResponseWriter for an upgrade request")
	}
	if logged {
		t.Error("Upgrade requests should not be logged by the middleware")
	}
}
