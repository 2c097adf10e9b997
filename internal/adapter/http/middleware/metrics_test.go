package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/mailrecon/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		statusCode int
	}{
		{
			name:       "normalizes movement path",
			method:     http.MethodGet,
			path:       "/api/v1/movements/01JE3Q6Y8M9T4K2B7X1C5VZ0NA",
			statusCode: http.StatusNotFound,
		},
		{
			name:       "keeps non-matching path as-is",
			method:     http.MethodPost,
			path:       "/api/v1/scans",
			statusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.NewWithRegisterer(prometheus.NewRegistry())

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(tc.statusCode)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()

			NewMetricsMiddleware(m).Wrap(next).ServeHTTP(rr, req)

			if !handlerCalled {
				t.Fatalf("next handler was not invoked")
			}

			normalized := normalizePath(tc.path)
			counter := m.HTTPRequests.WithLabelValues(tc.method, normalized, strconv.Itoa(tc.statusCode))
			if got := testutil.ToFloat64(counter); got != 1 {
				t.Fatalf("expected counter to be 1, got %v", got)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "movement path",
			input:    "/api/v1/movements/01JE3Q6Y8M9T4K2B7X1C5VZ0NA",
			expected: "/api/v1/movements/:id",
		},
		{
			name:     "candidate path",
			input:    "/api/v1/reconciliation/candidates/01JE3Q6Y8M9T4K2B7X1C5VZ0NA",
			expected: "/api/v1/reconciliation/candidates/:id",
		},
		{
			name:     "named segment kept",
			input:    "/api/v1/reconciliation/candidates/generate",
			expected: "/api/v1/reconciliation/candidates/generate",
		},
		{
			name:     "lowercase id",
			input:    "/api/v1/postings/01je3q6y8m9t4k2b7x1c5vz0na",
			expected: "/api/v1/postings/:id",
		},
		{
			name:     "26 chars outside the ulid alphabet kept",
			input:    "/api/v1/postings/UUUUUUUUUUUUUUUUUUUUUUUUUU",
			expected: "/api/v1/postings/UUUUUUUUUUUUUUUUUUUUUUUUUU",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePath(tc.input); got != tc.expected {
				t.Fatalf("normalizePath(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}
