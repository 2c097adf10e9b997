package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func TestRecoveryLogsAndReturns500(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/movements", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("expected panic to be logged, got %q", buf.String())
	}
}

func TestLoggingMiddlewareInjectsLogger(t *testing.T) {
	var buf bytes.Buffer
	mw := NewLoggingMiddleware(zerolog.New(&buf))

	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusBadGateway)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/scans", nil))

	out := buf.String()
	if !strings.Contains(out, "inside handler") {
		t.Fatalf("handler did not get the request logger: %q", out)
	}
	if !strings.Contains(out, `"status":502`) || !strings.Contains(out, `"level":"error"`) {
		t.Fatalf("expected error-level completion log, got %q", out)
	}
}

func TestLoggingMiddlewareRouteAndClientErrors(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(zerolog.New(&buf)).Wrap)
	r.Get("/api/v1/movements/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/movements/01JE3Q6Y8M9T4K2B7X1C5VZ0NA", nil)
	req.Header.Set(IdempotencyKeyHeader, "abc")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"route":"/api/v1/movements/{id}"`, `"idempotency_key":"abc"`, `"status":404`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %q", want, out)
		}
	}
}

func TestRecoveryRepanicsAbortHandler(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if recover() != http.ErrAbortHandler {
			t.Fatal("expected ErrAbortHandler to propagate")
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
