package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const readinessTimeout = 5 * time.Second

// healthCheck is one dependency checked by Readiness.
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks []healthCheck
}

// NewHealthHandler creates a new HealthHandler. The service is ready when
// postgres and redis answer and the mailbox directory can be listed.
func NewHealthHandler(pool *pgxpool.Pool, redisClient *redis.Client, maildir string) *HealthHandler {
	return &HealthHandler{checks: []healthCheck{
		{name: "postgres", check: pool.Ping},
		{name: "redis", check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
		{name: "mailbox", check: func(context.Context) error {
			return checkMaildir(maildir)
		}},
	}}
}

func checkMaildir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	return f.Close()
}

// Liveness returns 200 if the service is alive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness returns 200 when every dependency check passes, and 503 naming
// the first one that failed otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := map[string]string{"status": "ready"}
	for _, c := range h.checks {
		if err := c.check(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, c.name+" unhealthy", err.Error())
			return
		}
		resp[c.name] = "ok"
	}

	writeJSON(w, http.StatusOK, resp)
}
