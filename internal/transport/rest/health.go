package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/report-hub/internal/core/clock"
	"github.com/frahmantamala/report-hub/internal/transport"
	"github.com/jmoiron/sqlx"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	CheckedAt  time.Time    `json:"checkedAt"`
	DurationMs int64        `json:"durationMs"`
}

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	*transport.BaseHandler
	db    Pinger
	clock clock.Clock
}

func NewHealthHandler(db *sqlx.DB, base *transport.BaseHandler, clk clock.Clock) *HealthHandler {
	var p Pinger
	if db != nil {
		p = db
	}
	return newHealthHandler(p, base, clk)
}

func newHealthHandler(db Pinger, base *transport.BaseHandler, clk clock.Clock) *HealthHandler {
	if clk == nil {
		clk = clock.New()
	}
	return &HealthHandler{BaseHandler: base, db: db, clock: clk}
}

// pingHandler only reports that the process is serving.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	h.WriteSuccess(w, http.StatusOK, transport.Envelope{"message": "pong"})
}

func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	entry := h.checkPostgres(r.Context())

	statusCode := http.StatusOK
	message := "Server is running"
	if entry.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
		message = "Database unavailable"
		h.Logger.Error("health check failed", "component", "postgres", "error", entry.Message)
	}

	h.WriteJSON(w, statusCode, transport.Envelope{
		"success":    entry.Status == HealthHealthy,
		"message":    message,
		"timestamp":  h.clock.Now(),
		"components": map[string]CheckEntry{"postgres": entry},
	})
}

func (h *HealthHandler) checkPostgres(ctx context.Context) CheckEntry {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	entry := CheckEntry{Status: HealthHealthy}
	if h.db == nil {
		entry.Status = HealthUnhealthy
		entry.Message = "database not configured"
	} else if err := h.db.PingContext(ctx); err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	entry.CheckedAt = h.clock.Now()
	entry.DurationMs = time.Since(start).Milliseconds()
	return entry
}
