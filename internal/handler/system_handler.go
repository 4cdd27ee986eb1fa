package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/config"
	"github.com/stemsi/quizguard-backend/internal/response"
)

const healthTimeout = 2 * time.Second

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler reports service health.
type SystemHandler struct {
	db        Pinger
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(db Pinger, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type healthReport struct {
	Status        string `json:"status"`
	Postgres      string `json:"postgres"`
	Redis         string `json:"redis"`
	ActivityQueue int64  `json:"activity_queue"`
	Uptime        string `json:"uptime"`
	Goroutines    int    `json:"goroutines"`
}

// Health godoc
// GET /health
// Postgres down is fatal (503). Redis down only degrades the service since
// rate limiting and the activity trail are best-effort.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	report := healthReport{
		Status:     "ok",
		Postgres:   "up",
		Redis:      "up",
		Uptime:     formatDuration(time.Since(h.startTime)),
		Goroutines: runtime.NumGoroutine(),
	}
	statusCode := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error().Err(err).Msg("Health check: postgres unreachable")
		report.Postgres = "down"
		report.Status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	queueLen, err := h.rdb.LLen(ctx, config.WorkerKey.PersistActivityQueue).Result()
	if err != nil {
		h.log.Warn().Err(err).Msg("Health check: redis unreachable")
		report.Redis = "down"
		if report.Status == "ok" {
			report.Status = "degraded"
		}
	} else {
		report.ActivityQueue = queueLen
	}

	response.Success(c, statusCode, report)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
