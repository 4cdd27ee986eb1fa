package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizguard-backend/internal/config"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // prevent slow queries from blocking the SSE loop
)

// MonitorHandler streams the integrity trail to teachers over SSE.
type MonitorHandler struct {
	rdb     *redis.Client
	monitor MonitorReader
	log     zerolog.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, monitor MonitorReader, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		rdb:     rdb,
		monitor: monitor,
		log:     log.With().Str("component", "monitor_handler").Logger(),
		closing: make(chan struct{}),
	}
}

// Close ends every open monitor stream. It is registered with
// http.Server.RegisterOnShutdown, which does not wait for hijacked or
// streaming responses on its own.
func (h *MonitorHandler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// MonitorSSE godoc
// GET /api/teacher/monitor
// Sends a snapshot (request summary and recent activity), then forwards every
// activity event as it is published. The summary is re-sent periodically
// while events keep arriving.
func (h *MonitorHandler) MonitorSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	// Subscribe before the snapshot so nothing published in between is lost.
	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.MonitorChannel())
	defer pubsub.Close()
	if _, err := pubsub.Receive(reqCtx); err != nil {
		h.log.Error().Err(err).Msg("Monitor subscription failed")
		c.Status(http.StatusServiceUnavailable)
		return
	}
	ch := pubsub.Channel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	// A failed snapshot leaves the summary to the next refresh.
	dirty := !h.sendSnapshot(c, reqCtx)

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	h.log.Info().Msg("Teacher attached to live monitor SSE")

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Teacher disconnected from live monitor SSE")
			return

		case <-h.closing:
			h.log.Info().Msg("Closing live monitor SSE for shutdown")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Events are already JSON; forward as-is.
			writeSSE(c, []byte(msg.Payload))
			dirty = true

		case <-refreshTicker.C:
			// Only refresh the summary when something happened since the last one.
			if !dirty {
				continue
			}
			h.sendSummary(c, reqCtx)
			dirty = false

		case <-keepAliveTicker.C:
			writeSSE(c, pingPayload)
		}
	}
}

func (h *MonitorHandler) sendSnapshot(c *gin.Context, parentCtx context.Context) bool {
	ctx, cancel := context.WithTimeout(parentCtx, refreshTimeout)
	defer cancel()

	snapshot, err := h.monitor.Snapshot(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to load monitor snapshot")
		return false
	}

	payload, err := json.Marshal(map[string]interface{}{"type": "snapshot", "data": snapshot})
	if err != nil {
		return false
	}
	writeSSE(c, payload)
	return true
}

func (h *MonitorHandler) sendSummary(c *gin.Context, parentCtx context.Context) {
	ctx, cancel := context.WithTimeout(parentCtx, refreshTimeout)
	defer cancel()

	summary, err := h.monitor.Summary(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to refresh request summary")
		return
	}
	payload, err := json.Marshal(map[string]interface{}{"type": "summary", "data": summary})
	if err != nil {
		return
	}
	writeSSE(c, payload)
}

func writeSSE(c *gin.Context, payload []byte) {
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(payload)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}
