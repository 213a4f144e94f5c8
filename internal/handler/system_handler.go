package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/studymate/studymate-backend/internal/config"
	"github.com/studymate/studymate-backend/internal/response"
)

const metricsInterval = 7 * time.Second

// SessionCounter reports how many exam sessions are hosted.
type SessionCounter interface {
	Active() int
}

// queueLengther is the slice of *redis.Client the handler needs.
type queueLengther interface {
	LLen(ctx context.Context, key string) *redis.IntCmd
}

// SystemHandler streams Go runtime, queue and session metrics via SSE.
type SystemHandler struct {
	queue     queueLengther
	sessions  SessionCounter
	startTime time.Time
	interval  time.Duration
	log       zerolog.Logger
}

func NewSystemHandler(queue queueLengther, sessions SessionCounter, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		queue:     queue,
		sessions:  sessions,
		startTime: time.Now(),
		interval:  metricsInterval,
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	ActiveSessions int `json:"active_sessions"`
	// QueueReports is -1 when Redis could not be reached.
	QueueReports int64 `json:"queue_reports"`
}

// Health godoc
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

// SystemMetricsSSE godoc
// GET /api/v1/admin/system/metrics
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Admin connected to system metrics SSE")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	// Send immediately on connect, then every tick
	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Admin disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	data, err := json.Marshal(h.collect(c.Request.Context()))
	if err != nil {
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	m := systemMetrics{
		Timestamp:      time.Now().Unix(),
		Uptime:         formatDuration(time.Since(h.startTime)),
		Goroutines:     runtime.NumGoroutine(),
		HeapAlloc:      ms.HeapAlloc,
		HeapSys:        ms.Sys,
		NumGC:          ms.NumGC,
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
		ActiveSessions: h.sessions.Active(),
		QueueReports:   -1,
	}

	if n, err := h.queue.LLen(ctx, config.WorkerKey.PersistReportsQueue).Result(); err == nil {
		m.QueueReports = n
	} else {
		h.log.Debug().Err(err).Msg("Read report queue length failed")
	}
	return m
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
