package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/response"
)

const (
	metricsInterval = 7 * time.Second
	healthTimeout   = 3 * time.Second
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// SystemHandler reports health and streams runtime and queue metrics via SSE.
type SystemHandler struct {
	rdb       *redis.Client
	checks    map[string]HealthCheck
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler. checks are run by Health
// in name order.
func NewSystemHandler(rdb *redis.Client, checks map[string]HealthCheck, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		rdb:       rdb,
		checks:    checks,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Returns 200 when every dependency answers, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	deps := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	response.Success(c, status, gin.H{"status": state, "dependencies": deps})
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	StackInuse uint64 `json:"stack_inuse"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`

	QueueNotifications int64 `json:"queue_notifications"`
	QueuePlagiarism    int64 `json:"queue_plagiarism"`
}

// SystemMetricsSSE godoc
// GET /api/v1/system/metrics
// Streams a metrics snapshot on connect and every few seconds after.
func (h *SystemHandler) SystemMetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Client connected to system metrics SSE")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	h.writeMetrics(c)
	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Client disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	m := h.collect(c.Request.Context())
	data, err := json.Marshal(m)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal metrics")
		return
	}
	fmt.Fprintf(c.Writer, "event: metrics\ndata: %s\n\n", data)
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m := systemMetrics{
		Timestamp:  time.Now().Unix(),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		HeapSys:    mem.HeapSys,
		StackInuse: mem.StackInuse,
		NumGC:      mem.NumGC,
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
	}

	pipe := h.rdb.Pipeline()
	notif := pipe.LLen(ctx, config.WorkerKey.NotificationQueue)
	plag := pipe.LLen(ctx, config.WorkerKey.PlagiarismQueue)
	if _, err := pipe.Exec(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Failed to read queue lengths")
		return m
	}
	m.QueueNotifications = notif.Val()
	m.QueuePlagiarism = plag.Val()
	return m
}
