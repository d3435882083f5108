package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ngenohkevin/bookrent/internal/models"
)

// Pinger is anything whose reachability the health check reports
type Pinger interface {
	Ping(ctx context.Context) error
}

// NotifierStatter reports overdue notice queue depths
type NotifierStatter interface {
	Stats(ctx context.Context) (*models.NotifierStats, error)
}

type HealthHandler struct {
	store    Pinger
	redis    Pinger
	notifier NotifierStatter
	version  string
}

// NewHealthHandler creates a health handler. Any dependency may be nil.
func NewHealthHandler(store Pinger, redis Pinger, notifier NotifierStatter, version string) *HealthHandler {
	return &HealthHandler{
		store:    store,
		redis:    redis,
		notifier: notifier,
		version:  version,
	}
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
	Notices   *models.NotifierStats  `json:"overdue_notices,omitempty"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Service:   "bookrent",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]HealthCheck),
	}

	check := func(name string, p Pinger) {
		if err := p.Ping(ctx); err != nil {
			response.Checks[name] = HealthCheck{
				Status:  "unhealthy",
				Message: err.Error(),
			}
			response.Status = "unhealthy"
			return
		}
		response.Checks[name] = HealthCheck{Status: "healthy"}
	}

	if h.store != nil {
		check("storage", h.store)
	}
	if h.redis != nil {
		check("redis", h.redis)
	}

	if h.notifier != nil && response.Status == "healthy" {
		if stats, err := h.notifier.Stats(ctx); err == nil {
			response.Notices = stats
		}
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "pong",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
