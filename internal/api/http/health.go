package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Redis     string    `json:"redis,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	redis       *redis.Client
}

func NewHealthHandler(serviceName, version string, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		redis:       rdb,
	}
}

// HealthCheck reports "degraded" with 503 when Redis does not answer, since
// drafts and transcripts live there.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	redisStatus := "disabled"
	if h.redis != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.redis.Ping(pingCtx).Err(); err != nil {
			redisStatus = "down"
			status, code = "degraded", http.StatusServiceUnavailable
		} else {
			redisStatus = "up"
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Redis:     redisStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
