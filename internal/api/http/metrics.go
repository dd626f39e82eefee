package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/registro-museografico/museum-registry/internal/metrics"
)

// Metrics returns the process counters for the upstream calls, submissions
// and chat answers.
func Metrics(c *gin.Context) {
	m := metrics.GetMetrics()
	c.JSON(http.StatusOK, gin.H{
		"ok":                        true,
		"metrics":                   m.Snapshot(),
		"image_host_error_rate_pct": m.ImageHostErrorRate(),
	})
}
