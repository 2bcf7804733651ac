package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/chatgate/internal/app"
	"github.com/charlesng35/chatgate/internal/handlers"
	"github.com/charlesng35/chatgate/internal/monitoring"
)

func registerHealthRoutes(r *gin.Engine, health *monitoring.Health) {
	r.GET("/health", handlers.Health(app.Version))
	r.GET("/api/health", handlers.Health(app.Version))
	if health == nil {
		return
	}

	r.GET("/health/live", func(c *gin.Context) {
		writeHealthReport(c, health.Liveness(c.Request.Context()))
	})
	r.GET("/health/ready", func(c *gin.Context) {
		writeHealthReport(c, health.Readiness(c.Request.Context()))
	})
}

func writeHealthReport(c *gin.Context, report monitoring.HealthReport) {
	status := http.StatusOK
	if !report.Success {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"success":    report.Success,
		"status":     report.Status,
		"checks":     report.Checks,
		"checked_at": time.Now().UTC(),
	})
}
