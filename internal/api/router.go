package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/chatgate/internal/app"
	"github.com/charlesng35/chatgate/internal/handlers"
	"github.com/charlesng35/chatgate/internal/middleware"
	"github.com/charlesng35/chatgate/internal/monitoring"
)

// NewRouter builds the Gin engine, wires middleware and registers the probe routes.
// A nil health omits the /health/live and /health/ready probes.
func NewRouter(cfg *app.Config, servers *handlers.ServerHandler, health *monitoring.Health) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if servers == nil {
		return nil, fmt.Errorf("server handler must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	r.NoRoute(middleware.NotFoundHandler)

	registerHealthRoutes(r, health)
	registerMonitoringRoutes(r, cfg.Monitoring)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(cfg.Server.RateLimit, time.Minute))
	registerServerRoutes(api, servers)

	return r, nil
}
