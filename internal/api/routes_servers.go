package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/chatgate/internal/handlers"
)

func registerServerRoutes(api *gin.RouterGroup, h *handlers.ServerHandler) {
	servers := api.Group("/servers")
	servers.GET("/check", h.Check)
	servers.GET("/settings", h.Settings)
	servers.GET("/watch", h.Watch)
}
