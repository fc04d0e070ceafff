package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/chachabrian/sendit-backend/internal/services"
)

// WebSocketHandler attaches an authenticated connection to the hub
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := mustIdentity(c)
		if !ok {
			return
		}

		services.HandleWebSocket(hub, c.Writer, c.Request, identity)
	}
}
