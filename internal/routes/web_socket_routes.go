package routes

import (
	"github.com/gin-gonic/gin"
)

func WebSocketRoutes(r *gin.Engine, d Deps) {
	wsRoutes := r.Group("/ws")
	{
		// Authenticates inside the handler; the token may arrive as a query parameter.
		wsRoutes.GET("/map", d.MapSocket.HandleMapWebSocket)
	}
}
