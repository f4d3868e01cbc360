package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"campus_map/internal/middleware"
)

// MapHub is the websocket side of the realtime hub.
type MapHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type MapSocketController struct {
	hub  MapHub
	auth *middleware.Auth
}

func NewMapSocketController(hub MapHub, auth *middleware.Auth) *MapSocketController {
	return &MapSocketController{hub: hub, auth: auth}
}

// HandleMapWebSocket handles GET /ws/map. Browsers cannot set headers on a websocket
// handshake, so the token may come as ?token=.
func (mc *MapSocketController) HandleMapWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = bearer(c.GetHeader("Authorization"))
	}
	claims, err := mc.auth.ValidateToken(token)
	if err != nil || claims.Role != middleware.RoleAdmin {
		logrus.WithError(err).Warn("HandleMapWebSocket: rejected connection")
		c.AbortWithStatusJSON(http.StatusUnauthorized, flagEnvelope{Error: true, Message: "Invalid or expired token"})
		return
	}
	mc.hub.ServeWS(c.Writer, c.Request)
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
