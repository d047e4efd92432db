package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kfhr/cashdesk-backend/internal/service"
	"github.com/kfhr/cashdesk-backend/internal/ws"
)

// WSHandler upgrades approver UI connections to the telemetry websocket.
type WSHandler struct {
	hub          *ws.Hub
	tokenManager *service.TokenManager
	upgrader     websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub, tokens *service.TokenManager, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:          hub,
		tokenManager: tokens,
		upgrader: websocket.Upgrader{
			// Same allowlist as the CORS middleware. Non-browser clients send
			// no Origin header and are let through; the token check below is
			// the actual authentication.
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// Handle serves GET /api/ws?token=...
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access token is required"})
		return
	}

	userID, _, err := h.tokenManager.ParseAccess(rawToken)
	if err != nil || userID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	client := ws.NewClient(conn, h.hub)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}
