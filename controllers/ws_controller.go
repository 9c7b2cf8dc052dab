package controllers

import (
	"log"
	"net/http"

	"github.com/canteenhq/canteen-api/realtime"
	"github.com/gin-gonic/gin"
)

// HandleWebSocket handles GET /ws - upgrades the connection and hands it to
// the broadcast hub. Authentication happens on the socket itself via the
// join-staff-room control frame, so this route carries no JWT middleware.
func HandleWebSocket(c *gin.Context) {
	hub := realtime.GetHub()
	if hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CHANNEL_UNAVAILABLE",
				"message": "Real-time channel is not running",
			},
		})
		return
	}

	if err := hub.ServeWS(c.Writer, c.Request); err != nil {
		// Upgrade failures already wrote an HTTP error to the client
		log.Printf("Websocket upgrade failed: %v", err)
	}
}
