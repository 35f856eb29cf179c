package handlers

import (
	"log"

	"releaf_backend/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// WSHandler upgrades connections for notification and unread push.
type WSHandler struct {
	Hub *ws.Hub
	DB  *gorm.DB
}

func NewWSHandler(hub *ws.Hub, db *gorm.DB) *WSHandler {
	return &WSHandler{Hub: hub, DB: db}
}

// UpgradeMiddleware ensures the client is trying to upgrade to WebSocket
func (h *WSHandler) UpgradeMiddleware(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the websocket handler function
func (h *WSHandler) Handler() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		// Retrieve user_id from Locals (set by the auth middleware)
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			log.Println("Invalid or missing User ID in WebSocket connection")
			c.Close()
			return
		}

		client := ws.NewClient(h.Hub, c, userID, h.DB)

		// Register to Hub (pushes the initial unread state)
		client.Hub.Register <- client

		// Start pumps
		go client.WritePump()
		client.ReadPump()
	})
}
