package handlers

import (
	"log"

	"github.com/anjiri1684/mentor_marketplace/websocket"
	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RequireUpgrade rejects plain HTTP requests on the events socket.
func RequireUpgrade(c *fiber.Ctx) error {
	if !websocketcontrib.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// SessionEvents streams session events for the authenticated user. The token
// is verified before the upgrade, so the connection only needs registering.
func SessionEvents(hub *websocket.Hub) fiber.Handler {
	return websocketcontrib.New(func(c *websocketcontrib.Conn) {
		actor, err := actorFromLocal(c.Locals("user"))
		if err != nil {
			_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
			c.Close()
			return
		}

		client := &websocket.Client{UserID: actor.ID, Conn: c}
		hub.Register(client)
		defer func() {
			hub.Unregister(client)
			c.Close()
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				if !websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseNormalClosure) {
					log.Printf("[WS] read error for %s: %v", actor.ID, err)
				}
				return
			}
		}
	})
}
