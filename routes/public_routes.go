package routes

import (
	"github.com/anjiri1684/mentor_marketplace/handlers"
	"github.com/anjiri1684/mentor_marketplace/middleware"
	"github.com/anjiri1684/mentor_marketplace/websocket"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App, hub *websocket.Hub, secret string) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	api.Get("/ws", middleware.ProtectedQuery(secret), handlers.RequireUpgrade, handlers.SessionEvents(hub))
}

// Register mounts every route group.
func Register(app *fiber.App, h Handlers, secret string) {
	PublicRoutes(app, h.Hub, secret)
	PaymentRoutes(app, h.Sessions, h.Webhooks, secret)
	BookingRoutes(app, h.Bookings, h.Sessions, secret)
	MentorRoutes(app, h.Slots, h.Payouts, secret)
}
