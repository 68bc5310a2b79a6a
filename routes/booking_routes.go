package routes

import (
	"github.com/anjiri1684/mentor_marketplace/handlers"
	"github.com/anjiri1684/mentor_marketplace/middleware"
	"github.com/anjiri1684/mentor_marketplace/services"
	"github.com/gofiber/fiber/v2"
)

func BookingRoutes(app *fiber.App, bookings *handlers.BookingHandler, sessions *handlers.SessionHandler, secret string) {
	api := app.Group("/api/v1")

	api.Post("/payment-intents", middleware.Protected(secret), middleware.RoleRequired(services.RoleMentee), bookings.CreatePaymentIntent)

	session := api.Group("/sessions", middleware.Protected(secret))
	session.Get("/:id", sessions.GetSession)
	session.Post("/:id/complete", sessions.CompleteSession)
	session.Post("/:id/cancel", sessions.CancelSession)
}
