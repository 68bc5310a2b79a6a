package routes

import (
	"github.com/anjiri1684/mentor_marketplace/handlers"
	"github.com/anjiri1684/mentor_marketplace/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App, sessions *handlers.SessionHandler, webhooks *handlers.WebhookHandler, secret string) {
	api := app.Group("/api/v1")

	api.Post("/webhook", webhooks.HandlePaymentWebhook)

	payments := api.Group("/payments", middleware.Protected(secret))
	payments.Post("/capture", sessions.CapturePayment)
	payments.Post("/refund", sessions.RefundPayment)
}
