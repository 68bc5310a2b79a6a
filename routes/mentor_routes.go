package routes

import (
	"github.com/anjiri1684/mentor_marketplace/handlers"
	"github.com/anjiri1684/mentor_marketplace/middleware"
	"github.com/anjiri1684/mentor_marketplace/services"
	"github.com/gofiber/fiber/v2"
)

func MentorRoutes(app *fiber.App, slots *handlers.SlotHandler, payouts *handlers.PayoutHandler, secret string) {
	api := app.Group("/api/v1")
	auth := middleware.Protected(secret)
	mentorOnly := middleware.RoleRequired(services.RoleMentor, services.RoleAdmin)

	// Slot listings are public so mentees can browse before signing in.
	api.Get("/mentors/:id/slots", slots.ListSlots)
	api.Post("/mentors/:id/slots", auth, mentorOnly, slots.CreateSlot)
	api.Post("/mentors/:id/slots/recurring", auth, mentorOnly, slots.CreateRecurringSlots)
	api.Delete("/slots/:id", auth, mentorOnly, slots.DeleteSlot)

	api.Get("/mentors/:id/balance", auth, mentorOnly, payouts.GetBalance)
	api.Get("/mentors/:id/onboarding-link", auth, mentorOnly, payouts.GetOnboardingLink)
	api.Post("/connect-accounts", auth, mentorOnly, payouts.CreateConnectAccount)
	api.Post("/mentors/:id/stripe-account", auth, mentorOnly, payouts.CreateStripeAccount)
	api.Post("/mentors/:id/payout", auth, mentorOnly, payouts.RequestPayout)
}
