package handlers

import (
	"context"

	"github.com/anjiri1684/mentor_marketplace/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type bookingService interface {
	BookSession(ctx context.Context, actor services.Actor, input services.BookSessionInput) (*services.BookingResult, error)
}

type BookingHandler struct {
	service bookingService
}

func NewBookingHandler(service *services.BookingOrchestrator) *BookingHandler {
	return &BookingHandler{service: service}
}

type createPaymentIntentRequest struct {
	MentorID string  `json:"mentor_id" validate:"required,uuid"`
	SlotID   string  `json:"slot_id" validate:"required,uuid"`
	Amount   int64   `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"required,len=3"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// CreatePaymentIntent books a slot for the calling mentee and returns the
// session with the client secret needed to confirm the payment.
func (h *BookingHandler) CreatePaymentIntent(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req createPaymentIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.service.BookSession(c.UserContext(), actor, services.BookSessionInput{
		MentorID: uuid.MustParse(req.MentorID),
		MenteeID: actor.ID,
		SlotID:   uuid.MustParse(req.SlotID),
		Amount:   req.Amount,
		Currency: req.Currency,
		Notes:    req.Notes,
	})
	if err != nil {
		return mapError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session":       result.Session,
		"payment":       result.Payment,
		"client_secret": result.ClientSecret,
	})
}
