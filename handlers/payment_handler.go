package handlers

import (
	"context"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/services"
	"github.com/gofiber/fiber/v2"
)

type webhookService interface {
	HandleEvent(ctx context.Context, payload []byte, signatureHeader string) (*services.WebhookOutcome, error)
}

type WebhookHandler struct {
	service webhookService
}

func NewWebhookHandler(service *services.WebhookReconciler) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// HandlePaymentWebhook acknowledges processor events. Signature failures are
// 400; processing failures are 500 so the processor redelivers.
func (h *WebhookHandler) HandlePaymentWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)

	outcome, err := h.service.HandleEvent(c.UserContext(), payload, c.Get("Stripe-Signature"))
	if err != nil {
		if domain.IsValidation(err) {
			return badRequest(c, err.Error())
		}
		return mapError(c, err)
	}
	return c.JSON(outcome)
}
