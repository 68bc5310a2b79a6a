package handlers

import (
	"context"

	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/anjiri1684/mentor_marketplace/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type lifecycleService interface {
	GetSession(ctx context.Context, actor services.Actor, sessionID uuid.UUID) (*models.Session, error)
	Complete(ctx context.Context, actor services.Actor, sessionID uuid.UUID) (*models.Session, error)
	Cancel(ctx context.Context, actor services.Actor, sessionID uuid.UUID, reason string) (*models.Session, error)
}

type SessionHandler struct {
	service lifecycleService
}

func NewSessionHandler(service *services.SessionLifecycleManager) *SessionHandler {
	return &SessionHandler{service: service}
}

type capturePaymentRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

type refundPaymentRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Reason    string `json:"reason" validate:"max=500"`
}

type cancelSessionRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid session ID")
	}

	session, err := h.service.GetSession(c.UserContext(), actor, sessionID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid session ID")
	}
	return h.complete(c, actor, sessionID)
}

func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid session ID")
	}

	var req cancelSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Cannot parse JSON")
		}
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}
	return h.cancel(c, actor, sessionID, req.Reason)
}

// CapturePayment completes the session named in the body.
func (h *SessionHandler) CapturePayment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req capturePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}
	return h.complete(c, actor, uuid.MustParse(req.SessionID))
}

// RefundPayment cancels the session named in the body with a full refund.
func (h *SessionHandler) RefundPayment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req refundPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}
	return h.cancel(c, actor, uuid.MustParse(req.SessionID), req.Reason)
}

func (h *SessionHandler) complete(c *fiber.Ctx, actor services.Actor, sessionID uuid.UUID) error {
	session, err := h.service.Complete(c.UserContext(), actor, sessionID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Session completed", "session": session})
}

func (h *SessionHandler) cancel(c *fiber.Ctx, actor services.Actor, sessionID uuid.UUID, reason string) error {
	session, err := h.service.Cancel(c.UserContext(), actor, sessionID, reason)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Session cancelled and refunded", "session": session})
}
