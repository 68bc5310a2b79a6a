package handlers

import (
	"context"

	"github.com/anjiri1684/mentor_marketplace/payments"
	"github.com/anjiri1684/mentor_marketplace/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type payoutService interface {
	EnsureConnectedAccount(ctx context.Context, actor services.Actor, input services.ConnectAccountInput) (*services.ConnectAccountResult, error)
	OnboardingLink(ctx context.Context, actor services.Actor, mentorID uuid.UUID) (string, error)
	GetBalance(ctx context.Context, actor services.Actor, mentorID uuid.UUID) (*payments.Balance, error)
	RequestPayout(ctx context.Context, actor services.Actor, input services.PayoutInput) (*payments.Payout, error)
}

type PayoutHandler struct {
	service payoutService
}

func NewPayoutHandler(service *services.PayoutManager) *PayoutHandler {
	return &PayoutHandler{service: service}
}

type connectAccountRequest struct {
	MentorID string `json:"mentor_id" validate:"required,uuid"`
	Email    string `json:"email" validate:"omitempty,email"`
	Country  string `json:"country" validate:"omitempty,len=2"`
}

type stripeAccountRequest struct {
	Email   string `json:"email" validate:"omitempty,email"`
	Country string `json:"country" validate:"omitempty,len=2"`
}

type payoutRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"required,len=3"`
}

func (h *PayoutHandler) GetBalance(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	mentorID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid mentor ID")
	}

	balance, err := h.service.GetBalance(c.UserContext(), actor, mentorID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(balance)
}

func (h *PayoutHandler) GetOnboardingLink(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	mentorID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid mentor ID")
	}

	link, err := h.service.OnboardingLink(c.UserContext(), actor, mentorID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"onboarding_url": link})
}

func (h *PayoutHandler) CreateConnectAccount(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	var req connectAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}
	return h.ensure(c, actor, services.ConnectAccountInput{
		MentorID: uuid.MustParse(req.MentorID),
		Email:    req.Email,
		Country:  req.Country,
	})
}

// CreateStripeAccount provisions the connected account of the mentor in the
// path and returns a fresh onboarding link.
func (h *PayoutHandler) CreateStripeAccount(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	mentorID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid mentor ID")
	}
	var req stripeAccountRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Cannot parse JSON")
		}
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}
	return h.ensure(c, actor, services.ConnectAccountInput{MentorID: mentorID, Email: req.Email, Country: req.Country})
}

func (h *PayoutHandler) ensure(c *fiber.Ctx, actor services.Actor, input services.ConnectAccountInput) error {
	result, err := h.service.EnsureConnectedAccount(c.UserContext(), actor, input)
	if err != nil {
		return mapError(c, err)
	}
	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"account_id":        result.Account.ExternalAccountID,
		"onboarding_status": result.Account.OnboardingStatus,
		"onboarding_url":    result.OnboardingURL,
	})
}

func (h *PayoutHandler) RequestPayout(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	mentorID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid mentor ID")
	}
	var req payoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	payout, err := h.service.RequestPayout(c.UserContext(), actor, services.PayoutInput{
		MentorID:   mentorID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		RequestKey: c.Get("Idempotency-Key"),
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payout": payout})
}
