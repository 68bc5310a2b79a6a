package handlers

import (
	"context"

	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/anjiri1684/mentor_marketplace/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type slotService interface {
	CreateSlot(ctx context.Context, actor services.Actor, input services.CreateSlotInput) (*models.AvailabilitySlot, error)
	CreateRecurringSlots(ctx context.Context, actor services.Actor, input services.RecurringSlotInput) (*services.RecurringSlotResult, error)
	ListSlots(ctx context.Context, mentorID uuid.UUID, date string) ([]models.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, actor services.Actor, id uuid.UUID) error
}

type SlotHandler struct {
	service slotService
}

func NewSlotHandler(service *services.SlotAllocator) *SlotHandler {
	return &SlotHandler{service: service}
}

type createSlotRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type createRecurringSlotsRequest struct {
	RRule     string `json:"rrule" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

func (h *SlotHandler) CreateSlot(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	mentorID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid mentor ID")
	}

	var req createSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	slot, err := h.service.CreateSlot(c.UserContext(), actor, services.CreateSlotInput{
		MentorID:  mentorID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slot": slot})
}

func (h *SlotHandler) CreateRecurringSlots(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	mentorID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid mentor ID")
	}

	var req createRecurringSlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.service.CreateRecurringSlots(c.UserContext(), actor, services.RecurringSlotInput{
		MentorID:  mentorID,
		RRule:     req.RRule,
		StartDate: req.StartDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *SlotHandler) ListSlots(c *fiber.Ctx) error {
	mentorID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid mentor ID")
	}
	date := c.Query("date")
	if date == "" {
		return badRequest(c, "date query parameter is required")
	}

	slots, err := h.service.ListSlots(c.UserContext(), mentorID, date)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots})
}

func (h *SlotHandler) DeleteSlot(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return unauthorized(c)
	}
	slotID, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid slot ID")
	}

	if err := h.service.DeleteSlot(c.UserContext(), actor, slotID); err != nil {
		return mapError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
