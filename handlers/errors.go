package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var validate = validator.New()

var errInvalidToken = errors.New("invalid token")

// currentActor reads the caller from the verified JWT stored by the auth
// middleware.
func currentActor(c *fiber.Ctx) (services.Actor, error) {
	return actorFromLocal(c.Locals("user"))
}

func actorFromLocal(local interface{}) (services.Actor, error) {
	token, ok := local.(*jwt.Token)
	if !ok {
		return services.Actor{}, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return services.Actor{}, errInvalidToken
	}
	rawID, _ := claims["user_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return services.Actor{}, errInvalidToken
	}
	role, _ := claims["role"].(string)
	if role == services.RoleSystem {
		return services.Actor{}, errInvalidToken
	}
	return services.Actor{ID: id, Role: role}, nil
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Params(name)))
}

// mapError translates service errors into HTTP responses.
func mapError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := err.Error()

	switch {
	case domain.IsValidation(err):
		status = fiber.StatusBadRequest
	case domain.IsAuthorization(err):
		status = fiber.StatusForbidden
	case domain.IsNotFound(err):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyFinalized):
		status = fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition):
		status = fiber.StatusUnprocessableEntity
	case domain.IsConflict(err):
		status = fiber.StatusConflict
	case domain.IsInsufficientBalance(err):
		status = fiber.StatusUnprocessableEntity
	case domain.IsExternal(err):
		status = fiber.StatusBadGateway
	default:
		log.Printf("🔥 unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		msg = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
