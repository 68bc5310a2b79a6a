package services

import (
	"context"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/google/uuid"
)

const (
	RoleMentor = "mentor"
	RoleMentee = "mentee"
	RoleAdmin  = "admin"
	RoleSystem = "system"
)

// Actor is the caller on whose behalf an operation runs.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// SystemActor drives transitions triggered by the processor or by jobs.
var SystemActor = Actor{Role: RoleSystem}

func (a Actor) privileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// actsFor reports whether the actor may act as the given user.
func (a Actor) actsFor(userID uuid.UUID) bool {
	return a.privileged() || a.ID == userID
}

func requireSelf(actor Actor, userID uuid.UUID, what string) error {
	if !actor.actsFor(userID) {
		return domain.AuthorizationError{Msg: "not allowed to " + what}
	}
	return nil
}

type eventPublisher interface {
	Publish(event models.SessionEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(models.SessionEvent) {}

type reconciliationStore interface {
	Create(ctx context.Context, record *models.ReconciliationRecord) error
}

func strPtr(s string) *string { return &s }
