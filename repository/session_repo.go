package repository

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "session"}
		}
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error
}

// TransitionIfCurrent moves the session out of fromStatus. It returns false when
// another writer already changed the status.
func (r *SessionRepository) TransitionIfCurrent(
	ctx context.Context,
	id uuid.UUID,
	fromStatus string,
	toStatus string,
	toPaymentStatus string,
) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]any{
			"status":         toStatus,
			"payment_status": toPaymentStatus,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListPendingCreatedBefore returns scheduled sessions whose payment is still
// only authorized and that were booked before cutoff.
func (r *SessionRepository) ListPendingCreatedBefore(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]models.Session, error) {
	sessions := make([]models.Session, 0)
	err := r.db.WithContext(ctx).
		Where("status = ? AND payment_status = ? AND created_at < ?",
			models.SessionStatusScheduled, models.SessionPaymentPending, cutoff).
		Order("created_at asc").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
