package repository

import (
	"context"
	"errors"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts the payment. The partial unique index on session_id turns a
// second active payment into domain.ErrDuplicatePayment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicatePayment
		}
		return err
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "payment"}
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) HasActive(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("session_id = ? AND status <> ?", sessionID, models.PaymentStatusVoided).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetBySession returns the most recent payment of the session.
func (r *PaymentRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at desc").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "payment"}
		}
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("external_intent_id = ?", intentID).
		Order("created_at desc").
		First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "payment"}
		}
		return nil, err
	}
	return &payment, nil
}

// UpdateIfStatus applies updates only while the payment is still in
// fromStatus. It returns false when the row had already moved on.
func (r *PaymentRepository) UpdateIfStatus(
	ctx context.Context,
	id uuid.UUID,
	fromStatus string,
	updates map[string]any,
) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
