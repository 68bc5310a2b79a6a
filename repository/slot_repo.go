package repository

import (
	"context"
	"errors"

	"github.com/anjiri1684/mentor_marketplace/domain"
	"github.com/anjiri1684/mentor_marketplace/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// CreateChecked inserts slot after check accepted the mentor's existing slots
// for the same date. The check and the insert run under a transaction-scoped
// advisory lock keyed by mentor and date, so two concurrent creates cannot both
// pass the overlap check.
func (r *SlotRepository) CreateChecked(
	ctx context.Context,
	slot *models.AvailabilitySlot,
	check func(existing []models.AvailabilitySlot) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lockKey := slot.MentorID.String() + "/" + slot.Date
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", lockKey).Error; err != nil {
			return err
		}

		var existing []models.AvailabilitySlot
		if err := tx.Where("mentor_id = ? AND date = ?", slot.MentorID, slot.Date).
			Find(&existing).Error; err != nil {
			return err
		}
		if err := check(existing); err != nil {
			return err
		}
		return tx.Create(slot).Error
	})
}

func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error) {
	var slot models.AvailabilitySlot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFoundError{Resource: "slot"}
		}
		return nil, err
	}
	return &slot, nil
}

func (r *SlotRepository) ListByMentorDate(
	ctx context.Context,
	mentorID uuid.UUID,
	date string,
) ([]models.AvailabilitySlot, error) {
	slots := make([]models.AvailabilitySlot, 0)
	err := r.db.WithContext(ctx).
		Where("mentor_id = ? AND date = ?", mentorID, date).
		Order("start_time asc").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// DeleteIfUnbooked removes the slot only while is_booked is false. It reports
// false when no unbooked row matched.
func (r *SlotRepository) DeleteIfUnbooked(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND is_booked = ?", id, false).
		Delete(&models.AvailabilitySlot{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Reserve flips is_booked from false to true in a single conditional update.
// Exactly one concurrent caller observes true.
func (r *SlotRepository) Reserve(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.AvailabilitySlot{}).
		Where("id = ? AND is_booked = ?", id, false).
		Update("is_booked", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *SlotRepository) Release(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.AvailabilitySlot{}).
		Where("id = ? AND is_booked = ?", id, true).
		Update("is_booked", false).Error
}
