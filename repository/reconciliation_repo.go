package repository

import (
	"context"

	"github.com/anjiri1684/mentor_marketplace/models"
	"gorm.io/gorm"
)

type ReconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) *ReconciliationRepository {
	return &ReconciliationRepository{db: db}
}

func (r *ReconciliationRepository) Create(ctx context.Context, record *models.ReconciliationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}
