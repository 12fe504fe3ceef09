package conversations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovemarket/trove-backend/pkg/db/models"
)

// Repository persists conversation threads.
type Repository interface {
	FindByOrderAndSeller(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Conversation, error)
	Create(ctx context.Context, conversation *models.Conversation) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a conversations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByOrderAndSeller(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND seller_id = ?", orderID, sellerID).
		First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *repository) Create(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}
