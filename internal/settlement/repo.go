package settlement

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/trovemarket/trove-backend/pkg/db/models"
)

// Repository persists orders during settlement.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByPaymentReference(ctx context.Context, ref string) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a settlement repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindByPaymentReference loads an order and its items by the unique payment
// reference. Returns nil when no order exists yet.
func (r *repository) FindByPaymentReference(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_reference = ?", ref).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder inserts the order and its items in one statement batch. The
// caller decides the transaction scope.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}
