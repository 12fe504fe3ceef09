package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovemarket/trove-backend/pkg/db/models"
)

// Repository reads catalog data: products, the seller profiles behind them,
// and payout routing. The engine treats sellers as immutable for the
// duration of a checkout attempt.
type Repository interface {
	ResolveProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	LookupProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	SellerProfile(ctx context.Context, sellerID uuid.UUID) (*models.SellerProfile, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ResolveProducts loads active products by id. Missing ids are simply absent
// from the returned map; callers decide whether absence is an error.
func (r *repository) ResolveProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	resolved := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND active = ?", ids, true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		resolved[product.ID] = product
	}
	return resolved, nil
}

// LookupProducts loads products by id regardless of listing state. Used at
// settlement time, when the purchased product may already be delisted.
func (r *repository) LookupProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	resolved := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return resolved, nil
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		resolved[product.ID] = product
	}
	return resolved, nil
}

// SellerProfile loads the fee schedule and payout routing for a seller.
// Returns nil when the seller has no profile.
func (r *repository) SellerProfile(ctx context.Context, sellerID uuid.UUID) (*models.SellerProfile, error) {
	var profile models.SellerProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", sellerID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
