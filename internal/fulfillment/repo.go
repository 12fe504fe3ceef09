package fulfillment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/trovemarket/trove-backend/pkg/db/models"
	"github.com/trovemarket/trove-backend/pkg/enums"
)

// Repository persists fulfillment state. Status transitions are conditional
// single-row updates keyed on the expected prior status, so two actors
// racing on the same item cannot silently overwrite each other.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	GetItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrdersForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error)
	ListItemsForSeller(ctx context.Context, sellerID uuid.UUID) ([]models.OrderItem, error)

	TransitionItem(ctx context.Context, itemID uuid.UUID, from, to enums.OrderItemStatus, updates map[string]any) (bool, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error

	CreateIssue(ctx context.Context, issue *models.OrderIssue) error
	CreateReturnRequest(ctx context.Context, request *models.ReturnRequest) error
	CreateFeedback(ctx context.Context, feedback *models.Feedback) error
	FindFeedback(ctx context.Context, orderID uuid.UUID, role enums.RaterRole) (*models.Feedback, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a fulfillment repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrdersForBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListItemsForSeller(ctx context.Context, sellerID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// TransitionItem applies the status change only when the stored status still
// matches from. Returns false when the row was already past that state.
func (r *repository) TransitionItem(ctx context.Context, itemID uuid.UUID, from, to enums.OrderItemStatus, updates map[string]any) (bool, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to

	result := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ? AND status = ?", itemID, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (r *repository) CreateIssue(ctx context.Context, issue *models.OrderIssue) error {
	return r.db.WithContext(ctx).Create(issue).Error
}

func (r *repository) CreateReturnRequest(ctx context.Context, request *models.ReturnRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) CreateFeedback(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *repository) FindFeedback(ctx context.Context, orderID uuid.UUID, role enums.RaterRole) (*models.Feedback, error) {
	var feedback models.Feedback
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND rater_role = ?", orderID, role).
		First(&feedback).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}
