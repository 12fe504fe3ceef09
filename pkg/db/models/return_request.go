package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/pkg/enums"
)

// ReturnRequest is a buyer-initiated return, available once an item is
// delivered. Independent of the item status field.
type ReturnRequest struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID uuid.UUID          `gorm:"column:order_item_id;type:uuid;not null;index"`
	RequesterID uuid.UUID          `gorm:"column:requester_id;type:uuid;not null"`
	Reason      string             `gorm:"column:reason;not null"`
	Status      enums.ReturnStatus `gorm:"column:status;type:text;not null;default:'open'"`
	ResolvedAt  *time.Time         `gorm:"column:resolved_at"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
