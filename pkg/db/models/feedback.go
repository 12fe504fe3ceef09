package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/pkg/enums"
	"github.com/trovemarket/trove-backend/pkg/types"
)

// Feedback is a post-delivery rating between the two parties of an order.
// The unique index on (order_id, rater_role) enforces at-most-once per side.
type Feedback struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_feedbacks_order_rater,priority:1"`
	RaterRole enums.RaterRole     `gorm:"column:rater_role;type:text;not null;uniqueIndex:idx_feedbacks_order_rater,priority:2"`
	RaterID   uuid.UUID           `gorm:"column:rater_id;type:uuid;not null"`
	SubjectID uuid.UUID           `gorm:"column:subject_id;type:uuid;not null;index"`
	Rating    int                 `gorm:"column:rating;not null"`
	Comment   *string             `gorm:"column:comment"`
	Flags     types.FeedbackFlags `gorm:"column:flags;type:jsonb;serializer:json"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
