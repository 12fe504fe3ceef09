package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/trovemarket/trove-backend/pkg/enums"
)

// OrderIssue is a buyer-reported dispute on a shipped or delivered item. It
// never mutates the item status; resolution happens through the linked
// conversation thread.
type OrderIssue struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID    uuid.UUID       `gorm:"column:order_item_id;type:uuid;not null;index"`
	ReporterID     uuid.UUID       `gorm:"column:reporter_id;type:uuid;not null"`
	IssueType      enums.IssueType `gorm:"column:issue_type;type:text;not null"`
	Description    string          `gorm:"column:description;not null"`
	ConversationID *uuid.UUID      `gorm:"column:conversation_id;type:uuid"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
