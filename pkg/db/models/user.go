package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a marketplace account. Buyers and sellers are the same table; a
// user becomes a seller by carrying a SellerProfile.
type User struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string         `gorm:"column:email;not null;uniqueIndex"`
	DisplayName   string         `gorm:"column:display_name;not null"`
	SellerProfile *SellerProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
