package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Shop is the catalog-owned tenant record. This service only reads it.
type Shop struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerUserID          uuid.UUID       `gorm:"column:owner_user_id;type:uuid;not null"`
	ShopName             string          `gorm:"column:shop_name;not null"`
	IsDeliveryAvailable  bool            `gorm:"column:is_delivery_available;not null"`
	HasStockAvailability bool            `gorm:"column:has_stock_availability;not null"`
	DeliveryFee          decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	IsActive             bool            `gorm:"column:is_active;not null"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Shop) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
