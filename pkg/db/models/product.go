package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// Product is the catalog listing snapshotted into carts and orders.
type Product struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID         uuid.UUID           `gorm:"column:shop_id;type:uuid;not null"`
	ProductName    string              `gorm:"column:product_name;not null"`
	Image          *string             `gorm:"column:image"`
	SKU            *string             `gorm:"column:sku"`
	Specifications json.RawMessage     `gorm:"column:specifications;type:jsonb"`
	SalePrice      decimal.Decimal     `gorm:"column:sale_price;type:numeric(12,2);not null"`
	DiscountPrice  decimal.NullDecimal `gorm:"column:discount_price;type:numeric(12,2)"`
	HasStock       bool                `gorm:"column:has_stock;not null"`
	Status         enums.ProductStatus `gorm:"column:status;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt      `gorm:"column:deleted_at;index"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
