package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// Cart aggregates one customer's pending selection at one shop. Aggregate
// columns are derived from Items and rewritten on every mutation.
type Cart struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	ShopID         uuid.UUID        `gorm:"column:shop_id;type:uuid;not null"`
	Status         enums.CartStatus `gorm:"column:status;type:cart_status;not null"`
	Subtotal       decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TotalDiscount  decimal.Decimal  `gorm:"column:total_discount;type:numeric(12,2);not null"`
	DeliveryFee    decimal.Decimal  `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Tax            decimal.Decimal  `gorm:"column:tax;type:numeric(12,2);not null"`
	Total          decimal.Decimal  `gorm:"column:total;type:numeric(12,2);not null"`
	TotalItems     int              `gorm:"column:total_items;not null"`
	TotalQuantity  decimal.Decimal  `gorm:"column:total_quantity;type:numeric(10,2);not null"`
	SessionID      *string          `gorm:"column:session_id"`
	Notes          *string          `gorm:"column:notes"`
	LastActivityAt time.Time        `gorm:"column:last_activity_at;not null"`
	Items          []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CartItem is a product snapshot inside a cart. Unique per (cart, product).
type CartItem struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID            uuid.UUID           `gorm:"column:cart_id;type:uuid;not null"`
	ProductID         uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	ProductName       string              `gorm:"column:product_name;not null"`
	ProductImage      *string             `gorm:"column:product_image"`
	ProductSKU        *string             `gorm:"column:product_sku"`
	ProductSpecs      []byte              `gorm:"column:product_specs;type:jsonb"`
	Quantity          decimal.Decimal     `gorm:"column:quantity;type:numeric(10,2);not null"`
	UnitPrice         decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitDiscountPrice decimal.NullDecimal `gorm:"column:unit_discount_price;type:numeric(12,2)"`
	DiscountAmount    decimal.Decimal     `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	IsAvailable       bool                `gorm:"column:is_available;not null"`
	UnavailableReason *string             `gorm:"column:unavailable_reason"`
	Notes             *string             `gorm:"column:notes"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// FinalUnitPrice is the discounted price when one is set, else the unit price.
func (i CartItem) FinalUnitPrice() decimal.Decimal {
	if i.UnitDiscountPrice.Valid {
		return i.UnitDiscountPrice.Decimal
	}
	return i.UnitPrice
}
