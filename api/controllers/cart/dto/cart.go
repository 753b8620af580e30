package cartdto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// Cart is the API view of a cart and its items.
type Cart struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	ShopID         uuid.UUID        `json:"shop_id"`
	Status         enums.CartStatus `json:"status"`
	Subtotal       decimal.Decimal  `json:"subtotal"`
	TotalDiscount  decimal.Decimal  `json:"total_discount"`
	DeliveryFee    decimal.Decimal  `json:"delivery_fee"`
	Tax            decimal.Decimal  `json:"tax"`
	Total          decimal.Decimal  `json:"total"`
	TotalItems     int              `json:"total_items"`
	TotalQuantity  decimal.Decimal  `json:"total_quantity"`
	Notes          *string          `json:"notes,omitempty"`
	LastActivityAt time.Time        `json:"last_activity_at"`
	Items          []CartItem       `json:"items"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CartItem is one product line in a cart.
type CartItem struct {
	ID                uuid.UUID        `json:"id"`
	ProductID         uuid.UUID        `json:"product_id"`
	ProductName       string           `json:"product_name"`
	ProductImage      *string          `json:"product_image,omitempty"`
	ProductSKU        *string          `json:"product_sku,omitempty"`
	Quantity          decimal.Decimal  `json:"quantity"`
	UnitPrice         decimal.Decimal  `json:"unit_price"`
	UnitDiscountPrice *decimal.Decimal `json:"unit_discount_price,omitempty"`
	DiscountAmount    decimal.Decimal  `json:"discount_amount"`
	Subtotal          decimal.Decimal  `json:"subtotal"`
	IsAvailable       bool             `json:"is_available"`
	UnavailableReason *string          `json:"unavailable_reason,omitempty"`
	Notes             *string          `json:"notes,omitempty"`
}
