package cartdto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds a product to the caller's cart at a shop.
type AddItemRequest struct {
	ShopID    uuid.UUID       `json:"shop_id" validate:"required"`
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	Notes     *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
	SessionID *string         `json:"session_id,omitempty" validate:"omitempty,max=128"`
}

// UpdateItemRequest sets an item's quantity.
type UpdateItemRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
	Notes    *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// UpdateCartRequest edits cart-level fields.
type UpdateCartRequest struct {
	Notes       *string          `json:"notes,omitempty" validate:"omitempty,max=1000"`
	DeliveryFee *decimal.Decimal `json:"delivery_fee,omitempty"`
	Tax         *decimal.Decimal `json:"tax,omitempty"`
}
