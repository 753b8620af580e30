package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

var (
	minQuantity = decimal.RequireFromString("0.01")
	maxQuantity = decimal.RequireFromString("999.99")
)

const (
	reasonOutOfStock     = "Out of stock"
	reasonNotAvailable   = "Product not available"
	reasonNoLongerExists = "Product no longer available"
)

// AddItemInput adds a product to the caller's active cart at a shop.
type AddItemInput struct {
	ShopID    uuid.UUID
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	Notes     *string
	SessionID *string
}

// UpdateItemInput sets an item's quantity. Nil notes are left alone.
type UpdateItemInput struct {
	Quantity decimal.Decimal
	Notes    *string
}

// UpdateCartInput edits cart-level fields. Nil fields are left alone.
type UpdateCartInput struct {
	Notes       *string
	DeliveryFee *decimal.Decimal
	Tax         *decimal.Decimal
}

// ListFilters narrows List.
type ListFilters struct {
	Status       *enums.CartStatus
	ShopID       *uuid.UUID
	IncludeEmpty bool
}

// Stats summarizes the caller's carts.
type Stats struct {
	TotalCarts      int64                      `json:"total_carts"`
	ActiveCarts     int64                      `json:"active_carts"`
	AbandonedCarts  int64                      `json:"abandoned_carts"`
	CheckedOutCarts int64                      `json:"checked_out_carts"`
	TotalItems      int64                      `json:"total_items"`
	TotalValue      decimal.Decimal            `json:"total_value"`
	ByStatus        map[enums.CartStatus]int64 `json:"by_status"`
}
