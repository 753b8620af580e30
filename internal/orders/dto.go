package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

const (
	orderNumberPrefix      = "ORD"
	orderNumberDateLayout  = "060102"
	maxOrderNumberAttempts = 5
	maxDailySequence       = 9999

	defaultPaymentMethodReason = "Payment method changed by shop owner"
)

var (
	minItemQuantity = decimal.RequireFromString("0.01")
	maxItemQuantity = decimal.RequireFromString("999.99")
)

// PickupDetails are optional scheduling hints for shop pickup orders.
type PickupDetails struct {
	Date  *time.Time
	Time  *string
	Notes *string
}

// DeliveryDetails carry the destination of a home delivery order.
type DeliveryDetails struct {
	Address       string
	Landmark      *string
	Pincode       *string
	City          *string
	State         *string
	ContactNumber string
	Notes         *string
}

// CreateOrderInput converts one of the caller's carts into an order.
type CreateOrderInput struct {
	CartID        uuid.UUID
	OrderType     enums.OrderType
	PaymentMethod enums.PaymentMethod
	CustomerPhone string
	Pickup        *PickupDetails
	Delivery      *DeliveryDetails
	CustomerNotes *string
}

// UpdateStatusInput moves an order along the lifecycle.
type UpdateStatusInput struct {
	Status enums.OrderStatus
	Notes  *string
}

// PaymentMethodInput switches how an open order is settled.
type PaymentMethodInput struct {
	PaymentMethod enums.PaymentMethod
	CustomerPhone *string
	Reason        *string
	Notes         *string
}

// AddItemInput adds a seller line to a processing order. Custom prices
// override the catalog snapshot.
type AddItemInput struct {
	ProductID           uuid.UUID
	Quantity            decimal.Decimal
	CustomUnitPrice     *decimal.Decimal
	CustomDiscountPrice *decimal.Decimal
	Reason              *string
	ShopNotes           *string
}

// UpdateItemInput amends one order line. Nil fields are left alone; Remove
// and UnavailableReason take the line out of the totals.
type UpdateItemInput struct {
	Quantity          *decimal.Decimal
	UnitPrice         *decimal.Decimal
	DiscountPrice     *decimal.Decimal
	UnavailableReason *string
	Remove            bool
	Reason            *string
	ShopNotes         *string
}

// UpdateFeesInput changes the seller-managed order fields. Nil fields are left alone.
type UpdateFeesInput struct {
	DeliveryFee           *decimal.Decimal
	AdditionalDiscount    *decimal.Decimal
	ExtraCharges          *decimal.Decimal
	Tax                   *decimal.Decimal
	ShopNotes             *string
	EstimatedDeliveryDate *time.Time
	EstimatedDeliveryTime *string
	Reason                *string
}

// ListFilters narrows List. Role scoping is applied on top of these.
type ListFilters struct {
	ShopID        *uuid.UUID
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentMethod *enums.PaymentMethod
	PaymentStatus *enums.PaymentStatus
	OrderType     *enums.OrderType
	From          *time.Time
	To            *time.Time
	Limit         int
	Cursor        string
}

// ListResult wraps returned orders and the cursor for the next page.
type ListResult struct {
	Items  []models.Order `json:"items"`
	Cursor string         `json:"cursor"`
}

// OrderDetail is an order with its full audit trail.
type OrderDetail struct {
	Order             models.Order                   `json:"order"`
	StatusHistory     []models.OrderStatusEvent      `json:"status_history"`
	Modifications     []models.OrderModification     `json:"modifications"`
	ItemModifications []models.OrderItemModification `json:"item_modifications"`
}

// Summary reports a shop's order counts and delivered revenue.
type Summary struct {
	ShopID           uuid.UUID                   `json:"shop_id"`
	TotalOrders      int64                       `json:"total_orders"`
	ByStatus         map[enums.OrderStatus]int64 `json:"by_status"`
	DeliveredRevenue decimal.Decimal             `json:"delivered_revenue"`
}
