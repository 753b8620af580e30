package ordersdto

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PickupRequest carries optional pickup scheduling. Date is YYYY-MM-DD.
type PickupRequest struct {
	Date  *string `json:"date,omitempty"`
	Time  *string `json:"time,omitempty" validate:"omitempty,max=32"`
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// DeliveryRequest carries the destination of a delivery order.
type DeliveryRequest struct {
	Address       string  `json:"address" validate:"required,max=500"`
	Landmark      *string `json:"landmark,omitempty" validate:"omitempty,max=200"`
	Pincode       *string `json:"pincode,omitempty" validate:"omitempty,max=12"`
	City          *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State         *string `json:"state,omitempty" validate:"omitempty,max=100"`
	ContactNumber string  `json:"contact_number" validate:"required,max=20"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// CreateOrderRequest checks out one of the caller's carts.
type CreateOrderRequest struct {
	CartID        uuid.UUID        `json:"cart_id" validate:"required"`
	OrderType     string           `json:"order_type" validate:"required"`
	PaymentMethod *string          `json:"payment_method,omitempty"`
	CustomerPhone string           `json:"customer_phone" validate:"required,max=20"`
	Pickup        *PickupRequest   `json:"pickup,omitempty"`
	Delivery      *DeliveryRequest `json:"delivery,omitempty"`
	CustomerNotes *string          `json:"customer_notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateStatusRequest moves an order to a new status.
type UpdateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// CancelRequest cancels an order.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// RefundRequest refunds a delivered order.
type RefundRequest struct {
	Notes string `json:"notes" validate:"max=1000"`
}

// PaymentMethodRequest switches how an order is settled.
type PaymentMethodRequest struct {
	PaymentMethod string  `json:"payment_method" validate:"required"`
	CustomerPhone *string `json:"customer_phone,omitempty" validate:"omitempty,max=20"`
	Reason        *string `json:"reason,omitempty" validate:"omitempty,max=500"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// AddItemRequest adds a seller line to a processing order.
type AddItemRequest struct {
	ProductID           uuid.UUID        `json:"product_id" validate:"required"`
	Quantity            decimal.Decimal  `json:"quantity" validate:"required"`
	CustomUnitPrice     *decimal.Decimal `json:"custom_unit_price,omitempty"`
	CustomDiscountPrice *decimal.Decimal `json:"custom_discount_price,omitempty"`
	Reason              *string          `json:"reason,omitempty" validate:"omitempty,max=500"`
	ShopNotes           *string          `json:"shop_notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateItemRequest amends one order line.
type UpdateItemRequest struct {
	Quantity          *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice         *decimal.Decimal `json:"unit_price,omitempty"`
	DiscountPrice     *decimal.Decimal `json:"discount_price,omitempty"`
	UnavailableReason *string          `json:"unavailable_reason,omitempty" validate:"omitempty,max=200"`
	Remove            bool             `json:"remove,omitempty"`
	Reason            *string          `json:"reason,omitempty" validate:"omitempty,max=500"`
	ShopNotes         *string          `json:"shop_notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateFeesRequest edits the seller-managed order fields.
type UpdateFeesRequest struct {
	DeliveryFee           *decimal.Decimal `json:"delivery_fee,omitempty"`
	AdditionalDiscount    *decimal.Decimal `json:"additional_discount,omitempty"`
	ExtraCharges          *decimal.Decimal `json:"extra_charges,omitempty"`
	Tax                   *decimal.Decimal `json:"tax,omitempty"`
	ShopNotes             *string          `json:"shop_notes,omitempty" validate:"omitempty,max=1000"`
	EstimatedDeliveryDate *string          `json:"estimated_delivery_date,omitempty"`
	EstimatedDeliveryTime *string          `json:"estimated_delivery_time,omitempty" validate:"omitempty,max=32"`
	Reason                *string          `json:"reason,omitempty" validate:"omitempty,max=500"`
}
