package ordersdto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// Order is the API view of an order.
type Order struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uuid.UUID           `json:"user_id"`
	ShopID        uuid.UUID           `json:"shop_id"`
	CartID        *uuid.UUID          `json:"cart_id,omitempty"`
	Status        enums.OrderStatus   `json:"status"`
	OrderType     enums.OrderType     `json:"order_type"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	OrderDiscount  decimal.Decimal `json:"order_discount"`
	ExtraCharges   decimal.Decimal `json:"extra_charges"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
	Tax            decimal.Decimal `json:"tax"`
	Total          decimal.Decimal `json:"total"`
	TotalItems     int             `json:"total_items"`
	TotalQuantity  decimal.Decimal `json:"total_quantity"`

	Pickup   *Pickup   `json:"pickup,omitempty"`
	Delivery *Delivery `json:"delivery,omitempty"`

	CustomerPhone         *string    `json:"customer_phone,omitempty"`
	CustomerNotes         *string    `json:"customer_notes,omitempty"`
	ShopNotes             *string    `json:"shop_notes,omitempty"`
	CancellationReason    *string    `json:"cancellation_reason,omitempty"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date,omitempty"`
	EstimatedDeliveryTime *string    `json:"estimated_delivery_time,omitempty"`
	HasShopModifications  bool       `json:"has_shop_modifications"`

	ConfirmedAt         *time.Time `json:"confirmed_at,omitempty"`
	ProcessingStartedAt *time.Time `json:"processing_started_at,omitempty"`
	PackedAt            *time.Time `json:"packed_at,omitempty"`
	DeliveredAt         *time.Time `json:"delivered_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt          *time.Time `json:"refunded_at,omitempty"`

	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Pickup is the pickup schedule of an order.
type Pickup struct {
	Date  *time.Time `json:"date,omitempty"`
	Time  *string    `json:"time,omitempty"`
	Notes *string    `json:"notes,omitempty"`
}

// Delivery is the destination of an order.
type Delivery struct {
	Address       *string `json:"address,omitempty"`
	Landmark      *string `json:"landmark,omitempty"`
	Pincode       *string `json:"pincode,omitempty"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID                 uuid.UUID             `json:"id"`
	ProductID          *uuid.UUID            `json:"product_id,omitempty"`
	ProductName        string                `json:"product_name"`
	ProductImage       *string               `json:"product_image,omitempty"`
	ProductSKU         *string               `json:"product_sku,omitempty"`
	Quantity           decimal.Decimal       `json:"quantity"`
	UnitPrice          decimal.Decimal       `json:"unit_price"`
	UnitDiscountPrice  *decimal.Decimal      `json:"unit_discount_price,omitempty"`
	ItemDiscountAmount decimal.Decimal       `json:"item_discount_amount"`
	Subtotal           decimal.Decimal       `json:"subtotal"`
	Status             enums.OrderItemStatus `json:"status"`
	UnavailableReason  *string               `json:"unavailable_reason,omitempty"`
	IsAddedByShop      bool                  `json:"is_added_by_shop"`
	IsModifiedByShop   bool                  `json:"is_modified_by_shop"`
	OriginalQuantity   *decimal.Decimal      `json:"original_quantity,omitempty"`
	OriginalUnitPrice  *decimal.Decimal      `json:"original_unit_price,omitempty"`
	CustomerNotes      *string               `json:"customer_notes,omitempty"`
	ShopNotes          *string               `json:"shop_notes,omitempty"`
}

// StatusEvent is one entry of the status history.
type StatusEvent struct {
	Seq         int                `json:"seq"`
	FromStatus  *enums.OrderStatus `json:"from_status,omitempty"`
	ToStatus    enums.OrderStatus  `json:"to_status"`
	ActorUserID uuid.UUID          `json:"actor_user_id"`
	ActorRole   enums.Role         `json:"actor_role"`
	Notes       *string            `json:"notes,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Modification is one order-level seller change.
type Modification struct {
	Seq              int                         `json:"seq"`
	ModificationType enums.OrderModificationType `json:"modification_type"`
	Field            string                      `json:"field"`
	OldValue         *string                     `json:"old_value,omitempty"`
	NewValue         *string                     `json:"new_value,omitempty"`
	Reason           *string                     `json:"reason,omitempty"`
	Notes            *string                     `json:"notes,omitempty"`
	ActorUserID      uuid.UUID                   `json:"actor_user_id"`
	CreatedAt        time.Time                   `json:"created_at"`
}

// ItemModification is one line-level seller change.
type ItemModification struct {
	Seq              int                        `json:"seq"`
	OrderItemID      uuid.UUID                  `json:"order_item_id"`
	ModificationType enums.ItemModificationType `json:"modification_type"`
	OldValue         *string                    `json:"old_value,omitempty"`
	NewValue         *string                    `json:"new_value,omitempty"`
	Reason           *string                    `json:"reason,omitempty"`
	ActorUserID      uuid.UUID                  `json:"actor_user_id"`
	CreatedAt        time.Time                  `json:"created_at"`
}

// OrderDetail is an order with its audit trail.
type OrderDetail struct {
	Order             Order              `json:"order"`
	StatusHistory     []StatusEvent      `json:"status_history"`
	Modifications     []Modification     `json:"modifications"`
	ItemModifications []ItemModification `json:"item_modifications"`
}

// OrderList is one page of orders.
type OrderList struct {
	Orders []Order `json:"orders"`
	Cursor string  `json:"cursor,omitempty"`
}
