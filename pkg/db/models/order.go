package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// Order is the immutable checkout snapshot plus seller-managed fees.
// Total = Subtotal - DiscountAmount + ExtraCharges + DeliveryFee + Tax.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string            `gorm:"column:order_number;not null;uniqueIndex"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	ShopID      uuid.UUID         `gorm:"column:shop_id;type:uuid;not null"`
	CartID      *uuid.UUID        `gorm:"column:cart_id;type:uuid"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null"`
	OrderType   enums.OrderType   `gorm:"column:order_type;type:order_type;not null"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	OrderDiscount  decimal.Decimal `gorm:"column:order_discount;type:numeric(12,2);not null"`
	ExtraCharges   decimal.Decimal `gorm:"column:extra_charges;type:numeric(12,2);not null"`
	DeliveryFee    decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Tax            decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	PickupDate  *time.Time `gorm:"column:pickup_date"`
	PickupTime  *string    `gorm:"column:pickup_time"`
	PickupNotes *string    `gorm:"column:pickup_notes"`

	DeliveryAddress       *string `gorm:"column:delivery_address"`
	DeliveryLandmark      *string `gorm:"column:delivery_landmark"`
	DeliveryPincode       *string `gorm:"column:delivery_pincode"`
	DeliveryCity          *string `gorm:"column:delivery_city"`
	DeliveryState         *string `gorm:"column:delivery_state"`
	DeliveryContactNumber *string `gorm:"column:delivery_contact_number"`
	DeliveryNotes         *string `gorm:"column:delivery_notes"`

	CustomerPhone        *string             `gorm:"column:customer_phone"`
	PaymentStatus        enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null"`
	PaymentMethod        enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	PaymentTransactionID *string             `gorm:"column:payment_transaction_id"`
	PaymentDate          *time.Time          `gorm:"column:payment_date"`

	ConfirmedAt         *time.Time `gorm:"column:confirmed_at"`
	ProcessingStartedAt *time.Time `gorm:"column:processing_started_at"`
	PackedAt            *time.Time `gorm:"column:packed_at"`
	DeliveredAt         *time.Time `gorm:"column:delivered_at"`
	CancelledAt         *time.Time `gorm:"column:cancelled_at"`
	RefundedAt          *time.Time `gorm:"column:refunded_at"`

	CustomerNotes         *string         `gorm:"column:customer_notes"`
	ShopNotes             *string         `gorm:"column:shop_notes"`
	CancellationReason    *string         `gorm:"column:cancellation_reason"`
	TotalItems            int             `gorm:"column:total_items;not null"`
	TotalQuantity         decimal.Decimal `gorm:"column:total_quantity;type:numeric(10,2);not null"`
	EstimatedDeliveryDate *time.Time      `gorm:"column:estimated_delivery_date"`
	EstimatedDeliveryTime *string         `gorm:"column:estimated_delivery_time"`
	HasShopModifications  bool            `gorm:"column:has_shop_modifications;not null"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// CanBeModified reports whether seller item and fee amendments are allowed.
func (o Order) CanBeModified() bool {
	return o.Status == enums.OrderStatusProcessing
}

// OrderItem is a frozen line of an order that the seller may later amend.
type OrderItem struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID            uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	ProductID          *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	ProductName        string                `gorm:"column:product_name;not null"`
	ProductImage       *string               `gorm:"column:product_image"`
	ProductSKU         *string               `gorm:"column:product_sku"`
	ProductSpecs       []byte                `gorm:"column:product_specs;type:jsonb"`
	Quantity           decimal.Decimal       `gorm:"column:quantity;type:numeric(10,2);not null"`
	UnitPrice          decimal.Decimal       `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitDiscountPrice  decimal.NullDecimal   `gorm:"column:unit_discount_price;type:numeric(12,2)"`
	ItemDiscountAmount decimal.Decimal       `gorm:"column:item_discount_amount;type:numeric(12,2);not null"`
	Subtotal           decimal.Decimal       `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Status             enums.OrderItemStatus `gorm:"column:status;type:order_item_status;not null"`
	UnavailableReason  *string               `gorm:"column:unavailable_reason"`
	IsAddedByShop      bool                  `gorm:"column:is_added_by_shop;not null"`
	IsModifiedByShop   bool                  `gorm:"column:is_modified_by_shop;not null"`
	OriginalCartItemID *uuid.UUID            `gorm:"column:original_cart_item_id;type:uuid"`
	OriginalQuantity   decimal.NullDecimal   `gorm:"column:original_quantity;type:numeric(10,2)"`
	OriginalUnitPrice  decimal.NullDecimal   `gorm:"column:original_unit_price;type:numeric(12,2)"`
	CustomerNotes      *string               `gorm:"column:customer_notes"`
	ShopNotes          *string               `gorm:"column:shop_notes"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// FinalUnitPrice is the discounted price when one is set, else the unit price.
func (i OrderItem) FinalUnitPrice() decimal.Decimal {
	if i.UnitDiscountPrice.Valid {
		return i.UnitDiscountPrice.Decimal
	}
	return i.UnitPrice
}
