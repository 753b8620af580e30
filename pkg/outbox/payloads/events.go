package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// OrderCreatedEvent tells the shop owner a new order arrived.
type OrderCreatedEvent struct {
	OrderID         uuid.UUID           `json:"order_id"`
	OrderNumber     string              `json:"order_number"`
	ShopID          uuid.UUID           `json:"shop_id"`
	ShopOwnerUserID uuid.UUID           `json:"shop_owner_user_id"`
	CustomerUserID  uuid.UUID           `json:"customer_user_id"`
	OrderType       enums.OrderType     `json:"order_type"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	ItemCount       int                 `json:"item_count"`
	Total           decimal.Decimal     `json:"total"`
}

// OrderStatusChangedEvent tells the customer the order moved.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	ShopID         uuid.UUID         `json:"shop_id"`
	CustomerUserID uuid.UUID         `json:"customer_user_id"`
	FromStatus     enums.OrderStatus `json:"from_status"`
	ToStatus       enums.OrderStatus `json:"to_status"`
	Notes          string            `json:"notes,omitempty"`
}

// OrderPaymentMethodChangedEvent tells the customer the shop switched settlement.
type OrderPaymentMethodChangedEvent struct {
	OrderID        uuid.UUID           `json:"order_id"`
	OrderNumber    string              `json:"order_number"`
	ShopID         uuid.UUID           `json:"shop_id"`
	CustomerUserID uuid.UUID           `json:"customer_user_id"`
	OldMethod      enums.PaymentMethod `json:"old_method"`
	NewMethod      enums.PaymentMethod `json:"new_method"`
	Reason         string              `json:"reason"`
}

// OrderModifiedEvent tells the customer the shop amended items or fees.
type OrderModifiedEvent struct {
	OrderID          uuid.UUID                   `json:"order_id"`
	OrderNumber      string                      `json:"order_number"`
	ShopID           uuid.UUID                   `json:"shop_id"`
	CustomerUserID   uuid.UUID                   `json:"customer_user_id"`
	ModificationType enums.OrderModificationType `json:"modification_type"`
	Total            decimal.Decimal             `json:"total"`
}

// CreditPostedEvent reports a credit or payment on a shop tab.
type CreditPostedEvent struct {
	AccountID       uuid.UUID                   `json:"account_id"`
	TransactionID   uuid.UUID                   `json:"transaction_id"`
	ShopID          uuid.UUID                   `json:"shop_id"`
	CustomerPhone   string                      `json:"customer_phone"`
	TransactionType enums.CreditTransactionType `json:"transaction_type"`
	Amount          decimal.Decimal             `json:"amount"`
	BalanceAfter    decimal.Decimal             `json:"balance_after"`
	OrderID         *uuid.UUID                  `json:"order_id,omitempty"`
}
