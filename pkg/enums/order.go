package enums

import "fmt"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "order_placed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPacked     OrderStatus = "packed"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusProcessing,
	OrderStatusPacked,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further shop-driven transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderType selects how the order is fulfilled.
type OrderType string

const (
	OrderTypeShopPickup   OrderType = "shop_pickup"
	OrderTypeHomeDelivery OrderType = "home_delivery"
)

// IsValid reports whether the value is a known OrderType.
func (t OrderType) IsValid() bool {
	return t == OrderTypeShopPickup || t == OrderTypeHomeDelivery
}

// ParseOrderType converts raw input into an OrderType.
func ParseOrderType(value string) (OrderType, error) {
	t := OrderType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid order type %q", value)
	}
	return t, nil
}

// OrderItemStatus tracks seller amendments on a frozen order line.
type OrderItemStatus string

const (
	OrderItemStatusAvailable      OrderItemStatus = "available"
	OrderItemStatusUnavailable    OrderItemStatus = "unavailable"
	OrderItemStatusAddedByShop    OrderItemStatus = "added_by_shop"
	OrderItemStatusRemovedByShop  OrderItemStatus = "removed_by_shop"
	OrderItemStatusModifiedByShop OrderItemStatus = "modified_by_shop"
)

// CountsTowardTotal reports whether the line contributes to order pricing.
func (s OrderItemStatus) CountsTowardTotal() bool {
	return s != OrderItemStatusUnavailable && s != OrderItemStatusRemovedByShop
}

// OrderModificationType classifies rows of the order modification ledger.
type OrderModificationType string

const (
	OrderModAddItem             OrderModificationType = "add_item"
	OrderModRemoveItem          OrderModificationType = "remove_item"
	OrderModUpdateQuantity      OrderModificationType = "update_quantity"
	OrderModUpdatePrice         OrderModificationType = "update_price"
	OrderModApplyDiscount       OrderModificationType = "apply_discount"
	OrderModChangeDeliveryFee   OrderModificationType = "change_delivery_fee"
	OrderModChangeFees          OrderModificationType = "change_fees"
	OrderModChangePaymentMethod OrderModificationType = "change_payment_method"
)

// ItemModificationType classifies rows of the order item modification ledger.
type ItemModificationType string

const (
	ItemModQuantityChange  ItemModificationType = "quantity_change"
	ItemModPriceChange     ItemModificationType = "price_change"
	ItemModDiscountApplied ItemModificationType = "discount_applied"
	ItemModStatusChange    ItemModificationType = "status_change"
)
