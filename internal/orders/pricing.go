package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
)

// Totals is the pricing of an order derived from its counted lines and fees.
type Totals struct {
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	TotalItems    int
	TotalQuantity decimal.Decimal
}

// Price computes order totals. Unavailable and removed lines are skipped.
//
//	subtotal = Σ qty × unitPrice
//	discount = Σ qty × (unitPrice − finalUnitPrice) + orderDiscount
//	total    = subtotal − discount + extraCharges + deliveryFee + tax
func Price(items []models.OrderItem, orderDiscount, extraCharges, deliveryFee, tax decimal.Decimal) Totals {
	totals := Totals{
		Subtotal:      decimal.Zero,
		Discount:      decimal.Zero,
		TotalQuantity: decimal.Zero,
	}
	for _, item := range items {
		if !item.Status.CountsTowardTotal() {
			continue
		}
		totals.Subtotal = totals.Subtotal.Add(item.Quantity.Mul(item.UnitPrice))
		totals.Discount = totals.Discount.Add(item.Quantity.Mul(item.UnitPrice.Sub(item.FinalUnitPrice())))
		totals.TotalItems++
		totals.TotalQuantity = totals.TotalQuantity.Add(item.Quantity)
	}
	totals.Subtotal = totals.Subtotal.Round(2)
	totals.Discount = totals.Discount.Add(orderDiscount).Round(2)
	totals.Total = totals.Subtotal.Sub(totals.Discount).Add(extraCharges).Add(deliveryFee).Add(tax).Round(2)
	return totals
}

// reprice recomputes the order aggregates from items and the order's fees.
func reprice(order *models.Order, items []models.OrderItem) {
	totals := Price(items, order.OrderDiscount, order.ExtraCharges, order.DeliveryFee, order.Tax)
	order.Subtotal = totals.Subtotal
	order.DiscountAmount = totals.Discount
	order.Total = totals.Total
	order.TotalItems = totals.TotalItems
	order.TotalQuantity = totals.TotalQuantity
}

// priceLine refreshes a line's stored subtotal and savings.
func priceLine(item *models.OrderItem) {
	final := item.FinalUnitPrice()
	item.Subtotal = final.Mul(item.Quantity).Round(2)
	item.ItemDiscountAmount = item.UnitPrice.Sub(final).Mul(item.Quantity).Round(2)
}
