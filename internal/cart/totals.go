package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/internal/catalog"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
)

// Recalculate derives every cart aggregate from items and stamps activity.
// total = max(0, subtotal - discount + deliveryFee + tax); line subtotals are
// already at final price, so the discount term here is zero.
func Recalculate(cart *models.Cart, items []models.CartItem, now time.Time) {
	subtotal := decimal.Zero
	savings := decimal.Zero
	quantity := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal)
		savings = savings.Add(item.DiscountAmount)
		quantity = quantity.Add(item.Quantity)
	}

	cart.Items = items
	cart.Subtotal = subtotal
	cart.TotalDiscount = savings
	cart.TotalItems = len(items)
	cart.TotalQuantity = quantity
	cart.Total = Total(subtotal, decimal.Zero, cart.DeliveryFee, cart.Tax)
	cart.LastActivityAt = now
}

// Total applies the cart total formula.
func Total(subtotal, discount, deliveryFee, tax decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount).Add(deliveryFee).Add(tax)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// applySnapshot copies the product's current data into item and reprices it.
func applySnapshot(item *models.CartItem, product catalog.ProductSnapshot) {
	item.ProductName = product.Name
	item.ProductImage = product.Image
	item.ProductSKU = product.SKU
	item.ProductSpecs = product.Specifications
	item.UnitPrice = product.SalePrice
	item.UnitDiscountPrice = product.DiscountPrice

	switch {
	case !product.HasStock:
		item.IsAvailable = false
		item.UnavailableReason = stringPtr(reasonOutOfStock)
	case !product.Sellable():
		item.IsAvailable = false
		item.UnavailableReason = stringPtr(reasonNotAvailable)
	default:
		item.IsAvailable = true
		item.UnavailableReason = nil
	}
	reprice(item)
}

func markGone(item *models.CartItem) {
	item.IsAvailable = false
	item.UnavailableReason = stringPtr(reasonNoLongerExists)
}

func reprice(item *models.CartItem) {
	final := item.FinalUnitPrice()
	item.Subtotal = final.Mul(item.Quantity).Round(2)
	if item.UnitDiscountPrice.Valid {
		item.DiscountAmount = item.UnitPrice.Sub(final).Mul(item.Quantity).Round(2)
	} else {
		item.DiscountAmount = decimal.Zero
	}
}

func stringPtr(value string) *string {
	return &value
}
