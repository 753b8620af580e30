package cart

import (
	cartdto "github.com/angelmondragon/shoptab-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
)

func newCart(record *models.Cart) cartdto.Cart {
	items := make([]cartdto.CartItem, 0, len(record.Items))
	for _, item := range record.Items {
		line := cartdto.CartItem{
			ID:                item.ID,
			ProductID:         item.ProductID,
			ProductName:       item.ProductName,
			ProductImage:      item.ProductImage,
			ProductSKU:        item.ProductSKU,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			DiscountAmount:    item.DiscountAmount,
			Subtotal:          item.Subtotal,
			IsAvailable:       item.IsAvailable,
			UnavailableReason: item.UnavailableReason,
			Notes:             item.Notes,
		}
		if item.UnitDiscountPrice.Valid {
			price := item.UnitDiscountPrice.Decimal
			line.UnitDiscountPrice = &price
		}
		items = append(items, line)
	}

	return cartdto.Cart{
		ID:             record.ID,
		UserID:         record.UserID,
		ShopID:         record.ShopID,
		Status:         record.Status,
		Subtotal:       record.Subtotal,
		TotalDiscount:  record.TotalDiscount,
		DeliveryFee:    record.DeliveryFee,
		Tax:            record.Tax,
		Total:          record.Total,
		TotalItems:     record.TotalItems,
		TotalQuantity:  record.TotalQuantity,
		Notes:          record.Notes,
		LastActivityAt: record.LastActivityAt,
		Items:          items,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

func newCarts(records []models.Cart) []cartdto.Cart {
	out := make([]cartdto.Cart, 0, len(records))
	for i := range records {
		out = append(out, newCart(&records[i]))
	}
	return out
}
