package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// SeedShop inserts an active pickup-and-delivery shop; mutate adjusts it first.
func SeedShop(t testing.TB, db *gorm.DB, mutate func(*models.Shop)) models.Shop {
	t.Helper()
	shop := models.Shop{
		ID:                  uuid.New(),
		OwnerUserID:         uuid.New(),
		ShopName:            "Corner Store",
		IsDeliveryAvailable: true,
		DeliveryFee:         decimal.RequireFromString("5.00"),
		IsActive:            true,
	}
	if mutate != nil {
		mutate(&shop)
	}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	return shop
}

// SeedProduct inserts an active, in-stock product for shopID at price.
func SeedProduct(t testing.TB, db *gorm.DB, shopID uuid.UUID, price string, mutate func(*models.Product)) models.Product {
	t.Helper()
	product := models.Product{
		ID:          uuid.New(),
		ShopID:      shopID,
		ProductName: "Product " + uuid.NewString()[:8],
		SalePrice:   decimal.RequireFromString(price),
		HasStock:    true,
		Status:      enums.ProductStatusActive,
	}
	if mutate != nil {
		mutate(&product)
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// SeedOrder inserts a placed cash pickup order at shopID totalling total.
func SeedOrder(t testing.TB, db *gorm.DB, shopID uuid.UUID, total string, mutate func(*models.Order)) models.Order {
	t.Helper()
	amount := decimal.RequireFromString(total)
	order := models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD" + uuid.NewString()[:10],
		UserID:        uuid.New(),
		ShopID:        shopID,
		Status:        enums.OrderStatusPlaced,
		OrderType:     enums.OrderTypeShopPickup,
		Subtotal:      amount,
		Total:         amount,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodCashOnPickup,
		TotalItems:    1,
		TotalQuantity: decimal.NewFromInt(1),
	}
	if mutate != nil {
		mutate(&order)
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}
