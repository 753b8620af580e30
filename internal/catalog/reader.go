// Package catalog reads product and shop snapshots owned by the catalog
// service. Nothing here writes to those tables.
package catalog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
)

// ProductSnapshot is the product data copied into carts and orders.
type ProductSnapshot struct {
	ID             uuid.UUID
	ShopID         uuid.UUID
	Name           string
	Image          *string
	SKU            *string
	Specifications json.RawMessage
	SalePrice      decimal.Decimal
	DiscountPrice  decimal.NullDecimal
	HasStock       bool
	Active         bool
	Deleted        bool
}

// FinalPrice is the discounted price when one is set, else the sale price.
func (p ProductSnapshot) FinalPrice() decimal.Decimal {
	if p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.SalePrice
}

// Sellable reports whether the product can be added to a cart at all.
func (p ProductSnapshot) Sellable() bool {
	return p.Active && !p.Deleted
}

// ShopPolicy carries the shop settings that drive checkout rules.
type ShopPolicy struct {
	ID                   uuid.UUID
	OwnerUserID          uuid.UUID
	Name                 string
	IsDeliveryAvailable  bool
	HasStockAvailability bool
	DeliveryFee          decimal.Decimal
	IsActive             bool
}

// Reader is the read-only catalog surface consumed by carts and orders.
type Reader interface {
	WithTx(tx *gorm.DB) Reader
	GetProduct(ctx context.Context, id uuid.UUID) (ProductSnapshot, error)
	GetShop(ctx context.Context, id uuid.UUID) (ShopPolicy, error)
}

type reader struct {
	db *gorm.DB
}

// NewReader returns a Reader over the shops and products tables.
func NewReader(db *gorm.DB) Reader {
	return &reader{db: db}
}

func (r *reader) WithTx(tx *gorm.DB) Reader {
	if tx == nil {
		return r
	}
	return &reader{db: tx}
}

// GetProduct includes soft-deleted rows so callers can tell a retired
// product apart from one that never existed.
func (r *reader) GetProduct(ctx context.Context, id uuid.UUID) (ProductSnapshot, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductSnapshot{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return ProductSnapshot{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return ProductSnapshot{
		ID:             product.ID,
		ShopID:         product.ShopID,
		Name:           product.ProductName,
		Image:          product.Image,
		SKU:            product.SKU,
		Specifications: product.Specifications,
		SalePrice:      product.SalePrice,
		DiscountPrice:  product.DiscountPrice,
		HasStock:       product.HasStock,
		Active:         product.Status == enums.ProductStatusActive,
		Deleted:        product.DeletedAt.Valid,
	}, nil
}

func (r *reader) GetShop(ctx context.Context, id uuid.UUID) (ShopPolicy, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&shop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ShopPolicy{}, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return ShopPolicy{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}
	return ShopPolicy{
		ID:                   shop.ID,
		OwnerUserID:          shop.OwnerUserID,
		Name:                 shop.ShopName,
		IsDeliveryAvailable:  shop.IsDeliveryAvailable,
		HasStockAvailability: shop.HasStockAvailability,
		DeliveryFee:          shop.DeliveryFee,
		IsActive:             shop.IsActive,
	}, nil
}
