package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/internal/repo"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

// Repository persists carts and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindActive(ctx context.Context, userID, shopID uuid.UUID) (*models.Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	SaveAggregates(ctx context.Context, cart *models.Cart) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CartStatus) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)

	ListByUser(ctx context.Context, userID uuid.UUID, filters ListFilters) ([]models.Cart, error)
	Stats(ctx context.Context, userID uuid.UUID) (*Stats, error)
	AbandonIdle(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a cart repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) FindActive(ctx context.Context, userID, shopID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.base.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("user_id = ? AND shop_id = ? AND status = ?", userID, shopID, enums.CartStatusActive).
		First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.base.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.base.DB(ctx).Omit("Items").Create(cart).Error
}

// SaveAggregates writes the derived columns and activity stamp.
func (r *repository) SaveAggregates(ctx context.Context, cart *models.Cart) error {
	return r.base.DB(ctx).Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"subtotal":         cart.Subtotal,
			"total_discount":   cart.TotalDiscount,
			"delivery_fee":     cart.DeliveryFee,
			"tax":              cart.Tax,
			"total":            cart.Total,
			"total_items":      cart.TotalItems,
			"total_quantity":   cart.TotalQuantity,
			"notes":            cart.Notes,
			"last_activity_at": cart.LastActivityAt,
		}).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CartStatus) error {
	return r.base.DB(ctx).Model(&models.Cart{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "last_activity_at": time.Now().UTC()}).Error
}

// Delete removes the cart and its items.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.base.DB(ctx)
	if err := db.Where("cart_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Cart{}).Error
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.base.DB(ctx).Where("id = ?", itemID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.base.DB(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.base.DB(ctx).Create(item).Error
}

func (r *repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.base.DB(ctx).Save(item).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.base.DB(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

func (r *repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.base.DB(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

func (r *repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.base.DB(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, filters ListFilters) ([]models.Cart, error) {
	q := r.base.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("user_id = ?", userID)
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if filters.ShopID != nil {
		q = q.Where("shop_id = ?", *filters.ShopID)
	}
	if !filters.IncludeEmpty {
		q = q.Where("total_items > 0")
	}

	var carts []models.Cart
	if err := q.Order("last_activity_at DESC").Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

type statusCount struct {
	Status enums.CartStatus
	Count  int64
	Items  int64
}

func (r *repository) Stats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	var rows []statusCount
	if err := r.base.DB(ctx).Model(&models.Cart{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_items), 0) AS items").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	var activeTotals []decimal.Decimal
	if err := r.base.DB(ctx).Model(&models.Cart{}).
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive).
		Pluck("total", &activeTotals).Error; err != nil {
		return nil, err
	}

	stats := &Stats{ByStatus: map[enums.CartStatus]int64{}, TotalValue: decimal.Zero}
	for _, row := range rows {
		stats.TotalCarts += row.Count
		stats.TotalItems += row.Items
		stats.ByStatus[row.Status] = row.Count
		switch row.Status {
		case enums.CartStatusActive:
			stats.ActiveCarts = row.Count
		case enums.CartStatusAbandoned:
			stats.AbandonedCarts = row.Count
		case enums.CartStatusCheckedOut:
			stats.CheckedOutCarts = row.Count
		}
	}
	for _, total := range activeTotals {
		stats.TotalValue = stats.TotalValue.Add(total)
	}
	return stats, nil
}

// AbandonIdle marks active carts untouched since cutoff as abandoned.
func (r *repository) AbandonIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.base.DB(ctx).Model(&models.Cart{}).
		Where("status = ? AND last_activity_at < ?", enums.CartStatusActive, cutoff).
		Update("status", enums.CartStatusAbandoned)
	return res.RowsAffected, res.Error
}
