package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shoptab-backend/internal/repo"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	"github.com/angelmondragon/shoptab-backend/pkg/pagination"
)

// Repository persists orders, their lines and the append-only audit ledgers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LastNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	Save(ctx context.Context, order *models.Order) error

	FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error)
	CreateItem(ctx context.Context, item *models.OrderItem) error
	SaveItem(ctx context.Context, item *models.OrderItem) error
	ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)

	AppendStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error
	AppendModification(ctx context.Context, mod *models.OrderModification) error
	AppendItemModification(ctx context.Context, mod *models.OrderItemModification) error
	StatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error)
	Modifications(ctx context.Context, orderID uuid.UUID) ([]models.OrderModification, error)
	ItemModifications(ctx context.Context, orderID uuid.UUID) ([]models.OrderItemModification, error)

	List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error)
	CountByStatus(ctx context.Context, shopID uuid.UUID) (map[enums.OrderStatus]int64, error)
	DeliveredTotals(ctx context.Context, shopID uuid.UUID) ([]decimal.Decimal, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns an orders repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

type listOrdersParams struct {
	ShopID        *uuid.UUID
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentMethod *enums.PaymentMethod
	PaymentStatus *enums.PaymentStatus
	OrderType     *enums.OrderType
	From          *time.Time
	To            *time.Time
	Limit         int
	Cursor        *pagination.Cursor
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.base.DB(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.base.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUpdate locks the order row for the rest of the transaction. Items
// are loaded separately so the lock stays on the parent row.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.base.Locked(ctx).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return &order, nil
}

// LastNumberWithPrefix returns the highest order number sharing prefix, or
// "" when none exists yet.
func (r *repository) LastNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	if err := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error; err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.base.DB(ctx).Omit(clause.Associations).Save(order).Error
}

func (r *repository) FindItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.base.DB(ctx).
		Where("id = ? AND order_id = ?", itemID, orderID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.base.DB(ctx).Create(item).Error
}

func (r *repository) SaveItem(ctx context.Context, item *models.OrderItem) error {
	return r.base.DB(ctx).Save(item).Error
}

func (r *repository) ListItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// The ledgers number their rows per parent. Callers hold the order row lock,
// so MAX(seq)+1 cannot race; the unique (parent, seq) index backs that up.

func (r *repository) AppendStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error {
	seq, err := r.nextSeq(ctx, &models.OrderStatusEvent{}, "order_id", event.OrderID)
	if err != nil {
		return err
	}
	event.Seq = seq
	return r.base.DB(ctx).Create(event).Error
}

func (r *repository) AppendModification(ctx context.Context, mod *models.OrderModification) error {
	seq, err := r.nextSeq(ctx, &models.OrderModification{}, "order_id", mod.OrderID)
	if err != nil {
		return err
	}
	mod.Seq = seq
	return r.base.DB(ctx).Create(mod).Error
}

func (r *repository) AppendItemModification(ctx context.Context, mod *models.OrderItemModification) error {
	seq, err := r.nextSeq(ctx, &models.OrderItemModification{}, "order_item_id", mod.OrderItemID)
	if err != nil {
		return err
	}
	mod.Seq = seq
	return r.base.DB(ctx).Create(mod).Error
}

func (r *repository) nextSeq(ctx context.Context, model any, column string, parentID uuid.UUID) (int, error) {
	var current int
	if err := r.base.DB(ctx).
		Model(model).
		Select("COALESCE(MAX(seq), 0)").
		Where(column+" = ?", parentID).
		Scan(&current).Error; err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *repository) StatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error) {
	var events []models.OrderStatusEvent
	if err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("seq ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) Modifications(ctx context.Context, orderID uuid.UUID) ([]models.OrderModification, error) {
	var mods []models.OrderModification
	if err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("seq ASC").
		Find(&mods).Error; err != nil {
		return nil, err
	}
	return mods, nil
}

func (r *repository) ItemModifications(ctx context.Context, orderID uuid.UUID) ([]models.OrderItemModification, error) {
	var mods []models.OrderItemModification
	if err := r.base.DB(ctx).
		Where("order_id = ?", orderID).
		Order("order_item_id ASC, seq ASC").
		Find(&mods).Error; err != nil {
		return nil, err
	}
	return mods, nil
}

func (r *repository) List(ctx context.Context, params listOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	query := r.base.DB(ctx).Model(&models.Order{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") })
	if params.ShopID != nil {
		query = query.Where("shop_id = ?", *params.ShopID)
	}
	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *params.PaymentMethod)
	}
	if params.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *params.PaymentStatus)
	}
	if params.OrderType != nil {
		query = query.Where("order_type = ?", *params.OrderType)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at < ?", *params.To)
	}

	var orders []models.Order
	if err := pagination.Seek(query, params.Cursor, params.Limit).Find(&orders).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Split(orders, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, next, nil
}

func (r *repository) CountByStatus(ctx context.Context, shopID uuid.UUID) (map[enums.OrderStatus]int64, error) {
	var rows []struct {
		Status enums.OrderStatus
		Count  int64
	}
	if err := r.base.DB(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("shop_id = ?", shopID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// DeliveredTotals returns the total of every delivered order; money is
// summed by the caller so precision does not depend on the driver.
func (r *repository) DeliveredTotals(ctx context.Context, shopID uuid.UUID) ([]decimal.Decimal, error) {
	var totals []decimal.Decimal
	if err := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("shop_id = ? AND status = ?", shopID, enums.OrderStatusDelivered).
		Pluck("total", &totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}
