package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/internal/authz"
	"github.com/angelmondragon/shoptab-backend/internal/cart"
	"github.com/angelmondragon/shoptab-backend/internal/catalog"
	"github.com/angelmondragon/shoptab-backend/internal/credit"
	dbpkg "github.com/angelmondragon/shoptab-backend/pkg/db"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
	"github.com/angelmondragon/shoptab-backend/pkg/metrics"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox"
)

type txRunner interface {
	WithRetry(ctx context.Context, opts dbpkg.RetryOptions, fn func(tx *gorm.DB) error) error
}

// Service exposes order placement, lifecycle and seller amendments.
type Service interface {
	CreateFromCart(ctx context.Context, actor authz.Actor, input CreateOrderInput) (*models.Order, error)
	List(ctx context.Context, actor authz.Actor, filters ListFilters) (*ListResult, error)
	Get(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*OrderDetail, error)
	Summary(ctx context.Context, actor authz.Actor, shopID uuid.UUID) (*Summary, error)
	UpdateStatus(ctx context.Context, actor authz.Actor, orderID uuid.UUID, input UpdateStatusInput) (*models.Order, error)
	Cancel(ctx context.Context, actor authz.Actor, orderID uuid.UUID, reason string) (*models.Order, error)
	Refund(ctx context.Context, actor authz.Actor, orderID uuid.UUID, notes string) (*models.Order, error)
	UpdatePaymentMethod(ctx context.Context, actor authz.Actor, orderID uuid.UUID, input PaymentMethodInput) (*models.Order, error)
	AddItem(ctx context.Context, actor authz.Actor, orderID uuid.UUID, input AddItemInput) (*models.Order, error)
	UpdateItem(ctx context.Context, actor authz.Actor, orderID, itemID uuid.UUID, input UpdateItemInput) (*models.Order, error)
	UpdateFees(ctx context.Context, actor authz.Actor, orderID uuid.UUID, input UpdateFeesInput) (*models.Order, error)
}

// ServiceParams wires the orders service.
type ServiceParams struct {
	Repo    Repository
	Carts   cart.Repository
	Catalog catalog.Reader
	Credit  credit.Service
	DB      txRunner
	Outbox  outbox.Emitter
	Logger  *logger.Logger
	Metrics *metrics.CommerceMetrics
	Retry   dbpkg.RetryOptions
}

// numberFunc proposes the next order number for prefix.
type numberFunc func(ctx context.Context, repo Repository, prefix string) (string, error)

type service struct {
	repo       Repository
	carts      cart.Repository
	catalog    catalog.Reader
	credit     credit.Service
	db         txRunner
	outbox     outbox.Emitter
	logg       *logger.Logger
	metrics    *metrics.CommerceMetrics
	retry      dbpkg.RetryOptions
	now        func() time.Time
	nextNumber numberFunc
}

// NewService validates dependencies and returns the orders service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if params.Credit == nil {
		return nil, fmt.Errorf("credit service required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:       params.Repo,
		carts:      params.Carts,
		catalog:    params.Catalog,
		credit:     params.Credit,
		db:         params.DB,
		outbox:     params.Outbox,
		logg:       logg,
		metrics:    params.Metrics,
		retry:      params.Retry,
		now:        func() time.Time { return time.Now().UTC() },
		nextNumber: sequentialNumber,
	}, nil
}

// lockOrder loads the order under a row lock and checks the actor may manage
// it as the shop.
func (s *service) lockOrder(ctx context.Context, repo Repository, actor authz.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindForUpdate(ctx, orderID)
	if err != nil {
		return nil, orderLoadError(err)
	}
	if err := authz.CanActForShop(actor, order.ShopID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) reload(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, orderLoadError(err)
	}
	return order, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, actor authz.Actor, eventType enums.OutboxEventType, orderID uuid.UUID, data any) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         actor.Ref(),
		Data:          data,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit outbox event")
	}
	return nil
}

func (s *service) logContext(ctx context.Context, actor authz.Actor, order *models.Order) context.Context {
	ctx = s.logg.WithUserID(ctx, actor.UserID.String())
	ctx = s.logg.WithActorRole(ctx, actor.Role.String())
	ctx = s.logg.WithShopID(ctx, order.ShopID.String())
	return s.logg.WithFields(ctx, map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
	})
}

func orderLoadError(err error) error {
	if dbpkg.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func stringPtr(value string) *string {
	return &value
}
