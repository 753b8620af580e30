package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/internal/authz"
	"github.com/angelmondragon/shoptab-backend/internal/catalog"
	dbpkg "github.com/angelmondragon/shoptab-backend/pkg/db"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages a customer's per-shop carts.
type Service interface {
	AddItem(ctx context.Context, actor authz.Actor, input AddItemInput) (*models.Cart, error)
	UpdateItem(ctx context.Context, actor authz.Actor, itemID uuid.UUID, input UpdateItemInput) (*models.Cart, error)
	RemoveItem(ctx context.Context, actor authz.Actor, itemID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, actor authz.Actor, cartID uuid.UUID) (*models.Cart, error)
	Refresh(ctx context.Context, actor authz.Actor, cartID uuid.UUID) (*models.Cart, error)
	UpdateCart(ctx context.Context, actor authz.Actor, cartID uuid.UUID, input UpdateCartInput) (*models.Cart, error)
	Abandon(ctx context.Context, actor authz.Actor, cartID uuid.UUID) (*models.Cart, error)
	Get(ctx context.Context, actor authz.Actor, cartID uuid.UUID) (*models.Cart, error)
	GetByShop(ctx context.Context, actor authz.Actor, shopID uuid.UUID) (*models.Cart, error)
	List(ctx context.Context, actor authz.Actor, filters ListFilters) ([]models.Cart, error)
	Stats(ctx context.Context, actor authz.Actor) (*Stats, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog catalog.Reader
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, reader catalog.Reader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if reader == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    repo,
		tx:      tx,
		catalog: reader,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) AddItem(ctx context.Context, actor authz.Actor, input AddItemInput) (*models.Cart, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if input.ShopID == uuid.Nil || input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop and product are required")
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reader := s.catalog.WithTx(tx)

		shop, err := reader.GetShop(ctx, input.ShopID)
		if err != nil {
			return err
		}
		if !shop.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "shop is not accepting orders")
		}
		product, err := reader.GetProduct(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product.ShopID != shop.ID {
			return pkgerrors.New(pkgerrors.CodeValidation, "product does not belong to the specified shop")
		}
		if !product.Sellable() {
			return pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
		}
		if err := enforceStock(shop, product); err != nil {
			return err
		}

		cart, err := s.activeCart(ctx, repo, actor.UserID, shop.ID, input.SessionID)
		if err != nil {
			return err
		}
		cartID = cart.ID

		item, err := repo.FindItemByProduct(ctx, cart.ID, product.ID)
		switch {
		case err == nil:
			item.Quantity = item.Quantity.Add(input.Quantity)
			if err := validateQuantity(item.Quantity); err != nil {
				return err
			}
			if input.Notes != nil {
				item.Notes = trimmedOrNil(input.Notes)
			}
			applySnapshot(item, product)
			if err := repo.SaveItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
			}
		case dbpkg.IsNotFound(err):
			item = &models.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				Quantity:  input.Quantity,
				Notes:     trimmedOrNil(input.Notes),
			}
			applySnapshot(item, product)
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		return s.recompute(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, cartID)
}

// activeCart returns the (user, shop) active cart, creating it on first use.
// A concurrent create loses on the partial unique index and re-reads.
func (s *service) activeCart(ctx context.Context, repo Repository, userID, shopID uuid.UUID, sessionID *string) (*models.Cart, error) {
	cart, err := repo.FindActive(ctx, userID, shopID)
	if err == nil {
		return cart, nil
	}
	if !dbpkg.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}

	cart = &models.Cart{
		UserID:         userID,
		ShopID:         shopID,
		Status:         enums.CartStatusActive,
		Subtotal:       decimal.Zero,
		TotalDiscount:  decimal.Zero,
		DeliveryFee:    decimal.Zero,
		Tax:            decimal.Zero,
		Total:          decimal.Zero,
		TotalQuantity:  decimal.Zero,
		SessionID:      trimmedOrNil(sessionID),
		LastActivityAt: s.now(),
	}
	if err := repo.Create(ctx, cart); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_carts_user_shop_active", "carts") {
			existing, findErr := repo.FindActive(ctx, userID, shopID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load active cart")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"cart_id": cart.ID.String(),
		"shop_id": shopID.String(),
		"user_id": userID.String(),
	})
	s.logg.Info(logCtx, "cart created")
	return cart, nil
}

func (s *service) UpdateItem(ctx context.Context, actor authz.Actor, itemID uuid.UUID, input UpdateItemInput) (*models.Cart, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	return s.mutateItem(ctx, actor, itemID, func(repo Repository, reader catalog.Reader, cart *models.Cart, item *models.CartItem) error {
		shop, err := reader.GetShop(ctx, cart.ShopID)
		if err != nil {
			return err
		}
		item.Quantity = input.Quantity
		if input.Notes != nil {
			item.Notes = trimmedOrNil(input.Notes)
		}

		product, err := reader.GetProduct(ctx, item.ProductID)
		switch {
		case err == nil:
			if err := enforceStock(shop, product); err != nil {
				return err
			}
			applySnapshot(item, product)
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			markGone(item)
			reprice(item)
		default:
			return err
		}

		if err := repo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, actor authz.Actor, itemID uuid.UUID) (*models.Cart, error) {
	return s.mutateItem(ctx, actor, itemID, func(repo Repository, _ catalog.Reader, _ *models.Cart, item *models.CartItem) error {
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		return nil
	})
}

type itemMutation func(repo Repository, reader catalog.Reader, cart *models.Cart, item *models.CartItem) error

func (s *service) mutateItem(ctx context.Context, actor authz.Actor, itemID uuid.UUID, fn itemMutation) (*models.Cart, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	var cartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, itemID)
		if err != nil {
			return loadError(err, "cart item not found")
		}
		cart, err := s.ownedActive(ctx, repo, actor, item.CartID)
		if err != nil {
			return err
		}
		cartID = cart.ID
		if err := fn(repo, s.catalog.WithTx(tx), cart, item); err != nil {
			return err
		}
		return s.recompute(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, cartID)
}

func (s *service) Clear(ctx context.Context, actor authz.Actor, cartID uuid.UUID) (*models.Cart, error) {
	return s.mutateCart(ctx, actor, cartID, func(repo Repository, _ catalog.Reader, cart *models.Cart) error {
		if err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		return nil
	})
}

// Refresh re-reads every product and flags items that can no longer be sold.
// Flagged items stay in the cart.
func (s *service) Refresh(ctx context.Context, actor authz.Actor, cartID uuid.UUID) (*models.Cart, error) {
	return s.mutateCart(ctx, actor, cartID, func(repo Repository, reader catalog.Reader, cart *models.Cart) error {
		shop, err := reader.GetShop(ctx, cart.ShopID)
		if err != nil {
			return err
		}
		items, err := repo.ListItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
		}
		for i := range items {
			item := &items[i]
			product, err := reader.GetProduct(ctx, item.ProductID)
			switch {
			case err == nil && product.ShopID == shop.ID:
				applySnapshot(item, product)
				if product.Deleted {
					markGone(item)
				}
			case err == nil || pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
				markGone(item)
				reprice(item)
			default:
				return err
			}
			if err := repo.SaveItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh cart item")
			}
		}
		return nil
	})
}

func (s *service) UpdateCart(ctx context.Context, actor authz.Actor, cartID uuid.UUID, input UpdateCartInput) (*models.Cart, error) {
	for _, fee := range []*decimal.Decimal{input.DeliveryFee, input.Tax} {
		if fee != nil && fee.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fees cannot be negative")
		}
	}
	return s.mutateCart(ctx, actor, cartID, func(_ Repository, _ catalog.Reader, cart *models.Cart) error {
		if input.Notes != nil {
			cart.Notes = trimmedOrNil(input.Notes)
		}
		if input.DeliveryFee != nil {
			cart.DeliveryFee = input.DeliveryFee.Round(2)
		}
		if input.Tax != nil {
			cart.Tax = input.Tax.Round(2)
		}
		return nil
	})
}

type cartMutation func(repo Repository, reader catalog.Reader, cart *models.Cart) error

func (s *service) mutateCart(ctx context.Context, actor authz.Actor, cartID uuid.UUID, fn cartMutation) (*models.Cart, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.ownedActive(ctx, repo, actor, cartID)
		if err != nil {
			return err
		}
		if err := fn(repo, s.catalog.WithTx(tx), cart); err != nil {
			return err
		}
		return s.recompute(ctx, repo, cart)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, cartID)
}

func (s *service) Abandon(ctx context.Context, actor authz.Actor, cartID uuid.UUID) (*models.Cart, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.ownedActive(ctx, repo, actor, cartID)
		if err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, cart.ID, enums.CartStatusAbandoned); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "abandon cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, cartID)
}

func (s *service) Get(ctx context.Context, actor authz.Actor, cartID uuid.UUID) (*models.Cart, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, loadError(err, "cart not found")
	}
	if cart.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you can only access your own cart")
	}
	return cart, nil
}

func (s *service) GetByShop(ctx context.Context, actor authz.Actor, shopID uuid.UUID) (*models.Cart, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	cart, err := s.repo.FindActive(ctx, actor.UserID, shopID)
	if err != nil {
		return nil, loadError(err, "no active cart for this shop")
	}
	return cart, nil
}

func (s *service) List(ctx context.Context, actor authz.Actor, filters ListFilters) ([]models.Cart, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cart status")
	}
	carts, err := s.repo.ListByUser(ctx, actor.UserID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list carts")
	}
	return carts, nil
}

func (s *service) Stats(ctx context.Context, actor authz.Actor) (*Stats, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, actor.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart stats")
	}
	return stats, nil
}

func (s *service) ownedActive(ctx context.Context, repo Repository, actor authz.Actor, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, loadError(err, "cart not found")
	}
	if cart.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you can only modify your own cart")
	}
	if cart.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active").WithDetails(map[string]any{
			"status": cart.Status,
		})
	}
	return cart, nil
}

func (s *service) recompute(ctx context.Context, repo Repository, cart *models.Cart) error {
	items, err := repo.ListItems(ctx, cart.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	Recalculate(cart, items, s.now())
	if err := repo.SaveAggregates(ctx, cart); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart totals")
	}
	return nil
}

func (s *service) load(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, loadError(err, "cart not found")
	}
	return cart, nil
}

// enforceStock hard-fails out-of-stock products when the shop requires stock.
func enforceStock(shop catalog.ShopPolicy, product catalog.ProductSnapshot) error {
	if shop.HasStockAvailability && !product.HasStock {
		return pkgerrors.New(pkgerrors.CodeValidation, "this item is currently out of stock and cannot be added to cart").WithDetails(map[string]any{
			"product_id": product.ID,
		})
	}
	return nil
}

func validateQuantity(qty decimal.Decimal) error {
	if qty.LessThan(minQuantity) || qty.GreaterThan(maxQuantity) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be between %s and %s", minQuantity.StringFixed(2), maxQuantity.StringFixed(2))
	}
	if !qty.Equal(qty.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity supports at most two decimal places")
	}
	return nil
}

func loadError(err error, notFound string) error {
	if dbpkg.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
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
