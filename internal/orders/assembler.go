package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/internal/authz"
	"github.com/angelmondragon/shoptab-backend/internal/catalog"
	"github.com/angelmondragon/shoptab-backend/internal/credit"
	"github.com/angelmondragon/shoptab-backend/pkg/checkout"
	dbpkg "github.com/angelmondragon/shoptab-backend/pkg/db"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/payloads"
)

const orderNumberSavepoint = "order_number"

// CreateFromCart turns the caller's active cart into an order in one
// transaction. Credit orders are posted to the shop tab before commit, and
// any ledger failure aborts the order.
func (s *service) CreateFromCart(ctx context.Context, actor authz.Actor, input CreateOrderInput) (*models.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if input.CartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = enums.PaymentMethodCashOnDelivery
	}
	input.CustomerPhone = strings.TrimSpace(input.CustomerPhone)
	if err := checkout.ValidatePayment(input.PaymentMethod, input.CustomerPhone); err != nil {
		return nil, err
	}

	var orderID uuid.UUID
	err := s.db.WithRetry(ctx, s.retry, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		carts := s.carts.WithTx(tx)
		reader := s.catalog.WithTx(tx)

		source, err := carts.FindByID(ctx, input.CartID)
		if err != nil {
			if dbpkg.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if !actor.IsOwner(source.UserID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another user")
		}
		if source.Status != enums.CartStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is not active").WithDetails(map[string]any{
				"status": source.Status,
			})
		}
		if len(source.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		shop, err := reader.GetShop(ctx, source.ShopID)
		if err != nil {
			return err
		}
		if !shop.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "shop is not accepting orders")
		}
		if err := checkout.ValidateFulfillment(fulfillmentInput(input, shop)); err != nil {
			return err
		}
		if shop.HasStockAvailability {
			if err := checkout.ValidateAvailability(availabilityInput(source.Items)); err != nil {
				return err
			}
		}

		order := s.assemble(actor, input, source, shop)
		if err := s.insertWithNumber(ctx, tx, repo, order); err != nil {
			return err
		}
		orderID = order.ID

		items := orderItemsFromCart(order.ID, source.Items)
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		if err := repo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
			OrderID:     order.ID,
			ToStatus:    enums.OrderStatusPlaced,
			ActorUserID: actor.UserID,
			ActorRole:   actor.Role,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status event")
		}

		if order.PaymentMethod == enums.PaymentMethodCredit {
			if err := s.settleOnCredit(ctx, tx, repo, actor, order, len(items)); err != nil {
				return err
			}
		}

		if err := carts.Delete(ctx, source.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
		}

		return s.emit(ctx, tx, actor, enums.EventOrderCreated, order.ID, payloads.OrderCreatedEvent{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			ShopID:          order.ShopID,
			ShopOwnerUserID: shop.OwnerUserID,
			CustomerUserID:  order.UserID,
			OrderType:       order.OrderType,
			PaymentMethod:   order.PaymentMethod,
			ItemCount:       len(items),
			Total:           order.Total,
		})
	})
	if err != nil {
		return nil, err
	}

	order, err := s.reload(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderPlaced(string(order.OrderType), string(order.PaymentMethod))
	s.logg.Info(s.logContext(ctx, actor, order), "order placed")
	return order, nil
}

func (s *service) assemble(actor authz.Actor, input CreateOrderInput, source *models.Cart, shop catalog.ShopPolicy) *models.Order {
	cartID := source.ID
	order := &models.Order{
		UserID:        actor.UserID,
		ShopID:        source.ShopID,
		CartID:        &cartID,
		Status:        enums.OrderStatusPlaced,
		OrderType:     input.OrderType,
		OrderDiscount: decimal.Zero,
		ExtraCharges:  decimal.Zero,
		DeliveryFee:   decimal.Zero,
		Tax:           source.Tax,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: input.PaymentMethod,
		CustomerNotes: trimmedOrNil(input.CustomerNotes),
	}
	if input.CustomerPhone != "" {
		order.CustomerPhone = stringPtr(input.CustomerPhone)
	}

	switch input.OrderType {
	case enums.OrderTypeHomeDelivery:
		order.DeliveryFee = shop.DeliveryFee
		delivery := input.Delivery
		order.DeliveryAddress = trimmedOrNil(&delivery.Address)
		order.DeliveryLandmark = trimmedOrNil(delivery.Landmark)
		order.DeliveryPincode = trimmedOrNil(delivery.Pincode)
		order.DeliveryCity = trimmedOrNil(delivery.City)
		order.DeliveryState = trimmedOrNil(delivery.State)
		order.DeliveryContactNumber = trimmedOrNil(&delivery.ContactNumber)
		order.DeliveryNotes = trimmedOrNil(delivery.Notes)
	case enums.OrderTypeShopPickup:
		if pickup := input.Pickup; pickup != nil {
			order.PickupNotes = trimmedOrNil(pickup.Notes)
			if pickup.Date != nil && pickup.Time != nil {
				date := pickup.Date.UTC()
				order.PickupDate = &date
				order.PickupTime = trimmedOrNil(pickup.Time)
			}
		}
	}

	reprice(order, snapshotLines(source.Items))
	return order
}

// insertWithNumber assigns the next daily order number and inserts the order,
// retrying on a number collision. Each attempt runs under a savepoint so a
// failed insert does not poison the enclosing transaction.
func (s *service) insertWithNumber(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order) error {
	prefix := orderNumberPrefix + s.now().Format(orderNumberDateLayout)
	var lastErr error
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		number, err := s.nextNumber(ctx, repo, prefix)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if err := tx.SavePoint(orderNumberSavepoint).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create savepoint")
		}
		err = repo.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !dbpkg.IsUniqueViolation(err, "order_number") {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if rbErr := tx.RollbackTo(orderNumberSavepoint).Error; rbErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, rbErr, "rollback order number savepoint")
		}
		lastErr = err
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"order_number": number,
			"attempt":      attempt,
		}), "order number collision")
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate an order number")
}

// sequentialNumber returns prefix followed by the day's next 4-digit sequence.
func sequentialNumber(ctx context.Context, repo Repository, prefix string) (string, error) {
	last, err := repo.LastNumberWithPrefix(ctx, prefix)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load last order number")
	}
	next := 1
	if last != "" {
		current, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse order number")
		}
		next = current + 1
	}
	if next > maxDailySequence {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "daily order number sequence exhausted")
	}
	return fmt.Sprintf("%s%04d", prefix, next), nil
}

// settleOnCredit posts the order total to the customer's tab, opening an
// unlimited account for the phone when the shop has none yet.
func (s *service) settleOnCredit(ctx context.Context, tx *gorm.DB, repo Repository, actor authz.Actor, order *models.Order, itemCount int) error {
	ledger := s.credit.WithTx(tx)
	account, created, err := ledger.EnsureAccount(ctx, order.ShopID, *order.CustomerPhone, "Auto-created for order "+order.OrderNumber)
	if err != nil {
		return err
	}
	if created {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"credit_account_id": account.ID.String(),
			"order_number":      order.OrderNumber,
		}), "credit account auto-created")
	}

	orderID := order.ID
	remarks := fmt.Sprintf("Order %s - %d items", order.OrderNumber, itemCount)
	if _, err := ledger.AddCredit(ctx, actor, credit.PostingInput{
		ShopID:    order.ShopID,
		AccountID: account.ID,
		Amount:    order.Total,
		Remarks:   &remarks,
		OrderID:   &orderID,
		Metadata: map[string]any{
			"order_number": order.OrderNumber,
			"item_count":   itemCount,
		},
	}); err != nil {
		return err
	}

	paidAt := s.now()
	order.PaymentStatus = enums.PaymentStatusPaid
	order.PaymentDate = &paidAt
	if err := repo.Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
	}
	return nil
}

func fulfillmentInput(input CreateOrderInput, shop catalog.ShopPolicy) checkout.FulfillmentInput {
	in := checkout.FulfillmentInput{
		OrderType:         input.OrderType,
		DeliveryAvailable: shop.IsDeliveryAvailable,
	}
	if input.Delivery != nil {
		in.DeliveryAddress = input.Delivery.Address
		in.DeliveryContactNumber = input.Delivery.ContactNumber
	}
	return in
}

func availabilityInput(items []models.CartItem) []checkout.AvailabilityInput {
	out := make([]checkout.AvailabilityInput, 0, len(items))
	for _, item := range items {
		reason := ""
		if item.UnavailableReason != nil {
			reason = *item.UnavailableReason
		}
		out = append(out, checkout.AvailabilityInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Available:   item.IsAvailable,
			Reason:      reason,
		})
	}
	return out
}

// snapshotLines prices cart items the way they will be frozen on the order.
func snapshotLines(items []models.CartItem) []models.OrderItem {
	return orderItemsFromCart(uuid.Nil, items)
}

func orderItemsFromCart(orderID uuid.UUID, items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, src := range items {
		productID := src.ProductID
		cartItemID := src.ID
		line := models.OrderItem{
			OrderID:            orderID,
			ProductID:          &productID,
			ProductName:        src.ProductName,
			ProductImage:       src.ProductImage,
			ProductSKU:         src.ProductSKU,
			ProductSpecs:       src.ProductSpecs,
			Quantity:           src.Quantity,
			UnitPrice:          src.UnitPrice,
			UnitDiscountPrice:  src.UnitDiscountPrice,
			ItemDiscountAmount: src.DiscountAmount,
			Subtotal:           src.Subtotal,
			Status:             enums.OrderItemStatusAvailable,
			IsAddedByShop:      false,
			OriginalCartItemID: &cartItemID,
			CustomerNotes:      src.Notes,
		}
		out = append(out, line)
	}
	return out
}
