package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/internal/authz"
	dbpkg "github.com/angelmondragon/shoptab-backend/pkg/db"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/payloads"
)

// amendment is the per-call state shared by the seller edit operations.
type amendment struct {
	tx    *gorm.DB
	repo  Repository
	actor authz.Actor
	order *models.Order
	kind  enums.OrderModificationType
}

// amend locks a modifiable order, runs fn, then reprices and persists it.
func (s *service) amend(ctx context.Context, actor authz.Actor, orderID uuid.UUID, fn func(a *amendment) error) (*models.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	var kind enums.OrderModificationType
	err := s.db.WithRetry(ctx, s.retry, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		if !order.CanBeModified() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can only be modified while processing").WithDetails(map[string]any{
				"status": order.Status,
			})
		}

		a := &amendment{tx: tx, repo: repo, actor: actor, order: order}
		if err := fn(a); err != nil {
			return err
		}
		kind = a.kind

		items, err := repo.ListItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
		}
		reprice(order, items)
		if order.Total.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "order total cannot be negative").WithDetails(map[string]any{
				"total": order.Total,
			})
		}
		order.HasShopModifications = true
		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}

		return s.emit(ctx, tx, actor, enums.EventOrderModified, order.ID, payloads.OrderModifiedEvent{
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			ShopID:           order.ShopID,
			CustomerUserID:   order.UserID,
			ModificationType: a.kind,
			Total:            order.Total,
		})
	})
	if err != nil {
		return nil, err
	}

	order, err := s.reload(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(s.logContext(ctx, actor, order), map[string]any{
		"modification_type": string(kind),
		"total":             order.Total.String(),
	}), "order amended")
	return order, nil
}

func (a *amendment) record(ctx context.Context, kind enums.OrderModificationType, field string, oldValue, newValue *string, reason, notes *string) error {
	if a.kind == "" {
		a.kind = kind
	}
	if err := a.repo.AppendModification(ctx, &models.OrderModification{
		OrderID:          a.order.ID,
		ModificationType: kind,
		Field:            field,
		OldValue:         oldValue,
		NewValue:         newValue,
		Reason:           trimmedOrNil(reason),
		Notes:            trimmedOrNil(notes),
		ActorUserID:      a.actor.UserID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order modification")
	}
	return nil
}

func (a *amendment) recordItem(ctx context.Context, item *models.OrderItem, kind enums.ItemModificationType, oldValue, newValue string, reason *string) error {
	if err := a.repo.AppendItemModification(ctx, &models.OrderItemModification{
		OrderItemID:      item.ID,
		OrderID:          a.order.ID,
		ModificationType: kind,
		OldValue:         &oldValue,
		NewValue:         &newValue,
		Reason:           trimmedOrNil(reason),
		ActorUserID:      a.actor.UserID,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record item modification")
	}
	return nil
}

func (s *service) AddItem(ctx context.Context, actor authz.Actor, orderID uuid.UUID, input AddItemInput) (*models.Order, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	return s.amend(ctx, actor, orderID, func(a *amendment) error {
		product, err := s.catalog.WithTx(a.tx).GetProduct(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product.ShopID != a.order.ShopID {
			return pkgerrors.New(pkgerrors.CodeValidation, "product does not belong to the order's shop")
		}
		if product.Deleted {
			return pkgerrors.New(pkgerrors.CodeValidation, "product no longer available")
		}

		unitPrice := product.SalePrice
		if input.CustomUnitPrice != nil {
			unitPrice = *input.CustomUnitPrice
		}
		discount := product.DiscountPrice
		if input.CustomDiscountPrice != nil {
			discount = decimal.NewNullDecimal(*input.CustomDiscountPrice)
		}
		if err := validatePrices(unitPrice, discount); err != nil {
			return err
		}

		productID := product.ID
		item := &models.OrderItem{
			OrderID:           a.order.ID,
			ProductID:         &productID,
			ProductName:       product.Name,
			ProductImage:      product.Image,
			ProductSKU:        product.SKU,
			ProductSpecs:      product.Specifications,
			Quantity:          input.Quantity,
			UnitPrice:         unitPrice,
			UnitDiscountPrice: discount,
			Status:            enums.OrderItemStatusAddedByShop,
			IsAddedByShop:     true,
			ShopNotes:         trimmedOrNil(input.ShopNotes),
		}
		priceLine(item)
		if err := a.repo.CreateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order item")
		}

		added := fmt.Sprintf("%s x %s @ %s", item.ProductName, item.Quantity.String(), item.FinalUnitPrice().StringFixed(2))
		if err := a.recordItem(ctx, item, enums.ItemModStatusChange, "", string(item.Status), input.Reason); err != nil {
			return err
		}
		return a.record(ctx, enums.OrderModAddItem, "item:"+item.ID.String(), nil, &added, input.Reason, input.ShopNotes)
	})
}

func (s *service) UpdateItem(ctx context.Context, actor authz.Actor, orderID, itemID uuid.UUID, input UpdateItemInput) (*models.Order, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if input.Quantity == nil && input.UnitPrice == nil && input.DiscountPrice == nil &&
		trimmedOrNil(input.UnavailableReason) == nil && !input.Remove {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no item changes supplied")
	}
	if input.Quantity != nil {
		if err := validateQuantity(*input.Quantity); err != nil {
			return nil, err
		}
	}

	return s.amend(ctx, actor, orderID, func(a *amendment) error {
		item, err := a.repo.FindItem(ctx, a.order.ID, itemID)
		if err != nil {
			if dbpkg.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}
		if item.Status == enums.OrderItemStatusRemovedByShop {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order item was removed")
		}

		if !item.OriginalQuantity.Valid {
			item.OriginalQuantity = decimal.NewNullDecimal(item.Quantity)
		}
		if !item.OriginalUnitPrice.Valid {
			item.OriginalUnitPrice = decimal.NewNullDecimal(item.UnitPrice)
		}
		beforeSubtotal := item.Subtotal.StringFixed(2)
		kind := enums.OrderModificationType("")

		if input.Quantity != nil && !input.Quantity.Equal(item.Quantity) {
			if err := a.recordItem(ctx, item, enums.ItemModQuantityChange, item.Quantity.String(), input.Quantity.String(), input.Reason); err != nil {
				return err
			}
			item.Quantity = *input.Quantity
			kind = enums.OrderModUpdateQuantity
		}
		if input.UnitPrice != nil && !input.UnitPrice.Equal(item.UnitPrice) {
			if err := a.recordItem(ctx, item, enums.ItemModPriceChange, item.UnitPrice.StringFixed(2), input.UnitPrice.StringFixed(2), input.Reason); err != nil {
				return err
			}
			item.UnitPrice = *input.UnitPrice
			kind = enums.OrderModUpdatePrice
		}
		if input.DiscountPrice != nil && !(item.UnitDiscountPrice.Valid && input.DiscountPrice.Equal(item.UnitDiscountPrice.Decimal)) {
			if err := a.recordItem(ctx, item, enums.ItemModDiscountApplied, nullDecimalString(item.UnitDiscountPrice), input.DiscountPrice.StringFixed(2), input.Reason); err != nil {
				return err
			}
			item.UnitDiscountPrice = decimal.NewNullDecimal(*input.DiscountPrice)
			kind = enums.OrderModApplyDiscount
		}
		if err := validatePrices(item.UnitPrice, item.UnitDiscountPrice); err != nil {
			return err
		}

		nextStatus := enums.OrderItemStatusModifiedByShop
		switch {
		case input.Remove:
			nextStatus = enums.OrderItemStatusRemovedByShop
			kind = enums.OrderModRemoveItem
		case trimmedOrNil(input.UnavailableReason) != nil:
			nextStatus = enums.OrderItemStatusUnavailable
			item.UnavailableReason = trimmedOrNil(input.UnavailableReason)
			kind = enums.OrderModRemoveItem
		case item.Status == enums.OrderItemStatusUnavailable:
			nextStatus = item.Status
		}
		if kind == "" && nextStatus == item.Status {
			return pkgerrors.New(pkgerrors.CodeValidation, "no item changes supplied")
		}
		if kind == "" {
			kind = enums.OrderModUpdateQuantity
		}
		if nextStatus != item.Status {
			if err := a.recordItem(ctx, item, enums.ItemModStatusChange, string(item.Status), string(nextStatus), input.Reason); err != nil {
				return err
			}
			item.Status = nextStatus
		}
		if input.ShopNotes != nil {
			item.ShopNotes = trimmedOrNil(input.ShopNotes)
		}

		item.IsModifiedByShop = true
		priceLine(item)
		if err := a.repo.SaveItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order item")
		}

		after := item.Subtotal.StringFixed(2)
		if !item.Status.CountsTowardTotal() {
			after = "0.00"
		}
		return a.record(ctx, kind, "item:"+item.ID.String(), &beforeSubtotal, &after, input.Reason, input.ShopNotes)
	})
}

func (s *service) UpdateFees(ctx context.Context, actor authz.Actor, orderID uuid.UUID, input UpdateFeesInput) (*models.Order, error) {
	for label, value := range map[string]*decimal.Decimal{
		"delivery fee":        input.DeliveryFee,
		"additional discount": input.AdditionalDiscount,
		"extra charges":       input.ExtraCharges,
		"tax":                 input.Tax,
	} {
		if value != nil && value.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, label+" cannot be negative")
		}
	}

	return s.amend(ctx, actor, orderID, func(a *amendment) error {
		order := a.order
		changes := 0
		money := func(kind enums.OrderModificationType, field string, target *decimal.Decimal, next *decimal.Decimal) error {
			if next == nil || next.Equal(*target) {
				return nil
			}
			changes++
			oldValue, newValue := target.StringFixed(2), next.StringFixed(2)
			*target = *next
			return a.record(ctx, kind, field, &oldValue, &newValue, input.Reason, nil)
		}
		if err := money(enums.OrderModChangeDeliveryFee, "delivery_fee", &order.DeliveryFee, input.DeliveryFee); err != nil {
			return err
		}
		if err := money(enums.OrderModApplyDiscount, "order_discount", &order.OrderDiscount, input.AdditionalDiscount); err != nil {
			return err
		}
		if err := money(enums.OrderModChangeFees, "extra_charges", &order.ExtraCharges, input.ExtraCharges); err != nil {
			return err
		}
		if err := money(enums.OrderModChangeFees, "tax", &order.Tax, input.Tax); err != nil {
			return err
		}

		text := func(field string, target **string, next *string) error {
			if next == nil {
				return nil
			}
			value := trimmedOrNil(next)
			if equalStrings(*target, value) {
				return nil
			}
			changes++
			oldValue := *target
			*target = value
			return a.record(ctx, enums.OrderModChangeFees, field, oldValue, value, input.Reason, nil)
		}
		if err := text("shop_notes", &order.ShopNotes, input.ShopNotes); err != nil {
			return err
		}
		if err := text("estimated_delivery_time", &order.EstimatedDeliveryTime, input.EstimatedDeliveryTime); err != nil {
			return err
		}
		if input.EstimatedDeliveryDate != nil {
			next := input.EstimatedDeliveryDate.UTC()
			if order.EstimatedDeliveryDate == nil || !order.EstimatedDeliveryDate.Equal(next) {
				changes++
				var oldValue *string
				if order.EstimatedDeliveryDate != nil {
					oldValue = stringPtr(order.EstimatedDeliveryDate.UTC().Format("2006-01-02"))
				}
				order.EstimatedDeliveryDate = &next
				if err := a.record(ctx, enums.OrderModChangeFees, "estimated_delivery_date", oldValue, stringPtr(next.Format("2006-01-02")), input.Reason, nil); err != nil {
					return err
				}
			}
		}

		if changes == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no order changes supplied")
		}
		return nil
	})
}

func validateQuantity(quantity decimal.Decimal) error {
	if quantity.LessThan(minItemQuantity) || quantity.GreaterThan(maxItemQuantity) {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 0.01 and 999.99")
	}
	return nil
}

func validatePrices(unitPrice decimal.Decimal, discount decimal.NullDecimal) error {
	if unitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if !discount.Valid {
		return nil
	}
	if discount.Decimal.IsNegative() || discount.Decimal.GreaterThan(unitPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount price must be between 0 and the unit price")
	}
	return nil
}

func nullDecimalString(value decimal.NullDecimal) string {
	if !value.Valid {
		return ""
	}
	return value.Decimal.StringFixed(2)
}

func equalStrings(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
