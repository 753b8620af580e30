package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/internal/authz"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/payloads"
)

// UpdatePaymentMethod switches how an open order will be settled. Moving
// into credit only checks the tab has room; nothing is posted. Moving away
// from credit leaves any earlier posting in place.
func (s *service) UpdatePaymentMethod(ctx context.Context, actor authz.Actor, orderID uuid.UUID, input PaymentMethodInput) (*models.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	changed := false
	var previous enums.PaymentMethod
	err := s.db.WithRetry(ctx, s.retry, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case enums.OrderStatusDelivered, enums.OrderStatusCancelled, enums.OrderStatusRefunded:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment method cannot be changed for this order").WithDetails(map[string]any{
				"status": order.Status,
			})
		}
		if order.PaymentMethod == input.PaymentMethod {
			return nil
		}

		if input.PaymentMethod == enums.PaymentMethodCredit {
			phone, err := creditPhone(order, input.CustomerPhone)
			if err != nil {
				return err
			}
			if err := s.checkCreditRoom(ctx, tx, order, phone); err != nil {
				return err
			}
			order.CustomerPhone = &phone
		}

		previous = order.PaymentMethod
		changed = true
		order.PaymentMethod = input.PaymentMethod
		order.PaymentStatus = enums.PaymentStatusPending
		order.PaymentDate = nil
		order.PaymentTransactionID = nil
		order.HasShopModifications = true
		if err := repo.Save(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment method")
		}

		reason := defaultPaymentMethodReason
		if trimmed := trimmedOrNil(input.Reason); trimmed != nil {
			reason = *trimmed
		}
		if err := repo.AppendModification(ctx, &models.OrderModification{
			OrderID:          order.ID,
			ModificationType: enums.OrderModChangePaymentMethod,
			Field:            "payment_method",
			OldValue:         stringPtr(string(previous)),
			NewValue:         stringPtr(string(input.PaymentMethod)),
			Reason:           &reason,
			Notes:            trimmedOrNil(input.Notes),
			ActorUserID:      actor.UserID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment method change")
		}

		return s.emit(ctx, tx, actor, enums.EventOrderPaymentMethodChanged, order.ID, payloads.OrderPaymentMethodChangedEvent{
			OrderID:        order.ID,
			OrderNumber:    order.OrderNumber,
			ShopID:         order.ShopID,
			CustomerUserID: order.UserID,
			OldMethod:      previous,
			NewMethod:      input.PaymentMethod,
			Reason:         reason,
		})
	})
	if err != nil {
		return nil, err
	}

	order, err := s.reload(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if changed {
		s.logg.Info(s.logg.WithFields(s.logContext(ctx, actor, order), map[string]any{
			"old_method": string(previous),
			"new_method": string(order.PaymentMethod),
		}), "order payment method changed")
	}
	return order, nil
}

func creditPhone(order *models.Order, override *string) (string, error) {
	if override != nil {
		if phone := strings.TrimSpace(*override); phone != "" {
			return phone, nil
		}
	}
	if order.CustomerPhone != nil {
		if phone := strings.TrimSpace(*order.CustomerPhone); phone != "" {
			return phone, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "customer phone number is required for credit payment method")
}

// checkCreditRoom requires an active tab for (shop, phone) that can absorb
// the order total.
func (s *service) checkCreditRoom(ctx context.Context, tx *gorm.DB, order *models.Order, phone string) error {
	account, err := s.credit.WithTx(tx).FindAccountByPhone(ctx, order.ShopID, phone)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no credit account for customer phone").WithDetails(map[string]any{
				"customerPhone": phone,
			})
		}
		return err
	}
	if account.Status != enums.CreditAccountActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "credit account is not active").WithDetails(map[string]any{
			"accountId": account.ID,
			"status":    account.Status,
		})
	}
	if !account.HasLimit() {
		return nil
	}
	projected := account.CurrentBalance.Add(order.Total)
	if projected.LessThanOrEqual(account.CreditLimit) {
		return nil
	}
	available := *account.AvailableCredit()
	return pkgerrors.New(pkgerrors.CodeStateConflict, "credit limit exceeded").WithDetails(map[string]any{
		"accountId":      account.ID,
		"currentBalance": account.CurrentBalance,
		"creditLimit":    account.CreditLimit,
		"orderTotal":     order.Total,
		"available":      available,
		"shortfall":      projected.Sub(account.CreditLimit),
	})
}
