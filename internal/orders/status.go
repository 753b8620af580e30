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

// transitions is the shop-driven lifecycle. Refunds are admin-only and
// handled by Refund.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPlaced:     {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusPacked, enums.OrderStatusCancelled},
	enums.OrderStatusPacked:     {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

var refundableFrom = []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled}

// AllowedTransitions lists the statuses reachable from from.
func AllowedTransitions(from enums.OrderStatus) []enums.OrderStatus {
	next := transitions[from]
	out := make([]enums.OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from→to is on the allow-list.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func invalidTransition(from, to enums.OrderStatus, allowed []enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid status transition").WithDetails(map[string]any{
		"from":    from,
		"to":      to,
		"allowed": allowed,
	})
}

func (s *service) UpdateStatus(ctx context.Context, actor authz.Actor, orderID uuid.UUID, input UpdateStatusInput) (*models.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var from enums.OrderStatus
	err := s.db.WithRetry(ctx, s.retry, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if !CanTransition(order.Status, input.Status) {
			return invalidTransition(order.Status, input.Status, AllowedTransitions(order.Status))
		}
		if input.Status == enums.OrderStatusCancelled && input.Notes != nil {
			order.CancellationReason = trimmedOrNil(input.Notes)
		}
		return s.applyTransition(ctx, tx, repo, actor, order, input.Status, trimmedOrNil(input.Notes))
	})
	if err != nil {
		return nil, err
	}
	return s.afterTransition(ctx, actor, orderID, from, input.Status)
}

// Cancel lets the customer withdraw an order that is still placed, and the
// shop or an admin cancel from any cancellable state.
func (s *service) Cancel(ctx context.Context, actor authz.Actor, orderID uuid.UUID, reason string) (*models.Order, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)

	var from enums.OrderStatus
	err := s.db.WithRetry(ctx, s.retry, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, orderID)
		if err != nil {
			return orderLoadError(err)
		}
		from = order.Status

		if actor.IsCustomer() {
			if !actor.IsOwner(order.UserID) {
				return pkgerrors.New(pkgerrors.CodeForbidden, "you can only cancel your own orders")
			}
			if order.Status != enums.OrderStatusPlaced {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled by the customer").WithDetails(map[string]any{
					"status": order.Status,
				})
			}
		} else if err := authz.CanActForShop(actor, order.ShopID); err != nil {
			return err
		}

		if !CanTransition(order.Status, enums.OrderStatusCancelled) {
			return invalidTransition(order.Status, enums.OrderStatusCancelled, AllowedTransitions(order.Status))
		}
		var notes *string
		if reason != "" {
			notes = &reason
		}
		order.CancellationReason = notes
		return s.applyTransition(ctx, tx, repo, actor, order, enums.OrderStatusCancelled, notes)
	})
	if err != nil {
		return nil, err
	}
	return s.afterTransition(ctx, actor, orderID, from, enums.OrderStatusCancelled)
}

// Refund closes a delivered or cancelled order as refunded. The credit
// ledger is not touched.
func (s *service) Refund(ctx context.Context, actor authz.Actor, orderID uuid.UUID, notes string) (*models.Order, error) {
	if err := authz.RequireRole(actor, enums.RoleAdmin); err != nil {
		return nil, err
	}
	notes = strings.TrimSpace(notes)

	var from enums.OrderStatus
	err := s.db.WithRetry(ctx, s.retry, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.lockOrder(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if !isRefundable(order.Status) {
			return invalidTransition(order.Status, enums.OrderStatusRefunded, refundableFrom)
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			order.PaymentStatus = enums.PaymentStatusRefunded
		}
		var note *string
		if notes != "" {
			note = &notes
		}
		return s.applyTransition(ctx, tx, repo, actor, order, enums.OrderStatusRefunded, note)
	})
	if err != nil {
		return nil, err
	}
	return s.afterTransition(ctx, actor, orderID, from, enums.OrderStatusRefunded)
}

func isRefundable(status enums.OrderStatus) bool {
	for _, candidate := range refundableFrom {
		if candidate == status {
			return true
		}
	}
	return false
}

// applyTransition stamps the lifecycle timestamp for to, appends the status
// event and enqueues the customer notification. The caller has already
// checked the transition is allowed.
func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, repo Repository, actor authz.Actor, order *models.Order, to enums.OrderStatus, notes *string) error {
	from := order.Status
	now := s.now()

	switch to {
	case enums.OrderStatusProcessing:
		order.ProcessingStartedAt = &now
		if order.ConfirmedAt == nil {
			order.ConfirmedAt = &now
		}
	case enums.OrderStatusPacked:
		order.PackedAt = &now
	case enums.OrderStatusDelivered:
		order.DeliveredAt = &now
		if order.PaymentMethod.IsCash() && order.PaymentStatus != enums.PaymentStatusPaid {
			order.PaymentStatus = enums.PaymentStatusPaid
			order.PaymentDate = &now
		}
	case enums.OrderStatusCancelled:
		order.CancelledAt = &now
	case enums.OrderStatusRefunded:
		order.RefundedAt = &now
	}
	order.Status = to

	if err := repo.Save(ctx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if err := repo.AppendStatusEvent(ctx, &models.OrderStatusEvent{
		OrderID:     order.ID,
		FromStatus:  &from,
		ToStatus:    to,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		Notes:       notes,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status event")
	}

	event := payloads.OrderStatusChangedEvent{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		ShopID:         order.ShopID,
		CustomerUserID: order.UserID,
		FromStatus:     from,
		ToStatus:       to,
	}
	if notes != nil {
		event.Notes = *notes
	}
	return s.emit(ctx, tx, actor, enums.EventOrderStatusChanged, order.ID, event)
}

func (s *service) afterTransition(ctx context.Context, actor authz.Actor, orderID uuid.UUID, from, to enums.OrderStatus) (*models.Order, error) {
	order, err := s.reload(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderTransition(string(from), string(to))
	s.logg.Info(s.logg.WithFields(s.logContext(ctx, actor, order), map[string]any{
		"from_status": string(from),
		"to_status":   string(to),
	}), "order status changed")
	return order, nil
}
