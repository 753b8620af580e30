package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/registry"
)

const notificationConsumerName = "notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type idempotencyChecker interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (idempotency.Outcome, error)
	Complete(ctx context.Context, consumer string, eventID uuid.UUID) error
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// errClaimHeld asks for redelivery while another handler owns the event.
var errClaimHeld = errors.New("event claimed by another delivery")

// Consumer turns order and credit domain events into in-app notifications.
type Consumer struct {
	repo          repository
	subscriptions []*pubsub.Subscriber
	idempotency   idempotencyChecker
	decoders      *registry.Decoders
	logg          *logger.Logger
}

// NewConsumer builds a notification consumer over one or more subscriptions.
func NewConsumer(repo repository, manager idempotencyChecker, logg *logger.Logger, subscriptions ...*pubsub.Subscriber) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	for _, sub := range subscriptions {
		if sub == nil {
			return nil, fmt.Errorf("subscription required")
		}
	}
	return &Consumer{
		repo:          repo,
		subscriptions: subscriptions,
		idempotency:   manager,
		decoders:      registry.Catalog(),
		logg:          logg,
	}, nil
}

// Run receives from every subscription until the context is canceled or
// one receiver fails.
func (c *Consumer) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, sub := range c.subscriptions {
		sub := sub
		group.Go(func() error {
			return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
				if err := c.Process(ctx, enums.OutboxEventType(msg.Attributes["event_type"]), msg.Data); err != nil {
					msg.Nack()
					return
				}
				msg.Ack()
			})
		})
	}
	return group.Wait()
}

// Process handles one message body. A returned error asks for redelivery;
// malformed messages are logged and acknowledged.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, data []byte) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{"event_type": string(eventType)})
	if !c.decoders.Handles(eventType) {
		c.logg.Debug(logCtx, "ignoring event type")
		return nil
	}

	envelope, eventID, err := outbox.ParseEnvelope(data)
	if err != nil {
		c.logg.Error(logCtx, "dropping malformed envelope", err)
		return nil
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	payload, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Warn(c.logg.WithField(logCtx, "error", err.Error()), "skipping undecodable event")
		return nil
	}
	notification := build(payload)
	if notification == nil {
		c.logg.Info(logCtx, "event has no recipient")
		return nil
	}
	notification.EventID = eventID

	outcome, err := c.idempotency.Claim(ctx, notificationConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency claim failed", err)
		return err
	}
	switch outcome {
	case idempotency.Done:
		c.logg.Info(logCtx, "event already processed")
		return nil
	case idempotency.InFlight:
		c.logg.Warn(logCtx, "event claimed elsewhere")
		return errClaimHeld
	}

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "failed to store notification", err)
		if releaseErr := c.idempotency.Release(ctx, notificationConsumerName, eventID); releaseErr != nil {
			c.logg.Error(logCtx, "failed to release claim", releaseErr)
		}
		return err
	}
	if err := c.idempotency.Complete(ctx, notificationConsumerName, eventID); err != nil {
		// the row exists; a lapsed claim lets a redelivery insert a duplicate
		c.logg.Error(logCtx, "failed to mark event processed", err)
	}
	c.logg.Info(c.logg.WithField(logCtx, "notification_type", string(notification.Type)), "notification stored")
	return nil
}

// build maps a decoded payload to its notification, or nil when nobody
// should be told.
func build(payload any) *models.Notification {
	switch event := payload.(type) {
	case *payloads.OrderCreatedEvent:
		if event.ShopOwnerUserID == uuid.Nil {
			return nil
		}
		return &models.Notification{
			UserID:  uuidPtr(event.ShopOwnerUserID),
			ShopID:  uuidPtr(event.ShopID),
			Type:    enums.NotificationTypeNewOrder,
			Title:   "New order received",
			Message: fmt.Sprintf("Order %s: %d item(s), total %s.", event.OrderNumber, event.ItemCount, event.Total.StringFixed(2)),
			Link:    orderLink(event.OrderID),
		}
	case *payloads.OrderStatusChangedEvent:
		return customerNotification(event.CustomerUserID, event.ShopID, event.OrderID,
			enums.NotificationTypeOrderStatus,
			"Order update",
			fmt.Sprintf("Order %s is now %s.", event.OrderNumber, event.ToStatus))
	case *payloads.OrderPaymentMethodChangedEvent:
		return customerNotification(event.CustomerUserID, event.ShopID, event.OrderID,
			enums.NotificationTypePaymentMethodChanged,
			"Payment method changed",
			strings.TrimSpace(fmt.Sprintf("Order %s will now be settled by %s. %s", event.OrderNumber, event.NewMethod, event.Reason)))
	case *payloads.OrderModifiedEvent:
		return customerNotification(event.CustomerUserID, event.ShopID, event.OrderID,
			enums.NotificationTypeOrderUpdated,
			"Order changed by the shop",
			fmt.Sprintf("Order %s was updated. New total %s.", event.OrderNumber, event.Total.StringFixed(2)))
	case *payloads.CreditPostedEvent:
		if event.CustomerPhone == "" {
			return nil
		}
		notification := &models.Notification{
			RecipientPhone: stringPtr(event.CustomerPhone),
			ShopID:         uuidPtr(event.ShopID),
		}
		if event.TransactionType == enums.CreditTxnPayment {
			notification.Type = enums.NotificationTypePaymentReceived
			notification.Title = "Payment received"
			notification.Message = fmt.Sprintf("Payment of %s recorded. Balance %s.", event.Amount.StringFixed(2), event.BalanceAfter.StringFixed(2))
		} else {
			notification.Type = enums.NotificationTypeCreditAdded
			notification.Title = "Added to your tab"
			notification.Message = fmt.Sprintf("%s added to your tab. Balance %s.", event.Amount.StringFixed(2), event.BalanceAfter.StringFixed(2))
		}
		if event.OrderID != nil {
			notification.Link = orderLink(*event.OrderID)
		}
		return notification
	}
	return nil
}

func customerNotification(userID, shopID, orderID uuid.UUID, kind enums.NotificationType, title, message string) *models.Notification {
	if userID == uuid.Nil {
		return nil
	}
	return &models.Notification{
		UserID:  uuidPtr(userID),
		ShopID:  uuidPtr(shopID),
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    orderLink(orderID),
	}
}

func orderLink(orderID uuid.UUID) *string {
	return stringPtr("/orders/" + orderID.String())
}

func stringPtr(value string) *string {
	return &value
}

func uuidPtr(value uuid.UUID) *uuid.UUID {
	return &value
}
