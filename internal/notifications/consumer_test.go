package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	"github.com/angelmondragon/shoptab-backend/pkg/logger"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/payloads"
)

type captureRepo struct {
	created []models.Notification
	err     error
}

func (c *captureRepo) Create(ctx context.Context, notification *models.Notification) error {
	if c.err != nil {
		return c.err
	}
	c.created = append(c.created, *notification)
	return nil
}

type fakeGuard struct {
	state    map[uuid.UUID]idempotency.Outcome
	released []uuid.UUID
	err      error
}

func (f *fakeGuard) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (idempotency.Outcome, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.state == nil {
		f.state = map[uuid.UUID]idempotency.Outcome{}
	}
	if outcome, ok := f.state[eventID]; ok {
		return outcome, nil
	}
	f.state[eventID] = idempotency.InFlight
	return idempotency.Claimed, nil
}

func (f *fakeGuard) Complete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	f.state[eventID] = idempotency.Done
	return nil
}

func (f *fakeGuard) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	f.released = append(f.released, eventID)
	delete(f.state, eventID)
	return nil
}

func newTestConsumer(t *testing.T, repo *captureRepo, guard *fakeGuard) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(repo, guard, logger.Nop())
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return consumer
}

func envelopeFor(t *testing.T, eventID uuid.UUID, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return body
}

func TestConsumerNotifiesShopOwnerOfNewOrder(t *testing.T) {
	repo := &captureRepo{}
	consumer := newTestConsumer(t, repo, &fakeGuard{})
	eventID := uuid.New()
	owner := uuid.New()
	body := envelopeFor(t, eventID, payloads.OrderCreatedEvent{
		OrderID:         uuid.New(),
		OrderNumber:     "ORD2603010001",
		ShopID:          uuid.New(),
		ShopOwnerUserID: owner,
		ItemCount:       2,
		Total:           decimal.RequireFromString("25"),
	})

	if err := consumer.Process(context.Background(), enums.EventOrderCreated, body); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	got := repo.created[0]
	if got.UserID == nil || *got.UserID != owner {
		t.Fatalf("expected owner recipient, got %v", got.UserID)
	}
	if got.Type != enums.NotificationTypeNewOrder || got.EventID != eventID {
		t.Fatalf("unexpected notification %+v", got)
	}
	if got.Message != "Order ORD2603010001: 2 item(s), total 25.00." {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestConsumerNotifiesCustomerByPhoneForCredit(t *testing.T) {
	repo := &captureRepo{}
	consumer := newTestConsumer(t, repo, &fakeGuard{})
	body := envelopeFor(t, uuid.New(), payloads.CreditPostedEvent{
		AccountID:       uuid.New(),
		ShopID:          uuid.New(),
		CustomerPhone:   "5550001111",
		TransactionType: enums.CreditTxnPayment,
		Amount:          decimal.RequireFromString("40"),
		BalanceAfter:    decimal.RequireFromString("60"),
	})

	if err := consumer.Process(context.Background(), enums.EventCreditPaymentReceived, body); err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := repo.created[0]
	if got.UserID != nil || got.RecipientPhone == nil || *got.RecipientPhone != "5550001111" {
		t.Fatalf("expected phone recipient, got %+v", got)
	}
	if got.Type != enums.NotificationTypePaymentReceived {
		t.Fatalf("expected payment received type, got %s", got.Type)
	}
}

func TestConsumerSkipsDuplicates(t *testing.T) {
	repo := &captureRepo{}
	consumer := newTestConsumer(t, repo, &fakeGuard{})
	body := envelopeFor(t, uuid.New(), payloads.OrderStatusChangedEvent{
		OrderID:        uuid.New(),
		OrderNumber:    "ORD2603010002",
		CustomerUserID: uuid.New(),
		FromStatus:     enums.OrderStatusPlaced,
		ToStatus:       enums.OrderStatusProcessing,
	})

	for i := 0; i < 2; i++ {
		if err := consumer.Process(context.Background(), enums.EventOrderStatusChanged, body); err != nil {
			t.Fatalf("Process: %v", err)
		}
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected single notification, got %d", len(repo.created))
	}
}

func TestConsumerAcksMalformedAndUnknownEvents(t *testing.T) {
	repo := &captureRepo{}
	consumer := newTestConsumer(t, repo, &fakeGuard{})

	if err := consumer.Process(context.Background(), enums.EventOrderCreated, []byte("not json")); err != nil {
		t.Fatalf("malformed envelope should be acked, got %v", err)
	}
	body := envelopeFor(t, uuid.New(), map[string]string{"hello": "world"})
	if err := consumer.Process(context.Background(), enums.OutboxEventType("something_else"), body); err != nil {
		t.Fatalf("unknown event should be acked, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no notifications, got %d", len(repo.created))
	}
}

func TestConsumerReleasesGuardOnStoreFailure(t *testing.T) {
	repo := &captureRepo{err: errors.New("db down")}
	guard := &fakeGuard{}
	consumer := newTestConsumer(t, repo, guard)
	eventID := uuid.New()
	body := envelopeFor(t, eventID, payloads.OrderModifiedEvent{
		OrderID:        uuid.New(),
		OrderNumber:    "ORD2603010003",
		CustomerUserID: uuid.New(),
		Total:          decimal.RequireFromString("12"),
	})

	if err := consumer.Process(context.Background(), enums.EventOrderModified, body); err == nil {
		t.Fatal("expected error so the message is redelivered")
	}
	if len(guard.released) != 1 || guard.released[0] != eventID {
		t.Fatalf("expected idempotency key released, got %v", guard.released)
	}
}

func TestConsumerNacksWhileClaimHeld(t *testing.T) {
	repo := &captureRepo{}
	eventID := uuid.New()
	guard := &fakeGuard{state: map[uuid.UUID]idempotency.Outcome{eventID: idempotency.InFlight}}
	consumer := newTestConsumer(t, repo, guard)
	body := envelopeFor(t, eventID, payloads.OrderStatusChangedEvent{OrderID: uuid.New(), CustomerUserID: uuid.New()})

	if err := consumer.Process(context.Background(), enums.EventOrderStatusChanged, body); !errors.Is(err, errClaimHeld) {
		t.Fatalf("expected errClaimHeld, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no notifications, got %d", len(repo.created))
	}
}

func TestConsumerNacksWhenGuardFails(t *testing.T) {
	consumer := newTestConsumer(t, &captureRepo{}, &fakeGuard{err: errors.New("redis down")})
	body := envelopeFor(t, uuid.New(), payloads.OrderStatusChangedEvent{OrderID: uuid.New(), CustomerUserID: uuid.New()})
	if err := consumer.Process(context.Background(), enums.EventOrderStatusChanged, body); err == nil {
		t.Fatal("expected error")
	}
}
