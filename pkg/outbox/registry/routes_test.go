package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shoptab-backend/pkg/config"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/payloads"
)

func testRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders-topic", CreditTopic: "credit-topic"})
	require.NoError(t, err)
	return reg
}

func row(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, id uuid.UUID, data any) models.OutboxEvent {
	t.Helper()
	raw, ok := data.(json.RawMessage)
	if !ok {
		var err error
		raw, err = json.Marshal(data)
		require.NoError(t, err)
	}
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return models.OutboxEvent{EventType: eventType, AggregateType: aggregate, AggregateID: id, Payload: body}
}

func TestResolveRoutesByAggregate(t *testing.T) {
	reg := testRegistry(t)
	orderID := uuid.New()

	resolved, err := reg.Resolve(row(t, enums.EventOrderCreated, enums.AggregateOrder, orderID, payloads.OrderCreatedEvent{
		OrderID:     orderID,
		OrderNumber: "ORD2610140001",
		Total:       decimal.RequireFromString("25.00"),
	}))
	require.NoError(t, err)
	require.Equal(t, "orders-topic", resolved.Route.Topic)
	payload, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	require.True(t, ok, "payload type %T", resolved.Payload)
	require.Equal(t, orderID, payload.OrderID)
	require.True(t, payload.Total.Equal(decimal.NewFromInt(25)))
	require.NotEmpty(t, resolved.Envelope.EventID)

	accountID := uuid.New()
	resolved, err = reg.Resolve(row(t, enums.EventCreditPaymentReceived, enums.AggregateCreditAccount, accountID, payloads.CreditPostedEvent{
		AccountID:       accountID,
		TransactionType: enums.CreditTxnPayment,
		Amount:          decimal.NewFromInt(10),
	}))
	require.NoError(t, err)
	require.Equal(t, "credit-topic", resolved.Route.Topic)
	require.IsType(t, &payloads.CreditPostedEvent{}, resolved.Payload)

	require.Equal(t, []string{"credit-topic", "orders-topic"}, reg.Topics())
}

func TestResolveRejectsPermanently(t *testing.T) {
	reg := testRegistry(t)
	id := uuid.New()

	cases := map[string]models.OutboxEvent{
		"unknown type":       row(t, "cart_abandoned", enums.AggregateCart, id, map[string]string{"reason": "none"}),
		"aggregate mismatch": row(t, enums.EventOrderCreated, enums.AggregateCreditAccount, id, map[string]string{}),
		"missing aggregate":  row(t, enums.EventOrderCreated, enums.AggregateOrder, uuid.Nil, map[string]string{}),
		"null payload":       row(t, enums.EventOrderStatusChanged, enums.AggregateOrder, id, json.RawMessage("null")),
		"bad payload":        row(t, enums.EventOrderStatusChanged, enums.AggregateOrder, id, json.RawMessage(`{"order_id":7}`)),
		"garbage envelope":   {EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: id, Payload: []byte("{")},
	}
	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(event)
			var nonRetry NonRetryableError
			require.True(t, errors.As(err, &nonRetry), "got %v", err)
		})
	}
}

func TestResolveUnknownVersion(t *testing.T) {
	reg := testRegistry(t)
	event := row(t, enums.EventOrderModified, enums.AggregateOrder, uuid.New(), map[string]string{})
	event.Payload = []byte(`{"version":9,"eventId":"` + uuid.NewString() + `","data":{}}`)

	_, err := reg.Resolve(event)
	require.ErrorIs(t, err, ErrNoDecoder)
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{})
	require.ErrorContains(t, err, "orders topic is required")
	require.ErrorContains(t, err, "credit topic is required")
}

func TestCatalogCoversEveryRoute(t *testing.T) {
	reg := testRegistry(t)
	catalog := Catalog()
	for eventType := range reg.routes {
		require.True(t, catalog.Handles(eventType), "no decoder for %s", eventType)
	}
}
