package registry

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/angelmondragon/shoptab-backend/pkg/config"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox/payloads"
)

// Route says which aggregate owns an event type and where it is published.
type Route struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
}

// ResolvedEvent is an outbox row that passed validation, with its payload
// decoded to the registered type.
type ResolvedEvent struct {
	Route    Route
	Envelope outbox.PayloadEnvelope
	Payload  any
}

// NonRetryableError marks a row that will never publish. The dispatcher
// moves it to the DLQ instead of backing off.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

// NewNonRetryableError wraps err so errors.As finds a NonRetryableError.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func permanent(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

// Catalog registers a decoder for every event the system emits.
func Catalog() *Decoders {
	d := NewDecoders()
	RegisterJSON[payloads.OrderCreatedEvent](d, enums.EventOrderCreated, 1)
	RegisterJSON[payloads.OrderStatusChangedEvent](d, enums.EventOrderStatusChanged, 1)
	RegisterJSON[payloads.OrderPaymentMethodChangedEvent](d, enums.EventOrderPaymentMethodChanged, 1)
	RegisterJSON[payloads.OrderModifiedEvent](d, enums.EventOrderModified, 1)
	RegisterJSON[payloads.CreditPostedEvent](d, enums.EventCreditAdded, 1)
	RegisterJSON[payloads.CreditPostedEvent](d, enums.EventCreditPaymentReceived, 1)
	return d
}

// EventRegistry routes outbox rows to topics and decodes their payloads.
type EventRegistry struct {
	routes   map[enums.OutboxEventType]Route
	decoders *Decoders
}

// NewEventRegistry binds order events to the orders topic and ledger events
// to the credit topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	var errs []error
	if cfg.OrdersTopic == "" {
		errs = append(errs, errors.New("orders topic is required"))
	}
	if cfg.CreditTopic == "" {
		errs = append(errs, errors.New("credit topic is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	reg := &EventRegistry{
		routes:   make(map[enums.OutboxEventType]Route),
		decoders: Catalog(),
	}
	for _, eventType := range []enums.OutboxEventType{
		enums.EventOrderCreated,
		enums.EventOrderStatusChanged,
		enums.EventOrderPaymentMethodChanged,
		enums.EventOrderModified,
	} {
		reg.routes[eventType] = Route{EventType: eventType, AggregateType: enums.AggregateOrder, Topic: cfg.OrdersTopic}
	}
	for _, eventType := range []enums.OutboxEventType{
		enums.EventCreditAdded,
		enums.EventCreditPaymentReceived,
	} {
		reg.routes[eventType] = Route{EventType: eventType, AggregateType: enums.AggregateCreditAccount, Topic: cfg.CreditTopic}
	}
	return reg, nil
}

// Topics lists each distinct destination topic in sorted order.
func (r *EventRegistry) Topics() []string {
	topics := make([]string, 0, 2)
	for _, route := range r.routes {
		topics = append(topics, route.Topic)
	}
	slices.Sort(topics)
	return slices.Compact(topics)
}

// Resolve checks the row against its route and decodes the payload. Every
// failure is a NonRetryableError: retrying the same row cannot fix it.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	route, ok := r.routes[event.EventType]
	switch {
	case !ok:
		return nil, permanent("unsupported event type %s", event.EventType)
	case route.AggregateType != event.AggregateType:
		return nil, permanent("aggregate mismatch: expected %s got %s", route.AggregateType, event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return nil, permanent("missing aggregate_id")
	}

	envelope, _, err := outbox.ParseEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	if bytes.Equal(bytes.TrimSpace(envelope.Data), []byte("null")) {
		return nil, permanent("payload missing for %s", event.EventType)
	}

	payload, err := r.decoders.Decode(event.EventType, envelope.Version, envelope.Data)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	return &ResolvedEvent{Route: route, Envelope: envelope, Payload: payload}, nil
}
