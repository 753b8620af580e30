package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shoptab-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
)

func TestEmitStoresEnvelope(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(NewRepository(db), nil)
	fixed := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	orderID := uuid.New()

	err := svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         &ActorRef{UserID: uuid.New(), Role: "customer"},
		Data:          map[string]string{"orderNumber": "ORD2604020001"},
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)
	require.Equal(t, orderID, row.AggregateID)
	require.Nil(t, row.PublishedAt)

	env, eventID, err := ParseEnvelope(row.Payload)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, eventID)
	require.Equal(t, currentEnvelopeVersion, env.Version)
	require.True(t, env.OccurredAt.Equal(fixed))
	require.Equal(t, "customer", env.Actor.Role)
	require.JSONEq(t, `{"orderNumber":"ORD2604020001"}`, string(env.Data))
}

func TestEmitValidatesEvent(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(NewRepository(db), nil)
	ctx := context.Background()
	valid := DomainEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New()}

	require.Error(t, svc.Emit(ctx, nil, valid), "transaction")

	noAggregate := valid
	noAggregate.AggregateID = uuid.Nil
	require.Error(t, svc.Emit(ctx, db, noAggregate))

	badType := valid
	badType.EventType = "order_teleported"
	require.Error(t, svc.Emit(ctx, db, badType))

	unencodable := valid
	unencodable.Data = make(chan int)
	require.Error(t, svc.Emit(ctx, db, unencodable))

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestParseEnvelopeRejectsBadBodies(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   "nope",
		"bad id":     `{"version":1,"eventId":"x","data":{}}`,
		"empty data": `{"version":1,"eventId":"` + uuid.NewString() + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseEnvelope([]byte(body))
			require.Error(t, err)
		})
	}

	raw, err := json.Marshal(PayloadEnvelope{Version: 2, EventID: uuid.NewString(), Data: json.RawMessage(`{}`)})
	require.NoError(t, err)
	env, _, err := ParseEnvelope(raw)
	require.NoError(t, err)
	require.Equal(t, 2, env.Version)
}
