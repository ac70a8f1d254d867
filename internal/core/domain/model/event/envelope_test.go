package event_test

import (
	"encoding/json"
	"testing"
	"time"

	"orderflow/internal/core/domain/model/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ready := event.OrderReady{
		Header: event.Header{
			OrderID:    "a3f1c1a2-5a1d-4a4e-9a53-4b1f6f0e1c11",
			TenantID:   "sede-miraflores",
			CustomerID: "cust-7",
			Actor:      event.Actor{ID: "chef-1", Role: "kitchen-staff"},
			OccurredAt: at,
		},
		ReadyAt: at,
	}

	env, err := event.Encode(ready, "fridays.kitchen")
	require.NoError(t, err)

	assert.Equal(t, event.TypeOrderReady, env.EventType)
	assert.Equal(t, "fridays.kitchen", env.Source)
	assert.Equal(t, "sede-miraflores", env.Scope)
	assert.Equal(t, ready.OrderID, env.CorrelationID)
	assert.NotEmpty(t, env.EventID)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	_, decoded, err := event.Unmarshal(raw)
	require.NoError(t, err)

	got, ok := decoded.(event.OrderReady)
	require.True(t, ok, "decoded %T", decoded)
	assert.Equal(t, ready.OrderID, got.OrderID)
	assert.True(t, got.ReadyAt.Equal(at))
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := event.Decode(event.Envelope{EventType: "OrderRefunded", Payload: json.RawMessage(`{}`)})

	assert.ErrorIs(t, err, event.ErrUnknownEventType)
}

func TestScope(t *testing.T) {
	assert.Equal(t, event.ScopeAll, event.Scope(event.OrderCreated{}))
	assert.Equal(t, "t1", event.Scope(event.OrderCreated{Header: event.Header{TenantID: "t1"}}))
}
