package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is bumped on incompatible payload changes.
const EnvelopeVersion = 1

// ErrUnknownEventType is returned by Decode for a discriminator this build does
// not know. Consumers log and skip such envelopes.
var ErrUnknownEventType = errors.New("unknown event type")

// Envelope is the wire form shared by the event bus and the notification topic.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     Type            `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	Source        string          `json:"source"`
	Scope         string          `json:"scope"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Encode wraps e in an envelope tagged with source. The order id is used as
// correlation id so that all events of one order share a partition key.
func Encode(e Event, source string) (Envelope, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", e.EventType(), err)
	}

	h := e.EventHeader()
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     e.EventType(),
		EventVersion:  EnvelopeVersion,
		Source:        source,
		Scope:         Scope(e),
		OccurredAt:    h.OccurredAt,
		CorrelationID: h.OrderID,
		Payload:       payload,
	}, nil
}

// Decode returns the concrete variant held by env.
func Decode(env Envelope) (Event, error) {
	switch env.EventType {
	case TypeOrderCreated:
		return decodePayload[OrderCreated](env)
	case TypeOrderStatusChanged:
		return decodePayload[OrderStatusChanged](env)
	case TypeOrderAssigned:
		return decodePayload[OrderAssigned](env)
	case TypeOrderReady:
		return decodePayload[OrderReady](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.EventType)
	}
}

// Unmarshal parses raw envelope bytes and decodes the payload in one step.
func Unmarshal(raw []byte) (Envelope, Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, nil, fmt.Errorf("decode envelope: %w", err)
	}

	e, err := Decode(env)
	return env, e, err
}

func decodePayload[T Event](env Envelope) (Event, error) {
	var e T
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	return e, nil
}
