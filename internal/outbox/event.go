// Package outbox implements the transactional outbox: domain events are
// written in the same transaction as the state change and forwarded to Kafka
// by a background publisher.
package outbox

import (
	"encoding/json"
	"fmt"

	"repair_backend/internal/events"

	"github.com/google/uuid"
)

// Aggregate types stored with each row.
const (
	AggregateAppointment   = "appointment"
	AggregateRepairRequest = "repair_request"
)

// Event is the envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	EventID       uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// FromDomain encodes a domain event into an outbox envelope. Events built
// without NewBaseEvent get a fresh id.
func FromDomain(aggregateType, aggregateID string, evt events.Event) (Event, error) {
	id := evt.EventID()
	if id == uuid.Nil {
		id = uuid.New()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s: %w", evt.EventName(), err)
	}
	return Event{
		EventID:       id,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     evt.EventName(),
		Payload:       payload,
	}, nil
}
