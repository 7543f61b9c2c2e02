package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPlaced          = "order.placed"
	EventOrderStatusChanged   = "order.status_changed"
	EventOrderPaid            = "order.paid"
	EventOrderRefunded        = "order.refunded"
	EventPaymentRecorded      = "payment.recorded"
	EventPaymentStatusChanged = "payment.status_changed"
	EventCartAssigned         = "cart.assigned"
	EventDefaultMethodChanged = "payment_method.default_changed"
)

// Event is an integration event written to the outbox in the same
// transaction as the state change it describes. Topic is derived from Type.
type Event struct {
	ID          uuid.UUID
	Type        string
	AggregateID uuid.UUID
	Payload     map[string]any
	OccurredAt  time.Time
}

func NewEvent(eventType string, aggregateID uuid.UUID, payload map[string]any, now time.Time) Event {
	return Event{
		ID:          uuid.New(),
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     payload,
		OccurredAt:  now,
	}
}

// Topic groups events by aggregate, e.g. "order.paid" goes to "ordercore.order".
func (e Event) Topic() string {
	for i := 0; i < len(e.Type); i++ {
		if e.Type[i] == '.' {
			return "ordercore." + e.Type[:i]
		}
	}
	return "ordercore." + e.Type
}

func OrderStatusChangedEvent(o Order, from OrderStatus, actor Actor, now time.Time) Event {
	return NewEvent(EventOrderStatusChanged, o.ID, map[string]any{
		"orderId":        o.ID.String(),
		"orderNumber":    o.Number,
		"previousStatus": string(from),
		"currentStatus":  string(o.Status),
		"actor":          actor.String(),
	}, now)
}
