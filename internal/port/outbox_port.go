package port

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
)

type OutboxRecord struct {
	ID        int64
	EventID   uuid.UUID
	Topic     string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}

type OutboxRepository interface {
	AddEvents(ctx context.Context, events ...domain.Event) error
	FetchPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, ids []int64) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, records []OutboxRecord) error
}
