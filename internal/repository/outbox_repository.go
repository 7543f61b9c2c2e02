package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ordercore/internal/db"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/samber/lo"
)

type outboxRepository struct {
	q    *db.Queries
	dbtx db.DBTX
}

func NewOutbox(pool *pgxpool.Pool) port.OutboxRepository {
	return &outboxRepository{
		q:    db.New(pool),
		dbtx: pool,
	}
}

func NewOutboxWithTx(tx pgx.Tx) port.OutboxRepository {
	return &outboxRepository{
		q:    db.New(tx),
		dbtx: tx, // use provided transaction instead
	}
}

// envelope is the message body written to the outbox and later to Kafka.
type envelope struct {
	ID          uuid.UUID      `json:"id"`
	Type        string         `json:"type"`
	AggregateID uuid.UUID      `json:"aggregateId"`
	OccurredAt  time.Time      `json:"occurredAt"`
	Payload     map[string]any `json:"payload"`
}

func (r *outboxRepository) AddEvents(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	if err := withTxNoResult(ctx, r.dbtx, func(q *db.Queries) error {
		for _, e := range events {
			payload, err := json.Marshal(envelope{
				ID:          e.ID,
				Type:        e.Type,
				AggregateID: e.AggregateID,
				OccurredAt:  e.OccurredAt.UTC(),
				Payload:     e.Payload,
			})
			if err != nil {
				return fmt.Errorf("json.Marshal[%s]: %w", e.Type, err)
			}

			err = q.InsertOutboxEvent(ctx, db.InsertOutboxEventParams{
				EventID:   e.ID,
				Topic:     e.Topic(),
				Key:       e.AggregateID.String(),
				Payload:   payload,
				CreatedAt: e.OccurredAt,
			})
			if err != nil {
				return fmt.Errorf("q.InsertOutboxEvent: %w", mapPgError(err))
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

// FetchPending locks the returned rows until the surrounding transaction
// ends, so it is only useful on a repository bound to a transaction.
func (r *outboxRepository) FetchPending(ctx context.Context, limit int) ([]port.OutboxRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive: %d", limit)
	}

	rows, err := r.q.FetchPendingOutbox(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("q.FetchPendingOutbox: %w", err)
	}

	return lo.Map(rows, func(row db.Outbox, _ int) port.OutboxRecord {
		return port.OutboxRecord{
			ID:        row.ID,
			EventID:   row.EventID,
			Topic:     row.Topic,
			Key:       row.Key,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
			SentAt:    row.SentAt,
		}
	}), nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	if err := r.q.MarkOutboxSent(ctx, ids); err != nil {
		return fmt.Errorf("q.MarkOutboxSent: %w", err)
	}

	return nil
}
