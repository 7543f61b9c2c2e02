package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nikolayk812/ordercore/internal/metrics"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultBatchSize = 100

type RelayOptions struct {
	UnitOfWork port.UnitOfWorkFactory
	Publisher  port.EventPublisher
	Metrics    *metrics.RelayMetrics
	Logger     *zap.Logger
	BatchSize  int
}

// Relay moves pending outbox rows to the event publisher. Delivery is at
// least once: rows are marked sent only after their topic was published.
type Relay struct {
	uow       port.UnitOfWorkFactory
	publisher port.EventPublisher
	metrics   *metrics.RelayMetrics
	logger    *zap.Logger
	batchSize int
}

func NewRelay(opts RelayOptions) (*Relay, error) {
	if opts.UnitOfWork == nil {
		return nil, errors.New("unit of work factory is required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}

	return &Relay{
		uow:       opts.UnitOfWork,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		batchSize: opts.BatchSize,
	}, nil
}

// RunOnce publishes one batch. Topics are published concurrently; ids of
// topics that made it are marked sent even when another topic failed, and
// the publish error is returned alongside the count.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	uow, err := r.uow.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("uow.Begin: %w", err)
	}
	defer func() {
		if err := uow.Rollback(ctx); err != nil {
			r.logger.Warn("outbox rollback failed", zap.Error(err))
		}
	}()

	records, err := uow.Outbox().FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("outbox.FetchPending: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	byTopic := lo.GroupBy(records, func(rec port.OutboxRecord) string { return rec.Topic })

	var (
		mu   sync.Mutex
		sent []int64
	)

	g, gctx := errgroup.WithContext(ctx)
	for topic, batch := range byTopic {
		g.Go(func() error {
			start := time.Now()
			if err := r.publisher.Publish(gctx, topic, batch); err != nil {
				r.observeFailure(topic)
				return fmt.Errorf("publish[%s]: %w", topic, err)
			}
			r.observePublished(topic, len(batch))

			r.logger.Debug("outbox topic published",
				zap.String("topic", topic),
				zap.Int("count", len(batch)),
				zap.Duration("elapsed", time.Since(start)))

			mu.Lock()
			sent = append(sent, lo.Map(batch, func(rec port.OutboxRecord, _ int) int64 { return rec.ID })...)
			mu.Unlock()
			return nil
		})
	}
	publishErr := g.Wait()

	if len(sent) == 0 {
		return 0, publishErr
	}

	if err := uow.Outbox().MarkSent(ctx, sent); err != nil {
		return 0, errors.Join(publishErr, fmt.Errorf("outbox.MarkSent: %w", err))
	}
	if err := uow.Commit(ctx); err != nil {
		return 0, errors.Join(publishErr, fmt.Errorf("uow.Commit: %w", err))
	}

	return len(sent), publishErr
}

// Drain runs batches until a batch comes back short or fails.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	start := time.Now()
	total, batches := 0, 0
	for {
		n, err := r.RunOnce(ctx)
		total += n
		batches++
		if err != nil {
			r.logger.Error("outbox drain stopped",
				zap.Int("published", total),
				zap.Int("batches", batches),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return total, err
		}
		if n < r.batchSize {
			r.logger.Info("outbox drained",
				zap.Int("published", total),
				zap.Int("batches", batches),
				zap.Duration("elapsed", time.Since(start)))
			return total, nil
		}
	}
}

func (r *Relay) observePublished(topic string, n int) {
	if r.metrics != nil {
		r.metrics.Published.WithLabelValues(topic).Add(float64(n))
	}
}

func (r *Relay) observeFailure(topic string) {
	if r.metrics != nil {
		r.metrics.Failures.WithLabelValues(topic).Inc()
	}
}
