package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/samber/lo"
	"github.com/segmentio/kafka-go"
)

// HeaderEventID carries the outbox event id so consumers can deduplicate.
const HeaderEventID = "event_id"

// KafkaPublisher keeps one writer per topic. Messages are keyed by aggregate
// id so events of one aggregate stay in one partition.
type KafkaPublisher struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

var _ port.EventPublisher = (*KafkaPublisher)(nil)

func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}

	return &KafkaPublisher{
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, records []port.OutboxRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := p.writer(topic).WriteMessages(ctx, toMessages(records)...); err != nil {
		return fmt.Errorf("writer.WriteMessages[%s]: %w", topic, err)
	}

	return nil
}

func (p *KafkaPublisher) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:                   kafka.TCP(p.brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
		p.writers[topic] = w
	}
	return w
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer[%s]: %w", topic, err))
		}
	}
	clear(p.writers)

	return errors.Join(errs...)
}

func toMessages(records []port.OutboxRecord) []kafka.Message {
	return lo.Map(records, func(r port.OutboxRecord, _ int) kafka.Message {
		return kafka.Message{
			Key:   []byte(r.Key),
			Value: r.Payload,
			Time:  r.CreatedAt.UTC(),
			Headers: []kafka.Header{
				{Key: HeaderEventID, Value: []byte(r.EventID.String())},
			},
		}
	})
}
