package outbox_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/metrics"
	"github.com/nikolayk812/ordercore/internal/outbox"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockFactory struct{ mock.Mock }

func (m *mockFactory) Begin(ctx context.Context) (port.UnitOfWork, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(port.UnitOfWork), args.Error(1)
}

// mockUnitOfWork only serves the outbox.
type mockUnitOfWork struct {
	mock.Mock
	outbox *mockOutbox
}

func (m *mockUnitOfWork) Orders() port.OrderRepository                 { return nil }
func (m *mockUnitOfWork) Carts() port.CartRepository                   { return nil }
func (m *mockUnitOfWork) Payments() port.PaymentRepository             { return nil }
func (m *mockUnitOfWork) PaymentMethods() port.PaymentMethodRepository { return nil }
func (m *mockUnitOfWork) Catalog() port.CatalogRepository              { return nil }
func (m *mockUnitOfWork) Outbox() port.OutboxRepository                { return m.outbox }

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockOutbox struct{ mock.Mock }

func (m *mockOutbox) AddEvents(ctx context.Context, events ...domain.Event) error {
	return m.Called(ctx, events).Error(0)
}

func (m *mockOutbox) FetchPending(ctx context.Context, limit int) ([]port.OutboxRecord, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]port.OutboxRecord), args.Error(1)
}

func (m *mockOutbox) MarkSent(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, topic string, records []port.OutboxRecord) error {
	return m.Called(ctx, topic, records).Error(0)
}

type relayHarness struct {
	relay     *outbox.Relay
	factory   *mockFactory
	uow       *mockUnitOfWork
	outbox    *mockOutbox
	publisher *mockPublisher
	metrics   *metrics.RelayMetrics
	logs      *observer.ObservedLogs
}

func newRelayHarness(t *testing.T, batchSize int) relayHarness {
	t.Helper()

	h := relayHarness{
		factory:   &mockFactory{},
		outbox:    &mockOutbox{},
		publisher: &mockPublisher{},
		metrics:   metrics.NewRelayMetrics(prometheus.NewRegistry()),
	}
	core, logs := observer.New(zap.InfoLevel)
	h.logs = logs
	h.uow = &mockUnitOfWork{outbox: h.outbox}
	h.factory.On("Begin", mock.Anything).Return(h.uow, nil).Maybe()
	h.uow.On("Rollback", mock.Anything).Return(nil).Maybe()

	relay, err := outbox.NewRelay(outbox.RelayOptions{
		UnitOfWork: h.factory,
		Publisher:  h.publisher,
		Metrics:    h.metrics,
		Logger:     zap.New(core),
		BatchSize:  batchSize,
	})
	require.NoError(t, err)
	h.relay = relay

	t.Cleanup(func() {
		mock.AssertExpectationsForObjects(t, h.factory, h.uow, h.outbox, h.publisher)
	})

	return h
}

func record(id int64, topic string) port.OutboxRecord {
	return port.OutboxRecord{
		ID:        id,
		EventID:   uuid.New(),
		Topic:     topic,
		Key:       uuid.NewString(),
		Payload:   []byte(`{"type":"x"}`),
		CreatedAt: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	}
}

// idsMatch ignores order; topics are published concurrently.
func idsMatch(want ...int64) any {
	return mock.MatchedBy(func(ids []int64) bool {
		got := slices.Clone(ids)
		slices.Sort(got)
		return slices.Equal(got, want)
	})
}

func TestRelay_RunOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newRelayHarness(t, 10)

	orders1 := record(1, "ordercore.order")
	payment := record(2, "ordercore.payment")
	orders2 := record(3, "ordercore.order")

	h.outbox.On("FetchPending", mock.Anything, 10).Return([]port.OutboxRecord{orders1, payment, orders2}, nil).Once()
	h.publisher.On("Publish", mock.Anything, "ordercore.order", []port.OutboxRecord{orders1, orders2}).Return(nil).Once()
	h.publisher.On("Publish", mock.Anything, "ordercore.payment", []port.OutboxRecord{payment}).Return(nil).Once()
	h.outbox.On("MarkSent", mock.Anything, idsMatch(1, 2, 3)).Return(nil).Once()
	h.uow.On("Commit", mock.Anything).Return(nil).Once()

	n, err := h.relay.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.InDelta(t, 2, testutil.ToFloat64(h.metrics.Published.WithLabelValues("ordercore.order")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.Published.WithLabelValues("ordercore.payment")), 0)
}

func TestRelay_RunOnce_PartialFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newRelayHarness(t, 10)

	order := record(1, "ordercore.order")
	cart := record(2, "ordercore.cart")
	kafkaDown := errors.New("kafka: leader not available")

	h.outbox.On("FetchPending", mock.Anything, 10).Return([]port.OutboxRecord{order, cart}, nil).Once()
	h.publisher.On("Publish", mock.Anything, "ordercore.order", mock.Anything).Return(nil).Once()
	h.publisher.On("Publish", mock.Anything, "ordercore.cart", mock.Anything).Return(kafkaDown).Once()
	h.outbox.On("MarkSent", mock.Anything, []int64{1}).Return(nil).Once()
	h.uow.On("Commit", mock.Anything).Return(nil).Once()

	n, err := h.relay.RunOnce(t.Context())
	require.ErrorIs(t, err, kafkaDown)
	assert.Equal(t, 1, n)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.Failures.WithLabelValues("ordercore.cart")), 0)
}

func TestRelay_RunOnce_NothingSent(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("empty outbox", func(t *testing.T) {
		h := newRelayHarness(t, 10)
		h.outbox.On("FetchPending", mock.Anything, 10).Return([]port.OutboxRecord{}, nil).Once()

		n, err := h.relay.RunOnce(t.Context())
		require.NoError(t, err)
		assert.Zero(t, n)
		h.uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("only topic fails", func(t *testing.T) {
		h := newRelayHarness(t, 10)
		h.outbox.On("FetchPending", mock.Anything, 10).Return([]port.OutboxRecord{record(1, "ordercore.order")}, nil).Once()
		h.publisher.On("Publish", mock.Anything, "ordercore.order", mock.Anything).Return(errors.New("boom")).Once()

		_, err := h.relay.RunOnce(t.Context())
		require.Error(t, err)
		h.outbox.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything)
		h.uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("begin fails", func(t *testing.T) {
		h := newRelayHarness(t, 10)
		h.factory.ExpectedCalls = nil
		h.factory.On("Begin", mock.Anything).Return(nil, errors.New("pool closed")).Once()

		_, err := h.relay.RunOnce(t.Context())
		assert.ErrorContains(t, err, "pool closed")
	})
}

func TestRelay_Drain(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newRelayHarness(t, 2)

	first := []port.OutboxRecord{record(1, "ordercore.order"), record(2, "ordercore.order")}
	second := []port.OutboxRecord{record(3, "ordercore.order")}

	h.outbox.On("FetchPending", mock.Anything, 2).Return(first, nil).Once()
	h.outbox.On("FetchPending", mock.Anything, 2).Return(second, nil).Once()
	h.publisher.On("Publish", mock.Anything, "ordercore.order", first).Return(nil).Once()
	h.publisher.On("Publish", mock.Anything, "ordercore.order", second).Return(nil).Once()
	h.outbox.On("MarkSent", mock.Anything, idsMatch(1, 2)).Return(nil).Once()
	h.outbox.On("MarkSent", mock.Anything, []int64{3}).Return(nil).Once()
	h.uow.On("Commit", mock.Anything).Return(nil).Twice()

	total, err := h.relay.Drain(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.InDelta(t, 3, testutil.ToFloat64(h.metrics.Published.WithLabelValues("ordercore.order")), 0)

	drained := h.logs.FilterMessage("outbox drained").All()
	require.Len(t, drained, 1)
	fields := drained[0].ContextMap()
	assert.EqualValues(t, 3, fields["published"])
	assert.EqualValues(t, 2, fields["batches"])
}

func TestRelay_Drain_ReportsTotalsOnFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newRelayHarness(t, 1)

	first := []port.OutboxRecord{record(1, "ordercore.cart")}
	second := []port.OutboxRecord{record(2, "ordercore.cart")}

	h.outbox.On("FetchPending", mock.Anything, 1).Return(first, nil).Once()
	h.outbox.On("FetchPending", mock.Anything, 1).Return(second, nil).Once()
	h.publisher.On("Publish", mock.Anything, "ordercore.cart", first).Return(nil).Once()
	h.publisher.On("Publish", mock.Anything, "ordercore.cart", second).Return(errors.New("leader not available")).Once()
	h.outbox.On("MarkSent", mock.Anything, []int64{1}).Return(nil).Once()
	h.uow.On("Commit", mock.Anything).Return(nil).Once()

	total, err := h.relay.Drain(t.Context())
	assert.ErrorContains(t, err, "leader not available")
	assert.Equal(t, 1, total)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.Failures.WithLabelValues("ordercore.cart")), 0)

	stopped := h.logs.FilterMessage("outbox drain stopped").All()
	require.Len(t, stopped, 1)
	fields := stopped[0].ContextMap()
	assert.EqualValues(t, 1, fields["published"])
	assert.EqualValues(t, 2, fields["batches"])
}

func TestNewRelay_Validation(t *testing.T) {
	_, err := outbox.NewRelay(outbox.RelayOptions{Publisher: &mockPublisher{}})
	assert.Error(t, err)

	_, err = outbox.NewRelay(outbox.RelayOptions{UnitOfWork: &mockFactory{}})
	assert.Error(t, err)
}
