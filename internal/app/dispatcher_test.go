package app_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/app"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDispatch(t *testing.T) {
	h := newHarness(t)
	m := metrics.NewCommandMetrics(prometheus.NewRegistry())
	d := app.NewDispatcher(h.app, m)

	owner := uuid.New()
	order := orderIn(t, owner, domain.OrderStatusPending)
	h.givenOrder(order)

	result, err := d.Dispatch(t.Context(), domain.User(owner), app.GetOrder{OrderID: order.ID})
	require.NoError(t, err)
	actual, ok := result.(domain.Order)
	require.True(t, ok)
	assert.Equal(t, order.ID, actual.ID)

	_, err = d.Dispatch(t.Context(), domain.User(owner), app.CancelOrder{OrderID: order.ID, Reason: string(make([]rune, domain.MaxReasonLength+1))})
	assert.Equal(t, "Order.ReasonTooLong", domain.ErrorCode(err))

	_, err = d.Dispatch(t.Context(), domain.System(), struct{ Name string }{"noop"})
	assert.Equal(t, "Dispatcher.UnknownCommand", domain.ErrorCode(err))

	assert.InDelta(t, 1, testutil.ToFloat64(m.Commands.WithLabelValues("GetOrder", metrics.OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Commands.WithLabelValues("CancelOrder", "Order.ReasonTooLong")), 0)
	assert.Equal(t, 3, testutil.CollectAndCount(m.Commands))
	assert.Equal(t, 3, testutil.CollectAndCount(m.LatencyMS))
}

func TestDispatch_InternalErrorOutcome(t *testing.T) {
	h := newHarness(t)
	m := metrics.NewCommandMetrics(prometheus.NewRegistry())
	d := app.NewDispatcher(h.app, m)

	h.factory.ExpectedCalls = nil
	h.factory.On("Begin", mock.Anything).Return(nil, errors.New("pool closed"))

	_, err := d.Dispatch(t.Context(), domain.System(), app.ListOrders{})
	assert.Equal(t, "Order.ListFailed", domain.ErrorCode(err))
	assert.InDelta(t, 1, testutil.ToFloat64(m.Commands.WithLabelValues("ListOrders", "Order.ListFailed")), 0)
}

func TestDispatch_WithoutMetrics(t *testing.T) {
	h := newHarness(t)
	d := app.NewDispatcher(h.app, nil)

	h.carts.On("InsertCart", mock.Anything, mock.Anything).Return(nil)
	h.expectCommit()

	result, err := d.Dispatch(t.Context(), domain.Anonymous(), app.CreateCart{})
	require.NoError(t, err)
	assert.IsType(t, domain.Cart{}, result)
}
