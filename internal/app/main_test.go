package app_test

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/app"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2026, time.March, 2, 10, 30, 0, 0, time.UTC)

type harness struct {
	app *app.App

	factory  *mockUnitOfWorkFactory
	uow      *mockUnitOfWork
	orders   *mockOrderRepository
	carts    *mockCartRepository
	payments *mockPaymentRepository
	methods  *mockPaymentMethodRepository
	outbox   *mockOutboxRepository
	catalog  *mockCatalogRepository
	provider *mockPaymentService
}

// newHarness wires an App to fresh mocks. Rollback is always allowed since
// every unit of work defers it; Commit must be expected explicitly.
func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		factory:  new(mockUnitOfWorkFactory),
		orders:   new(mockOrderRepository),
		carts:    new(mockCartRepository),
		payments: new(mockPaymentRepository),
		methods:  new(mockPaymentMethodRepository),
		outbox:   new(mockOutboxRepository),
		catalog:  new(mockCatalogRepository),
		provider: new(mockPaymentService),
	}
	h.uow = &mockUnitOfWork{
		orders:   h.orders,
		carts:    h.carts,
		payments: h.payments,
		methods:  h.methods,
		outbox:   h.outbox,
		catalog:  h.catalog,
	}

	h.factory.On("Begin", mock.Anything).Return(h.uow, nil).Maybe()
	h.uow.On("Rollback", mock.Anything).Return(nil).Maybe()

	a, err := app.New(app.Options{
		UnitOfWork: h.factory,
		Payments:   h.provider,
		Logger:     zap.NewNop(),
		Checkout: app.CheckoutPolicy{
			TaxRate:               decimal.RequireFromString("0.08"),
			FlatShipping:          domain.MustMoney("5.00", "USD"),
			FreeShippingThreshold: domain.MustMoney("100.00", "USD"),
		},
		WebhookCacheSize: 16,
		Now:              func() time.Time { return now },
	})
	require.NoError(t, err)
	h.app = a

	t.Cleanup(func() {
		mock.AssertExpectationsForObjects(t, h.factory, h.uow, h.orders, h.carts, h.payments, h.methods, h.outbox, h.catalog, h.provider)
	})

	return h
}

func (h *harness) expectCommit() {
	h.uow.On("Commit", mock.Anything).Return(nil).Once()
}

func (h *harness) expectEvents(types ...string) {
	h.outbox.On("AddEvents", mock.Anything, mock.MatchedBy(func(events []domain.Event) bool {
		if len(events) != len(types) {
			return false
		}
		for i, e := range events {
			if e.Type != types[i] {
				return false
			}
		}
		return true
	})).Return(nil).Once()
}

func (h *harness) assertNoCommit(t *testing.T) {
	t.Helper()
	h.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func (h *harness) givenOrder(o domain.Order) {
	h.orders.On("GetOrder", mock.Anything, o.ID).Return(o, nil)
}

// givenLockedOrder serves o to callers that read it with a row lock.
func (h *harness) givenLockedOrder(o domain.Order) {
	h.orders.On("GetOrderForUpdate", mock.Anything, o.ID).Return(o, nil)
}

// newOrder builds a pending order with one line whose subtotal, tax and
// shipping are given in USD.
func newOrder(t *testing.T, userID uuid.UUID, subtotal, tax, shipping string) domain.Order {
	t.Helper()

	sub := domain.MustMoney(subtotal, "USD")

	order, err := domain.NewOrder(domain.NewOrderParams{
		UserID:            userID,
		ShippingAddressID: uuid.New(),
		BillingAddressID:  uuid.New(),
		Items: []domain.OrderItem{{
			ProductID:   uuid.New(),
			ProductName: gofakeit.ProductName(),
			SKU:         gofakeit.LetterN(8),
			Slug:        gofakeit.Word(),
			UnitPrice:   sub,
			Quantity:    1,
		}},
		Subtotal:     sub,
		Tax:          domain.MustMoney(tax, "USD"),
		ShippingCost: domain.MustMoney(shipping, "USD"),
		Now:          now.Add(-time.Hour),
	})
	require.NoError(t, err)

	return order
}

// orderIn moves a fresh order to status along the legal path.
func orderIn(t *testing.T, userID uuid.UUID, status domain.OrderStatus) domain.Order {
	t.Helper()

	o := newOrder(t, userID, "100.00", "10.00", "5.00")
	at := now.Add(-30 * time.Minute)

	steps := map[domain.OrderStatus][]func() error{
		domain.OrderStatusPending:    nil,
		domain.OrderStatusProcessing: {func() error { return o.MarkAsPaid("pi_seed", at) }},
		domain.OrderStatusShipped: {
			func() error { return o.MarkAsPaid("pi_seed", at) },
			func() error { return o.MarkAsShipped("TRK", "", at) },
		},
		domain.OrderStatusDelivered: {
			func() error { return o.MarkAsPaid("pi_seed", at) },
			func() error { return o.MarkAsShipped("TRK", "", at) },
			func() error { return o.MarkAsDelivered("", at) },
		},
		domain.OrderStatusReturned: {
			func() error { return o.MarkAsPaid("pi_seed", at) },
			func() error { return o.MarkAsShipped("TRK", "", at) },
			func() error { return o.MarkAsDelivered("", at) },
			func() error { return o.MarkAsReturned("", at) },
		},
		domain.OrderStatusCancelled: {func() error { return o.Cancel("", at) }},
	}

	for _, step := range steps[status] {
		require.NoError(t, step())
	}
	require.Equal(t, status, o.Status)

	return o
}

func assertDomainError(t *testing.T, err error, code string, kind domain.ErrorKind) *domain.Error {
	t.Helper()

	require.Error(t, err)
	de, ok := domain.AsError(err)
	require.True(t, ok, "not a domain error: %v", err)
	assert.Equal(t, code, de.Code)
	assert.Equal(t, kind, de.Kind)

	return de
}

func newCardMethod(t *testing.T, userID uuid.UUID, isDefault bool) domain.PaymentMethod {
	t.Helper()

	pm, err := domain.NewPaymentMethod(domain.NewPaymentMethodParams{
		UserID:   userID,
		Type:     domain.PaymentMethodCreditCard,
		Provider: domain.ProviderStripe,
		Token:    "tok_" + gofakeit.LetterN(12),
		Card: &domain.CardDetails{
			Brand:    "Visa",
			Last4:    gofakeit.DigitN(4),
			ExpMonth: 12,
			ExpYear:  now.Year() + 2,
		},
		IsDefault: isDefault,
		Now:       now.Add(-24 * time.Hour),
	})
	require.NoError(t, err)

	pm.Metadata.SetString(domain.MetaProviderCustomerID, "cus_"+userID.String()[:8])
	return pm
}

var _ port.UnitOfWork = (*mockUnitOfWork)(nil)
