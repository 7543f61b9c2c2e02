package app_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/stretchr/testify/mock"
)

type mockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *mockUnitOfWorkFactory) Begin(ctx context.Context) (port.UnitOfWork, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(port.UnitOfWork), args.Error(1)
}

// mockUnitOfWork hands out the repository mocks; only Commit and Rollback
// are recorded.
type mockUnitOfWork struct {
	mock.Mock

	orders   *mockOrderRepository
	carts    *mockCartRepository
	payments *mockPaymentRepository
	methods  *mockPaymentMethodRepository
	outbox   *mockOutboxRepository
	catalog  *mockCatalogRepository
}

func (m *mockUnitOfWork) Orders() port.OrderRepository                 { return m.orders }
func (m *mockUnitOfWork) Carts() port.CartRepository                   { return m.carts }
func (m *mockUnitOfWork) Payments() port.PaymentRepository             { return m.payments }
func (m *mockUnitOfWork) PaymentMethods() port.PaymentMethodRepository { return m.methods }
func (m *mockUnitOfWork) Outbox() port.OutboxRepository                { return m.outbox }
func (m *mockUnitOfWork) Catalog() port.CatalogRepository              { return m.catalog }

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *mockOrderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) InsertOrder(ctx context.Context, order domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) UpdateOrder(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) GetCart(ctx context.Context, cartID uuid.UUID) (domain.Cart, error) {
	args := m.Called(ctx, cartID)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *mockCartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *mockCartRepository) GetCartByItemID(ctx context.Context, itemID uuid.UUID) (domain.Cart, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(domain.Cart), args.Error(1)
}

func (m *mockCartRepository) InsertCart(ctx context.Context, cart domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) UpdateCart(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

type mockPaymentRepository struct {
	mock.Mock
}

func (m *mockPaymentRepository) GetPayment(ctx context.Context, paymentID uuid.UUID) (domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) GetPaymentByExternalReference(ctx context.Context, transactionID string) (domain.Payment, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) ListPaymentsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Payment, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) ListPaymentsByPaymentMethodID(ctx context.Context, paymentMethodID uuid.UUID) ([]domain.Payment, error) {
	args := m.Called(ctx, paymentMethodID)
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) InsertPayment(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockPaymentRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

type mockPaymentMethodRepository struct {
	mock.Mock
}

func (m *mockPaymentMethodRepository) GetPaymentMethod(ctx context.Context, paymentMethodID uuid.UUID) (domain.PaymentMethod, error) {
	args := m.Called(ctx, paymentMethodID)
	return args.Get(0).(domain.PaymentMethod), args.Error(1)
}

func (m *mockPaymentMethodRepository) ListPaymentMethodsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.PaymentMethod, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.PaymentMethod), args.Error(1)
}

func (m *mockPaymentMethodRepository) InsertPaymentMethod(ctx context.Context, pm domain.PaymentMethod) error {
	args := m.Called(ctx, pm)
	return args.Error(0)
}

func (m *mockPaymentMethodRepository) UpdatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) error {
	args := m.Called(ctx, pm)
	return args.Error(0)
}

func (m *mockPaymentMethodRepository) DeletePaymentMethod(ctx context.Context, paymentMethodID uuid.UUID) error {
	args := m.Called(ctx, paymentMethodID)
	return args.Error(0)
}

type mockOutboxRepository struct {
	mock.Mock
}

func (m *mockOutboxRepository) AddEvents(ctx context.Context, events ...domain.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *mockOutboxRepository) FetchPending(ctx context.Context, limit int) ([]port.OutboxRecord, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]port.OutboxRecord), args.Error(1)
}

func (m *mockOutboxRepository) MarkSent(ctx context.Context, ids []int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type mockCatalogRepository struct {
	mock.Mock
}

func (m *mockCatalogRepository) GetProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	args := m.Called(ctx, productIDs)
	return args.Get(0).(map[uuid.UUID]domain.Product), args.Error(1)
}

func (m *mockCatalogRepository) UpsertProduct(ctx context.Context, product domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) ProcessPayment(ctx context.Context, req port.ProcessPaymentRequest) (port.PaymentResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(port.PaymentResult), args.Error(1)
}

func (m *mockPaymentService) ProcessWebhook(ctx context.Context, req port.WebhookRequest) (port.WebhookResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(port.WebhookResult), args.Error(1)
}

func (m *mockPaymentService) GetOrCreateCustomer(ctx context.Context, userID uuid.UUID, provider domain.PaymentProvider) (port.Customer, error) {
	args := m.Called(ctx, userID, provider)
	return args.Get(0).(port.Customer), args.Error(1)
}

func (m *mockPaymentService) AttachPaymentMethodToCustomer(ctx context.Context, customer port.Customer, token string) error {
	args := m.Called(ctx, customer, token)
	return args.Error(0)
}

func (m *mockPaymentService) DetachPaymentMethodFromCustomer(ctx context.Context, customer port.Customer, token string) error {
	args := m.Called(ctx, customer, token)
	return args.Error(0)
}
