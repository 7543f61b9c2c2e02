package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)

	// GetOrderForUpdate reads the order and holds a row lock on it until the
	// surrounding unit of work ends.
	GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.Order, error)

	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	InsertOrder(ctx context.Context, order domain.Order) error

	// UpdateOrder persists status, payment status, refunds and metadata.
	// Items are immutable and never rewritten. order.Version must hold the
	// version that was read; it is incremented on success.
	UpdateOrder(ctx context.Context, order *domain.Order) error
}
