package port

import (
	"context"
	"errors"

	"github.com/nikolayk812/ordercore/internal/domain"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrConcurrencyConflict = domain.ErrConcurrencyConflict
)

// UnitOfWork binds repositories to a single transaction. Commit is called
// once per successful mutating command; Rollback after Commit is a no-op.
type UnitOfWork interface {
	Orders() OrderRepository
	Carts() CartRepository
	Payments() PaymentRepository
	PaymentMethods() PaymentMethodRepository
	Outbox() OutboxRepository
	Catalog() CatalogRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
