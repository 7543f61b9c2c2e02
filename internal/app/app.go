package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckoutPolicy prices an order built from a cart.
type CheckoutPolicy struct {
	TaxRate decimal.Decimal
	// FlatShipping is charged unless the subtotal reaches FreeShippingThreshold.
	// A zero threshold disables free shipping.
	FlatShipping          domain.Money
	FreeShippingThreshold domain.Money
}

type Options struct {
	UnitOfWork port.UnitOfWorkFactory
	Payments   port.PaymentService
	Logger     *zap.Logger
	Checkout   CheckoutPolicy
	// WebhookCacheSize bounds the in-process set of seen webhook event ids.
	WebhookCacheSize int
	Now              func() time.Time
}

// App holds every command and query handler. Handlers never panic across
// this boundary; failures are *domain.Error values.
type App struct {
	uow      port.UnitOfWorkFactory
	payments port.PaymentService
	logger   *zap.Logger
	checkout CheckoutPolicy
	now      func() time.Time

	seenWebhooks *lru.Cache[string, struct{}]
}

func New(opts Options) (*App, error) {
	if opts.UnitOfWork == nil {
		return nil, errors.New("unit of work factory is required")
	}
	if opts.Payments == nil {
		return nil, errors.New("payment service is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.WebhookCacheSize <= 0 {
		opts.WebhookCacheSize = 10_000
	}

	seen, err := lru.New[string, struct{}](opts.WebhookCacheSize)
	if err != nil {
		return nil, fmt.Errorf("lru.New: %w", err)
	}

	return &App{
		uow:          opts.UnitOfWork,
		payments:     opts.Payments,
		logger:       opts.Logger,
		checkout:     opts.Checkout,
		now:          opts.Now,
		seenWebhooks: seen,
	}, nil
}

// change tells inTx whether to commit.
type change bool

const (
	unchanged change = false
	changed   change = true
)

// inTx runs fn in a fresh unit of work. The unit of work is committed only
// when fn succeeds and reports a change; it is rolled back otherwise.
// Errors are translated with the entity and operation names.
func inTx[T any](ctx context.Context, a *App, entity, operation string, fn func(uow port.UnitOfWork) (T, change, error)) (T, error) {
	var zero T

	uow, err := a.uow.Begin(ctx)
	if err != nil {
		return zero, a.fail(entity, operation, err)
	}

	defer func() {
		if err := uow.Rollback(ctx); err != nil {
			a.logger.Warn("rollback failed", zap.String("operation", entity+"."+operation), zap.Error(err))
		}
	}()

	result, mutated, err := fn(uow)
	if err != nil {
		return zero, a.fail(entity, operation, err)
	}

	if mutated {
		if err := uow.Commit(ctx); err != nil {
			return zero, a.fail(entity, operation, err)
		}
	}

	return result, nil
}

// fail converts err into a *domain.Error. Domain errors pass through,
// lost updates become <Entity>.ConcurrencyConflict and anything else is
// wrapped as <Entity>.<Operation>Failed.
func (a *App) fail(entity, operation string, err error) error {
	if de, ok := domain.AsError(err); ok {
		return de
	}

	if errors.Is(err, port.ErrConcurrencyConflict) {
		return &domain.Error{
			Code:    entity + ".ConcurrencyConflict",
			Message: fmt.Sprintf("%s was modified concurrently, reload and retry", entity),
			Kind:    domain.ErrorKindConflict,
			Err:     err,
		}
	}

	code := entity + "." + operation + "Failed"
	a.logger.Error("command failed", zap.String("code", code), zap.Error(err))

	return domain.Internal(code, err)
}

func notFound(entity string, id fmt.Stringer) *domain.Error {
	return domain.NotFound(entity+".NotFound", fmt.Sprintf("%s %s was not found", entity, id))
}

// load maps port.ErrNotFound to <Entity>.NotFound and passes other errors through.
func load[T any](entity string, id fmt.Stringer, fetch func() (T, error)) (T, error) {
	v, err := fetch()
	if errors.Is(err, port.ErrNotFound) {
		var zero T
		return zero, notFound(entity, id)
	}
	return v, err
}
