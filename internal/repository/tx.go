package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ordercore/internal/db"
	"github.com/nikolayk812/ordercore/internal/port"
)

// withTx executes fn within a transaction if the repository was created with a pool,
// or uses the existing transaction if the repository was created with a transaction
func withTx[T any](ctx context.Context, dbtx db.DBTX, fn func(q *db.Queries) (T, error)) (_ T, txErr error) {
	var zero T

	// Check if we're already in a transaction by trying to cast to pgx.Tx
	if tx, ok := dbtx.(pgx.Tx); ok {
		// Already in a transaction, just use it
		q := db.New(tx)
		return fn(q)
	}

	// Must be a pool, create a new transaction
	pool, ok := dbtx.(*pgxpool.Pool)
	if !ok {
		return zero, fmt.Errorf("dbtx is neither pgx.Tx nor *pgxpool.Pool: %T", dbtx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return zero, err
	}

	// Ensure proper rollback handling
	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	// Create queries with transaction
	qtx := db.New(tx)

	// Execute the function with transaction queries
	result, err := fn(qtx)
	if err != nil {
		return zero, err
	}

	// Commit the transaction
	if err := tx.Commit(ctx); err != nil {
		return zero, err
	}

	return result, nil
}

func withTxNoResult(ctx context.Context, dbtx db.DBTX, fn func(q *db.Queries) error) error {
	_, err := withTx(ctx, dbtx, func(q *db.Queries) (struct{}, error) {
		return struct{}{}, fn(q)
	})
	return err
}

// affectedOrConflict turns a zero-row optimistic update into either
// ErrNotFound or ErrConcurrencyConflict.
func affectedOrConflict(ctx context.Context, rows int64, exists func(context.Context) (bool, error)) error {
	if rows > 0 {
		return nil
	}

	found, err := exists(ctx)
	if err != nil {
		return fmt.Errorf("exists: %w", err)
	}
	if !found {
		return port.ErrNotFound
	}
	return port.ErrConcurrencyConflict
}

type unitOfWorkFactory struct {
	pool *pgxpool.Pool
}

func NewUnitOfWorkFactory(pool *pgxpool.Pool) port.UnitOfWorkFactory {
	return &unitOfWorkFactory{pool: pool}
}

func (f *unitOfWorkFactory) Begin(ctx context.Context) (port.UnitOfWork, error) {
	tx, err := f.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pool.Begin: %w", err)
	}

	return &unitOfWork{
		tx:             tx,
		orders:         NewOrderWithTx(tx),
		carts:          NewCartWithTx(tx),
		payments:       NewPaymentWithTx(tx),
		paymentMethods: NewPaymentMethodWithTx(tx),
		outbox:         NewOutboxWithTx(tx),
		catalog:        NewCatalogWithTx(tx),
	}, nil
}

type unitOfWork struct {
	tx pgx.Tx

	orders         port.OrderRepository
	carts          port.CartRepository
	payments       port.PaymentRepository
	paymentMethods port.PaymentMethodRepository
	outbox         port.OutboxRepository
	catalog        port.CatalogRepository
}

func (u *unitOfWork) Orders() port.OrderRepository                 { return u.orders }
func (u *unitOfWork) Carts() port.CartRepository                   { return u.carts }
func (u *unitOfWork) Payments() port.PaymentRepository             { return u.payments }
func (u *unitOfWork) PaymentMethods() port.PaymentMethodRepository { return u.paymentMethods }
func (u *unitOfWork) Outbox() port.OutboxRepository                { return u.outbox }
func (u *unitOfWork) Catalog() port.CatalogRepository              { return u.catalog }

func (u *unitOfWork) Commit(ctx context.Context) error {
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx.Commit: %w", err)
	}
	return nil
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("tx.Rollback: %w", err)
	}
	return nil
}
