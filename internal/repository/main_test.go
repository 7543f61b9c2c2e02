package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ordercore/internal/db"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/text/currency"
)

// startPostgres runs a throwaway postgres and returns its connection string.
// The schema is applied by startPostgresPool.
func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("ordercore"),
		postgres.WithUsername("ordercore"),
		postgres.WithPassword("ordercore"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", fmt.Errorf("container.ConnectionString: %w", err)
	}

	return container, connStr, nil
}

func startPostgresPool(ctx context.Context) (testcontainers.Container, *pgxpool.Pool, error) {
	container, connStr, err := startPostgres(ctx)
	if err != nil {
		return container, nil, err
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return container, nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if _, err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return container, nil, fmt.Errorf("db.Migrate: %w", err)
	}

	return container, pool, nil
}

// currencies postgres-stored fixtures are drawn from; all have two decimals.
var currencies = []currency.Unit{currency.EUR, currency.USD, currency.GBP, currency.CHF}

func randomCurrency() currency.Unit {
	return currencies[gofakeit.Number(0, len(currencies)-1)]
}

func randomMoney(unit currency.Unit, from, to float64) domain.Money {
	return domain.Money{
		Amount:   decimal.NewFromFloat(gofakeit.Price(from, to)).Round(2),
		Currency: unit,
	}
}

func randomOrder() domain.Order {
	unit := randomCurrency() // it has to be the same for all items
	now := time.Now().UTC().Truncate(time.Microsecond)

	var items []domain.OrderItem
	for i := 0; i < gofakeit.Number(1, 5); i++ {
		items = append(items, randomOrderItem(unit, now))
	}

	subtotal, err := domain.Sum(unit, lineTotals(items)...)
	if err != nil {
		panic(err)
	}

	order, err := domain.NewOrder(domain.NewOrderParams{
		UserID:            uuid.New(),
		ShippingAddressID: uuid.New(),
		BillingAddressID:  uuid.New(),
		Items:             items,
		Subtotal:          subtotal,
		Tax:               randomMoney(unit, 0, 20),
		ShippingCost:      randomMoney(unit, 0, 10),
		Now:               now,
	})
	if err != nil {
		panic(err)
	}

	return order
}

func lineTotals(items []domain.OrderItem) []domain.Money {
	var totals []domain.Money
	for _, item := range items {
		totals = append(totals, item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return totals
}

func randomOrderItem(unit currency.Unit, now time.Time) domain.OrderItem {
	return domain.OrderItem{
		ID:          uuid.New(),
		ProductID:   uuid.New(),
		ProductName: gofakeit.ProductName(),
		SKU:         gofakeit.LetterN(8),
		Slug:        gofakeit.Word(),
		UnitPrice:   randomMoney(unit, 1, 100),
		Quantity:    gofakeit.Number(1, 4),
		CreatedAt:   now,
	}
}

var currencyComparer = cmp.Comparer(func(x, y currency.Unit) bool {
	return x.String() == y.String()
})

var decimalComparer = cmp.Comparer(func(x, y decimal.Decimal) bool {
	return x.Equal(y)
})

func assertOrder(t *testing.T, expected, actual domain.Order) {
	t.Helper()

	// Treat empty slices as equal to nil
	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.OrderItem{}, "CreatedAt"),
		cmpopts.IgnoreFields(domain.Order{}, "CreatedAt", "UpdatedAt"),
		cmpopts.EquateEmpty(),
		cmpopts.SortSlices(func(a, b domain.OrderItem) bool { return a.ID.String() < b.ID.String() }),
		cmpopts.EquateApproxTime(time.Millisecond),
		currencyComparer,
		decimalComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.False(t, actual.CreatedAt.IsZero())
	assert.False(t, actual.UpdatedAt.IsZero())
}
