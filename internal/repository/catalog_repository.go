package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ordercore/internal/db"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/samber/lo"
)

type catalogRepository struct {
	q *db.Queries
}

func NewCatalog(pool *pgxpool.Pool) port.CatalogRepository {
	return &catalogRepository{
		q: db.New(pool),
	}
}

func NewCatalogWithTx(tx pgx.Tx) port.CatalogRepository {
	return &catalogRepository{
		q: db.New(tx),
	}
}

func (r *catalogRepository) GetProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	result := make(map[uuid.UUID]domain.Product, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	rows, err := r.q.GetProductsByIDs(ctx, lo.Uniq(productIDs))
	if err != nil {
		return nil, fmt.Errorf("q.GetProductsByIDs: %w", err)
	}

	for _, row := range rows {
		price, err := toMoney(row.PriceAmount, row.PriceCurrency)
		if err != nil {
			return nil, fmt.Errorf("toMoney[%s]: %w", row.ID, err)
		}

		result[row.ID] = domain.Product{
			ID:     row.ID,
			Name:   row.Name,
			SKU:    row.Sku,
			Slug:   row.Slug,
			Price:  price,
			Active: row.Active,
		}
	}

	return result, nil
}

func (r *catalogRepository) UpsertProduct(ctx context.Context, product domain.Product) error {
	err := r.q.UpsertProduct(ctx, db.UpsertProductParams{
		ID:            product.ID,
		Name:          product.Name,
		Sku:           product.SKU,
		Slug:          product.Slug,
		PriceAmount:   product.Price.Amount,
		PriceCurrency: product.Price.Currency.String(),
		Active:        product.Active,
	})
	if err != nil {
		return fmt.Errorf("q.UpsertProduct: %w", mapPgError(err))
	}

	return nil
}
