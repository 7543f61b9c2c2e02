package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
)

// CatalogRepository reads product snapshots for checkout. UpsertProduct
// exists for seeding; the catalog is owned by another service.
type CatalogRepository interface {
	// GetProducts returns the products found; missing ids are absent from the map.
	GetProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.Product, error)
	UpsertProduct(ctx context.Context, product domain.Product) error
}
