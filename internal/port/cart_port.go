package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
)

type CartRepository interface {
	GetCart(ctx context.Context, cartID uuid.UUID) (domain.Cart, error)
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (domain.Cart, error)
	GetCartByItemID(ctx context.Context, itemID uuid.UUID) (domain.Cart, error)

	InsertCart(ctx context.Context, cart domain.Cart) error

	// UpdateCart replaces owner, metadata and the full item set.
	UpdateCart(ctx context.Context, cart *domain.Cart) error
}
