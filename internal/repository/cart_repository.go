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
)

type cartRepository struct {
	q    *db.Queries
	dbtx db.DBTX
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{
		q:    db.New(pool),
		dbtx: pool,
	}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{
		q:    db.New(tx),
		dbtx: tx, // use provided transaction instead
	}
}

func (r *cartRepository) GetCart(ctx context.Context, cartID uuid.UUID) (domain.Cart, error) {
	var c domain.Cart

	dbCart, err := r.q.GetCart(ctx, cartID)
	if err != nil {
		return c, fmt.Errorf("q.GetCart: %w", mapPgError(err))
	}

	return r.loadItems(ctx, dbCart)
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	var c domain.Cart

	dbCart, err := r.q.GetCartByUserID(ctx, &userID)
	if err != nil {
		return c, fmt.Errorf("q.GetCartByUserID: %w", mapPgError(err))
	}

	return r.loadItems(ctx, dbCart)
}

func (r *cartRepository) GetCartByItemID(ctx context.Context, itemID uuid.UUID) (domain.Cart, error) {
	var c domain.Cart

	cartID, err := r.q.GetCartIDByItemID(ctx, itemID)
	if err != nil {
		return c, fmt.Errorf("q.GetCartIDByItemID: %w", mapPgError(err))
	}

	return r.GetCart(ctx, cartID)
}

func (r *cartRepository) loadItems(ctx context.Context, dbCart db.Cart) (domain.Cart, error) {
	var c domain.Cart

	dbCartItems, err := r.q.GetCartItems(ctx, dbCart.ID)
	if err != nil {
		return c, fmt.Errorf("q.GetCartItems: %w", err)
	}

	cart, err := mapDBCartToDomain(dbCart, dbCartItems)
	if err != nil {
		return c, fmt.Errorf("mapDBCartToDomain: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) InsertCart(ctx context.Context, cart domain.Cart) error {
	metadata, err := domain.MarshalMetadata(cart.Metadata)
	if err != nil {
		return fmt.Errorf("domain.MarshalMetadata: %w", err)
	}

	if err := withTxNoResult(ctx, r.dbtx, func(q *db.Queries) error {
		err := q.InsertCart(ctx, db.InsertCartParams{
			ID:        cart.ID,
			UserID:    cart.UserID,
			Metadata:  metadata,
			CreatedAt: cart.CreatedAt,
			UpdatedAt: cart.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("q.InsertCart: %w", mapPgError(err))
		}

		return insertCartItems(ctx, q, cart.ID, cart.Items)
	}); err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func (r *cartRepository) UpdateCart(ctx context.Context, cart *domain.Cart) error {
	if cart.ID == uuid.Nil {
		return fmt.Errorf("cartID is empty")
	}

	metadata, err := domain.MarshalMetadata(cart.Metadata)
	if err != nil {
		return fmt.Errorf("domain.MarshalMetadata: %w", err)
	}

	if err := withTxNoResult(ctx, r.dbtx, func(q *db.Queries) error {
		rows, err := q.UpdateCart(ctx, db.UpdateCartParams{
			ID:        cart.ID,
			Version:   cart.Version,
			UserID:    cart.UserID,
			Metadata:  metadata,
			UpdatedAt: cart.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("q.UpdateCart: %w", mapPgError(err))
		}

		if err := affectedOrConflict(ctx, rows, func(ctx context.Context) (bool, error) {
			return q.CartExists(ctx, cart.ID)
		}); err != nil {
			return fmt.Errorf("q.UpdateCart: %w", err)
		}

		// items are replaced wholesale, the version row above guards the set
		if err := q.DeleteCartItems(ctx, cart.ID); err != nil {
			return fmt.Errorf("q.DeleteCartItems: %w", err)
		}

		return insertCartItems(ctx, q, cart.ID, cart.Items)
	}); err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	cart.Version++
	return nil
}

func insertCartItems(ctx context.Context, q *db.Queries, cartID uuid.UUID, items []domain.CartItem) error {
	for _, item := range items {
		arg := db.InsertCartItemParams{
			ID:        item.ID,
			CartID:    cartID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  int32(item.Quantity),
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		}
		if err := q.InsertCartItem(ctx, arg); err != nil {
			return fmt.Errorf("q.InsertCartItem: %w", err)
		}
	}
	return nil
}

func mapDBCartItemToDomain(row db.CartItem) domain.CartItem {
	return domain.CartItem{
		ID:        row.ID,
		ProductID: row.ProductID,
		VariantID: row.VariantID,
		Quantity:  int(row.Quantity),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func mapDBCartToDomain(dbCart db.Cart, rows []db.CartItem) (domain.Cart, error) {
	metadata, err := domain.UnmarshalMetadata(dbCart.Metadata)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("domain.UnmarshalMetadata: %w", err)
	}

	var items []domain.CartItem
	for _, row := range rows {
		items = append(items, mapDBCartItemToDomain(row))
	}

	return domain.Cart{
		ID:        dbCart.ID,
		UserID:    dbCart.UserID,
		Items:     items,
		Metadata:  metadata,
		Version:   dbCart.Version,
		CreatedAt: dbCart.CreatedAt,
		UpdatedAt: dbCart.UpdatedAt,
	}, nil
}
