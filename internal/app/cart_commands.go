package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"go.uber.org/zap"
)

const entityCart = "Cart"

// CreateCart opens a cart for the actor, or an anonymous cart when the
// actor is not signed in.
type CreateCart struct{}

type AssignCart struct {
	CartID uuid.UUID
	UserID uuid.UUID
}

type AddCartItem struct {
	CartID    uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

type UpdateCartItem struct {
	ItemID   uuid.UUID
	Quantity int
}

type RemoveCartItem struct {
	ItemID uuid.UUID
}

func (a *App) CreateCart(ctx context.Context, actor domain.Actor, _ CreateCart) (domain.Cart, error) {
	return inTx(ctx, a, entityCart, "Create", func(uow port.UnitOfWork) (domain.Cart, change, error) {
		var owner *uuid.UUID

		if actor.IsAuthenticated() {
			if err := ensureNoCart(ctx, uow, actor.UserID, uuid.Nil); err != nil {
				return domain.Cart{}, unchanged, err
			}
			owner = &actor.UserID
		}

		cart := domain.NewCart(owner, a.now())
		if err := uow.Carts().InsertCart(ctx, cart); err != nil {
			if errors.Is(err, port.ErrAlreadyExists) {
				return domain.Cart{}, unchanged, userAlreadyHasCart(actor.UserID)
			}
			return domain.Cart{}, unchanged, err
		}

		return cart, changed, nil
	})
}

// AssignCart attaches an anonymous cart to a user, typically right after
// sign-in. Anonymous carts are invisible to signed-in callers, so the
// cart visibility rule does not apply here; the actor must be able to act
// for the target user instead.
func (a *App) AssignCart(ctx context.Context, actor domain.Actor, cmd AssignCart) (domain.Cart, error) {
	return inTx(ctx, a, entityCart, "Assign", func(uow port.UnitOfWork) (domain.Cart, change, error) {
		if !actor.CanActFor(cmd.UserID) {
			return domain.Cart{}, unchanged, domain.Forbidden("Cart.AssignDenied", "You are not allowed to assign carts to this user")
		}

		cart, err := load(entityCart, cmd.CartID, func() (domain.Cart, error) {
			return uow.Carts().GetCart(ctx, cmd.CartID)
		})
		if err != nil {
			return domain.Cart{}, unchanged, err
		}

		now := a.now()

		assigned, err := cart.AssignToUser(cmd.UserID, now)
		if err != nil {
			return domain.Cart{}, unchanged, err
		}
		if !assigned {
			return cart, unchanged, nil
		}

		if err := ensureNoCart(ctx, uow, cmd.UserID, cart.ID); err != nil {
			return domain.Cart{}, unchanged, err
		}

		if err := uow.Carts().UpdateCart(ctx, &cart); err != nil {
			if errors.Is(err, port.ErrAlreadyExists) {
				return domain.Cart{}, unchanged, userAlreadyHasCart(cmd.UserID)
			}
			return domain.Cart{}, unchanged, err
		}

		event := domain.NewEvent(domain.EventCartAssigned, cart.ID, map[string]any{
			"cartId": cart.ID.String(),
			"userId": cmd.UserID.String(),
			"actor":  actor.String(),
		}, now)
		if err := uow.Outbox().AddEvents(ctx, event); err != nil {
			return domain.Cart{}, unchanged, err
		}

		a.logger.Info("cart assigned", zap.Stringer("cart_id", cart.ID), zap.Stringer("user_id", cmd.UserID))

		return cart, changed, nil
	})
}

func (a *App) AddCartItem(ctx context.Context, actor domain.Actor, cmd AddCartItem) (domain.CartItem, error) {
	return inTx(ctx, a, entityCart, "AddItem", func(uow port.UnitOfWork) (domain.CartItem, change, error) {
		cart, err := loadVisibleCart(ctx, uow, actor, cmd.CartID)
		if err != nil {
			return domain.CartItem{}, unchanged, err
		}

		products, err := uow.Catalog().GetProducts(ctx, []uuid.UUID{cmd.ProductID})
		if err != nil {
			return domain.CartItem{}, unchanged, err
		}
		if p, ok := products[cmd.ProductID]; !ok || !p.Active {
			return domain.CartItem{}, unchanged, domain.NotFound("Product.NotFound", fmt.Sprintf("Product %s was not found", cmd.ProductID))
		}

		item, err := cart.AddItem(cmd.ProductID, cmd.VariantID, cmd.Quantity, a.now())
		if err != nil {
			return domain.CartItem{}, unchanged, err
		}

		if err := uow.Carts().UpdateCart(ctx, &cart); err != nil {
			return domain.CartItem{}, unchanged, err
		}

		return item, changed, nil
	})
}

func (a *App) UpdateCartItem(ctx context.Context, actor domain.Actor, cmd UpdateCartItem) (domain.CartItem, error) {
	return inTx(ctx, a, entityCart, "UpdateItem", func(uow port.UnitOfWork) (domain.CartItem, change, error) {
		cart, err := loadCartByItem(ctx, uow, actor, cmd.ItemID)
		if err != nil {
			return domain.CartItem{}, unchanged, err
		}

		item, err := cart.UpdateItemQuantity(cmd.ItemID, cmd.Quantity, a.now())
		if err != nil {
			return domain.CartItem{}, unchanged, err
		}

		if err := uow.Carts().UpdateCart(ctx, &cart); err != nil {
			return domain.CartItem{}, unchanged, err
		}

		return item, changed, nil
	})
}

func (a *App) RemoveCartItem(ctx context.Context, actor domain.Actor, cmd RemoveCartItem) (domain.Cart, error) {
	return inTx(ctx, a, entityCart, "RemoveItem", func(uow port.UnitOfWork) (domain.Cart, change, error) {
		cart, err := loadCartByItem(ctx, uow, actor, cmd.ItemID)
		if err != nil {
			return domain.Cart{}, unchanged, err
		}

		if err := cart.RemoveItem(cmd.ItemID, a.now()); err != nil {
			return domain.Cart{}, unchanged, err
		}

		if err := uow.Carts().UpdateCart(ctx, &cart); err != nil {
			return domain.Cart{}, unchanged, err
		}

		return cart, changed, nil
	})
}

// loadVisibleCart hides carts the actor may not see behind Cart.NotFound.
func loadVisibleCart(ctx context.Context, uow port.UnitOfWork, actor domain.Actor, cartID uuid.UUID) (domain.Cart, error) {
	cart, err := load(entityCart, cartID, func() (domain.Cart, error) {
		return uow.Carts().GetCart(ctx, cartID)
	})
	if err != nil {
		return domain.Cart{}, err
	}

	if !cart.VisibleTo(actor) {
		return domain.Cart{}, notFound(entityCart, cartID)
	}

	return cart, nil
}

func loadCartByItem(ctx context.Context, uow port.UnitOfWork, actor domain.Actor, itemID uuid.UUID) (domain.Cart, error) {
	cart, err := uow.Carts().GetCartByItemID(ctx, itemID)
	if errors.Is(err, port.ErrNotFound) {
		return domain.Cart{}, cartOfItemNotFound(itemID)
	}
	if err != nil {
		return domain.Cart{}, err
	}

	if !cart.VisibleTo(actor) {
		return domain.Cart{}, cartOfItemNotFound(itemID)
	}

	return cart, nil
}

// ensureNoCart fails when userID already owns a cart other than except.
func ensureNoCart(ctx context.Context, uow port.UnitOfWork, userID, except uuid.UUID) error {
	existing, err := uow.Carts().GetCartByUserID(ctx, userID)
	switch {
	case errors.Is(err, port.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != except:
		return userAlreadyHasCart(userID)
	default:
		return nil
	}
}

func userAlreadyHasCart(userID uuid.UUID) *domain.Error {
	return domain.Conflict("Cart.UserAlreadyHasCart", fmt.Sprintf("User %s already has a cart", userID))
}

func cartOfItemNotFound(itemID uuid.UUID) *domain.Error {
	return domain.NotFound("Cart.NotFound", fmt.Sprintf("No cart with item %s was found", itemID))
}
