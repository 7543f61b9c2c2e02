package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
)

type GetOrder struct {
	OrderID uuid.UUID
}

type ListOrders struct {
	Filter domain.OrderFilter
}

type GetOrderPayments struct {
	OrderID uuid.UUID
}

// GetCart returns the actor's own cart when CartID is empty.
type GetCart struct {
	CartID uuid.UUID
}

// ListPaymentMethods lists the actor's methods. Staff may pass UserID to
// list another user's methods.
type ListPaymentMethods struct {
	UserID uuid.UUID
}

// GetOrder hides orders of other users behind Order.NotFound.
func (a *App) GetOrder(ctx context.Context, actor domain.Actor, q GetOrder) (domain.Order, error) {
	return inTx(ctx, a, entityOrder, "Get", func(uow port.UnitOfWork) (domain.Order, change, error) {
		order, err := loadVisibleOrder(ctx, uow, actor, q.OrderID)
		return order, unchanged, err
	})
}

// ListOrders restricts customers to their own orders regardless of the
// user ids in the filter.
func (a *App) ListOrders(ctx context.Context, actor domain.Actor, q ListOrders) ([]domain.Order, error) {
	return inTx(ctx, a, entityOrder, "List", func(uow port.UnitOfWork) ([]domain.Order, change, error) {
		filter := q.Filter

		switch {
		case actor.IsSystem(), actor.IsPrivileged():
		case actor.IsAuthenticated():
			filter.UserIDs = []uuid.UUID{actor.UserID}
		default:
			return nil, unchanged, domain.Unauthorized("Order.Unauthenticated", "Sign in to list orders")
		}

		if err := filter.Validate(); err != nil {
			return nil, unchanged, domain.Validation("Order.InvalidFilter", err.Error())
		}

		orders, err := uow.Orders().SearchOrders(ctx, filter)
		return orders, unchanged, err
	})
}

func (a *App) GetOrderPayments(ctx context.Context, actor domain.Actor, q GetOrderPayments) ([]domain.Payment, error) {
	return inTx(ctx, a, entityPayment, "List", func(uow port.UnitOfWork) ([]domain.Payment, change, error) {
		order, err := loadVisibleOrder(ctx, uow, actor, q.OrderID)
		if err != nil {
			return nil, unchanged, err
		}

		payments, err := uow.Payments().ListPaymentsByOrderID(ctx, order.ID)
		return payments, unchanged, err
	})
}

func (a *App) GetCart(ctx context.Context, actor domain.Actor, q GetCart) (domain.Cart, error) {
	return inTx(ctx, a, entityCart, "Get", func(uow port.UnitOfWork) (domain.Cart, change, error) {
		if q.CartID != uuid.Nil {
			cart, err := loadVisibleCart(ctx, uow, actor, q.CartID)
			return cart, unchanged, err
		}

		if !actor.IsAuthenticated() {
			return domain.Cart{}, unchanged, domain.Validation("Cart.InvalidID", "Cart id is required")
		}

		cart, err := uow.Carts().GetCartByUserID(ctx, actor.UserID)
		if errors.Is(err, port.ErrNotFound) {
			return domain.Cart{}, unchanged, domain.NotFound("Cart.NotFound", "You have no cart")
		}
		return cart, unchanged, err
	})
}

func (a *App) ListPaymentMethods(ctx context.Context, actor domain.Actor, q ListPaymentMethods) ([]domain.PaymentMethod, error) {
	return inTx(ctx, a, entityPaymentMethod, "List", func(uow port.UnitOfWork) ([]domain.PaymentMethod, change, error) {
		userID := q.UserID
		if userID == uuid.Nil {
			userID = actor.UserID
		}

		if userID == uuid.Nil || !actor.CanActFor(userID) {
			return nil, unchanged, domain.Forbidden("PaymentMethod.ListDenied", "You are not allowed to list these payment methods")
		}

		methods, err := uow.PaymentMethods().ListPaymentMethodsByUserID(ctx, userID)
		return methods, unchanged, err
	})
}

func loadVisibleOrder(ctx context.Context, uow port.UnitOfWork, actor domain.Actor, orderID uuid.UUID) (domain.Order, error) {
	order, err := load(entityOrder, orderID, func() (domain.Order, error) {
		return uow.Orders().GetOrder(ctx, orderID)
	})
	if err != nil {
		return domain.Order{}, err
	}

	if !actor.CanActFor(order.UserID) {
		return domain.Order{}, notFound(entityOrder, orderID)
	}

	return order, nil
}
