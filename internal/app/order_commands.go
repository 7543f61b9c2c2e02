package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"go.uber.org/zap"
)

const entityOrder = "Order"

type UpdateOrderStatus struct {
	OrderID uuid.UUID
	Status  domain.OrderStatus
	Reason  string
}

type CancelOrder struct {
	OrderID uuid.UUID
	Reason  string
}

type ShipOrder struct {
	OrderID        uuid.UUID
	TrackingNumber string
	Reason         string
}

type DeliverOrder struct {
	OrderID uuid.UUID
	Reason  string
}

type ReturnOrder struct {
	OrderID uuid.UUID
	Reason  string
}

type RefundOrder struct {
	OrderID uuid.UUID
	Amount  domain.Money
	Reason  string
}

// UpdateOrderStatus is the back-office and system entry point. Customers
// cannot call it, only staff and internal callers such as webhooks.
func (a *App) UpdateOrderStatus(ctx context.Context, actor domain.Actor, cmd UpdateOrderStatus) (domain.Order, error) {
	return a.transitionOrder(ctx, actor, cmd.OrderID, "UpdateStatus", staffOnly("Order.UpdateStatusDenied", "update the status of"),
		func(o *domain.Order) error {
			return o.UpdateStatus(cmd.Status, cmd.Reason, a.now())
		})
}

func (a *App) CancelOrder(ctx context.Context, actor domain.Actor, cmd CancelOrder) (domain.Order, error) {
	return a.transitionOrder(ctx, actor, cmd.OrderID, "Cancel", ownerOrStaff("Order.CancelDenied", "cancel"),
		func(o *domain.Order) error {
			return o.Cancel(cmd.Reason, a.now())
		})
}

func (a *App) ShipOrder(ctx context.Context, actor domain.Actor, cmd ShipOrder) (domain.Order, error) {
	return a.transitionOrder(ctx, actor, cmd.OrderID, "Ship", staffOnly("Order.UpdateStatusDenied", "ship"),
		func(o *domain.Order) error {
			return o.MarkAsShipped(cmd.TrackingNumber, cmd.Reason, a.now())
		})
}

func (a *App) DeliverOrder(ctx context.Context, actor domain.Actor, cmd DeliverOrder) (domain.Order, error) {
	return a.transitionOrder(ctx, actor, cmd.OrderID, "Deliver", staffOnly("Order.UpdateStatusDenied", "deliver"),
		func(o *domain.Order) error {
			return o.MarkAsDelivered(cmd.Reason, a.now())
		})
}

func (a *App) ReturnOrder(ctx context.Context, actor domain.Actor, cmd ReturnOrder) (domain.Order, error) {
	return a.transitionOrder(ctx, actor, cmd.OrderID, "Return", ownerOrStaff("Order.ReturnDenied", "return"),
		func(o *domain.Order) error {
			return o.MarkAsReturned(cmd.Reason, a.now())
		})
}

func (a *App) RefundOrder(ctx context.Context, actor domain.Actor, cmd RefundOrder) (domain.RefundResult, error) {
	authorize := staffOnly("Order.RefundDenied", "refund")

	return inTx(ctx, a, entityOrder, "Refund", func(uow port.UnitOfWork) (domain.RefundResult, change, error) {
		var r domain.RefundResult

		order, err := load(entityOrder, cmd.OrderID, func() (domain.Order, error) {
			return uow.Orders().GetOrder(ctx, cmd.OrderID)
		})
		if err != nil {
			return r, unchanged, err
		}

		if err := authorize(actor, order); err != nil {
			return r, unchanged, err
		}

		now := a.now()

		result, err := order.ProcessPartialRefund(cmd.Amount, cmd.Reason, now)
		if err != nil {
			return r, unchanged, err
		}

		if err := uow.Orders().UpdateOrder(ctx, &order); err != nil {
			return r, unchanged, err
		}

		event := domain.NewEvent(domain.EventOrderRefunded, order.ID, map[string]any{
			"orderId":         order.ID.String(),
			"orderNumber":     order.Number,
			"amount":          result.Refunded.Amount.String(),
			"currency":        result.Refunded.Currency.String(),
			"totalRefunded":   result.TotalRefunded.Amount.String(),
			"isFullyRefunded": result.IsFullyRefunded,
			"actor":           actor.String(),
		}, now)
		if err := uow.Outbox().AddEvents(ctx, event); err != nil {
			return r, unchanged, err
		}

		a.logger.Info("order refunded",
			zap.Stringer("order_id", order.ID),
			zap.Stringer("amount", result.Refunded),
			zap.Bool("fully_refunded", result.IsFullyRefunded))

		return result, changed, nil
	})
}

// transitionOrder loads, authorizes, mutates and persists one order and
// appends an order.status_changed event.
func (a *App) transitionOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID, operation string,
	authorize orderPolicy, mutate func(o *domain.Order) error,
) (domain.Order, error) {
	return inTx(ctx, a, entityOrder, operation, func(uow port.UnitOfWork) (domain.Order, change, error) {
		order, err := load(entityOrder, orderID, func() (domain.Order, error) {
			return uow.Orders().GetOrder(ctx, orderID)
		})
		if err != nil {
			return domain.Order{}, unchanged, err
		}

		if err := authorize(actor, order); err != nil {
			return domain.Order{}, unchanged, err
		}

		from := order.Status
		if err := mutate(&order); err != nil {
			return domain.Order{}, unchanged, err
		}

		if err := uow.Orders().UpdateOrder(ctx, &order); err != nil {
			return domain.Order{}, unchanged, err
		}

		event := domain.OrderStatusChangedEvent(order, from, actor, order.UpdatedAt)
		if err := uow.Outbox().AddEvents(ctx, event); err != nil {
			return domain.Order{}, unchanged, err
		}

		a.logger.Info("order status changed",
			zap.Stringer("order_id", order.ID),
			zap.String("from", string(from)),
			zap.String("to", string(order.Status)),
			zap.Stringer("actor", actor))

		return order, changed, nil
	})
}

type orderPolicy func(actor domain.Actor, order domain.Order) error

// staffOnly admits admins, managers and the system.
func staffOnly(code, verb string) orderPolicy {
	return func(actor domain.Actor, order domain.Order) error {
		if actor.IsSystem() || actor.IsPrivileged() {
			return nil
		}
		return domain.Forbidden(code, fmt.Sprintf("You are not allowed to %s order %s", verb, order.Number))
	}
}

// ownerOrStaff additionally admits the order owner. Anonymous callers are
// always denied.
func ownerOrStaff(code, verb string) orderPolicy {
	return func(actor domain.Actor, order domain.Order) error {
		if actor.CanActFor(order.UserID) {
			return nil
		}
		return domain.Forbidden(code, fmt.Sprintf("You are not allowed to %s order %s", verb, order.Number))
	}
}
