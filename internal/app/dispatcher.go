package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/metrics"
)

// Dispatcher routes a command or query value to its handler.
type Dispatcher struct {
	app     *App
	metrics *metrics.CommandMetrics
}

func NewDispatcher(app *App, m *metrics.CommandMetrics) *Dispatcher {
	return &Dispatcher{app: app, metrics: m}
}

// Dispatch runs cmd as actor. Commands are passed by value; the result type
// is the return type of the matching App method. Webhooks always run as the
// system actor.
func (d *Dispatcher) Dispatch(ctx context.Context, actor domain.Actor, cmd any) (result any, err error) {
	name := commandName(cmd)
	start := time.Now()

	defer func() {
		if d.metrics == nil {
			return
		}
		outcome := metrics.OutcomeOK
		if err != nil {
			if outcome = domain.ErrorCode(err); outcome == "" {
				outcome = "error"
			}
		}
		d.metrics.Observe(name, outcome, time.Since(start))
	}()

	a := d.app

	switch c := cmd.(type) {
	case PlaceOrder:
		return a.PlaceOrder(ctx, actor, c)
	case UpdateOrderStatus:
		return a.UpdateOrderStatus(ctx, actor, c)
	case CancelOrder:
		return a.CancelOrder(ctx, actor, c)
	case ShipOrder:
		return a.ShipOrder(ctx, actor, c)
	case DeliverOrder:
		return a.DeliverOrder(ctx, actor, c)
	case ReturnOrder:
		return a.ReturnOrder(ctx, actor, c)
	case RefundOrder:
		return a.RefundOrder(ctx, actor, c)

	case CreateCart:
		return a.CreateCart(ctx, actor, c)
	case AssignCart:
		return a.AssignCart(ctx, actor, c)
	case AddCartItem:
		return a.AddCartItem(ctx, actor, c)
	case UpdateCartItem:
		return a.UpdateCartItem(ctx, actor, c)
	case RemoveCartItem:
		return a.RemoveCartItem(ctx, actor, c)

	case AddPaymentMethod:
		return a.AddPaymentMethod(ctx, actor, c)
	case SetDefaultPaymentMethod:
		return a.SetDefaultPaymentMethod(ctx, actor, c)
	case DeletePaymentMethod:
		return a.DeletePaymentMethod(ctx, actor, c)

	case ProcessOrderPayment:
		return a.ProcessOrderPayment(ctx, actor, c)
	case ProcessWebhook:
		return a.ProcessWebhook(ctx, c)

	case GetOrder:
		return a.GetOrder(ctx, actor, c)
	case ListOrders:
		return a.ListOrders(ctx, actor, c)
	case GetOrderPayments:
		return a.GetOrderPayments(ctx, actor, c)
	case GetCart:
		return a.GetCart(ctx, actor, c)
	case ListPaymentMethods:
		return a.ListPaymentMethods(ctx, actor, c)

	default:
		return nil, domain.Validation("Dispatcher.UnknownCommand", fmt.Sprintf("No handler for %s", name))
	}
}

// commandName is the type name without the package, e.g. "PlaceOrder".
func commandName(cmd any) string {
	name := fmt.Sprintf("%T", cmd)
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}
