package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PlaceOrder struct {
	CartID            uuid.UUID
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
}

// PlaceOrder converts a cart into a pending order priced from the current
// catalog. The cart is emptied and remembers the order it became.
func (a *App) PlaceOrder(ctx context.Context, actor domain.Actor, cmd PlaceOrder) (domain.Order, error) {
	return inTx(ctx, a, entityOrder, "Place", func(uow port.UnitOfWork) (domain.Order, change, error) {
		cart, err := load(entityCart, cmd.CartID, func() (domain.Cart, error) {
			return uow.Carts().GetCart(ctx, cmd.CartID)
		})
		if err != nil {
			return domain.Order{}, unchanged, err
		}

		if !cart.VisibleTo(actor) {
			return domain.Order{}, unchanged, notFound(entityCart, cmd.CartID)
		}
		if cart.IsAnonymous() {
			return domain.Order{}, unchanged, domain.Unauthorized("Order.Unauthenticated", "Sign in to place an order")
		}

		lines := lo.Filter(cart.Items, func(item domain.CartItem, _ int) bool {
			return item.Quantity > 0
		})
		if len(lines) == 0 {
			return domain.Order{}, unchanged, domain.Validation("Order.NoItems", "Cart has no items to order")
		}

		productIDs := lo.Map(lines, func(item domain.CartItem, _ int) uuid.UUID {
			return item.ProductID
		})
		products, err := uow.Catalog().GetProducts(ctx, productIDs)
		if err != nil {
			return domain.Order{}, unchanged, err
		}

		now := a.now()

		items, subtotal, err := priceLines(lines, products)
		if err != nil {
			return domain.Order{}, unchanged, err
		}

		tax := subtotal.Mul(a.checkout.TaxRate)
		shipping, err := a.checkout.shippingFor(subtotal)
		if err != nil {
			return domain.Order{}, unchanged, err
		}

		order, err := domain.NewOrder(domain.NewOrderParams{
			UserID:            *cart.UserID,
			ShippingAddressID: cmd.ShippingAddressID,
			BillingAddressID:  cmd.BillingAddressID,
			Items:             items,
			Subtotal:          subtotal,
			Tax:               tax,
			ShippingCost:      shipping,
			Now:               now,
		})
		if err != nil {
			return domain.Order{}, unchanged, err
		}

		if err := uow.Orders().InsertOrder(ctx, order); err != nil {
			return domain.Order{}, unchanged, err
		}

		cart.MarkConverted(order.ID, now)
		if err := uow.Carts().UpdateCart(ctx, &cart); err != nil {
			return domain.Order{}, unchanged, err
		}

		event := domain.NewEvent(domain.EventOrderPlaced, order.ID, map[string]any{
			"orderId":     order.ID.String(),
			"orderNumber": order.Number,
			"userId":      order.UserID.String(),
			"cartId":      cart.ID.String(),
			"total":       order.Total.Amount.String(),
			"currency":    order.Total.Currency.String(),
			"itemCount":   len(order.Items),
		}, now)
		if err := uow.Outbox().AddEvents(ctx, event); err != nil {
			return domain.Order{}, unchanged, err
		}

		a.logger.Info("order placed",
			zap.Stringer("order_id", order.ID),
			zap.String("order_number", order.Number),
			zap.Stringer("cart_id", cart.ID),
			zap.Stringer("total", order.Total))

		return order, changed, nil
	})
}

// priceLines snapshots every cart line against the catalog and returns the
// order items with their subtotal.
func priceLines(lines []domain.CartItem, products map[uuid.UUID]domain.Product) ([]domain.OrderItem, domain.Money, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	lineTotals := make([]domain.Money, 0, len(lines))

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok || !product.Active {
			return nil, domain.Money{}, domain.Validation("Order.ProductUnavailable",
				fmt.Sprintf("Product %s is no longer available", line.ProductID))
		}

		item := domain.OrderItem{
			ProductID:   product.ID,
			VariantID:   line.VariantID,
			ProductName: product.Name,
			SKU:         product.SKU,
			Slug:        product.Slug,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
		}
		items = append(items, item)
		lineTotals = append(lineTotals, product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	subtotal, err := domain.Sum(items[0].UnitPrice.Currency, lineTotals...)
	if err != nil {
		return nil, domain.Money{}, domain.Validation("Order.CurrencyMismatch", "Cart products are priced in different currencies")
	}

	return items, subtotal, nil
}

func (p CheckoutPolicy) shippingFor(subtotal domain.Money) (domain.Money, error) {
	if !p.FlatShipping.IsPositive() {
		return domain.Zero(subtotal.Currency), nil
	}
	if p.FlatShipping.Currency != subtotal.Currency {
		return domain.Money{}, domain.Validation("Order.CurrencyMismatch",
			fmt.Sprintf("Shipping is charged in %s, the cart is priced in %s", p.FlatShipping.Currency, subtotal.Currency))
	}

	if p.FreeShippingThreshold.IsPositive() {
		cmp, err := subtotal.Cmp(p.FreeShippingThreshold)
		if err == nil && cmp >= 0 {
			return domain.Zero(subtotal.Currency), nil
		}
	}

	return p.FlatShipping, nil
}
