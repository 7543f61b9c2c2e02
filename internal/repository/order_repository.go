package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ordercore/internal/db"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/samber/lo"
)

type orderRepository struct {
	q    *db.Queries
	dbtx db.DBTX
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{
		q:    db.New(pool),
		dbtx: pool,
	}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{
		q:    db.New(tx),
		dbtx: tx, // use provided transaction instead
	}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return r.getOrder(ctx, orderID, false)
}

func (r *orderRepository) GetOrderForUpdate(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	return r.getOrder(ctx, orderID, true)
}

func (r *orderRepository) getOrder(ctx context.Context, orderID uuid.UUID, lock bool) (domain.Order, error) {
	var o domain.Order

	order, err := withTx(ctx, r.dbtx, func(q *db.Queries) (domain.Order, error) {
		get := q.GetOrder
		if lock {
			get = q.GetOrderForUpdate
		}

		dbOrder, err := get(ctx, orderID)
		if err != nil {
			return o, fmt.Errorf("q.GetOrder: %w", mapPgError(err))
		}

		dbOrderItems, err := q.GetOrderItems(ctx, orderID)
		if err != nil {
			return o, fmt.Errorf("q.GetOrderItems: %w", err)
		}

		domainOrder, err := mapDBOrderToDomain(dbOrder, dbOrderItems)
		if err != nil {
			return o, fmt.Errorf("mapDBOrderToDomain: %w", err)
		}

		return domainOrder, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) error {
	if len(order.Items) == 0 {
		return errors.New("no items in order")
	}

	metadata, err := domain.MarshalMetadata(order.Metadata)
	if err != nil {
		return fmt.Errorf("domain.MarshalMetadata: %w", err)
	}

	if err := withTxNoResult(ctx, r.dbtx, func(q *db.Queries) error {
		err := q.InsertOrder(ctx, db.InsertOrderParams{
			ID:                order.ID,
			Number:            order.Number,
			UserID:            order.UserID,
			ShippingAddressID: order.ShippingAddressID,
			BillingAddressID:  order.BillingAddressID,
			Status:            string(order.Status),
			PaymentStatus:     string(order.PaymentStatus),
			Currency:          order.Total.Currency.String(),
			Subtotal:          order.Subtotal.Amount,
			Tax:               order.Tax.Amount,
			ShippingCost:      order.ShippingCost.Amount,
			Total:             order.Total.Amount,
			RefundedAmount:    order.RefundedAmount.Amount,
			Metadata:          metadata,
			CreatedAt:         order.CreatedAt,
			UpdatedAt:         order.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("q.InsertOrder: %w", mapPgError(err))
		}

		// TODO: switch to CopyFrom once orders regularly carry dozens of lines
		for _, item := range order.Items {
			arg := db.InsertOrderItemParams{
				ID:          item.ID,
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				ProductName: item.ProductName,
				Sku:         item.SKU,
				Slug:        item.Slug,
				UnitPrice:   item.UnitPrice.Amount,
				Quantity:    int32(item.Quantity),
				LineTotal:   item.LineTotal.Amount,
				CreatedAt:   item.CreatedAt,
			}
			if err := q.InsertOrderItem(ctx, arg); err != nil {
				return fmt.Errorf("q.InsertOrderItem: %w", err)
			}
		}

		return nil
	}); err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}

func (r *orderRepository) UpdateOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	metadata, err := domain.MarshalMetadata(order.Metadata)
	if err != nil {
		return fmt.Errorf("domain.MarshalMetadata: %w", err)
	}

	rows, err := r.q.UpdateOrder(ctx, db.UpdateOrderParams{
		ID:             order.ID,
		Version:        order.Version,
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		RefundedAmount: order.RefundedAmount.Amount,
		Metadata:       metadata,
		UpdatedAt:      order.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("q.UpdateOrder: %w", err)
	}

	if err := affectedOrConflict(ctx, rows, func(ctx context.Context) (bool, error) {
		return r.q.OrderExists(ctx, order.ID)
	}); err != nil {
		return fmt.Errorf("q.UpdateOrder: %w", err)
	}

	order.Version++
	return nil
}

func mapDomainOrderFilterToDBFilter(filter domain.OrderFilter) db.SearchOrdersParams {
	var createdAfter, createdBefore, updatedAfter, updatedBefore *time.Time

	if filter.CreatedAt != nil {
		createdAfter = filter.CreatedAt.After
		createdBefore = filter.CreatedAt.Before
	}

	if filter.UpdatedAt != nil {
		updatedAfter = filter.UpdatedAt.After
		updatedBefore = filter.UpdatedAt.Before
	}

	statuses := lo.Map(filter.Statuses, func(s domain.OrderStatus, _ int) string { return string(s) })
	paymentStatuses := lo.Map(filter.PaymentStatuses, func(s domain.PaymentStatus, _ int) string { return string(s) })

	return db.SearchOrdersParams{
		Ids:             nilSliceIfEmpty(filter.IDs),
		UserIds:         nilSliceIfEmpty(filter.UserIDs),
		Numbers:         nilSliceIfEmpty(filter.Numbers),
		Statuses:        nilSliceIfEmpty(statuses),
		PaymentStatuses: nilSliceIfEmpty(paymentStatuses),
		CreatedAfter:    createdAfter,
		CreatedBefore:   createdBefore,
		UpdatedAfter:    updatedAfter,
		UpdatedBefore:   updatedBefore,
		RowLimit:        int32(filter.EffectiveLimit()),
	}
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	dbFilter := mapDomainOrderFilterToDBFilter(filter)

	orders, err := withTx(ctx, r.dbtx, func(q *db.Queries) ([]domain.Order, error) {
		dbOrders, err := q.SearchOrders(ctx, dbFilter)
		if err != nil {
			return nil, fmt.Errorf("q.SearchOrders: %w", err)
		}
		if len(dbOrders) == 0 {
			return nil, nil
		}

		orderIDs := lo.Map(dbOrders, func(o db.Order, _ int) uuid.UUID { return o.ID })

		dbItems, err := q.GetOrderItemsByOrderIDs(ctx, orderIDs)
		if err != nil {
			return nil, fmt.Errorf("q.GetOrderItemsByOrderIDs: %w", err)
		}

		itemsByOrder := lo.GroupBy(dbItems, func(i db.OrderItem) uuid.UUID { return i.OrderID })

		// keep the query's ordering, newest first
		result := make([]domain.Order, 0, len(dbOrders))
		for _, dbOrder := range dbOrders {
			order, err := mapDBOrderToDomain(dbOrder, itemsByOrder[dbOrder.ID])
			if err != nil {
				return nil, fmt.Errorf("mapDBOrderToDomain: %w", err)
			}
			result = append(result, order)
		}

		return result, nil
	})
	if err != nil {
		return nil, fmt.Errorf("withTx: %w", err)
	}

	return orders, nil
}

func mapDBOrderItemToDomain(row db.OrderItem, code string) (domain.OrderItem, error) {
	unitPrice, err := toMoney(row.UnitPrice, code)
	if err != nil {
		return domain.OrderItem{}, err
	}

	lineTotal, err := toMoney(row.LineTotal, code)
	if err != nil {
		return domain.OrderItem{}, err
	}

	return domain.OrderItem{
		ID:          row.ID,
		ProductID:   row.ProductID,
		VariantID:   row.VariantID,
		ProductName: row.ProductName,
		SKU:         row.Sku,
		Slug:        row.Slug,
		UnitPrice:   unitPrice,
		Quantity:    int(row.Quantity),
		LineTotal:   lineTotal,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func mapDBOrderToDomain(dbOrder db.Order, dbOrderItems []db.OrderItem) (domain.Order, error) {
	var o domain.Order

	items := make([]domain.OrderItem, 0, len(dbOrderItems))
	for _, row := range dbOrderItems {
		item, err := mapDBOrderItemToDomain(row, dbOrder.Currency)
		if err != nil {
			return o, fmt.Errorf("mapDBOrderItemToDomain: %w", err)
		}
		items = append(items, item)
	}

	status, err := domain.ToOrderStatus(dbOrder.Status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", dbOrder.Status, err)
	}

	paymentStatus, err := domain.ToPaymentStatus(dbOrder.PaymentStatus)
	if err != nil {
		return o, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", dbOrder.PaymentStatus, err)
	}

	metadata, err := domain.UnmarshalMetadata(dbOrder.Metadata)
	if err != nil {
		return o, fmt.Errorf("domain.UnmarshalMetadata: %w", err)
	}

	code := dbOrder.Currency

	subtotal, err := toMoney(dbOrder.Subtotal, code)
	if err != nil {
		return o, fmt.Errorf("toMoney[subtotal]: %w", err)
	}

	tax, err := toMoney(dbOrder.Tax, code)
	if err != nil {
		return o, fmt.Errorf("toMoney[tax]: %w", err)
	}

	shippingCost, err := toMoney(dbOrder.ShippingCost, code)
	if err != nil {
		return o, fmt.Errorf("toMoney[shippingCost]: %w", err)
	}

	total, err := toMoney(dbOrder.Total, code)
	if err != nil {
		return o, fmt.Errorf("toMoney[total]: %w", err)
	}

	refunded, err := toMoney(dbOrder.RefundedAmount, code)
	if err != nil {
		return o, fmt.Errorf("toMoney[refundedAmount]: %w", err)
	}

	return domain.Order{
		ID:                dbOrder.ID,
		Number:            dbOrder.Number,
		UserID:            dbOrder.UserID,
		ShippingAddressID: dbOrder.ShippingAddressID,
		BillingAddressID:  dbOrder.BillingAddressID,
		Status:            status,
		PaymentStatus:     paymentStatus,
		Subtotal:          subtotal,
		Tax:               tax,
		ShippingCost:      shippingCost,
		Total:             total,
		RefundedAmount:    refunded,
		Items:             items,
		Metadata:          metadata,
		Version:           dbOrder.Version,
		CreatedAt:         dbOrder.CreatedAt,
		UpdatedAt:         dbOrder.UpdatedAt,
	}, nil
}
