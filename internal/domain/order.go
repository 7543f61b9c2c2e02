package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

const MaxReasonLength = 500

type Order struct {
	ID                uuid.UUID
	Number            string
	UserID            uuid.UUID
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
	Status            OrderStatus
	PaymentStatus     PaymentStatus
	Subtotal          Money
	Tax               Money
	ShippingCost      Money
	Total             Money
	RefundedAmount    Money
	Items             []OrderItem
	Metadata          Metadata
	Version           int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is a snapshot of the product taken at checkout, later catalog
// edits never reach it.
type OrderItem struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	ProductName string
	SKU         string
	Slug        string
	UnitPrice   Money
	Quantity    int
	LineTotal   Money

	CreatedAt time.Time
}

type NewOrderParams struct {
	UserID            uuid.UUID
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
	Items             []OrderItem
	Subtotal          Money
	Tax               Money
	ShippingCost      Money
	Now               time.Time
}

type RefundResult struct {
	Refunded        Money
	TotalRefunded   Money
	RemainingAmount Money
	IsFullyRefunded bool
}

func NewOrder(p NewOrderParams) (Order, error) {
	if p.UserID == uuid.Nil {
		return Order{}, Validation("Order.InvalidUser", "Order must belong to a user")
	}
	if len(p.Items) == 0 {
		return Order{}, Validation("Order.NoItems", "Order must contain at least one item")
	}

	unit := p.Subtotal.Currency
	for name, m := range map[string]Money{"subtotal": p.Subtotal, "tax": p.Tax, "shipping cost": p.ShippingCost} {
		if m.Currency != unit {
			return Order{}, Validation("Order.CurrencyMismatch", fmt.Sprintf("Order %s currency %s differs from %s", name, m.Currency, unit))
		}
		if m.IsNegative() {
			return Order{}, Validation("Order.InvalidAmount", fmt.Sprintf("Order %s cannot be negative", name))
		}
	}

	items := make([]OrderItem, 0, len(p.Items))
	for _, item := range p.Items {
		if item.Quantity <= 0 {
			return Order{}, Validation("Order.InvalidQuantity", fmt.Sprintf("Item %s quantity must be greater than zero", item.ProductID))
		}
		if item.UnitPrice.Currency != unit {
			return Order{}, Validation("Order.CurrencyMismatch", fmt.Sprintf("Item %s currency %s differs from %s", item.ProductID, item.UnitPrice.Currency, unit))
		}
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.CreatedAt = p.Now
		items = append(items, item)
	}

	total, err := Sum(unit, p.Subtotal, p.Tax, p.ShippingCost)
	if err != nil {
		return Order{}, Validation("Order.CurrencyMismatch", err.Error())
	}

	return Order{
		ID:                uuid.New(),
		Number:            NewOrderNumber(p.Now),
		UserID:            p.UserID,
		ShippingAddressID: p.ShippingAddressID,
		BillingAddressID:  p.BillingAddressID,
		Status:            OrderStatusPending,
		PaymentStatus:     PaymentStatusPending,
		Subtotal:          p.Subtotal,
		Tax:               p.Tax,
		ShippingCost:      p.ShippingCost,
		Total:             total,
		RefundedAmount:    Zero(unit),
		Items:             items,
		Metadata:          Metadata{},
		CreatedAt:         p.Now,
		UpdatedAt:         p.Now,
	}, nil
}

// NewOrderNumber returns a sortable, human-quotable order number.
func NewOrderNumber(now time.Time) string {
	return "ORD-" + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// UpdateStatus moves the order along the transition table. It is the
// generic entry point used by back-office and system callers.
func (o *Order) UpdateStatus(target OrderStatus, reason string, now time.Time) error {
	if err := validateReason(reason); err != nil {
		return err
	}
	if err := o.checkTransition(target); err != nil {
		return err
	}
	if target == OrderStatusShipped {
		if err := o.requirePaid(); err != nil {
			return err
		}
	}

	o.setStatus(target, reason, now)

	switch target {
	case OrderStatusCancelled:
		o.Metadata.SetString(MetaCancellationReason, reason)
		o.Metadata.SetTime(MetaCancelledAt, now)
	case OrderStatusShipped:
		o.Metadata.SetTime(MetaShippedAt, now)
	case OrderStatusDelivered:
		o.Metadata.SetTime(MetaDeliveredAt, now)
	}

	return nil
}

// MarkAsPaid records a successful capture. A pending order starts processing.
func (o *Order) MarkAsPaid(transactionID string, now time.Time) error {
	if o.PaymentStatus.IsCaptured() {
		return Conflict("Order.AlreadyPaid", "Order is already paid")
	}
	if o.Status.IsTerminal() {
		return Validation("Order.InvalidStatus", fmt.Sprintf("Cannot mark a %s order as paid", strings.ToLower(string(o.Status))))
	}

	o.ensureMetadata()
	o.PaymentStatus = PaymentStatusSucceeded
	if o.Status == OrderStatusPending {
		o.setStatus(OrderStatusProcessing, "", now)
	}

	o.Metadata.SetTime(MetaPaidAt, now)
	if transactionID != "" {
		o.Metadata.SetString(MetaTransactionID, transactionID)
	}
	o.UpdatedAt = now

	return nil
}

func (o *Order) MarkAsShipped(trackingNumber, reason string, now time.Time) error {
	if err := validateReason(reason); err != nil {
		return err
	}
	if err := o.checkTransition(OrderStatusShipped); err != nil {
		return err
	}
	if err := o.requirePaid(); err != nil {
		return err
	}

	o.setStatus(OrderStatusShipped, reason, now)
	o.Metadata.SetTime(MetaShippedAt, now)
	if trackingNumber != "" {
		o.Metadata.SetString(MetaTrackingNumber, trackingNumber)
	}

	return nil
}

func (o *Order) MarkAsDelivered(reason string, now time.Time) error {
	if err := validateReason(reason); err != nil {
		return err
	}
	if err := o.checkTransition(OrderStatusDelivered); err != nil {
		return err
	}

	o.setStatus(OrderStatusDelivered, reason, now)
	o.Metadata.SetTime(MetaDeliveredAt, now)

	return nil
}

// MarkAsReturned is idempotent: a returned order accepts it again and
// records the new reason and time.
func (o *Order) MarkAsReturned(reason string, now time.Time) error {
	if err := validateReason(reason); err != nil {
		return err
	}

	if o.Status != OrderStatusReturned && o.Status != OrderStatusDelivered {
		return Validation("Order.InvalidStatus", fmt.Sprintf("Cannot transition from %s to %s", o.Status, OrderStatusReturned))
	}

	o.setStatus(OrderStatusReturned, reason, now)
	o.Metadata.SetString(MetaReturnReason, reason)
	o.Metadata.SetTime(MetaReturnedAt, now)

	return nil
}

func (o *Order) Cancel(reason string, now time.Time) error {
	if err := validateReason(reason); err != nil {
		return err
	}
	if err := o.checkTransition(OrderStatusCancelled); err != nil {
		return err
	}
	if o.Status != OrderStatusPending && o.Status != OrderStatusProcessing {
		return Validation("Order.CannotCancel", "Only pending or processing orders can be cancelled")
	}

	o.setStatus(OrderStatusCancelled, reason, now)
	o.Metadata.SetString(MetaCancellationReason, reason)
	o.Metadata.SetTime(MetaCancelledAt, now)

	return nil
}

// RemainingRefundable is Total minus what was already refunded.
func (o *Order) RemainingRefundable() Money {
	remaining, err := o.Total.Sub(o.RefundedAmount)
	if err != nil {
		return Zero(o.Total.Currency)
	}
	return remaining
}

func (o *Order) ProcessPartialRefund(amount Money, reason string, now time.Time) (RefundResult, error) {
	var r RefundResult

	if err := validateReason(reason); err != nil {
		return r, err
	}
	if !amount.IsPositive() {
		return r, Validation("Order.InvalidRefundAmount", "Refund amount must be greater than zero")
	}
	if amount.Currency != o.Total.Currency {
		return r, Validation("Order.CurrencyMismatch", fmt.Sprintf("Refund currency %s differs from order currency %s", amount.Currency, o.Total.Currency))
	}
	if !isRefundable(o.Status) {
		return r, Validation("Order.NotRefundable", fmt.Sprintf("Cannot refund an order in %s status", o.Status))
	}
	if !o.PaymentStatus.IsCaptured() {
		return r, Validation("Order.NotPaid", "Cannot refund an order that has not been paid")
	}

	remaining := o.RemainingRefundable()
	if amount.Amount.GreaterThan(remaining.Amount) {
		return r, Validation("Order.RefundExceedsBalance",
			fmt.Sprintf("Refund amount %s exceeds the refundable balance %s", amount, remaining))
	}

	refunded, err := o.RefundedAmount.Add(amount)
	if err != nil {
		return r, Validation("Order.CurrencyMismatch", err.Error())
	}
	o.ensureMetadata()
	o.RefundedAmount = refunded
	remaining = o.RemainingRefundable()

	full := remaining.IsZero()
	if full {
		o.PaymentStatus = PaymentStatusRefunded
	} else {
		o.PaymentStatus = PaymentStatusPartiallyRefunded
	}

	o.Metadata.SetString(MetaLastRefundReason, reason)
	o.Metadata.SetTime(MetaLastRefundedAt, now)
	o.UpdatedAt = now

	return RefundResult{
		Refunded:        amount,
		TotalRefunded:   refunded,
		RemainingAmount: remaining,
		IsFullyRefunded: full,
	}, nil
}

func (o *Order) checkTransition(target OrderStatus) error {
	if o.Status == target {
		return Validation("Order.InvalidStatus", fmt.Sprintf("Order is already %s", o.Status))
	}
	if !o.Status.CanTransitionTo(target) {
		return Validation("Order.InvalidStatus", fmt.Sprintf("Cannot transition from %s to %s", o.Status, target))
	}
	return nil
}

func (o *Order) requirePaid() error {
	if o.PaymentStatus != PaymentStatusSucceeded {
		return Validation("Order.NotPaid", "Order payment must succeed before it can be shipped")
	}
	return nil
}

func (o *Order) ensureMetadata() {
	if o.Metadata == nil {
		o.Metadata = Metadata{}
	}
}

func (o *Order) setStatus(target OrderStatus, reason string, now time.Time) {
	o.ensureMetadata()
	o.Status = target
	if reason != "" {
		o.Metadata.SetString(StatusChangeReasonKey(target), reason)
	}
	o.Metadata.SetTime(StatusChangeAtKey(target), now)
	o.UpdatedAt = now
}

func isRefundable(s OrderStatus) bool {
	return s == OrderStatusShipped || s == OrderStatusDelivered || s == OrderStatusReturned
}

func validateReason(reason string) error {
	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return Validation("Order.ReasonTooLong", fmt.Sprintf("Reason cannot exceed %d characters", MaxReasonLength))
	}
	return nil
}
