package domain

import "errors"

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
	OrderStatusReturned   OrderStatus = "Returned"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusReturned:   {},
}

// orderTransitions lists the targets reachable through UpdateStatus.
// Delivered -> Returned is only reachable through MarkAsReturned.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

func OrderStatuses() []OrderStatus {
	result := make([]OrderStatus, 0, len(validOrderStatuses))
	for status := range validOrderStatuses {
		result = append(result, status)
	}
	return result
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusReturned
}

type PaymentStatus string

// Refunded and PartiallyRefunded only apply to an order's payment status.
const (
	PaymentStatusPending           PaymentStatus = "Pending"
	PaymentStatusProcessing        PaymentStatus = "Processing"
	PaymentStatusSucceeded         PaymentStatus = "Succeeded"
	PaymentStatusFailed            PaymentStatus = "Failed"
	PaymentStatusRequiresAction    PaymentStatus = "RequiresAction"
	PaymentStatusPartiallyRefunded PaymentStatus = "PartiallyRefunded"
	PaymentStatusRefunded          PaymentStatus = "Refunded"
)

var validPaymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusPending:           {},
	PaymentStatusProcessing:        {},
	PaymentStatusSucceeded:         {},
	PaymentStatusFailed:            {},
	PaymentStatusRequiresAction:    {},
	PaymentStatusPartiallyRefunded: {},
	PaymentStatusRefunded:          {},
}

func ToPaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if _, ok := validPaymentStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid payment status")
}

// IsCaptured reports whether money was taken for the order at some point.
func (s PaymentStatus) IsCaptured() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusPartiallyRefunded || s == PaymentStatusRefunded
}

func (s PaymentStatus) IsInFlight() bool {
	return s == PaymentStatusPending || s == PaymentStatusProcessing
}
