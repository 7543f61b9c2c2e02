package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// paymentTransitions is the provider-driven lifecycle of a single attempt.
// Succeeded and Failed are final.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:        {PaymentStatusProcessing, PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusRequiresAction},
	PaymentStatusProcessing:     {PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusRequiresAction},
	PaymentStatusRequiresAction: {PaymentStatusProcessing, PaymentStatusSucceeded, PaymentStatusFailed},
}

type Payment struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	UserID          uuid.UUID
	PaymentMethodID *uuid.UUID
	Amount          Money
	MethodType      PaymentMethodType
	Provider        PaymentProvider
	TransactionID   string
	Status          PaymentStatus
	FailureReason   string
	Metadata        Metadata
	Version         int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

type NewPaymentParams struct {
	OrderID         uuid.UUID
	UserID          uuid.UUID
	PaymentMethodID *uuid.UUID
	Amount          Money
	MethodType      PaymentMethodType
	Provider        PaymentProvider
	TransactionID   string
	Status          PaymentStatus
	FailureReason   string
	Now             time.Time
}

func NewPayment(p NewPaymentParams) (Payment, error) {
	if p.OrderID == uuid.Nil {
		return Payment{}, Validation("Payment.InvalidOrder", "Order id is required")
	}
	if !p.Amount.IsPositive() {
		return Payment{}, Validation("Payment.InvalidAmount", "Payment amount must be greater than zero")
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	if p.Status == PaymentStatusRefunded || p.Status == PaymentStatusPartiallyRefunded {
		return Payment{}, Validation("Payment.InvalidStatus", fmt.Sprintf("Payment cannot start as %s", p.Status))
	}

	return Payment{
		ID:              uuid.New(),
		OrderID:         p.OrderID,
		UserID:          p.UserID,
		PaymentMethodID: p.PaymentMethodID,
		Amount:          p.Amount,
		MethodType:      p.MethodType,
		Provider:        p.Provider,
		TransactionID:   p.TransactionID,
		Status:          p.Status,
		FailureReason:   p.FailureReason,
		Metadata:        Metadata{},
		CreatedAt:       p.Now,
		UpdatedAt:       p.Now,
	}, nil
}

// UpdateStatus reports whether the status changed; replays of the current
// status are a no-op.
func (p *Payment) UpdateStatus(status PaymentStatus, failureReason string, now time.Time) (bool, error) {
	if p.Status == status {
		return false, nil
	}

	allowed := false
	for _, s := range paymentTransitions[p.Status] {
		if s == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, Validation("Payment.InvalidStatus", fmt.Sprintf("Cannot transition payment from %s to %s", p.Status, status))
	}

	p.Status = status
	if status == PaymentStatusFailed {
		p.FailureReason = failureReason
	}
	p.UpdatedAt = now

	return true, nil
}
