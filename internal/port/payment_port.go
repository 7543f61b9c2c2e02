package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
)

type PaymentRepository interface {
	GetPayment(ctx context.Context, paymentID uuid.UUID) (domain.Payment, error)
	// GetPaymentByExternalReference looks a payment up by provider transaction id.
	GetPaymentByExternalReference(ctx context.Context, transactionID string) (domain.Payment, error)
	ListPaymentsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Payment, error)
	ListPaymentsByPaymentMethodID(ctx context.Context, paymentMethodID uuid.UUID) ([]domain.Payment, error)

	InsertPayment(ctx context.Context, payment domain.Payment) error
	UpdatePayment(ctx context.Context, payment *domain.Payment) error
}

type PaymentMethodRepository interface {
	GetPaymentMethod(ctx context.Context, paymentMethodID uuid.UUID) (domain.PaymentMethod, error)
	ListPaymentMethodsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.PaymentMethod, error)

	InsertPaymentMethod(ctx context.Context, pm domain.PaymentMethod) error
	UpdatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, paymentMethodID uuid.UUID) error
}
