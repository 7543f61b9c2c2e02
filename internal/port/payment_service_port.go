package port

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
)

// ErrInvalidWebhookSignature is returned by ProcessWebhook when the payload
// does not carry a valid provider signature.
var ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

type ProcessPaymentRequest struct {
	Amount      domain.Money
	MethodType  domain.PaymentMethodType
	Provider    domain.PaymentProvider
	Token       string
	CustomerRef string
	Metadata    map[string]string
}

type PaymentResult struct {
	TransactionID  string
	Status         domain.PaymentStatus
	ClientSecret   string
	RequiresAction bool
	NextActionType string
	FailureMessage string
	Metadata       map[string]string
}

type WebhookRequest struct {
	Provider  domain.PaymentProvider
	Payload   []byte
	Signature string
	Headers   map[string]string
}

type WebhookResult struct {
	EventID        string
	EventType      string
	TransactionID  string
	Status         domain.PaymentStatus
	FailureMessage string
	// Processed is false for event types the service layer does not act on.
	Processed bool
}

type Customer struct {
	UserID      uuid.UUID
	Provider    domain.PaymentProvider
	CustomerRef string
}

// PaymentService is the payment provider capability. A declined payment is
// reported through PaymentResult.Status, an error means the provider call
// itself failed.
type PaymentService interface {
	ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (PaymentResult, error)
	ProcessWebhook(ctx context.Context, req WebhookRequest) (WebhookResult, error)
	GetOrCreateCustomer(ctx context.Context, userID uuid.UUID, provider domain.PaymentProvider) (Customer, error)
	AttachPaymentMethodToCustomer(ctx context.Context, customer Customer, token string) error
	// DetachPaymentMethodFromCustomer is a no-op for a token that is not attached.
	DetachPaymentMethodFromCustomer(ctx context.Context, customer Customer, token string) error
}
