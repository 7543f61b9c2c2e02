package sandbox_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/nikolayk812/ordercore/internal/provider/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

func newProvider(t *testing.T) *sandbox.Provider {
	t.Helper()

	p, err := sandbox.New(sandbox.Options{
		WebhookSecret: "whsec_test",
		Now:           func() time.Time { return now },
	})
	require.NoError(t, err)
	return p
}

func TestProcessPayment(t *testing.T) {
	amount := domain.MustMoney("42.00", "USD")

	tests := []struct {
		name           string
		provider       domain.PaymentProvider
		token          string
		wantStatus     domain.PaymentStatus
		wantAction     string
		wantFailure    string
		wantTxIDPrefix string
	}{
		{name: "stripe success", provider: domain.ProviderStripe, token: "tok_visa", wantStatus: domain.PaymentStatusSucceeded, wantTxIDPrefix: "pi_"},
		{name: "paypal success", provider: domain.ProviderPayPal, token: "ba_123", wantStatus: domain.PaymentStatusSucceeded, wantTxIDPrefix: "PAY-"},
		{name: "declined", provider: domain.ProviderStripe, token: sandbox.TokenDeclined, wantStatus: domain.PaymentStatusFailed, wantFailure: "Your card was declined", wantTxIDPrefix: "pi_"},
		{name: "insufficient funds", provider: domain.ProviderStripe, token: sandbox.TokenInsufficient, wantStatus: domain.PaymentStatusFailed, wantFailure: "Your card has insufficient funds", wantTxIDPrefix: "pi_"},
		{name: "3ds", provider: domain.ProviderStripe, token: sandbox.TokenRequiresAction, wantStatus: domain.PaymentStatusRequiresAction, wantAction: "use_stripe_sdk", wantTxIDPrefix: "pi_"},
		{name: "paypal approval", provider: domain.ProviderPayPal, token: sandbox.TokenRequiresAction, wantStatus: domain.PaymentStatusRequiresAction, wantAction: "redirect_to_url", wantTxIDPrefix: "PAY-"},
		{name: "processing", provider: domain.ProviderStripe, token: sandbox.TokenProcessing, wantStatus: domain.PaymentStatusProcessing, wantTxIDPrefix: "pi_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(t)

			res, err := p.ProcessPayment(t.Context(), port.ProcessPaymentRequest{
				Amount:   amount,
				Provider: tt.provider,
				Token:    tt.token,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantFailure, res.FailureMessage)
			assert.Equal(t, tt.wantAction, res.NextActionType)
			assert.Equal(t, tt.wantAction != "", res.RequiresAction)
			assert.Equal(t, tt.wantAction != "", res.ClientSecret != "")
			assert.Regexp(t, "^"+tt.wantTxIDPrefix, res.TransactionID)
		})
	}
}

func TestProcessPayment_Errors(t *testing.T) {
	p := newProvider(t)
	amount := domain.MustMoney("42.00", "USD")

	_, err := p.ProcessPayment(t.Context(), port.ProcessPaymentRequest{Amount: amount, Provider: domain.ProviderStripe, Token: sandbox.TokenProviderError})
	assert.ErrorContains(t, err, "upstream unavailable")

	_, err = p.ProcessPayment(t.Context(), port.ProcessPaymentRequest{Amount: domain.MustMoney("0", "USD"), Token: "tok_visa"})
	assert.ErrorContains(t, err, "amount must be positive")

	_, err = p.ProcessPayment(t.Context(), port.ProcessPaymentRequest{Amount: amount})
	assert.ErrorContains(t, err, "token is required")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = p.ProcessPayment(ctx, port.ProcessPaymentRequest{Amount: amount, Token: "tok_visa"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCustomers(t *testing.T) {
	p := newProvider(t)
	userID := uuid.New()

	c1, err := p.GetOrCreateCustomer(t.Context(), userID, domain.ProviderStripe)
	require.NoError(t, err)
	assert.Regexp(t, "^cus_", c1.CustomerRef)

	c2, err := p.GetOrCreateCustomer(t.Context(), userID, domain.ProviderStripe)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	pp, err := p.GetOrCreateCustomer(t.Context(), userID, domain.ProviderPayPal)
	require.NoError(t, err)
	assert.NotEqual(t, c1.CustomerRef, pp.CustomerRef)

	require.NoError(t, p.AttachPaymentMethodToCustomer(t.Context(), c1, "tok_a"))
	require.NoError(t, p.AttachPaymentMethodToCustomer(t.Context(), c1, "tok_b"))
	assert.Equal(t, []string{"tok_a", "tok_b"}, p.AttachedTokens(c1.CustomerRef))

	require.NoError(t, p.DetachPaymentMethodFromCustomer(t.Context(), c1, "tok_a"))
	require.NoError(t, p.DetachPaymentMethodFromCustomer(t.Context(), c1, "tok_a"))
	assert.Equal(t, []string{"tok_b"}, p.AttachedTokens(c1.CustomerRef))

	stranger := port.Customer{UserID: uuid.New(), Provider: domain.ProviderStripe, CustomerRef: "cus_forged"}
	assert.Error(t, p.AttachPaymentMethodToCustomer(t.Context(), stranger, "tok_c"))
	assert.Error(t, p.AttachPaymentMethodToCustomer(t.Context(), c1, ""))

	_, err = p.GetOrCreateCustomer(t.Context(), uuid.Nil, domain.ProviderStripe)
	assert.Error(t, err)
}

func webhookPayload(t *testing.T, id, eventType, txID string) []byte {
	t.Helper()

	var e sandbox.WebhookEvent
	e.ID = id
	e.Type = eventType
	e.Data.TransactionID = txID

	data, err := json.Marshal(e)
	require.NoError(t, err)
	return data
}

func TestProcessWebhook(t *testing.T) {
	tests := []struct {
		name          string
		provider      domain.PaymentProvider
		eventType     string
		wantStatus    domain.PaymentStatus
		wantProcessed bool
	}{
		{name: "stripe succeeded", provider: domain.ProviderStripe, eventType: "payment_intent.succeeded", wantStatus: domain.PaymentStatusSucceeded, wantProcessed: true},
		{name: "stripe failed", provider: domain.ProviderStripe, eventType: "payment_intent.payment_failed", wantStatus: domain.PaymentStatusFailed, wantProcessed: true},
		{name: "paypal completed", provider: domain.ProviderPayPal, eventType: "PAYMENT.CAPTURE.COMPLETED", wantStatus: domain.PaymentStatusSucceeded, wantProcessed: true},
		{name: "paypal pending", provider: domain.ProviderPayPal, eventType: "PAYMENT.CAPTURE.PENDING", wantStatus: domain.PaymentStatusProcessing, wantProcessed: true},
		{name: "ignored type", provider: domain.ProviderStripe, eventType: "customer.created"},
		{name: "type of another provider", provider: domain.ProviderPayPal, eventType: "payment_intent.succeeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(t)
			payload := webhookPayload(t, "evt_1", tt.eventType, "pi_1")

			res, err := p.ProcessWebhook(t.Context(), port.WebhookRequest{
				Provider:  tt.provider,
				Payload:   payload,
				Signature: p.Sign(payload, now),
			})
			require.NoError(t, err)

			assert.Equal(t, "evt_1", res.EventID)
			assert.Equal(t, tt.eventType, res.EventType)
			assert.Equal(t, "pi_1", res.TransactionID)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantProcessed, res.Processed)
		})
	}
}

func TestProcessWebhook_Signature(t *testing.T) {
	p := newProvider(t)
	payload := webhookPayload(t, "evt_2", "payment_intent.succeeded", "pi_2")

	other, err := sandbox.New(sandbox.Options{WebhookSecret: "whsec_other"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     port.WebhookRequest
		wantErr error
	}{
		{
			name: "signature from header",
			req:  port.WebhookRequest{Provider: domain.ProviderStripe, Payload: payload, Headers: map[string]string{sandbox.SignatureHeader: p.Sign(payload, now)}},
		},
		{
			name:    "missing",
			req:     port.WebhookRequest{Provider: domain.ProviderStripe, Payload: payload},
			wantErr: port.ErrInvalidWebhookSignature,
		},
		{
			name:    "wrong secret",
			req:     port.WebhookRequest{Provider: domain.ProviderStripe, Payload: payload, Signature: other.Sign(payload, now)},
			wantErr: port.ErrInvalidWebhookSignature,
		},
		{
			name:    "tampered payload",
			req:     port.WebhookRequest{Provider: domain.ProviderStripe, Payload: append(payload, ' '), Signature: p.Sign(payload, now)},
			wantErr: port.ErrInvalidWebhookSignature,
		},
		{
			name:    "stale",
			req:     port.WebhookRequest{Provider: domain.ProviderStripe, Payload: payload, Signature: p.Sign(payload, now.Add(-time.Hour))},
			wantErr: port.ErrInvalidWebhookSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ProcessWebhook(t.Context(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestProcessWebhook_MalformedBody(t *testing.T) {
	p := newProvider(t)
	payload := []byte(`{"id":`)

	_, err := p.ProcessWebhook(t.Context(), port.WebhookRequest{Provider: domain.ProviderStripe, Payload: payload, Signature: p.Sign(payload, now)})
	require.Error(t, err)
	assert.NotErrorIs(t, err, port.ErrInvalidWebhookSignature)
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := sandbox.New(sandbox.Options{})
	assert.Error(t, err)
}
