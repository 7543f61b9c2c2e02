// Package sandbox is an in-process payment provider for local runs and
// tests. Outcomes are decided by the payment token, the way provider test
// cards work, and webhooks are signed with a shared secret.
package sandbox

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Tokens with a fixed outcome. Any other non-empty token succeeds.
const (
	TokenDeclined       = "tok_chargeDeclined"
	TokenInsufficient   = "tok_insufficientFunds"
	TokenRequiresAction = "tok_threeDSecureRequired"
	TokenProcessing     = "tok_processing"
	TokenProviderError  = "tok_providerError"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac>" where the HMAC is
// SHA-256 over "<t>.<payload>".
const SignatureHeader = "Sandbox-Signature"

const defaultTolerance = 5 * time.Minute

var errUnknownCustomer = errors.New("unknown customer")

type Options struct {
	WebhookSecret string
	// Tolerance bounds the age of a webhook signature; zero means five minutes.
	Tolerance time.Duration
	Logger    *zap.Logger
	Now       func() time.Time
}

type Provider struct {
	secret    []byte
	tolerance time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.Mutex
	customers map[customerKey]port.Customer
	attached  map[string][]string
}

type customerKey struct {
	userID   uuid.UUID
	provider domain.PaymentProvider
}

var _ port.PaymentService = (*Provider)(nil)

func New(opts Options) (*Provider, error) {
	if opts.WebhookSecret == "" {
		return nil, errors.New("webhook secret is required")
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = defaultTolerance
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Provider{
		secret:    []byte(opts.WebhookSecret),
		tolerance: opts.Tolerance,
		logger:    opts.Logger,
		now:       opts.Now,
		customers: make(map[customerKey]port.Customer),
		attached:  make(map[string][]string),
	}, nil
}

func (p *Provider) ProcessPayment(ctx context.Context, req port.ProcessPaymentRequest) (port.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return port.PaymentResult{}, err
	}
	if !req.Amount.IsPositive() {
		return port.PaymentResult{}, fmt.Errorf("amount must be positive: %s", req.Amount)
	}
	if req.Token == "" {
		return port.PaymentResult{}, errors.New("payment token is required")
	}
	if req.Token == TokenProviderError {
		return port.PaymentResult{}, fmt.Errorf("%s: upstream unavailable", req.Provider)
	}

	res := port.PaymentResult{
		TransactionID: transactionID(req.Provider),
		Metadata: map[string]string{
			"sandbox":  "true",
			"amount":   req.Amount.String(),
			"customer": req.CustomerRef,
		},
	}

	switch req.Token {
	case TokenDeclined:
		res.Status = domain.PaymentStatusFailed
		res.FailureMessage = "Your card was declined"
	case TokenInsufficient:
		res.Status = domain.PaymentStatusFailed
		res.FailureMessage = "Your card has insufficient funds"
	case TokenRequiresAction:
		res.Status = domain.PaymentStatusRequiresAction
		res.RequiresAction = true
		res.NextActionType = "use_stripe_sdk"
		res.ClientSecret = res.TransactionID + "_secret_" + strings.ToLower(ulid.Make().String()[:10])
	case TokenProcessing:
		res.Status = domain.PaymentStatusProcessing
	default:
		res.Status = domain.PaymentStatusSucceeded
	}

	if req.Provider == domain.ProviderPayPal && res.RequiresAction {
		res.NextActionType = "redirect_to_url"
	}

	p.logger.Debug("sandbox payment",
		zap.String("transaction_id", res.TransactionID),
		zap.String("status", string(res.Status)))

	return res, nil
}

func (p *Provider) GetOrCreateCustomer(ctx context.Context, userID uuid.UUID, provider domain.PaymentProvider) (port.Customer, error) {
	if err := ctx.Err(); err != nil {
		return port.Customer{}, err
	}
	if userID == uuid.Nil {
		return port.Customer{}, errors.New("user id is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := customerKey{userID: userID, provider: provider}
	if c, ok := p.customers[key]; ok {
		return c, nil
	}

	prefix := "cus_"
	if provider == domain.ProviderPayPal {
		prefix = "PAYER-"
	}

	c := port.Customer{UserID: userID, Provider: provider, CustomerRef: prefix + ulid.Make().String()}
	p.customers[key] = c
	return c, nil
}

func (p *Provider) AttachPaymentMethodToCustomer(ctx context.Context, customer port.Customer, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if token == "" {
		return errors.New("payment token is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	known, ok := p.customers[customerKey{userID: customer.UserID, provider: customer.Provider}]
	if !ok || known.CustomerRef != customer.CustomerRef {
		return fmt.Errorf("%w: %s", errUnknownCustomer, customer.CustomerRef)
	}

	p.attached[customer.CustomerRef] = append(p.attached[customer.CustomerRef], token)
	return nil
}

func (p *Provider) DetachPaymentMethodFromCustomer(ctx context.Context, customer port.Customer, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tokens := p.attached[customer.CustomerRef]
	p.attached[customer.CustomerRef] = lo.Without(tokens, token)
	return nil
}

// AttachedTokens lists the tokens attached to a customer, in attach order.
func (p *Provider) AttachedTokens(customerRef string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.attached[customerRef]...)
}

// WebhookEvent is the sandbox webhook body.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		TransactionID  string `json:"transactionId"`
		FailureMessage string `json:"failureMessage,omitempty"`
	} `json:"data"`
}

var webhookStatuses = map[domain.PaymentProvider]map[string]domain.PaymentStatus{
	domain.ProviderStripe: {
		"payment_intent.succeeded":       domain.PaymentStatusSucceeded,
		"payment_intent.payment_failed":  domain.PaymentStatusFailed,
		"payment_intent.processing":      domain.PaymentStatusProcessing,
		"payment_intent.requires_action": domain.PaymentStatusRequiresAction,
	},
	domain.ProviderPayPal: {
		"PAYMENT.CAPTURE.COMPLETED": domain.PaymentStatusSucceeded,
		"PAYMENT.CAPTURE.DENIED":    domain.PaymentStatusFailed,
		"PAYMENT.CAPTURE.PENDING":   domain.PaymentStatusProcessing,
	},
}

func (p *Provider) ProcessWebhook(ctx context.Context, req port.WebhookRequest) (port.WebhookResult, error) {
	if err := ctx.Err(); err != nil {
		return port.WebhookResult{}, err
	}

	signature := req.Signature
	if signature == "" {
		signature = req.Headers[SignatureHeader]
	}
	if err := p.verify(req.Payload, signature); err != nil {
		p.logger.Warn("sandbox webhook rejected", zap.Error(err))
		return port.WebhookResult{}, fmt.Errorf("%w: %w", port.ErrInvalidWebhookSignature, err)
	}

	var event WebhookEvent
	if err := json.Unmarshal(req.Payload, &event); err != nil {
		return port.WebhookResult{}, fmt.Errorf("json.Unmarshal: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return port.WebhookResult{}, errors.New("webhook event id and type are required")
	}

	res := port.WebhookResult{
		EventID:        event.ID,
		EventType:      event.Type,
		TransactionID:  event.Data.TransactionID,
		FailureMessage: event.Data.FailureMessage,
	}

	status, ok := webhookStatuses[req.Provider][event.Type]
	if !ok {
		return res, nil
	}

	res.Status = status
	res.Processed = true
	return res, nil
}

// Sign produces the signature header value for payload at time ts.
func (p *Provider) Sign(payload []byte, ts time.Time) string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	return "t=" + unix + ",v1=" + p.mac(unix, payload)
}

func (p *Provider) mac(unix string, payload []byte) string {
	h := hmac.New(sha256.New, p.secret)
	h.Write([]byte(unix))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func (p *Provider) verify(payload []byte, header string) error {
	var unix, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, _ := strings.Cut(strings.TrimSpace(part), "=")
		switch k {
		case "t":
			unix = v
		case "v1":
			sig = v
		}
	}
	if unix == "" || sig == "" {
		return errors.New("malformed signature header")
	}

	secs, err := strconv.ParseInt(unix, 10, 64)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if age := p.now().Sub(time.Unix(secs, 0)); age > p.tolerance || age < -p.tolerance {
		return fmt.Errorf("timestamp outside tolerance: %s", age)
	}

	if !hmac.Equal([]byte(sig), []byte(p.mac(unix, payload))) {
		return errors.New("signature mismatch")
	}
	return nil
}

func transactionID(provider domain.PaymentProvider) string {
	if provider == domain.ProviderPayPal {
		return "PAY-" + ulid.Make().String()
	}
	return "pi_" + strings.ToLower(ulid.Make().String())
}
