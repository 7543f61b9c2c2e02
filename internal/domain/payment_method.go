package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentMethodType string

const (
	PaymentMethodCreditCard   PaymentMethodType = "CreditCard"
	PaymentMethodDebitCard    PaymentMethodType = "DebitCard"
	PaymentMethodPayPal       PaymentMethodType = "PayPal"
	PaymentMethodBankTransfer PaymentMethodType = "BankTransfer"
)

type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "Stripe"
	ProviderPayPal PaymentProvider = "PayPal"
)

// providerMethods lists which method types each provider can process.
var providerMethods = map[PaymentProvider][]PaymentMethodType{
	ProviderStripe: {PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodBankTransfer},
	ProviderPayPal: {PaymentMethodPayPal},
}

func ToPaymentMethodType(s string) (PaymentMethodType, error) {
	t := PaymentMethodType(s)
	switch t {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPayPal, PaymentMethodBankTransfer:
		return t, nil
	}
	return "", errors.New("invalid payment method type")
}

// ToPaymentProvider is case-insensitive so webhook routes like "stripe" resolve.
func ToPaymentProvider(s string) (PaymentProvider, error) {
	for p := range providerMethods {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", errors.New("invalid payment provider")
}

func (p PaymentProvider) Supports(t PaymentMethodType) bool {
	for _, allowed := range providerMethods[p] {
		if allowed == t {
			return true
		}
	}
	return false
}

func (t PaymentMethodType) IsCard() bool {
	return t == PaymentMethodCreditCard || t == PaymentMethodDebitCard
}

type CardDetails struct {
	Brand    string
	Last4    string
	ExpMonth int
	ExpYear  int
}

type PaymentMethod struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        PaymentMethodType
	Provider    PaymentProvider
	Token       string
	Card        *CardDetails
	Email       string
	DisplayName string
	IsDefault   bool
	IsActive    bool
	Metadata    Metadata
	Version     int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

type NewPaymentMethodParams struct {
	UserID    uuid.UUID
	Type      PaymentMethodType
	Provider  PaymentProvider
	Token     string
	Card      *CardDetails
	Email     string
	IsDefault bool
	Now       time.Time
}

func NewPaymentMethod(p NewPaymentMethodParams) (PaymentMethod, error) {
	if p.UserID == uuid.Nil {
		return PaymentMethod{}, Validation("PaymentMethod.InvalidUser", "User id is required")
	}
	if strings.TrimSpace(p.Token) == "" {
		return PaymentMethod{}, Validation("PaymentMethod.InvalidToken", "Payment method token is required")
	}
	if !p.Provider.Supports(p.Type) {
		return PaymentMethod{}, Validation("PaymentMethod.UnsupportedType",
			fmt.Sprintf("Provider %s does not support %s payment methods", p.Provider, p.Type))
	}

	if p.Type.IsCard() {
		if err := validateCard(p.Card, p.Now); err != nil {
			return PaymentMethod{}, err
		}
	}
	if p.Type == PaymentMethodPayPal && strings.TrimSpace(p.Email) == "" {
		return PaymentMethod{}, Validation("PaymentMethod.InvalidEmail", "PayPal payment methods require an email")
	}

	pm := PaymentMethod{
		ID:        uuid.New(),
		UserID:    p.UserID,
		Type:      p.Type,
		Provider:  p.Provider,
		Token:     p.Token,
		Card:      p.Card,
		Email:     p.Email,
		IsDefault: p.IsDefault,
		IsActive:  true,
		Metadata:  Metadata{},
		CreatedAt: p.Now,
		UpdatedAt: p.Now,
	}
	pm.DisplayName = pm.displayName()

	return pm, nil
}

func (pm *PaymentMethod) displayName() string {
	switch {
	case pm.Type.IsCard() && pm.Card != nil:
		return fmt.Sprintf("%s ending in %s", pm.Card.Brand, pm.Card.Last4)
	case pm.Type == PaymentMethodPayPal:
		return fmt.Sprintf("PayPal (%s)", pm.Email)
	case pm.Type == PaymentMethodBankTransfer:
		return "Bank transfer"
	default:
		return string(pm.Type)
	}
}

// SetDefault reports whether the flag changed.
func (pm *PaymentMethod) SetDefault(now time.Time) bool {
	if pm.IsDefault {
		return false
	}
	pm.IsDefault = true
	pm.UpdatedAt = now
	return true
}

func (pm *PaymentMethod) UnsetDefault(now time.Time) bool {
	if !pm.IsDefault {
		return false
	}
	pm.IsDefault = false
	pm.UpdatedAt = now
	return true
}

func (pm *PaymentMethod) Deactivate(now time.Time) {
	pm.IsActive = false
	pm.UpdatedAt = now
}

// CanBeDeleted applies the deletion rules given the payments made with the
// method and the total number of methods the user owns.
func (pm *PaymentMethod) CanBeDeleted(payments []Payment, userMethodCount int) error {
	for _, p := range payments {
		if p.Status.IsInFlight() {
			return Conflict("PaymentMethod.InUse", "Payment method has pending or processing payments")
		}
	}
	if pm.IsDefault && userMethodCount > 1 {
		return Conflict("PaymentMethod.IsDefault", "Set another payment method as default before deleting this one")
	}
	return nil
}

func validateCard(card *CardDetails, now time.Time) error {
	if card == nil {
		return Validation("PaymentMethod.InvalidCard", "Card details are required")
	}
	if len(card.Last4) != 4 || strings.Trim(card.Last4, "0123456789") != "" {
		return Validation("PaymentMethod.InvalidCard", "Card last4 must be four digits")
	}
	if card.ExpMonth < 1 || card.ExpMonth > 12 {
		return Validation("PaymentMethod.InvalidCard", "Card expiry month must be between 1 and 12")
	}

	// a card is valid through the last day of its expiry month
	expiry := time.Date(card.ExpYear, time.Month(card.ExpMonth)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(expiry) {
		return Validation("PaymentMethod.CardExpired", "Card has expired")
	}
	return nil
}
