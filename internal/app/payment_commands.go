package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"go.uber.org/zap"
)

const (
	entityPayment = "Payment"
	entityWebhook = "Webhook"
)

type ProcessOrderPayment struct {
	OrderID         uuid.UUID
	PaymentMethodID uuid.UUID
}

// PaymentOutcome describes one payment attempt. When the provider asks for
// customer action, ClientSecret and NextActionType tell the client what to do.
type PaymentOutcome struct {
	Payment        domain.Payment
	Order          domain.Order
	RequiresAction bool
	ClientSecret   string
	NextActionType string
}

type ProcessWebhook struct {
	Provider  string
	Payload   []byte
	Signature string
	Headers   map[string]string
}

type WebhookOutcome struct {
	EventID   string
	EventType string
	// Processed is false for event types that are acknowledged and ignored.
	Processed bool
	// Duplicate is set when the event id was already handled.
	Duplicate bool
	PaymentID *uuid.UUID
}

// ProcessOrderPayment charges a pending order with one of the owner's
// payment methods. Every attempt is recorded, declined ones included: on a
// decline the attempt is committed and a PaymentFailed error is returned
// together with the outcome holding the recorded payment.
//
// The order row stays locked from the first read until commit, so a
// concurrent payment or cancellation waits instead of racing the charge.
func (a *App) ProcessOrderPayment(ctx context.Context, actor domain.Actor, cmd ProcessOrderPayment) (PaymentOutcome, error) {
	// charged is set once the provider has accepted the request; from then on
	// the attempt must be stored even if the rest of the transaction fails.
	var charged *paymentAttempt

	result, err := inTx(ctx, a, entityPayment, "Process", func(uow port.UnitOfWork) (paymentAttempt, change, error) {
		order, err := load(entityOrder, cmd.OrderID, func() (domain.Order, error) {
			return uow.Orders().GetOrderForUpdate(ctx, cmd.OrderID)
		})
		if err != nil {
			return paymentAttempt{}, unchanged, err
		}

		if !actor.CanActFor(order.UserID) {
			return paymentAttempt{}, unchanged, domain.Forbidden("Order.PaymentDenied", fmt.Sprintf("You are not allowed to pay for order %s", order.Number))
		}
		if order.PaymentStatus.IsCaptured() {
			return paymentAttempt{}, unchanged, domain.Conflict("Order.AlreadyPaid", "Order is already paid")
		}
		if order.Status != domain.OrderStatusPending {
			return paymentAttempt{}, unchanged, domain.Validation("Order.InvalidStatus", fmt.Sprintf("Cannot pay for an order in %s status", order.Status))
		}

		pm, err := load(entityPaymentMethod, cmd.PaymentMethodID, func() (domain.PaymentMethod, error) {
			return uow.PaymentMethods().GetPaymentMethod(ctx, cmd.PaymentMethodID)
		})
		if err != nil {
			return paymentAttempt{}, unchanged, err
		}
		if pm.UserID != order.UserID {
			return paymentAttempt{}, unchanged, notFound(entityPaymentMethod, cmd.PaymentMethodID)
		}
		if !pm.IsActive {
			return paymentAttempt{}, unchanged, domain.Validation("PaymentMethod.Inactive", "Payment method is no longer active")
		}

		customerRef, _ := pm.Metadata.GetString(domain.MetaProviderCustomerID)

		res, providerErr := a.payments.ProcessPayment(ctx, port.ProcessPaymentRequest{
			Amount:      order.Total,
			MethodType:  pm.Type,
			Provider:    pm.Provider,
			Token:       pm.Token,
			CustomerRef: customerRef,
			Metadata: map[string]string{
				"orderId":     order.ID.String(),
				"orderNumber": order.Number,
			},
		})

		now := a.now()

		var failure error
		switch {
		case providerErr != nil:
			if ctx.Err() != nil {
				return paymentAttempt{}, unchanged, providerErr
			}
			res = port.PaymentResult{Status: domain.PaymentStatusFailed, FailureMessage: providerErr.Error()}
			failure = domain.PaymentFailed("Payment.ProviderError", providerErr.Error())
		case res.Status == domain.PaymentStatusFailed:
			msg := res.FailureMessage
			if msg == "" {
				msg = "Payment was declined"
			}
			failure = domain.PaymentFailed("Payment.Declined", msg)
		}

		payment, err := domain.NewPayment(domain.NewPaymentParams{
			OrderID:         order.ID,
			UserID:          order.UserID,
			PaymentMethodID: &pm.ID,
			Amount:          order.Total,
			MethodType:      pm.Type,
			Provider:        pm.Provider,
			TransactionID:   res.TransactionID,
			Status:          res.Status,
			FailureReason:   res.FailureMessage,
			Now:             now,
		})
		if err != nil {
			return paymentAttempt{}, unchanged, err
		}
		for k, v := range res.Metadata {
			payment.Metadata.SetString(k, v)
		}
		if res.NextActionType != "" {
			payment.Metadata.SetString(domain.MetaNextActionType, res.NextActionType)
		}

		attempt := paymentAttempt{
			outcome: PaymentOutcome{
				Payment:        payment,
				Order:          order,
				RequiresAction: res.RequiresAction || payment.Status == domain.PaymentStatusRequiresAction,
				ClientSecret:   res.ClientSecret,
				NextActionType: res.NextActionType,
			},
			failure: failure,
		}
		if payment.Status != domain.PaymentStatusFailed {
			charged = &attempt
		}

		if err := recordAttempt(ctx, uow, &attempt, actor, now); err != nil {
			return paymentAttempt{}, unchanged, err
		}

		a.logger.Info("payment attempt recorded",
			zap.Stringer("order_id", order.ID),
			zap.Stringer("payment_id", payment.ID),
			zap.String("status", string(payment.Status)),
			zap.String("transaction_id", payment.TransactionID))

		return attempt, changed, nil
	})
	if err != nil {
		if charged == nil {
			return PaymentOutcome{}, err
		}
		return a.recoverCharge(ctx, actor, *charged, err)
	}

	return result.outcome, result.failure
}

type paymentAttempt struct {
	outcome PaymentOutcome
	failure error
}

// recordAttempt stores the payment and, when it succeeded, marks the order
// in attempt as paid.
func recordAttempt(ctx context.Context, uow port.UnitOfWork, attempt *paymentAttempt, actor domain.Actor, now time.Time) error {
	payment := attempt.outcome.Payment

	if err := uow.Payments().InsertPayment(ctx, payment); err != nil {
		return err
	}
	if err := uow.Outbox().AddEvents(ctx, paymentRecordedEvent(payment, now)); err != nil {
		return err
	}

	order := &attempt.outcome.Order
	if payment.Status != domain.PaymentStatusSucceeded || order.PaymentStatus.IsCaptured() || order.Status.IsTerminal() {
		return nil
	}
	return markOrderPaid(ctx, uow, order, payment.TransactionID, actor, now)
}

// recoverCharge stores an attempt the provider accepted after the original
// transaction failed. The order is re-read under lock. A failure here is
// reported as internal and never as retryable: a retry would charge again.
func (a *App) recoverCharge(ctx context.Context, actor domain.Actor, charged paymentAttempt, cause error) (PaymentOutcome, error) {
	ctx = context.WithoutCancel(ctx)
	payment := charged.outcome.Payment

	log := a.logger.With(
		zap.Stringer("order_id", payment.OrderID),
		zap.Stringer("payment_id", payment.ID),
		zap.String("transaction_id", payment.TransactionID))
	log.Warn("charged payment not recorded, retrying in a new transaction", zap.Error(cause))

	result, err := inTx(ctx, a, entityPayment, "Record", func(uow port.UnitOfWork) (paymentAttempt, change, error) {
		order, err := load(entityOrder, payment.OrderID, func() (domain.Order, error) {
			return uow.Orders().GetOrderForUpdate(ctx, payment.OrderID)
		})
		if err != nil {
			return paymentAttempt{}, unchanged, err
		}

		attempt := charged
		attempt.outcome.Order = order

		if err := recordAttempt(ctx, uow, &attempt, actor, a.now()); err != nil {
			return paymentAttempt{}, unchanged, err
		}
		return attempt, changed, nil
	})
	if err != nil {
		log.Error("charged payment could not be recorded", zap.Error(err))
		return PaymentOutcome{}, domain.Internal("Payment.RecordFailed", err)
	}

	return result.outcome, result.failure
}

// ProcessWebhook reconciles a provider notification with the stored
// payment. Unknown transactions, replays and out-of-order events are
// acknowledged without side effects.
func (a *App) ProcessWebhook(ctx context.Context, cmd ProcessWebhook) (WebhookOutcome, error) {
	provider, err := domain.ToPaymentProvider(cmd.Provider)
	if err != nil {
		return WebhookOutcome{}, domain.Validation("Webhook.InvalidProvider", fmt.Sprintf("Unknown payment provider %q", cmd.Provider))
	}

	res, err := a.payments.ProcessWebhook(ctx, port.WebhookRequest{
		Provider:  provider,
		Payload:   cmd.Payload,
		Signature: cmd.Signature,
		Headers:   cmd.Headers,
	})
	if errors.Is(err, port.ErrInvalidWebhookSignature) {
		return WebhookOutcome{}, domain.Unauthorized("Webhook.InvalidSignature", "Webhook signature verification failed")
	}
	if err != nil {
		return WebhookOutcome{}, a.fail(entityWebhook, "Process", err)
	}

	outcome := WebhookOutcome{
		EventID:   res.EventID,
		EventType: res.EventType,
		Processed: res.Processed,
	}

	log := a.logger.With(
		zap.String("provider", string(provider)),
		zap.String("event_id", res.EventID),
		zap.String("event_type", res.EventType))

	if !res.Processed {
		log.Debug("webhook ignored")
		return outcome, nil
	}
	if res.EventID != "" && a.seenWebhooks.Contains(res.EventID) {
		log.Info("webhook already handled")
		outcome.Duplicate = true
		return outcome, nil
	}

	outcome, err = inTx(ctx, a, entityPayment, "Reconcile", func(uow port.UnitOfWork) (WebhookOutcome, change, error) {
		if res.TransactionID == "" {
			log.Warn("webhook has no transaction id")
			return outcome, unchanged, nil
		}

		payment, err := uow.Payments().GetPaymentByExternalReference(ctx, res.TransactionID)
		if errors.Is(err, port.ErrNotFound) {
			log.Warn("webhook for unknown transaction", zap.String("transaction_id", res.TransactionID))
			return outcome, unchanged, nil
		}
		if err != nil {
			return outcome, unchanged, err
		}
		outcome.PaymentID = &payment.ID

		now := a.now()
		from := payment.Status

		moved, err := payment.UpdateStatus(res.Status, res.FailureMessage, now)
		if err != nil {
			log.Warn("webhook status out of order",
				zap.Stringer("payment_id", payment.ID),
				zap.String("current", string(from)),
				zap.String("requested", string(res.Status)))
			return outcome, unchanged, nil
		}
		if !moved {
			return outcome, unchanged, nil
		}

		if res.EventID != "" {
			payment.Metadata.SetString(domain.MetaWebhookEventID, res.EventID)
		}
		if err := uow.Payments().UpdatePayment(ctx, &payment); err != nil {
			return outcome, unchanged, err
		}

		event := domain.NewEvent(domain.EventPaymentStatusChanged, payment.ID, map[string]any{
			"paymentId":      payment.ID.String(),
			"orderId":        payment.OrderID.String(),
			"transactionId":  payment.TransactionID,
			"previousStatus": string(from),
			"currentStatus":  string(payment.Status),
		}, now)
		if err := uow.Outbox().AddEvents(ctx, event); err != nil {
			return outcome, unchanged, err
		}

		if payment.Status == domain.PaymentStatusSucceeded {
			if err := a.reconcileOrder(ctx, uow, payment, now); err != nil {
				return outcome, unchanged, err
			}
		}

		log.Info("payment reconciled",
			zap.Stringer("payment_id", payment.ID),
			zap.String("from", string(from)),
			zap.String("to", string(payment.Status)))

		return outcome, changed, nil
	})
	if err != nil {
		return WebhookOutcome{}, err
	}

	// only correlated events are remembered: an event that raced ahead of
	// its payment row must be reconciled when the provider re-delivers it
	if res.EventID != "" && outcome.PaymentID != nil {
		a.seenWebhooks.Add(res.EventID, struct{}{})
	}

	return outcome, nil
}

// reconcileOrder marks the order of a succeeded payment as paid unless it
// already is, or can no longer be.
func (a *App) reconcileOrder(ctx context.Context, uow port.UnitOfWork, payment domain.Payment, now time.Time) error {
	order, err := load(entityOrder, payment.OrderID, func() (domain.Order, error) {
		return uow.Orders().GetOrderForUpdate(ctx, payment.OrderID)
	})
	if err != nil {
		return err
	}

	if order.PaymentStatus.IsCaptured() || order.Status.IsTerminal() {
		a.logger.Warn("succeeded payment for an order that cannot be marked paid",
			zap.Stringer("order_id", order.ID),
			zap.Stringer("payment_id", payment.ID),
			zap.String("order_status", string(order.Status)),
			zap.String("payment_status", string(order.PaymentStatus)))
		return nil
	}

	return markOrderPaid(ctx, uow, &order, payment.TransactionID, domain.System(), now)
}

func markOrderPaid(ctx context.Context, uow port.UnitOfWork, order *domain.Order, transactionID string, actor domain.Actor, now time.Time) error {
	from := order.Status

	if err := order.MarkAsPaid(transactionID, now); err != nil {
		return err
	}
	if err := uow.Orders().UpdateOrder(ctx, order); err != nil {
		return err
	}

	events := []domain.Event{
		domain.NewEvent(domain.EventOrderPaid, order.ID, map[string]any{
			"orderId":       order.ID.String(),
			"orderNumber":   order.Number,
			"transactionId": transactionID,
			"total":         order.Total.Amount.String(),
			"currency":      order.Total.Currency.String(),
		}, now),
	}
	if from != order.Status {
		events = append(events, domain.OrderStatusChangedEvent(*order, from, actor, now))
	}

	return uow.Outbox().AddEvents(ctx, events...)
}

func paymentRecordedEvent(p domain.Payment, now time.Time) domain.Event {
	return domain.NewEvent(domain.EventPaymentRecorded, p.ID, map[string]any{
		"paymentId":     p.ID.String(),
		"orderId":       p.OrderID.String(),
		"status":        string(p.Status),
		"amount":        p.Amount.Amount.String(),
		"currency":      p.Amount.Currency.String(),
		"transactionId": p.TransactionID,
	}, now)
}
