package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const entityPaymentMethod = "PaymentMethod"

type AddPaymentMethod struct {
	Type     domain.PaymentMethodType
	Provider domain.PaymentProvider
	Token    string
	Card     *domain.CardDetails
	Email    string
	// SetAsDefault is implied for the first method of a user.
	SetAsDefault bool
}

type SetDefaultPaymentMethod struct {
	PaymentMethodID uuid.UUID
}

type DeletePaymentMethod struct {
	PaymentMethodID uuid.UUID
}

// AddPaymentMethod registers a tokenized method for the signed-in user and
// attaches it to the user's customer record at the provider. The attach is
// the last step before commit and is undone when the commit fails.
func (a *App) AddPaymentMethod(ctx context.Context, actor domain.Actor, cmd AddPaymentMethod) (domain.PaymentMethod, error) {
	var attached *port.Customer

	pm, err := inTx(ctx, a, entityPaymentMethod, "Add", func(uow port.UnitOfWork) (domain.PaymentMethod, change, error) {
		if !actor.IsAuthenticated() {
			return domain.PaymentMethod{}, unchanged, domain.Unauthorized("PaymentMethod.Unauthenticated", "Sign in to add a payment method")
		}

		existing, err := uow.PaymentMethods().ListPaymentMethodsByUserID(ctx, actor.UserID)
		if err != nil {
			return domain.PaymentMethod{}, unchanged, err
		}
		if lo.ContainsBy(existing, func(pm domain.PaymentMethod) bool { return pm.Token == cmd.Token }) {
			return domain.PaymentMethod{}, unchanged, duplicateToken()
		}

		now := a.now()

		pm, err := domain.NewPaymentMethod(domain.NewPaymentMethodParams{
			UserID:    actor.UserID,
			Type:      cmd.Type,
			Provider:  cmd.Provider,
			Token:     cmd.Token,
			Card:      cmd.Card,
			Email:     cmd.Email,
			IsDefault: cmd.SetAsDefault || len(existing) == 0,
			Now:       now,
		})
		if err != nil {
			return domain.PaymentMethod{}, unchanged, err
		}

		// customers are per user and reused, so looking one up leaves nothing behind
		customer, err := a.payments.GetOrCreateCustomer(ctx, actor.UserID, pm.Provider)
		if err != nil {
			return domain.PaymentMethod{}, unchanged, fmt.Errorf("payments.GetOrCreateCustomer: %w", err)
		}
		pm.Metadata.SetString(domain.MetaProviderCustomerID, customer.CustomerRef)

		// the previous default is cleared first so the partial unique index holds
		if pm.IsDefault {
			if err := unsetDefaults(ctx, uow, existing, pm.ID, now); err != nil {
				return domain.PaymentMethod{}, unchanged, err
			}
		}

		if err := uow.PaymentMethods().InsertPaymentMethod(ctx, pm); err != nil {
			if errors.Is(err, port.ErrAlreadyExists) {
				return domain.PaymentMethod{}, unchanged, duplicateToken()
			}
			return domain.PaymentMethod{}, unchanged, err
		}

		if pm.IsDefault {
			if err := uow.Outbox().AddEvents(ctx, defaultChangedEvent(pm, now)); err != nil {
				return domain.PaymentMethod{}, unchanged, err
			}
		}

		if err := a.payments.AttachPaymentMethodToCustomer(ctx, customer, pm.Token); err != nil {
			return domain.PaymentMethod{}, unchanged, fmt.Errorf("payments.AttachPaymentMethodToCustomer: %w", err)
		}
		attached = &customer

		return pm, changed, nil
	})
	if err != nil {
		if attached != nil {
			a.detach(ctx, *attached, cmd.Token)
		}
		return domain.PaymentMethod{}, err
	}

	a.logger.Info("payment method added",
		zap.Stringer("payment_method_id", pm.ID),
		zap.Stringer("user_id", pm.UserID),
		zap.Bool("default", pm.IsDefault))

	return pm, nil
}

// detach undoes an attach whose payment method was never stored.
func (a *App) detach(ctx context.Context, customer port.Customer, token string) {
	ctx = context.WithoutCancel(ctx)

	if err := a.payments.DetachPaymentMethodFromCustomer(ctx, customer, token); err != nil {
		a.logger.Error("orphaned provider attachment",
			zap.String("customer_ref", customer.CustomerRef),
			zap.Stringer("user_id", customer.UserID),
			zap.Error(err))
	}
}

// SetDefaultPaymentMethod is idempotent for the current default.
func (a *App) SetDefaultPaymentMethod(ctx context.Context, actor domain.Actor, cmd SetDefaultPaymentMethod) (domain.PaymentMethod, error) {
	return inTx(ctx, a, entityPaymentMethod, "SetDefault", func(uow port.UnitOfWork) (domain.PaymentMethod, change, error) {
		pm, err := loadOwnPaymentMethod(ctx, uow, actor, cmd.PaymentMethodID)
		if err != nil {
			return domain.PaymentMethod{}, unchanged, err
		}

		if pm.IsDefault {
			return pm, unchanged, nil
		}
		if !pm.IsActive {
			return domain.PaymentMethod{}, unchanged, domain.Validation("PaymentMethod.Inactive", "An inactive payment method cannot be the default")
		}

		methods, err := uow.PaymentMethods().ListPaymentMethodsByUserID(ctx, pm.UserID)
		if err != nil {
			return domain.PaymentMethod{}, unchanged, err
		}

		now := a.now()

		if err := unsetDefaults(ctx, uow, methods, pm.ID, now); err != nil {
			return domain.PaymentMethod{}, unchanged, err
		}

		pm.SetDefault(now)
		if err := uow.PaymentMethods().UpdatePaymentMethod(ctx, &pm); err != nil {
			return domain.PaymentMethod{}, unchanged, err
		}

		if err := uow.Outbox().AddEvents(ctx, defaultChangedEvent(pm, now)); err != nil {
			return domain.PaymentMethod{}, unchanged, err
		}

		return pm, changed, nil
	})
}

func (a *App) DeletePaymentMethod(ctx context.Context, actor domain.Actor, cmd DeletePaymentMethod) (struct{}, error) {
	return inTx(ctx, a, entityPaymentMethod, "Delete", func(uow port.UnitOfWork) (struct{}, change, error) {
		pm, err := loadOwnPaymentMethod(ctx, uow, actor, cmd.PaymentMethodID)
		if err != nil {
			return struct{}{}, unchanged, err
		}

		payments, err := uow.Payments().ListPaymentsByPaymentMethodID(ctx, pm.ID)
		if err != nil {
			return struct{}{}, unchanged, err
		}

		methods, err := uow.PaymentMethods().ListPaymentMethodsByUserID(ctx, pm.UserID)
		if err != nil {
			return struct{}{}, unchanged, err
		}

		if err := pm.CanBeDeleted(payments, len(methods)); err != nil {
			return struct{}{}, unchanged, err
		}

		if err := uow.PaymentMethods().DeletePaymentMethod(ctx, pm.ID); err != nil {
			return struct{}{}, unchanged, err
		}

		a.logger.Info("payment method deleted", zap.Stringer("payment_method_id", pm.ID), zap.Stringer("user_id", pm.UserID))

		return struct{}{}, changed, nil
	})
}

// loadOwnPaymentMethod reports methods of other users as not found.
func loadOwnPaymentMethod(ctx context.Context, uow port.UnitOfWork, actor domain.Actor, id uuid.UUID) (domain.PaymentMethod, error) {
	pm, err := load(entityPaymentMethod, id, func() (domain.PaymentMethod, error) {
		return uow.PaymentMethods().GetPaymentMethod(ctx, id)
	})
	if err != nil {
		return domain.PaymentMethod{}, err
	}

	if !actor.CanActFor(pm.UserID) {
		return domain.PaymentMethod{}, notFound(entityPaymentMethod, id)
	}

	return pm, nil
}

func unsetDefaults(ctx context.Context, uow port.UnitOfWork, methods []domain.PaymentMethod, keep uuid.UUID, now time.Time) error {
	for _, m := range methods {
		if m.ID == keep || !m.UnsetDefault(now) {
			continue
		}
		if err := uow.PaymentMethods().UpdatePaymentMethod(ctx, &m); err != nil {
			return err
		}
	}
	return nil
}

func defaultChangedEvent(pm domain.PaymentMethod, now time.Time) domain.Event {
	return domain.NewEvent(domain.EventDefaultMethodChanged, pm.ID, map[string]any{
		"paymentMethodId": pm.ID.String(),
		"userId":          pm.UserID.String(),
		"displayName":     pm.DisplayName,
	}, now)
}

func duplicateToken() *domain.Error {
	return domain.Conflict("PaymentMethod.DuplicateToken", "This payment method is already registered")
}
