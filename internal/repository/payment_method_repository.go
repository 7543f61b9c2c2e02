package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/ordercore/internal/db"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/nikolayk812/ordercore/internal/port"
	"github.com/samber/lo"
)

type paymentMethodRepository struct {
	q *db.Queries
}

func NewPaymentMethod(pool *pgxpool.Pool) port.PaymentMethodRepository {
	return &paymentMethodRepository{
		q: db.New(pool),
	}
}

func NewPaymentMethodWithTx(tx pgx.Tx) port.PaymentMethodRepository {
	return &paymentMethodRepository{
		q: db.New(tx),
	}
}

func (r *paymentMethodRepository) GetPaymentMethod(ctx context.Context, paymentMethodID uuid.UUID) (domain.PaymentMethod, error) {
	row, err := r.q.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return domain.PaymentMethod{}, fmt.Errorf("q.GetPaymentMethod: %w", mapPgError(err))
	}

	pm, err := mapDBPaymentMethodToDomain(row)
	if err != nil {
		return domain.PaymentMethod{}, fmt.Errorf("mapDBPaymentMethodToDomain: %w", err)
	}

	return pm, nil
}

func (r *paymentMethodRepository) ListPaymentMethodsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.PaymentMethod, error) {
	rows, err := r.q.ListPaymentMethodsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("q.ListPaymentMethodsByUserID: %w", err)
	}

	var methods []domain.PaymentMethod
	for _, row := range rows {
		pm, err := mapDBPaymentMethodToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapDBPaymentMethodToDomain: %w", err)
		}
		methods = append(methods, pm)
	}

	return methods, nil
}

func (r *paymentMethodRepository) InsertPaymentMethod(ctx context.Context, pm domain.PaymentMethod) error {
	metadata, err := domain.MarshalMetadata(pm.Metadata)
	if err != nil {
		return fmt.Errorf("domain.MarshalMetadata: %w", err)
	}

	arg := db.InsertPaymentMethodParams{
		ID:          pm.ID,
		UserID:      pm.UserID,
		Type:        string(pm.Type),
		Provider:    string(pm.Provider),
		Token:       pm.Token,
		DisplayName: pm.DisplayName,
		IsDefault:   pm.IsDefault,
		IsActive:    pm.IsActive,
		Metadata:    metadata,
		CreatedAt:   pm.CreatedAt,
		UpdatedAt:   pm.UpdatedAt,
	}
	if pm.Card != nil {
		arg.CardBrand = lo.ToPtr(pm.Card.Brand)
		arg.CardLast4 = lo.ToPtr(pm.Card.Last4)
		arg.CardExpMonth = lo.ToPtr(int32(pm.Card.ExpMonth))
		arg.CardExpYear = lo.ToPtr(int32(pm.Card.ExpYear))
	}
	if pm.Email != "" {
		arg.Email = lo.ToPtr(pm.Email)
	}

	if err := r.q.InsertPaymentMethod(ctx, arg); err != nil {
		return fmt.Errorf("q.InsertPaymentMethod: %w", mapPgError(err))
	}

	return nil
}

func (r *paymentMethodRepository) UpdatePaymentMethod(ctx context.Context, pm *domain.PaymentMethod) error {
	if pm.ID == uuid.Nil {
		return fmt.Errorf("paymentMethodID is empty")
	}

	metadata, err := domain.MarshalMetadata(pm.Metadata)
	if err != nil {
		return fmt.Errorf("domain.MarshalMetadata: %w", err)
	}

	rows, err := r.q.UpdatePaymentMethod(ctx, db.UpdatePaymentMethodParams{
		ID:          pm.ID,
		Version:     pm.Version,
		DisplayName: pm.DisplayName,
		IsDefault:   pm.IsDefault,
		IsActive:    pm.IsActive,
		Metadata:    metadata,
		UpdatedAt:   pm.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("q.UpdatePaymentMethod: %w", mapPgError(err))
	}

	if err := affectedOrConflict(ctx, rows, func(ctx context.Context) (bool, error) {
		return r.q.PaymentMethodExists(ctx, pm.ID)
	}); err != nil {
		return fmt.Errorf("q.UpdatePaymentMethod: %w", err)
	}

	pm.Version++
	return nil
}

func (r *paymentMethodRepository) DeletePaymentMethod(ctx context.Context, paymentMethodID uuid.UUID) error {
	rows, err := r.q.DeletePaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return fmt.Errorf("q.DeletePaymentMethod: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("q.DeletePaymentMethod: %w", port.ErrNotFound)
	}

	return nil
}

func mapDBPaymentMethodToDomain(row db.PaymentMethod) (domain.PaymentMethod, error) {
	var pm domain.PaymentMethod

	methodType, err := domain.ToPaymentMethodType(row.Type)
	if err != nil {
		return pm, fmt.Errorf("domain.ToPaymentMethodType[%s]: %w", row.Type, err)
	}

	provider, err := domain.ToPaymentProvider(row.Provider)
	if err != nil {
		return pm, fmt.Errorf("domain.ToPaymentProvider[%s]: %w", row.Provider, err)
	}

	metadata, err := domain.UnmarshalMetadata(row.Metadata)
	if err != nil {
		return pm, fmt.Errorf("domain.UnmarshalMetadata: %w", err)
	}

	var card *domain.CardDetails
	if row.CardLast4 != nil {
		card = &domain.CardDetails{
			Brand:    lo.FromPtr(row.CardBrand),
			Last4:    *row.CardLast4,
			ExpMonth: int(lo.FromPtr(row.CardExpMonth)),
			ExpYear:  int(lo.FromPtr(row.CardExpYear)),
		}
	}

	return domain.PaymentMethod{
		ID:          row.ID,
		UserID:      row.UserID,
		Type:        methodType,
		Provider:    provider,
		Token:       row.Token,
		Card:        card,
		Email:       lo.FromPtr(row.Email),
		DisplayName: row.DisplayName,
		IsDefault:   row.IsDefault,
		IsActive:    row.IsActive,
		Metadata:    metadata,
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}
