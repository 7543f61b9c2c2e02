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
)

type paymentRepository struct {
	q *db.Queries
}

func NewPayment(pool *pgxpool.Pool) port.PaymentRepository {
	return &paymentRepository{
		q: db.New(pool),
	}
}

func NewPaymentWithTx(tx pgx.Tx) port.PaymentRepository {
	return &paymentRepository{
		q: db.New(tx),
	}
}

func (r *paymentRepository) GetPayment(ctx context.Context, paymentID uuid.UUID) (domain.Payment, error) {
	dbPayment, err := r.q.GetPayment(ctx, paymentID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("q.GetPayment: %w", mapPgError(err))
	}

	payment, err := mapDBPaymentToDomain(dbPayment)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("mapDBPaymentToDomain: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) GetPaymentByExternalReference(ctx context.Context, transactionID string) (domain.Payment, error) {
	if transactionID == "" {
		return domain.Payment{}, fmt.Errorf("transactionID is empty")
	}

	dbPayment, err := r.q.GetPaymentByTransactionID(ctx, transactionID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("q.GetPaymentByTransactionID: %w", mapPgError(err))
	}

	payment, err := mapDBPaymentToDomain(dbPayment)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("mapDBPaymentToDomain: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) ListPaymentsByOrderID(ctx context.Context, orderID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.q.ListPaymentsByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("q.ListPaymentsByOrderID: %w", err)
	}

	payments, err := mapDBPaymentsToDomain(rows)
	if err != nil {
		return nil, fmt.Errorf("mapDBPaymentsToDomain: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) ListPaymentsByPaymentMethodID(ctx context.Context, paymentMethodID uuid.UUID) ([]domain.Payment, error) {
	rows, err := r.q.ListPaymentsByPaymentMethodID(ctx, &paymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("q.ListPaymentsByPaymentMethodID: %w", err)
	}

	payments, err := mapDBPaymentsToDomain(rows)
	if err != nil {
		return nil, fmt.Errorf("mapDBPaymentsToDomain: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) InsertPayment(ctx context.Context, payment domain.Payment) error {
	metadata, err := domain.MarshalMetadata(payment.Metadata)
	if err != nil {
		return fmt.Errorf("domain.MarshalMetadata: %w", err)
	}

	err = r.q.InsertPayment(ctx, db.InsertPaymentParams{
		ID:              payment.ID,
		OrderID:         payment.OrderID,
		UserID:          payment.UserID,
		PaymentMethodID: payment.PaymentMethodID,
		Amount:          payment.Amount.Amount,
		Currency:        payment.Amount.Currency.String(),
		MethodType:      string(payment.MethodType),
		Provider:        string(payment.Provider),
		TransactionID:   payment.TransactionID,
		Status:          string(payment.Status),
		FailureReason:   payment.FailureReason,
		Metadata:        metadata,
		CreatedAt:       payment.CreatedAt,
		UpdatedAt:       payment.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("q.InsertPayment: %w", mapPgError(err))
	}

	return nil
}

func (r *paymentRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	if payment.ID == uuid.Nil {
		return fmt.Errorf("paymentID is empty")
	}

	metadata, err := domain.MarshalMetadata(payment.Metadata)
	if err != nil {
		return fmt.Errorf("domain.MarshalMetadata: %w", err)
	}

	rows, err := r.q.UpdatePayment(ctx, db.UpdatePaymentParams{
		ID:            payment.ID,
		Version:       payment.Version,
		TransactionID: payment.TransactionID,
		Status:        string(payment.Status),
		FailureReason: payment.FailureReason,
		Metadata:      metadata,
		UpdatedAt:     payment.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("q.UpdatePayment: %w", mapPgError(err))
	}

	if err := affectedOrConflict(ctx, rows, func(ctx context.Context) (bool, error) {
		return r.q.PaymentExists(ctx, payment.ID)
	}); err != nil {
		return fmt.Errorf("q.UpdatePayment: %w", err)
	}

	payment.Version++
	return nil
}

func mapDBPaymentToDomain(row db.Payment) (domain.Payment, error) {
	var p domain.Payment

	amount, err := toMoney(row.Amount, row.Currency)
	if err != nil {
		return p, fmt.Errorf("toMoney: %w", err)
	}

	methodType, err := domain.ToPaymentMethodType(row.MethodType)
	if err != nil {
		return p, fmt.Errorf("domain.ToPaymentMethodType[%s]: %w", row.MethodType, err)
	}

	provider, err := domain.ToPaymentProvider(row.Provider)
	if err != nil {
		return p, fmt.Errorf("domain.ToPaymentProvider[%s]: %w", row.Provider, err)
	}

	status, err := domain.ToPaymentStatus(row.Status)
	if err != nil {
		return p, fmt.Errorf("domain.ToPaymentStatus[%s]: %w", row.Status, err)
	}

	metadata, err := domain.UnmarshalMetadata(row.Metadata)
	if err != nil {
		return p, fmt.Errorf("domain.UnmarshalMetadata: %w", err)
	}

	return domain.Payment{
		ID:              row.ID,
		OrderID:         row.OrderID,
		UserID:          row.UserID,
		PaymentMethodID: row.PaymentMethodID,
		Amount:          amount,
		MethodType:      methodType,
		Provider:        provider,
		TransactionID:   row.TransactionID,
		Status:          status,
		FailureReason:   row.FailureReason,
		Metadata:        metadata,
		Version:         row.Version,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

func mapDBPaymentsToDomain(rows []db.Payment) ([]domain.Payment, error) {
	var payments []domain.Payment

	for _, row := range rows {
		payment, err := mapDBPaymentToDomain(row)
		if err != nil {
			return nil, fmt.Errorf("mapDBPaymentToDomain: %w", err)
		}

		payments = append(payments, payment)
	}

	return payments, nil
}
