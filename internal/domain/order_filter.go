package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderFilter has AND semantics across fields, OR semantics within each field slice
type OrderFilter struct {
	IDs             []uuid.UUID
	UserIDs         []uuid.UUID
	Numbers         []string
	Statuses        []OrderStatus
	PaymentStatuses []PaymentStatus
	CreatedAt       *TimeRange
	UpdatedAt       *TimeRange
	Limit           int
}

const (
	DefaultOrderLimit = 50
	MaxOrderLimit     = 500
)

func (f OrderFilter) Validate() error {
	if len(f.IDs) == 0 && len(f.UserIDs) == 0 && len(f.Numbers) == 0 && len(f.Statuses) == 0 && len(f.PaymentStatuses) == 0 && f.CreatedAt == nil && f.UpdatedAt == nil {
		return errors.New("all fields are empty")
	}

	if f.Limit < 0 || f.Limit > MaxOrderLimit {
		return fmt.Errorf("limit must be between 0 and %d", MaxOrderLimit)
	}

	if f.CreatedAt != nil {
		if err := f.CreatedAt.Validate(); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
	}

	if f.UpdatedAt != nil {
		if err := f.UpdatedAt.Validate(); err != nil {
			return fmt.Errorf("updatedAt: %w", err)
		}
	}

	return nil
}

// EffectiveLimit resolves the zero value to DefaultOrderLimit.
func (f OrderFilter) EffectiveLimit() int {
	if f.Limit == 0 {
		return DefaultOrderLimit
	}
	return f.Limit
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return errors.New("both Before and After are nil")
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After")
		}
	}

	return nil
}
