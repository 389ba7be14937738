package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ports for outbound adapters. Every query is scoped by tenant; adapters
// must never return rows belonging to another tenant.
type (
	// MovementSource supplies the recorded cash movements for a date range.
	MovementSource interface {
		// FetchMovements returns movements with from <= occurredOn <= to,
		// optionally restricted to one account.
		FetchMovements(ctx context.Context, tenantID string, from, to Date, accountID *uuid.UUID) ([]Movement, error)
	}

	// BudgetSource supplies the planning targets for a period.
	BudgetSource interface {
		// FetchBudgetLines returns the budget lines for a year, or for a
		// single month when period.Month is set.
		FetchBudgetLines(ctx context.Context, tenantID string, period Period) ([]BudgetLine, error)
	}

	// BalanceSource resolves the balance carried into a reporting month:
	// account starting balances plus the net of all movements strictly
	// before the given date.
	BalanceSource interface {
		// OpeningBalance returns the balance as of the day before `date`.
		// A nil accountID means all of the tenant's accounts together.
		OpeningBalance(ctx context.Context, tenantID string, date Date, accountID *uuid.UUID) (decimal.Decimal, error)
	}
)
