package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"fluxo/internal/budget"
	"fluxo/internal/cashflow"
	"fluxo/internal/core"
	applog "fluxo/internal/log"
)

// Service reads a consistent snapshot from the movement/budget sources and
// runs the aggregation engine over it. It holds no state between calls and
// performs no I/O beyond its sources; concurrent calls are independent.
type Service struct {
	movements core.MovementSource
	budgets   core.BudgetSource
	balances  core.BalanceSource
}

func NewService(movements core.MovementSource, budgets core.BudgetSource, balances core.BalanceSource) *Service {
	return &Service{
		movements: movements,
		budgets:   budgets,
		balances:  balances,
	}
}

// DailyCashFlow produces the day-by-day cash-flow report for one month.
// The opening balance of day 1 is the account's (or all accounts') balance
// carried in from before the month. Source failures propagate as-is; there
// is no partial result and no fallback data.
func (s *Service) DailyCashFlow(ctx context.Context, tenantID string, year, month int, accountID *uuid.UUID) (*CashFlowReport, error) {
	if tenantID == "" {
		return nil, core.ErrEmptyTenant
	}
	period := core.NewMonthPeriod(year, month)
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if period.WholeYear() {
		return nil, core.ErrInvalidMonth
	}

	opening, err := s.balances.OpeningBalance(ctx, tenantID, period.Start(), accountID)
	if err != nil {
		return nil, fmt.Errorf("fetch opening balance: %w", err)
	}

	movements, err := s.movements.FetchMovements(ctx, tenantID, period.Start(), period.End(), accountID)
	if err != nil {
		return nil, fmt.Errorf("fetch movements: %w", err)
	}

	days, err := cashflow.BuildDays(period, opening, movements)
	if err != nil {
		return nil, err
	}
	totals := cashflow.Rollup(days)

	slog.DebugContext(ctx, "Built daily cash-flow report",
		applog.FieldOperation, applog.OpCashFlow,
		applog.FieldTenantID, tenantID,
		applog.FieldYear, year,
		applog.FieldMonth, month,
		"movements", len(movements))

	return AssembleCashFlow(period, accountID, days, totals), nil
}

// BudgetComparison produces the budget-vs-actual report for a month, or for
// the whole year when month is 0.
func (s *Service) BudgetComparison(ctx context.Context, tenantID string, period core.Period) (*BudgetComparisonReport, error) {
	if tenantID == "" {
		return nil, core.ErrEmptyTenant
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	movements, err := s.movements.FetchMovements(ctx, tenantID, period.Start(), period.End(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch movements: %w", err)
	}

	lines, err := s.budgets.FetchBudgetLines(ctx, tenantID, period)
	if err != nil {
		return nil, fmt.Errorf("fetch budget lines: %w", err)
	}

	rec := budget.Reconcile(movements, lines)

	slog.DebugContext(ctx, "Built budget comparison report",
		applog.FieldOperation, applog.OpComparison,
		applog.FieldTenantID, tenantID,
		applog.FieldYear, period.Year,
		applog.FieldMonth, period.Month,
		"movements", len(movements),
		"budget_lines", len(lines),
		"categories", len(rec.Lines))

	return AssembleComparison(period, rec), nil
}
