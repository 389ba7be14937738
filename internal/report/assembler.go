// Package report shapes engine output into the response contracts the
// dashboards consume, and orchestrates the data sources feeding the engine.
// Field names here are the contract; internal aggregation structs may
// change, these may not.
package report

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fluxo/internal/budget"
	"fluxo/internal/cashflow"
	"fluxo/internal/core"
)

type (
	// DailyBucketDTO is one day of the cash-flow report.
	DailyBucketDTO struct {
		Day            int             `json:"day"`
		OpeningBalance decimal.Decimal `json:"openingBalance"`
		InflowTotal    decimal.Decimal `json:"inflowTotal"`
		OutflowTotal   decimal.Decimal `json:"outflowTotal"`
		ClosingBalance decimal.Decimal `json:"closingBalance"`
	}

	// CashFlowReport is the daily cash-flow response contract.
	CashFlowReport struct {
		Year                  int              `json:"year"`
		Month                 int              `json:"month"`
		AccountID             *uuid.UUID       `json:"accountId"`
		OpeningBalanceOfMonth decimal.Decimal  `json:"openingBalanceOfMonth"`
		ClosingBalanceOfMonth decimal.Decimal  `json:"closingBalanceOfMonth"`
		TotalInflow           decimal.Decimal  `json:"totalInflow"`
		TotalOutflow          decimal.Decimal  `json:"totalOutflow"`
		NetVariation          decimal.Decimal  `json:"netVariation"`
		Days                  []DailyBucketDTO `json:"days"`
	}

	// PeriodDTO describes the reporting window of a comparison report.
	PeriodDTO struct {
		Year      int    `json:"year"`
		Month     *int   `json:"month"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}

	// VarianceDTO carries budgeted-vs-realized figures. ExecutionPercent is
	// null when the budget was zero but money moved ("unbounded"); it is
	// never a non-finite number.
	VarianceDTO struct {
		Budgeted         decimal.Decimal  `json:"budgeted"`
		Realized         decimal.Decimal  `json:"realized"`
		Difference       decimal.Decimal  `json:"difference"`
		ExecutionPercent *decimal.Decimal `json:"executionPercent"`
	}

	// BalanceDTO is the net (inflow-outflow) budget-vs-actual row.
	BalanceDTO struct {
		Budgeted   decimal.Decimal `json:"budgeted"`
		Realized   decimal.Decimal `json:"realized"`
		Difference decimal.Decimal `json:"difference"`
	}

	// ComparisonLineDTO is one (category, flowType) of the comparison
	// report. FlowType lets the dashboard color the row: over-realized
	// inflow is favorable, over-spent outflow is not.
	ComparisonLineDTO struct {
		Category         string           `json:"category"`
		FlowType         core.FlowType    `json:"flowType"`
		Budgeted         decimal.Decimal  `json:"budgeted"`
		Realized         decimal.Decimal  `json:"realized"`
		Difference       decimal.Decimal  `json:"difference"`
		ExecutionPercent *decimal.Decimal `json:"executionPercent"`
	}

	// ComparisonSummaryDTO rolls the lines up per flow plus the balance.
	ComparisonSummaryDTO struct {
		Inflow  VarianceDTO `json:"inflow"`
		Outflow VarianceDTO `json:"outflow"`
		Balance BalanceDTO  `json:"balance"`
	}

	// BudgetComparisonReport is the budget-vs-actual response contract.
	BudgetComparisonReport struct {
		Period  PeriodDTO            `json:"period"`
		Summary ComparisonSummaryDTO `json:"summary"`
		Lines   []ComparisonLineDTO  `json:"lines"`
	}
)

// AssembleCashFlow maps day buckets and month totals into the daily
// cash-flow contract.
func AssembleCashFlow(period core.Period, accountID *uuid.UUID, days []cashflow.DailyBucket, totals cashflow.MonthTotals) *CashFlowReport {
	out := &CashFlowReport{
		Year:                  period.Year,
		Month:                 period.Month,
		AccountID:             accountID,
		OpeningBalanceOfMonth: totals.Opening,
		ClosingBalanceOfMonth: totals.Closing,
		TotalInflow:           totals.TotalInflow,
		TotalOutflow:          totals.TotalOutflow,
		NetVariation:          totals.NetVariation,
		Days:                  make([]DailyBucketDTO, 0, len(days)),
	}
	for _, d := range days {
		out.Days = append(out.Days, DailyBucketDTO{
			Day:            d.Day,
			OpeningBalance: d.Opening,
			InflowTotal:    d.InflowTotal,
			OutflowTotal:   d.OutflowTotal,
			ClosingBalance: d.Closing,
		})
	}
	return out
}

// AssembleComparison maps a reconciliation into the comparison contract.
func AssembleComparison(period core.Period, rec budget.Reconciliation) *BudgetComparisonReport {
	p := PeriodDTO{
		Year:      period.Year,
		StartDate: period.Start().String(),
		EndDate:   period.End().String(),
	}
	if !period.WholeYear() {
		month := period.Month
		p.Month = &month
	}

	out := &BudgetComparisonReport{
		Period: p,
		Summary: ComparisonSummaryDTO{
			Inflow:  varianceDTO(rec.Inflow),
			Outflow: varianceDTO(rec.Outflow),
			Balance: BalanceDTO{
				Budgeted:   rec.Balance.Budgeted,
				Realized:   rec.Balance.Realized,
				Difference: rec.Balance.Difference,
			},
		},
		Lines: make([]ComparisonLineDTO, 0, len(rec.Lines)),
	}
	for _, l := range rec.Lines {
		out.Lines = append(out.Lines, ComparisonLineDTO{
			Category:         l.Category,
			FlowType:         l.Flow,
			Budgeted:         l.Budgeted,
			Realized:         l.Realized,
			Difference:       l.Difference,
			ExecutionPercent: l.ExecutionPercent,
		})
	}
	return out
}

func varianceDTO(s budget.FlowSummary) VarianceDTO {
	return VarianceDTO{
		Budgeted:         s.Budgeted,
		Realized:         s.Realized,
		Difference:       s.Difference,
		ExecutionPercent: s.ExecutionPercent,
	}
}
