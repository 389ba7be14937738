// Package cashflow turns a month of dated movements into a day-by-day
// running balance. All computation is pure; inputs are never mutated and
// the same snapshot always yields the same statement.
package cashflow

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

// DailyBucket is one calendar day of a reporting month.
// Closing == Opening + InflowTotal - OutflowTotal always holds, and the
// next day's Opening equals this day's Closing.
type DailyBucket struct {
	Day          int
	Opening      decimal.Decimal
	InflowTotal  decimal.Decimal
	OutflowTotal decimal.Decimal
	Closing      decimal.Decimal
}

// BuildDays buckets a month's movements by calendar day and carries the
// running balance from the supplied opening balance. Every day of the month
// appears, movements or not. Movements outside the month are rejected: the
// caller fetches by date range, so a stray row is a query bug, not data to
// silently drop.
func BuildDays(period core.Period, opening decimal.Decimal, movements []core.Movement) ([]DailyBucket, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if period.WholeYear() {
		return nil, core.ErrInvalidMonth
	}

	inflows := make(map[int]decimal.Decimal)
	outflows := make(map[int]decimal.Decimal)
	for _, m := range movements {
		if m.OccurredOn.Year() != period.Year || m.OccurredOn.Month() != period.Month {
			return nil, fmt.Errorf("movement %s dated %s is outside %04d-%02d",
				m.ID, m.OccurredOn, period.Year, period.Month)
		}
		if m.Amount.IsNegative() {
			return nil, fmt.Errorf("movement %s: %w", m.ID, core.ErrNegativeAmount)
		}
		day := m.OccurredOn.Day()
		switch m.Flow {
		case core.Inflow:
			inflows[day] = inflows[day].Add(m.Amount)
		case core.Outflow:
			outflows[day] = outflows[day].Add(m.Amount)
		default:
			return nil, fmt.Errorf("movement %s: %w", m.ID, core.ErrInvalidFlow)
		}
	}

	days := make([]DailyBucket, 0, period.DaysInMonth())
	balance := opening
	for day := 1; day <= period.DaysInMonth(); day++ {
		b := DailyBucket{
			Day:          day,
			Opening:      balance,
			InflowTotal:  inflows[day],
			OutflowTotal: outflows[day],
		}
		b.Closing = b.Opening.Add(b.InflowTotal).Sub(b.OutflowTotal)
		balance = b.Closing
		days = append(days, b)
	}
	return days, nil
}
