package cashflow

import "github.com/shopspring/decimal"

// MonthTotals is the month-level reduction of a day sequence.
type MonthTotals struct {
	Opening      decimal.Decimal
	Closing      decimal.Decimal
	TotalInflow  decimal.Decimal
	TotalOutflow decimal.Decimal
	NetVariation decimal.Decimal
}

// Rollup reduces the daily buckets to month totals. NetVariation equals
// both Closing-Opening and TotalInflow-TotalOutflow; the equality is a
// cross-check on BuildDays, not two independent results.
func Rollup(days []DailyBucket) MonthTotals {
	var t MonthTotals
	if len(days) == 0 {
		return t
	}
	t.Opening = days[0].Opening
	t.Closing = days[len(days)-1].Closing
	for _, d := range days {
		t.TotalInflow = t.TotalInflow.Add(d.InflowTotal)
		t.TotalOutflow = t.TotalOutflow.Add(d.OutflowTotal)
	}
	t.NetVariation = t.Closing.Sub(t.Opening)
	return t
}
