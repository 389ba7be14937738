package cashflow

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

func mov(flow core.FlowType, amount int64, day int) core.Movement {
	return core.Movement{
		ID:         uuid.New(),
		TenantID:   "acme",
		Flow:       flow,
		Category:   "General",
		Amount:     decimal.NewFromInt(amount),
		OccurredOn: core.NewDate(2025, 1, day),
	}
}

func TestBuildDaysRunningBalance(t *testing.T) {
	movements := []core.Movement{
		mov(core.Inflow, 1000, 1),
		mov(core.Outflow, 400, 15),
	}

	days, err := BuildDays(core.NewMonthPeriod(2025, 1), decimal.Zero, movements)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(days) != 31 {
		t.Fatalf("expected 31 days, got %d", len(days))
	}

	d1 := days[0]
	if !d1.Opening.IsZero() || !d1.InflowTotal.Equal(decimal.NewFromInt(1000)) || !d1.Closing.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("day 1 wrong: %+v", d1)
	}
	d15 := days[14]
	if !d15.Opening.Equal(decimal.NewFromInt(1000)) || !d15.OutflowTotal.Equal(decimal.NewFromInt(400)) || !d15.Closing.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("day 15 wrong: %+v", d15)
	}
	if !days[30].Closing.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("day 31 closing: expected 600, got %s", days[30].Closing)
	}
}

func TestBuildDaysChaining(t *testing.T) {
	movements := []core.Movement{
		mov(core.Inflow, 250, 3),
		mov(core.Outflow, 100, 3),
		mov(core.Outflow, 75, 20),
		mov(core.Inflow, 10, 31),
	}
	opening := decimal.NewFromInt(500)

	days, err := BuildDays(core.NewMonthPeriod(2025, 1), opening, movements)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !days[0].Opening.Equal(opening) {
		t.Fatalf("first opening: expected %s, got %s", opening, days[0].Opening)
	}
	for i, d := range days {
		want := d.Opening.Add(d.InflowTotal).Sub(d.OutflowTotal)
		if !d.Closing.Equal(want) {
			t.Fatalf("day %d closing: expected %s, got %s", d.Day, want, d.Closing)
		}
		if i > 0 && !d.Opening.Equal(days[i-1].Closing) {
			t.Fatalf("day %d opening %s does not chain from day %d closing %s",
				d.Day, d.Opening, days[i-1].Day, days[i-1].Closing)
		}
	}
}

func TestBuildDaysSameDayAggregation(t *testing.T) {
	movements := []core.Movement{
		mov(core.Inflow, 100, 10),
		mov(core.Inflow, 50, 10),
		mov(core.Outflow, 30, 10),
	}
	days, err := BuildDays(core.NewMonthPeriod(2025, 1), decimal.Zero, movements)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	d := days[9]
	if !d.InflowTotal.Equal(decimal.NewFromInt(150)) || !d.OutflowTotal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("day 10 wrong: %+v", d)
	}
}

func TestBuildDaysEmptyMonth(t *testing.T) {
	opening := decimal.NewFromInt(1234)
	days, err := BuildDays(core.NewMonthPeriod(2025, 4), opening, nil)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(days))
	}
	for _, d := range days {
		if !d.Opening.Equal(opening) || !d.Closing.Equal(opening) {
			t.Fatalf("day %d should carry the balance untouched: %+v", d.Day, d)
		}
		if !d.InflowTotal.IsZero() || !d.OutflowTotal.IsZero() {
			t.Fatalf("day %d should have zero totals: %+v", d.Day, d)
		}
	}
}

func TestBuildDaysLeapFebruary(t *testing.T) {
	days, err := BuildDays(core.NewMonthPeriod(2024, 2), decimal.Zero, nil)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(days) != 29 {
		t.Fatalf("expected 29 days for 2024-02, got %d", len(days))
	}

	days, err = BuildDays(core.NewMonthPeriod(2025, 2), decimal.Zero, nil)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(days) != 28 {
		t.Fatalf("expected 28 days for 2025-02, got %d", len(days))
	}
}

func TestBuildDaysRejectsBadInput(t *testing.T) {
	if _, err := BuildDays(core.NewMonthPeriod(2025, 13), decimal.Zero, nil); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if _, err := BuildDays(core.NewYearPeriod(2025), decimal.Zero, nil); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth for whole-year period, got %v", err)
	}

	outside := mov(core.Inflow, 10, 5)
	outside.OccurredOn = core.NewDate(2025, 2, 5)
	if _, err := BuildDays(core.NewMonthPeriod(2025, 1), decimal.Zero, []core.Movement{outside}); err == nil {
		t.Fatalf("expected error for movement outside the month")
	}

	negative := mov(core.Inflow, 10, 5)
	negative.Amount = decimal.NewFromInt(-10)
	if _, err := BuildDays(core.NewMonthPeriod(2025, 1), decimal.Zero, []core.Movement{negative}); !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}

	badFlow := mov(core.Inflow, 10, 5)
	badFlow.Flow = "SIDEWAYS"
	if _, err := BuildDays(core.NewMonthPeriod(2025, 1), decimal.Zero, []core.Movement{badFlow}); !errors.Is(err, core.ErrInvalidFlow) {
		t.Fatalf("expected ErrInvalidFlow, got %v", err)
	}
}

func TestBuildDaysNegativeClosingAllowed(t *testing.T) {
	movements := []core.Movement{mov(core.Outflow, 900, 2)}
	days, err := BuildDays(core.NewMonthPeriod(2025, 1), decimal.NewFromInt(100), movements)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if !days[1].Closing.Equal(decimal.NewFromInt(-800)) {
		t.Fatalf("expected closing -800, got %s", days[1].Closing)
	}
}
