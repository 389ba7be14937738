package cashflow

import (
	"testing"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

func TestRollup(t *testing.T) {
	movements := []core.Movement{
		mov(core.Inflow, 1000, 1),
		mov(core.Inflow, 200, 12),
		mov(core.Outflow, 400, 15),
		mov(core.Outflow, 50, 28),
	}
	days, err := BuildDays(core.NewMonthPeriod(2025, 1), decimal.NewFromInt(300), movements)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	totals := Rollup(days)
	if !totals.Opening.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("opening: expected 300, got %s", totals.Opening)
	}
	if !totals.TotalInflow.Equal(decimal.NewFromInt(1200)) {
		t.Fatalf("total inflow: expected 1200, got %s", totals.TotalInflow)
	}
	if !totals.TotalOutflow.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("total outflow: expected 450, got %s", totals.TotalOutflow)
	}
	if !totals.Closing.Equal(decimal.NewFromInt(1050)) {
		t.Fatalf("closing: expected 1050, got %s", totals.Closing)
	}
	if !totals.NetVariation.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("net variation: expected 750, got %s", totals.NetVariation)
	}
	// The two derivations of net variation must agree.
	if !totals.NetVariation.Equal(totals.TotalInflow.Sub(totals.TotalOutflow)) {
		t.Fatalf("net variation %s != inflow-outflow %s",
			totals.NetVariation, totals.TotalInflow.Sub(totals.TotalOutflow))
	}
}

func TestRollupEmpty(t *testing.T) {
	totals := Rollup(nil)
	if !totals.Opening.IsZero() || !totals.Closing.IsZero() || !totals.NetVariation.IsZero() {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestRollupQuietMonth(t *testing.T) {
	days, err := BuildDays(core.NewMonthPeriod(2025, 6), decimal.NewFromInt(77), nil)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	totals := Rollup(days)
	if !totals.Opening.Equal(totals.Closing) {
		t.Fatalf("quiet month must not move the balance: %+v", totals)
	}
	if !totals.NetVariation.IsZero() {
		t.Fatalf("expected zero net variation, got %s", totals.NetVariation)
	}
}
