// Package budget compares realized movements against budget lines per
// (category, flow type) and rolls the variances up into a period summary.
package budget

import (
	"sort"

	"github.com/shopspring/decimal"

	"fluxo/internal/core"
)

var hundred = decimal.NewFromInt(100)

type (
	key struct {
		category string
		flow     core.FlowType
	}

	// CategoryVariance is budgeted-vs-realized for one (category, flow)
	// pair. Flow is carried so a consumer can apply its own polarity rule
	// (over-realized inflow is good, over-spent outflow is bad); the
	// numbers themselves are neutral.
	CategoryVariance struct {
		Category   string
		Flow       core.FlowType
		Budgeted   decimal.Decimal
		Realized   decimal.Decimal
		Difference decimal.Decimal // Realized - Budgeted

		// ExecutionPercent is Realized/Budgeted*100. Zero when nothing was
		// budgeted and nothing realized; nil ("unbounded") when money moved
		// against a zero budget, so consumers never see Inf or NaN.
		ExecutionPercent *decimal.Decimal
	}

	// FlowSummary aggregates one flow type across all categories.
	FlowSummary struct {
		Budgeted         decimal.Decimal
		Realized         decimal.Decimal
		Difference       decimal.Decimal
		ExecutionPercent *decimal.Decimal
	}

	// BalanceSummary is budgeted net (inflow-outflow) against realized net.
	BalanceSummary struct {
		Budgeted   decimal.Decimal
		Realized   decimal.Decimal
		Difference decimal.Decimal
	}

	// Reconciliation is the full budget-vs-actual result for a period.
	// Lines covers the union of categories present in movements or budget
	// lines; a category budgeted but never realized still appears, and
	// vice versa.
	Reconciliation struct {
		Lines   []CategoryVariance
		Inflow  FlowSummary
		Outflow FlowSummary
		Balance BalanceSummary
	}
)

// Reconcile joins realized movements against budget lines. Missing budget
// rows count as zero budgeted; budgeted categories with no movements count
// as zero realized. Inputs are assumed already validated at ingestion; the
// only defensive math here is the zero-budget percent handling.
//
// Output ordering is deterministic (inflows first, then by category) so two
// runs over the same snapshot are byte-identical.
func Reconcile(movements []core.Movement, lines []core.BudgetLine) Reconciliation {
	realized := make(map[key]decimal.Decimal)
	for _, m := range movements {
		k := key{category: m.Category, flow: m.Flow}
		realized[k] = realized[k].Add(m.Amount)
	}

	budgeted := make(map[key]decimal.Decimal)
	for _, l := range lines {
		k := key{category: l.Category, flow: l.Flow}
		budgeted[k] = budgeted[k].Add(l.Budgeted)
	}

	keys := make([]key, 0, len(realized)+len(budgeted))
	seen := make(map[key]bool)
	for k := range realized {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range budgeted {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].flow != keys[j].flow {
			return keys[i].flow == core.Inflow
		}
		return keys[i].category < keys[j].category
	})

	var r Reconciliation
	r.Lines = make([]CategoryVariance, 0, len(keys))
	for _, k := range keys {
		b, re := budgeted[k], realized[k]
		v := CategoryVariance{
			Category:         k.category,
			Flow:             k.flow,
			Budgeted:         b,
			Realized:         re,
			Difference:       re.Sub(b),
			ExecutionPercent: executionPercent(b, re),
		}
		r.Lines = append(r.Lines, v)

		switch k.flow {
		case core.Inflow:
			r.Inflow.Budgeted = r.Inflow.Budgeted.Add(b)
			r.Inflow.Realized = r.Inflow.Realized.Add(re)
		case core.Outflow:
			r.Outflow.Budgeted = r.Outflow.Budgeted.Add(b)
			r.Outflow.Realized = r.Outflow.Realized.Add(re)
		}
	}

	r.Inflow.Difference = r.Inflow.Realized.Sub(r.Inflow.Budgeted)
	r.Inflow.ExecutionPercent = executionPercent(r.Inflow.Budgeted, r.Inflow.Realized)
	r.Outflow.Difference = r.Outflow.Realized.Sub(r.Outflow.Budgeted)
	r.Outflow.ExecutionPercent = executionPercent(r.Outflow.Budgeted, r.Outflow.Realized)

	r.Balance.Budgeted = r.Inflow.Budgeted.Sub(r.Outflow.Budgeted)
	r.Balance.Realized = r.Inflow.Realized.Sub(r.Outflow.Realized)
	r.Balance.Difference = r.Balance.Realized.Sub(r.Balance.Budgeted)

	return r
}

// executionPercent returns realized/budgeted*100 rounded to two decimals,
// zero when both sides are zero, and nil when the budget is zero but money
// moved anyway.
func executionPercent(budgeted, realized decimal.Decimal) *decimal.Decimal {
	if budgeted.IsZero() {
		if realized.IsZero() {
			zero := decimal.Zero
			return &zero
		}
		return nil
	}
	p := realized.Mul(hundred).DivRound(budgeted, 2)
	return &p
}
