package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Inflow  FlowType = "INFLOW"
	Outflow FlowType = "OUTFLOW"
)

type (
	// FlowType tells whether a movement adds to or removes from the balance.
	FlowType string

	// Date is a plain calendar date. Movements carry no time-of-day; the
	// CRUD layer writes the tenant's local calendar date and aggregation
	// buckets on it as stored, with no timezone conversion.
	Date struct {
		time.Time
	}

	// Movement is a single recorded cash event. Amount is always a
	// non-negative magnitude; direction comes from Flow.
	Movement struct {
		ID         uuid.UUID
		TenantID   string
		AccountID  *uuid.UUID // nil means unassigned
		Flow       FlowType
		Category   string
		Amount     decimal.Decimal
		OccurredOn Date
	}

	// BudgetLine is a planned target for one (category, flow) in a month.
	// At most one line exists per (tenant, year, month, category, flow).
	BudgetLine struct {
		ID       uuid.UUID
		TenantID string
		Year     int
		Month    int // 1-12
		Category string
		Flow     FlowType
		Budgeted decimal.Decimal
	}

	// Account is a bank or cash account movements may be assigned to.
	Account struct {
		ID              uuid.UUID
		TenantID        string
		Name            string
		StartingBalance decimal.Decimal
	}

	// Period is the reporting window for a comparison report. Month 0 means
	// the whole year.
	Period struct {
		Year  int
		Month int
	}
)

var (
	ErrInvalidYear    = errors.New("invalid year")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidFlow    = errors.New("invalid flow type")
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrEmptyCategory  = errors.New("empty category")
	ErrEmptyTenant    = errors.New("empty tenant id")
)

// Years a back-office would plausibly report on. Anything outside is a
// typo in the request, not data.
const (
	minYear = 1970
	maxYear = 9999
)

func (f FlowType) Validate() error {
	switch f {
	case Inflow, Outflow:
		return nil
	}
	return ErrInvalidFlow
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month (1-12).
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	if d.Year() < minYear || d.Year() > maxYear {
		return ErrInvalidYear
	}
	return nil
}

// String formats the date as YYYY-MM-DD, the storage and wire form.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (m Movement) Validate() error {
	if strings.TrimSpace(m.TenantID) == "" {
		return ErrEmptyTenant
	}
	if err := m.Flow.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(m.Category) == "" {
		return ErrEmptyCategory
	}
	if m.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return m.OccurredOn.Validate()
}

func (b BudgetLine) Validate() error {
	if strings.TrimSpace(b.TenantID) == "" {
		return ErrEmptyTenant
	}
	if b.Year < minYear || b.Year > maxYear {
		return ErrInvalidYear
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if err := b.Flow.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Budgeted.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// NewMonthPeriod builds a single-month period.
func NewMonthPeriod(year, month int) Period {
	return Period{Year: year, Month: month}
}

// NewYearPeriod builds a whole-year period.
func NewYearPeriod(year int) Period {
	return Period{Year: year}
}

// WholeYear reports whether the period spans the full year.
func (p Period) WholeYear() bool {
	return p.Month == 0
}

func (p Period) Validate() error {
	if p.Year < minYear || p.Year > maxYear {
		return ErrInvalidYear
	}
	if p.Month < 0 || p.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Start returns the first calendar date of the period.
func (p Period) Start() Date {
	if p.WholeYear() {
		return NewDate(p.Year, 1, 1)
	}
	return NewDate(p.Year, p.Month, 1)
}

// End returns the last calendar date of the period. time.Date normalizes
// day 0 of the next month to the actual last day, so leap years come for
// free.
func (p Period) End() Date {
	if p.WholeYear() {
		return NewDate(p.Year, 12, 31)
	}
	return NewDate(p.Year, p.Month+1, 0)
}

// DaysInMonth returns the calendar day count of the period's month, or the
// day count of December for a whole-year period.
func (p Period) DaysInMonth() int {
	return p.End().Day()
}
