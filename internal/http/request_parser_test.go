package http

import (
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestParseTenant(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/reports/cashflow", nil)
	if _, err := parseTenant(r); err == nil {
		t.Fatalf("expected error without header")
	}

	r.Header.Set(TenantHeader, "  ")
	if _, err := parseTenant(r); err == nil {
		t.Fatalf("expected error for blank header")
	}

	r.Header.Set(TenantHeader, "acme")
	tenant, err := parseTenant(r)
	if err != nil || tenant != "acme" {
		t.Fatalf("expected acme, got %q %v", tenant, err)
	}
}

func TestParseYearMonth(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?year=2025&month=6", nil)
	year, month, err := parseYearMonth(r)
	if err != nil || year != 2025 || month != 6 {
		t.Fatalf("expected 2025/6, got %d/%d %v", year, month, err)
	}

	for _, target := range []string{"/x", "/x?year=2025", "/x?month=6", "/x?year=abc&month=6", "/x?year=2025&month=six"} {
		r := httptest.NewRequest("GET", target, nil)
		if _, _, err := parseYearMonth(r); err == nil {
			t.Fatalf("%s: expected error", target)
		}
	}
}

func TestParseComparisonPeriod(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?year=2025&month=3", nil)
	p, err := parseComparisonPeriod(r)
	if err != nil || p.Year != 2025 || p.Month != 3 {
		t.Fatalf("expected 2025/3, got %+v %v", p, err)
	}

	r = httptest.NewRequest("GET", "/x?year=2025", nil)
	p, err = parseComparisonPeriod(r)
	if err != nil || !p.WholeYear() || p.Year != 2025 {
		t.Fatalf("expected whole year 2025, got %+v %v", p, err)
	}

	r = httptest.NewRequest("GET", "/x?month=3", nil)
	if _, err := parseComparisonPeriod(r); err == nil {
		t.Fatalf("expected error without year")
	}
}

func TestParseAccountID(t *testing.T) {
	r := httptest.NewRequest("GET", "/x", nil)
	id, err := parseAccountID(r)
	if err != nil || id != nil {
		t.Fatalf("expected nil for absent param, got %v %v", id, err)
	}

	want := uuid.New()
	r = httptest.NewRequest("GET", "/x?account_id="+want.String(), nil)
	id, err = parseAccountID(r)
	if err != nil || id == nil || *id != want {
		t.Fatalf("expected %s, got %v %v", want, id, err)
	}

	r = httptest.NewRequest("GET", "/x?account_id=not-a-uuid", nil)
	if _, err := parseAccountID(r); err == nil {
		t.Fatalf("expected error for bad uuid")
	}
}
