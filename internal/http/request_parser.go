// Request parsing and validation helpers. The tenant is always explicit:
// it arrives on every request and is threaded through every call; there is
// no ambient "current tenant" anywhere in the service.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"fluxo/internal/core"
)

// TenantHeader names the header the gateway sets after authenticating.
const TenantHeader = "X-Tenant-ID"

var errMissingTenant = errors.New("missing " + TenantHeader + " header")

func parseTenant(r *http.Request) (string, error) {
	tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
	if tenant == "" {
		return "", errMissingTenant
	}
	return tenant, nil
}

// parseYearMonth reads required year and month query parameters. Unlike a
// UI defaulting to "now", a reporting API with an implicit period hides
// caller bugs, so absence is an error.
func parseYearMonth(r *http.Request) (year, month int, err error) {
	year, err = parseIntParam(r, "year")
	if err != nil {
		return 0, 0, err
	}
	month, err = parseIntParam(r, "month")
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// parseComparisonPeriod reads a required year and an optional month.
func parseComparisonPeriod(r *http.Request) (core.Period, error) {
	year, err := parseIntParam(r, "year")
	if err != nil {
		return core.Period{}, err
	}
	if strings.TrimSpace(r.URL.Query().Get("month")) == "" {
		return core.NewYearPeriod(year), nil
	}
	month, err := parseIntParam(r, "month")
	if err != nil {
		return core.Period{}, err
	}
	return core.NewMonthPeriod(year, month), nil
}

func parseIntParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter %q", name, raw)
	}
	return v, nil
}

// parseAccountID reads the optional account_id filter.
func parseAccountID(r *http.Request) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("account_id"))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid account_id %q", raw)
	}
	return &id, nil
}
