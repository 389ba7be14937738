// Package sheets appends finished budget-comparison reports to a Google
// Sheet, one row per category line, so back-office staff can work on the
// numbers outside the dashboards.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fluxo/internal/report"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewFromEnv creates an exporter using service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID, sheetName string) (*Exporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		return nil, errors.New("missing sheet name")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// AppendComparison appends the report's lines to the sheet. Each row is
// tenant, period, category, flow, budgeted, realized, difference, percent;
// the percent cell is left empty for the unbounded case.
func (e *Exporter) AppendComparison(ctx context.Context, tenantID string, rep *report.BudgetComparisonReport) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	periodLabel := fmt.Sprintf("%d", rep.Period.Year)
	if rep.Period.Month != nil {
		periodLabel = fmt.Sprintf("%d-%02d", rep.Period.Year, *rep.Period.Month)
	}

	values := make([][]any, 0, len(rep.Lines))
	for _, l := range rep.Lines {
		percent := ""
		if l.ExecutionPercent != nil {
			percent = l.ExecutionPercent.String()
		}
		values = append(values, []any{
			tenantID,
			periodLabel,
			l.Category,
			string(l.FlowType),
			l.Budgeted.String(),
			l.Realized.String(),
			l.Difference.String(),
			percent,
		})
	}
	if len(values) == 0 {
		slog.InfoContext(ctx, "No comparison lines to export",
			"tenant_id", tenantID,
			"period", periodLabel)
		return nil
	}

	rng := fmt.Sprintf("%s!A:H", e.sheetName)
	vr := &gsheet.ValueRange{Values: values}
	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}

	slog.InfoContext(ctx, "Exported comparison report to sheet",
		"tenant_id", tenantID,
		"period", periodLabel,
		"rows", len(values))
	return nil
}
