package worker

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
	"fluxo/internal/report"
	"fluxo/internal/storage"
)

type recordingExporter struct {
	tenants []string
	err     error
}

func (e *recordingExporter) AppendComparison(_ context.Context, tenantID string, _ *report.BudgetComparisonReport) error {
	if e.err != nil {
		return e.err
	}
	e.tenants = append(e.tenants, tenantID)
	return nil
}

func testSetup(t *testing.T, exporter ComparisonExporter) (*ExportWorker, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "fluxo.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	reports := report.NewService(repo, repo, repo)
	return NewExportWorker(repo, reports, exporter, 10), repo
}

func seedData(t *testing.T, repo *storage.Repository) {
	t.Helper()
	ctx := context.Background()
	movements := []core.Movement{
		{ID: uuid.New(), TenantID: "acme", Flow: core.Inflow, Category: "Sales", Amount: decimal.NewFromInt(5000), OccurredOn: core.NewDate(2025, 6, 3)},
		{ID: uuid.New(), TenantID: "acme", Flow: core.Outflow, Category: "Marketing", Amount: decimal.NewFromInt(2800), OccurredOn: core.NewDate(2025, 6, 18)},
	}
	for _, m := range movements {
		if err := repo.CreateMovement(ctx, m); err != nil {
			t.Fatalf("create movement: %v", err)
		}
	}
	line := core.BudgetLine{ID: uuid.New(), TenantID: "acme", Year: 2025, Month: 6, Category: "Marketing", Flow: core.Outflow, Budgeted: decimal.NewFromInt(2000)}
	if err := repo.CreateBudgetLine(ctx, line); err != nil {
		t.Fatalf("create budget line: %v", err)
	}
}

func TestHandleExportMessage(t *testing.T) {
	exporter := &recordingExporter{}
	w, repo := testSetup(t, exporter)
	seedData(t, repo)
	ctx := context.Background()

	job := storage.ExportJob{ID: uuid.New(), TenantID: "acme", Year: 2025, Month: 6}
	if err := repo.CreateExportJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	msg := amqp.NewReportExportMessage(job.ID, "acme", 2025, 6)
	if err := w.HandleExportMessage(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, err := repo.GetExportJob(ctx, "acme", job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != storage.ExportDone {
		t.Fatalf("expected done, got %s (%s)", got.Status, got.LastError)
	}

	var rep report.BudgetComparisonReport
	if err := json.Unmarshal(got.Payload, &rep); err != nil {
		t.Fatalf("stored payload not a report: %v", err)
	}
	if rep.Period.Year != 2025 || len(rep.Lines) != 2 {
		t.Fatalf("unexpected snapshot: %+v", rep)
	}
	if len(exporter.tenants) != 1 || exporter.tenants[0] != "acme" {
		t.Fatalf("exporter not called: %+v", exporter.tenants)
	}
}

func TestHandleExportMessageIdempotent(t *testing.T) {
	exporter := &recordingExporter{}
	w, repo := testSetup(t, exporter)
	seedData(t, repo)
	ctx := context.Background()

	job := storage.ExportJob{ID: uuid.New(), TenantID: "acme", Year: 2025, Month: 6}
	if err := repo.CreateExportJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	msg := amqp.NewReportExportMessage(job.ID, "acme", 2025, 6)
	for i := 0; i < 3; i++ {
		if err := w.HandleExportMessage(ctx, msg); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	// Redelivered messages must not recompute or re-export.
	if len(exporter.tenants) != 1 {
		t.Fatalf("expected a single export, got %d", len(exporter.tenants))
	}
}

func TestHandleExportMessageUnknownJob(t *testing.T) {
	w, _ := testSetup(t, nil)

	msg := amqp.NewReportExportMessage(uuid.New(), "acme", 2025, 6)
	if err := w.HandleExportMessage(context.Background(), msg); err != nil {
		t.Fatalf("unknown job must be dropped, not requeued: %v", err)
	}
}

func TestProcessJobComputationFailure(t *testing.T) {
	w, repo := testSetup(t, nil)
	ctx := context.Background()

	// Month 13 fails period validation inside the engine.
	job := storage.ExportJob{ID: uuid.New(), TenantID: "acme", Year: 2025, Month: 13}
	if err := repo.CreateExportJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	msg := amqp.NewReportExportMessage(job.ID, "acme", 2025, 13)
	if err := w.HandleExportMessage(ctx, msg); err != nil {
		t.Fatalf("computation failure is terminal, message must be acked: %v", err)
	}

	got, err := repo.GetExportJob(ctx, "acme", job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != storage.ExportError || got.LastError == "" {
		t.Fatalf("expected error status with cause, got %+v", got)
	}
}

func TestProcessPendingJobs(t *testing.T) {
	w, repo := testSetup(t, nil)
	seedData(t, repo)
	ctx := context.Background()

	jobs := []storage.ExportJob{
		{ID: uuid.New(), TenantID: "acme", Year: 2025, Month: 6},
		{ID: uuid.New(), TenantID: "acme", Year: 2025},
	}
	for _, job := range jobs {
		if err := repo.CreateExportJob(ctx, job); err != nil {
			t.Fatalf("create job: %v", err)
		}
	}

	if err := w.ProcessPendingJobs(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	for _, job := range jobs {
		got, err := repo.GetExportJob(ctx, "acme", job.ID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if got.Status != storage.ExportDone {
			t.Fatalf("job %s: expected done, got %s (%s)", job.ID, got.Status, got.LastError)
		}
	}

	pending, err := repo.ListPendingExports(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("sweep left pending jobs: %+v", pending)
	}
}

func TestExporterFailureDoesNotFailJob(t *testing.T) {
	exporter := &recordingExporter{err: context.DeadlineExceeded}
	w, repo := testSetup(t, exporter)
	seedData(t, repo)
	ctx := context.Background()

	job := storage.ExportJob{ID: uuid.New(), TenantID: "acme", Year: 2025, Month: 6}
	if err := repo.CreateExportJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	msg := amqp.NewReportExportMessage(job.ID, "acme", 2025, 6)
	if err := w.HandleExportMessage(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	got, err := repo.GetExportJob(ctx, "acme", job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != storage.ExportDone {
		t.Fatalf("sheet failure must not fail the stored snapshot, got %s", got.Status)
	}
}
