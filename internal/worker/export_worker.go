// Package worker turns queued export jobs into stored report snapshots.
// It is the only writer of job status; the HTTP layer just enqueues.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
	applog "fluxo/internal/log"
	"fluxo/internal/report"
	"fluxo/internal/storage"
)

// ComparisonExporter pushes a finished report to an external destination.
type ComparisonExporter interface {
	AppendComparison(ctx context.Context, tenantID string, rep *report.BudgetComparisonReport) error
}

// ExportWorker consumes export jobs, recomputes the comparison report
// through the same engine the API uses, and stores the snapshot on the
// job row.
type ExportWorker struct {
	storage   *storage.Repository
	reports   *report.Service
	exporter  ComparisonExporter // optional
	batchSize int
}

func NewExportWorker(repo *storage.Repository, reports *report.Service, exporter ComparisonExporter, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   repo,
		reports:   reports,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single export message from AMQP.
// Finished jobs are skipped, so redelivery is harmless.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ReportExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		applog.FieldOperation, applog.OpExport,
		applog.FieldJobID, msg.JobID,
		applog.FieldTenantID, msg.TenantID,
		applog.FieldYear, msg.Year,
		applog.FieldMonth, msg.Month)

	job, err := w.storage.GetExportJob(ctx, msg.TenantID, msg.JobID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Export message references unknown job, dropping",
			"job_id", msg.JobID,
			"tenant_id", msg.TenantID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get export job: %w", err)
	}
	if job.Status == storage.ExportDone {
		slog.InfoContext(ctx, "Export job already done, skipping", "job_id", job.ID)
		return nil
	}

	return w.processJob(ctx, job)
}

// processJob computes and stores the report. A failed computation is a
// terminal job failure (recorded on the row, message acked); only storage
// write failures bubble up for redelivery.
func (w *ExportWorker) processJob(ctx context.Context, job *storage.ExportJob) error {
	period := core.Period{Year: job.Year, Month: job.Month}
	rep, err := w.reports.BudgetComparison(ctx, job.TenantID, period)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, job.ID, err); markErr != nil {
			return fmt.Errorf("mark export error: %w", markErr)
		}
		return nil
	}

	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := w.storage.MarkExportDone(ctx, job.ID, payload); err != nil {
		return fmt.Errorf("mark export done: %w", err)
	}

	// Sheets push is best-effort: the snapshot is already stored and
	// served from the job row.
	if w.exporter != nil {
		if err := w.exporter.AppendComparison(ctx, job.TenantID, rep); err != nil {
			slog.ErrorContext(ctx, "Failed to export report to sheet",
				"job_id", job.ID,
				"tenant_id", job.TenantID,
				"error", err)
		}
	}

	return nil
}

// ProcessPendingJobs sweeps jobs whose messages never arrived (broker down
// at enqueue time, or lost deliveries). Runs at startup and on a ticker.
func (w *ExportWorker) ProcessPendingJobs(ctx context.Context) error {
	jobs, err := w.storage.ListPendingExports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending export jobs", "count", len(jobs))
	for i := range jobs {
		if err := w.processJob(ctx, &jobs[i]); err != nil {
			slog.ErrorContext(ctx, "Failed to process pending export",
				"job_id", jobs[i].ID,
				"error", err)
		}
	}
	return nil
}
