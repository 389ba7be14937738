package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"fluxo/internal/amqp"
	"fluxo/internal/core"
	"fluxo/internal/storage"
)

// handleCashFlow serves the daily cash-flow report:
// GET /api/reports/cashflow?year=YYYY&month=M[&account_id=UUID]
func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	tenantID, err := parseTenant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	accountID, err := parseAccountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.DailyCashFlow(r.Context(), tenantID, year, month, accountID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

// handleBudgetComparison serves the budget-vs-actual report:
// GET /api/reports/budget-comparison?year=YYYY[&month=M]
func (s *Server) handleBudgetComparison(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	tenantID, err := parseTenant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	period, err := parseComparisonPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.BudgetComparison(r.Context(), tenantID, period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

type createExportRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 0 = whole year
}

type createExportResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// handleCreateExport enqueues a budget-comparison export:
// POST /api/reports/exports {"year": 2026, "month": 8}
//
// The job row is written before publishing, so a dead broker only delays
// the export until the worker's pending sweep picks it up.
func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	tenantID, err := parseTenant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req createExportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	period := core.Period{Year: req.Year, Month: req.Month}
	if err := period.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := storage.ExportJob{
		ID:       uuid.New(),
		TenantID: tenantID,
		Year:     req.Year,
		Month:    req.Month,
	}
	if err := s.exports.CreateExportJob(r.Context(), job); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if s.publisher != nil {
		msg := amqp.NewReportExportMessage(job.ID, tenantID, req.Year, req.Month)
		if err := s.publisher.PublishReportExport(r.Context(), msg); err != nil {
			// Job stays pending; the worker sweep will find it.
			slog.ErrorContext(r.Context(), "Failed to publish export message",
				"job_id", job.ID,
				"error", err)
		}
	} else {
		slog.WarnContext(r.Context(), "Export publisher not available, job left pending",
			"job_id", job.ID)
	}

	writeJSON(w, http.StatusAccepted, createExportResponse{
		JobID:  job.ID.String(),
		Status: storage.ExportPending,
	})
}

type exportStatusResponse struct {
	JobID  string          `json:"jobId"`
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	Report json.RawMessage `json:"report,omitempty"`
	Year   int             `json:"year"`
	Month  int             `json:"month"`
}

// handleGetExport returns an export job and, once done, its report:
// GET /api/reports/exports/{id}
func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	tenantID, err := parseTenant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rawID := strings.TrimPrefix(r.URL.Path, "/api/reports/exports/")
	jobID, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid export job id")
		return
	}

	job, err := s.exports.GetExportJob(r.Context(), tenantID, jobID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := exportStatusResponse{
		JobID:  job.ID.String(),
		Status: job.Status,
		Error:  job.LastError,
		Year:   job.Year,
		Month:  job.Month,
	}
	if job.Status == storage.ExportDone && len(job.Payload) > 0 {
		resp.Report = json.RawMessage(job.Payload)
	}
	writeJSON(w, http.StatusOK, resp)
}
