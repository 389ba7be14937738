// Package storage is the SQLite adapter behind the movement, budget and
// balance ports, plus the report-export job table used by the worker.
// Monetary amounts are stored as integer cents; the decimal/cents
// conversion happens only at this boundary.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fluxo/internal/core"

	_ "modernc.org/sqlite"
)

// Export job states.
const (
	ExportPending = "pending"
	ExportDone    = "done"
	ExportError   = "error"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAmountPrecision = errors.New("amount has more than two decimal places")
	ErrDuplicateBudget = errors.New("budget line already exists for this period and category")
)

// ExportJob is a queued budget-comparison export. The produced report
// snapshot is kept on the row so a finished job can be served without
// recomputing.
type ExportJob struct {
	ID        uuid.UUID
	TenantID  string
	Year      int
	Month     int // 0 = whole year
	Status    string
	Payload   []byte
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository struct {
	db *sql.DB
}

// Compile-time check that the repository satisfies the engine's ports.
var (
	_ core.MovementSource = (*Repository)(nil)
	_ core.BudgetSource   = (*Repository)(nil)
	_ core.BalanceSource  = (*Repository)(nil)
)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// centsFromDecimal converts a decimal amount to integer cents. Amounts with
// sub-cent precision are rejected rather than rounded; rounding policy
// belongs to whoever recorded the movement.
func centsFromDecimal(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, ErrAmountPrecision
	}
	return shifted.IntPart(), nil
}

func decimalFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// CreateAccount inserts a bank/cash account.
func (r *Repository) CreateAccount(ctx context.Context, a core.Account) error {
	cents, err := centsFromDecimal(a.StartingBalance)
	if err != nil {
		return fmt.Errorf("starting balance: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, tenant_id, name, starting_balance_cents) VALUES (?, ?, ?, ?)`,
		a.ID.String(), a.TenantID, a.Name, cents)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// CreateMovement inserts a movement row. Validation runs here because this
// is the ingestion edge: bad amounts must never reach the aggregation.
func (r *Repository) CreateMovement(ctx context.Context, m core.Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}
	cents, err := centsFromDecimal(m.Amount)
	if err != nil {
		return err
	}
	var accountID any
	if m.AccountID != nil {
		accountID = m.AccountID.String()
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO movements (id, tenant_id, account_id, flow, category, amount_cents, occurred_on)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.TenantID, accountID, string(m.Flow), m.Category, cents, m.OccurredOn.String())
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// CreateBudgetLine inserts a budget line, enforcing the one-line-per-key
// uniqueness at the database.
func (r *Repository) CreateBudgetLine(ctx context.Context, b core.BudgetLine) error {
	if err := b.Validate(); err != nil {
		return err
	}
	cents, err := centsFromDecimal(b.Budgeted)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO budget_lines (id, tenant_id, year, month, category, flow, budgeted_cents)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.TenantID, b.Year, b.Month, b.Category, string(b.Flow), cents)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBudget
		}
		return fmt.Errorf("insert budget line: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the message only.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FetchMovements implements core.MovementSource. Results are ordered by
// date then id so repeated reads of the same snapshot are identical.
func (r *Repository) FetchMovements(ctx context.Context, tenantID string, from, to core.Date, accountID *uuid.UUID) ([]core.Movement, error) {
	query := `SELECT id, tenant_id, account_id, flow, category, amount_cents, occurred_on
		FROM movements
		WHERE tenant_id = ? AND occurred_on >= ? AND occurred_on <= ?`
	args := []any{tenantID, from.String(), to.String()}
	if accountID != nil {
		query += ` AND account_id = ?`
		args = append(args, accountID.String())
	}
	query += ` ORDER BY occurred_on, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var movements []core.Movement
	for rows.Next() {
		var (
			id, tenant, flow, category, occurredOn string
			account                                sql.NullString
			cents                                  int64
		)
		if err := rows.Scan(&id, &tenant, &account, &flow, &category, &cents, &occurredOn); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m := core.Movement{
			TenantID: tenant,
			Flow:     core.FlowType(flow),
			Category: category,
			Amount:   decimalFromCents(cents),
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse movement id %q: %w", id, err)
		}
		if account.Valid {
			aid, err := uuid.Parse(account.String)
			if err != nil {
				return nil, fmt.Errorf("parse account id %q: %w", account.String, err)
			}
			m.AccountID = &aid
		}
		if m.OccurredOn, err = core.ParseDate(occurredOn); err != nil {
			return nil, fmt.Errorf("parse movement date %q: %w", occurredOn, err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movements: %w", err)
	}
	return movements, nil
}

// FetchBudgetLines implements core.BudgetSource.
func (r *Repository) FetchBudgetLines(ctx context.Context, tenantID string, period core.Period) ([]core.BudgetLine, error) {
	query := `SELECT id, tenant_id, year, month, category, flow, budgeted_cents
		FROM budget_lines
		WHERE tenant_id = ? AND year = ?`
	args := []any{tenantID, period.Year}
	if !period.WholeYear() {
		query += ` AND month = ?`
		args = append(args, period.Month)
	}
	query += ` ORDER BY month, flow, category`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query budget lines: %w", err)
	}
	defer rows.Close()

	var lines []core.BudgetLine
	for rows.Next() {
		var (
			id, tenant, category, flow string
			year, month                int
			cents                      int64
		)
		if err := rows.Scan(&id, &tenant, &year, &month, &category, &flow, &cents); err != nil {
			return nil, fmt.Errorf("scan budget line: %w", err)
		}
		l := core.BudgetLine{
			TenantID: tenant,
			Year:     year,
			Month:    month,
			Category: category,
			Flow:     core.FlowType(flow),
			Budgeted: decimalFromCents(cents),
		}
		if l.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse budget line id %q: %w", id, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget lines: %w", err)
	}
	return lines, nil
}

// OpeningBalance implements core.BalanceSource: starting balances of the
// accounts in scope plus the net of every movement dated before `date`.
// Unassigned movements count toward the all-accounts balance only.
func (r *Repository) OpeningBalance(ctx context.Context, tenantID string, date core.Date, accountID *uuid.UUID) (decimal.Decimal, error) {
	var startingCents int64
	if accountID != nil {
		err := r.db.QueryRowContext(ctx,
			`SELECT starting_balance_cents FROM accounts WHERE tenant_id = ? AND id = ?`,
			tenantID, accountID.String()).Scan(&startingCents)
		if err == sql.ErrNoRows {
			return decimal.Zero, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
		}
		if err != nil {
			return decimal.Zero, fmt.Errorf("query account: %w", err)
		}
	} else {
		err := r.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(starting_balance_cents), 0) FROM accounts WHERE tenant_id = ?`,
			tenantID).Scan(&startingCents)
		if err != nil {
			return decimal.Zero, fmt.Errorf("query accounts: %w", err)
		}
	}

	query := `SELECT COALESCE(SUM(CASE WHEN flow = 'INFLOW' THEN amount_cents ELSE -amount_cents END), 0)
		FROM movements WHERE tenant_id = ? AND occurred_on < ?`
	args := []any{tenantID, date.String()}
	if accountID != nil {
		query += ` AND account_id = ?`
		args = append(args, accountID.String())
	}

	var netCents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&netCents); err != nil {
		return decimal.Zero, fmt.Errorf("query prior net: %w", err)
	}

	return decimalFromCents(startingCents + netCents), nil
}

// CreateExportJob enqueues a pending export job.
func (r *Repository) CreateExportJob(ctx context.Context, job ExportJob) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO report_exports (id, tenant_id, year, month, status) VALUES (?, ?, ?, ?, ?)`,
		job.ID.String(), job.TenantID, job.Year, job.Month, ExportPending)
	if err != nil {
		return fmt.Errorf("insert export job: %w", err)
	}
	slog.InfoContext(ctx, "Export job created",
		"job_id", job.ID,
		"tenant_id", job.TenantID,
		"year", job.Year,
		"month", job.Month)
	return nil
}

// GetExportJob loads one export job by id, scoped to the tenant.
func (r *Repository) GetExportJob(ctx context.Context, tenantID string, id uuid.UUID) (*ExportJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, year, month, status, COALESCE(payload, ''), COALESCE(last_error, ''), created_at, updated_at
		 FROM report_exports WHERE tenant_id = ? AND id = ?`,
		tenantID, id.String())
	return scanExportJob(row)
}

// ListPendingExports returns pending jobs oldest first, for the worker's
// periodic catch-up sweep.
func (r *Repository) ListPendingExports(ctx context.Context, limit int) ([]ExportJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, year, month, status, COALESCE(payload, ''), COALESCE(last_error, ''), created_at, updated_at
		 FROM report_exports WHERE status = ? ORDER BY created_at LIMIT ?`,
		ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending exports: %w", err)
	}
	defer rows.Close()

	var jobs []ExportJob
	for rows.Next() {
		job, err := scanExportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending exports: %w", err)
	}
	return jobs, nil
}

// MarkExportDone stores the report snapshot and flips the job to done.
func (r *Repository) MarkExportDone(ctx context.Context, id uuid.UUID, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE report_exports SET status = ?, payload = ?, last_error = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		ExportDone, string(payload), id.String())
	if err != nil {
		return fmt.Errorf("mark export done: %w", err)
	}
	slog.InfoContext(ctx, "Export job done", "job_id", id)
	return nil
}

// MarkExportError records the failure on the job row.
func (r *Repository) MarkExportError(ctx context.Context, id uuid.UUID, cause error) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE report_exports SET status = ?, last_error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		ExportError, cause.Error(), id.String())
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Export job failed", "job_id", id, "error", cause)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExportJob(row rowScanner) (*ExportJob, error) {
	var (
		job                                    ExportJob
		id, payload, lastErr, created, updated string
	)
	err := row.Scan(&id, &job.TenantID, &job.Year, &job.Month, &job.Status,
		&payload, &lastErr, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan export job: %w", err)
	}
	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse export job id %q: %w", id, err)
	}
	job.Payload = []byte(payload)
	job.LastError = lastErr
	// SQLite's CURRENT_TIMESTAMP is stored as text.
	job.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", created)
	job.UpdatedAt, _ = time.Parse("2006-01-02 15:04:05", updated)
	return &job, nil
}
