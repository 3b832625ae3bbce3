package vacations

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tempus-hr/tempus/internal/platform/db"
	"github.com/tempus-hr/tempus/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const requestColumns = `id, employee_id, start_date, end_date, vacation_type, status, comment, rejection_reason, approval_skipped, approval_skip_label, approved_by, approved_at, created_at, updated_at`

// ListFilters narrows request listings. Zero values are skipped.
type ListFilters struct {
	EmployeeID int64
	Status     string
	Type       string
	Year       int
}

// Create inserts a pending request and returns its id.
func (r *Repository) Create(ctx context.Context, v VacationRequest) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO vacation_requests (employee_id, start_date, end_date, vacation_type, status, comment, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`,
		v.EmployeeID, v.StartDate, v.EndDate, string(v.Type), string(v.Status), v.Comment).Scan(&id)
	if err != nil {
		return 0, db.MapError(err)
	}
	return id, nil
}

// Update rewrites mutable fields of a pending request.
func (r *Repository) Update(ctx context.Context, v VacationRequest) error {
	tag, err := r.pool.Exec(ctx, `UPDATE vacation_requests SET start_date=$2, end_date=$3, vacation_type=$4, comment=$5, updated_at=NOW() WHERE id=$1`,
		v.ID, v.StartDate, v.EndDate, string(v.Type), v.Comment)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// Delete removes a request.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vacation_requests WHERE id=$1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// GetByID returns a single request.
func (r *Repository) GetByID(ctx context.Context, id int64) (VacationRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM vacation_requests WHERE id=$1`, id)
	return scanRequest(row)
}

// Approve transitions a PENDING request to APPROVED inside one
// transaction: the row is locked, remaining balance is derived from the
// approved-request ledger, sufficiency is checked for paid types, and
// the stored running balance is decremented to stay in sync with the
// ledger. Skipped approvals pass skip=true and a label.
func (r *Repository) Approve(ctx context.Context, id int64, approverID int64, at time.Time, skip bool, label string) (VacationRequest, error) {
	var approved VacationRequest
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM vacation_requests WHERE id=$1 FOR UPDATE`, id)
		current, err := scanRequest(row)
		if err != nil {
			return err
		}
		if current.Status != StatusPending {
			return fmt.Errorf("request already %s: %w", current.Status, shared.ErrInvalidState)
		}
		days := current.DaysRequested()
		if current.Type.Paid() {
			remaining, err := remainingDaysTx(ctx, tx, current.EmployeeID, current.StartDate.Year())
			if err != nil {
				return err
			}
			if days > remaining {
				return fmt.Errorf("insufficient vacation balance: requested %d, remaining %d: %w", days, remaining, shared.ErrValidation)
			}
		}
		tag, err := tx.Exec(ctx, `UPDATE vacation_requests SET status='APPROVED', approved_by=$2, approved_at=$3, approval_skipped=$4, approval_skip_label=$5, rejection_reason='', updated_at=NOW() WHERE id=$1 AND status='PENDING'`,
			id, approverID, at, skip, label)
		if err != nil {
			return db.MapError(err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("request decided concurrently: %w", shared.ErrInvalidState)
		}
		if current.Type.Paid() {
			if _, err := tx.Exec(ctx, `UPDATE employees SET remaining_vacation_days = remaining_vacation_days - $2, updated_at=NOW() WHERE id=$1`, current.EmployeeID, days); err != nil {
				return db.MapError(err)
			}
		}
		row = tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM vacation_requests WHERE id=$1`, id)
		approved, err = scanRequest(row)
		return err
	})
	if err != nil {
		return VacationRequest{}, err
	}
	return approved, nil
}

// Reject flips a PENDING request to REJECTED with a conditional update.
// Returns false without error when the row exists but was already
// decided.
func (r *Repository) Reject(ctx context.Context, id int64, approverID int64, at time.Time, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE vacation_requests SET status='REJECTED', approved_by=$2, approved_at=$3, rejection_reason=$4, approval_skipped=false, approval_skip_label='', updated_at=NOW() WHERE id=$1 AND status='PENDING'`,
		id, approverID, at, reason)
	if err != nil {
		return false, db.MapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// Cancel flips a PENDING request to CANCELLED.
func (r *Repository) Cancel(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE vacation_requests SET status='CANCELLED', updated_at=NOW() WHERE id=$1 AND status='PENDING'`, id)
	if err != nil {
		return false, db.MapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListBlocking returns an employee's PENDING and APPROVED requests, the
// set that reserves date ranges against new requests.
func (r *Repository) ListBlocking(ctx context.Context, employeeID int64) ([]VacationRequest, error) {
	return r.queryRequests(ctx, `SELECT `+requestColumns+` FROM vacation_requests WHERE employee_id=$1 AND status IN ('PENDING', 'APPROVED') ORDER BY start_date`, employeeID)
}

// ListForEmployee returns all of one employee's requests, newest first.
func (r *Repository) ListForEmployee(ctx context.Context, employeeID int64) ([]VacationRequest, error) {
	return r.queryRequests(ctx, `SELECT `+requestColumns+` FROM vacation_requests WHERE employee_id=$1 ORDER BY start_date DESC`, employeeID)
}

// ListPending returns the review queue ordered by start date.
func (r *Repository) ListPending(ctx context.Context) ([]VacationRequest, error) {
	return r.queryRequests(ctx, `SELECT `+requestColumns+` FROM vacation_requests WHERE status='PENDING' ORDER BY start_date`)
}

// ListSkipped returns approved requests that bypassed normal review.
func (r *Repository) ListSkipped(ctx context.Context) ([]VacationRequest, error) {
	return r.queryRequests(ctx, `SELECT `+requestColumns+` FROM vacation_requests WHERE status='APPROVED' AND approval_skipped ORDER BY approved_at DESC`)
}

// ListStalePending returns PENDING requests whose start date already
// passed, for the nightly sweep.
func (r *Repository) ListStalePending(ctx context.Context, today time.Time) ([]VacationRequest, error) {
	return r.queryRequests(ctx, `SELECT `+requestColumns+` FROM vacation_requests WHERE status='PENDING' AND start_date < $1 ORDER BY start_date`, today)
}

// ListOverlappingRange returns approved requests intersecting [from, to],
// for the calendar view.
func (r *Repository) ListOverlappingRange(ctx context.Context, from, to time.Time) ([]VacationRequest, error) {
	return r.queryRequests(ctx, `SELECT `+requestColumns+` FROM vacation_requests WHERE status='APPROVED' AND NOT (end_date < $1 OR start_date > $2) ORDER BY start_date`, from, to)
}

// EmployeesOnDate returns employee ids with an approved request covering
// the given day.
func (r *Repository) EmployeesOnDate(ctx context.Context, day time.Time) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT employee_id FROM vacation_requests WHERE status='APPROVED' AND start_date <= $1 AND end_date >= $1`, day)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, db.MapError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err)
	}
	return ids, nil
}

// UsedDaysInYear sums approved paid days whose start date falls in year.
func (r *Repository) UsedDaysInYear(ctx context.Context, employeeID int64, year int) (int, error) {
	var used int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(end_date - start_date + 1), 0) FROM vacation_requests
WHERE employee_id=$1 AND status='APPROVED' AND vacation_type <> 'UNPAID_LEAVE' AND EXTRACT(YEAR FROM start_date)=$2`,
		employeeID, year).Scan(&used)
	if err != nil {
		return 0, db.MapError(err)
	}
	return used, nil
}

// PendingDaysInYear sums requested days over PENDING requests in year.
func (r *Repository) PendingDaysInYear(ctx context.Context, employeeID int64, year int) (int, error) {
	var pending int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(end_date - start_date + 1), 0) FROM vacation_requests
WHERE employee_id=$1 AND status='PENDING' AND EXTRACT(YEAR FROM start_date)=$2`,
		employeeID, year).Scan(&pending)
	if err != nil {
		return 0, db.MapError(err)
	}
	return pending, nil
}

// Upcoming returns APPROVED or PENDING requests starting today or later,
// ascending by start date.
func (r *Repository) Upcoming(ctx context.Context, employeeID int64, today time.Time) ([]VacationRequest, error) {
	return r.queryRequests(ctx, `SELECT `+requestColumns+` FROM vacation_requests WHERE employee_id=$1 AND status IN ('PENDING', 'APPROVED') AND start_date >= $2 ORDER BY start_date`, employeeID, today)
}

// List returns requests matching the filters plus a total count.
func (r *Repository) List(ctx context.Context, filters ListFilters, limit, offset int) ([]VacationRequest, int, error) {
	query := `SELECT ` + requestColumns + ` FROM vacation_requests WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM vacation_requests WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.EmployeeID != 0 {
		argCount++
		cond := ` AND employee_id=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.EmployeeID)
	}
	if filters.Status != "" {
		argCount++
		cond := ` AND status=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.Status)
	}
	if filters.Type != "" {
		argCount++
		cond := ` AND vacation_type=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.Type)
	}
	if filters.Year != 0 {
		argCount++
		cond := ` AND EXTRACT(YEAR FROM start_date)=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.Year)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	query += ` ORDER BY start_date DESC, id`
	if limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, db.MapError(err)
	}
	defer rows.Close()

	var out []VacationRequest
	for rows.Next() {
		v, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.MapError(err)
	}
	return out, total, nil
}

func (r *Repository) queryRequests(ctx context.Context, query string, args ...any) ([]VacationRequest, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []VacationRequest
	for rows.Next() {
		v, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err)
	}
	return out, nil
}

// remainingDaysTx derives the balance from the approved-request ledger
// inside the approval transaction.
func remainingDaysTx(ctx context.Context, tx pgx.Tx, employeeID int64, year int) (int, error) {
	var remaining int
	err := tx.QueryRow(ctx, `SELECT e.vacation_days_per_year - COALESCE((
SELECT SUM(v.end_date - v.start_date + 1) FROM vacation_requests v
WHERE v.employee_id = e.id AND v.status='APPROVED' AND v.vacation_type <> 'UNPAID_LEAVE' AND EXTRACT(YEAR FROM v.start_date)=$2), 0)
FROM employees e WHERE e.id=$1`, employeeID, year).Scan(&remaining)
	if err != nil {
		return 0, db.MapError(err)
	}
	return remaining, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (VacationRequest, error) {
	var v VacationRequest
	var vacType, status string
	if err := row.Scan(&v.ID, &v.EmployeeID, &v.StartDate, &v.EndDate, &vacType, &status, &v.Comment, &v.RejectionReason, &v.ApprovalSkipped, &v.ApprovalSkipLabel, &v.ApprovedBy, &v.ApprovedAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return VacationRequest{}, db.MapError(err)
	}
	v.Type = VacationType(vacType)
	v.Status = Status(status)
	return v, nil
}
