package timeentries

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tempus-hr/tempus/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, employee_id, task_id, entry_type, entry_date, start_time, end_time, hours, description, status, approved_by, approved_at, created_at, updated_at`

// ListFilters narrows entry listings. Zero values are skipped.
type ListFilters struct {
	EmployeeID int64
	TaskID     int64
	Status     string
	Type       string
	From       time.Time
	To         time.Time
}

// Create inserts a pending entry and returns its id.
func (r *Repository) Create(ctx context.Context, e TimeEntry) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO time_entries (employee_id, task_id, entry_type, entry_date, start_time, end_time, hours, description, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING id`,
		e.EmployeeID, e.TaskID, string(e.Type), e.EntryDate, e.StartTime, e.EndTime, e.Hours, e.Description, string(e.Status)).Scan(&id)
	if err != nil {
		return 0, db.MapError(err)
	}
	return id, nil
}

// BulkCreate inserts a batch of pending entries in one transaction and
// returns the new ids in input order.
func (r *Repository) BulkCreate(ctx context.Context, entries []TimeEntry) ([]int64, error) {
	ids := make([]int64, 0, len(entries))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, e := range entries {
			var id int64
			err := tx.QueryRow(ctx, `INSERT INTO time_entries (employee_id, task_id, entry_type, entry_date, start_time, end_time, hours, description, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING id`,
				e.EmployeeID, e.TaskID, string(e.Type), e.EntryDate, e.StartTime, e.EndTime, e.Hours, e.Description, string(e.Status)).Scan(&id)
			if err != nil {
				return db.MapError(err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Update rewrites mutable fields of a pending entry.
func (r *Repository) Update(ctx context.Context, e TimeEntry) error {
	tag, err := r.pool.Exec(ctx, `UPDATE time_entries SET task_id=$2, entry_type=$3, entry_date=$4, start_time=$5, end_time=$6, hours=$7, description=$8, updated_at=NOW() WHERE id=$1`,
		e.ID, e.TaskID, string(e.Type), e.EntryDate, e.StartTime, e.EndTime, e.Hours, e.Description)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// Delete removes an entry.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM time_entries WHERE id=$1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// GetByID returns a single entry.
func (r *Repository) GetByID(ctx context.Context, id int64) (TimeEntry, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM time_entries WHERE id=$1`, id)
	return scanEntry(row)
}

// TransitionStatus flips a pending entry to a decided status with a
// conditional update. Returns false without error when the row exists
// but is no longer PENDING.
func (r *Repository) TransitionStatus(ctx context.Context, id int64, to Status, approverID int64, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE time_entries SET status=$2, approved_by=$3, approved_at=$4, updated_at=NOW() WHERE id=$1 AND status='PENDING'`,
		id, string(to), approverID, at)
	if err != nil {
		return false, db.MapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListForEmployee returns all entries of one employee inside an optional
// date window, ordered by entry date.
func (r *Repository) ListForEmployee(ctx context.Context, employeeID int64, filters ListFilters) ([]TimeEntry, error) {
	filters.EmployeeID = employeeID
	entries, _, err := r.List(ctx, filters, 0, 0)
	return entries, err
}

// ListBetween returns every employee's entries whose entry date falls in
// [from, to], for the report builders.
func (r *Repository) ListBetween(ctx context.Context, from, to time.Time, employeeID int64) ([]TimeEntry, error) {
	entries, _, err := r.List(ctx, ListFilters{EmployeeID: employeeID, From: from, To: to}, 0, 0)
	return entries, err
}

// List returns entries matching the filters plus a total count. A zero
// limit disables paging.
func (r *Repository) List(ctx context.Context, filters ListFilters, limit, offset int) ([]TimeEntry, int, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM time_entries WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.EmployeeID != 0 {
		argCount++
		cond := ` AND employee_id=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.EmployeeID)
	}
	if filters.TaskID != 0 {
		argCount++
		cond := ` AND task_id=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.TaskID)
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
		cond := ` AND entry_type=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.Type)
	}
	if !filters.From.IsZero() {
		argCount++
		cond := ` AND entry_date >= $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.From)
	}
	if !filters.To.IsZero() {
		argCount++
		cond := ` AND entry_date <= $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	query += ` ORDER BY entry_date, id`
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

	var out []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.MapError(err)
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (TimeEntry, error) {
	var e TimeEntry
	var entryType, status string
	if err := row.Scan(&e.ID, &e.EmployeeID, &e.TaskID, &entryType, &e.EntryDate, &e.StartTime, &e.EndTime, &e.Hours, &e.Description, &status, &e.ApprovedBy, &e.ApprovedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return TimeEntry{}, db.MapError(err)
	}
	e.Type = EntryType(entryType)
	e.Status = Status(status)
	return e, nil
}
