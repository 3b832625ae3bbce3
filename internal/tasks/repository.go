package tasks

import (
	"context"
	"strconv"

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

const taskColumns = `id, project_id, code, name, description, status, priority, estimated_hours, due_date, assigned_employee_id, created_at, updated_at`

// ListFilters narrows task listings.
type ListFilters struct {
	ProjectID          int64
	Status             string
	Priority           string
	AssignedEmployeeID int64
	Search             string
}

// Create inserts a task and returns its id.
func (r *Repository) Create(ctx context.Context, t Task) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO tasks (project_id, code, name, description, status, priority, estimated_hours, due_date, assigned_employee_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()) RETURNING id`,
		t.ProjectID, t.Code, t.Name, t.Description, string(t.Status), string(t.Priority), t.EstimatedHours, t.DueDate, t.AssignedEmployeeID).Scan(&id)
	if err != nil {
		return 0, db.MapError(err)
	}
	return id, nil
}

// Update rewrites mutable task fields.
func (r *Repository) Update(ctx context.Context, t Task) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET code=$2, name=$3, description=$4, status=$5, priority=$6, estimated_hours=$7, due_date=$8, assigned_employee_id=$9, updated_at=NOW() WHERE id=$1`,
		t.ID, t.Code, t.Name, t.Description, string(t.Status), string(t.Priority), t.EstimatedHours, t.DueDate, t.AssignedEmployeeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// GetByID returns a single task.
func (r *Repository) GetByID(ctx context.Context, id int64) (Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=$1`, id)
	return scanTask(row)
}

// AcceptsTimeEntries reports whether the task is OPEN or IN_PROGRESS and
// its project is ACTIVE, in a single round trip.
func (r *Repository) AcceptsTimeEntries(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT t.status IN ('OPEN', 'IN_PROGRESS') AND p.status = 'ACTIVE'
FROM tasks t JOIN projects p ON p.id = t.project_id WHERE t.id = $1`, id).Scan(&ok)
	if err != nil {
		return false, db.MapError(err)
	}
	return ok, nil
}

// Refs resolves task and project names for hour groupings.
func (r *Repository) Refs(ctx context.Context, ids []int64) (map[int64]Ref, error) {
	if len(ids) == 0 {
		return map[int64]Ref{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT t.id, t.name, p.id, p.name
FROM tasks t JOIN projects p ON p.id = t.project_id WHERE t.id = ANY($1)`, ids)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	refs := make(map[int64]Ref, len(ids))
	for rows.Next() {
		var ref Ref
		if err := rows.Scan(&ref.TaskID, &ref.TaskName, &ref.ProjectID, &ref.ProjectName); err != nil {
			return nil, db.MapError(err)
		}
		refs[ref.TaskID] = ref
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err)
	}
	return refs, nil
}

// List returns tasks matching the filters plus a total count.
func (r *Repository) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Task, int, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM tasks WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.ProjectID != 0 {
		argCount++
		cond := ` AND project_id=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.ProjectID)
	}
	if filters.Status != "" {
		argCount++
		cond := ` AND status=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.Status)
	}
	if filters.Priority != "" {
		argCount++
		cond := ` AND priority=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.Priority)
	}
	if filters.AssignedEmployeeID != 0 {
		argCount++
		cond := ` AND assigned_employee_id=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.AssignedEmployeeID)
	}
	if filters.Search != "" {
		argCount++
		cond := ` AND (code ILIKE $` + strconv.Itoa(argCount) + ` OR name ILIKE $` + strconv.Itoa(argCount) + `)`
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	query += ` ORDER BY project_id, code`
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

	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.MapError(err)
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var t Task
	var status, priority string
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Code, &t.Name, &t.Description, &status, &priority, &t.EstimatedHours, &t.DueDate, &t.AssignedEmployeeID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return Task{}, db.MapError(err)
	}
	t.Status = Status(status)
	t.Priority = Priority(priority)
	return t, nil
}
