package employees

import (
	"context"
	"strconv"

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

const employeeColumns = `id, first_name, last_name, email, subject, role, status, department, position, hire_date, vacation_days_per_year, created_at, updated_at`

// ListFilters narrows employee listings.
type ListFilters struct {
	Status     string
	Department string
	Search     string
}

// Create inserts an employee and returns the assigned id.
func (r *Repository) Create(ctx context.Context, e Employee) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO employees (first_name, last_name, email, subject, role, status, department, position, hire_date, vacation_days_per_year, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()) RETURNING id`,
		e.FirstName, e.LastName, e.Email, e.Subject, string(e.Role), string(e.Status), e.Department, e.Position, e.HireDate, e.VacationDaysPerYear).Scan(&id)
	if err != nil {
		return 0, db.MapError(err)
	}
	return id, nil
}

// Update rewrites mutable employee fields.
func (r *Repository) Update(ctx context.Context, e Employee) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET first_name=$2, last_name=$3, email=$4, role=$5, status=$6, department=$7, position=$8, hire_date=$9, vacation_days_per_year=$10, updated_at=NOW() WHERE id=$1`,
		e.ID, e.FirstName, e.LastName, e.Email, string(e.Role), string(e.Status), e.Department, e.Position, e.HireDate, e.VacationDaysPerYear)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// SetStatus flips the employment status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE employees SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// GetByID returns a single employee.
func (r *Repository) GetByID(ctx context.Context, id int64) (Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=$1`, id)
	return scanEmployee(row)
}

// GetBySubject resolves an employee from the external identity subject.
func (r *Repository) GetBySubject(ctx context.Context, subject string) (Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE subject=$1`, subject)
	return scanEmployee(row)
}

// GetByEmail resolves an employee by unique email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email=$1`, email)
	return scanEmployee(row)
}

// List returns employees matching the filters plus a total count.
func (r *Repository) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Employee, int, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM employees WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Status != "" {
		argCount++
		cond := ` AND status=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.Status)
	}
	if filters.Department != "" {
		argCount++
		cond := ` AND department=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.Department)
	}
	if filters.Search != "" {
		argCount++
		cond := ` AND (first_name ILIKE $` + strconv.Itoa(argCount) + ` OR last_name ILIKE $` + strconv.Itoa(argCount) + ` OR email ILIKE $` + strconv.Itoa(argCount) + `)`
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, db.MapError(err)
	}

	query += ` ORDER BY last_name, first_name`
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

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
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

// ListActive returns all active employees ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+employeeColumns+` FROM employees WHERE status='ACTIVE' ORDER BY last_name, first_name`)
	if err != nil {
		return nil, db.MapError(err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (Employee, error) {
	var e Employee
	var role, status string
	if err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.Subject, &role, &status, &e.Department, &e.Position, &e.HireDate, &e.VacationDaysPerYear, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Employee{}, db.MapError(err)
	}
	e.Role = shared.Role(role)
	e.Status = Status(status)
	return e, nil
}
