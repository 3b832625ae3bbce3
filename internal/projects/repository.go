package projects

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

const projectColumns = `id, code, name, description, status, client_name, start_date, end_date, created_at, updated_at`

// ListFilters narrows project listings.
type ListFilters struct {
	Status string
	Search string
}

// Create inserts a project and returns its id.
func (r *Repository) Create(ctx context.Context, p Project) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO projects (code, name, description, status, client_name, start_date, end_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING id`,
		p.Code, p.Name, p.Description, string(p.Status), p.ClientName, p.StartDate, p.EndDate).Scan(&id)
	if err != nil {
		return 0, db.MapError(err)
	}
	return id, nil
}

// Update rewrites mutable project fields.
func (r *Repository) Update(ctx context.Context, p Project) error {
	tag, err := r.pool.Exec(ctx, `UPDATE projects SET code=$2, name=$3, description=$4, status=$5, client_name=$6, start_date=$7, end_date=$8, updated_at=NOW() WHERE id=$1`,
		p.ID, p.Code, p.Name, p.Description, string(p.Status), p.ClientName, p.StartDate, p.EndDate)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// Delete removes a project. Tasks are removed by the ON DELETE CASCADE
// constraint on tasks.project_id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return db.MapError(pgx.ErrNoRows)
	}
	return nil
}

// GetByID returns a single project.
func (r *Repository) GetByID(ctx context.Context, id int64) (Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id)
	return scanProject(row)
}

// GetByCode returns a project by unique code.
func (r *Repository) GetByCode(ctx context.Context, code string) (Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE code=$1`, code)
	return scanProject(row)
}

// List returns projects matching the filters plus a total count.
func (r *Repository) List(ctx context.Context, filters ListFilters, limit, offset int) ([]Project, int, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM projects WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Status != "" {
		argCount++
		cond := ` AND status=$` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, filters.Status)
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

	query += ` ORDER BY code`
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

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.MapError(err)
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var status string
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &status, &p.ClientName, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Project{}, db.MapError(err)
	}
	p.Status = Status(status)
	return p, nil
}
