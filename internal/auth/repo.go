package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tempus-hr/tempus/internal/platform/db"
)

// Credentials carry the stored password hash for one account.
type Credentials struct {
	EmployeeID   int64
	Email        string
	PasswordHash string
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetCredentials fetches the password hash for an email address.
func (r *PGRepository) GetCredentials(ctx context.Context, email string) (Credentials, error) {
	var creds Credentials
	err := r.pool.QueryRow(ctx, `SELECT id, email, password_hash FROM employees WHERE email=$1`, email).
		Scan(&creds.EmployeeID, &creds.Email, &creds.PasswordHash)
	if err != nil {
		return Credentials{}, db.MapError(err)
	}
	return creds, nil
}

// SetPassword replaces the stored hash.
func (r *PGRepository) SetPassword(ctx context.Context, employeeID int64, hash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE employees SET password_hash=$2, updated_at=NOW() WHERE id=$1`, employeeID, hash)
	return db.MapError(err)
}

// CreateSession persists a login session record for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, employeeID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO login_sessions (id, employee_id, created_at, expires_at, ip, ua) VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))`,
		id, employeeID, expiresAt.UTC(), ip, ua)
	return db.MapError(err)
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM login_sessions WHERE id=$1`, id)
	return db.MapError(err)
}

var _ Repository = (*PGRepository)(nil)
