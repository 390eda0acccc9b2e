package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/infofoot/nexo-backend/internal/models"
)

// PostgresUserRepository implements UserRepository on PostgreSQL.
type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, created_at, name, username, email, password_hash, nxo_coin, is_admin)
		VALUES ($1, NOW(), $2, $3, $4, $5, 0, FALSE)
	`, u.ID, u.Name, strings.ToLower(u.Username), strings.ToLower(u.Email), u.PasswordHash)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "email") {
				return ErrDuplicateEmail
			}
			return ErrDuplicateUsername
		}
		return err
	}
	return nil
}

func (r *PostgresUserRepository) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, created_at, name, username, email, password_hash, nxo_coin, is_admin
		FROM users WHERE id = $1
	`, id))
}

func (r *PostgresUserRepository) ByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `
		SELECT id, created_at, name, username, email, password_hash, nxo_coin, is_admin
		FROM users WHERE LOWER(email) = LOWER($1) OR LOWER(username) = LOWER($1)
	`, identifier))
}

func (r *PostgresUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Name, &u.Username, &u.Email, &u.PasswordHash, &u.NxoCoin, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreditBalance adds amount to the settled balance in a single UPDATE so
// concurrent credits cannot lose increments.
func (r *PostgresUserRepository) CreditBalance(ctx context.Context, id uuid.UUID, amount float64) (float64, error) {
	var newBalance float64
	err := r.db.QueryRowContext(ctx, `
		UPDATE users SET nxo_coin = nxo_coin + $2 WHERE id = $1 RETURNING nxo_coin
	`, id, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return newBalance, nil
}

func (r *PostgresUserRepository) AdminIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users WHERE is_admin = TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id.String())
	}
	return ids, rows.Err()
}
