package repository

import (
	"context"
	"errors"
	"fmt"

	"admin_panel/internal/model"

	"github.com/jackc/pgx/v5"
)

// AdminRepository defines operations on administrative credentials
type AdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)
	Upsert(ctx context.Context, admin *model.Admin) error
}

type adminRepository struct {
	db DBTX
}

// NewAdminRepository creates a new AdminRepository
func NewAdminRepository(db DBTX) AdminRepository {
	return &adminRepository{db: db}
}

// FindByUsername retrieves an admin by username
func (r *adminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	a := &model.Admin{}
	sql := `SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`
	err := r.db.QueryRow(ctx, sql, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find admin by username: %w", err)
	}
	return a, nil
}

// Upsert creates the admin or replaces the password of an existing one
func (r *adminRepository) Upsert(ctx context.Context, a *model.Admin) error {
	sql := `INSERT INTO admins (username, password_hash) VALUES ($1, $2)
            ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
            RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, sql, a.Username, a.PasswordHash).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert admin: %w", err)
	}
	return nil
}
