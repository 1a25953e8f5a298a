package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicsite/clinicsite/internal/model"
)

const adminColumns = `id, email, password_hash, is_active, created_at`

// NormalizeEmail is the canonical form admin emails are stored and looked
// up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAdmin inserts a new admin account. The ID and CreatedAt fields on
// admin are populated after a successful insert.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate admin id: %w", err)
	}
	admin.ID = id.String()
	admin.Email = NormalizeEmail(admin.Email)
	admin.CreatedAt = now()

	const q = `INSERT INTO admin_users (id, email, password_hash, is_active, created_at)
		VALUES (:id, :email, :password_hash, :is_active, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, admin); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("admin %q: %w", admin.Email, ErrDuplicate)
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// GetAdminByEmail returns the admin with the given email.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	q := s.db.Rebind(`SELECT ` + adminColumns + ` FROM admin_users WHERE email = ?`)
	if err := s.db.GetContext(ctx, &a, q, NormalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &a, nil
}

// ListAdmins returns all admin accounts ordered by email.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	admins := []model.Admin{}
	if err := s.db.SelectContext(ctx, &admins, `SELECT `+adminColumns+` FROM admin_users ORDER BY email`); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// SetAdminActive enables or disables an account.
func (s *Store) SetAdminActive(ctx context.Context, email string, active bool) error {
	q := s.db.Rebind(`UPDATE admin_users SET is_active = ? WHERE email = ?`)
	res, err := s.db.ExecContext(ctx, q, active, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	return requireOneRow(res)
}

// SetAdminPassword replaces an account's password hash.
func (s *Store) SetAdminPassword(ctx context.Context, email, passwordHash string) error {
	q := s.db.Rebind(`UPDATE admin_users SET password_hash = ? WHERE email = ?`)
	res, err := s.db.ExecContext(ctx, q, passwordHash, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
