package store

import (
	"context"
	"fmt"
	"strings"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS contact_submissions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		message TEXT NOT NULL,
		preferred_appointment_date TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contact_submissions_created_at ON contact_submissions(created_at)`,
	`CREATE TABLE IF NOT EXISTS admin_users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS contact_submissions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		message TEXT NOT NULL,
		preferred_appointment_date TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contact_submissions_created_at ON contact_submissions(created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS admin_users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

var mysqlMigrations = []string{
	`CREATE TABLE IF NOT EXISTS contact_submissions (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(320) NOT NULL,
		email VARCHAR(320) NOT NULL,
		phone VARCHAR(320) NOT NULL,
		message TEXT NOT NULL,
		preferred_appointment_date VARCHAR(32) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_contact_submissions_created_at (created_at)
	) DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS admin_users (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		email VARCHAR(320) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
	) DEFAULT CHARSET=utf8mb4`,
}

var sqlserverMigrations = []string{
	`IF OBJECT_ID(N'contact_submissions', N'U') IS NULL
	CREATE TABLE contact_submissions (
		id NVARCHAR(36) NOT NULL PRIMARY KEY,
		name NVARCHAR(320) NOT NULL,
		email NVARCHAR(320) NOT NULL,
		phone NVARCHAR(320) NOT NULL,
		message NVARCHAR(MAX) NOT NULL,
		preferred_appointment_date NVARCHAR(32) NOT NULL,
		created_at DATETIME2 NOT NULL
	)`,
	`IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'idx_contact_submissions_created_at')
	CREATE INDEX idx_contact_submissions_created_at ON contact_submissions(created_at DESC)`,
	`IF OBJECT_ID(N'admin_users', N'U') IS NULL
	CREATE TABLE admin_users (
		id NVARCHAR(36) NOT NULL PRIMARY KEY,
		email NVARCHAR(320) NOT NULL UNIQUE,
		password_hash NVARCHAR(255) NOT NULL,
		is_active BIT NOT NULL DEFAULT 1,
		created_at DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
	)`,
}

// Migrate creates the tables and indexes if they do not exist. Every
// statement is idempotent, so it is safe to run on each start.
func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range s.dialect.migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			// Older engines report pre-existing objects instead of honouring
			// IF NOT EXISTS on indexes; treat that as already applied.
			if strings.Contains(strings.ToLower(err.Error()), "already exists") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
