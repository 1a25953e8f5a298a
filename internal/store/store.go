package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/clinicsite/clinicsite/internal/model"
)

// Config selects and tunes the SQL backend.
type Config struct {
	Driver string // sqlite, postgres, mysql, sqlserver
	DSN    string
	Pool   model.PoolConfig
}

// Store is the service-role database client. It owns the contact
// submissions table and reads the admin users table.
type Store struct {
	db      *sqlx.DB
	dialect *dialect
}

// Open connects to the configured database and runs migrations. An empty
// sqlite DSN yields a private in-memory database, which is what tests use.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, d.driverName, SanitizeDSN(d.name, cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("%s connect: %w", d.name, err)
	}

	if d.name == "sqlite" {
		// SQLite doesn't support concurrent writes, and an in-memory
		// database lives exactly as long as its single connection.
		db.SetMaxOpenConns(1)
	} else {
		applyPool(db, cfg.Pool)
	}

	s := &Store{db: db, dialect: d}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func applyPool(db *sqlx.DB, pool model.PoolConfig) {
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}
}

// Driver returns the canonical driver name of the open database.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
