package store

import (
	"fmt"
	"sort"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// dialect captures the per-database differences the store cares about:
// which database/sql driver to open, the DDL, and the pagination clause.
// Queries are written with '?' placeholders and rebound by sqlx.
type dialect struct {
	name       string
	driverName string
	migrations []string
	paginate   func(limit, offset int) (string, []interface{})
}

func limitOffset(limit, offset int) (string, []interface{}) {
	return " LIMIT ? OFFSET ?", []interface{}{limit, offset}
}

// SQL Server has no LIMIT; OFFSET/FETCH NEXT requires an ORDER BY, which
// every paginated query here has.
func offsetFetch(limit, offset int) (string, []interface{}) {
	return " OFFSET ? ROWS FETCH NEXT ? ROWS ONLY", []interface{}{offset, limit}
}

var dialects = map[string]*dialect{
	"sqlite": {
		name:       "sqlite",
		driverName: "sqlite",
		migrations: sqliteMigrations,
		paginate:   limitOffset,
	},
	"postgres": {
		name:       "postgres",
		driverName: "pgx",
		migrations: postgresMigrations,
		paginate:   limitOffset,
	},
	"mysql": {
		name:       "mysql",
		driverName: "mysql",
		migrations: mysqlMigrations,
		paginate:   limitOffset,
	},
	"sqlserver": {
		name:       "sqlserver",
		driverName: "sqlserver",
		migrations: sqlserverMigrations,
		paginate:   offsetFetch,
	},
}

// driverAliases maps common spellings onto the canonical dialect names.
var driverAliases = map[string]string{
	"sqlite3":    "sqlite",
	"postgresql": "postgres",
	"pgx":        "postgres",
	"pg":         "postgres",
	"mssql":      "sqlserver",
}

func dialectFor(driver string) (*dialect, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if name == "" {
		name = "sqlite"
	}
	if alias, ok := driverAliases[name]; ok {
		name = alias
	}
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("unsupported driver: %s (available: %v)", driver, SupportedDrivers())
	}
	return d, nil
}

// SupportedDrivers lists the canonical driver names accepted by Open.
func SupportedDrivers() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
