package store

import (
	"reflect"
	"testing"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver     string
		wantName   string
		wantDriver string
	}{
		{"", "sqlite", "sqlite"},
		{"sqlite3", "sqlite", "sqlite"},
		{"postgres", "postgres", "pgx"},
		{"PostgreSQL", "postgres", "pgx"},
		{"mysql", "mysql", "mysql"},
		{"mssql", "sqlserver", "sqlserver"},
		{"sqlserver", "sqlserver", "sqlserver"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := dialectFor(tt.driver)
			if err != nil {
				t.Fatalf("dialectFor(%q): %v", tt.driver, err)
			}
			if d.name != tt.wantName || d.driverName != tt.wantDriver {
				t.Errorf("dialectFor(%q) = %s/%s, want %s/%s", tt.driver, d.name, d.driverName, tt.wantName, tt.wantDriver)
			}
			if len(d.migrations) == 0 {
				t.Errorf("dialect %s has no migrations", d.name)
			}
		})
	}
}

func TestPaginationClauses(t *testing.T) {
	clause, args := limitOffset(20, 40)
	if clause != " LIMIT ? OFFSET ?" || !reflect.DeepEqual(args, []interface{}{20, 40}) {
		t.Errorf("limitOffset = %q %v", clause, args)
	}

	clause, args = offsetFetch(20, 40)
	if clause != " OFFSET ? ROWS FETCH NEXT ? ROWS ONLY" || !reflect.DeepEqual(args, []interface{}{40, 20}) {
		t.Errorf("offsetFetch = %q %v", clause, args)
	}
}

func TestSupportedDrivers(t *testing.T) {
	want := []string{"mysql", "postgres", "sqlite", "sqlserver"}
	if got := SupportedDrivers(); !reflect.DeepEqual(got, want) {
		t.Errorf("SupportedDrivers() = %v, want %v", got, want)
	}
}
