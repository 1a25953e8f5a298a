package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clinicsite/clinicsite/internal/model"
	"github.com/clinicsite/clinicsite/internal/store"
)

func TestWriteSubmissionsCSV(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	rows := []model.Submission{{
		ID:                       "s1",
		Name:                     "Asha, R",
		Email:                    "asha@example.com",
		Phone:                    "9876543210",
		Message:                  "Line one\nline \"two\"",
		PreferredAppointmentDate: "2025-03-10",
		CreatedAt:                created,
	}}

	var buf bytes.Buffer
	if err := writeSubmissionsCSV(&buf, rows); err != nil {
		t.Fatalf("writeSubmissionsCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	if records[0][0] != "id" || records[0][6] != "message" {
		t.Errorf("unexpected header: %v", records[0])
	}
	got := records[1]
	if got[1] != "2025-03-01T09:30:00Z" {
		t.Errorf("created_at = %q", got[1])
	}
	if got[2] != "Asha, R" {
		t.Errorf("name = %q", got[2])
	}
	if got[6] != "Line one\nline \"two\"" {
		t.Errorf("message = %q", got[6])
	}
}

func TestAllSubmissionsPagesThroughStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	const n = exportBatch + 3
	for i := 0; i < n; i++ {
		sub := &model.Submission{
			Name:                     "Patient",
			Email:                    "p@example.com",
			Phone:                    "123",
			Message:                  "hello",
			PreferredAppointmentDate: "2025-01-01",
		}
		if err := st.CreateSubmission(ctx, sub); err != nil {
			t.Fatalf("create submission %d: %v", i, err)
		}
	}

	rows, err := allSubmissions(ctx, st)
	if err != nil {
		t.Fatalf("allSubmissions: %v", err)
	}
	if len(rows) != n {
		t.Errorf("expected %d rows, got %d", n, len(rows))
	}
	seen := map[string]bool{}
	for _, r := range rows {
		if seen[r.ID] {
			t.Fatalf("duplicate id %s across batches", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
		{"ಕನ್ನಡ ಪಠ್ಯ", 4, "ಕನ್…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFetchPageRequiresSlug(t *testing.T) {
	for _, name := range []string{"blog", "album"} {
		if _, err := fetchPage(context.Background(), nil, name, ""); err == nil {
			t.Errorf("%s without slug: expected error", name)
		}
	}
	if _, err := fetchPage(context.Background(), nil, "nope", ""); err == nil {
		t.Error("unknown page: expected error")
	}
}

func TestWriteSubmissionsCSVNeutralisesFormulas(t *testing.T) {
	rows := []model.Submission{{
		ID:      "s1",
		Name:    `=HYPERLINK("http://evil.example","click")`,
		Email:   "@SUM(A1:A9)",
		Phone:   "+919876543210",
		Message: "-2+3",
	}}

	var buf bytes.Buffer
	if err := writeSubmissionsCSV(&buf, rows); err != nil {
		t.Fatalf("writeSubmissionsCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	got := records[1]
	for i, want := range map[int]string{
		2: `'=HYPERLINK("http://evil.example","click")`,
		3: "'@SUM(A1:A9)",
		4: "'+919876543210",
		6: "'-2+3",
	} {
		if got[i] != want {
			t.Errorf("column %s = %q, want %q", csvHeader[i], got[i], want)
		}
	}
}

func TestCSVCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Asha", "Asha"},
		{"a=b", "a=b"},
		{"=1+1", "'=1+1"},
		{"\tcmd", "'\tcmd"},
		{"\rcmd", "'\rcmd"},
	}
	for _, tt := range tests {
		if got := csvCell(tt.in); got != tt.want {
			t.Errorf("csvCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	if err := writeFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("id\n"))
		return err
	}); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "id\n" {
		t.Errorf("file contents = %q, %v", data, err)
	}

	writeErr := errors.New("disk full")
	if err := writeFile(path, func(io.Writer) error { return writeErr }); !errors.Is(err, writeErr) {
		t.Errorf("expected write error to be returned, got %v", err)
	}

	if err := writeFile(filepath.Join(dir, "missing", "out.csv"), func(io.Writer) error { return nil }); err == nil {
		t.Error("expected error creating a file in a missing directory")
	}
}
