package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinicsite/clinicsite/internal/model"
	"github.com/clinicsite/clinicsite/internal/store"
)

func newSubmissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "submissions",
		Aliases: []string{"subs"},
		Short:   "Read contact form submissions",
	}

	cmd.AddCommand(newSubmissionsListCmd())
	cmd.AddCommand(newSubmissionsExportCmd())

	return cmd
}

func newSubmissionsListCmd() *cobra.Command {
	var (
		page       int
		pageSize   int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List submissions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pageSize < 1 {
				return fmt.Errorf("--page-size must be positive")
			}
			return withStore(func(ctx context.Context, st *store.Store) error {
				p, err := st.PageSubmissions(ctx, page, pageSize)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOutput {
					return printJSON(out, p)
				}
				if len(p.Submissions) == 0 {
					fmt.Fprintf(out, "No submissions on page %d (total %d).\n", p.Page, p.Total)
					return nil
				}
				fmt.Fprintf(out, "%-20s %-24s %-28s %-16s %-12s %s\n", "CREATED", "NAME", "EMAIL", "PHONE", "PREFERRED", "MESSAGE")
				for _, s := range p.Submissions {
					fmt.Fprintf(out, "%-20s %-24s %-28s %-16s %-12s %s\n",
						s.CreatedAt.Format("2006-01-02 15:04"), truncate(s.Name, 24), truncate(s.Email, 28),
						truncate(s.Phone, 16), s.PreferredAppointmentDate, truncate(oneLine(s.Message), 60))
				}
				fmt.Fprintf(out, "\nPage %d, %d of %d submissions\n", p.Page, len(p.Submissions), p.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "Submissions per page")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newSubmissionsExportCmd() *cobra.Command {
	var (
		format     string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every submission as CSV or JSON",
		Example: `  clinicsite submissions export > submissions.csv
  clinicsite submissions export --format json -o submissions.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != "csv" && format != "json" {
				return fmt.Errorf("--format must be csv or json, got %q", format)
			}
			return withStore(func(ctx context.Context, st *store.Store) error {
				rows, err := allSubmissions(ctx, st)
				if err != nil {
					return err
				}

				write := func(w io.Writer) error {
					if format == "json" {
						return printJSON(w, rows)
					}
					return writeSubmissionsCSV(w, rows)
				}

				if outputFile == "" {
					return write(cmd.OutOrStdout())
				}
				if err := writeFile(outputFile, write); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d submissions to %s\n", len(rows), outputFile)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv or json")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write to file instead of stdout")

	return cmd
}

const exportBatch = 500

func allSubmissions(ctx context.Context, st *store.Store) ([]model.Submission, error) {
	all := []model.Submission{}
	for offset := 0; ; offset += exportBatch {
		rows, err := st.ListSubmissions(ctx, exportBatch, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) < exportBatch {
			return all, nil
		}
	}
}

var csvHeader = []string{"id", "created_at", "name", "email", "phone", "preferred_appointment_date", "message"}

func writeSubmissionsCSV(w io.Writer, rows []model.Submission) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range rows {
		rec := []string{
			s.ID,
			s.CreatedAt.UTC().Format(time.RFC3339),
			csvCell(s.Name),
			csvCell(s.Email),
			csvCell(s.Phone),
			csvCell(s.PreferredAppointmentDate),
			csvCell(s.Message),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvCell stops spreadsheet applications from evaluating form input as a
// formula by prefixing cells that start with a formula trigger.
func csvCell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

// writeFile creates path and runs write against it, reporting a failed
// close as well as a failed write.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
