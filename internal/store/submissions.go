package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/clinicsite/clinicsite/internal/model"
)

const submissionColumns = `id, name, email, phone, message, preferred_appointment_date, created_at`

// CreateSubmission inserts a contact submission. ID and CreatedAt are
// assigned here when the caller leaves them zero.
func (s *Store) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	if sub.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate submission id: %w", err)
		}
		sub.ID = id.String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now()
	}

	const q = `INSERT INTO contact_submissions
		(id, name, email, phone, message, preferred_appointment_date, created_at)
		VALUES
		(:id, :name, :email, :phone, :message, :preferred_appointment_date, :created_at)`

	if _, err := s.db.NamedExecContext(ctx, q, sub); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// ListSubmissions returns one window of submissions, newest first.
func (s *Store) ListSubmissions(ctx context.Context, limit, offset int) ([]model.Submission, error) {
	if limit <= 0 {
		return []model.Submission{}, nil
	}
	if offset < 0 {
		offset = 0
	}

	clause, args := s.dialect.paginate(limit, offset)
	q := s.db.Rebind(`SELECT ` + submissionColumns + ` FROM contact_submissions
		ORDER BY created_at DESC, id DESC` + clause)

	rows := []model.Submission{}
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	for i := range rows {
		rows[i].CreatedAt = rows[i].CreatedAt.UTC()
	}
	return rows, nil
}

// CountSubmissions returns the total number of stored submissions.
func (s *Store) CountSubmissions(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM contact_submissions"); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

// PageSubmissions combines ListSubmissions and CountSubmissions for the
// 1-based page of the given size.
func (s *Store) PageSubmissions(ctx context.Context, page, pageSize int) (*model.SubmissionPage, error) {
	if page < 1 {
		page = 1
	}
	total, err := s.CountSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	rows := []model.Submission{}
	// A page whose offset does not fit in an int is past the end.
	if pageSize > 0 && page-1 <= math.MaxInt/pageSize {
		rows, err = s.ListSubmissions(ctx, pageSize, (page-1)*pageSize)
		if err != nil {
			return nil, err
		}
	}
	return &model.SubmissionPage{
		Submissions: rows,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
	}, nil
}

// now is the store's clock, truncated to what every backend can hold.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
