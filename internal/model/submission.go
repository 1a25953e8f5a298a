package model

import "time"

// Submission is a contact-form entry. Rows are append-only: the public
// endpoint creates them and the admin listing reads them back.
type Submission struct {
	ID                       string    `json:"id" db:"id"`
	Name                     string    `json:"name" db:"name"`
	Email                    string    `json:"email" db:"email"`
	Phone                    string    `json:"phone" db:"phone"`
	Message                  string    `json:"message" db:"message"`
	PreferredAppointmentDate string    `json:"preferred_appointment_date" db:"preferred_appointment_date"` // YYYY-MM-DD
	CreatedAt                time.Time `json:"created_at" db:"created_at"`
}

// SubmissionPage is one window of submissions ordered newest-first.
type SubmissionPage struct {
	Submissions []Submission `json:"submissions"`
	Total       int64        `json:"total"`
	Page        int          `json:"page"`
	PageSize    int          `json:"pageSize"`
}
