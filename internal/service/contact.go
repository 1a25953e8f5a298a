package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/clinicsite/clinicsite/internal/captcha"
	"github.com/clinicsite/clinicsite/internal/model"
)

// ErrCaptchaRejected means the CAPTCHA provider answered and the token
// did not pass (invalid, expired, or score below threshold).
var ErrCaptchaRejected = errors.New("captcha verification failed")

const (
	maxMessageLength = 5000
	maxFieldLength   = 320
)

// ValidationError reports a contact form field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ContactInput is the public contact form as submitted.
type ContactInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Message        string `json:"message"`
	PreferredDate  string `json:"preferredDate"`
	RecaptchaToken string `json:"recaptchaToken"`
}

// SubmissionWriter is the part of the store the contact service needs.
type SubmissionWriter interface {
	CreateSubmission(ctx context.Context, sub *model.Submission) error
}

type ContactService struct {
	store    SubmissionWriter
	verifier captcha.Verifier
}

func NewContactService(store SubmissionWriter, verifier captcha.Verifier) *ContactService {
	if verifier == nil {
		verifier = captcha.Disabled{}
	}
	return &ContactService{store: store, verifier: verifier}
}

// Submit validates the form, verifies the CAPTCHA token and stores one
// submission. Validation runs before any external call. Errors are a
// *ValidationError, ErrCaptchaRejected, or a wrapped upstream failure.
func (s *ContactService) Submit(ctx context.Context, in ContactInput, remoteIP string) (*model.Submission, error) {
	sub, err := validateContact(in)
	if err != nil {
		return nil, err
	}

	if err := s.verifier.Verify(ctx, in.RecaptchaToken, remoteIP); err != nil {
		if errors.Is(err, captcha.ErrRejected) {
			return nil, fmt.Errorf("%w: %v", ErrCaptchaRejected, err)
		}
		return nil, fmt.Errorf("verify captcha: %w", err)
	}

	if err := s.store.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}
	return sub, nil
}

func validateContact(in ContactInput) (*model.Submission, error) {
	sub := &model.Submission{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Message: strings.TrimSpace(in.Message),
	}
	date := strings.TrimSpace(in.PreferredDate)

	required := []struct {
		field string
		value string
	}{
		{"name", sub.Name},
		{"email", sub.Email},
		{"phone", sub.Phone},
		{"message", sub.Message},
		{"preferredDate", date},
		{"recaptchaToken", strings.TrimSpace(in.RecaptchaToken)},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, &ValidationError{Field: r.field, Message: "is required"}
		}
	}

	for _, f := range []struct {
		field string
		value string
	}{{"name", sub.Name}, {"email", sub.Email}, {"phone", sub.Phone}} {
		if utf8.RuneCountInString(f.value) > maxFieldLength {
			return nil, &ValidationError{Field: f.field, Message: fmt.Sprintf("must be at most %d characters", maxFieldLength)}
		}
	}
	if utf8.RuneCountInString(sub.Message) > maxMessageLength {
		return nil, &ValidationError{Field: "message", Message: fmt.Sprintf("must be at most %d characters", maxMessageLength)}
	}
	if !strings.Contains(sub.Email, "@") {
		return nil, &ValidationError{Field: "email", Message: "must be an email address"}
	}

	normalized, ok := normalizeDate(date)
	if !ok {
		return nil, &ValidationError{Field: "preferredDate", Message: "must be a date (YYYY-MM-DD)"}
	}
	sub.PreferredAppointmentDate = normalized
	return sub, nil
}

// normalizeDate accepts a calendar date or an RFC 3339 timestamp (what a
// date picker serializes) and returns the YYYY-MM-DD form.
func normalizeDate(v string) (string, bool) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t.Format(time.DateOnly), true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format(time.DateOnly), true
	}
	return "", false
}
