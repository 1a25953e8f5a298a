package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clinicsite/clinicsite/internal/model"
	"github.com/clinicsite/clinicsite/internal/server/middleware"
	"github.com/clinicsite/clinicsite/internal/service"
)

// ContactSubmitter accepts a validated contact form.
type ContactSubmitter interface {
	Submit(ctx context.Context, in service.ContactInput, remoteIP string) (*model.Submission, error)
}

// ContactHandler serves the public contact form.
type ContactHandler struct {
	contact ContactSubmitter
	logger  *slog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contact ContactSubmitter, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{contact: contact, logger: logger}
}

// Submit validates the form, verifies the CAPTCHA token and stores one row.
// POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in service.ContactInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sub, err := h.contact.Submit(r.Context(), in, clientIP(r))
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error(), map[string]interface{}{"field": verr.Field})
		case errors.Is(err, service.ErrCaptchaRejected):
			writeError(w, http.StatusBadRequest, "reCAPTCHA verification failed")
		default:
			h.logger.Error("contact submission failed",
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
			writeError(w, http.StatusInternalServerError, "Failed to submit the form")
		}
		return
	}

	h.logger.Info("contact submission stored",
		"submission_id", sub.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
}
