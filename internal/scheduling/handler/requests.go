package handler

import (
	"strings"
	"time"

	"attache/internal/scheduling/models"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
)

// CreateSlotRequest is the HTTP request body for POST /orgs/{orgID}/slots.
type CreateSlotRequest struct {
	Date      string `json:"date"`       // YYYY-MM-DD
	StartTime string `json:"start_time"` // RFC 3339
	EndTime   string `json:"end_time"`   // RFC 3339
	Capacity  int    `json:"capacity"`

	// Parsed values (populated by Validate)
	parsedDate  time.Time
	parsedStart time.Time
	parsedEnd   time.Time
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateSlotRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "date must be YYYY-MM-DD")
	}
	r.parsedDate = date

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(r.StartTime))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "start_time must be RFC 3339")
	}
	r.parsedStart = start

	end, err := time.Parse(time.RFC3339, strings.TrimSpace(r.EndTime))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "end_time must be RFC 3339")
	}
	r.parsedEnd = end

	if r.Capacity < 1 {
		return dErrors.New(dErrors.CodeValidation, "capacity must be at least 1")
	}
	return nil
}

// ToModel builds the domain slot for the given organization.
func (r *CreateSlotRequest) ToModel(orgID id.OrgID) *models.AppointmentSlot {
	return &models.AppointmentSlot{
		OrgID:     orgID,
		Date:      r.parsedDate,
		StartTime: r.parsedStart,
		EndTime:   r.parsedEnd,
		Capacity:  r.Capacity,
	}
}

// BookAppointmentRequest is the HTTP request body for POST /appointments.
type BookAppointmentRequest struct {
	SlotID      string `json:"slot_id"`
	CaseID      string `json:"case_id"`
	ApplicantID string `json:"applicant_id"`

	// Parsed values (populated by Validate)
	parsedSlotID      id.SlotID
	parsedCaseID      id.CaseID
	parsedApplicantID id.ApplicantID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *BookAppointmentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	slotID, err := id.ParseSlotID(strings.TrimSpace(r.SlotID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "slot_id must be a UUID")
	}
	r.parsedSlotID = slotID

	caseID, err := id.ParseCaseID(strings.TrimSpace(r.CaseID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "case_id must be a UUID")
	}
	r.parsedCaseID = caseID

	applicantID, err := id.ParseApplicantID(strings.TrimSpace(r.ApplicantID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "applicant_id must be a UUID")
	}
	r.parsedApplicantID = applicantID

	return nil
}

// ParsedSlotID returns the validated slot ID.
func (r *BookAppointmentRequest) ParsedSlotID() id.SlotID { return r.parsedSlotID }

// ParsedCaseID returns the validated case ID.
func (r *BookAppointmentRequest) ParsedCaseID() id.CaseID { return r.parsedCaseID }

// ParsedApplicantID returns the validated applicant ID.
func (r *BookAppointmentRequest) ParsedApplicantID() id.ApplicantID { return r.parsedApplicantID }
