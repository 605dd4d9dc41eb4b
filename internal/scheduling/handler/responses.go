package handler

import (
	"time"

	"attache/internal/scheduling/models"
)

// SlotResponse is the HTTP representation of an appointment slot.
type SlotResponse struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Date      string    `json:"date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Capacity  int       `json:"capacity"`
	Remaining int       `json:"remaining"`
}

// FromSlot converts a domain slot to an HTTP response.
func FromSlot(slot *models.AppointmentSlot) *SlotResponse {
	return &SlotResponse{
		ID:        slot.ID.String(),
		OrgID:     slot.OrgID.String(),
		Date:      slot.Date.Format("2006-01-02"),
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Capacity:  slot.Capacity,
		Remaining: slot.Remaining(),
	}
}

// ListSlotsResponse is the HTTP response for GET /orgs/{orgID}/slots.
type ListSlotsResponse struct {
	Slots []*SlotResponse `json:"slots"`
}

// AppointmentResponse is the HTTP representation of a booking.
type AppointmentResponse struct {
	ID          string     `json:"id"`
	SlotID      string     `json:"slot_id"`
	CaseID      string     `json:"case_id"`
	ApplicantID string     `json:"applicant_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// FromAppointment converts a domain appointment to an HTTP response.
func FromAppointment(appt *models.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:          appt.ID.String(),
		SlotID:      appt.SlotID.String(),
		CaseID:      appt.CaseID.String(),
		ApplicantID: appt.ApplicantID.String(),
		Status:      string(appt.Status),
		CreatedAt:   appt.CreatedAt,
		CancelledAt: appt.CancelledAt,
	}
}
