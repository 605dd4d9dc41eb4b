package handler

import (
	"time"

	"attache/internal/casefile/models"
	"attache/internal/profile"
)

// CaseResponse is the HTTP representation of a case.
type CaseResponse struct {
	ID          string           `json:"id"`
	Reference   string           `json:"reference"`
	OrgID       string           `json:"org_id"`
	ServiceID   string           `json:"service_id"`
	ApplicantID string           `json:"applicant_id"`
	Status      string           `json:"status"`
	Priority    string           `json:"priority"`
	Profile     profile.Snapshot `json:"profile"`
	Documents   []string         `json:"documents,omitempty"`
	Actions     []ActionEntry    `json:"actions,omitempty"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
	AssignedAt  *time.Time       `json:"assigned_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Version     int64            `json:"version"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ActionEntry is the HTTP representation of an action-required entry.
type ActionEntry struct {
	ID            string                `json:"id"`
	Kind          string                `json:"kind"`
	Message       string                `json:"message"`
	Metadata      models.ActionMetadata `json:"metadata,omitempty"`
	Deadline      *time.Time            `json:"deadline,omitempty"`
	AppointmentID string                `json:"appointment_id,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
}

// ListCasesResponse is the HTTP response for GET /cases.
type ListCasesResponse struct {
	Cases []*CaseResponse `json:"cases"`
}

// FromCase converts a domain case to an HTTP response.
func FromCase(c *models.Case) *CaseResponse {
	resp := &CaseResponse{
		ID:          c.ID.String(),
		Reference:   c.Reference,
		OrgID:       c.OrgID.String(),
		ServiceID:   c.ServiceID.String(),
		ApplicantID: c.ApplicantID.String(),
		Status:      string(c.Status),
		Priority:    string(c.Priority),
		Profile:     c.Profile,
		SubmittedAt: c.SubmittedAt,
		AssignedAt:  c.AssignedAt,
		CompletedAt: c.CompletedAt,
		Version:     c.Version,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for _, ref := range c.Documents {
		resp.Documents = append(resp.Documents, string(ref))
	}
	for _, action := range c.Actions {
		entry := ActionEntry{
			ID:          action.ID.String(),
			Kind:        string(action.Kind),
			Message:     action.Message,
			Metadata:    action.Metadata,
			Deadline:    action.Deadline,
			CreatedAt:   action.CreatedAt,
			CompletedAt: action.CompletedAt,
		}
		if action.AppointmentID != nil {
			entry.AppointmentID = action.AppointmentID.String()
		}
		resp.Actions = append(resp.Actions, entry)
	}
	return resp
}
