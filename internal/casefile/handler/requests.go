package handler

import (
	"encoding/json"
	"strings"
	"time"

	"attache/internal/casefile/models"
	"attache/internal/casefile/service"
	"attache/internal/profile"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
)

// CreateCaseRequest is the HTTP request body for POST /cases.
type CreateCaseRequest struct {
	OrgID       string           `json:"org_id"`
	ServiceID   string           `json:"service_id"`
	ApplicantID string           `json:"applicant_id"`
	Priority    string           `json:"priority,omitempty"`
	Profile     profile.Snapshot `json:"profile,omitempty"`

	// Parsed values (populated by Validate)
	parsedOrgID       id.OrgID
	parsedServiceID   id.ServiceID
	parsedApplicantID id.ApplicantID
	parsedPriority    models.Priority
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateCaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	orgID, err := id.ParseOrgID(strings.TrimSpace(r.OrgID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "org_id must be a UUID")
	}
	r.parsedOrgID = orgID

	serviceID, err := id.ParseServiceID(strings.TrimSpace(r.ServiceID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "service_id must be a UUID")
	}
	r.parsedServiceID = serviceID

	applicantID, err := id.ParseApplicantID(strings.TrimSpace(r.ApplicantID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "applicant_id must be a UUID")
	}
	r.parsedApplicantID = applicantID

	switch p := models.Priority(strings.TrimSpace(r.Priority)); p {
	case "", models.PriorityNormal:
		r.parsedPriority = models.PriorityNormal
	case models.PriorityUrgent:
		r.parsedPriority = models.PriorityUrgent
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown priority %q", r.Priority)
	}
	return nil
}

// ToParams builds the service-layer parameters.
func (r *CreateCaseRequest) ToParams() service.CreateDraftParams {
	return service.CreateDraftParams{
		OrgID:       r.parsedOrgID,
		ServiceID:   r.parsedServiceID,
		ApplicantID: r.parsedApplicantID,
		Priority:    r.parsedPriority,
		Profile:     r.Profile,
	}
}

// TransitionRequest is the HTTP request body for POST /cases/{caseID}/transition.
type TransitionRequest struct {
	Target string `json:"target"`

	parsedTarget models.Status
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *TransitionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	target, err := models.ParseStatus(r.Target)
	if err != nil {
		return err
	}
	r.parsedTarget = target
	return nil
}

// ParsedTarget returns the validated target status.
func (r *TransitionRequest) ParsedTarget() models.Status {
	return r.parsedTarget
}

// CloseCaseRequest is the HTTP request body for cancel and reject.
type CloseCaseRequest struct {
	Reason string `json:"reason"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CloseCaseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

// IssueActionRequest is the HTTP request body for POST /cases/{caseID}/actions.
type IssueActionRequest struct {
	Kind     string          `json:"kind"`
	Message  string          `json:"message"`
	Metadata json.RawMessage `json:"metadata"`
	Deadline *time.Time      `json:"deadline,omitempty"`

	parsedKind     models.ActionKind
	parsedMetadata models.ActionMetadata
}

// Validate validates and parses the request, decoding the metadata union
// under the kind discriminant.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *IssueActionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	kind, err := models.ParseActionKind(r.Kind)
	if err != nil {
		return err
	}
	r.parsedKind = kind

	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return dErrors.New(dErrors.CodeValidation, "message is required")
	}

	if len(r.Metadata) == 0 {
		return dErrors.New(dErrors.CodeValidation, "metadata is required")
	}
	meta, err := models.DecodeMetadata(kind, r.Metadata)
	if err != nil {
		return dErrors.Newf(dErrors.CodeValidation, "malformed metadata for kind %s", kind)
	}
	r.parsedMetadata = meta
	return nil
}

// ToParams builds the service-layer parameters.
func (r *IssueActionRequest) ToParams() service.IssueParams {
	return service.IssueParams{
		Kind:     r.parsedKind,
		Message:  r.Message,
		Metadata: r.parsedMetadata,
		Deadline: r.Deadline,
	}
}

// RespondActionRequest is the HTTP request body for
// POST /cases/{caseID}/actions/{actionID}/respond. Which fields matter
// depends on the action's kind; the service rejects mismatches.
type RespondActionRequest struct {
	DocumentRefs []string       `json:"document_refs,omitempty"`
	Fields       map[string]any `json:"fields,omitempty"`
	SlotID       string         `json:"slot_id,omitempty"`
	PaymentToken string         `json:"payment_token,omitempty"`
	Confirmed    bool           `json:"confirmed,omitempty"`

	parsedSlotID id.SlotID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *RespondActionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if s := strings.TrimSpace(r.SlotID); s != "" {
		slotID, err := id.ParseSlotID(s)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "slot_id must be a UUID")
		}
		r.parsedSlotID = slotID
	}
	return nil
}

// ToResponse builds the service-layer action response.
func (r *RespondActionRequest) ToResponse() models.ActionResponse {
	refs := make([]models.DocumentRef, 0, len(r.DocumentRefs))
	for _, ref := range r.DocumentRefs {
		refs = append(refs, models.DocumentRef(ref))
	}
	return models.ActionResponse{
		DocumentRefs: refs,
		Fields:       r.Fields,
		SlotID:       r.parsedSlotID,
		PaymentToken: r.PaymentToken,
		Confirmed:    r.Confirmed,
	}
}
