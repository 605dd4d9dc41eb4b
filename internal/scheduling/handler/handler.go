package handler

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"attache/internal/scheduling/models"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
	"attache/pkg/platform/httputil"
	"attache/pkg/requestcontext"
)

// Service defines the allocator operations the HTTP layer needs.
type Service interface {
	CreateSlot(ctx context.Context, slot *models.AppointmentSlot) (*models.AppointmentSlot, error)
	Available(ctx context.Context, orgID id.OrgID, month time.Time) iter.Seq2[*models.AppointmentSlot, error]
	Book(ctx context.Context, slotID id.SlotID, caseID id.CaseID, applicantID id.ApplicantID) (*models.Appointment, error)
	Cancel(ctx context.Context, appointmentID id.AppointmentID) (*models.Appointment, error)
}

// Handler wires scheduling endpoints to the allocator service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a scheduling handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts scheduling endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/orgs/{orgID}/slots", h.HandleListSlots)
	r.Post("/orgs/{orgID}/slots", h.HandleCreateSlot)
	r.Post("/appointments", h.HandleBook)
	r.Post("/appointments/{appointmentID}/cancel", h.HandleCancel)
}

// slotManagerRoles may publish capacity for an organization.
var slotManagerRoles = []string{"admin", "officer"}

// HandleListSlots handles GET /orgs/{orgID}/slots?month=YYYY-MM requests.
func (h *Handler) HandleListSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID, err := id.ParseOrgID(chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid organization ID"))
		return
	}
	month, err := time.Parse("2006-01", r.URL.Query().Get("month"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "month query parameter must be YYYY-MM"))
		return
	}

	slots := make([]*SlotResponse, 0)
	for slot, err := range h.service.Available(ctx, orgID, month) {
		if err != nil {
			h.logger.ErrorContext(ctx, "availability listing failed",
				"request_id", requestID,
				"org_id", orgID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		slots = append(slots, FromSlot(slot))
	}

	httputil.WriteJSON(w, http.StatusOK, ListSlotsResponse{Slots: slots})
}

// HandleCreateSlot handles POST /orgs/{orgID}/slots requests.
func (h *Handler) HandleCreateSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if !h.hasSlotManagerRole(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "slot management requires an officer role"))
		return
	}

	orgID, err := id.ParseOrgID(chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid organization ID"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateSlotRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	slot, err := h.service.CreateSlot(ctx, req.ToModel(orgID))
	if err != nil {
		h.logger.ErrorContext(ctx, "slot creation failed",
			"request_id", requestID,
			"org_id", orgID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "slot created",
		"request_id", requestID,
		"org_id", orgID,
		"slot_id", slot.ID,
		"capacity", slot.Capacity,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromSlot(slot))
}

// HandleBook handles POST /appointments requests.
func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if requestcontext.ActorID(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[BookAppointmentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	appt, err := h.service.Book(ctx, req.ParsedSlotID(), req.ParsedCaseID(), req.ParsedApplicantID())
	if err != nil {
		h.logger.WarnContext(ctx, "booking rejected",
			"request_id", requestID,
			"slot_id", req.SlotID,
			"case_id", req.CaseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "appointment booked",
		"request_id", requestID,
		"appointment_id", appt.ID,
		"slot_id", appt.SlotID,
		"case_id", appt.CaseID,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromAppointment(appt))
}

// HandleCancel handles POST /appointments/{appointmentID}/cancel requests.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if requestcontext.ActorID(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	appointmentID, err := id.ParseAppointmentID(chi.URLParam(r, "appointmentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid appointment ID"))
		return
	}

	appt, err := h.service.Cancel(ctx, appointmentID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancellation failed",
			"request_id", requestID,
			"appointment_id", appointmentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "appointment cancelled",
		"request_id", requestID,
		"appointment_id", appt.ID,
		"case_id", appt.CaseID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromAppointment(appt))
}

func (h *Handler) hasSlotManagerRole(ctx context.Context) bool {
	for _, role := range requestcontext.Roles(ctx) {
		if slices.Contains(slotManagerRoles, role) {
			return true
		}
	}
	return false
}
