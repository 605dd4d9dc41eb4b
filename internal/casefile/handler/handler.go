package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"attache/internal/casefile/models"
	"attache/internal/casefile/service"
	id "attache/pkg/domain"
	dErrors "attache/pkg/domain-errors"
	"attache/pkg/platform/httputil"
	"attache/pkg/requestcontext"
)

// Service defines the case operations the HTTP layer needs.
type Service interface {
	CreateDraft(ctx context.Context, params service.CreateDraftParams) (*models.Case, error)
	Get(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	ListByOrgStatus(ctx context.Context, orgID id.OrgID, status models.Status) ([]*models.Case, error)
	ListByApplicant(ctx context.Context, applicantID id.ApplicantID) ([]*models.Case, error)
	Submit(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	Transition(ctx context.Context, caseID id.CaseID, target models.Status, actor id.ActorID) (*models.Case, error)
	Cancel(ctx context.Context, caseID id.CaseID, reason string, actor id.ActorID) (*models.Case, error)
	Reject(ctx context.Context, caseID id.CaseID, reason string, actor id.ActorID) (*models.Case, error)
	Issue(ctx context.Context, caseID id.CaseID, params service.IssueParams, actor id.ActorID) (*models.Case, error)
	Respond(ctx context.Context, caseID id.CaseID, actionID id.ActionID, response models.ActionResponse, actor id.ActorID) (*models.Case, error)
}

// Handler wires case endpoints to the case service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a case handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts case endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/cases", h.HandleCreate)
	r.Get("/cases", h.HandleList)
	r.Get("/cases/{caseID}", h.HandleGet)
	r.Post("/cases/{caseID}/submit", h.HandleSubmit)
	r.Post("/cases/{caseID}/transition", h.HandleTransition)
	r.Post("/cases/{caseID}/cancel", h.HandleCancel)
	r.Post("/cases/{caseID}/reject", h.HandleReject)
	r.Post("/cases/{caseID}/actions", h.HandleIssueAction)
	r.Post("/cases/{caseID}/actions/{actionID}/respond", h.HandleRespondAction)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (id.ActorID, bool) {
	actor := requestcontext.ActorID(r.Context())
	if actor.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.ActorID{}, false
	}
	return actor, true
}

func caseIDParam(w http.ResponseWriter, r *http.Request) (id.CaseID, bool) {
	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid case ID"))
		return id.CaseID{}, false
	}
	return caseID, true
}

// HandleCreate handles POST /cases requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := h.actor(w, r); !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.CreateDraft(ctx, req.ToParams())
	if err != nil {
		h.logger.WarnContext(ctx, "case creation failed",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case created",
		"request_id", requestID, "case_id", c.ID, "reference", c.Reference)
	httputil.WriteJSON(w, http.StatusCreated, FromCase(c))
}

// HandleGet handles GET /cases/{caseID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := h.actor(w, r); !ok {
		return
	}
	caseID, ok := caseIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.service.Get(ctx, caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

// HandleList handles GET /cases?org=&status= and GET /cases?applicant= requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := h.actor(w, r); !ok {
		return
	}

	q := r.URL.Query()
	var cases []*models.Case
	switch {
	case q.Get("applicant") != "":
		applicantID, err := id.ParseApplicantID(q.Get("applicant"))
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid applicant ID"))
			return
		}
		cases, err = h.service.ListByApplicant(ctx, applicantID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	case q.Get("org") != "":
		orgID, err := id.ParseOrgID(q.Get("org"))
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid organization ID"))
			return
		}
		status, err := models.ParseStatus(q.Get("status"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		cases, err = h.service.ListByOrgStatus(ctx, orgID, status)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "either applicant or org+status query parameters are required"))
		return
	}

	out := make([]*CaseResponse, 0, len(cases))
	for _, c := range cases {
		out = append(out, FromCase(c))
	}
	httputil.WriteJSON(w, http.StatusOK, ListCasesResponse{Cases: out})
}

// HandleSubmit handles POST /cases/{caseID}/submit requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if _, ok := h.actor(w, r); !ok {
		return
	}
	caseID, ok := caseIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.service.Submit(ctx, caseID)
	if err != nil {
		h.logger.WarnContext(ctx, "case submission failed",
			"request_id", requestID, "case_id", caseID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case submitted",
		"request_id", requestID, "case_id", c.ID, "reference", c.Reference)
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

// HandleTransition handles POST /cases/{caseID}/transition requests.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	caseID, ok := caseIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Transition(ctx, caseID, req.ParsedTarget(), actor)
	if err != nil {
		h.logger.WarnContext(ctx, "case transition rejected",
			"request_id", requestID, "case_id", caseID, "target", req.Target, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case transitioned",
		"request_id", requestID, "case_id", c.ID, "status", c.Status)
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

// HandleCancel handles POST /cases/{caseID}/cancel requests.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, h.service.Cancel)
}

// HandleReject handles POST /cases/{caseID}/reject requests.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, h.service.Reject)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request, op func(context.Context, id.CaseID, string, id.ActorID) (*models.Case, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	caseID, ok := caseIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CloseCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := op(ctx, caseID, req.Reason, actor)
	if err != nil {
		h.logger.WarnContext(ctx, "case close rejected",
			"request_id", requestID, "case_id", caseID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case closed",
		"request_id", requestID, "case_id", c.ID, "status", c.Status)
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}

// HandleIssueAction handles POST /cases/{caseID}/actions requests.
func (h *Handler) HandleIssueAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	caseID, ok := caseIDParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[IssueActionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Issue(ctx, caseID, req.ToParams(), actor)
	if err != nil {
		h.logger.WarnContext(ctx, "action issue rejected",
			"request_id", requestID, "case_id", caseID, "action_kind", req.Kind, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "action issued",
		"request_id", requestID, "case_id", c.ID, "action_kind", req.Kind)
	httputil.WriteJSON(w, http.StatusCreated, FromCase(c))
}

// HandleRespondAction handles POST /cases/{caseID}/actions/{actionID}/respond requests.
func (h *Handler) HandleRespondAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	caseID, ok := caseIDParam(w, r)
	if !ok {
		return
	}
	actionID, err := id.ParseActionID(chi.URLParam(r, "actionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid action ID"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[RespondActionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Respond(ctx, caseID, actionID, req.ToResponse(), actor)
	if err != nil {
		h.logger.WarnContext(ctx, "action response rejected",
			"request_id", requestID, "case_id", caseID, "action_id", actionID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "action resolved",
		"request_id", requestID, "case_id", c.ID, "action_id", actionID, "status", c.Status)
	httputil.WriteJSON(w, http.StatusOK, FromCase(c))
}
