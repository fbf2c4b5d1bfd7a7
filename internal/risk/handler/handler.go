// Package handler exposes risk evaluation over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custodia/internal/platform/middleware"
	"custodia/internal/risk/handler/dto"
	"custodia/internal/risk/models"
	"custodia/internal/risk/similarity"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/httputil"
)

// Service is the store-backed evaluation service. Returns domain objects,
// not HTTP response DTOs.
type Service interface {
	Evaluate(ctx context.Context, record *models.TreatmentRecord) (*models.EvaluationResult, error)
	EvaluateRecord(ctx context.Context, tenantID id.TenantID, recordID id.RecordID) (*models.EvaluationResult, error)
	History(ctx context.Context, recordID id.RecordID) ([]*models.RiskEvaluation, error)
	ReleaseRemediation(ctx context.Context, recordID id.RecordID, tier models.Tier) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/evaluations", h.HandleEvaluate)
	r.Post("/v1/tenants/{tenantID}/records/{recordID}/evaluate", h.HandleEvaluateStored)
	r.Get("/v1/records/{recordID}/evaluations", h.HandleHistory)
	r.Post("/v1/similarity", h.HandleSimilarity)
	r.Delete("/v1/records/{recordID}/remediations/{tier}", h.HandleReleaseRemediation)
}

// HandleEvaluate evaluates a record supplied in the body against the stored
// data of its tenant. Business findings (violations, duplicates, failed
// remediation steps) are part of a 200 response, never errors.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[dto.EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	record, err := req.Record.ToModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Evaluate(ctx, record)
	if err != nil {
		h.logger.ErrorContext(ctx, "evaluate record failed", "error", err, "request_id", requestID, "record_id", record.ID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dto.ToEvaluationResponse(result))
}

// HandleEvaluateStored re-evaluates a stored record.
func (h *Handler) HandleEvaluateStored(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid tenant id"))
		return
	}
	recordID, ok := h.recordIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.EvaluateRecord(ctx, tenantID, recordID)
	if err != nil {
		h.logger.ErrorContext(ctx, "evaluate stored record failed", "error", err, "request_id", requestID,
			"tenant_id", tenantID.String(), "record_id", recordID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dto.ToEvaluationResponse(result))
}

// HandleHistory lists prior evaluations of a record.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	recordID, ok := h.recordIDParam(w, r)
	if !ok {
		return
	}

	history, err := h.service.History(ctx, recordID)
	if err != nil {
		h.logger.ErrorContext(ctx, "load evaluation history failed", "error", err, "request_id", requestID, "record_id", recordID.String())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dto.ToHistoryResponse(recordID.String(), history))
}

// HandleSimilarity compares two records without touching any store.
func (h *Handler) HandleSimilarity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[dto.SimilarityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	a, err := req.A.ToModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := req.B.ToModel()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, dto.ToSimilarityResponse(similarity.Similarity(a, b)))
}

// HandleReleaseRemediation frees a (record, tier) claim once the DPO
// workflow has closed the remediation.
func (h *Handler) HandleReleaseRemediation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req := dto.ReleaseRequest{RecordID: chi.URLParam(r, "recordID"), Tier: chi.URLParam(r, "tier")}
	if err := httputil.PrepareRequest(&req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	recordID, tier, err := req.Parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.ReleaseRemediation(ctx, recordID, tier); err != nil {
		h.logger.WarnContext(ctx, "release remediation failed", "error", err, "request_id", requestID,
			"record_id", recordID.String(), "tier", tier)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordIDParam(w http.ResponseWriter, r *http.Request) (id.RecordID, bool) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid record id"))
		return id.RecordID{}, false
	}
	return recordID, true
}
