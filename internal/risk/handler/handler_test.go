package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"custodia/internal/platform/middleware"
	"custodia/internal/risk/consistency"
	"custodia/internal/risk/engine"
	"custodia/internal/risk/handler/dto"
	"custodia/internal/risk/models"
	"custodia/internal/risk/notify"
	"custodia/internal/risk/remediation"
	"custodia/internal/risk/scoring"
	"custodia/internal/risk/service"
	"custodia/internal/risk/store/memory"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/httputil"
	fixtures "custodia/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	records *memory.Records
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	now := func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	s.records = memory.NewRecords()
	artifacts := memory.NewArtifacts()
	claims := memory.NewClaims()
	orchestrator := remediation.New(artifacts, memory.NewTasks(), notify.NewMemory(),
		remediation.WithClaims(claims),
		remediation.WithClock(now),
	)
	eng := engine.New(
		scoring.MustNewScorer(scoring.DefaultWeights()),
		consistency.New(consistency.DefaultVocabulary()),
		engine.WithOrchestrator(orchestrator),
		engine.WithClock(now),
	)
	svc := service.New(eng, s.records, artifacts, memory.NewEvaluations(), service.WithClaims(claims))
	s.router = router(New(svc, nil))
}

func router(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	h.Register(r)
	return r
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			s.Require().NoError(json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func (s *HandlerSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var resp httputil.ErrorResponse
	s.decode(rec, &resp)
	return resp.Error
}

func toBody(r *models.TreatmentRecord) dto.Record {
	body := dto.Record{
		ResponsibleParty: dto.ResponsibleParty{Name: r.ResponsibleParty.Name, TaxID: r.ResponsibleParty.TaxID},
		PurposeText:      r.PurposeText,
		DataCategories:   dto.DataCategories(r.DataCategories),
		LegalBasis:       string(r.LegalBasis),
		EstimatedVolume:  r.EstimatedVolume,
		Technology:       r.Technology,
		SecurityMeasures: r.SecurityMeasures,
	}
	if !r.ID.IsNil() {
		body.ID = r.ID.String()
	}
	if !r.TenantID.IsNil() {
		body.TenantID = r.TenantID.String()
	}
	for _, t := range r.InternationalTransfers {
		body.InternationalTransfers = append(body.InternationalTransfers, dto.Transfer(t))
	}
	return body
}

func (s *HandlerSuite) TestEvaluatePostedRecord() {
	record := fixtures.NewRecordBuilder().HighRisk().Build()

	rec := s.do(http.MethodPost, "/v1/evaluations", dto.EvaluateRequest{Record: toBody(record)})

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.EvaluationResponse
	s.decode(rec, &resp)
	s.Equal(29, resp.Evaluation.TotalScore)
	s.Equal("HIGH", resp.Evaluation.Tier)
	s.Equal(dto.Subscores{Categories: 5, Purpose: 10, Transfers: 8, Volume: 6, Technology: 0}, resp.Evaluation.Subscores)
	s.True(resp.Policy.RequiresEIPD)
	s.Len(resp.Violations, 2)
	s.Require().NotNil(resp.Remediation)
	s.Empty(resp.Remediation.Failed)
	s.Equal(string(models.StepEIPD), resp.Remediation.Applied[0].Step)
	s.Equal("draft", resp.Remediation.Applied[0].Artifact.Status)

	history := s.do(http.MethodGet, "/v1/records/"+record.ID.String()+"/evaluations", nil)
	s.Require().Equal(http.StatusOK, history.Code)
	var hist dto.HistoryResponse
	s.decode(history, &hist)
	s.Require().Len(hist.Evaluations, 1)
	s.Equal(resp.Evaluation.ID, hist.Evaluations[0].ID)
}

func (s *HandlerSuite) TestEvaluateRejectsBadInput() {
	valid := toBody(fixtures.NewRecordBuilder().Build())

	s.Run("malformed JSON", func() {
		rec := s.do(http.MethodPost, "/v1/evaluations", `{"record":`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("bad_request", s.errorCode(rec))
	})

	s.Run("missing record id", func() {
		body := valid
		body.ID = ""
		rec := s.do(http.MethodPost, "/v1/evaluations", dto.EvaluateRequest{Record: body})
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("validation_error", s.errorCode(rec))
	})

	s.Run("unknown legal basis", func() {
		body := valid
		body.LegalBasis = "because"
		rec := s.do(http.MethodPost, "/v1/evaluations", dto.EvaluateRequest{Record: body})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("negative volume", func() {
		body := valid
		body.EstimatedVolume = -10
		rec := s.do(http.MethodPost, "/v1/evaluations", dto.EvaluateRequest{Record: body})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestEvaluateStoredRecord() {
	ctx := context.Background()
	record := fixtures.NewRecordBuilder().Build()
	s.Require().NoError(s.records.SaveRecord(ctx, record))

	s.Run("evaluates", func() {
		rec := s.do(http.MethodPost, "/v1/tenants/"+record.TenantID.String()+"/records/"+record.ID.String()+"/evaluate", nil)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var resp dto.EvaluationResponse
		s.decode(rec, &resp)
		s.Equal("MINIMAL", resp.Evaluation.Tier)
		s.Require().NotNil(resp.Remediation)
		s.Empty(resp.Remediation.Skipped)
		s.Require().Len(resp.Remediation.Applied, 1)
		s.Equal(string(models.StepNotification), resp.Remediation.Applied[0].Step)
	})

	s.Run("other tenant sees not found", func() {
		rec := s.do(http.MethodPost, "/v1/tenants/"+fixtures.TestIDs.TenantID2.String()+"/records/"+record.ID.String()+"/evaluate", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("unknown record", func() {
		rec := s.do(http.MethodPost, "/v1/tenants/"+record.TenantID.String()+"/records/"+fixtures.TestIDs.RecordID2.String()+"/evaluate", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("malformed tenant id", func() {
		rec := s.do(http.MethodPost, "/v1/tenants/not-a-uuid/records/"+record.ID.String()+"/evaluate", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestSimilarity() {
	a := fixtures.NewRecordBuilder().Build()
	b := fixtures.NewRecordBuilder().Build()

	rec := s.do(http.MethodPost, "/v1/similarity", dto.SimilarityRequest{A: toBody(a), B: toBody(b)})

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp dto.SimilarityResponse
	s.decode(rec, &resp)
	s.Equal(1.0, resp.Similarity)
	s.Equal(string(models.RecommendationBlock), resp.Recommendation)
	s.Equal(1.0, resp.Breakdown.Responsible)
}

func (s *HandlerSuite) TestSimilarityBelowInformHasNoRecommendation() {
	a := fixtures.NewRecordBuilder().Build()
	b := fixtures.NewRecordBuilder().
		WithResponsible("Clínica Austral Ltda", "96.111.222-3").
		WithPurpose("Envío de campañas publicitarias por correo").
		WithCategories(models.DataCategories{Technical: []string{"cookies"}}).
		WithLegalBasis(models.LegalBasisConsent).
		Build()

	rec := s.do(http.MethodPost, "/v1/similarity", dto.SimilarityRequest{A: toBody(a), B: toBody(b)})

	s.Require().Equal(http.StatusOK, rec.Code)
	var resp dto.SimilarityResponse
	s.decode(rec, &resp)
	s.Less(resp.Similarity, 0.6)
	s.Empty(resp.Recommendation)
}

func (s *HandlerSuite) TestReleaseRemediation() {
	ctx := context.Background()
	record := fixtures.NewRecordBuilder().HighRisk().Build()
	s.Require().NoError(s.records.SaveRecord(ctx, record))
	evaluate := "/v1/tenants/" + record.TenantID.String() + "/records/" + record.ID.String() + "/evaluate"
	release := "/v1/records/" + record.ID.String() + "/remediations/HIGH"

	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, evaluate, nil).Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, release, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, release, nil).Code)

	rec := s.do(http.MethodDelete, "/v1/records/"+record.ID.String()+"/remediations/SEVERE", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

// failingService reports one error for every operation.
type failingService struct{ err error }

func (f failingService) Evaluate(context.Context, *models.TreatmentRecord) (*models.EvaluationResult, error) {
	return nil, f.err
}

func (f failingService) EvaluateRecord(context.Context, id.TenantID, id.RecordID) (*models.EvaluationResult, error) {
	return nil, f.err
}

func (f failingService) History(context.Context, id.RecordID) ([]*models.RiskEvaluation, error) {
	return nil, f.err
}

func (f failingService) ReleaseRemediation(context.Context, id.RecordID, models.Tier) error {
	return f.err
}

func TestHandlerErrorTranslation(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unavailable", dErrors.Wrap(errors.New("dial tcp"), dErrors.CodeUnavailable, "load evaluation history"), http.StatusServiceUnavailable},
		{"timeout", dErrors.New(dErrors.CodeTimeout, "load evaluation history"), http.StatusGatewayTimeout},
		{"untyped", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := router(New(failingService{err: tc.err}, nil))
			req := httptest.NewRequest(http.MethodGet, "/v1/records/"+fixtures.TestIDs.RecordID1.String()+"/evaluations", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}
