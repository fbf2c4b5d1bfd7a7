// Package service runs evaluations against stored tenant data and keeps the
// evaluation history.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"custodia/internal/risk/engine"
	"custodia/internal/risk/metrics"
	"custodia/internal/risk/models"
	"custodia/internal/risk/ports"
	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/tracer"
)

// Degraded input names reported in EvaluationResult.Degraded.
const (
	DegradedTenantRecords = "tenant_records"
	DegradedApprovedEIPDs = "approved_eipds"
	DegradedHistory       = "evaluation_history"
)

const defaultLoadTimeout = 3 * time.Second

type Service struct {
	engine      *engine.Engine
	records     ports.RecordStore
	artifacts   ports.ArtifactStore
	evaluations ports.EvaluationStore
	claims      ports.ClaimStore
	loadTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
}

type Option func(*Service)

// WithClaims enables ReleaseRemediation.
func WithClaims(c ports.ClaimStore) Option {
	return func(s *Service) { s.claims = c }
}

// WithLoadTimeout bounds loading tenant records and approved EIPDs.
func WithLoadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// New creates the service. Panics if a required dependency is nil.
func New(
	eng *engine.Engine,
	records ports.RecordStore,
	artifacts ports.ArtifactStore,
	evaluations ports.EvaluationStore,
	opts ...Option,
) *Service {
	if eng == nil {
		panic("service.New: engine is required")
	}
	if records == nil {
		panic("service.New: record store is required")
	}
	if artifacts == nil {
		panic("service.New: artifact store is required")
	}
	if evaluations == nil {
		panic("service.New: evaluation store is required")
	}
	s := &Service{
		engine:      eng,
		records:     records,
		artifacts:   artifacts,
		evaluations: evaluations,
		loadTimeout: defaultLoadTimeout,
		tracer:      tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// EvaluateRecord evaluates a stored record of the tenant.
func (s *Service) EvaluateRecord(ctx context.Context, tenantID id.TenantID, recordID id.RecordID) (*models.EvaluationResult, error) {
	record, err := s.records.GetRecord(ctx, recordID)
	if err != nil {
		return nil, translate(err, msgLoadRecord)
	}
	// A record of another tenant is reported exactly like a missing one.
	if record.TenantID != tenantID {
		return nil, dErrors.New(dErrors.CodeNotFound, notFound(msgLoadRecord))
	}
	return s.evaluate(ctx, record)
}

// Evaluate evaluates a record supplied by the caller against the stored data
// of its tenant. The record itself is not persisted.
func (s *Service) Evaluate(ctx context.Context, record *models.TreatmentRecord) (*models.EvaluationResult, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return s.evaluate(ctx, record)
}

func (s *Service) evaluate(ctx context.Context, record *models.TreatmentRecord) (*models.EvaluationResult, error) {
	in := s.loadTenantData(ctx, record)

	result, err := s.engine.Evaluate(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.evaluations.AppendEvaluation(ctx, &result.Evaluation); err != nil {
		s.logger.WarnContext(ctx, "failed to persist evaluation",
			"record_id", record.ID.String(), "evaluation_id", result.Evaluation.ID.String(), "error", err)
		s.degraded(&result.Degraded, DegradedHistory)
	}
	return result, nil
}

// loadTenantData fetches the duplicate-scan candidates and approved EIPDs in
// parallel. A failed load degrades the evaluation instead of failing it.
func (s *Service) loadTenantData(ctx context.Context, record *models.TreatmentRecord) engine.Input {
	ctx, span := s.tracer.Start(ctx, tracer.SpanLoadTenantData, tracer.String(tracer.AttrTenantID, record.TenantID.String()))
	defer span.End(nil)
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	var (
		g                    errgroup.Group
		candidates           []*models.TreatmentRecord
		approved             []*models.ComplianceArtifact
		recordsErr, eipdsErr error
	)
	g.Go(func() error {
		candidates, recordsErr = s.records.ListRecords(ctx, record.TenantID)
		return nil
	})
	g.Go(func() error {
		approved, eipdsErr = s.artifacts.ListApprovedArtifacts(ctx, record.TenantID, models.ArtifactEIPD)
		return nil
	})
	_ = g.Wait()

	in := engine.Input{Record: record, TenantRecords: candidates, ApprovedEIPDs: approved}
	if recordsErr != nil {
		s.logger.WarnContext(ctx, "tenant records unavailable, duplicate scan skipped",
			"tenant_id", record.TenantID.String(), "error", recordsErr)
		in.TenantRecords = nil
		s.degraded(&in.Degraded, DegradedTenantRecords)
	}
	if eipdsErr != nil {
		s.logger.WarnContext(ctx, "approved EIPDs unavailable",
			"tenant_id", record.TenantID.String(), "error", eipdsErr)
		in.ApprovedEIPDs = nil
		s.degraded(&in.Degraded, DegradedApprovedEIPDs)
	} else if in.ApprovedEIPDs == nil {
		// Loaded and empty; keeps the orchestrator from listing again.
		in.ApprovedEIPDs = []*models.ComplianceArtifact{}
	}
	return in
}

func (s *Service) degraded(list *[]string, input string) {
	*list = append(*list, input)
	if s.metrics != nil {
		s.metrics.IncrementDegraded(input)
	}
}

// History returns the record's evaluations, oldest first.
func (s *Service) History(ctx context.Context, recordID id.RecordID) ([]*models.RiskEvaluation, error) {
	history, err := s.evaluations.ListEvaluations(ctx, recordID)
	if err != nil {
		return nil, translate(err, "load evaluation history")
	}
	return history, nil
}

// ReleaseRemediation frees the (record, tier) claim once the DPO workflow has
// closed the remediation, allowing a later evaluation to remediate again.
func (s *Service) ReleaseRemediation(ctx context.Context, recordID id.RecordID, tier models.Tier) error {
	if s.claims == nil {
		return dErrors.New(dErrors.CodeNotFound, "no active remediation")
	}
	if err := s.claims.Release(ctx, recordID, tier); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no active remediation")
		}
		return translate(err, "release remediation")
	}
	s.logger.InfoContext(ctx, "remediation released", "record_id", recordID.String(), "tier", tier)
	return nil
}

const msgLoadRecord = "load treatment record"

func notFound(msg string) string {
	return msg + ": not found"
}

// translate maps store sentinels to domain errors exactly once. msg names
// the operation that failed.
func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFound(msg))
	case errors.Is(err, sentinel.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	case errors.Is(err, sentinel.ErrInvalidInput):
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
