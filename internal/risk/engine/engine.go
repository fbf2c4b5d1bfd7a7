// Package engine is the single entry point of risk evaluation. It runs the
// consistency validator, the scorer, the classifier, the duplicate scan and,
// unless a near-identical record blocks it, remediation.
package engine

import (
	"context"
	"log/slog"
	"time"

	"custodia/internal/risk/classify"
	"custodia/internal/risk/consistency"
	"custodia/internal/risk/metrics"
	"custodia/internal/risk/models"
	"custodia/internal/risk/remediation"
	"custodia/internal/risk/safeguard"
	"custodia/internal/risk/scoring"
	"custodia/internal/risk/similarity"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/tracer"
)

// SkipRemediationDisabled is reported when no orchestrator is configured.
const SkipRemediationDisabled = "remediation not configured"

// Engine evaluates treatment records. It is safe for concurrent use.
type Engine struct {
	cfg          Config
	scorer       *scoring.Scorer
	validator    *consistency.Validator
	resolver     *safeguard.Resolver
	orchestrator *remediation.Orchestrator
	now          func() time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
}

type Option func(*Engine)

func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithResolver sets the certification resolver. Without one, every USA
// transfer scores as uncertified.
func WithResolver(r *safeguard.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

func WithOrchestrator(o *remediation.Orchestrator) Option {
	return func(e *Engine) { e.orchestrator = o }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New creates an engine. Panics if the scorer or validator is nil.
func New(scorer *scoring.Scorer, validator *consistency.Validator, opts ...Option) *Engine {
	if scorer == nil {
		panic("engine.New: scorer is required")
	}
	if validator == nil {
		panic("engine.New: validator is required")
	}
	e := &Engine{
		cfg:       DefaultConfig(),
		scorer:    scorer,
		validator: validator,
		now:       time.Now,
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.resolver == nil {
		e.resolver = safeguard.NewResolver(nil, safeguard.WithTimeout(e.cfg.SafeguardTimeout))
	}
	return e
}

// Input is everything one evaluation needs. TenantRecords feed the
// duplicate scan; ApprovedEIPDs feed reuse matching (nil lets the
// orchestrator list them itself). Degraded names inputs the caller failed to
// load and is copied into the result.
type Input struct {
	Record        *models.TreatmentRecord
	TenantRecords []*models.TreatmentRecord
	ApprovedEIPDs []*models.ComplianceArtifact
	Degraded      []string
}

// Evaluate never fails for business reasons. It returns an error only for
// a malformed record; the score, tier and violations are returned even when
// every remediation effect fails.
func (e *Engine) Evaluate(ctx context.Context, in Input) (*models.EvaluationResult, error) {
	start := e.now()
	if err := in.Record.Validate(); err != nil {
		return nil, err
	}
	record := in.Record
	ctx, span := e.tracer.Start(ctx, tracer.SpanEvaluate,
		tracer.String(tracer.AttrRecordID, record.ID.String()),
		tracer.String(tracer.AttrTenantID, record.TenantID.String()),
		tracer.String(tracer.AttrTaxID, tracer.Fingerprint(record.ResponsibleParty.TaxID)),
	)
	defer span.End(nil)

	violations := e.validator.Validate(record)

	certs := e.resolver.Resolve(ctx, e.scorer.CertificationLookups(record))
	subscores := e.scorer.Score(record, certs)
	total := subscores.Total()
	tier, policy := classify.Classify(total)
	span.SetAttributes(tracer.Int(tracer.AttrScore, total), tracer.String(tracer.AttrTier, string(tier)))

	duplicates := e.scanDuplicates(ctx, record, in.TenantRecords)
	blocked := similarity.HasBlock(duplicates)

	result := &models.EvaluationResult{
		Violations: violations,
		Evaluation: models.RiskEvaluation{
			ID:             id.NewEvaluationID(),
			RecordID:       record.ID,
			TenantID:       record.TenantID,
			Subscores:      subscores,
			TotalScore:     total,
			Tier:           tier,
			Blocked:        blocked,
			WeightsVersion: e.scorer.Version(),
			EvaluatedAt:    start,
		},
		Policy:     policy,
		Duplicates: duplicates,
		Degraded:   in.Degraded,
	}

	switch {
	case blocked:
		e.logger.InfoContext(ctx, "remediation skipped: near-identical record exists",
			"record_id", record.ID.String(), "duplicate_id", duplicates[0].CandidateID.String())
		if e.metrics != nil {
			e.metrics.IncrementBlocked()
		}
	case e.orchestrator == nil:
		result.Remediation = &models.RemediationResult{Skipped: SkipRemediationDisabled}
	default:
		result.Remediation = e.orchestrator.Run(ctx, remediation.Request{
			Record:        record,
			Policy:        policy,
			ApprovedEIPDs: in.ApprovedEIPDs,
		})
	}

	e.observe(ctx, result, start)
	return result, nil
}

func (e *Engine) scanDuplicates(ctx context.Context, record *models.TreatmentRecord, candidates []*models.TreatmentRecord) []models.DuplicateFinding {
	if !e.cfg.DuplicateCheckEnabled || len(candidates) == 0 {
		return nil
	}
	_, span := e.tracer.Start(ctx, tracer.SpanDuplicateScan)
	defer span.End(nil)

	own := candidates[:0:0]
	for _, c := range candidates {
		if c != nil && c.TenantID == record.TenantID {
			own = append(own, c)
		}
	}
	var findings []models.DuplicateFinding
	if e.cfg.StopScanOnBlock {
		findings = similarity.FindDuplicatesUntilBlock(record, own)
	} else {
		findings = similarity.FindDuplicates(record, own)
	}
	span.SetAttributes(tracer.Int(tracer.AttrCandidates, len(own)), tracer.Int(tracer.AttrFindings, len(findings)))
	return findings
}

func (e *Engine) observe(ctx context.Context, result *models.EvaluationResult, start time.Time) {
	ev := result.Evaluation
	attrs := []any{
		"record_id", ev.RecordID.String(),
		"tenant_id", ev.TenantID.String(),
		"score", ev.TotalScore,
		"tier", ev.Tier,
		"violations", len(result.Violations),
		"duplicates", len(result.Duplicates),
		"blocked", ev.Blocked,
	}
	if r := result.Remediation; r != nil {
		attrs = append(attrs, "applied", len(r.Applied), "failed", len(r.Failed))
	}
	e.logger.InfoContext(ctx, "record evaluated", attrs...)

	if e.metrics == nil {
		return
	}
	e.metrics.ObserveEvaluation(string(ev.Tier), ev.TotalScore, e.now().Sub(start))
	for _, v := range result.Violations {
		e.metrics.IncrementViolation(string(v.Kind))
	}
	for _, d := range result.Duplicates {
		e.metrics.IncrementDuplicate(string(d.Recommendation))
	}
}

// Scorer exposes the scorer for callers that need pure scoring only.
func (e *Engine) Scorer() *scoring.Scorer { return e.scorer }
