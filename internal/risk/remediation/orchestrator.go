// Package remediation drives the artifacts, tasks and notifications a tier's
// policy requires. Steps run in a fixed order and keep going past failures;
// committed effects are never rolled back.
package remediation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"custodia/internal/risk/classify"
	"custodia/internal/risk/metrics"
	"custodia/internal/risk/models"
	"custodia/internal/risk/ports"
	"custodia/internal/risk/similarity"
	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
	"custodia/pkg/platform/tracer"
)

// SkipAlreadyClaimed is reported in RemediationResult.Skipped when an earlier
// run already holds the (record, tier) claim.
const SkipAlreadyClaimed = "remediation already active for record and tier"

// Orchestrator performs remediation effects against external stores.
type Orchestrator struct {
	artifacts ports.ArtifactStore
	tasks     ports.TaskStore
	notifier  ports.NotificationSink
	locker    ports.Locker
	claims    ports.ClaimStore

	reuse          bool
	reuseThreshold float64
	now            func() time.Time

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLocker serializes runs per record.
func WithLocker(l ports.Locker) Option {
	return func(o *Orchestrator) { o.locker = l }
}

// WithClaims makes runs idempotent per record and tier.
func WithClaims(c ports.ClaimStore) Option {
	return func(o *Orchestrator) { o.claims = c }
}

// WithReuseThreshold sets the relevance an approved EIPD must exceed to be
// reused. A negative threshold disables reuse.
func WithReuseThreshold(t float64) Option {
	return func(o *Orchestrator) {
		o.reuse = t >= 0
		o.reuseThreshold = t
	}
}

// WithClock overrides time.Now for due dates and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// New creates an orchestrator. Panics if a required store is nil.
func New(artifacts ports.ArtifactStore, tasks ports.TaskStore, notifier ports.NotificationSink, opts ...Option) *Orchestrator {
	if artifacts == nil {
		panic("remediation.New: artifact store is required")
	}
	if tasks == nil {
		panic("remediation.New: task store is required")
	}
	if notifier == nil {
		panic("remediation.New: notification sink is required")
	}
	o := &Orchestrator{
		artifacts:      artifacts,
		tasks:          tasks,
		notifier:       notifier,
		reuse:          true,
		reuseThreshold: similarity.DefaultReuseThreshold,
		now:            time.Now,
		tracer:         tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Request is one remediation run. ApprovedEIPDs are the tenant's reuse
// candidates; when nil and reuse is enabled they are listed from the store.
type Request struct {
	Record        *models.TreatmentRecord
	Policy        models.Policy
	ApprovedEIPDs []*models.ComplianceArtifact
}

// Run executes the remediation steps for req. It never returns an error:
// every failure is reported in the result. The compliance notification is
// sent at every tier; the artifact and consultation steps follow the policy.
func (o *Orchestrator) Run(ctx context.Context, req Request) *models.RemediationResult {
	result := &models.RemediationResult{}
	record := req.Record
	ctx, span := o.tracer.Start(ctx, tracer.SpanRemediate,
		tracer.String(tracer.AttrRecordID, record.ID.String()),
		tracer.String(tracer.AttrTier, string(req.Policy.Tier)),
	)
	defer func() {
		span.SetAttributes(tracer.Int(tracer.AttrFailedSteps, len(result.Failed)))
		span.End(nil)
	}()

	if o.locker != nil {
		release, err := o.locker.Acquire(ctx, record.ID)
		if err != nil {
			o.fail(ctx, result, record.TenantID, record.ID, models.StepAcquireLock, err)
			return result
		}
		defer release()
	}

	if o.claims != nil {
		err := o.claims.Claim(ctx, record.ID, req.Policy.Tier)
		switch {
		case errors.Is(err, sentinel.ErrAlreadyExists):
			result.Skipped = SkipAlreadyClaimed
			if o.metrics != nil {
				o.metrics.IncrementRemediationSkipped("already_claimed")
			}
			o.logger.InfoContext(ctx, "remediation already active",
				"record_id", record.ID.String(), "tier", req.Policy.Tier)
			return result
		case err != nil:
			o.fail(ctx, result, record.TenantID, record.ID, models.StepClaim, err)
			return result
		}
		defer o.releaseIfNothingApplied(ctx, result, record, req.Policy.Tier)
	}

	o.runSteps(ctx, result, req)
	return result
}

func (o *Orchestrator) runSteps(ctx context.Context, result *models.RemediationResult, req Request) {
	record, policy := req.Record, req.Policy
	now := o.now()

	if policy.RequiresEIPD {
		eipd, ok := o.linkEIPD(ctx, result, req, now)
		if ok && eipd.CreatedVia == models.CreatedViaNew {
			o.createTask(ctx, result, models.StepEIPDTask, o.artifactTask(record, policy, eipd, models.TaskCompleteEIPD, now))
		}
	}

	o.sendNotification(ctx, result, record, policy, now)

	if policy.RequiresDPIA {
		dpia := o.newArtifact(record, models.ArtifactDPIA, now)
		if o.createArtifact(ctx, result, models.StepDPIA, dpia) {
			o.createTask(ctx, result, models.StepDPIATask, o.artifactTask(record, policy, dpia, models.TaskCompleteDPIA, now))
		}
	}

	if policy.RequiresPriorConsultation {
		o.createTask(ctx, result, models.StepPriorConsultation, &models.RemediationTask{
			ID:        id.NewTaskID(),
			TenantID:  record.TenantID,
			RecordID:  record.ID,
			Kind:      models.TaskPriorConsultation,
			Priority:  models.PriorityCritical,
			Severity:  models.SeverityHigh,
			DueDate:   now.AddDate(0, 0, classify.PriorConsultationDeadlineDays),
			Status:    models.TaskOpen,
			CreatedAt: now,
		})
	}
}

// linkEIPD reuses an approved EIPD when one is relevant enough, otherwise
// drafts a new one.
func (o *Orchestrator) linkEIPD(ctx context.Context, result *models.RemediationResult, req Request, now time.Time) (*models.ComplianceArtifact, bool) {
	record := req.Record
	if o.reuse {
		candidates := req.ApprovedEIPDs
		if candidates == nil {
			listed, err := o.artifacts.ListApprovedArtifacts(ctx, record.TenantID, models.ArtifactEIPD)
			if err != nil {
				o.logger.WarnContext(ctx, "listing approved EIPDs failed; drafting a new one",
					"record_id", record.ID.String(), "error", err)
			}
			candidates = listed
		}
		if source, score, ok := similarity.BestReuse(record, candidates, models.ArtifactEIPD, o.reuseThreshold); ok {
			link := o.newArtifact(record, models.ArtifactEIPD, now)
			link.Status = source.Status
			link.CreatedVia = models.CreatedViaReused
			sourceID := source.ID
			link.SourceArtifactID = &sourceID
			o.logger.InfoContext(ctx, "reusing approved EIPD",
				"record_id", record.ID.String(), "source_artifact_id", source.ID.String(), "relevance", score)
			return link, o.createArtifact(ctx, result, models.StepEIPD, link)
		}
	}
	draft := o.newArtifact(record, models.ArtifactEIPD, now)
	return draft, o.createArtifact(ctx, result, models.StepEIPD, draft)
}

func (o *Orchestrator) newArtifact(record *models.TreatmentRecord, t models.ArtifactType, now time.Time) *models.ComplianceArtifact {
	return &models.ComplianceArtifact{
		ID:         id.NewArtifactID(),
		TenantID:   record.TenantID,
		RecordID:   record.ID,
		Type:       t,
		Status:     models.ArtifactDraft,
		CreatedVia: models.CreatedViaNew,
		Scope: models.ArtifactScope{
			PurposeText: record.PurposeText,
			Categories:  record.DataCategories,
		},
		CreatedAt: now,
	}
}

func (o *Orchestrator) artifactTask(record *models.TreatmentRecord, policy models.Policy, artifact *models.ComplianceArtifact, kind models.TaskKind, now time.Time) *models.RemediationTask {
	priority := models.PriorityHigh
	if policy.Tier == models.TierCritical {
		priority = models.PriorityCritical
	}
	artifactID := artifact.ID
	return &models.RemediationTask{
		ID:         id.NewTaskID(),
		TenantID:   record.TenantID,
		RecordID:   record.ID,
		ArtifactID: &artifactID,
		Kind:       kind,
		Priority:   priority,
		Severity:   models.SeverityNormal,
		DueDate:    now.AddDate(0, 0, policy.TaskDeadlineDays),
		Status:     models.TaskOpen,
		CreatedAt:  now,
	}
}

func (o *Orchestrator) createArtifact(ctx context.Context, result *models.RemediationResult, step models.RemediationStep, artifact *models.ComplianceArtifact) bool {
	stored, err := o.artifacts.CreateArtifact(ctx, artifact)
	if err != nil {
		o.fail(ctx, result, artifact.TenantID, artifact.RecordID, step, err)
		return false
	}
	if !stored.IsNil() {
		artifact.ID = stored
	}
	o.apply(ctx, result, models.AppliedAction{
		Step:       step,
		EntityID:   artifact.ID.String(),
		Artifact:   artifact,
		CreatedVia: artifact.CreatedVia,
	})
	return true
}

func (o *Orchestrator) createTask(ctx context.Context, result *models.RemediationResult, step models.RemediationStep, task *models.RemediationTask) {
	stored, err := o.tasks.CreateTask(ctx, task)
	if err != nil {
		o.fail(ctx, result, task.TenantID, task.RecordID, step, err)
		return
	}
	if !stored.IsNil() {
		task.ID = stored
	}
	o.apply(ctx, result, models.AppliedAction{Step: step, EntityID: task.ID.String(), Task: task})
}

func (o *Orchestrator) sendNotification(ctx context.Context, result *models.RemediationResult, record *models.TreatmentRecord, policy models.Policy, now time.Time) {
	n := &models.Notification{
		ID:        id.NewNotificationID(),
		TenantID:  record.TenantID,
		RecordID:  record.ID,
		Recipient: models.RecipientComplianceReview,
		Tier:      policy.Tier,
		Subject:   fmt.Sprintf("Treatment record %s classified %s", record.ID, policy.Tier),
		Body:      notificationBody(record, policy),
		CreatedAt: now,
	}
	stored, err := o.notifier.Send(ctx, n)
	if err != nil {
		o.fail(ctx, result, record.TenantID, record.ID, models.StepNotification, err)
		return
	}
	if !stored.IsNil() {
		n.ID = stored
	}
	o.apply(ctx, result, models.AppliedAction{Step: models.StepNotification, EntityID: n.ID.String(), Notice: n})
}

func (o *Orchestrator) apply(ctx context.Context, result *models.RemediationResult, action models.AppliedAction) {
	result.Applied = append(result.Applied, action)
	if o.metrics != nil {
		o.metrics.ObserveStep(string(action.Step), metrics.OutcomeApplied)
	}
	o.logger.DebugContext(ctx, "remediation step applied", "step", action.Step, "entity_id", action.EntityID)
}

func (o *Orchestrator) fail(ctx context.Context, result *models.RemediationResult, tenantID id.TenantID, recordID id.RecordID, step models.RemediationStep, err error) {
	result.Failed = append(result.Failed, models.FailedAction{Step: step, Reason: err.Error()})
	if o.metrics != nil {
		o.metrics.ObserveStep(string(step), metrics.OutcomeFailed)
	}
	o.logger.WarnContext(ctx, "remediation step failed",
		"step", step,
		"record_id", recordID.String(),
		"tenant_id", tenantID.String(),
		"error", err,
	)
}

// releaseIfNothingApplied frees the claim of a run that committed nothing,
// so a retry is not mistaken for a duplicate run.
func (o *Orchestrator) releaseIfNothingApplied(ctx context.Context, result *models.RemediationResult, record *models.TreatmentRecord, tier models.Tier) {
	if len(result.Applied) > 0 {
		return
	}
	if err := o.claims.Release(context.WithoutCancel(ctx), record.ID, tier); err != nil {
		o.logger.WarnContext(ctx, "releasing remediation claim failed",
			"record_id", record.ID.String(), "tier", tier, "error", err)
	}
}
