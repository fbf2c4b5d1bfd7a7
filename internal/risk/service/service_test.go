package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custodia/internal/risk/consistency"
	"custodia/internal/risk/engine"
	"custodia/internal/risk/metrics"
	"custodia/internal/risk/models"
	"custodia/internal/risk/notify"
	"custodia/internal/risk/ports/mocks"
	"custodia/internal/risk/remediation"
	"custodia/internal/risk/scoring"
	"custodia/internal/risk/store/memory"
	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	fixtures "custodia/pkg/testutil"
)

var errStoreDown = errors.New("connection reset")

type ServiceSuite struct {
	suite.Suite
	records     *memory.Records
	artifacts   *memory.Artifacts
	tasks       *memory.Tasks
	evaluations *memory.Evaluations
	claims      *memory.Claims
	notifier    *notify.Memory
	metrics     *metrics.Metrics
	now         time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.records = memory.NewRecords()
	s.artifacts = memory.NewArtifacts()
	s.tasks = memory.NewTasks()
	s.evaluations = memory.NewEvaluations()
	s.claims = memory.NewClaims()
	s.notifier = notify.NewMemory()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) newEngine(artifacts *memory.Artifacts) *engine.Engine {
	clock := func() time.Time { return s.now }
	orchestrator := remediation.New(artifacts, s.tasks, s.notifier,
		remediation.WithClaims(s.claims),
		remediation.WithClock(clock),
	)
	return engine.New(
		scoring.MustNewScorer(scoring.DefaultWeights()),
		consistency.New(consistency.DefaultVocabulary()),
		engine.WithOrchestrator(orchestrator),
		engine.WithClock(clock),
	)
}

func (s *ServiceSuite) service(opts ...Option) *Service {
	opts = append([]Option{WithClaims(s.claims), WithMetrics(s.metrics)}, opts...)
	return New(s.newEngine(s.artifacts), s.records, s.artifacts, s.evaluations, opts...)
}

func (s *ServiceSuite) save(records ...*models.TreatmentRecord) {
	for _, r := range records {
		s.Require().NoError(s.records.SaveRecord(context.Background(), r))
	}
}

func (s *ServiceSuite) TestEvaluateRecordRemediatesAndRecordsHistory() {
	ctx := context.Background()
	record := fixtures.NewRecordBuilder().HighRisk().Build()
	s.save(record)

	result, err := s.service().EvaluateRecord(ctx, record.TenantID, record.ID)
	s.Require().NoError(err)

	s.Equal(models.TierHigh, result.Evaluation.Tier)
	s.Empty(result.Degraded)
	s.Require().NotNil(result.Remediation)
	s.True(result.Remediation.Succeeded())
	s.Len(s.artifacts.All(record.ID), 1)
	s.Len(s.tasks.ForRecord(record.ID), 1)
	s.Len(s.notifier.Sent(), 1)

	history, err := s.service().History(ctx, record.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(result.Evaluation.ID, history[0].ID)
}

func (s *ServiceSuite) TestReevaluationAppendsHistoryWithoutDuplicatingRemediation() {
	ctx := context.Background()
	record := fixtures.NewRecordBuilder().HighRisk().Build()
	s.save(record)
	svc := s.service()

	_, err := svc.EvaluateRecord(ctx, record.TenantID, record.ID)
	s.Require().NoError(err)
	second, err := svc.EvaluateRecord(ctx, record.TenantID, record.ID)
	s.Require().NoError(err)

	s.Equal(remediation.SkipAlreadyClaimed, second.Remediation.Skipped)
	s.Len(s.artifacts.All(record.ID), 1)

	history, err := svc.History(ctx, record.ID)
	s.Require().NoError(err)
	s.Len(history, 2)
}

func (s *ServiceSuite) TestReleaseAllowsRemediationAgain() {
	ctx := context.Background()
	record := fixtures.NewRecordBuilder().HighRisk().Build()
	s.save(record)
	svc := s.service()

	_, err := svc.EvaluateRecord(ctx, record.TenantID, record.ID)
	s.Require().NoError(err)
	s.Require().NoError(svc.ReleaseRemediation(ctx, record.ID, models.TierHigh))

	again, err := svc.EvaluateRecord(ctx, record.TenantID, record.ID)
	s.Require().NoError(err)
	s.Empty(again.Remediation.Skipped)
	s.Len(s.artifacts.All(record.ID), 2)

	err = svc.ReleaseRemediation(ctx, record.ID, models.TierCritical)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDuplicateOfStoredRecordBlocksRemediation() {
	ctx := context.Background()
	original := fixtures.NewRecordBuilder().HighRisk().Build()
	s.save(original)
	copyOf := fixtures.NewRecordBuilder().HighRisk().Build()

	result, err := s.service().Evaluate(ctx, copyOf)
	s.Require().NoError(err)

	s.True(result.Evaluation.Blocked)
	s.Nil(result.Remediation)
	s.Require().NotEmpty(result.Duplicates)
	s.Equal(original.ID, result.Duplicates[0].CandidateID)
	s.Empty(s.notifier.Sent())
}

func (s *ServiceSuite) TestApprovedEIPDIsReused() {
	ctx := context.Background()
	sibling := fixtures.NewRecordBuilder().HighRisk().
		WithResponsible("Otra Empresa Ltda", "99.888.777-6").
		Build()
	s.Require().NoError(s.artifacts.SaveArtifact(ctx, fixtures.ApprovedEIPD(sibling)))
	record := fixtures.NewRecordBuilder().HighRisk().Build()
	s.save(record)

	result, err := s.service().EvaluateRecord(ctx, record.TenantID, record.ID)
	s.Require().NoError(err)

	links := result.Remediation.ArtifactLinks(models.ArtifactEIPD)
	s.Require().Len(links, 1)
	s.Equal(models.CreatedViaReused, links[0].CreatedVia)
	s.Empty(s.tasks.ForRecord(record.ID), "a reused EIPD needs no completion task")
}

func (s *ServiceSuite) TestOtherTenantsRecordIsNotFound() {
	record := fixtures.NewRecordBuilder().Build()
	s.save(record)

	_, foreign := s.service().EvaluateRecord(context.Background(), fixtures.TestIDs.TenantID2, record.ID)
	s.True(dErrors.HasCode(foreign, dErrors.CodeNotFound))

	_, missing := s.service().EvaluateRecord(context.Background(), record.TenantID, id.RecordID(uuid.New()))
	s.True(dErrors.HasCode(missing, dErrors.CodeNotFound))
	s.EqualError(missing, "load treatment record: not found")
	s.Equal(missing.Error(), foreign.Error(), "another tenant's record must look missing")
}

func (s *ServiceSuite) TestInvalidRecordRejected() {
	_, err := s.service().Evaluate(context.Background(), &models.TreatmentRecord{TenantID: fixtures.TestIDs.TenantID1})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestReleaseWithoutClaimStore() {
	svc := New(s.newEngine(s.artifacts), s.records, s.artifacts, s.evaluations)
	err := svc.ReleaseRemediation(context.Background(), fixtures.TestIDs.RecordID1, models.TierHigh)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// Failure paths use mocked stores.
type ServiceFailureSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	records     *mocks.MockRecordStore
	artifacts   *mocks.MockArtifactStore
	evaluations *mocks.MockEvaluationStore
	metrics     *metrics.Metrics
	record      *models.TreatmentRecord
}

func TestServiceFailureSuite(t *testing.T) {
	suite.Run(t, new(ServiceFailureSuite))
}

func (s *ServiceFailureSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.records = mocks.NewMockRecordStore(s.ctrl)
	s.artifacts = mocks.NewMockArtifactStore(s.ctrl)
	s.evaluations = mocks.NewMockEvaluationStore(s.ctrl)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.record = fixtures.NewRecordBuilder().Build()
}

func (s *ServiceFailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceFailureSuite) service() *Service {
	eng := engine.New(scoring.MustNewScorer(scoring.DefaultWeights()), consistency.New(consistency.DefaultVocabulary()))
	return New(eng, s.records, s.artifacts, s.evaluations, WithMetrics(s.metrics))
}

func (s *ServiceFailureSuite) TestLoadFailuresDegradeButStillEvaluate() {
	s.records.EXPECT().GetRecord(gomock.Any(), s.record.ID).Return(s.record, nil)
	s.records.EXPECT().ListRecords(gomock.Any(), s.record.TenantID).Return(nil, errStoreDown)
	s.artifacts.EXPECT().ListApprovedArtifacts(gomock.Any(), s.record.TenantID, models.ArtifactEIPD).Return(nil, errStoreDown)
	s.evaluations.EXPECT().AppendEvaluation(gomock.Any(), gomock.Any()).Return(errStoreDown)

	result, err := s.service().EvaluateRecord(context.Background(), s.record.TenantID, s.record.ID)
	s.Require().NoError(err)

	s.Equal(models.TierMinimal, result.Evaluation.Tier)
	s.ElementsMatch([]string{DegradedTenantRecords, DegradedApprovedEIPDs, DegradedHistory}, result.Degraded)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.DegradedLoadsTotal.WithLabelValues(DegradedTenantRecords)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.DegradedLoadsTotal.WithLabelValues(DegradedHistory)))
}

func (s *ServiceFailureSuite) TestRecordStoreOutage() {
	s.records.EXPECT().GetRecord(gomock.Any(), s.record.ID).Return(nil, sentinel.ErrUnavailable)

	_, err := s.service().EvaluateRecord(context.Background(), s.record.TenantID, s.record.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func (s *ServiceFailureSuite) TestHistoryFailure() {
	s.evaluations.EXPECT().ListEvaluations(gomock.Any(), s.record.ID).Return(nil, errStoreDown)

	_, err := s.service().History(context.Background(), s.record.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceFailureSuite) TestHistoryNotFoundNamesTheHistory() {
	s.evaluations.EXPECT().ListEvaluations(gomock.Any(), s.record.ID).Return(nil, sentinel.ErrNotFound)

	_, err := s.service().History(context.Background(), s.record.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.EqualError(err, "load evaluation history: not found")
}

func TestNewPanicsOnMissingDependencies(t *testing.T) {
	eng := engine.New(scoring.MustNewScorer(scoring.DefaultWeights()), consistency.New(consistency.DefaultVocabulary()))
	r, a, e := memory.NewRecords(), memory.NewArtifacts(), memory.NewEvaluations()
	assert.Panics(t, func() { New(nil, r, a, e) })
	assert.Panics(t, func() { New(eng, nil, a, e) })
	assert.Panics(t, func() { New(eng, r, nil, e) })
	assert.Panics(t, func() { New(eng, r, a, nil) })
}
