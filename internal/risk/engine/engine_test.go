package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custodia/internal/risk/consistency"
	"custodia/internal/risk/metrics"
	"custodia/internal/risk/models"
	"custodia/internal/risk/ports/mocks"
	"custodia/internal/risk/remediation"
	"custodia/internal/risk/safeguard"
	"custodia/internal/risk/scoring"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

type EngineSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	artifacts *mocks.MockArtifactStore
	tasks     *mocks.MockTaskStore
	notifier  *mocks.MockNotificationSink
	metrics   *metrics.Metrics
	now       time.Time
	tenantID  id.TenantID
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.artifacts = mocks.NewMockArtifactStore(s.ctrl)
	s.tasks = mocks.NewMockTaskStore(s.ctrl)
	s.notifier = mocks.NewMockNotificationSink(s.ctrl)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.tenantID = id.TenantID(uuid.New())
}

func (s *EngineSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EngineSuite) engine(opts ...Option) *Engine {
	clock := func() time.Time { return s.now }
	orchestrator := remediation.New(s.artifacts, s.tasks, s.notifier, remediation.WithClock(clock))
	opts = append([]Option{
		WithClock(clock),
		WithOrchestrator(orchestrator),
		WithMetrics(s.metrics),
	}, opts...)
	return New(scoring.MustNewScorer(scoring.DefaultWeights()), consistency.New(consistency.DefaultVocabulary()), opts...)
}

// scoringRecord scores 29: sensitive health data, scoring purpose, a
// transfer to Russia and half a million data subjects.
func (s *EngineSuite) scoringRecord() *models.TreatmentRecord {
	return &models.TreatmentRecord{
		ID:       id.RecordID(uuid.New()),
		TenantID: s.tenantID,
		ResponsibleParty: models.ResponsibleParty{
			Name:  "Financiera Andes SpA",
			TaxID: "76.123.456-7",
		},
		PurposeText:            "Evaluación de clientes mediante scoring automático",
		DataCategories:         models.DataCategories{Sensitive: []string{"salud"}},
		LegalBasis:             models.LegalBasisContract,
		InternationalTransfers: []models.Transfer{{Country: "RU"}},
		EstimatedVolume:        500_000,
	}
}

func (s *EngineSuite) lowRecord() *models.TreatmentRecord {
	return &models.TreatmentRecord{
		ID:             id.RecordID(uuid.New()),
		TenantID:       s.tenantID,
		PurposeText:    "Gestión de nómina del personal interno",
		DataCategories: models.DataCategories{Identification: []string{"nombre"}},
		LegalBasis:     models.LegalBasisLegalObligation,
	}
}

func twin(r *models.TreatmentRecord) *models.TreatmentRecord {
	c := *r
	c.ID = id.RecordID(uuid.New())
	return &c
}

func (s *EngineSuite) expectHighRemediation() {
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, a *models.ComplianceArtifact) (id.ArtifactID, error) { return a.ID, nil })
	s.tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, t *models.RemediationTask) (id.TaskID, error) { return t.ID, nil })
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n *models.Notification) (id.NotificationID, error) { return n.ID, nil })
}

func (s *EngineSuite) TestHighRecordIsScoredAndRemediated() {
	s.expectHighRemediation()
	record := s.scoringRecord()

	result, err := s.engine().Evaluate(context.Background(), Input{
		Record:        record,
		ApprovedEIPDs: []*models.ComplianceArtifact{},
	})
	s.Require().NoError(err)

	ev := result.Evaluation
	s.Equal(29, ev.TotalScore)
	s.Equal(models.TierHigh, ev.Tier)
	s.Equal(record.ID, ev.RecordID)
	s.Equal(s.tenantID, ev.TenantID)
	s.Equal(s.now, ev.EvaluatedAt)
	s.False(ev.Blocked)
	s.NotEmpty(ev.WeightsVersion)
	s.True(result.Policy.RequiresEIPD)

	s.Require().Len(result.Violations, 2)
	kinds := []models.ViolationKind{result.Violations[0].Kind, result.Violations[1].Kind}
	s.ElementsMatch([]models.ViolationKind{
		models.ViolationHealthDataRequiresSecurityMeasures,
		models.ViolationTransferRequiresSafeguard,
	}, kinds)

	s.Require().NotNil(result.Remediation)
	s.True(result.Remediation.Succeeded())
	s.Len(result.Remediation.Applied, 3)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.EvaluationsTotal.WithLabelValues("HIGH")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ViolationsTotal.WithLabelValues(string(models.ViolationTransferRequiresSafeguard))))
}

func (s *EngineSuite) TestBlockingDuplicateSkipsRemediation() {
	record := s.scoringRecord()
	dup := twin(record)

	result, err := s.engine().Evaluate(context.Background(), Input{
		Record:        record,
		TenantRecords: []*models.TreatmentRecord{record, dup},
	})
	s.Require().NoError(err)

	s.True(result.Evaluation.Blocked)
	s.Equal(models.TierHigh, result.Evaluation.Tier)
	s.Nil(result.Remediation)
	s.Require().Len(result.Duplicates, 1)
	s.Equal(dup.ID, result.Duplicates[0].CandidateID)
	s.Equal(models.RecommendationBlock, result.Duplicates[0].Recommendation)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.BlockedTotal))
}

func (s *EngineSuite) TestDuplicatesFromOtherTenantsAreIgnored() {
	s.expectHighRemediation()
	record := s.scoringRecord()
	foreign := twin(record)
	foreign.TenantID = id.TenantID(uuid.New())

	result, err := s.engine().Evaluate(context.Background(), Input{
		Record:        record,
		TenantRecords: []*models.TreatmentRecord{foreign},
		ApprovedEIPDs: []*models.ComplianceArtifact{},
	})
	s.Require().NoError(err)

	s.Empty(result.Duplicates)
	s.False(result.Evaluation.Blocked)
	s.NotNil(result.Remediation)
}

func (s *EngineSuite) TestDuplicateCheckDisabled() {
	s.expectHighRemediation()
	cfg := DefaultConfig()
	cfg.DuplicateCheckEnabled = false
	record := s.scoringRecord()

	result, err := s.engine(WithConfig(cfg)).Evaluate(context.Background(), Input{
		Record:        record,
		TenantRecords: []*models.TreatmentRecord{twin(record)},
		ApprovedEIPDs: []*models.ComplianceArtifact{},
	})
	s.Require().NoError(err)

	s.Empty(result.Duplicates)
	s.False(result.Evaluation.Blocked)
}

func (s *EngineSuite) TestFullScanReportsEveryFinding() {
	cfg := DefaultConfig()
	cfg.StopScanOnBlock = false
	record := s.scoringRecord()
	first, second := twin(record), twin(record)

	result, err := s.engine(WithConfig(cfg)).Evaluate(context.Background(), Input{
		Record:        record,
		TenantRecords: []*models.TreatmentRecord{first, second},
	})
	s.Require().NoError(err)

	s.Len(result.Duplicates, 2)
	s.True(result.Evaluation.Blocked)
}

func (s *EngineSuite) TestLowTierOnlyNotifies() {
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n *models.Notification) (id.NotificationID, error) { return n.ID, nil })

	result, err := s.engine().Evaluate(context.Background(), Input{Record: s.lowRecord()})
	s.Require().NoError(err)

	s.Contains([]models.Tier{models.TierMinimal, models.TierLow}, result.Evaluation.Tier)
	s.Require().NotNil(result.Remediation)
	s.Empty(result.Remediation.Skipped)
	s.Require().Len(result.Remediation.Applied, 1)
	s.Equal(models.StepNotification, result.Remediation.Applied[0].Step)
}

func (s *EngineSuite) TestCertifiedProviderLowersTransferScore() {
	s.expectHighRemediation()
	record := s.scoringRecord()
	record.InternationalTransfers = []models.Transfer{{Country: "USA", ProviderID: "aws"}}

	resolver := safeguard.NewResolver(safeguard.NewStatic("aws"))
	result, err := s.engine(WithResolver(resolver)).Evaluate(context.Background(), Input{
		Record:        record,
		ApprovedEIPDs: []*models.ComplianceArtifact{},
	})
	s.Require().NoError(err)

	s.Equal(3, result.Evaluation.Subscores.Transfers)
	s.Equal(24, result.Evaluation.TotalScore)
}

func (s *EngineSuite) TestRemediationFailureStillReturnsEvaluation() {
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).Return(id.ArtifactID{}, errors.New("store down"))
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(id.NotificationID{}, errors.New("broker down"))

	result, err := s.engine().Evaluate(context.Background(), Input{
		Record:        s.scoringRecord(),
		ApprovedEIPDs: []*models.ComplianceArtifact{},
	})
	s.Require().NoError(err)

	s.Equal(29, result.Evaluation.TotalScore)
	s.NotEmpty(result.Violations)
	s.Require().NotNil(result.Remediation)
	s.False(result.Remediation.Succeeded())
}

func (s *EngineSuite) TestDegradedInputsAreReported() {
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(id.NewNotificationID(), nil)
	result, err := s.engine().Evaluate(context.Background(), Input{
		Record:   s.lowRecord(),
		Degraded: []string{"tenant_records"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"tenant_records"}, result.Degraded)
}

func (s *EngineSuite) TestInvalidRecordIsRejected() {
	_, err := s.engine().Evaluate(context.Background(), Input{Record: &models.TreatmentRecord{}})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.engine().Evaluate(context.Background(), Input{})
	s.Require().Error(err)
}

func TestEvaluateWithoutOrchestrator(t *testing.T) {
	e := New(scoring.MustNewScorer(scoring.DefaultWeights()), consistency.New(consistency.DefaultVocabulary()))
	record := &models.TreatmentRecord{
		ID:          id.RecordID(uuid.New()),
		TenantID:    id.TenantID(uuid.New()),
		PurposeText: "Perfilamiento de clientes con biometría facial",
	}

	result, err := e.Evaluate(context.Background(), Input{Record: record})
	require.NoError(t, err)
	require.NotNil(t, result.Remediation)
	assert.Equal(t, SkipRemediationDisabled, result.Remediation.Skipped)
}

func TestNewPanicsOnMissingDependencies(t *testing.T) {
	assert.Panics(t, func() { New(nil, consistency.New(consistency.DefaultVocabulary())) })
	assert.Panics(t, func() { New(scoring.MustNewScorer(scoring.DefaultWeights()), nil) })
}

func TestEffectiveReuseThreshold(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.ReuseThreshold, cfg.EffectiveReuseThreshold())
	cfg.ReuseEnabled = false
	assert.Negative(t, cfg.EffectiveReuseThreshold())
}
