package remediation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"custodia/internal/risk/classify"
	"custodia/internal/risk/models"
	"custodia/internal/risk/ports/mocks"
	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
)

var errStoreDown = errors.New("store unavailable")

type OrchestratorSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	artifacts *mocks.MockArtifactStore
	tasks     *mocks.MockTaskStore
	notifier  *mocks.MockNotificationSink
	locker    *mocks.MockLocker
	claims    *mocks.MockClaimStore
	now       time.Time
	record    *models.TreatmentRecord
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.artifacts = mocks.NewMockArtifactStore(s.ctrl)
	s.tasks = mocks.NewMockTaskStore(s.ctrl)
	s.notifier = mocks.NewMockNotificationSink(s.ctrl)
	s.locker = mocks.NewMockLocker(s.ctrl)
	s.claims = mocks.NewMockClaimStore(s.ctrl)
	s.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.record = &models.TreatmentRecord{
		ID:          id.RecordID(uuid.New()),
		TenantID:    id.TenantID(uuid.New()),
		PurposeText: "Evaluación crediticia mediante scoring automático",
		DataCategories: models.DataCategories{
			Identification: []string{"rut", "nombre"},
			Sensitive:      []string{"salud"},
		},
	}
}

func (s *OrchestratorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *OrchestratorSuite) orchestrator(opts ...Option) *Orchestrator {
	opts = append([]Option{WithClock(func() time.Time { return s.now })}, opts...)
	return New(s.artifacts, s.tasks, s.notifier, opts...)
}

func (s *OrchestratorSuite) request(tier models.Tier) Request {
	return Request{Record: s.record, Policy: classify.PolicyFor(tier), ApprovedEIPDs: []*models.ComplianceArtifact{}}
}

func acceptArtifact(_ context.Context, a *models.ComplianceArtifact) (id.ArtifactID, error) {
	return a.ID, nil
}

func acceptTask(_ context.Context, t *models.RemediationTask) (id.TaskID, error) {
	return t.ID, nil
}

func acceptNotification(_ context.Context, n *models.Notification) (id.NotificationID, error) {
	return n.ID, nil
}

func steps(actions []models.AppliedAction) []models.RemediationStep {
	out := make([]models.RemediationStep, len(actions))
	for i, a := range actions {
		out[i] = a.Step
	}
	return out
}

func failedSteps(actions []models.FailedAction) []models.RemediationStep {
	out := make([]models.RemediationStep, len(actions))
	for i, a := range actions {
		out[i] = a.Step
	}
	return out
}

func (s *OrchestratorSuite) TestHighTierCreatesEIPDTaskAndNotification() {
	var task *models.RemediationTask
	var notice *models.Notification
	gomock.InOrder(
		s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).DoAndReturn(acceptArtifact),
		s.tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, t *models.RemediationTask) (id.TaskID, error) {
				task = t
				return t.ID, nil
			}),
		s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, n *models.Notification) (id.NotificationID, error) {
				notice = n
				return n.ID, nil
			}),
	)

	result := s.orchestrator().Run(context.Background(), s.request(models.TierHigh))

	s.True(result.Succeeded())
	s.Equal([]models.RemediationStep{models.StepEIPD, models.StepEIPDTask, models.StepNotification}, steps(result.Applied))

	eipd := result.ArtifactLinks(models.ArtifactEIPD)
	s.Require().Len(eipd, 1)
	s.Equal(models.ArtifactDraft, eipd[0].Status)
	s.Equal(models.CreatedViaNew, eipd[0].CreatedVia)
	s.Equal(s.record.PurposeText, eipd[0].Scope.PurposeText)

	s.Require().NotNil(task)
	s.Equal(models.PriorityHigh, task.Priority)
	s.Equal(models.TaskCompleteEIPD, task.Kind)
	s.Equal(s.now.AddDate(0, 0, 15), task.DueDate)
	s.Equal(eipd[0].ID, *task.ArtifactID)

	s.Require().NotNil(notice)
	s.Equal(models.RecipientComplianceReview, notice.Recipient)
	s.Equal(models.TierHigh, notice.Tier)
	s.Contains(notice.Body, "EIPD")
}

func (s *OrchestratorSuite) TestCriticalTierRunsEveryStep() {
	var tasks []*models.RemediationTask
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).DoAndReturn(acceptArtifact).Times(2)
	s.tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, t *models.RemediationTask) (id.TaskID, error) {
			tasks = append(tasks, t)
			return t.ID, nil
		}).Times(3)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(acceptNotification)

	result := s.orchestrator().Run(context.Background(), s.request(models.TierCritical))

	s.True(result.Succeeded())
	s.Equal([]models.RemediationStep{
		models.StepEIPD,
		models.StepEIPDTask,
		models.StepNotification,
		models.StepDPIA,
		models.StepDPIATask,
		models.StepPriorConsultation,
	}, steps(result.Applied))
	s.Len(result.ArtifactLinks(models.ArtifactEIPD), 1)
	s.Len(result.ArtifactLinks(models.ArtifactDPIA), 1)

	s.Require().Len(tasks, 3)
	for _, t := range tasks[:2] {
		s.Equal(models.PriorityCritical, t.Priority)
		s.Equal(s.now.AddDate(0, 0, 10), t.DueDate)
	}
	alert := tasks[2]
	s.Equal(models.TaskPriorConsultation, alert.Kind)
	s.Equal(models.SeverityHigh, alert.Severity)
	s.Equal(s.now.AddDate(0, 0, 5), alert.DueDate)
	s.Nil(alert.ArtifactID)
}

func (s *OrchestratorSuite) TestTaskFailureKeepsArtifact() {
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).DoAndReturn(acceptArtifact)
	s.tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).Return(id.TaskID{}, errStoreDown)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(acceptNotification)

	result := s.orchestrator().Run(context.Background(), s.request(models.TierHigh))

	s.False(result.Succeeded())
	s.Equal([]models.RemediationStep{models.StepEIPD, models.StepNotification}, steps(result.Applied))
	s.Require().Len(result.Failed, 1)
	s.Equal(models.StepEIPDTask, result.Failed[0].Step)
	s.Contains(result.Failed[0].Reason, "store unavailable")
	s.Len(result.ArtifactLinks(models.ArtifactEIPD), 1)
}

func (s *OrchestratorSuite) TestArtifactFailureSkipsItsTaskButNotLaterSteps() {
	gomock.InOrder(
		s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).Return(id.ArtifactID{}, errStoreDown),
		s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(id.NotificationID{}, errStoreDown),
		s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).DoAndReturn(acceptArtifact),
	)
	s.tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).DoAndReturn(acceptTask).Times(2)

	result := s.orchestrator().Run(context.Background(), s.request(models.TierCritical))

	s.Equal([]models.RemediationStep{models.StepEIPD, models.StepNotification}, failedSteps(result.Failed))
	s.Equal([]models.RemediationStep{models.StepDPIA, models.StepDPIATask, models.StepPriorConsultation}, steps(result.Applied))
}

func (s *OrchestratorSuite) TestEveryStepFailing() {
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).Return(id.ArtifactID{}, errStoreDown).Times(2)
	s.tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).Return(id.TaskID{}, errStoreDown)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(id.NotificationID{}, errStoreDown)

	result := s.orchestrator().Run(context.Background(), s.request(models.TierCritical))

	s.Empty(result.Applied)
	s.Equal([]models.RemediationStep{
		models.StepEIPD,
		models.StepNotification,
		models.StepDPIA,
		models.StepPriorConsultation,
	}, failedSteps(result.Failed))
}

func (s *OrchestratorSuite) TestReusesApprovedEIPD() {
	source := &models.ComplianceArtifact{
		ID:       id.NewArtifactID(),
		TenantID: s.record.TenantID,
		RecordID: id.RecordID(uuid.New()),
		Type:     models.ArtifactEIPD,
		Status:   models.ArtifactApproved,
		Scope: models.ArtifactScope{
			PurposeText: s.record.PurposeText,
			Categories:  s.record.DataCategories,
		},
	}
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).DoAndReturn(acceptArtifact)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(acceptNotification)

	req := s.request(models.TierHigh)
	req.ApprovedEIPDs = []*models.ComplianceArtifact{source}
	result := s.orchestrator().Run(context.Background(), req)

	s.True(result.Succeeded())
	s.Equal([]models.RemediationStep{models.StepEIPD, models.StepNotification}, steps(result.Applied), "reused artifacts get no task")
	link := result.Applied[0].Artifact
	s.Equal(models.CreatedViaReused, link.CreatedVia)
	s.Equal(models.ArtifactApproved, link.Status)
	s.Require().NotNil(link.SourceArtifactID)
	s.Equal(source.ID, *link.SourceArtifactID)
	s.Equal(s.record.ID, link.RecordID)
}

func (s *OrchestratorSuite) TestReuseLinksToTheOriginalAssessment() {
	scope := models.ArtifactScope{PurposeText: s.record.PurposeText, Categories: s.record.DataCategories}
	original := &models.ComplianceArtifact{
		ID:         id.NewArtifactID(),
		TenantID:   s.record.TenantID,
		RecordID:   id.RecordID(uuid.New()),
		Type:       models.ArtifactEIPD,
		Status:     models.ArtifactApproved,
		CreatedVia: models.CreatedViaNew,
		Scope:      scope,
	}
	originalID := original.ID
	earlierLink := &models.ComplianceArtifact{
		ID:               id.NewArtifactID(),
		TenantID:         s.record.TenantID,
		RecordID:         id.RecordID(uuid.New()),
		Type:             models.ArtifactEIPD,
		Status:           models.ArtifactApproved,
		CreatedVia:       models.CreatedViaReused,
		SourceArtifactID: &originalID,
		Scope:            scope,
	}
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).DoAndReturn(acceptArtifact)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(acceptNotification)

	req := s.request(models.TierHigh)
	req.ApprovedEIPDs = []*models.ComplianceArtifact{earlierLink, original}
	result := s.orchestrator().Run(context.Background(), req)

	link := result.Applied[0].Artifact
	s.Equal(models.CreatedViaReused, link.CreatedVia)
	s.Require().NotNil(link.SourceArtifactID)
	s.Equal(original.ID, *link.SourceArtifactID)
}

func (s *OrchestratorSuite) TestReuseDisabledAlwaysDrafts() {
	source := &models.ComplianceArtifact{
		ID:       id.NewArtifactID(),
		TenantID: s.record.TenantID,
		Type:     models.ArtifactEIPD,
		Status:   models.ArtifactApproved,
		Scope:    models.ArtifactScope{PurposeText: s.record.PurposeText, Categories: s.record.DataCategories},
	}
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).DoAndReturn(acceptArtifact)
	s.tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).DoAndReturn(acceptTask)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(acceptNotification)

	req := s.request(models.TierHigh)
	req.ApprovedEIPDs = []*models.ComplianceArtifact{source}
	result := s.orchestrator(WithReuseThreshold(-1)).Run(context.Background(), req)

	s.Equal(models.CreatedViaNew, result.Applied[0].CreatedVia)
}

func (s *OrchestratorSuite) TestListsCandidatesWhenNotProvided() {
	s.artifacts.EXPECT().ListApprovedArtifacts(gomock.Any(), s.record.TenantID, models.ArtifactEIPD).Return(nil, errStoreDown)
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).DoAndReturn(acceptArtifact)
	s.tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).DoAndReturn(acceptTask)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(acceptNotification)

	req := s.request(models.TierHigh)
	req.ApprovedEIPDs = nil
	result := s.orchestrator().Run(context.Background(), req)

	s.True(result.Succeeded(), "a failed candidate listing falls back to drafting")
	s.Equal(models.CreatedViaNew, result.Applied[0].CreatedVia)
}

func (s *OrchestratorSuite) TestLowerTiersOnlyNotify() {
	for _, tier := range []models.Tier{models.TierMinimal, models.TierLow, models.TierMedium} {
		s.Run(string(tier), func() {
			var sent *models.Notification
			s.locker.EXPECT().Acquire(gomock.Any(), s.record.ID).Return(func() {}, nil)
			s.claims.EXPECT().Claim(gomock.Any(), s.record.ID, tier).Return(nil)
			s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, n *models.Notification) (id.NotificationID, error) {
					sent = n
					return acceptNotification(ctx, n)
				})

			result := s.orchestrator(WithLocker(s.locker), WithClaims(s.claims)).Run(context.Background(), s.request(tier))

			s.True(result.Succeeded())
			s.Empty(result.Skipped)
			s.Equal([]models.RemediationStep{models.StepNotification}, steps(result.Applied))
			s.Require().NotNil(sent)
			s.Equal(tier, sent.Tier)
			s.Contains(sent.Body, "No remediation is required.")
		})
	}
}

func (s *OrchestratorSuite) TestMediumNotificationCarriesDeadline() {
	var sent *models.Notification
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, n *models.Notification) (id.NotificationID, error) {
			sent = n
			return acceptNotification(ctx, n)
		})

	result := s.orchestrator().Run(context.Background(), s.request(models.TierMedium))

	s.Len(result.Applied, 1)
	s.Require().NotNil(sent)
	s.Contains(sent.Body, "Deadline: 30 days.")
}

func (s *OrchestratorSuite) TestLockFailureSkipsEffects() {
	s.locker.EXPECT().Acquire(gomock.Any(), s.record.ID).Return(nil, sentinel.ErrLockHeld)

	result := s.orchestrator(WithLocker(s.locker), WithClaims(s.claims)).Run(context.Background(), s.request(models.TierHigh))

	s.Empty(result.Applied)
	s.Equal([]models.RemediationStep{models.StepAcquireLock}, failedSteps(result.Failed))
}

func (s *OrchestratorSuite) TestExistingClaimMakesRunANoop() {
	released := false
	s.locker.EXPECT().Acquire(gomock.Any(), s.record.ID).Return(func() { released = true }, nil)
	s.claims.EXPECT().Claim(gomock.Any(), s.record.ID, models.TierHigh).Return(sentinel.ErrAlreadyExists)

	result := s.orchestrator(WithLocker(s.locker), WithClaims(s.claims)).Run(context.Background(), s.request(models.TierHigh))

	s.Equal(SkipAlreadyClaimed, result.Skipped)
	s.Empty(result.Applied)
	s.Empty(result.Failed)
	s.True(released)
}

func (s *OrchestratorSuite) TestClaimStoreErrorSkipsEffects() {
	s.claims.EXPECT().Claim(gomock.Any(), s.record.ID, models.TierHigh).Return(errStoreDown)

	result := s.orchestrator(WithClaims(s.claims)).Run(context.Background(), s.request(models.TierHigh))

	s.Equal([]models.RemediationStep{models.StepClaim}, failedSteps(result.Failed))
}

func (s *OrchestratorSuite) TestClaimReleasedWhenNothingCommitted() {
	released := false
	s.locker.EXPECT().Acquire(gomock.Any(), s.record.ID).Return(func() { released = true }, nil)
	s.claims.EXPECT().Claim(gomock.Any(), s.record.ID, models.TierHigh).Return(nil)
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).Return(id.ArtifactID{}, errStoreDown)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(id.NotificationID{}, errStoreDown)
	s.claims.EXPECT().Release(gomock.Any(), s.record.ID, models.TierHigh).Return(nil)

	result := s.orchestrator(WithLocker(s.locker), WithClaims(s.claims)).Run(context.Background(), s.request(models.TierHigh))

	s.Len(result.Failed, 2)
	s.True(released)
}

func (s *OrchestratorSuite) TestClaimKeptWhenSomethingCommitted() {
	s.claims.EXPECT().Claim(gomock.Any(), s.record.ID, models.TierHigh).Return(nil)
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).DoAndReturn(acceptArtifact)
	s.tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).DoAndReturn(acceptTask)
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(acceptNotification)

	result := s.orchestrator(WithClaims(s.claims)).Run(context.Background(), s.request(models.TierHigh))

	s.True(result.Succeeded())
}

func (s *OrchestratorSuite) TestStoreAssignedIDsWin() {
	storeID := id.NewArtifactID()
	s.artifacts.EXPECT().CreateArtifact(gomock.Any(), gomock.Any()).Return(storeID, nil)
	s.tasks.EXPECT().CreateTask(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, t *models.RemediationTask) (id.TaskID, error) {
			s.Equal(storeID, *t.ArtifactID)
			return t.ID, nil
		})
	s.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(acceptNotification)

	result := s.orchestrator().Run(context.Background(), s.request(models.TierHigh))

	s.Equal(storeID.String(), result.Applied[0].EntityID)
}

func TestNewPanicsOnMissingStores(t *testing.T) {
	ctrl := gomock.NewController(t)
	artifacts := mocks.NewMockArtifactStore(ctrl)
	tasks := mocks.NewMockTaskStore(ctrl)
	notifier := mocks.NewMockNotificationSink(ctrl)

	assert.Panics(t, func() { New(nil, tasks, notifier) })
	assert.Panics(t, func() { New(artifacts, nil, notifier) })
	assert.Panics(t, func() { New(artifacts, tasks, nil) })
}
