// Package memory holds in-memory implementations of the risk stores for the
// demo environment, the offline CLI and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"custodia/internal/risk/models"
	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
)

// Records stores treatment records keyed by ID.
type Records struct {
	mu      sync.RWMutex
	records map[id.RecordID]*models.TreatmentRecord
}

func NewRecords() *Records {
	return &Records{records: make(map[id.RecordID]*models.TreatmentRecord)}
}

// SaveRecord inserts or replaces a record.
func (s *Records) SaveRecord(_ context.Context, r *models.TreatmentRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *r
	s.records[r.ID] = &c
	return nil
}

func (s *Records) GetRecord(_ context.Context, recordID id.RecordID) (*models.TreatmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *r
	return &c, nil
}

// ListRecords returns the tenant's records ordered by creation time, then ID.
func (s *Records) ListRecords(_ context.Context, tenantID id.TenantID) ([]*models.TreatmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TreatmentRecord
	for _, r := range s.records {
		if r.TenantID == tenantID {
			c := *r
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *models.TreatmentRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

// Artifacts stores compliance artifacts.
type Artifacts struct {
	mu        sync.RWMutex
	artifacts map[id.ArtifactID]*models.ComplianceArtifact
}

func NewArtifacts() *Artifacts {
	return &Artifacts{artifacts: make(map[id.ArtifactID]*models.ComplianceArtifact)}
}

// CreateArtifact stores the artifact, assigning an ID when it has none.
func (s *Artifacts) CreateArtifact(_ context.Context, a *models.ComplianceArtifact) (id.ArtifactID, error) {
	if a == nil {
		return id.ArtifactID{}, fmt.Errorf("artifact is required: %w", sentinel.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	if c.ID.IsNil() {
		c.ID = id.NewArtifactID()
	}
	if _, exists := s.artifacts[c.ID]; exists {
		return id.ArtifactID{}, fmt.Errorf("artifact %s: %w", c.ID, sentinel.ErrAlreadyExists)
	}
	s.artifacts[c.ID] = &c
	return c.ID, nil
}

// SaveArtifact inserts or replaces an artifact. Used to seed approved EIPDs.
func (s *Artifacts) SaveArtifact(_ context.Context, a *models.ComplianceArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	s.artifacts[a.ID] = &c
	return nil
}

// SetStatus moves an artifact through its review workflow.
func (s *Artifacts) SetStatus(_ context.Context, artifactID id.ArtifactID, status models.ArtifactStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.artifacts[artifactID]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.Status = status
	return nil
}

func (s *Artifacts) ListApprovedArtifacts(_ context.Context, tenantID id.TenantID, t models.ArtifactType) ([]*models.ComplianceArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ComplianceArtifact
	for _, a := range s.artifacts {
		if a.TenantID == tenantID && a.Type == t && a.Status == models.ArtifactApproved {
			c := *a
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *models.ComplianceArtifact) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

// All returns every artifact created for a record.
func (s *Artifacts) All(recordID id.RecordID) []*models.ComplianceArtifact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ComplianceArtifact
	for _, a := range s.artifacts {
		if a.RecordID == recordID {
			c := *a
			out = append(out, &c)
		}
	}
	return out
}

// Tasks stores remediation tasks.
type Tasks struct {
	mu    sync.RWMutex
	tasks []*models.RemediationTask
}

func NewTasks() *Tasks {
	return &Tasks{}
}

func (s *Tasks) CreateTask(_ context.Context, t *models.RemediationTask) (id.TaskID, error) {
	if t == nil {
		return id.TaskID{}, fmt.Errorf("task is required: %w", sentinel.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *t
	if c.ID.IsNil() {
		c.ID = id.NewTaskID()
	}
	s.tasks = append(s.tasks, &c)
	return c.ID, nil
}

// ForRecord returns the record's tasks in creation order.
func (s *Tasks) ForRecord(recordID id.RecordID) []*models.RemediationTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.RemediationTask
	for _, t := range s.tasks {
		if t.RecordID == recordID {
			c := *t
			out = append(out, &c)
		}
	}
	return out
}

// Evaluations is an append-only evaluation history.
type Evaluations struct {
	mu       sync.RWMutex
	byRecord map[id.RecordID][]models.RiskEvaluation
}

func NewEvaluations() *Evaluations {
	return &Evaluations{byRecord: make(map[id.RecordID][]models.RiskEvaluation)}
}

func (s *Evaluations) AppendEvaluation(_ context.Context, e *models.RiskEvaluation) error {
	if e == nil {
		return fmt.Errorf("evaluation is required: %w", sentinel.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRecord[e.RecordID] = append(s.byRecord[e.RecordID], *e)
	return nil
}

// ListEvaluations returns the record's history, oldest first.
func (s *Evaluations) ListEvaluations(_ context.Context, recordID id.RecordID) ([]*models.RiskEvaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.byRecord[recordID]
	out := make([]*models.RiskEvaluation, len(history))
	for i := range history {
		e := history[i]
		out[i] = &e
	}
	return out, nil
}

type claimKey struct {
	record id.RecordID
	tier   models.Tier
}

// Claims enforces one active remediation per record and tier.
type Claims struct {
	mu     sync.Mutex
	active map[claimKey]struct{}
}

func NewClaims() *Claims {
	return &Claims{active: make(map[claimKey]struct{})}
}

func (s *Claims) Claim(_ context.Context, recordID id.RecordID, tier models.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := claimKey{recordID, tier}
	if _, ok := s.active[k]; ok {
		return fmt.Errorf("remediation for %s at %s: %w", recordID, tier, sentinel.ErrAlreadyExists)
	}
	s.active[k] = struct{}{}
	return nil
}

func (s *Claims) Release(_ context.Context, recordID id.RecordID, tier models.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := claimKey{recordID, tier}
	if _, ok := s.active[k]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.active, k)
	return nil
}
