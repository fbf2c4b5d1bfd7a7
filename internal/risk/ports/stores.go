package ports

import (
	"context"

	"custodia/internal/risk/models"
	id "custodia/pkg/domain"
)

// RecordStore reads the tenant's treatment records. Records are owned by the
// intake workflow; the engine never writes them.
type RecordStore interface {
	// GetRecord returns sentinel.ErrNotFound when the record does not exist.
	GetRecord(ctx context.Context, recordID id.RecordID) (*models.TreatmentRecord, error)
	// ListRecords returns every record of the tenant, used by duplicate detection.
	ListRecords(ctx context.Context, tenantID id.TenantID) ([]*models.TreatmentRecord, error)
}

// ArtifactStore persists impact assessments.
type ArtifactStore interface {
	ListApprovedArtifacts(ctx context.Context, tenantID id.TenantID, t models.ArtifactType) ([]*models.ComplianceArtifact, error)
	CreateArtifact(ctx context.Context, artifact *models.ComplianceArtifact) (id.ArtifactID, error)
}

// TaskStore persists remediation tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task *models.RemediationTask) (id.TaskID, error)
}

// EvaluationStore keeps the append-only evaluation history of each record.
type EvaluationStore interface {
	AppendEvaluation(ctx context.Context, evaluation *models.RiskEvaluation) error
	// ListEvaluations returns the history oldest first.
	ListEvaluations(ctx context.Context, recordID id.RecordID) ([]*models.RiskEvaluation, error)
}
