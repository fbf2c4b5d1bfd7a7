package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"custodia/internal/risk/models"
	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
)

// ArtifactStore persists EIPD and DPIA artifacts.
type ArtifactStore struct {
	db *sql.DB
}

func NewArtifactStore(db *sql.DB) *ArtifactStore {
	return &ArtifactStore{db: db}
}

const artifactColumns = `id, tenant_id, record_id, type, status, created_via, source_artifact_id,
	scope_purpose, scope_categories, created_at`

// CreateArtifact inserts the artifact, assigning an ID when it has none.
func (s *ArtifactStore) CreateArtifact(ctx context.Context, a *models.ComplianceArtifact) (id.ArtifactID, error) {
	if a == nil {
		return id.ArtifactID{}, fmt.Errorf("artifact is required: %w", sentinel.ErrInvalidInput)
	}
	artifactID := a.ID
	if artifactID.IsNil() {
		artifactID = id.NewArtifactID()
	}
	scope, err := marshalJSON("scope categories", toCategoriesDoc(a.Scope.Categories))
	if err != nil {
		return id.ArtifactID{}, err
	}

	query := `INSERT INTO compliance_artifacts (` + artifactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(artifactID),
		uuid.UUID(a.TenantID),
		uuid.UUID(a.RecordID),
		string(a.Type),
		string(a.Status),
		string(a.CreatedVia),
		nullUUID(artifactRef(a.SourceArtifactID)),
		a.Scope.PurposeText,
		scope,
		a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return id.ArtifactID{}, fmt.Errorf("artifact %s: %w", artifactID, sentinel.ErrAlreadyExists)
		}
		return id.ArtifactID{}, fmt.Errorf("create artifact: %w", err)
	}
	return artifactID, nil
}

// SetStatus moves an artifact through its review workflow.
func (s *ArtifactStore) SetStatus(ctx context.Context, artifactID id.ArtifactID, status models.ArtifactStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE compliance_artifacts SET status = $2 WHERE id = $1`,
		uuid.UUID(artifactID), string(status))
	if err != nil {
		return fmt.Errorf("update artifact status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update artifact status rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *ArtifactStore) ListApprovedArtifacts(ctx context.Context, tenantID id.TenantID, t models.ArtifactType) ([]*models.ComplianceArtifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM compliance_artifacts
		WHERE tenant_id = $1 AND type = $2 AND status = 'approved'
		ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), string(t))
	if err != nil {
		return nil, fmt.Errorf("list approved artifacts: %w", err)
	}
	defer rows.Close()

	var out []*models.ComplianceArtifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return out, nil
}

func scanArtifact(r row) (*models.ComplianceArtifact, error) {
	var (
		a                                models.ComplianceArtifact
		artifactID, tenantID, recordID   uuid.UUID
		artifactType, status, createdVia string
		source                           uuid.NullUUID
		scope                            []byte
	)
	err := r.Scan(&artifactID, &tenantID, &recordID, &artifactType, &status, &createdVia,
		&source, &a.Scope.PurposeText, &scope, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = id.ArtifactID(artifactID)
	a.TenantID = id.TenantID(tenantID)
	a.RecordID = id.RecordID(recordID)
	a.Type = models.ArtifactType(artifactType)
	a.Status = models.ArtifactStatus(status)
	a.CreatedVia = models.CreatedVia(createdVia)
	if source.Valid {
		src := id.ArtifactID(source.UUID)
		a.SourceArtifactID = &src
	}
	var categories categoriesDoc
	if err := unmarshalJSON("scope categories", scope, &categories); err != nil {
		return nil, err
	}
	a.Scope.Categories = categories.model()
	return &a, nil
}
