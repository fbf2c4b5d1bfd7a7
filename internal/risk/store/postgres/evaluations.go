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

// EvaluationStore is the append-only evaluation history.
type EvaluationStore struct {
	db *sql.DB
}

func NewEvaluationStore(db *sql.DB) *EvaluationStore {
	return &EvaluationStore{db: db}
}

func (s *EvaluationStore) AppendEvaluation(ctx context.Context, e *models.RiskEvaluation) error {
	if e == nil {
		return fmt.Errorf("evaluation is required: %w", sentinel.ErrInvalidInput)
	}
	query := `
		INSERT INTO risk_evaluations (
			id, record_id, tenant_id, score_categories, score_purpose, score_transfers,
			score_volume, score_technology, total_score, tier, blocked, weights_version, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(e.ID),
		uuid.UUID(e.RecordID),
		uuid.UUID(e.TenantID),
		e.Subscores.Categories,
		e.Subscores.Purpose,
		e.Subscores.Transfers,
		e.Subscores.Volume,
		e.Subscores.Technology,
		e.TotalScore,
		string(e.Tier),
		e.Blocked,
		e.WeightsVersion,
		e.EvaluatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("evaluation %s: %w", e.ID, sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("append evaluation: %w", err)
	}
	return nil
}

// ListEvaluations returns the record's history, oldest first.
func (s *EvaluationStore) ListEvaluations(ctx context.Context, recordID id.RecordID) ([]*models.RiskEvaluation, error) {
	query := `
		SELECT id, record_id, tenant_id, score_categories, score_purpose, score_transfers,
			score_volume, score_technology, total_score, tier, blocked, weights_version, evaluated_at
		FROM risk_evaluations
		WHERE record_id = $1
		ORDER BY evaluated_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	out := []*models.RiskEvaluation{}
	for rows.Next() {
		var (
			e                       models.RiskEvaluation
			evalID, recID, tenantID uuid.UUID
			tier                    string
		)
		if err := rows.Scan(&evalID, &recID, &tenantID,
			&e.Subscores.Categories, &e.Subscores.Purpose, &e.Subscores.Transfers,
			&e.Subscores.Volume, &e.Subscores.Technology, &e.TotalScore,
			&tier, &e.Blocked, &e.WeightsVersion, &e.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		e.ID = id.EvaluationID(evalID)
		e.RecordID = id.RecordID(recID)
		e.TenantID = id.TenantID(tenantID)
		e.Tier = models.Tier(tier)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return out, nil
}
