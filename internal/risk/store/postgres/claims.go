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

// ClaimStore enforces one active remediation per record and tier through
// the remediation_claims primary key.
type ClaimStore struct {
	db *sql.DB
}

func NewClaimStore(db *sql.DB) *ClaimStore {
	return &ClaimStore{db: db}
}

func (s *ClaimStore) Claim(ctx context.Context, recordID id.RecordID, tier models.Tier) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO remediation_claims (record_id, tier) VALUES ($1, $2)`,
		uuid.UUID(recordID), string(tier))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("remediation for %s at %s: %w", recordID, tier, sentinel.ErrAlreadyExists)
		}
		return fmt.Errorf("claim remediation: %w", err)
	}
	return nil
}

func (s *ClaimStore) Release(ctx context.Context, recordID id.RecordID, tier models.Tier) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM remediation_claims WHERE record_id = $1 AND tier = $2`,
		uuid.UUID(recordID), string(tier))
	if err != nil {
		return fmt.Errorf("release remediation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release remediation rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
