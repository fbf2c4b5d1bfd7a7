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

// RecordStore persists treatment records.
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

const recordColumns = `id, tenant_id, responsible_name, responsible_tax_id, purpose_text, data_categories,
	legal_basis, international_transfers, estimated_volume, technology, security_measures, created_at`

// SaveRecord inserts or replaces a record.
func (s *RecordStore) SaveRecord(ctx context.Context, r *models.TreatmentRecord) error {
	if err := r.Validate(); err != nil {
		return err
	}
	categories, err := marshalJSON("data categories", toCategoriesDoc(r.DataCategories))
	if err != nil {
		return err
	}
	transfers := make([]transferDoc, len(r.InternationalTransfers))
	for i, t := range r.InternationalTransfers {
		transfers[i] = transferDoc{Country: t.Country, HasSafeguard: t.HasSafeguard, ProviderID: t.ProviderID}
	}
	transfersJSON, err := marshalJSON("transfers", transfers)
	if err != nil {
		return err
	}
	measures := r.SecurityMeasures
	if measures == nil {
		measures = []string{}
	}
	measuresJSON, err := marshalJSON("security measures", measures)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO treatment_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			responsible_name = EXCLUDED.responsible_name,
			responsible_tax_id = EXCLUDED.responsible_tax_id,
			purpose_text = EXCLUDED.purpose_text,
			data_categories = EXCLUDED.data_categories,
			legal_basis = EXCLUDED.legal_basis,
			international_transfers = EXCLUDED.international_transfers,
			estimated_volume = EXCLUDED.estimated_volume,
			technology = EXCLUDED.technology,
			security_measures = EXCLUDED.security_measures
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID),
		uuid.UUID(r.TenantID),
		r.ResponsibleParty.Name,
		r.ResponsibleParty.TaxID,
		r.PurposeText,
		categories,
		string(r.LegalBasis),
		transfersJSON,
		r.EstimatedVolume,
		r.Technology,
		measuresJSON,
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save treatment record: %w", err)
	}
	return nil
}

func (s *RecordStore) GetRecord(ctx context.Context, recordID id.RecordID) (*models.TreatmentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM treatment_records WHERE id = $1`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, uuid.UUID(recordID)))
	if err != nil {
		if isNoRows(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get treatment record: %w", err)
	}
	return record, nil
}

// ListRecords returns the tenant's records ordered by creation time, then ID.
func (s *RecordStore) ListRecords(ctx context.Context, tenantID id.TenantID) ([]*models.TreatmentRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM treatment_records WHERE tenant_id = $1 ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list treatment records: %w", err)
	}
	defer rows.Close()

	var out []*models.TreatmentRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan treatment record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate treatment records: %w", err)
	}
	return out, nil
}

func scanRecord(r row) (*models.TreatmentRecord, error) {
	var (
		record                                  models.TreatmentRecord
		recordID, tenantID                      uuid.UUID
		legalBasis                              string
		categoriesJSON, transfersJSON, measures []byte
	)
	err := r.Scan(
		&recordID,
		&tenantID,
		&record.ResponsibleParty.Name,
		&record.ResponsibleParty.TaxID,
		&record.PurposeText,
		&categoriesJSON,
		&legalBasis,
		&transfersJSON,
		&record.EstimatedVolume,
		&record.Technology,
		&measures,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.ID = id.RecordID(recordID)
	record.TenantID = id.TenantID(tenantID)
	record.LegalBasis = models.LegalBasis(legalBasis)

	var categories categoriesDoc
	if err := unmarshalJSON("data categories", categoriesJSON, &categories); err != nil {
		return nil, err
	}
	record.DataCategories = categories.model()

	var transfers []transferDoc
	if err := unmarshalJSON("transfers", transfersJSON, &transfers); err != nil {
		return nil, err
	}
	for _, t := range transfers {
		record.InternationalTransfers = append(record.InternationalTransfers, models.Transfer{
			Country:      t.Country,
			HasSafeguard: t.HasSafeguard,
			ProviderID:   t.ProviderID,
		})
	}
	if err := unmarshalJSON("security measures", measures, &record.SecurityMeasures); err != nil {
		return nil, err
	}
	return &record, nil
}
