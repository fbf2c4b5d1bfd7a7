package testutil

import (
	"time"

	"github.com/google/uuid"

	"custodia/internal/risk/models"
	id "custodia/pkg/domain"
)

// TestIDs provides fixed IDs for deterministic test data.
var TestIDs = struct {
	TenantID1 id.TenantID
	TenantID2 id.TenantID
	RecordID1 id.RecordID
	RecordID2 id.RecordID
}{
	TenantID1: id.TenantID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	TenantID2: id.TenantID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000002")),
	RecordID1: id.RecordID(uuid.MustParse("bbbb0000-0000-0000-0000-000000000001")),
	RecordID2: id.RecordID(uuid.MustParse("bbbb0000-0000-0000-0000-000000000002")),
}

// RecordBuilder provides a fluent interface for building treatment records.
// The defaults describe a payroll record that classifies MINIMAL.
type RecordBuilder struct {
	record *models.TreatmentRecord
}

func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{
		record: &models.TreatmentRecord{
			ID:       id.RecordID(uuid.New()),
			TenantID: TestIDs.TenantID1,
			ResponsibleParty: models.ResponsibleParty{
				Name:  "Comercial Los Andes SpA",
				TaxID: "76.543.210-K",
			},
			PurposeText:    "Gestión de nómina del personal",
			DataCategories: models.DataCategories{Identification: []string{"nombre", "rut"}},
			LegalBasis:     models.LegalBasisLegalObligation,
			CreatedAt:      time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		},
	}
}

func (b *RecordBuilder) WithID(recordID id.RecordID) *RecordBuilder {
	b.record.ID = recordID
	return b
}

func (b *RecordBuilder) WithTenantID(tenantID id.TenantID) *RecordBuilder {
	b.record.TenantID = tenantID
	return b
}

func (b *RecordBuilder) WithResponsible(name, taxID string) *RecordBuilder {
	b.record.ResponsibleParty = models.ResponsibleParty{Name: name, TaxID: taxID}
	return b
}

func (b *RecordBuilder) WithPurpose(text string) *RecordBuilder {
	b.record.PurposeText = text
	return b
}

func (b *RecordBuilder) WithCategories(c models.DataCategories) *RecordBuilder {
	b.record.DataCategories = c
	return b
}

func (b *RecordBuilder) WithLegalBasis(basis models.LegalBasis) *RecordBuilder {
	b.record.LegalBasis = basis
	return b
}

func (b *RecordBuilder) WithTransfers(transfers ...models.Transfer) *RecordBuilder {
	b.record.InternationalTransfers = transfers
	return b
}

func (b *RecordBuilder) WithVolume(volume int64) *RecordBuilder {
	b.record.EstimatedVolume = volume
	return b
}

func (b *RecordBuilder) WithTechnology(text string) *RecordBuilder {
	b.record.Technology = text
	return b
}

func (b *RecordBuilder) WithSecurityMeasures(measures ...string) *RecordBuilder {
	b.record.SecurityMeasures = measures
	return b
}

func (b *RecordBuilder) CreatedAt(t time.Time) *RecordBuilder {
	b.record.CreatedAt = t
	return b
}

// HighRisk turns the record into the reference HIGH case: automated credit
// scoring over health data, sent to Russia, for half a million subjects.
func (b *RecordBuilder) HighRisk() *RecordBuilder {
	b.record.PurposeText = "Evaluación de clientes mediante scoring automático"
	b.record.DataCategories = models.DataCategories{Sensitive: []string{"salud"}}
	b.record.InternationalTransfers = []models.Transfer{{Country: "RU"}}
	b.record.EstimatedVolume = 500_000
	b.record.LegalBasis = models.LegalBasisContract
	return b
}

func (b *RecordBuilder) Build() *models.TreatmentRecord {
	c := *b.record
	return &c
}

// ApprovedEIPD builds an approved EIPD whose scope mirrors the record.
func ApprovedEIPD(record *models.TreatmentRecord) *models.ComplianceArtifact {
	return &models.ComplianceArtifact{
		ID:         id.NewArtifactID(),
		TenantID:   record.TenantID,
		RecordID:   record.ID,
		Type:       models.ArtifactEIPD,
		Status:     models.ArtifactApproved,
		CreatedVia: models.CreatedViaNew,
		Scope: models.ArtifactScope{
			PurposeText: record.PurposeText,
			Categories:  record.DataCategories,
		},
		CreatedAt: record.CreatedAt,
	}
}
