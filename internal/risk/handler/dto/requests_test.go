package dto

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"custodia/internal/risk/models"
	dErrors "custodia/pkg/domain-errors"
	"custodia/pkg/platform/validation"
)

const recordYAML = `
id: 3f1c2a8e-7d4b-4c1a-9e2f-6b5d8a0c1e47
tenant_id: aaaa0000-0000-0000-0000-000000000001
responsible_party:
  name: "  Comercial Los Andes SpA "
  tax_id: 76.543.210-K
purpose_text: Evaluación de clientes mediante scoring automático
data_categories:
  sensitive: [salud, " salud", ""]
legal_basis: " Contract"
international_transfers:
  - country: " US"
    provider_id: aws
estimated_volume: 500000
security_measures: [cifrado]
`

func TestRecordFromYAML(t *testing.T) {
	var r Record
	require.NoError(t, yaml.Unmarshal([]byte(recordYAML), &r))
	r.Normalize()
	require.NoError(t, r.Validate())

	record, err := r.ToModel()
	require.NoError(t, err)

	want := &models.TreatmentRecord{
		ID:               record.ID,
		TenantID:         record.TenantID,
		ResponsibleParty: models.ResponsibleParty{Name: "Comercial Los Andes SpA", TaxID: "76.543.210-K"},
		PurposeText:      "Evaluación de clientes mediante scoring automático",
		DataCategories:   models.DataCategories{Sensitive: []string{"salud"}},
		LegalBasis:       models.LegalBasisContract,
		InternationalTransfers: []models.Transfer{
			{Country: "US", ProviderID: "aws"},
		},
		EstimatedVolume:  500000,
		SecurityMeasures: []string{"cifrado"},
	}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "3f1c2a8e-7d4b-4c1a-9e2f-6b5d8a0c1e47", record.ID.String())
}

func TestRecordValidate(t *testing.T) {
	t.Run("empty record is acceptable", func(t *testing.T) {
		assert.NoError(t, (&Record{}).Validate())
	})

	t.Run("too many transfers", func(t *testing.T) {
		r := Record{InternationalTransfers: make([]Transfer, validation.MaxTransfers+1)}
		err := r.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("oversized tag", func(t *testing.T) {
		r := Record{DataCategories: DataCategories{Special: []string{strings.Repeat("x", validation.MaxTagLength+1)}}}
		err := r.Validate()
		assert.EqualError(t, err, "data_categories.special[0] exceeds max length of 100")
		var de *dErrors.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "data_categories.special[0]", de.Field)
	})

	t.Run("unknown legal basis", func(t *testing.T) {
		r := Record{LegalBasis: "goodwill"}
		assert.Error(t, r.Validate())
	})
}

func TestToModelRejectsMalformedIDs(t *testing.T) {
	r := Record{ID: "record-1"}
	_, err := r.ToModel()
	require.Error(t, err)
	assert.Equal(t, "invalid record id", err.Error())
}

func TestEvaluateRequestRequiresIDs(t *testing.T) {
	req := &EvaluateRequest{Record: Record{ID: "3f1c2a8e-7d4b-4c1a-9e2f-6b5d8a0c1e47"}}
	assert.EqualError(t, req.Validate(), "tenant_id is required")
}

func TestReleaseRequest(t *testing.T) {
	t.Run("tier is case insensitive", func(t *testing.T) {
		req := ReleaseRequest{RecordID: " 3f1c2a8e-7d4b-4c1a-9e2f-6b5d8a0c1e47 ", Tier: "high"}
		req.Normalize()
		require.NoError(t, req.Validate())

		recordID, tier, err := req.Parse()
		require.NoError(t, err)
		assert.Equal(t, "3f1c2a8e-7d4b-4c1a-9e2f-6b5d8a0c1e47", recordID.String())
		assert.Equal(t, models.TierHigh, tier)
	})

	t.Run("unknown tier", func(t *testing.T) {
		req := ReleaseRequest{RecordID: "3f1c2a8e-7d4b-4c1a-9e2f-6b5d8a0c1e47", Tier: "SEVERE"}
		assert.EqualError(t, req.Validate(), "tier must be a risk tier")
	})

	t.Run("malformed record id", func(t *testing.T) {
		req := ReleaseRequest{RecordID: "record-1", Tier: "HIGH"}
		err := req.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestRecordVolumeMustNotBeNegative(t *testing.T) {
	r := Record{EstimatedVolume: -1}
	assert.EqualError(t, r.Validate(), "estimated_volume must be at least 0")
}
