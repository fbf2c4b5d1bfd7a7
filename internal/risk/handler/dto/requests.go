package dto

import (
	"fmt"
	"strings"
	"time"

	"custodia/internal/risk/models"
	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
	strutil "custodia/pkg/platform/strings"
	"custodia/pkg/platform/validation"
	rules "custodia/pkg/validation"
)

// Record is the wire and file form of a treatment record. The yaml tags let
// riskctl read the same shape from record files.
type Record struct {
	ID                     string           `json:"id,omitempty" yaml:"id" validate:"omitempty,uuid"`
	TenantID               string           `json:"tenant_id,omitempty" yaml:"tenant_id" validate:"omitempty,uuid"`
	ResponsibleParty       ResponsibleParty `json:"responsible_party" yaml:"responsible_party"`
	PurposeText            string           `json:"purpose_text" yaml:"purpose_text"`
	DataCategories         DataCategories   `json:"data_categories" yaml:"data_categories"`
	LegalBasis             string           `json:"legal_basis,omitempty" yaml:"legal_basis"`
	InternationalTransfers []Transfer       `json:"international_transfers,omitempty" yaml:"international_transfers"`
	EstimatedVolume        int64            `json:"estimated_volume" yaml:"estimated_volume" validate:"gte=0"`
	Technology             string           `json:"technology,omitempty" yaml:"technology"`
	SecurityMeasures       []string         `json:"security_measures,omitempty" yaml:"security_measures"`
	CreatedAt              *time.Time       `json:"created_at,omitempty" yaml:"created_at"`
}

type ResponsibleParty struct {
	Name  string `json:"name" yaml:"name"`
	TaxID string `json:"tax_id" yaml:"tax_id"`
}

type DataCategories struct {
	Identification []string `json:"identification,omitempty" yaml:"identification"`
	Sensitive      []string `json:"sensitive,omitempty" yaml:"sensitive"`
	Special        []string `json:"special,omitempty" yaml:"special"`
	Technical      []string `json:"technical,omitempty" yaml:"technical"`
}

type Transfer struct {
	Country      string `json:"country" yaml:"country"`
	HasSafeguard bool   `json:"has_safeguard" yaml:"has_safeguard"`
	ProviderID   string `json:"provider_id,omitempty" yaml:"provider_id"`
}

// Normalize trims text and deduplicates tag sets.
func (r *Record) Normalize() {
	if r == nil {
		return
	}
	r.ID = strings.TrimSpace(r.ID)
	r.TenantID = strings.TrimSpace(r.TenantID)
	r.ResponsibleParty.Name = strings.TrimSpace(r.ResponsibleParty.Name)
	r.ResponsibleParty.TaxID = strings.TrimSpace(r.ResponsibleParty.TaxID)
	r.PurposeText = strings.TrimSpace(r.PurposeText)
	r.LegalBasis = strings.ToLower(strings.TrimSpace(r.LegalBasis))
	r.Technology = strings.TrimSpace(r.Technology)
	r.DataCategories.Identification = strutil.DedupeAndTrim(r.DataCategories.Identification)
	r.DataCategories.Sensitive = strutil.DedupeAndTrim(r.DataCategories.Sensitive)
	r.DataCategories.Special = strutil.DedupeAndTrim(r.DataCategories.Special)
	r.DataCategories.Technical = strutil.DedupeAndTrim(r.DataCategories.Technical)
	r.SecurityMeasures = strutil.DedupeAndTrim(r.SecurityMeasures)
	for i := range r.InternationalTransfers {
		r.InternationalTransfers[i].Country = strings.TrimSpace(r.InternationalTransfers[i].Country)
		r.InternationalTransfers[i].ProviderID = strings.TrimSpace(r.InternationalTransfers[i].ProviderID)
	}
}

// Validate checks sizes and enumerations. Missing business fields are not
// errors: they score as undeclared.
func (r *Record) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "record is required")
	}

	// Phase 1: sizes
	sizes := validation.NewSizes().
		Text("purpose_text", r.PurposeText, validation.MaxPurposeLength).
		Text("responsible_party.name", r.ResponsibleParty.Name, validation.MaxNameLength).
		Text("responsible_party.tax_id", r.ResponsibleParty.TaxID, validation.MaxTaxIDLength).
		Text("technology", r.Technology, validation.MaxTechnologyLength).
		Count("data_categories.identification", len(r.DataCategories.Identification), validation.MaxCategoryTags).
		Count("data_categories.sensitive", len(r.DataCategories.Sensitive), validation.MaxCategoryTags).
		Count("data_categories.special", len(r.DataCategories.Special), validation.MaxCategoryTags).
		Count("data_categories.technical", len(r.DataCategories.Technical), validation.MaxCategoryTags).
		Each("data_categories.identification", r.DataCategories.Identification, validation.MaxTagLength).
		Each("data_categories.sensitive", r.DataCategories.Sensitive, validation.MaxTagLength).
		Each("data_categories.special", r.DataCategories.Special, validation.MaxTagLength).
		Each("data_categories.technical", r.DataCategories.Technical, validation.MaxTagLength).
		Count("international_transfers", len(r.InternationalTransfers), validation.MaxTransfers).
		Count("security_measures", len(r.SecurityMeasures), validation.MaxSecurityMeasures).
		Each("security_measures", r.SecurityMeasures, validation.MaxTagLength)
	for i, t := range r.InternationalTransfers {
		sizes.
			Text(fmt.Sprintf("international_transfers[%d].country", i), t.Country, validation.MaxCountryLength).
			Text(fmt.Sprintf("international_transfers[%d].provider_id", i), t.ProviderID, validation.MaxProviderIDLength)
	}
	if err := sizes.Err(); err != nil {
		return err
	}

	// Phase 2: values
	if err := rules.Validate(r); err != nil {
		return err
	}
	if _, err := models.ParseLegalBasis(r.LegalBasis); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	return nil
}

// ToModel converts the request into a domain record. Empty IDs stay nil;
// callers that need them check with RequireIDs.
func (r *Record) ToModel() (*models.TreatmentRecord, error) {
	basis, err := models.ParseLegalBasis(r.LegalBasis)
	if err != nil {
		return nil, err
	}
	record := &models.TreatmentRecord{
		ResponsibleParty: models.ResponsibleParty{
			Name:  r.ResponsibleParty.Name,
			TaxID: r.ResponsibleParty.TaxID,
		},
		PurposeText:      r.PurposeText,
		DataCategories:   models.DataCategories(r.DataCategories),
		LegalBasis:       basis,
		EstimatedVolume:  r.EstimatedVolume,
		Technology:       r.Technology,
		SecurityMeasures: r.SecurityMeasures,
	}
	if r.ID != "" {
		if record.ID, err = id.ParseRecordID(r.ID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid record id")
		}
	}
	if r.TenantID != "" {
		if record.TenantID, err = id.ParseTenantID(r.TenantID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid tenant id")
		}
	}
	for _, t := range r.InternationalTransfers {
		record.InternationalTransfers = append(record.InternationalTransfers, models.Transfer(t))
	}
	if r.CreatedAt != nil {
		record.CreatedAt = r.CreatedAt.UTC()
	}
	return record, nil
}

// RequireIDs reports a bad request when the record or tenant ID is missing.
func (r *Record) RequireIDs() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	if r.TenantID == "" {
		return dErrors.New(dErrors.CodeValidation, "tenant_id is required")
	}
	return nil
}

// EvaluateRequest is the body of POST /v1/evaluations.
type EvaluateRequest struct {
	Record Record `json:"record"`
}

func (r *EvaluateRequest) Normalize() {
	if r == nil {
		return
	}
	r.Record.Normalize()
}

func (r *EvaluateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := r.Record.RequireIDs(); err != nil {
		return err
	}
	return r.Record.Validate()
}

// SimilarityRequest is the body of POST /v1/similarity. IDs are optional.
type SimilarityRequest struct {
	A Record `json:"a"`
	B Record `json:"b"`
}

func (r *SimilarityRequest) Normalize() {
	if r == nil {
		return
	}
	r.A.Normalize()
	r.B.Normalize()
}

func (r *SimilarityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if err := r.A.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "a: "+err.Error())
	}
	if err := r.B.Validate(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "b: "+err.Error())
	}
	return nil
}

// ReleaseRequest carries the path parameters of a claim release.
type ReleaseRequest struct {
	RecordID string `validate:"required,uuid"`
	Tier     string `validate:"required,tier"`
}

func (r *ReleaseRequest) Normalize() {
	r.RecordID = strings.TrimSpace(r.RecordID)
	r.Tier = strings.ToUpper(strings.TrimSpace(r.Tier))
}

func (r *ReleaseRequest) Validate() error {
	return rules.Validate(r)
}

// Parse converts a validated request into typed values.
func (r *ReleaseRequest) Parse() (id.RecordID, models.Tier, error) {
	recordID, err := id.ParseRecordID(r.RecordID)
	if err != nil {
		return id.RecordID{}, "", dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid record id")
	}
	tier, ok := models.ParseTier(r.Tier)
	if !ok {
		return id.RecordID{}, "", dErrors.New(dErrors.CodeBadRequest, "invalid tier")
	}
	return recordID, tier, nil
}
