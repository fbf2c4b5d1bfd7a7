package models

import (
	"strings"
	"time"

	id "custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// LegalBasis is the lawful ground declared for a processing activity.
type LegalBasis string

const (
	LegalBasisConsent            LegalBasis = "consent"
	LegalBasisContract           LegalBasis = "contract"
	LegalBasisLegalObligation    LegalBasis = "legal_obligation"
	LegalBasisVitalInterest      LegalBasis = "vital_interest"
	LegalBasisPublicInterest     LegalBasis = "public_interest"
	LegalBasisLegitimateInterest LegalBasis = "legitimate_interest"
)

// ParseLegalBasis validates and parses a legal basis string.
//
// Usage: call at trust boundaries for external input. An empty string parses
// to the zero value (undeclared basis) and is not an error.
func ParseLegalBasis(s string) (LegalBasis, error) {
	b := LegalBasis(strings.ToLower(strings.TrimSpace(s)))
	if b == "" || b.IsValid() {
		return b, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unsupported legal basis: %s", s)
}

// IsValid reports whether b is one of the known legal bases.
func (b LegalBasis) IsValid() bool {
	switch b {
	case LegalBasisConsent, LegalBasisContract, LegalBasisLegalObligation,
		LegalBasisVitalInterest, LegalBasisPublicInterest, LegalBasisLegitimateInterest:
		return true
	}
	return false
}

// ResponsibleParty identifies the controller declaring the activity.
type ResponsibleParty struct {
	Name  string
	TaxID string
}

// DataCategories holds the four named sets of personal-data tags.
type DataCategories struct {
	Identification []string
	Sensitive      []string
	Special        []string
	Technical      []string
}

// Flatten returns every tag across the four sets, in set order.
func (c DataCategories) Flatten() []string {
	out := make([]string, 0, len(c.Identification)+len(c.Sensitive)+len(c.Special)+len(c.Technical))
	out = append(out, c.Identification...)
	out = append(out, c.Sensitive...)
	out = append(out, c.Special...)
	out = append(out, c.Technical...)
	return out
}

// IsEmpty reports whether no tag is declared in any set.
func (c DataCategories) IsEmpty() bool {
	return len(c.Identification) == 0 && len(c.Sensitive) == 0 && len(c.Special) == 0 && len(c.Technical) == 0
}

// Transfer is one declared international transfer destination.
type Transfer struct {
	Country      string
	HasSafeguard bool
	ProviderID   string
}

// TreatmentRecord describes one personal-data processing activity. It is
// owned by the tenant and read-only to the engine.
type TreatmentRecord struct {
	ID                     id.RecordID
	TenantID               id.TenantID
	ResponsibleParty       ResponsibleParty
	PurposeText            string
	DataCategories         DataCategories
	LegalBasis             LegalBasis
	InternationalTransfers []Transfer
	EstimatedVolume        int64
	Technology             string
	SecurityMeasures       []string
	CreatedAt              time.Time
}

// Validate checks the identifiers every evaluation needs. Missing business
// fields are not errors; they score as documented by the scorer.
func (r *TreatmentRecord) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "treatment record is required")
	}
	if r.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "record ID is required")
	}
	if r.TenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant ID is required")
	}
	if r.LegalBasis != "" && !r.LegalBasis.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unsupported legal basis: %s", r.LegalBasis)
	}
	return nil
}

// HasTransfers reports whether any international transfer is declared.
func (r *TreatmentRecord) HasTransfers() bool {
	return len(r.InternationalTransfers) > 0
}
