// Package consistency checks cross-field legal coherence of a treatment
// record. Findings are advisory: the validator never blocks evaluation.
package consistency

import (
	"fmt"

	"custodia/internal/risk/models"
	"custodia/pkg/platform/textnorm"
)

// Rule inspects one record and returns zero or more violations.
type Rule interface {
	Name() string
	Check(record *models.TreatmentRecord) []models.Violation
}

// Vocabulary holds the lexical lists the built-in rules match against.
type Vocabulary struct {
	Marketing  []string `yaml:"marketing"`
	HealthTags []string `yaml:"health_tags"`
	Encryption []string `yaml:"encryption"`
	Access     []string `yaml:"access_restriction"`
}

// DefaultVocabulary returns the built-in Spanish and English lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Marketing: []string{
			"marketing", "publicidad", "promoción", "prospección comercial", "envío de ofertas",
			"newsletter", "advertising",
		},
		HealthTags: []string{
			"salud", "médic", "clínic", "diagnóstic", "enfermedad", "tratamiento médico",
			"discapacidad", "licencia médica", "genétic", "health", "medical", "clinical",
		},
		Encryption: []string{"cifrado", "encriptación", "encriptado", "encryption", "encrypted"},
		Access: []string{
			"control de acceso", "acceso restringido", "restricción de acceso", "mínimo privilegio",
			"access control", "access restriction", "restricted access", "least privilege",
		},
	}
}

// Validator evaluates an ordered rule list.
type Validator struct {
	rules []Rule
}

// Option configures a Validator.
type Option func(*Validator)

// WithRules appends rules after the built-in ones.
func WithRules(rules ...Rule) Option {
	return func(v *Validator) {
		v.rules = append(v.rules, rules...)
	}
}

// New builds a validator with the three built-in rules, in order, followed
// by any extra rules.
func New(vocab Vocabulary, opts ...Option) *Validator {
	v := &Validator{rules: []Rule{
		marketingConsentRule{keywords: vocab.Marketing},
		healthSecurityRule{health: vocab.HealthTags, encryption: vocab.Encryption, access: vocab.Access},
		transferSafeguardRule{},
	}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns every violation of every rule, in rule order.
func (v *Validator) Validate(record *models.TreatmentRecord) []models.Violation {
	if record == nil {
		return nil
	}
	var out []models.Violation
	for _, r := range v.rules {
		out = append(out, r.Check(record)...)
	}
	return out
}

// Rules returns the rule names in evaluation order.
func (v *Validator) Rules() []string {
	names := make([]string, len(v.rules))
	for i, r := range v.rules {
		names[i] = r.Name()
	}
	return names
}

type marketingConsentRule struct {
	keywords []string
}

func (marketingConsentRule) Name() string { return string(models.ViolationMarketingRequiresConsent) }

func (r marketingConsentRule) Check(record *models.TreatmentRecord) []models.Violation {
	kw, ok := textnorm.ContainsAny(record.PurposeText, r.keywords)
	if !ok || record.LegalBasis == models.LegalBasisConsent {
		return nil
	}
	return []models.Violation{{
		Kind:    models.ViolationMarketingRequiresConsent,
		Field:   "legal_basis",
		Message: fmt.Sprintf("purpose mentions %q but legal basis is %q; marketing requires consent", kw, basisLabel(record.LegalBasis)),
		AutoFix: &models.AutoFix{
			Field:       "legal_basis",
			Action:      "set",
			Values:      []string{string(models.LegalBasisConsent)},
			Description: "set legal basis to consent",
		},
	}}
}

type healthSecurityRule struct {
	health     []string
	encryption []string
	access     []string
}

func (healthSecurityRule) Name() string {
	return string(models.ViolationHealthDataRequiresSecurityMeasures)
}

func (r healthSecurityRule) Check(record *models.TreatmentRecord) []models.Violation {
	tag, ok := firstMatchingTag(record.DataCategories.Sensitive, r.health)
	if !ok {
		return nil
	}
	var missing []string
	if !anyMeasure(record.SecurityMeasures, r.encryption) {
		missing = append(missing, "encryption")
	}
	if !anyMeasure(record.SecurityMeasures, r.access) {
		missing = append(missing, "access_restriction")
	}
	if len(missing) == 0 {
		return nil
	}
	return []models.Violation{{
		Kind:    models.ViolationHealthDataRequiresSecurityMeasures,
		Field:   "security_measures",
		Message: fmt.Sprintf("sensitive category %q is health data and requires encryption and access restriction", tag),
		AutoFix: &models.AutoFix{
			Field:       "security_measures",
			Action:      "add",
			Values:      missing,
			Description: "declare encryption and restricted-access safeguards",
		},
	}}
}

type transferSafeguardRule struct{}

func (transferSafeguardRule) Name() string { return string(models.ViolationTransferRequiresSafeguard) }

// Check reports each unguarded transfer separately. There is no auto-fix:
// choosing a safeguard requires human judgment.
func (transferSafeguardRule) Check(record *models.TreatmentRecord) []models.Violation {
	var out []models.Violation
	for i, t := range record.InternationalTransfers {
		if t.HasSafeguard {
			continue
		}
		out = append(out, models.Violation{
			Kind:    models.ViolationTransferRequiresSafeguard,
			Field:   fmt.Sprintf("international_transfers[%d]", i),
			Message: fmt.Sprintf("transfer to %q has no recorded safeguard", t.Country),
		})
	}
	return out
}

func firstMatchingTag(tags, needles []string) (string, bool) {
	for _, t := range tags {
		if _, ok := textnorm.ContainsAny(t, needles); ok {
			return t, true
		}
	}
	return "", false
}

func anyMeasure(measures, needles []string) bool {
	_, ok := firstMatchingTag(measures, needles)
	return ok
}

func basisLabel(b models.LegalBasis) string {
	if b == "" {
		return "undeclared"
	}
	return string(b)
}
