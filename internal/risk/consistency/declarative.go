package consistency

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"custodia/internal/risk/models"
	"custodia/pkg/platform/textnorm"
)

// Operator is one of a closed set of comparisons. Rules are data, never code.
type Operator string

const (
	OpContainsAny Operator = "contains_any"
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpEmpty       Operator = "empty"
	OpNotEmpty    Operator = "not_empty"
	OpGreaterThan Operator = "greater_than"
)

// Fields a condition may address.
const (
	FieldPurpose          = "purpose"
	FieldTechnology       = "technology"
	FieldLegalBasis       = "legal_basis"
	FieldResponsibleName  = "responsible.name"
	FieldResponsibleTaxID = "responsible.tax_id"
	FieldCategories       = "categories"
	FieldIdentification   = "categories.identification"
	FieldSensitive        = "categories.sensitive"
	FieldSpecial          = "categories.special"
	FieldTechnical        = "categories.technical"
	FieldTransferCountry  = "transfers.country"
	FieldSecurityMeasures = "security_measures"
	FieldVolume           = "volume"
)

var knownFields = map[string]struct{}{
	FieldPurpose: {}, FieldTechnology: {}, FieldLegalBasis: {}, FieldResponsibleName: {},
	FieldResponsibleTaxID: {}, FieldCategories: {}, FieldIdentification: {}, FieldSensitive: {},
	FieldSpecial: {}, FieldTechnical: {}, FieldTransferCountry: {}, FieldSecurityMeasures: {},
	FieldVolume: {},
}

// Condition compares one record field against Values.
type Condition struct {
	Field  string   `yaml:"field"`
	Op     Operator `yaml:"op"`
	Values []string `yaml:"values"`
}

// DeclarativeRule fires when every condition in When holds.
type DeclarativeRule struct {
	Kind    models.ViolationKind `yaml:"kind"`
	Field   string               `yaml:"field"`
	Message string               `yaml:"message"`
	When    []Condition          `yaml:"when"`
	AutoFix *models.AutoFix      `yaml:"auto_fix"`
}

type ruleFile struct {
	Rules []DeclarativeRule `yaml:"rules"`
}

// LoadRules reads declarative rules from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates declarative rules.
func ParseRules(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	out := make([]Rule, 0, len(f.Rules))
	for i, r := range f.Rules {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (r DeclarativeRule) validate() error {
	if r.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if len(r.When) == 0 {
		return fmt.Errorf("%s: at least one condition is required", r.Kind)
	}
	for _, c := range r.When {
		if _, ok := knownFields[c.Field]; !ok {
			return fmt.Errorf("%s: unknown field %q", r.Kind, c.Field)
		}
		switch c.Op {
		case OpEmpty, OpNotEmpty:
		case OpContainsAny, OpEquals, OpNotEquals:
			if len(c.Values) == 0 {
				return fmt.Errorf("%s: %s on %s needs values", r.Kind, c.Op, c.Field)
			}
		case OpGreaterThan:
			if len(c.Values) != 1 {
				return fmt.Errorf("%s: greater_than needs exactly one value", r.Kind)
			}
			if _, err := strconv.ParseInt(c.Values[0], 10, 64); err != nil {
				return fmt.Errorf("%s: greater_than value %q is not an integer", r.Kind, c.Values[0])
			}
		default:
			return fmt.Errorf("%s: unknown operator %q", r.Kind, c.Op)
		}
	}
	return nil
}

// Name implements Rule.
func (r DeclarativeRule) Name() string { return string(r.Kind) }

// Check implements Rule.
func (r DeclarativeRule) Check(record *models.TreatmentRecord) []models.Violation {
	for _, c := range r.When {
		if !c.holds(record) {
			return nil
		}
	}
	v := models.Violation{Kind: r.Kind, Field: r.Field, Message: r.Message}
	if r.AutoFix != nil {
		fix := *r.AutoFix
		v.AutoFix = &fix
	}
	return []models.Violation{v}
}

func (c Condition) holds(record *models.TreatmentRecord) bool {
	if c.Field == FieldVolume {
		return c.holdsNumeric(record.EstimatedVolume)
	}
	values := fieldValues(record, c.Field)
	switch c.Op {
	case OpEmpty:
		return len(values) == 0
	case OpNotEmpty:
		return len(values) > 0
	case OpContainsAny:
		for _, v := range values {
			if _, ok := textnorm.ContainsAny(v, c.Values); ok {
				return true
			}
		}
		return false
	case OpEquals:
		return anyEqual(values, c.Values)
	case OpNotEquals:
		return !anyEqual(values, c.Values)
	default:
		return false
	}
}

func (c Condition) holdsNumeric(n int64) bool {
	switch c.Op {
	case OpGreaterThan:
		limit, err := strconv.ParseInt(c.Values[0], 10, 64)
		return err == nil && n > limit
	case OpEmpty:
		return n <= 0
	case OpNotEmpty:
		return n > 0
	case OpEquals, OpNotEquals:
		eq := anyEqual([]string{strconv.FormatInt(n, 10)}, c.Values)
		return eq == (c.Op == OpEquals)
	default:
		return false
	}
}

func anyEqual(values, wanted []string) bool {
	for _, v := range values {
		fv := textnorm.Fold(strings.TrimSpace(v))
		for _, w := range wanted {
			if fv == textnorm.Fold(strings.TrimSpace(w)) {
				return true
			}
		}
	}
	return false
}

// fieldValues returns the non-empty values of a field as strings.
func fieldValues(record *models.TreatmentRecord, field string) []string {
	var raw []string
	switch field {
	case FieldPurpose:
		raw = []string{record.PurposeText}
	case FieldTechnology:
		raw = []string{record.Technology}
	case FieldLegalBasis:
		raw = []string{string(record.LegalBasis)}
	case FieldResponsibleName:
		raw = []string{record.ResponsibleParty.Name}
	case FieldResponsibleTaxID:
		raw = []string{record.ResponsibleParty.TaxID}
	case FieldCategories:
		raw = record.DataCategories.Flatten()
	case FieldIdentification:
		raw = record.DataCategories.Identification
	case FieldSensitive:
		raw = record.DataCategories.Sensitive
	case FieldSpecial:
		raw = record.DataCategories.Special
	case FieldTechnical:
		raw = record.DataCategories.Technical
	case FieldTransferCountry:
		for _, t := range record.InternationalTransfers {
			raw = append(raw, t.Country)
		}
	case FieldSecurityMeasures:
		raw = record.SecurityMeasures
	}
	out := raw[:0:0]
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
