package validation

import (
	"fmt"
	"unicode/utf8"

	dErrors "custodia/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed request body size (256 KB).
	// A treatment record with its category sets fits well below it.
	MaxBodySize = 256 * 1024
)

// Slice element count limits
const (
	// MaxCategoryTags is the maximum number of tags in one data category set.
	MaxCategoryTags = 100

	// MaxTransfers is the maximum number of international transfers per record.
	MaxTransfers = 50

	// MaxSecurityMeasures is the maximum number of declared safeguards per record.
	MaxSecurityMeasures = 50
)

// String element length limits
const (
	// MaxPurposeLength bounds the free-text purpose fed to the similarity engine.
	MaxPurposeLength = 4000

	// MaxNameLength is the maximum length of a responsible party name.
	MaxNameLength = 300

	// MaxTaxIDLength is the maximum length of a tax identifier.
	MaxTaxIDLength = 32

	// MaxTagLength is the maximum length of a category tag or security measure.
	MaxTagLength = 100

	// MaxTechnologyLength is the maximum length of the technology label.
	MaxTechnologyLength = 100

	// MaxCountryLength is the maximum length of a transfer country.
	MaxCountryLength = 64

	// MaxProviderIDLength is the maximum length of a transfer provider identifier.
	MaxProviderIDLength = 128
)

// Sizes runs bounded-size checks in order and keeps the first failure.
// Field names are wire paths so the failure can be pointed at in the request.
//
//	err := validation.NewSizes().
//		Text("purpose_text", r.PurposeText, validation.MaxPurposeLength).
//		Count("international_transfers", len(r.InternationalTransfers), validation.MaxTransfers).
//		Err()
type Sizes struct {
	err error
}

func NewSizes() *Sizes {
	return &Sizes{}
}

// Text bounds a string by characters, not bytes: purposes are written in
// languages with accented letters.
func (s *Sizes) Text(field, value string, max int) *Sizes {
	if s.err == nil && utf8.RuneCountInString(value) > max {
		s.err = dErrors.Invalid(field, "%s exceeds max length of %d", field, max)
	}
	return s
}

func (s *Sizes) Count(field string, n, max int) *Sizes {
	if s.err == nil && n > max {
		s.err = dErrors.Invalid(field, "too many %s: max %d allowed", field, max)
	}
	return s
}

// Each bounds every element of values and names the first offender by index.
func (s *Sizes) Each(field string, values []string, max int) *Sizes {
	for i, v := range values {
		if s.err != nil {
			break
		}
		s.Text(fmt.Sprintf("%s[%d]", field, i), v, max)
	}
	return s
}

func (s *Sizes) Err() error {
	return s.err
}
