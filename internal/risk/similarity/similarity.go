// Package similarity compares treatment records lexically. It backs both
// duplicate detection across a tenant's records and reuse matching against
// approved impact assessments.
package similarity

import (
	"math"
	"strings"
	"unicode/utf8"

	"custodia/internal/risk/models"
	"custodia/pkg/platform/textnorm"
)

// Dimension weights. They sum to 1 so the score stays in [0,1].
const (
	weightResponsible = 0.3
	weightPurpose     = 0.4
	weightCategories  = 0.2
	weightLegalBasis  = 0.1
)

// minTokenLen excludes short words; only tokens longer than this count.
const minTokenLen = 3

// precision is the rounding grain of reported scores. Without it, float
// summation of the weights makes a self-comparison report 0.9999999999999999.
const precision = 1e6

var stopWords = map[string]struct{}{
	// es
	"para": {}, "como": {}, "este": {}, "esta": {}, "estos": {}, "estas": {}, "sobre": {},
	"entre": {}, "desde": {}, "hasta": {}, "donde": {}, "cuando": {}, "todos": {}, "todas": {},
	"otros": {}, "otras": {}, "mediante": {}, "segun": {}, "cual": {}, "cuales": {}, "sera": {},
	"seran": {}, "tambien": {}, "parte": {}, "datos": {}, "personales": {}, "fines": {},
	// en
	"with": {}, "from": {}, "that": {}, "this": {}, "these": {}, "those": {}, "into": {},
	"their": {}, "which": {}, "will": {}, "have": {}, "been": {}, "data": {}, "personal": {},
}

// Result is a pairwise similarity with its per-dimension components.
type Result struct {
	Score     float64
	Breakdown models.DimensionBreakdown
}

// profile is the normalized form of a record used for comparisons.
type profile struct {
	taxID      string
	purpose    map[string]struct{}
	categories map[string]struct{}
	basis      models.LegalBasis
}

func newProfile(r *models.TreatmentRecord) profile {
	return profile{
		taxID:      NormalizeTaxID(r.ResponsibleParty.TaxID),
		purpose:    PurposeTokens(r.PurposeText),
		categories: textnorm.TagSet(r.DataCategories.Flatten()),
		basis:      r.LegalBasis,
	}
}

// Similarity scores two records. It is symmetric, bounded to [0,1], and
// reflexive for records that declare a tax ID, a purpose and a legal basis.
func Similarity(a, b *models.TreatmentRecord) Result {
	return compare(newProfile(a), newProfile(b))
}

func compare(a, b profile) Result {
	bd := models.DimensionBreakdown{
		Purpose:    jaccard(a.purpose, b.purpose, 0),
		Categories: jaccard(a.categories, b.categories, 1),
	}
	if a.taxID != "" && a.taxID == b.taxID {
		bd.Responsible = 1
	}
	if a.basis != "" && a.basis == b.basis {
		bd.LegalBasis = 1
	}
	score := weightResponsible*bd.Responsible +
		weightPurpose*bd.Purpose +
		weightCategories*bd.Categories +
		weightLegalBasis*bd.LegalBasis
	return Result{Score: round(score), Breakdown: bd}
}

// NormalizeTaxID strips separators and uppercases, so "12.345.678-k" and
// "12345678K" compare equal.
func NormalizeTaxID(taxID string) string {
	var b strings.Builder
	for _, r := range taxID {
		switch r {
		case '.', '-', ' ', '\t', '/':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// PurposeTokens returns the folded alphabetic words of text longer than
// three characters, minus stop-words.
func PurposeTokens(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range textnorm.Words(text) {
		if utf8.RuneCountInString(w) <= minTokenLen {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// jaccard is |a∩b| / |a∪b|, with bothEmpty returned when neither set has members.
func jaccard(a, b map[string]struct{}, bothEmpty float64) float64 {
	if len(a) == 0 && len(b) == 0 {
		return bothEmpty
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func round(v float64) float64 {
	v = math.Round(v*precision) / precision
	return math.Max(0, math.Min(1, v))
}
