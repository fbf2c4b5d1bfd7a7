// Package scoring computes the additive multi-dimensional risk score of a
// treatment record. Scoring is pure: the only external input, USA provider
// certification, is resolved beforehand and passed in as Certifications.
package scoring

import (
	"custodia/internal/risk/models"
	"custodia/pkg/platform/textnorm"
)

// Certifications maps provider IDs to their certified-safeguard status.
// A provider missing from the map is treated as uncertified.
type Certifications map[string]bool

// Scorer applies a fixed set of weight tables. It holds no mutable state and
// is safe for concurrent use.
type Scorer struct {
	weights   Weights
	countries *countryIndex
}

// NewScorer builds a scorer over validated weights.
func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w, countries: newCountryIndex(w.Countries)}, nil
}

// MustNewScorer is NewScorer for weights known to be valid, such as DefaultWeights.
func MustNewScorer(w Weights) *Scorer {
	s, err := NewScorer(w)
	if err != nil {
		panic("scoring.MustNewScorer: " + err.Error())
	}
	return s
}

// Version identifies the weight tables in effect, for audit replay.
func (s *Scorer) Version() string {
	return s.weights.Version
}

// Score computes the five sub-scores. Dimensions are independent and additive.
func (s *Scorer) Score(record *models.TreatmentRecord, certs Certifications) models.Subscores {
	return models.Subscores{
		Categories: s.ScoreCategories(record.DataCategories),
		Purpose:    s.ScorePurpose(record.PurposeText),
		Transfers:  s.ScoreTransfers(record.InternationalTransfers, certs),
		Volume:     s.ScoreVolume(record.EstimatedVolume),
		Technology: s.ScoreTechnology(record.Technology),
	}
}

// ScoreCategories multiplies each set's tag count by its weight.
func (s *Scorer) ScoreCategories(c models.DataCategories) int {
	w := s.weights.Categories
	return len(c.Identification)*w.Identification +
		len(c.Sensitive)*w.Sensitive +
		len(c.Special)*w.Special +
		len(c.Technical)*w.Technical
}

// ScorePurpose returns the points of the first matching purpose archetype.
// Absence of a purpose is not absence of risk: unmatched or empty text
// scores the default.
func (s *Scorer) ScorePurpose(text string) int {
	if a, ok := matchArchetype(text, s.weights.Purposes); ok {
		return a.Points
	}
	return s.weights.PurposeDefault
}

// ScoreTechnology returns the points of the first matching technology archetype.
func (s *Scorer) ScoreTechnology(text string) int {
	if a, ok := matchArchetype(text, s.weights.Technologies); ok {
		return a.Points
	}
	return s.weights.TechnologyDefault
}

// PurposeArchetype names the archetype that scored the purpose, or "" for the default.
func (s *Scorer) PurposeArchetype(text string) string {
	a, _ := matchArchetype(text, s.weights.Purposes)
	return a.Name
}

// ScoreTransfers sums the destination weight of every transfer. USA
// destinations score the with-safeguard weight only when the provider is
// certified in certs; otherwise the higher weight applies.
func (s *Scorer) ScoreTransfers(transfers []models.Transfer, certs Certifications) int {
	w := s.weights.Transfers
	total := 0
	for _, t := range transfers {
		switch s.countries.classify(t.Country) {
		case CountryDomestic:
			total += w.Domestic
		case CountryEU:
			total += w.EU
		case CountryAdequacy:
			total += w.Adequacy
		case CountryUSA:
			if t.ProviderID != "" && certs[t.ProviderID] {
				total += w.USAWithSafeguard
			} else {
				total += w.USAWithoutSafeguard
			}
		case CountrySimilarFramework:
			total += w.SimilarFramework
		default:
			total += w.NoFramework
		}
	}
	return total
}

// ScoreVolume buckets the estimated number of data subjects.
// Negative volumes are treated as zero.
func (s *Scorer) ScoreVolume(volume int64) int {
	if volume < 0 {
		volume = 0
	}
	buckets := s.weights.Volume
	for _, b := range buckets[:len(buckets)-1] {
		if volume < b.Below {
			return b.Points
		}
	}
	return buckets[len(buckets)-1].Points
}

// ClassifyCountry exposes the destination tier of a country name or code.
func (s *Scorer) ClassifyCountry(country string) CountryTier {
	return s.countries.classify(country)
}

// CertificationLookups returns the distinct provider IDs whose certification
// affects this record's transfer score. Only USA destinations need a lookup.
func (s *Scorer) CertificationLookups(record *models.TreatmentRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range record.InternationalTransfers {
		if t.ProviderID == "" || s.countries.classify(t.Country) != CountryUSA {
			continue
		}
		if _, ok := seen[t.ProviderID]; ok {
			continue
		}
		seen[t.ProviderID] = struct{}{}
		out = append(out, t.ProviderID)
	}
	return out
}

func matchArchetype(text string, list []Archetype) (Archetype, bool) {
	if text == "" {
		return Archetype{}, false
	}
	folded := textnorm.Fold(text)
	for _, a := range list {
		if _, ok := textnorm.ContainsAny(folded, a.Keywords); ok {
			return a, true
		}
	}
	return Archetype{}, false
}
