package similarity

import (
	"sort"

	"custodia/internal/risk/models"
)

// Recommendation thresholds, exclusive. Higher confidence never gets looser handling.
const (
	BlockThreshold  = 0.95
	ReviewThreshold = 0.8
	InformThreshold = 0.6
)

// Recommend maps a score to its handling, or "" when it is below InformThreshold.
func Recommend(score float64) models.Recommendation {
	switch {
	case score > BlockThreshold:
		return models.RecommendationBlock
	case score > ReviewThreshold:
		return models.RecommendationReviewRequired
	case score > InformThreshold:
		return models.RecommendationInform
	default:
		return ""
	}
}

// FindDuplicates compares record against every candidate and returns the
// findings above InformThreshold, highest score first. The record itself is
// skipped when it appears among the candidates.
func FindDuplicates(record *models.TreatmentRecord, candidates []*models.TreatmentRecord) []models.DuplicateFinding {
	return scan(record, candidates, false)
}

// FindDuplicatesUntilBlock is FindDuplicates with early termination: the scan
// stops at the first BLOCK finding. Findings gathered so far are returned.
func FindDuplicatesUntilBlock(record *models.TreatmentRecord, candidates []*models.TreatmentRecord) []models.DuplicateFinding {
	return scan(record, candidates, true)
}

// HasBlock reports whether any finding carries a BLOCK recommendation.
func HasBlock(findings []models.DuplicateFinding) bool {
	for _, f := range findings {
		if f.Recommendation == models.RecommendationBlock {
			return true
		}
	}
	return false
}

func scan(record *models.TreatmentRecord, candidates []*models.TreatmentRecord, stopOnBlock bool) []models.DuplicateFinding {
	if record == nil {
		return nil
	}
	self := newProfile(record)
	var findings []models.DuplicateFinding
	for _, c := range candidates {
		if c == nil || c.ID == record.ID {
			continue
		}
		res := compare(self, newProfile(c))
		rec := Recommend(res.Score)
		if rec == "" {
			continue
		}
		findings = append(findings, models.DuplicateFinding{
			CandidateID:    c.ID,
			Similarity:     res.Score,
			Breakdown:      res.Breakdown,
			Recommendation: rec,
		})
		if stopOnBlock && rec == models.RecommendationBlock {
			break
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Similarity != findings[j].Similarity {
			return findings[i].Similarity > findings[j].Similarity
		}
		return findings[i].CandidateID.String() < findings[j].CandidateID.String()
	})
	return findings
}
