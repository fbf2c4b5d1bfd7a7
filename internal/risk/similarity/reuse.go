package similarity

import (
	"custodia/internal/risk/models"
	"custodia/pkg/platform/textnorm"
)

// DefaultReuseThreshold is the relevance an approved artifact must exceed
// to be linked instead of drafting a new one.
const DefaultReuseThreshold = 0.8

// Relevance scores how well an artifact's scope covers a record:
// 0.6 category overlap plus 0.4 purpose overlap.
func Relevance(record *models.TreatmentRecord, scope models.ArtifactScope) float64 {
	cat := jaccard(
		textnorm.TagSet(record.DataCategories.Flatten()),
		textnorm.TagSet(scope.Categories.Flatten()),
		1,
	)
	purpose := jaccard(PurposeTokens(record.PurposeText), PurposeTokens(scope.PurposeText), 0)
	return round(0.6*cat + 0.4*purpose)
}

// BestReuse picks the most relevant approved artifact of type t whose
// relevance exceeds threshold. Ties go to the artifact listed first.
// Links created by earlier reuse carry the source's status but are not
// assessments themselves; only originals are candidates, so every link
// points straight at an approved assessment.
func BestReuse(record *models.TreatmentRecord, artifacts []*models.ComplianceArtifact, t models.ArtifactType, threshold float64) (*models.ComplianceArtifact, float64, bool) {
	var (
		best      *models.ComplianceArtifact
		bestScore float64
	)
	for _, a := range artifacts {
		if a == nil || a.Type != t || a.Status != models.ArtifactApproved {
			continue
		}
		if a.CreatedVia == models.CreatedViaReused {
			continue
		}
		if a.TenantID != record.TenantID {
			continue
		}
		score := Relevance(record, a.Scope)
		if score > threshold && (best == nil || score > bestScore) {
			best, bestScore = a, score
		}
	}
	return best, bestScore, best != nil
}
