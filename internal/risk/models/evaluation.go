package models

import (
	"time"

	id "custodia/pkg/domain"
)

// Subscores holds the five independent scoring dimensions.
type Subscores struct {
	Categories int
	Purpose    int
	Transfers  int
	Volume     int
	Technology int
}

// Total sums every dimension. No dimension clips another.
func (s Subscores) Total() int {
	return s.Categories + s.Purpose + s.Transfers + s.Volume + s.Technology
}

// RiskEvaluation is the immutable output of one evaluation run. A
// re-evaluation produces a new value; history is append-only.
type RiskEvaluation struct {
	ID             id.EvaluationID
	RecordID       id.RecordID
	TenantID       id.TenantID
	Subscores      Subscores
	TotalScore     int
	Tier           Tier
	Blocked        bool
	WeightsVersion string
	EvaluatedAt    time.Time
}
