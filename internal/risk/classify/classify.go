// Package classify maps a total risk score to a tier and its policy.
// Thresholds are fixed so any stored score re-derives the same tier.
package classify

import "custodia/internal/risk/models"

// PriorConsultationDeadlineDays bounds the alert raised for tiers requiring
// prior consultation with the supervisory authority.
const PriorConsultationDeadlineDays = 5

// Upper score bounds, inclusive. Anything above highMax is CRITICAL.
const (
	minimalMax = 5
	lowMax     = 12
	mediumMax  = 20
	highMax    = 30
)

var policies = map[models.Tier]models.Policy{
	models.TierMinimal: {
		Tier:              models.TierMinimal,
		ReviewCadenceDays: 365,
		Escalation:        models.EscalationNone,
	},
	models.TierLow: {
		Tier:              models.TierLow,
		ReviewCadenceDays: 180,
		Escalation:        models.EscalationNone,
	},
	models.TierMedium: {
		Tier:              models.TierMedium,
		ReviewCadenceDays: 90,
		TaskDeadlineDays:  30,
		Escalation:        models.EscalationNone,
	},
	models.TierHigh: {
		Tier:              models.TierHigh,
		RequiresEIPD:      true,
		ReviewCadenceDays: 60,
		TaskDeadlineDays:  15,
		Escalation:        models.EscalationDPO,
	},
	models.TierCritical: {
		Tier:                      models.TierCritical,
		RequiresEIPD:              true,
		RequiresDPIA:              true,
		RequiresPriorConsultation: true,
		ReviewCadenceDays:         30,
		TaskDeadlineDays:          10,
		Escalation:                models.EscalationExecutive,
	},
}

// Classify returns the tier for a total score and the policy bound to it.
// Negative scores cannot come out of the scorer and are treated as zero.
func Classify(totalScore int) (models.Tier, models.Policy) {
	tier := TierFor(totalScore)
	return tier, policies[tier]
}

// TierFor applies the inclusive thresholds 5, 12, 20 and 30.
func TierFor(totalScore int) models.Tier {
	switch {
	case totalScore <= minimalMax:
		return models.TierMinimal
	case totalScore <= lowMax:
		return models.TierLow
	case totalScore <= mediumMax:
		return models.TierMedium
	case totalScore <= highMax:
		return models.TierHigh
	default:
		return models.TierCritical
	}
}

// PolicyFor returns the policy of a tier. Unknown tiers get the MINIMAL policy
// with the tier name preserved, so nothing is ever remediated for them.
func PolicyFor(tier models.Tier) models.Policy {
	if p, ok := policies[tier]; ok {
		return p
	}
	p := policies[models.TierMinimal]
	p.Tier = tier
	return p
}
