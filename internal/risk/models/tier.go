package models

// Tier is the discrete risk class assigned to a treatment record.
type Tier string

const (
	TierMinimal  Tier = "MINIMAL"
	TierLow      Tier = "LOW"
	TierMedium   Tier = "MEDIUM"
	TierHigh     Tier = "HIGH"
	TierCritical Tier = "CRITICAL"
)

// Tiers lists every tier from lowest to highest risk.
var Tiers = []Tier{TierMinimal, TierLow, TierMedium, TierHigh, TierCritical}

// ParseTier accepts a tier name as stored or sent over the wire.
func ParseTier(s string) (Tier, bool) {
	for _, t := range Tiers {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// IsElevated reports whether the tier requires a linked impact assessment.
func (t Tier) IsElevated() bool {
	return t == TierHigh || t == TierCritical
}

// Escalation names who must be involved once a tier is assigned.
type Escalation string

const (
	EscalationNone      Escalation = "none"
	EscalationDPO       Escalation = "dpo"
	EscalationExecutive Escalation = "executive"
)

// Policy is the remediation contract statically bound to a tier.
type Policy struct {
	Tier                      Tier
	RequiresEIPD              bool
	RequiresDPIA              bool
	RequiresPriorConsultation bool
	ReviewCadenceDays         int
	TaskDeadlineDays          int
	Escalation                Escalation
}
