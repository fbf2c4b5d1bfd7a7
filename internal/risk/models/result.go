package models

import id "custodia/pkg/domain"

// ViolationKind names a cross-field legal consistency failure.
type ViolationKind string

const (
	ViolationMarketingRequiresConsent           ViolationKind = "MARKETING_REQUIRES_CONSENT"
	ViolationHealthDataRequiresSecurityMeasures ViolationKind = "HEALTH_DATA_REQUIRES_SECURITY_MEASURES"
	ViolationTransferRequiresSafeguard          ViolationKind = "TRANSFER_REQUIRES_SAFEGUARD"
)

// AutoFix is a non-binding correction suggestion. The engine never applies
// it; the caller must confirm.
type AutoFix struct {
	Field       string
	Action      string
	Values      []string
	Description string
}

// Violation is an advisory finding from the consistency validator.
type Violation struct {
	Kind    ViolationKind
	Field   string
	Message string
	AutoFix *AutoFix
}

// Recommendation is the handling attached to a duplicate finding.
type Recommendation string

const (
	RecommendationBlock          Recommendation = "BLOCK"
	RecommendationReviewRequired Recommendation = "REVIEW_REQUIRED"
	RecommendationInform         Recommendation = "INFORM"
)

// DimensionBreakdown carries the per-dimension similarity components.
type DimensionBreakdown struct {
	Responsible float64
	Purpose     float64
	Categories  float64
	LegalBasis  float64
}

// DuplicateFinding is ephemeral and never persisted.
type DuplicateFinding struct {
	CandidateID    id.RecordID
	Similarity     float64
	Breakdown      DimensionBreakdown
	Recommendation Recommendation
}

// RemediationStep names an orchestrator step for applied/failed reporting.
type RemediationStep string

const (
	StepAcquireLock       RemediationStep = "acquire_lock"
	StepClaim             RemediationStep = "claim_remediation"
	StepEIPD              RemediationStep = "eipd_artifact"
	StepEIPDTask          RemediationStep = "eipd_task"
	StepNotification      RemediationStep = "notification"
	StepDPIA              RemediationStep = "dpia_artifact"
	StepDPIATask          RemediationStep = "dpia_task"
	StepPriorConsultation RemediationStep = "prior_consultation_alert"
)

// AppliedAction is one effect the orchestrator committed.
type AppliedAction struct {
	Step       RemediationStep
	EntityID   string
	Artifact   *ComplianceArtifact
	Task       *RemediationTask
	Notice     *Notification
	CreatedVia CreatedVia
}

// FailedAction is one effect that could not be committed.
type FailedAction struct {
	Step   RemediationStep
	Reason string
}

// RemediationResult reports partial completion; there is no rollback.
type RemediationResult struct {
	Applied []AppliedAction
	Failed  []FailedAction
	Skipped string
}

// Succeeded reports whether every attempted step committed.
func (r *RemediationResult) Succeeded() bool {
	return r != nil && len(r.Failed) == 0
}

// ArtifactLinks returns applied artifacts of the given type.
func (r *RemediationResult) ArtifactLinks(t ArtifactType) []*ComplianceArtifact {
	if r == nil {
		return nil
	}
	var out []*ComplianceArtifact
	for _, a := range r.Applied {
		if a.Artifact != nil && a.Artifact.Type == t {
			out = append(out, a.Artifact)
		}
	}
	return out
}

// EvaluationResult is the aggregate output of the evaluation facade.
// Remediation is nil when the record was blocked as a near-duplicate.
type EvaluationResult struct {
	Violations  []Violation
	Evaluation  RiskEvaluation
	Policy      Policy
	Duplicates  []DuplicateFinding
	Remediation *RemediationResult
	Degraded    []string
}
