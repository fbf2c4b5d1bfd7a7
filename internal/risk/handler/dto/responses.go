package dto

import (
	"time"

	"custodia/internal/risk/models"
	"custodia/internal/risk/similarity"
)

// EvaluationResponse is returned by both evaluation endpoints.
type EvaluationResponse struct {
	Evaluation  Evaluation   `json:"evaluation"`
	Policy      Policy       `json:"policy"`
	Violations  []Violation  `json:"violations"`
	Duplicates  []Duplicate  `json:"duplicates"`
	Remediation *Remediation `json:"remediation,omitempty"`
	Degraded    []string     `json:"degraded,omitempty"`
}

type Subscores struct {
	Categories int `json:"categories"`
	Purpose    int `json:"purpose"`
	Transfers  int `json:"transfers"`
	Volume     int `json:"volume"`
	Technology int `json:"technology"`
}

type Evaluation struct {
	ID             string    `json:"id"`
	RecordID       string    `json:"record_id"`
	TenantID       string    `json:"tenant_id"`
	Subscores      Subscores `json:"subscores"`
	TotalScore     int       `json:"total_score"`
	Tier           string    `json:"tier"`
	Blocked        bool      `json:"blocked"`
	WeightsVersion string    `json:"weights_version"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
}

type Policy struct {
	Tier                      string `json:"tier"`
	RequiresEIPD              bool   `json:"requires_eipd"`
	RequiresDPIA              bool   `json:"requires_dpia"`
	RequiresPriorConsultation bool   `json:"requires_prior_consultation"`
	ReviewCadenceDays         int    `json:"review_cadence_days"`
	TaskDeadlineDays          int    `json:"task_deadline_days,omitempty"`
	Escalation                string `json:"escalation"`
}

type AutoFix struct {
	Field       string   `json:"field"`
	Action      string   `json:"action"`
	Values      []string `json:"values,omitempty"`
	Description string   `json:"description"`
}

type Violation struct {
	Kind    string   `json:"kind"`
	Field   string   `json:"field"`
	Message string   `json:"message"`
	AutoFix *AutoFix `json:"auto_fix,omitempty"`
}

type Breakdown struct {
	Responsible float64 `json:"responsible"`
	Purpose     float64 `json:"purpose"`
	Categories  float64 `json:"categories"`
	LegalBasis  float64 `json:"legal_basis"`
}

type Duplicate struct {
	CandidateID    string    `json:"candidate_id"`
	Similarity     float64   `json:"similarity"`
	Breakdown      Breakdown `json:"breakdown"`
	Recommendation string    `json:"recommendation"`
}

type Remediation struct {
	Applied []Applied `json:"applied"`
	Failed  []Failed  `json:"failed"`
	Skipped string    `json:"skipped,omitempty"`
}

type Applied struct {
	Step       string    `json:"step"`
	EntityID   string    `json:"entity_id"`
	CreatedVia string    `json:"created_via,omitempty"`
	Artifact   *Artifact `json:"artifact,omitempty"`
	Task       *Task     `json:"task,omitempty"`
}

type Artifact struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	SourceArtifactID string `json:"source_artifact_id,omitempty"`
}

type Task struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Priority string    `json:"priority"`
	Severity string    `json:"severity"`
	DueDate  time.Time `json:"due_date"`
}

type Failed struct {
	Step   string `json:"step"`
	Reason string `json:"reason"`
}

// HistoryResponse lists a record's evaluations, oldest first.
type HistoryResponse struct {
	RecordID    string       `json:"record_id"`
	Evaluations []Evaluation `json:"evaluations"`
}

// SimilarityResponse is returned by POST /v1/similarity. Recommendation is
// empty below the inform threshold.
type SimilarityResponse struct {
	Similarity     float64   `json:"similarity"`
	Breakdown      Breakdown `json:"breakdown"`
	Recommendation string    `json:"recommendation,omitempty"`
}

func ToEvaluationResponse(r *models.EvaluationResult) *EvaluationResponse {
	resp := &EvaluationResponse{
		Evaluation: ToEvaluation(&r.Evaluation),
		Policy:     ToPolicy(r.Policy),
		Violations: make([]Violation, 0, len(r.Violations)),
		Duplicates: make([]Duplicate, 0, len(r.Duplicates)),
		Degraded:   r.Degraded,
	}
	for _, v := range r.Violations {
		resp.Violations = append(resp.Violations, ToViolation(v))
	}
	for _, d := range r.Duplicates {
		resp.Duplicates = append(resp.Duplicates, Duplicate{
			CandidateID:    d.CandidateID.String(),
			Similarity:     d.Similarity,
			Breakdown:      Breakdown(d.Breakdown),
			Recommendation: string(d.Recommendation),
		})
	}
	if r.Remediation != nil {
		resp.Remediation = toRemediation(r.Remediation)
	}
	return resp
}

func ToEvaluation(e *models.RiskEvaluation) Evaluation {
	return Evaluation{
		ID:       e.ID.String(),
		RecordID: e.RecordID.String(),
		TenantID: e.TenantID.String(),
		Subscores: Subscores{
			Categories: e.Subscores.Categories,
			Purpose:    e.Subscores.Purpose,
			Transfers:  e.Subscores.Transfers,
			Volume:     e.Subscores.Volume,
			Technology: e.Subscores.Technology,
		},
		TotalScore:     e.TotalScore,
		Tier:           string(e.Tier),
		Blocked:        e.Blocked,
		WeightsVersion: e.WeightsVersion,
		EvaluatedAt:    e.EvaluatedAt,
	}
}

func ToHistoryResponse(recordID string, history []*models.RiskEvaluation) *HistoryResponse {
	resp := &HistoryResponse{RecordID: recordID, Evaluations: make([]Evaluation, 0, len(history))}
	for _, e := range history {
		resp.Evaluations = append(resp.Evaluations, ToEvaluation(e))
	}
	return resp
}

func ToSimilarityResponse(r similarity.Result) *SimilarityResponse {
	return &SimilarityResponse{
		Similarity:     r.Score,
		Breakdown:      Breakdown(r.Breakdown),
		Recommendation: string(similarity.Recommend(r.Score)),
	}
}

func ToPolicy(p models.Policy) Policy {
	return Policy{
		Tier:                      string(p.Tier),
		RequiresEIPD:              p.RequiresEIPD,
		RequiresDPIA:              p.RequiresDPIA,
		RequiresPriorConsultation: p.RequiresPriorConsultation,
		ReviewCadenceDays:         p.ReviewCadenceDays,
		TaskDeadlineDays:          p.TaskDeadlineDays,
		Escalation:                string(p.Escalation),
	}
}

func ToViolation(v models.Violation) Violation {
	out := Violation{Kind: string(v.Kind), Field: v.Field, Message: v.Message}
	if v.AutoFix != nil {
		fix := AutoFix(*v.AutoFix)
		out.AutoFix = &fix
	}
	return out
}

func toRemediation(r *models.RemediationResult) *Remediation {
	out := &Remediation{
		Applied: make([]Applied, 0, len(r.Applied)),
		Failed:  make([]Failed, 0, len(r.Failed)),
		Skipped: r.Skipped,
	}
	for _, a := range r.Applied {
		applied := Applied{Step: string(a.Step), EntityID: a.EntityID, CreatedVia: string(a.CreatedVia)}
		if a.Artifact != nil {
			applied.Artifact = &Artifact{
				ID:     a.Artifact.ID.String(),
				Type:   string(a.Artifact.Type),
				Status: string(a.Artifact.Status),
			}
			if a.Artifact.SourceArtifactID != nil {
				applied.Artifact.SourceArtifactID = a.Artifact.SourceArtifactID.String()
			}
		}
		if a.Task != nil {
			applied.Task = &Task{
				ID:       a.Task.ID.String(),
				Kind:     string(a.Task.Kind),
				Priority: string(a.Task.Priority),
				Severity: string(a.Task.Severity),
				DueDate:  a.Task.DueDate,
			}
		}
		out.Applied = append(out.Applied, applied)
	}
	for _, f := range r.Failed {
		out.Failed = append(out.Failed, Failed{Step: string(f.Step), Reason: f.Reason})
	}
	return out
}
