package models

import (
	"time"

	id "custodia/pkg/domain"
)

// ArtifactType enumerates impact-assessment document kinds.
type ArtifactType string

const (
	ArtifactEIPD ArtifactType = "EIPD"
	ArtifactDPIA ArtifactType = "DPIA"
)

// ArtifactStatus is advanced only by the external DPO workflow.
type ArtifactStatus string

const (
	ArtifactDraft         ArtifactStatus = "draft"
	ArtifactPendingReview ArtifactStatus = "pending_review"
	ArtifactApproved      ArtifactStatus = "approved"
)

// CreatedVia records whether an artifact link was generated or reused.
type CreatedVia string

const (
	CreatedViaNew    CreatedVia = "new"
	CreatedViaReused CreatedVia = "reused"
)

// ArtifactScope snapshots the record content an artifact was written for,
// so later records can be matched against it for reuse.
type ArtifactScope struct {
	PurposeText string
	Categories  DataCategories
}

// ComplianceArtifact is an impact assessment linked to a record.
type ComplianceArtifact struct {
	ID               id.ArtifactID
	TenantID         id.TenantID
	RecordID         id.RecordID
	Type             ArtifactType
	Status           ArtifactStatus
	CreatedVia       CreatedVia
	SourceArtifactID *id.ArtifactID
	Scope            ArtifactScope
	CreatedAt        time.Time
}

// TaskKind enumerates remediation work items.
type TaskKind string

const (
	TaskCompleteEIPD      TaskKind = "complete_eipd"
	TaskCompleteDPIA      TaskKind = "complete_dpia"
	TaskPriorConsultation TaskKind = "prior_consultation"
)

// TaskPriority orders remediation tasks for reviewers.
type TaskPriority string

const (
	PriorityHigh     TaskPriority = "HIGH"
	PriorityCritical TaskPriority = "CRITICAL"
)

// TaskSeverity distinguishes system alerts from ordinary work items.
type TaskSeverity string

const (
	SeverityNormal TaskSeverity = "normal"
	SeverityHigh   TaskSeverity = "high"
)

// TaskStatus is the lifecycle state of a remediation task.
type TaskStatus string

const (
	TaskOpen TaskStatus = "open"
)

// RemediationTask is a work item created by the orchestrator.
type RemediationTask struct {
	ID         id.TaskID
	TenantID   id.TenantID
	RecordID   id.RecordID
	ArtifactID *id.ArtifactID
	Kind       TaskKind
	Priority   TaskPriority
	Severity   TaskSeverity
	DueDate    time.Time
	Status     TaskStatus
	CreatedAt  time.Time
}

// RecipientComplianceReview is the role every remediation summary is addressed to.
const RecipientComplianceReview = "compliance_review"

// Notification summarizes a tier assignment for human reviewers.
type Notification struct {
	ID        id.NotificationID
	TenantID  id.TenantID
	RecordID  id.RecordID
	Recipient string
	Tier      Tier
	Subject   string
	Body      string
	CreatedAt time.Time
}
