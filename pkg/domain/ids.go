// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "custodia/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a RecordID where a TenantID is expected.
type (
	TenantID       uuid.UUID
	RecordID       uuid.UUID
	EvaluationID   uuid.UUID
	ArtifactID     uuid.UUID
	TaskID         uuid.UUID
	NotificationID uuid.UUID
)

// Parse functions - use at trust boundaries (handlers, CLI input).

func ParseTenantID(s string) (TenantID, error) {
	id, err := parseUUID(s, "tenant ID")
	return TenantID(id), err
}

func ParseRecordID(s string) (RecordID, error) {
	id, err := parseUUID(s, "record ID")
	return RecordID(id), err
}

func ParseEvaluationID(s string) (EvaluationID, error) {
	id, err := parseUUID(s, "evaluation ID")
	return EvaluationID(id), err
}

func ParseArtifactID(s string) (ArtifactID, error) {
	id, err := parseUUID(s, "artifact ID")
	return ArtifactID(id), err
}

// New functions - generated identifiers for engine-created entities.

func NewEvaluationID() EvaluationID     { return EvaluationID(uuid.New()) }
func NewArtifactID() ArtifactID         { return ArtifactID(uuid.New()) }
func NewTaskID() TaskID                 { return TaskID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// String methods - for logging and debugging.

func (id TenantID) String() string       { return uuid.UUID(id).String() }
func (id RecordID) String() string       { return uuid.UUID(id).String() }
func (id EvaluationID) String() string   { return uuid.UUID(id).String() }
func (id ArtifactID) String() string     { return uuid.UUID(id).String() }
func (id TaskID) String() string         { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

// IsNil checks - used for service-layer validation.

func (id TenantID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id EvaluationID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ArtifactID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TaskID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// parseUUID is the shared validation logic. Nil UUIDs are rejected: every
// identifier crossing a trust boundary must name a real entity.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
