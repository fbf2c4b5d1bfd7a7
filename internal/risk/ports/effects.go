package ports

import (
	"context"

	"custodia/internal/risk/models"
	id "custodia/pkg/domain"
)

// NotificationSink delivers reviewer notifications.
type NotificationSink interface {
	Send(ctx context.Context, notification *models.Notification) (id.NotificationID, error)
}

// SafeguardLookup answers whether a USA provider holds a certified safeguard.
// Callers treat any error, including a timeout, as "not certified".
type SafeguardLookup interface {
	HasCertifiedSafeguard(ctx context.Context, providerID string) (bool, error)
}

// Locker serializes remediation per record. The returned release func must
// be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, recordID id.RecordID) (release func(), err error)
}

// ClaimStore enforces one active remediation per record and tier.
type ClaimStore interface {
	// Claim returns sentinel.ErrAlreadyExists when the pair is already claimed.
	Claim(ctx context.Context, recordID id.RecordID, tier models.Tier) error
	// Release returns sentinel.ErrNotFound when no claim exists.
	Release(ctx context.Context, recordID id.RecordID, tier models.Tier) error
}
