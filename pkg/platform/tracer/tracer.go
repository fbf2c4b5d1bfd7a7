// Package tracer is a small tracing abstraction over OpenTelemetry.
//
// Engine code depends on the Tracer interface only. Implementations:
//   - NoopTracer: tests and the offline CLI
//   - OTelTracer: the global OpenTelemetry provider in the server
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span and marks it failed when err is non-nil.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer starts spans. Implementations must be safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanEvaluate, tracer.String(tracer.AttrTier, "HIGH"))
//	defer span.End(nil)
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute is a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }

func Int(key string, value int) Attribute { return Attribute{Key: key, Value: int64(value)} }

func Int64(key string, value int64) Attribute { return Attribute{Key: key, Value: value} }

func Float64(key string, value float64) Attribute { return Attribute{Key: key, Value: value} }

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Fingerprint hashes an identifier such as a tax ID so spans can be
// correlated without carrying it in clear.
func Fingerprint(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}

// Span names.
const (
	SpanEvaluate       = "risk.evaluate"
	SpanSafeguard      = "risk.safeguard.resolve"
	SpanSafeguardCall  = "risk.safeguard.lookup"
	SpanDuplicateScan  = "risk.duplicates.scan"
	SpanRemediate      = "risk.remediate"
	SpanRemediateStep  = "risk.remediate.step"
	SpanLoadTenantData = "risk.service.load"
)

// Attribute keys.
const (
	AttrRecordID    = "record.id"
	AttrTenantID    = "tenant.id"
	AttrTaxID       = "responsible.tax_id_hash"
	AttrTier        = "risk.tier"
	AttrScore       = "risk.score"
	AttrProviderID  = "safeguard.provider_id"
	AttrCertified   = "safeguard.certified"
	AttrCandidates  = "duplicates.candidates"
	AttrFindings    = "duplicates.findings"
	AttrBlocked     = "duplicates.blocked"
	AttrStep        = "remediation.step"
	AttrCreatedVia  = "remediation.created_via"
	AttrFailedSteps = "remediation.failed_steps"
)
