package safeguard

import (
	"context"
	"fmt"
	"log/slog"

	"custodia/internal/risk/ports"
	"custodia/internal/sentinel"
	"custodia/pkg/platform/circuit"
)

// Breaker short-circuits lookups while the registry keeps failing.
type Breaker struct {
	next    ports.SafeguardLookup
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreaker(next ports.SafeguardLookup, b *circuit.Breaker, logger *slog.Logger) *Breaker {
	if next == nil {
		panic("safeguard.NewBreaker: lookup is required")
	}
	if b == nil {
		b = circuit.New("safeguard")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Breaker{next: next, breaker: b, logger: logger}
}

// HasCertifiedSafeguard returns sentinel.ErrUnavailable without calling the
// registry while the circuit is open.
func (b *Breaker) HasCertifiedSafeguard(ctx context.Context, providerID string) (bool, error) {
	if !b.breaker.Allow() {
		return false, fmt.Errorf("%s circuit open: %w", b.breaker.Name(), sentinel.ErrUnavailable)
	}
	ok, err := b.next.HasCertifiedSafeguard(ctx, providerID)
	if err != nil {
		if change := b.breaker.RecordFailure(); change.Opened {
			b.logger.WarnContext(ctx, "safeguard circuit opened", "breaker", b.breaker.Name(), "error", err)
		}
		return false, err
	}
	if change := b.breaker.RecordSuccess(); change.Closed {
		b.logger.InfoContext(ctx, "safeguard circuit closed", "breaker", b.breaker.Name())
	}
	return ok, nil
}
