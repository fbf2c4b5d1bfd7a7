// Package safeguard resolves USA provider certifications for transfer
// scoring. Every failure mode resolves to "not certified", so a broken or
// slow registry can only raise a score, never lower it.
package safeguard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"custodia/internal/risk/metrics"
	"custodia/internal/risk/ports"
	"custodia/internal/risk/scoring"
	"custodia/pkg/platform/tracer"
)

const (
	DefaultTimeout = 2 * time.Second
	// maxConcurrentLookups bounds fan-out for records with many providers.
	maxConcurrentLookups = 8
)

// Resolver runs certification lookups concurrently under one deadline.
type Resolver struct {
	lookup  ports.SafeguardLookup
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

type Option func(*Resolver)

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Resolver) { r.tracer = t }
}

// NewResolver wraps lookup. A nil lookup resolves every provider as uncertified.
func NewResolver(lookup ports.SafeguardLookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:  lookup,
		timeout: DefaultTimeout,
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Resolve looks up every provider and returns once all answered or the
// deadline passed, whichever comes first. Unanswered providers are absent
// from the result, which the scorer reads as uncertified.
func (r *Resolver) Resolve(ctx context.Context, providerIDs []string) scoring.Certifications {
	certs := make(scoring.Certifications, len(providerIDs))
	if len(providerIDs) == 0 || r.lookup == nil {
		return certs
	}
	ctx, span := r.tracer.Start(ctx, tracer.SpanSafeguard, tracer.Int("safeguard.providers", len(providerIDs)))
	defer span.End(nil)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(maxConcurrentLookups)
	for _, providerID := range providerIDs {
		g.Go(func() error {
			certified := r.lookupOne(ctx, providerID)
			mu.Lock()
			certs[providerID] = certified
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // lookups never return errors; failures resolve to false
	return certs
}

type lookupOutcome struct {
	certified bool
	err       error
}

// lookupOne bounds a single lookup by ctx even when the lookup ignores it.
func (r *Resolver) lookupOne(ctx context.Context, providerID string) bool {
	start := time.Now()
	done := make(chan lookupOutcome, 1)
	go func() {
		ok, err := r.lookup.HasCertifiedSafeguard(ctx, providerID)
		done <- lookupOutcome{certified: ok, err: err}
	}()

	var out lookupOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out.err = ctx.Err()
	}

	outcome := metrics.LookupUncertified
	switch {
	case errors.Is(out.err, context.DeadlineExceeded):
		outcome = metrics.LookupTimeout
	case out.err != nil:
		outcome = metrics.LookupError
	case out.certified:
		outcome = metrics.LookupCertified
	}
	if r.metrics != nil {
		r.metrics.ObserveSafeguardLookup(outcome, time.Since(start))
	}
	if out.err != nil {
		r.logger.WarnContext(ctx, "safeguard lookup failed; scoring as uncertified",
			"provider_id", providerID,
			"outcome", outcome,
			"error", out.err,
		)
		return false
	}
	return out.certified
}
