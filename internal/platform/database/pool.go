// Package database opens the PostgreSQL pool behind the risk stores and the
// advisory lock backend.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"custodia/migrations"
)

const pingTimeout = 5 * time.Second

type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// Migrate applies the embedded risk schema before the pool is handed out.
	Migrate bool
}

// PoolMetrics mirrors sql.DBStats. Advisory locks pin a connection for the
// whole remediation phase, so in-use and wait figures matter here.
type PoolMetrics struct {
	Open         prometheus.Gauge
	InUse        prometheus.Gauge
	Idle         prometheus.Gauge
	WaitCount    prometheus.Counter
	WaitDuration prometheus.Counter
}

func NewPoolMetrics(reg prometheus.Registerer) *PoolMetrics {
	f := promauto.With(reg)
	return &PoolMetrics{
		Open: f.NewGauge(prometheus.GaugeOpts{
			Name: "custodia_db_pool_open_conns",
			Help: "Established connections, in use or idle",
		}),
		InUse: f.NewGauge(prometheus.GaugeOpts{
			Name: "custodia_db_pool_in_use_conns",
			Help: "Connections currently in use, including pinned lock connections",
		}),
		Idle: f.NewGauge(prometheus.GaugeOpts{
			Name: "custodia_db_pool_idle_conns",
			Help: "Idle connections",
		}),
		WaitCount: f.NewCounter(prometheus.CounterOpts{
			Name: "custodia_db_pool_waits_total",
			Help: "Connection requests that had to wait",
		}),
		WaitDuration: f.NewCounter(prometheus.CounterOpts{
			Name: "custodia_db_pool_wait_seconds_total",
			Help: "Time spent waiting for a connection",
		}),
	}
}

type Pool struct {
	db      *sql.DB
	metrics *PoolMetrics
	last    sql.DBStats
}

// New opens the pool, pings it and applies migrations when asked.
// An empty URL means PostgreSQL is not configured: New returns nil, nil.
func New(ctx context.Context, cfg Config, m *PoolMetrics) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := prepare(ctx, db, cfg.Migrate); err != nil {
		db.Close() //nolint:errcheck // init failed, the ping or migration error wins
		return nil, err
	}
	return &Pool{db: db, metrics: m}, nil
}

func prepare(ctx context.Context, db *sql.DB, migrate bool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if !migrate {
		return nil
	}
	if err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

func (p *Pool) DB() *sql.DB {
	return p.db
}

// Health is the readiness check for the record and artifact stores.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("database not configured")
	}
	return p.db.PingContext(ctx)
}

// RecordStats publishes the current pool statistics.
func (p *Pool) RecordStats() {
	if p.metrics == nil {
		return
	}
	stats := p.db.Stats()
	p.metrics.Open.Set(float64(stats.OpenConnections))
	p.metrics.InUse.Set(float64(stats.InUse))
	p.metrics.Idle.Set(float64(stats.Idle))
	if d := stats.WaitCount - p.last.WaitCount; d > 0 {
		p.metrics.WaitCount.Add(float64(d))
	}
	if d := stats.WaitDuration - p.last.WaitDuration; d > 0 {
		p.metrics.WaitDuration.Add(d.Seconds())
	}
	p.last = stats
}

// RunStats records pool statistics every interval until ctx is done.
func (p *Pool) RunStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RecordStats()
		}
	}
}

func (p *Pool) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
