package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"custodia/internal/platform/config"
	"custodia/internal/platform/database"
	"custodia/internal/platform/health"
	"custodia/internal/platform/kafka"
	"custodia/internal/platform/kafka/producer"
	"custodia/internal/platform/middleware"
	platformredis "custodia/internal/platform/redis"
	"custodia/internal/risk/consistency"
	"custodia/internal/risk/engine"
	"custodia/internal/risk/handler"
	"custodia/internal/risk/lock"
	"custodia/internal/risk/metrics"
	"custodia/internal/risk/notify"
	"custodia/internal/risk/ports"
	"custodia/internal/risk/remediation"
	"custodia/internal/risk/safeguard"
	"custodia/internal/risk/scoring"
	"custodia/internal/risk/service"
	"custodia/internal/risk/store/memory"
	"custodia/internal/risk/store/postgres"
	"custodia/pkg/platform/circuit"
	"custodia/pkg/platform/tracer"
	"custodia/pkg/platform/validation"
)

const poolStatsInterval = 15 * time.Second

// app is the composed server: router plus everything that must be closed.
type app struct {
	router  http.Handler
	closers []io.Closer
	cancel  context.CancelFunc
}

func (a *app) close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close() //nolint:errcheck // shutdown path
	}
}

// stores groups the persistence ports; either all in memory or all in PostgreSQL.
type stores struct {
	records     ports.RecordStore
	artifacts   ports.ArtifactStore
	tasks       ports.TaskStore
	evaluations ports.EvaluationStore
	claims      ports.ClaimStore
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	reg := prometheus.DefaultRegisterer
	riskMetrics := metrics.NewWithRegisterer(reg)
	trace := tracer.NewOTel()
	healthHandler := health.New(cfg.Server.Environment)
	statsCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	pool, err := database.New(ctx, database.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Migrate:         cfg.Database.Migrate,
	}, database.NewPoolMetrics(reg))
	if err != nil {
		return nil, err
	}
	st := memoryStores()
	if pool != nil {
		a.closers = append(a.closers, pool)
		healthHandler.RegisterCheck("postgres", pool.Health)
		st = postgresStores(pool)
		go pool.RunStats(statsCtx, poolStatsInterval)
	}

	redisClient, err := platformredis.New(ctx, platformredis.Config{
		URL:          cfg.Redis.URL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, platformredis.NewPoolMetrics(reg))
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, redisClient)
		// Without the redis lock backend, redis only fronts the safeguard registry.
		if cfg.Locks.Backend == config.LockBackendRedis {
			healthHandler.RegisterCheck("redis", redisClient.Health)
		} else {
			healthHandler.RegisterOptional("redis", redisClient.Health)
		}
		go redisClient.RunPoolStats(statsCtx, poolStatsInterval)
	}

	notifier, err := buildNotifier(ctx, cfg, log, healthHandler, a)
	if err != nil {
		return nil, err
	}

	locker, err := buildLocker(cfg, pool, redisClient, log)
	if err != nil {
		return nil, err
	}

	scorer, validator, err := buildCore(cfg)
	if err != nil {
		return nil, err
	}

	orchestrator := remediation.New(st.artifacts, st.tasks, notifier,
		remediation.WithLocker(locker),
		remediation.WithClaims(st.claims),
		remediation.WithReuseThreshold(cfg.Engine.EffectiveReuseThreshold()),
		remediation.WithLogger(log),
		remediation.WithMetrics(riskMetrics),
		remediation.WithTracer(trace),
	)
	resolver := safeguard.NewResolver(buildLookup(cfg, redisClient, log),
		safeguard.WithTimeout(cfg.Engine.SafeguardTimeout),
		safeguard.WithLogger(log),
		safeguard.WithMetrics(riskMetrics),
		safeguard.WithTracer(trace),
	)
	eng := engine.New(scorer, validator,
		engine.WithConfig(cfg.Engine),
		engine.WithResolver(resolver),
		engine.WithOrchestrator(orchestrator),
		engine.WithLogger(log),
		engine.WithMetrics(riskMetrics),
		engine.WithTracer(trace),
	)
	svc := service.New(eng, st.records, st.artifacts, st.evaluations,
		service.WithClaims(st.claims),
		service.WithLoadTimeout(cfg.Server.LoadTimeout),
		service.WithLogger(log),
		service.WithMetrics(riskMetrics),
		service.WithTracer(trace),
	)

	log.Info("risk engine ready",
		"weights_version", scorer.Version(),
		"consistency_rules", len(validator.Rules()),
		"duplicate_check", cfg.Engine.DuplicateCheckEnabled,
		"eipd_reuse", cfg.Engine.ReuseEnabled,
	)

	a.router = newRouter(cfg, log, handler.New(svc, log), healthHandler, middleware.NewMetrics(reg))
	return a, nil
}

func newRouter(cfg config.Config, log *slog.Logger, h *handler.Handler, healthHandler *health.Handler, m *middleware.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.BodyLimit(validation.MaxBodySize))
		api.Use(middleware.ContentTypeJSON)
		if cfg.Server.RequestTimeout > 0 {
			api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		}
		h.Register(api)
	})
	return r
}

func memoryStores() stores {
	artifacts := memory.NewArtifacts()
	return stores{
		records:     memory.NewRecords(),
		artifacts:   artifacts,
		tasks:       memory.NewTasks(),
		evaluations: memory.NewEvaluations(),
		claims:      memory.NewClaims(),
	}
}

func postgresStores(pool *database.Pool) stores {
	db := pool.DB()
	return stores{
		records:     postgres.NewRecordStore(db),
		artifacts:   postgres.NewArtifactStore(db),
		tasks:       postgres.NewTaskStore(db),
		evaluations: postgres.NewEvaluationStore(db),
		claims:      postgres.NewClaimStore(db),
	}
}

func buildNotifier(ctx context.Context, cfg config.Config, log *slog.Logger, healthHandler *health.Handler, a *app) (ports.NotificationSink, error) {
	if cfg.Kafka.Brokers == "" {
		log.Warn("kafka not configured, compliance notifications stay in memory")
		return notify.NewMemory(), nil
	}
	pcfg := producer.DefaultConfig()
	pcfg.Brokers = cfg.Kafka.Brokers
	if cfg.Kafka.Acks != "" {
		pcfg.Acks = cfg.Kafka.Acks
	}
	p, err := producer.New(pcfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, p)
	if err := kafka.EnsureTopic(ctx, p.Client(), cfg.Kafka.Topic, cfg.Kafka.Partitions, -1); err != nil {
		log.Warn("could not provision notification topic", "topic", cfg.Kafka.Topic, "error", err)
	}
	healthHandler.RegisterOptional("kafka", kafka.NewHealthChecker(p.Client()).Check)
	return notify.NewKafka(p, cfg.Kafka.Topic), nil
}

func buildLocker(cfg config.Config, pool *database.Pool, redisClient *platformredis.Client, log *slog.Logger) (ports.Locker, error) {
	switch cfg.Locks.Backend {
	case config.LockBackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis lock backend selected without redis")
		}
		return lock.NewRedis(redisClient, lock.WithTTL(cfg.Locks.TTL), lock.WithLogger(log)), nil
	case config.LockBackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres lock backend selected without database")
		}
		return lock.NewPostgres(pool.DB(), log), nil
	default:
		return lock.NewLocal(), nil
	}
}

// buildLookup composes the certification lookup: registry client behind a
// circuit breaker, with the Redis cache in front when Redis is configured.
// Without a registry, only the configured certified providers count.
func buildLookup(cfg config.Config, redisClient *platformredis.Client, log *slog.Logger) ports.SafeguardLookup {
	if cfg.Safeguard.RegistryURL == "" {
		return safeguard.NewStatic(cfg.Safeguard.Certified...)
	}
	var lookup ports.SafeguardLookup = safeguard.NewHTTPClient(safeguard.HTTPConfig{
		BaseURL: cfg.Safeguard.RegistryURL,
		APIKey:  cfg.Safeguard.APIKey,
		Timeout: cfg.Engine.SafeguardTimeout,
	})
	lookup = safeguard.NewBreaker(lookup, circuit.New("safeguard-registry",
		circuit.WithFailureThreshold(cfg.Safeguard.BreakerFailures),
		circuit.WithCooldown(cfg.Safeguard.BreakerCooldown),
	), log)
	if redisClient != nil {
		lookup = safeguard.NewRedisCache(lookup, redisClient, cfg.Safeguard.CacheTTL, log)
	}
	return lookup
}

func buildCore(cfg config.Config) (*scoring.Scorer, *consistency.Validator, error) {
	weights := scoring.DefaultWeights()
	if cfg.WeightsPath != "" {
		loaded, err := scoring.LoadWeights(cfg.WeightsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load weights: %w", err)
		}
		weights = loaded
	}
	scorer, err := scoring.NewScorer(weights)
	if err != nil {
		return nil, nil, err
	}

	var opts []consistency.Option
	if cfg.RulesPath != "" {
		rules, err := consistency.LoadRules(cfg.RulesPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load consistency rules: %w", err)
		}
		opts = append(opts, consistency.WithRules(rules...))
	}
	return scorer, consistency.New(consistency.DefaultVocabulary(), opts...), nil
}
