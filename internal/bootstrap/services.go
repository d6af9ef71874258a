package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/eventdesk/eventdesk-api/config"
	"github.com/eventdesk/eventdesk-api/internal/core"
	"github.com/eventdesk/eventdesk-api/internal/data"
	httpx "github.com/eventdesk/eventdesk-api/internal/http"
	"github.com/eventdesk/eventdesk-api/internal/observability/statsd"
	"github.com/eventdesk/eventdesk-api/internal/service"
	"github.com/eventdesk/eventdesk-api/internal/service/ratelimit"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs        *service.JobService
	Evaluations *service.EvaluationService
	Limiter     ratelimit.Limiter // nil when rate limiting is disabled
	Metrics     *statsd.Client

	repos *serviceRepositories
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // nil when Redis is disabled
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB            *sql.DB
	Jobs          *data.JobRepo
	Events        *data.EventRepo
	Evaluations   *data.EvaluationRepo
	Certificates  *data.CertificateRepo
	Notifications *data.NotificationRepo
	Cache         *data.RedisCacheRepo // nil without Redis
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient, logger *slog.Logger) *serviceRepositories {
	repoCfg := data.RepoConfig{Logger: logger}
	repos := &serviceRepositories{
		DB:            db,
		Jobs:          data.NewJobRepo(db, repoCfg),
		Events:        data.NewEventRepo(db),
		Evaluations:   data.NewEvaluationRepo(db, repoCfg),
		Certificates:  data.NewCertificateRepo(db, repoCfg),
		Notifications: data.NewNotificationRepo(db, repoCfg),
	}
	if redisClient != nil {
		repos.Cache = data.NewRedisCacheRepo(redisClient)
	}
	return repos
}

// cache returns the cache port, or nil without leaking a typed nil.
//
//nolint:ireturn // callers depend on the port, not the Redis adapter.
func (r *serviceRepositories) cache() core.CacheRepository {
	if r.Cache == nil {
		return nil
	}
	return r.Cache
}

// buildMetrics returns a StatsD client; a disabled client drops every metric.
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// buildLimiter prefers the shared Redis window and falls back to per-process buckets.
//
//nolint:ireturn // the limiter is chosen at runtime.
func buildLimiter(cfg config.RateLimitConfig, cache core.CacheRepository, logger *slog.Logger) ratelimit.Limiter {
	if !cfg.Enabled {
		logger.Info("rate limiting disabled")
		return nil
	}
	limits := ratelimit.Config{Limit: cfg.Limit, Window: cfg.Window}

	local, err := ratelimit.NewLocalLimiter(limits)
	if err != nil {
		logger.Error("rate limiting disabled: invalid configuration", "error", err)
		return nil
	}
	fallback := &ratelimit.FallbackLimiter{Fallback: local, Logger: logger}
	if cache == nil {
		return fallback
	}

	shared, err := ratelimit.NewRedisLimiter(cache, limits)
	if err != nil {
		logger.Warn("redis rate limiter unavailable; using local limiter", "error", err)
		return fallback
	}
	fallback.Primary = shared
	return fallback
}

// NewServices wires repositories and services from deps.
func NewServices(deps *ServiceDeps) ServiceContainer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.AppConfig{}
	}

	repos := buildRepositories(deps.DB, deps.RedisClient, logger)
	metricsClient := buildMetrics(logger, cfg.Observability.Metrics)

	sink := metricsSink(metricsClient)

	jobs := service.MustNewJobService(service.JobServiceOptions{
		Repo:    repos.Jobs,
		Logger:  logger,
		Metrics: sink,
	})
	evaluations := service.MustNewEvaluationService(service.EvaluationServiceOptions{
		Repos: service.EvaluationRepositories{
			Events:      repos.Events,
			Evaluations: repos.Evaluations,
		},
		Config: service.EvaluationServiceConfig{
			RequireCheckIn: cfg.Evaluation.RequireCheckIn,
			CacheTTL:       cfg.Cache.EvaluationTTL,
		},
		Deps: service.EvaluationServiceDeps{
			Cache:   repos.cache(),
			Logger:  logger,
			Metrics: sink,
		},
	})

	return ServiceContainer{
		Jobs:        jobs,
		Evaluations: evaluations,
		Limiter:     buildLimiter(cfg.RateLimit, repos.cache(), logger),
		Metrics:     metricsClient,
		repos:       repos,
	}
}

// readinessChecks probes the backing stores for /readyz.
func readinessChecks(db *sql.DB, cache *data.RedisCacheRepo) map[string]httpx.HealthCheck {
	checks := map[string]httpx.HealthCheck{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if cache != nil {
		checks["redis"] = cache.Health
	}
	return checks
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

// backgroundService describes a startable component bound to one service mode.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// RunServicesWithShutdown starts every enabled service and blocks until a
// signal arrives or one of them fails. The first failure stops the rest.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := buildBackgroundServices(ctx, cfg, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		if !enabled[svc.mode] {
			continue
		}
		g.Go(func() error {
			logger.InfoContext(gctx, "service started", "service", svc.name, "mode", svc.mode)
			if err := svc.start(gctx); err != nil {
				return fmt.Errorf("%s failed: %w", svc.name, err)
			}
			logger.InfoContext(gctx, "service stopped", "service", svc.name)
			return nil
		})
	}

	err = g.Wait()
	if cfg.Services.Metrics != nil {
		if cerr := cfg.Services.Metrics.Close(); cerr != nil {
			logger.Warn("close statsd client", "error", cerr)
		}
	}
	return err
}

// buildBackgroundServices constructs every enabled service up front so
// configuration errors surface before anything starts.
func buildBackgroundServices(
	ctx context.Context,
	cfg *ServiceOrchestrationConfig,
	logger *slog.Logger,
) ([]backgroundService, error) {
	appCfg := cfg.Config
	var out []backgroundService

	if appCfg.IsHTTPServerEnabled() {
		identity, err := BuildIdentity(ctx, appCfg, logger)
		if err != nil {
			return nil, err
		}
		var cache *data.RedisCacheRepo
		if cfg.Services.repos != nil {
			cache = cfg.Services.repos.Cache
		}
		server := NewHTTPServer(HTTPServerConfig{
			Config:   appCfg,
			Services: cfg.Services,
			Identity: identity,
			Checks:   readinessChecks(cfg.DB, cache),
			Logger:   logger,
		})
		out = append(out, backgroundService{
			mode: config.ServiceModeHTTP,
			name: "http server",
			start: func(ctx context.Context) error {
				return ServeHTTP(ctx, server, appCfg.HTTP.ShutdownTimeout, logger)
			},
		})
	}

	if appCfg.IsJobWorkerEnabled() {
		runner, err := newJobRunner(jobWorkerDeps{
			Config:   appCfg.JobWorker,
			Services: cfg.Services,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, backgroundService{
			mode:  config.ServiceModeJobWorker,
			name:  "job worker",
			start: runner.Run,
		})
	}

	if appCfg.IsReaperEnabled() {
		runner, err := newReaperRunner(cfg.DB, appCfg.Reaper, cfg.Services, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, backgroundService{
			mode:  config.ServiceModeReaper,
			name:  "reaper",
			start: runner.Run,
		})
	}

	return out, nil
}
