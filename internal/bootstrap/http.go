package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/eventdesk/eventdesk-api/config"
	httpx "github.com/eventdesk/eventdesk-api/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Identity IdentitySetup
	Checks   map[string]httpx.HealthCheck
	Logger   *slog.Logger
}

// NewHTTPServer builds the API server. It does not start listening.
func NewHTTPServer(cfg HTTPServerConfig) *http.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	services := httpx.RouterServices{
		Verifier:     cfg.Identity.Verifier,
		DevHeader:    cfg.Identity.DevHeader,
		Checks:       cfg.Checks,
		MaxBodyBytes: appCfg.HTTP.MaxBodyBytes,
		Logger:       logger,
	}
	// Assign through the nil checks so the router never sees typed nils.
	if cfg.Services.Jobs != nil {
		services.Jobs = cfg.Services.Jobs
	}
	if cfg.Services.Evaluations != nil {
		services.Evaluations = cfg.Services.Evaluations
	}
	if cfg.Services.Limiter != nil {
		services.Limiter = cfg.Services.Limiter
	}

	addr := appCfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           httpx.NewRouter(services),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeHTTP runs server until ctx is done, then drains in-flight requests
// for at most shutdownTimeout.
func ServeHTTP(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return <-errCh
}
