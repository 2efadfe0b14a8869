package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/orgwiki/orgwiki/pkg/api"
	"github.com/orgwiki/orgwiki/pkg/auth"
	"github.com/orgwiki/orgwiki/pkg/bootstrap"
	"github.com/orgwiki/orgwiki/pkg/config"
	"github.com/orgwiki/orgwiki/pkg/directory"
	"github.com/orgwiki/orgwiki/pkg/observability"
	"github.com/orgwiki/orgwiki/pkg/pages"
	"github.com/orgwiki/orgwiki/pkg/permissions"
	"github.com/orgwiki/orgwiki/pkg/users"
)

const version = "0.1.0"

const bootstrapTimeout = time.Minute

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Observability.LogLevel)
	if err != nil {
		logger.WithError(err).Fatal("Invalid log level")
	}
	logger.SetLevel(level)

	var (
		metrics  *observability.Metrics
		registry *prometheus.Registry
	)
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	dirClient := directory.NewHTTPClient(directory.ClientConfig{
		Endpoint:  cfg.Directory.Endpoint,
		APIKey:    cfg.Directory.APIKey,
		RootOrgID: cfg.Directory.RootOrgID,
		Timeout:   cfg.Directory.Timeout,
		Logger:    logger,
		Metrics:   metrics,
	})

	nameCache := pages.NewNameCache(metrics)
	resolver := pages.NewResolver(dirClient, nameCache, cfg.Directory.RootOrgID, logger)
	store := pages.NewStore(metrics)
	permSvc := permissions.NewService(dirClient, cfg.Directory.RootOrgID, logger)
	userSvc := users.NewService(dirClient, cfg.Directory.RootOrgID, logger)

	ctx := context.Background()

	bootCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	initializer := bootstrap.NewInitializer(dirClient, resolver, cfg.Admin.Emails, logger)
	if err := initializer.Run(bootCtx); err != nil {
		cancel()
		logger.WithError(err).Fatal("Startup provisioning failed")
	}
	cancel()

	verifier := auth.NewOIDCVerifier(ctx, dirClient.JWKSURL(), dirClient.Issuer(), cfg.Directory.RootOrgID)
	authMiddleware := auth.NewMiddleware(verifier, logger)
	health := observability.NewHealthChecker(dirClient, version)

	server := api.NewServer(dirClient, resolver, store, permSvc, userSvc, cfg.Admin.Emails, logger, api.Options{
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
		Registry:       registry,
		Health:         health,
		CORSOrigins:    cfg.CORS.Origins,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    httpServer.Addr,
			"version": version,
		}).Info("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}
