package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"gorm.io/gorm"

	"github.com/ittaigolde/spkkn-words/internal/config"
	"github.com/ittaigolde/spkkn-words/internal/infra/cache"
	"github.com/ittaigolde/spkkn-words/internal/infra/database"
	"github.com/ittaigolde/spkkn-words/internal/infra/gateway"
	"github.com/ittaigolde/spkkn-words/internal/infra/repository"
	"github.com/ittaigolde/spkkn-words/internal/present/rest"
	"github.com/ittaigolde/spkkn-words/internal/present/rest/middleware"
	"github.com/ittaigolde/spkkn-words/internal/service"
	"github.com/ittaigolde/spkkn-words/internal/usecase"
)

func serveRun(cmd *cobra.Command, _ []string) {
	logger := commonRun()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	conf, err := config.Load(globalFlags.configFile)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTrace, err := setupTracing(ctx, conf.Server)
	if err != nil {
		slog.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTrace(context.Background()); err != nil {
			slog.Warn("trace shutdown failed", slog.String("error", err.Error()))
		}
	}()

	db, err := openDatabase(conf.Server)
	if err != nil {
		slog.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(
		conf.Server.RedisAddr,
		conf.Server.RedisPassword,
		conf.Server.RedisDB,
	)

	var wordCache usecase.WordCache
	if conf.Server.MemcachedAddr != "" {
		wordCache = cache.NewMemcachedWordCache(
			database.NewMemcached(conf.Server.MemcachedAddr),
		)
	} else {
		wordCache = cache.NewMemoryWordCache()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(registry)

	if conf.Server.PaymentGateURL == "" {
		logger.Warn("paymentGateURL is not set, purchase confirmations will fail")
	}
	gate := gateway.NewPaymentGateway(conf.Server.PaymentGateURL)

	repo := repository.NewWordRepository(db)
	policy := service.NewContentPolicyService()
	signal := service.NewSignalService(rdb)

	claimUsecase := usecase.NewClaimUsecase(repo, gate, policy, signal, wordCache, metrics)
	wordUsecase := usecase.NewWordUsecase(repo, wordCache)
	adminUsecase := usecase.NewAdminUsecase(repo, wordCache)

	handler := rest.NewHandler(
		claimUsecase,
		wordUsecase,
		adminUsecase,
		signal,
		middleware.NewAdminAuth(conf.Server.AdminKeyHash),
		middleware.RateLimiter(conf.RateLimit.PurchasePerMinute),
		middleware.RateLimiter(conf.RateLimit.ReadPerMinute),
	)

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(programName))
	}

	handler.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	))
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "ok")
	})

	logger.Info("starting server", slog.String("listen", conf.Server.Listen))
	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

var errNoDatabase = errors.New("either postgresDsn or sqlitePath must be set")

func openDatabase(conf config.Server) (*gorm.DB, error) {
	if conf.PostgresDsn != "" {
		return database.NewPostgres(conf.PostgresDsn)
	}
	if conf.SqlitePath != "" {
		return database.NewSqlite(conf.SqlitePath)
	}
	return nil, errNoDatabase
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the marketplace API server",
		Run:   serveRun,
	}
}
