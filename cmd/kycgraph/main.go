package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/totegamma/kycgraph/internal/config"
	"github.com/totegamma/kycgraph/internal/infrastructure/providers"
	"github.com/totegamma/kycgraph/internal/infrastructure/tracing"
	"github.com/totegamma/kycgraph/internal/interface/rest"
	"github.com/totegamma/kycgraph/internal/logger"
)

const serviceName = "kycgraph"

func main() {
	configPath := flag.String("config", "", "path to the yaml config file")
	migrateOnly := flag.Bool("migrate", false, "apply migrations and exit")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		logger.New("info").Fatal("failed to load config", "err", err)
	}
	l := logger.New(conf.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Server.AutoMigrate || *migrateOnly {
		if err := providers.MigrateDatabase(conf.Server); err != nil {
			l.Fatal("failed to migrate database", "err", err)
		}
		l.Info("migrations applied")
		if *migrateOnly {
			return
		}
	}

	shutdownTracing, err := tracing.Setup(ctx, serviceName, conf.Server.TraceEndpoint, conf.Server.EnableTrace)
	if err != nil {
		l.Fatal("failed to set up tracing", "err", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			l.Error("failed to flush traces", "err", err)
		}
	}()

	db, err := providers.NewDatabase(conf.Server, l)
	if err != nil {
		l.Fatal("failed to connect database", "err", err)
	}

	thresholds, err := conf.Thresholds()
	if err != nil {
		l.Fatal("invalid control thresholds", "err", err)
	}
	summaries, err := providers.NewSummaryCache(ctx, conf, l)
	if err != nil {
		l.Fatal("failed to set up summary cache", "err", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	uc := providers.NewUsecases(db, summaries, providers.NewMetrics(reg), thresholds)

	handler := rest.NewHandler(
		uc.Subscribers,
		uc.Entities,
		uc.OrganizationRelationships,
		uc.IndividualRelationships,
		uc.EntityRelationships,
		uc.Associations,
		uc.Ownership,
		uc.History,
		uc.Analysis,
		uc.Lists,
		uc.CustomFields,
	)

	e := echo.New()
	e.HideBanner = true
	e.Validator = rest.NewValidator()
	e.Use(otelecho.Middleware(serviceName))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			l.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	handler.RegisterRoutes(e)

	go func() {
		l.Info("starting server", "listen", conf.Server.Listen)
		if err := e.Start(conf.Server.Listen); err != nil && err != http.ErrServerClosed {
			l.Fatal("server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		l.Error("failed to shutdown server", "err", err)
	}
}
