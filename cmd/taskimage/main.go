// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mglog "github.com/absmach/supermq/logger"
	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/ultravioletrs/taskimage/artifactimage"
	"github.com/ultravioletrs/taskimage/artifactimage/api"
	httpapi "github.com/ultravioletrs/taskimage/artifactimage/api/http"
	"github.com/ultravioletrs/taskimage/artifactimage/tracing"
	"github.com/ultravioletrs/taskimage/cli"
	"github.com/ultravioletrs/taskimage/internal"
	"github.com/ultravioletrs/taskimage/internal/jaeger"
	"github.com/ultravioletrs/taskimage/internal/server"
	httpserver "github.com/ultravioletrs/taskimage/internal/server/http"
	httpclient "github.com/ultravioletrs/taskimage/pkg/clients/http"
	"github.com/ultravioletrs/taskimage/pkg/download"
	"github.com/ultravioletrs/taskimage/pkg/monitor"
	"github.com/ultravioletrs/taskimage/pkg/runtime"
	"github.com/ultravioletrs/taskimage/pkg/runtime/docker"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const (
	svcName        = "taskimage"
	envPrefix      = "TASKIMAGE_"
	envPrefixHTTP  = "TASKIMAGE_HTTP_"
	envPrefixS3    = "TASKIMAGE_S3_"
	envPrefixGCS   = "TASKIMAGE_GCS_"
	envPrefixQueue = "TASKIMAGE_QUEUE_"
	downloaderHTTP = "http"
	downloaderS3   = "s3"
	downloaderGCS  = "gcs"
)

type config struct {
	LogLevel         string        `env:"LOG_LEVEL"         envDefault:"info"`
	InstanceID       string        `env:"INSTANCE_ID"       envDefault:""`
	ScratchRoot      string        `env:"SCRATCH_ROOT"      envDefault:""`
	Downloader       string        `env:"DOWNLOADER"        envDefault:"http"`
	QueueURL         string        `env:"QUEUE_URL"         envDefault:"http://localhost:8080"`
	QueueToken       string        `env:"QUEUE_TOKEN"       envDefault:""`
	DownloadAttempts uint          `env:"DOWNLOAD_ATTEMPTS" envDefault:"5"`
	DownloadBackoff  time.Duration `env:"DOWNLOAD_BACKOFF"  envDefault:"1s"`
	PollAttempts     uint          `env:"POLL_ATTEMPTS"     envDefault:"6"`
	PollDelay        time.Duration `env:"POLL_DELAY"        envDefault:"5s"`
	ReuseImages      bool          `env:"REUSE_IMAGES"      envDefault:"true"`
	JaegerURL        string        `env:"JAEGER_URL"        envDefault:""`
}

func main() {
	var cfg config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		log.Fatalf("failed to load %s configuration : %s", svcName, err)
	}

	logger, err := mglog.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %s", err.Error())
	}

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.ScratchRoot == "" {
		cfg.ScratchRoot = os.TempDir()
	}

	tracer := noop.NewTracerProvider().Tracer(svcName)
	if cfg.JaegerURL != "" {
		tp, err := jaeger.NewProvider(context.Background(), svcName, cfg.JaegerURL, cfg.InstanceID)
		if err != nil {
			log.Fatalf("failed to init Jaeger: %s", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error(fmt.Sprintf("error shutting down tracer provider: %v", err))
			}
		}()
		tracer = tp.Tracer(svcName)
	}

	c := cli.New(func(ctx context.Context) (artifactimage.Service, error) {
		return newService(ctx, cfg, logger, tracer)
	})

	rootCmd := &cobra.Command{
		Use:   svcName,
		Short: "Load task artifact images into the local container runtime",
	}

	bindFlags(rootCmd.PersistentFlags(), &cfg)

	rootCmd.AddCommand(c.NewNameCmd())
	rootCmd.AddCommand(c.NewAuthorizeCmd())
	rootCmd.AddCommand(c.NewRewriteCmd())
	rootCmd.AddCommand(c.NewLoadCmd())
	rootCmd.AddCommand(c.NewServeCmd(serve(cfg.InstanceID, logger)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error(fmt.Sprintf("Command execution failed: %s", err))
		stop()
		os.Exit(1)
	}
}

func bindFlags(flags *pflag.FlagSet, cfg *config) {
	flags.BoolVarP(&cli.Verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVar(&cfg.ScratchRoot, "scratch-root", cfg.ScratchRoot, "Directory holding temporary image workspaces")
	flags.StringVar(&cfg.Downloader, "downloader", cfg.Downloader, "Artifact source, one of http, s3 or gcs")
	flags.StringVar(&cfg.QueueURL, "queue-url", cfg.QueueURL, "Root URL of the task queue")
	flags.UintVar(&cfg.PollAttempts, "poll-attempts", cfg.PollAttempts, "Presence checks made after loading an image")
	flags.DurationVar(&cfg.PollDelay, "poll-delay", cfg.PollDelay, "Wait between presence checks")
	flags.BoolVar(&cfg.ReuseImages, "reuse", cfg.ReuseImages, "Reuse an image already loaded under the artifact name")
}

func serve(instanceID string, logger *slog.Logger) cli.ServeFunc {
	return func(ctx context.Context, svc artifactimage.Service) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)

		var httpServerConfig server.Config
		if err := env.ParseWithOptions(&httpServerConfig, env.Options{Prefix: envPrefixHTTP}); err != nil {
			return fmt.Errorf("failed to load %s HTTP server configuration: %w", svcName, err)
		}
		hs := httpserver.New(ctx, cancel, svcName, httpServerConfig, httpapi.MakeHandler(svc, chi.NewRouter(), svcName, instanceID), logger)

		g.Go(func() error {
			return hs.Start()
		})

		g.Go(func() error {
			return server.StopHandler(ctx, cancel, logger, svcName, hs)
		})

		if err := g.Wait(); err != nil {
			logger.Error(fmt.Sprintf("%s service terminated: %s", svcName, err))
		}

		return nil
	}
}

func newService(ctx context.Context, cfg config, logger *slog.Logger, tracer trace.Tracer) (artifactimage.Service, error) {
	rt, err := docker.NewFromEnv(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	dl, err := newDownloader(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	mon, err := monitor.NewPrometheus(prometheus.DefaultRegisterer, svcName, "image")
	if err != nil {
		return nil, fmt.Errorf("failed to register image metrics: %w", err)
	}

	deps := artifactimage.Deps{
		Downloader:  dl,
		Runtime:     rt,
		Monitor:     mon,
		Logger:      logger,
		ScratchRoot: cfg.ScratchRoot,
		PollerOptions: []runtime.PollerOption{
			runtime.WithMaxAttempts(cfg.PollAttempts),
			runtime.WithDelay(cfg.PollDelay),
		},
	}
	svc := artifactimage.NewService(deps, artifactimage.WithReuse(cfg.ReuseImages))

	svc = api.LoggingMiddleware(svc, logger)
	counter, latency := internal.MakeMetrics(svcName, "api")
	svc = api.MetricsMiddleware(svc, counter, latency)
	svc = tracing.New(svc, tracer)

	return svc, nil
}

func newDownloader(ctx context.Context, cfg config, logger *slog.Logger) (download.Downloader, error) {
	switch cfg.Downloader {
	case downloaderS3:
		var s3Config download.S3Config
		if err := env.ParseWithOptions(&s3Config, env.Options{Prefix: envPrefixS3}); err != nil {
			return nil, fmt.Errorf("failed to load S3 configuration: %w", err)
		}
		return download.NewS3(ctx, s3Config, download.WithS3Logger(logger))
	case downloaderGCS:
		var gcsConfig download.GCSConfig
		if err := env.ParseWithOptions(&gcsConfig, env.Options{Prefix: envPrefixGCS}); err != nil {
			return nil, fmt.Errorf("failed to load GCS configuration: %w", err)
		}
		return download.NewGCS(ctx, gcsConfig, download.WithGCSLogger(logger))
	case downloaderHTTP:
		q, err := download.NewQueue(cfg.QueueURL)
		if err != nil {
			return nil, err
		}
		var clientConfig httpclient.Config
		if err := env.ParseWithOptions(&clientConfig, env.Options{Prefix: envPrefixQueue}); err != nil {
			return nil, fmt.Errorf("failed to load queue client configuration: %w", err)
		}
		client, err := httpclient.NewClient(clientConfig)
		if err != nil {
			return nil, err
		}
		logger.Info(fmt.Sprintf("Downloading artifacts from %s %s", cfg.QueueURL, client.Secure()))

		opts := []download.HTTPOption{
			download.WithHTTPClient(client.HTTPClient()),
			download.WithLogger(logger),
			download.WithRetry(cfg.DownloadAttempts, cfg.DownloadBackoff),
		}
		if cfg.QueueToken != "" {
			opts = append(opts, download.WithHeaders(map[string]string{"Authorization": "Bearer " + cfg.QueueToken}))
		}
		return download.NewHTTP(q, opts...), nil
	default:
		return nil, fmt.Errorf("unknown downloader %q", cfg.Downloader)
	}
}
