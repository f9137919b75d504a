package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/port"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/config"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/download"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/email"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/ffmpeg"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/gemini"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/metrics"
	miniostorage "github.com/scenebuild/scenebuild-extraction-service/internal/infra/minio"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/postgres"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/rabbitmq"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/tracing"
	"github.com/scenebuild/scenebuild-extraction-service/internal/usecase"
	"github.com/scenebuild/scenebuild-extraction-service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting scenebuild-extraction-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:      cfg.MinIOEndpoint,
		AccessKey:     cfg.MinIOAccessKey,
		SecretKey:     cfg.MinIOSecretKey,
		UseSSL:        cfg.MinIOUseSSL,
		ArchiveBucket: cfg.MinIOArchiveBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBucket(ctx), "ensure minio bucket")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	progressPub := rabbitmq.NewProgressPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	acquirer := download.NewAcquirer(cfg.YtDlpPath, log)
	prober := ffmpeg.NewProber(cfg.FFprobePath, log)
	sampler := ffmpeg.NewSampler(cfg.FFmpegPath, cfg.FrameQuality, log)
	zipper := ffmpeg.NewZipCreator()
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	analyzerFactory := func(apiKey string) port.SceneAnalyzer {
		return gemini.NewAnalyzer(apiKey, cfg.GeminiModel, log)
	}

	// Use case
	uc := usecase.NewExtractScenesUseCase(
		repo, acquirer, prober, sampler, analyzerFactory,
		zipper, storage,
		statusPub, progressPub, dlqPub, notifier,
		log,
		usecase.ExtractScenesConfig{
			TempDir:       cfg.TempDir,
			MaxRetries:    cfg.MaxRetries,
			MaxScenes:     cfg.MaxScenes,
			SceneDuration: float64(cfg.SceneDuration),
			MaxFrames:     cfg.MaxFrames,
			ArchiveFrames: cfg.ArchiveFrames,
			JobTimeout:    time.Duration(cfg.JobTimeoutSec) * time.Second,
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:           cfg.RabbitMQURL,
		Queue:         cfg.RabbitMQExtractionQueue,
		Exchange:      cfg.RabbitMQExchange,
		DLQ:           cfg.RabbitMQDLQ,
		StatusQueue:   cfg.RabbitMQStatusQueue,
		ProgressQueue: cfg.RabbitMQProgressQueue,
		Prefetch:      cfg.RabbitMQPrefetch,
		WorkerCount:   cfg.WorkerCount,
		BaseDelayMs:   cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("scenebuild-extraction-service started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("scenebuild-extraction-service stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
