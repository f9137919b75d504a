package integration

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/entity"
	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/port"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/download"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/email"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/ffmpeg"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/gemini"
	miniostorage "github.com/scenebuild/scenebuild-extraction-service/internal/infra/minio"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/postgres"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/rabbitmq"
	"github.com/scenebuild/scenebuild-extraction-service/internal/usecase"
	"github.com/scenebuild/scenebuild-extraction-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

// generateTestVideo renders a 24s synthetic clip so the fallback breakdown
// yields exactly three 8s scenes.
func generateTestVideo(t *testing.T, dir string) string {
	t.Helper()

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed, skipping integration test")
	}

	videoPath := filepath.Join(dir, "test.mp4")
	cmd := exec.Command("ffmpeg",
		"-f", "lavfi",
		"-i", "testsrc=duration=24:size=320x240:rate=1",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-y",
		videoPath,
	)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "generate test video: %s", string(output))
	return videoPath
}

func TestExtractScenesEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Start PostgreSQL container
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("scenes"),
		tcpostgres.WithUsername("scene_user"),
		tcpostgres.WithPassword("scene_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start RabbitMQ container
	rmqContainer, err := tcrabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
	)
	require.NoError(t, err)
	defer rmqContainer.Terminate(ctx)

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	// Start MinIO container
	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer minioContainer.Terminate(ctx)

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Run migrations
	err = postgres.RunMigrations(pgConnStr, "../../migrations")
	require.NoError(t, err)

	// Setup MinIO storage
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:      minioEndpoint,
		AccessKey:     "minioadmin",
		SecretKey:     "minioadmin",
		UseSSL:        false,
		ArchiveBucket: "frame-archives",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBucket(ctx))

	// Setup RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, "scenebuild.extraction")
	require.NoError(t, err)

	statusPub := rabbitmq.NewStatusPublisher(pub)
	progressPub := rabbitmq.NewProgressPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, "scene.extraction.dlq")

	// Setup DB pool
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	defer pool.Close()

	// Setup use case with real adapters
	log, _ := logger.New("debug")
	repo := postgres.NewJobRepository(pool)
	acquirer := download.NewAcquirer("yt-dlp", log)
	prober := ffmpeg.NewProber("ffprobe", log)
	sampler := ffmpeg.NewSampler("ffmpeg", 2, log)
	zipper := ffmpeg.NewZipCreator()
	notifier := email.NewSMTPNotifier("localhost", 1025, "test@test.local", log)

	tempDir := t.TempDir()
	uc := usecase.NewExtractScenesUseCase(
		repo, acquirer, prober, sampler,
		func(apiKey string) port.SceneAnalyzer {
			return gemini.NewAnalyzer(apiKey, "gemini-1.5-pro", log)
		},
		zipper, storage,
		statusPub, progressPub, dlqPub, notifier,
		log,
		usecase.ExtractScenesConfig{
			TempDir:       tempDir,
			MaxRetries:    3,
			MaxScenes:     10,
			SceneDuration: 8,
			MaxFrames:     20,
			ArchiveFrames: true,
		},
	)

	// Setup consumer
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:           rmqURL,
		Queue:         "scene.extraction",
		Exchange:      "scenebuild.extraction",
		DLQ:           "scene.extraction.dlq",
		StatusQueue:   "scene.status",
		ProgressQueue: "scene.progress",
		Prefetch:      1,
		WorkerCount:   1,
		BaseDelayMs:   100,
	}, uc.Execute, log)
	require.NoError(t, err)
	defer consumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	defer consumerCancel()
	go consumer.Start(consumerCtx)

	// Subscribe to status messages before publishing the request
	statusConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer statusConn.Close()

	statusCh, err := statusConn.Channel()
	require.NoError(t, err)

	statusDeliveries, err := statusCh.Consume("scene.status", "", true, false, false, false, nil)
	require.NoError(t, err)

	// Publish extraction request for a local 24s video, no API key
	videoPath := generateTestVideo(t, t.TempDir())
	req := entity.ExtractionRequestMessage{
		JobID:    uuid.New(),
		UserID:   "testuser",
		VideoRef: videoPath,
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	err = statusCh.PublishWithContext(ctx,
		"scenebuild.extraction",
		"scene.extraction",
		false, false,
		amqp.Publishing{ContentType: "application/json", Body: body},
	)
	require.NoError(t, err)

	// Wait for the COMPLETED status
	var status entity.ExtractionStatusMessage
	deadline := time.After(2 * time.Minute)
	for {
		var done bool
		select {
		case d := <-statusDeliveries:
			require.NoError(t, json.Unmarshal(d.Body, &status))
			if status.Status == entity.JobStatusCompleted || status.Status == entity.JobStatusFailed {
				done = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for extraction status")
		}
		if done {
			break
		}
	}

	require.Equal(t, entity.JobStatusCompleted, status.Status, "error: %s", status.ErrorMessage)
	assert.Equal(t, req.JobID, status.JobID)
	assert.Equal(t, 3, status.SceneCount, "24s video with 8s scenes yields 3 scenes")
	assert.InDelta(t, 24.0, status.Duration, 1.0)
	assert.False(t, status.UsedAI)
	assert.NotEmpty(t, status.ArchiveKey)

	// Persisted scene breakdown
	rows, err := pool.Query(ctx,
		`SELECT scene_number, timing FROM scenes WHERE job_id=$1 ORDER BY scene_number`, req.JobID)
	require.NoError(t, err)
	defer rows.Close()

	var timings []string
	for rows.Next() {
		var num int
		var timing string
		require.NoError(t, rows.Scan(&num, &timing))
		timings = append(timings, timing)
	}
	assert.Equal(t, []string{"0:00-0:08", "0:08-0:16", "0:16-0:24"}, timings)

	// Workspace cleanup
	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no leftover workspace directories")
}
