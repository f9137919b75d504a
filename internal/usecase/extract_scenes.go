package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/entity"
	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/port"
	"github.com/scenebuild/scenebuild-extraction-service/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const progressEventType = "video-extraction"

const fallbackMessage = "Created basic scene breakdown. Add Gemini API key for AI analysis."

// AnalyzerFactory builds a SceneAnalyzer from the credential supplied with a
// single request. Constructed per invocation so no model-client state lives
// process-wide.
type AnalyzerFactory func(apiKey string) port.SceneAnalyzer

type ExtractScenesUseCase struct {
	repo        port.JobRepository
	acquirer    port.SourceAcquirer
	prober      port.MediaProber
	sampler     port.FrameSampler
	newAnalyzer AnalyzerFactory
	zipper      port.Zipper
	storage     port.ArtifactStorage
	statusPub   port.StatusPublisher
	progressPub port.ProgressPublisher
	dlq         port.DLQPublisher
	notifier    port.FailureNotifier
	logger      *zap.Logger
	cfg         ExtractScenesConfig
}

type ExtractScenesConfig struct {
	TempDir       string
	MaxRetries    int
	MaxScenes     int
	SceneDuration float64
	MaxFrames     int
	ArchiveFrames bool
	JobTimeout    time.Duration
}

func NewExtractScenesUseCase(
	repo port.JobRepository,
	acquirer port.SourceAcquirer,
	prober port.MediaProber,
	sampler port.FrameSampler,
	newAnalyzer AnalyzerFactory,
	zipper port.Zipper,
	storage port.ArtifactStorage,
	statusPub port.StatusPublisher,
	progressPub port.ProgressPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ExtractScenesConfig,
) *ExtractScenesUseCase {
	return &ExtractScenesUseCase{
		repo:        repo,
		acquirer:    acquirer,
		prober:      prober,
		sampler:     sampler,
		newAnalyzer: newAnalyzer,
		zipper:      zipper,
		storage:     storage,
		statusPub:   statusPub,
		progressPub: progressPub,
		dlq:         dlq,
		notifier:    notifier,
		logger:      logger,
		cfg:         cfg,
	}
}

// Execute is the queue-facing entrypoint: one delivery, one extraction
// invocation. A returned error requeues the message; nil acks it.
func (uc *ExtractScenesUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ExtractScenesUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.ExtractionRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_ref", msg.VideoRef),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_ref", msg.VideoRef))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewExtractionJob(msg.UserID, msg.VideoRef, msg.ProjectName, uc.cfg.MaxRetries)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	jobCtx := ctx
	if uc.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, uc.cfg.JobTimeout)
		defer cancel()
	}

	result, stats := uc.ProcessVideo(jobCtx, job.ID.String(), msg)
	if !result.Success {
		uc.publishErrorEvent(ctx, result.Error)
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, result.Error, log)
	}

	if err := uc.repo.SaveScenes(ctx, job.ID, result.Scenes); err != nil {
		log.Error("failed to persist scenes", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "save_scenes: "+err.Error(), log)
	}

	job.MarkCompleted(len(result.Scenes), stats.FrameCount, stats.Duration, stats.UsedAI, stats.ArchiveKey)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	strategy := "fallback"
	if stats.UsedAI {
		strategy = "model"
	}
	metrics.ScenesProducedTotal.WithLabelValues(strategy).Add(float64(len(result.Scenes)))
	metrics.ExtractionsTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	log.Info("extraction completed",
		zap.Int("scene_count", len(result.Scenes)),
		zap.Int("frame_count", stats.FrameCount),
		zap.Float64("duration_secs", stats.Duration),
		zap.Bool("used_ai", stats.UsedAI),
	)

	return nil
}

// PipelineStats carries bookkeeping the job record needs beyond the
// caller-facing result envelope.
type PipelineStats struct {
	FrameCount int
	Duration   float64
	UsedAI     bool
	ArchiveKey string
}

// ProcessVideo runs the extraction pipeline for one request: acquire, probe,
// sample, infer (or fall back), archive. Stages run strictly in order and no
// stage is retried. The returned envelope is always well-formed; the
// workspace created for this invocation is removed on every exit path.
func (uc *ExtractScenesUseCase) ProcessVideo(ctx context.Context, workspaceID string, req entity.ExtractionRequestMessage) (entity.ExtractionResult, PipelineStats) {
	tracer := otel.Tracer("usecase")
	log := uc.logger.With(zap.String("workspace_id", workspaceID))

	maxScenes := req.MaxScenes
	if maxScenes <= 0 {
		maxScenes = uc.cfg.MaxScenes
	}
	sceneDuration := req.SceneDuration
	if sceneDuration <= 0 {
		sceneDuration = uc.cfg.SceneDuration
	}

	uc.publishProgress(ctx, "Processing video...")

	workDir := filepath.Join(uc.cfg.TempDir, workspaceID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return failure("create workspace: " + err.Error()), PipelineStats{}
	}
	defer uc.cleanupWorkspace(workDir, log)

	// Acquire
	acqStart := time.Now()
	ctxAcq, spanAcq := tracer.Start(ctx, "acquire_source")
	uc.publishProgress(ctx, "Acquiring video source...")
	videoPath, err := uc.acquirer.Acquire(ctxAcq, req.VideoRef, workDir, uc.downloadProgressFunc(ctx))
	spanAcq.End()
	if err != nil {
		log.Error("source acquisition failed", zap.Error(err))
		return failure("acquire_source: " + err.Error()), PipelineStats{}
	}
	metrics.StageDuration.WithLabelValues("acquire").Observe(time.Since(acqStart).Seconds())

	// Probe
	probeStart := time.Now()
	ctxProbe, spanProbe := tracer.Start(ctx, "probe_video")
	info, err := uc.prober.Probe(ctxProbe, videoPath)
	spanProbe.End()
	if err != nil {
		log.Error("media probe failed", zap.Error(err))
		return failure("probe_video: " + err.Error()), PipelineStats{}
	}
	metrics.StageDuration.WithLabelValues("probe").Observe(time.Since(probeStart).Seconds())

	// Sample
	sampleStart := time.Now()
	ctxSample, spanSample := tracer.Start(ctx, "sample_frames")
	uc.publishProgress(ctx, "Extracting frames...")
	framesDir := filepath.Join(workDir, "frames")
	frameCount := maxScenes * 2
	if frameCount > uc.cfg.MaxFrames {
		frameCount = uc.cfg.MaxFrames
	}
	sampled, err := uc.sampler.Sample(ctxSample, videoPath, framesDir, frameCount, info.Duration)
	spanSample.End()
	if err != nil {
		log.Error("frame sampling failed", zap.Error(err))
		return failure("sample_frames: " + err.Error()), PipelineStats{}
	}
	metrics.StageDuration.WithLabelValues("sample").Observe(time.Since(sampleStart).Seconds())
	metrics.FramesSampledTotal.Add(float64(sampled.FrameCount))

	stats := PipelineStats{
		FrameCount: sampled.FrameCount,
		Duration:   info.Duration,
	}
	result := entity.ExtractionResult{
		Success:   true,
		VideoInfo: info,
	}

	// Infer or fall back
	if req.APIKey != "" {
		inferStart := time.Now()
		ctxInfer, spanInfer := tracer.Start(ctx, "infer_scenes")
		uc.publishProgress(ctx, "Analyzing with Gemini Vision...")
		outcome, err := uc.newAnalyzer(req.APIKey).Analyze(ctxInfer, sampled.FramePaths, req.AnalysisPrompt)
		spanInfer.End()
		metrics.StageDuration.WithLabelValues("infer").Observe(time.Since(inferStart).Seconds())

		switch {
		case err != nil:
			// Inference failures are non-fatal; degrade to the
			// deterministic breakdown.
			log.Warn("model inference failed, using fallback breakdown", zap.Error(err))
			result.Scenes = entity.BuildFallbackScenes(*info, maxScenes, sceneDuration)
			result.Message = fallbackMessage
		case outcome.Analysis != nil && len(outcome.Analysis.Scenes) > 0:
			result.Analysis = outcome.Analysis
			result.RawAnalysis = outcome.RawText
			result.Scenes = outcome.Analysis.Scenes
			stats.UsedAI = true
		default:
			// Unparseable response: keep the raw text for diagnostics
			// and still hand the caller a usable breakdown.
			log.Warn("model response had no usable scene list, using fallback breakdown")
			result.RawAnalysis = outcome.RawText
			result.Scenes = entity.BuildFallbackScenes(*info, maxScenes, sceneDuration)
			result.Message = fallbackMessage
		}
	} else {
		result.Scenes = entity.BuildFallbackScenes(*info, maxScenes, sceneDuration)
		result.Message = fallbackMessage
	}

	// Archive sampled frames so thumbnails survive workspace cleanup.
	// Failure here never fails the extraction.
	if uc.cfg.ArchiveFrames && len(sampled.FramePaths) > 0 {
		stats.ArchiveKey = uc.archiveFrames(ctx, workspaceID, req.UserID, workDir, sampled.FramePaths, log)
	}

	uc.publishProgress(ctx, "Video processing complete")

	return result, stats
}

func failure(errMsg string) entity.ExtractionResult {
	return entity.ExtractionResult{Success: false, Error: errMsg}
}

func (uc *ExtractScenesUseCase) archiveFrames(ctx context.Context, workspaceID, userID, workDir string, framePaths []string, log *zap.Logger) string {
	archiveStart := time.Now()
	zipPath := filepath.Join(workDir, "frames.zip")
	if err := uc.zipper.CreateZip(ctx, framePaths, zipPath); err != nil {
		log.Warn("frame archive zip failed", zap.Error(err))
		return ""
	}

	zipFile, err := os.Open(zipPath)
	if err != nil {
		log.Warn("frame archive open failed", zap.Error(err))
		return ""
	}
	defer zipFile.Close()

	stat, err := zipFile.Stat()
	if err != nil {
		log.Warn("frame archive stat failed", zap.Error(err))
		return ""
	}

	archiveKey := fmt.Sprintf("%s/frames_%s.zip", userID, workspaceID)
	if err := uc.storage.UploadArchive(ctx, archiveKey, zipFile, stat.Size()); err != nil {
		log.Warn("frame archive upload failed", zap.Error(err))
		return ""
	}
	metrics.StageDuration.WithLabelValues("archive").Observe(time.Since(archiveStart).Seconds())

	return archiveKey
}

// cleanupWorkspace removes the invocation's temporary directory. It runs on
// every exit path and never propagates an error.
func (uc *ExtractScenesUseCase) cleanupWorkspace(workDir string, log *zap.Logger) {
	if err := os.RemoveAll(workDir); err != nil {
		log.Error("workspace cleanup failed", zap.String("dir", workDir), zap.Error(err))
		return
	}
	log.Debug("workspace cleaned up", zap.String("dir", workDir))
}

func (uc *ExtractScenesUseCase) downloadProgressFunc(ctx context.Context) port.ProgressFunc {
	return func(p port.DownloadProgress) {
		if p.Total > 0 {
			uc.publishProgress(ctx, fmt.Sprintf("Downloading video: %.1fMB / %.1fMB",
				float64(p.Downloaded)/1024/1024, float64(p.Total)/1024/1024))
			return
		}
		uc.publishProgress(ctx, fmt.Sprintf("Downloading video: %.1fMB",
			float64(p.Downloaded)/1024/1024))
	}
}

func (uc *ExtractScenesUseCase) publishProgress(ctx context.Context, message string) {
	if err := uc.progressPub.PublishProgress(ctx, progressEventType, message); err != nil {
		uc.logger.Warn("failed to publish progress event", zap.Error(err))
	}
}

func (uc *ExtractScenesUseCase) publishErrorEvent(ctx context.Context, errMsg string) {
	if err := uc.progressPub.PublishProgress(ctx, progressEventType, errMsg); err != nil {
		uc.logger.Warn("failed to publish error event", zap.Error(err))
	}
}

func (uc *ExtractScenesUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.ExtractionJob,
	msg entity.ExtractionRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ExtractScenesUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.ExtractionJob,
	msg entity.ExtractionRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.ExtractionsTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.VideoRef, errMsg)
	}

	return nil
}

func (uc *ExtractScenesUseCase) publishStatus(ctx context.Context, job *entity.ExtractionJob, log *zap.Logger) {
	statusMsg := entity.ExtractionStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		VideoRef:     job.SourceRef,
		SceneCount:   job.SceneCount,
		FrameCount:   job.FrameCount,
		Duration:     job.VideoDuration,
		ArchiveKey:   job.ArchiveKey,
		UsedAI:       job.UsedAI,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.statusPub.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
