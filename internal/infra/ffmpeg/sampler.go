package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/port"
	"go.uber.org/zap"
)

const frameExtension = ".jpg"

type Sampler struct {
	ffmpegPath string
	quality    int
	logger     *zap.Logger
}

func NewSampler(ffmpegPath string, quality int, logger *zap.Logger) *Sampler {
	return &Sampler{ffmpegPath: ffmpegPath, quality: quality, logger: logger}
}

// Sample asks ffmpeg for up to maxFrames evenly spaced JPEG stills named
// frame-001.jpg, frame-002.jpg, ... so a directory listing sorts in temporal
// order. The post-run directory listing, not ffmpeg's exit status, is the
// source of truth for what was actually produced.
func (s *Sampler) Sample(ctx context.Context, videoPath string, outputDir string, maxFrames int, videoDuration float64) (*port.SampleResult, error) {
	if maxFrames <= 0 {
		return nil, fmt.Errorf("maxFrames must be positive, got %d", maxFrames)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	// One frame every duration/maxFrames seconds. With an unknown duration
	// fall back to one frame per second and let maxFrames cap the output.
	interval := 1.0
	if videoDuration > 0 {
		interval = videoDuration / float64(maxFrames)
	}

	framePattern := filepath.Join(outputDir, "frame-%03d"+frameExtension)
	cmd := exec.CommandContext(ctx, s.ffmpegPath,
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%f", interval),
		"-frames:v", fmt.Sprintf("%d", maxFrames),
		"-q:v", fmt.Sprintf("%d", s.quality),
		"-y",
		framePattern,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}

	frames, err := collectFrames(outputDir, maxFrames)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from video")
	}

	s.logger.Info("frames sampled",
		zap.Int("count", len(frames)),
		zap.String("output_dir", outputDir),
	)

	return &port.SampleResult{
		FramePaths: frames,
		FrameCount: len(frames),
	}, nil
}

// collectFrames lists outputDir, keeps the expected image extension, sorts by
// filename and truncates to maxFrames.
func collectFrames(outputDir string, maxFrames int) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("list frames dir: %w", err)
	}

	frames := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), frameExtension) {
			continue
		}
		frames = append(frames, filepath.Join(outputDir, e.Name()))
	}

	sort.Strings(frames)
	if len(frames) > maxFrames {
		frames = frames[:maxFrames]
	}
	return frames, nil
}
