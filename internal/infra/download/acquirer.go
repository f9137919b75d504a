package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/port"
	"go.uber.org/zap"
)

const (
	destFilename     = "source.mp4"
	progressInterval = 500 * time.Millisecond
)

// Acquirer resolves a video reference into a local file. Local paths pass
// through untouched; remote URLs are downloaded into the caller's workspace.
type Acquirer struct {
	client    *http.Client
	ytdlpPath string
	logger    *zap.Logger
}

func NewAcquirer(ytdlpPath string, logger *zap.Logger) *Acquirer {
	return &Acquirer{
		client:    &http.Client{},
		ytdlpPath: ytdlpPath,
		logger:    logger,
	}
}

func (a *Acquirer) Acquire(ctx context.Context, videoRef string, destDir string, onProgress port.ProgressFunc) (string, error) {
	if !isRemote(videoRef) {
		if _, err := os.Stat(videoRef); err != nil {
			return "", fmt.Errorf("local video not accessible: %w", err)
		}
		return videoRef, nil
	}

	destPath := filepath.Join(destDir, destFilename)

	var err error
	if isStreamingPlatform(videoRef) {
		err = a.downloadStreamingPlatform(ctx, videoRef, destPath, onProgress)
	} else {
		err = a.downloadGeneric(ctx, videoRef, destPath, onProgress)
	}
	if err != nil {
		// Never leave a partially written file behind.
		os.Remove(destPath)
		return "", err
	}

	return destPath, nil
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func isStreamingPlatform(ref string) bool {
	return strings.Contains(ref, "youtube.com") || strings.Contains(ref, "youtu.be")
}

func (a *Acquirer) downloadGeneric(ctx context.Context, url string, destPath string, onProgress port.ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download video: unexpected status %s", resp.Status)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}
	defer file.Close()

	reporter := newProgressReporter(resp.ContentLength, onProgress)
	if _, err := io.Copy(file, io.TeeReader(resp.Body, reporter)); err != nil {
		return fmt.Errorf("write video: %w", err)
	}
	reporter.flush()

	a.logger.Info("download complete",
		zap.String("url", url),
		zap.Int64("bytes", reporter.downloaded),
	)
	return nil
}

// progressReporter throttles byte-level progress callbacks so a fast download
// does not flood the notification channel.
type progressReporter struct {
	total      int64
	downloaded int64
	lastReport time.Time
	onProgress port.ProgressFunc
}

func newProgressReporter(total int64, onProgress port.ProgressFunc) *progressReporter {
	if total < 0 {
		total = 0
	}
	return &progressReporter{total: total, onProgress: onProgress}
}

func (r *progressReporter) Write(p []byte) (int, error) {
	r.downloaded += int64(len(p))
	if r.onProgress != nil && time.Since(r.lastReport) >= progressInterval {
		r.lastReport = time.Now()
		r.onProgress(port.DownloadProgress{Downloaded: r.downloaded, Total: r.total})
	}
	return len(p), nil
}

func (r *progressReporter) flush() {
	if r.onProgress != nil {
		r.onProgress(port.DownloadProgress{Downloaded: r.downloaded, Total: r.total})
	}
}
