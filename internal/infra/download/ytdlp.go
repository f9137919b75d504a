package download

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/port"
	"go.uber.org/zap"
)

// [download]  42.7% of ~ 123.45MiB at 2.50MiB/s ETA 00:30
var ytdlpProgressRe = regexp.MustCompile(`\[download\]\s+([0-9.]+)% of ~?\s*([0-9.]+)(KiB|MiB|GiB)`)

// downloadStreamingPlatform shells out to yt-dlp requesting the highest
// quality combined video+audio stream, merged into an mp4 at destPath. Its
// stdout progress lines are translated into throttled byte-level reports.
func (a *Acquirer) downloadStreamingPlatform(ctx context.Context, url string, destPath string, onProgress port.ProgressFunc) error {
	cmd := exec.CommandContext(ctx, a.ytdlpPath,
		"-f", "bestvideo*+bestaudio/best",
		"--merge-output-format", "mp4",
		"--no-playlist",
		"--newline",
		"-o", destPath,
		url,
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("yt-dlp stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start yt-dlp: %w", err)
	}

	lastReport := time.Time{}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		a.logger.Debug("yt-dlp output", zap.String("line", line))

		progress, ok := parseYtDlpProgress(line)
		if !ok || onProgress == nil {
			continue
		}
		if time.Since(lastReport) >= progressInterval {
			lastReport = time.Now()
			onProgress(progress)
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("yt-dlp: %w", err)
	}

	a.logger.Info("streaming platform download complete", zap.String("url", url))
	return nil
}

func parseYtDlpProgress(line string) (port.DownloadProgress, bool) {
	m := ytdlpProgressRe.FindStringSubmatch(line)
	if m == nil {
		return port.DownloadProgress{}, false
	}

	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return port.DownloadProgress{}, false
	}
	size, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return port.DownloadProgress{}, false
	}

	var unit float64
	switch m[3] {
	case "KiB":
		unit = 1 << 10
	case "MiB":
		unit = 1 << 20
	case "GiB":
		unit = 1 << 30
	}

	total := int64(size * unit)
	return port.DownloadProgress{
		Downloaded: int64(float64(total) * percent / 100),
		Total:      total,
	}, true
}
