package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/entity"
	"go.uber.org/zap"
)

type Prober struct {
	ffprobePath string
	logger      *zap.Logger
}

func NewProber(ffprobePath string, logger *zap.Logger) *Prober {
	return &Prober{ffprobePath: ffprobePath, logger: logger}
}

// Probe runs a single ffprobe inspection and maps container-level metadata
// plus the first video/audio streams into entity.VideoInfo.
func (p *Prober) Probe(ctx context.Context, videoPath string) (*entity.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	info, err := parseProbeOutput(output)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("probed video",
		zap.String("path", videoPath),
		zap.Float64("duration", info.Duration),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
	)

	return info, nil
}

// probeResult matches ffprobe's JSON output structure.
type probeResult struct {
	Format struct {
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

func parseProbeOutput(output []byte) (*entity.VideoInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no streams found in container")
	}

	info := &entity.VideoInfo{
		Format: probe.Format.FormatName,
	}

	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = dur
	}
	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.BitRate = br
	}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = stream.Width
				info.Height = stream.Height
				info.FPS = parseFrameRate(stream.RFrameRate)
			}
		case "audio":
			info.HasAudio = true
		}
	}

	return info, nil
}

// parseFrameRate evaluates ffprobe's rational frame rate ("30000/1001") as
// a/b. A plain number is accepted as-is; anything else yields zero.
func parseFrameRate(rate string) float64 {
	if rate == "" {
		return 0
	}

	num, den, found := strings.Cut(rate, "/")
	if !found {
		f, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			return 0
		}
		return f
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
