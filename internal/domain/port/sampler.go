package port

import "context"

type SampleResult struct {
	FramePaths []string
	FrameCount int
}

// FrameSampler extracts up to maxFrames still images from a video into
// outputDir, evenly spaced across videoDuration seconds. FramePaths are
// sorted in temporal order.
type FrameSampler interface {
	Sample(ctx context.Context, videoPath string, outputDir string, maxFrames int, videoDuration float64) (*SampleResult, error)
}
