package entity

import (
	"fmt"
	"math"
)

// SceneDescriptor is one entry of an extraction's scene breakdown. Scene
// numbers are 1-based and sequential with no gaps. Descriptors are immutable
// once produced; downstream editing creates new Scene records.
type SceneDescriptor struct {
	SceneNumber  int     `json:"scene_number"`
	Description  string  `json:"description"`
	VisualPrompt string  `json:"visual_prompt"`
	Duration     float64 `json:"duration"`
	Timing       string  `json:"timing"`
}

// SceneAnalysis is the structured payload the vision model is asked to return.
type SceneAnalysis struct {
	Title  string            `json:"title"`
	Style  string            `json:"style"`
	Mood   string            `json:"mood"`
	Scenes []SceneDescriptor `json:"scenes"`
}

// ExtractionResult is the envelope returned to the caller for every
// invocation. Error is set iff Success is false.
type ExtractionResult struct {
	Success     bool              `json:"success"`
	VideoInfo   *VideoInfo        `json:"video_info,omitempty"`
	Scenes      []SceneDescriptor `json:"scenes,omitempty"`
	Analysis    *SceneAnalysis    `json:"analysis,omitempty"`
	RawAnalysis string            `json:"raw_analysis,omitempty"`
	Message     string            `json:"message,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// BuildFallbackScenes produces the deterministic time-sliced breakdown used
// when no model credential is available. Pure function of its inputs; a zero
// or unknown duration yields an empty slice, which is a valid degenerate
// result rather than an error.
func BuildFallbackScenes(info VideoInfo, maxScenes int, sceneDuration float64) []SceneDescriptor {
	if info.Duration <= 0 || sceneDuration <= 0 || maxScenes <= 0 {
		return nil
	}

	sceneCount := int(math.Ceil(info.Duration / sceneDuration))
	if sceneCount > maxScenes {
		sceneCount = maxScenes
	}

	scenes := make([]SceneDescriptor, 0, sceneCount)
	for i := 0; i < sceneCount; i++ {
		startTime := float64(i) * sceneDuration
		endTime := math.Min(float64(i+1)*sceneDuration, info.Duration)

		scenes = append(scenes, SceneDescriptor{
			SceneNumber:  i + 1,
			Description:  fmt.Sprintf("Scene %d", i+1),
			VisualPrompt: fmt.Sprintf("Scene from %s to %s", FormatTiming(startTime), FormatTiming(endTime)),
			Duration:     sceneDuration,
			Timing:       fmt.Sprintf("%s-%s", FormatTiming(startTime), FormatTiming(endTime)),
		})
	}

	return scenes
}

// FormatTiming renders seconds as "m:ss", minutes unpadded.
func FormatTiming(seconds float64) string {
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}
