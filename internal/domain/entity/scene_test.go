package entity

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFallbackScenes_24SecondVideo(t *testing.T) {
	info := VideoInfo{Duration: 24}

	scenes := BuildFallbackScenes(info, 10, 8)

	require.Len(t, scenes, 3)
	assert.Equal(t, "0:00-0:08", scenes[0].Timing)
	assert.Equal(t, "0:08-0:16", scenes[1].Timing)
	assert.Equal(t, "0:16-0:24", scenes[2].Timing)
}

func TestBuildFallbackScenes_SceneCountAndNumbering(t *testing.T) {
	cases := []struct {
		duration      float64
		maxScenes     int
		sceneDuration float64
		wantCount     int
	}{
		{duration: 24, maxScenes: 10, sceneDuration: 8, wantCount: 3},
		{duration: 25, maxScenes: 10, sceneDuration: 8, wantCount: 4},
		{duration: 100, maxScenes: 5, sceneDuration: 8, wantCount: 5},
		{duration: 7, maxScenes: 10, sceneDuration: 8, wantCount: 1},
		{duration: 8, maxScenes: 10, sceneDuration: 8, wantCount: 1},
		{duration: 8.1, maxScenes: 10, sceneDuration: 8, wantCount: 2},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("d=%v_max=%d_s=%v", tc.duration, tc.maxScenes, tc.sceneDuration), func(t *testing.T) {
			scenes := BuildFallbackScenes(VideoInfo{Duration: tc.duration}, tc.maxScenes, tc.sceneDuration)

			wantCount := int(math.Min(float64(tc.maxScenes), math.Ceil(tc.duration/tc.sceneDuration)))
			require.Equal(t, tc.wantCount, wantCount, "test table is self-consistent")
			require.Len(t, scenes, tc.wantCount)

			for i, s := range scenes {
				assert.Equal(t, i+1, s.SceneNumber, "scene numbers are sequential from 1")
				assert.Equal(t, tc.sceneDuration, s.Duration)
				assert.Positive(t, s.Duration)
				assert.NotEmpty(t, s.Description)
				assert.NotEmpty(t, s.VisualPrompt)
			}
		})
	}
}

func TestBuildFallbackScenes_FinalSceneEndsAtVideoDuration(t *testing.T) {
	// 20s video with 8s scenes: the last slice is clamped to 0:20.
	scenes := BuildFallbackScenes(VideoInfo{Duration: 20}, 10, 8)

	require.Len(t, scenes, 3)
	assert.Equal(t, "0:16-0:20", scenes[2].Timing)
}

func TestBuildFallbackScenes_MinutesUnpaddedSecondsPadded(t *testing.T) {
	scenes := BuildFallbackScenes(VideoInfo{Duration: 630}, 2, 605)

	require.Len(t, scenes, 2)
	assert.Equal(t, "0:00-10:05", scenes[0].Timing)
	assert.Equal(t, "10:05-10:30", scenes[1].Timing)
}

func TestBuildFallbackScenes_Idempotent(t *testing.T) {
	info := VideoInfo{Duration: 93.7}

	first := BuildFallbackScenes(info, 10, 8)
	second := BuildFallbackScenes(info, 10, 8)

	assert.True(t, reflect.DeepEqual(first, second))
}

func TestBuildFallbackScenes_ZeroDuration(t *testing.T) {
	assert.Empty(t, BuildFallbackScenes(VideoInfo{Duration: 0}, 10, 8))
	assert.Empty(t, BuildFallbackScenes(VideoInfo{Duration: -1}, 10, 8))
}

func TestFormatTiming(t *testing.T) {
	assert.Equal(t, "0:00", FormatTiming(0))
	assert.Equal(t, "0:08", FormatTiming(8))
	assert.Equal(t, "1:00", FormatTiming(60))
	assert.Equal(t, "1:05", FormatTiming(65.9))
	assert.Equal(t, "12:34", FormatTiming(754))
}
