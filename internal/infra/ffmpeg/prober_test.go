package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeFixture = `{
	"streams": [
		{"codec_type": "video", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
		{"codec_type": "audio", "r_frame_rate": "0/0"}
	],
	"format": {"duration": "24.500000", "bit_rate": "2500000", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

func TestParseProbeOutput(t *testing.T) {
	info, err := parseProbeOutput([]byte(probeFixture))

	require.NoError(t, err)
	assert.Equal(t, 24.5, info.Duration)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.InDelta(t, 29.97, info.FPS, 0.01)
	assert.Equal(t, int64(2500000), info.BitRate)
	assert.True(t, info.HasAudio)
	assert.Equal(t, "mov,mp4,m4a,3gp,3g2,mj2", info.Format)
}

func TestParseProbeOutput_AudioOnly(t *testing.T) {
	fixture := `{
		"streams": [{"codec_type": "audio"}],
		"format": {"duration": "180.0", "format_name": "mp3"}
	}`

	info, err := parseProbeOutput([]byte(fixture))

	require.NoError(t, err)
	assert.Zero(t, info.Width)
	assert.Zero(t, info.Height)
	assert.True(t, info.HasAudio)
	assert.Equal(t, 180.0, info.Duration)
}

func TestParseProbeOutput_NoStreams(t *testing.T) {
	_, err := parseProbeOutput([]byte(`{"streams": [], "format": {}}`))
	assert.Error(t, err)
}

func TestParseProbeOutput_Garbage(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json at all"))
	assert.Error(t, err)
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"25", 25},
		{"0/0", 0},
		{"", 0},
		{"abc", 0},
		{"30/abc", 0},
	}

	for _, tc := range cases {
		assert.InDelta(t, tc.want, parseFrameRate(tc.in), 0.0001, "rate %q", tc.in)
	}
}
