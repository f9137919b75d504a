package entity

// VideoInfo holds container and stream metadata probed from a local video
// file. Width/Height are zero when the file has no video stream.
type VideoInfo struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	FPS      float64 `json:"fps,omitempty"`
	BitRate  int64   `json:"bitrate,omitempty"`
	HasAudio bool    `json:"has_audio"`
	Format   string  `json:"format"`
}
