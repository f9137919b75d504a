package entity

import "github.com/google/uuid"

// ExtractionRequestMessage is the inbound message from the scene.extraction
// queue. VideoRef is either a local filesystem path or a remote URL.
type ExtractionRequestMessage struct {
	JobID          uuid.UUID `json:"job_id"`
	UserID         string    `json:"user_id"`
	UserEmail      string    `json:"user_email,omitempty"`
	VideoRef       string    `json:"video_ref"`
	APIKey         string    `json:"api_key,omitempty"`
	MaxScenes      int       `json:"max_scenes,omitempty"`
	SceneDuration  float64   `json:"scene_duration,omitempty"`
	AnalysisPrompt string    `json:"analysis_prompt,omitempty"`
	ProjectName    string    `json:"project_name,omitempty"`
}

// ExtractionStatusMessage is the outbound message published to the
// scene.status queue whenever a job changes state.
type ExtractionStatusMessage struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       string    `json:"user_id"`
	Status       JobStatus `json:"status"`
	VideoRef     string    `json:"video_ref"`
	SceneCount   int       `json:"scene_count,omitempty"`
	FrameCount   int       `json:"frame_count,omitempty"`
	Duration     float64   `json:"duration_seconds,omitempty"`
	ArchiveKey   string    `json:"archive_key,omitempty"`
	UsedAI       bool      `json:"used_ai"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Attempt      int       `json:"attempt"`
	MaxAttempts  int       `json:"max_attempts"`
}

// ProgressEvent mirrors the desktop shell's progress notification channel.
type ProgressEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
