package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// ExtractionJob is the persisted record of one scene-extraction invocation.
type ExtractionJob struct {
	ID            uuid.UUID
	UserID        string
	SourceRef     string
	ProjectName   string
	ArchiveKey    string
	Status        JobStatus
	SceneCount    int
	FrameCount    int
	VideoDuration float64
	UsedAI        bool
	Attempt       int
	MaxAttempts   int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewExtractionJob(userID, sourceRef, projectName string, maxAttempts int) *ExtractionJob {
	now := time.Now().UTC()
	return &ExtractionJob{
		ID:          uuid.New(),
		UserID:      userID,
		SourceRef:   sourceRef,
		ProjectName: projectName,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *ExtractionJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.UpdatedAt = time.Now().UTC()
}

func (j *ExtractionJob) MarkCompleted(sceneCount, frameCount int, duration float64, usedAI bool, archiveKey string) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.SceneCount = sceneCount
	j.FrameCount = frameCount
	j.VideoDuration = duration
	j.UsedAI = usedAI
	j.ArchiveKey = archiveKey
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *ExtractionJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

func (j *ExtractionJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
