package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/entity"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.ExtractionJob) error {
	query := `
		INSERT INTO extraction_jobs (
			id, user_id, source_ref, project_name, archive_key, status,
			scene_count, frame_count, video_duration, used_ai,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.SourceRef, job.ProjectName, job.ArchiveKey,
		string(job.Status), job.SceneCount, job.FrameCount, job.VideoDuration,
		job.UsedAI, job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.ExtractionJob) error {
	query := `
		UPDATE extraction_jobs SET
			status=$2, archive_key=$3, scene_count=$4, frame_count=$5,
			video_duration=$6, used_ai=$7, attempt=$8, error_message=$9,
			updated_at=$10, completed_at=$11
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.ArchiveKey, job.SceneCount,
		job.FrameCount, job.VideoDuration, job.UsedAI, job.Attempt,
		job.ErrorMessage, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error) {
	query := `
		SELECT id, user_id, source_ref, project_name, archive_key, status,
			scene_count, frame_count, video_duration, used_ai,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		FROM extraction_jobs WHERE id=$1`

	job := &entity.ExtractionJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.SourceRef, &job.ProjectName, &job.ArchiveKey,
		&status, &job.SceneCount, &job.FrameCount, &job.VideoDuration,
		&job.UsedAI, &job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}

// SaveScenes replaces the persisted scene breakdown for a job. Descriptors
// are immutable, so a re-run simply rewrites the whole set.
func (r *JobRepository) SaveScenes(ctx context.Context, jobID uuid.UUID, scenes []entity.SceneDescriptor) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM scenes WHERE job_id=$1`, jobID)

	query := `
		INSERT INTO scenes (job_id, scene_number, description, visual_prompt, duration, timing)
		VALUES ($1,$2,$3,$4,$5,$6)`
	for _, s := range scenes {
		batch.Queue(query, jobID, s.SceneNumber, s.Description, s.VisualPrompt, s.Duration, s.Timing)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(scenes)+1; i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("save scenes: %w", err)
		}
	}
	return nil
}
