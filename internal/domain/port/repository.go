package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/entity"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.ExtractionJob) error
	Update(ctx context.Context, job *entity.ExtractionJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error)
	SaveScenes(ctx context.Context, jobID uuid.UUID, scenes []entity.SceneDescriptor) error
}
