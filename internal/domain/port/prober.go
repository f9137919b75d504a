package port

import (
	"context"

	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/entity"
)

type MediaProber interface {
	Probe(ctx context.Context, videoPath string) (*entity.VideoInfo, error)
}
