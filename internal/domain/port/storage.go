package port

import (
	"context"
	"io"
)

// ArtifactStorage keeps extraction artifacts (zipped frame archives) so the
// desktop shell can fetch scene thumbnails after the workspace is gone.
type ArtifactStorage interface {
	UploadArchive(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}
