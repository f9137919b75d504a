package port

import "context"

// DownloadProgress reports byte-level progress during a remote acquisition.
// Total is zero when the source does not advertise a length.
type DownloadProgress struct {
	Downloaded int64
	Total      int64
}

// ProgressFunc receives throttled download progress updates. May be nil.
type ProgressFunc func(DownloadProgress)

// SourceAcquirer resolves a video reference (local path or remote URL) into a
// local file. Local paths are returned unchanged; remote sources are
// downloaded into destDir. Ownership of anything written under destDir stays
// with the caller.
type SourceAcquirer interface {
	Acquire(ctx context.Context, videoRef string, destDir string, onProgress ProgressFunc) (string, error)
}
