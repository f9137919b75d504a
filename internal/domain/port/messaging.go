package port

import "context"

type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

// ProgressPublisher emits human-readable pipeline progress notifications to
// the caller's notification channel.
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, eventType string, message string) error
}

type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}
