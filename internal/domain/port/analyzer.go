package port

import (
	"context"

	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/entity"
)

// AnalysisOutcome carries the model's scene breakdown. Analysis is nil when
// the response contained no parseable JSON; RawText always holds the full
// model response for diagnostics.
type AnalysisOutcome struct {
	Analysis *entity.SceneAnalysis
	RawText  string
}

// SceneAnalyzer submits sampled frames plus one instruction to a
// vision-capable model. A transport or auth failure is returned as an error;
// an unparseable response is not an error.
type SceneAnalyzer interface {
	Analyze(ctx context.Context, framePaths []string, prompt string) (*AnalysisOutcome, error)
}
