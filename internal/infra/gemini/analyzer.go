package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/entity"
	"github.com/scenebuild/scenebuild-extraction-service/internal/domain/port"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Cost and latency bound on a single vision request.
const maxAnalysisFrames = 10

const defaultInstruction = `Analyze this video by looking at these frames. Provide:
1. Main subject/topic
2. Visual style (cinematic, documentary, animated, etc.)
3. Key scenes or sections (describe 8-10 distinct scenes)
4. Setting and environment
5. Characters or objects present
6. Mood and atmosphere
7. Suggested scene breakdown for recreation

Format as JSON:
{
  "title": "Video title/topic",
  "style": "Visual style",
  "mood": "Atmosphere",
  "scenes": [
    {
      "scene_number": 1,
      "description": "What happens in this scene",
      "visual_prompt": "Detailed prompt for AI video generation",
      "duration": 8,
      "timing": "0:00-0:08"
    }
  ]
}`

// Analyzer submits sampled frames to a Gemini vision model. The client is
// built per call from the supplied credential, never held as process-global
// state.
type Analyzer struct {
	apiKey    string
	modelName string
	logger    *zap.Logger
}

func NewAnalyzer(apiKey, modelName string, logger *zap.Logger) *Analyzer {
	return &Analyzer{apiKey: apiKey, modelName: modelName, logger: logger}
}

// Analyze sends up to ten frames plus one instruction in a single
// GenerateContent call. Transport and auth failures come back as errors; a
// response without parseable JSON degrades to raw text only.
func (a *Analyzer) Analyze(ctx context.Context, framePaths []string, prompt string) (*port.AnalysisOutcome, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	defer client.Close()

	instruction := prompt
	if instruction == "" {
		instruction = defaultInstruction
	}

	if len(framePaths) > maxAnalysisFrames {
		framePaths = framePaths[:maxAnalysisFrames]
	}

	parts := make([]genai.Part, 0, len(framePaths)+1)
	parts = append(parts, genai.Text(instruction))
	for _, fp := range framePaths {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, fmt.Errorf("read frame %s: %w", fp, err)
		}
		parts = append(parts, genai.ImageData("jpeg", data))
	}

	model := client.GenerativeModel(a.modelName)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	text := responseText(resp)
	a.logger.Debug("gemini analysis complete", zap.Int("response_len", len(text)))

	return parseOutcome(text, a.logger), nil
}

func parseOutcome(text string, logger *zap.Logger) *port.AnalysisOutcome {
	outcome := &port.AnalysisOutcome{RawText: text}

	span, ok := ExtractJSONObject(text)
	if !ok {
		logger.Warn("no JSON object found in model response")
		return outcome
	}

	var analysis entity.SceneAnalysis
	if err := json.Unmarshal([]byte(span), &analysis); err != nil {
		logger.Warn("failed to parse model JSON, returning raw text", zap.Error(err))
		return outcome
	}

	outcome.Analysis = &analysis
	return outcome
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var text string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text += string(t)
			}
		}
	}
	return text
}
