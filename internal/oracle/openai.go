package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/wallet-watchdog/internal/logging"
	"github.com/wallet-watchdog/internal/types"
)

// OpenAIOracle implements the Oracle interface using the OpenAI chat API
type OpenAIOracle struct {
	client *openai.Client
	model  string
}

// NewOpenAIOracle creates a new OpenAI-backed oracle
func NewOpenAIOracle(apiKey string, model string) *OpenAIOracle {
	client := openai.NewClient(apiKey)
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIOracle{
		client: client,
		model:  model,
	}
}

const systemPrompt = "You are an expert on-chain intelligence analyst for a tool called Wallet Watchdog. " +
	"You always return analysis results as a single JSON object matching the requested schema, with no surrounding prose."

// Analyze requests a structured wallet health assessment from the model.
// The breakdown contract (non-zero impacts in [-15,15] summing toward the
// deviation from the 75-point baseline) is stated in the prompt and then
// enforced by Validate; a response that fails either parsing or validation
// surfaces as ErrAnalysisFailed.
func (o *OpenAIOracle) Analyze(ctx context.Context, address string, chain types.ChainID) (*Analysis, error) {
	prompt := fmt.Sprintf(`Analyze the %s wallet address %s and generate a comprehensive, structured health report.

Critical requirements for the score breakdown:
health_score_breakdown MUST contain factors with meaningful, non-zero score_impact values. Each score_impact must be an integer between -15 and +15, and they should add up to approximately match the overall_health_score deviation from a baseline of 75.

Analysis requirements:
1. overall_health_score: a realistic integer between 60 and 90.
2. health_summary_text: one sentence explaining the score.
3. health_score_breakdown: exactly 3-4 factors, each with category, score_impact (never 0) and description.
4. behavior_profile: choose ONE tag, with a summary and supporting details.
5. ai_summary: a risk-based summary. Use the phrase "high-risk" or "medium risk" where warranted.
6. recommendations: 2-3 actionable items.
7. score_trend: exactly 3 historical points with DIFFERENT scores showing realistic variation, newest first, each with an ISO-8601 date.

Return a single JSON object with keys: overall_health_score, health_summary_text, health_score_breakdown, ai_summary, behavior_profile, score_trend, recommendations.`,
		chain, address)

	resp, err := o.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: 0.7,
		},
	)
	if err != nil {
		logging.GetGlobalLogger().WithError(err).WithFields(map[string]interface{}{
			"address": address,
			"chain":   chain,
		}).Error("Oracle request failed")
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrAnalysisFailed)
	}

	analysis, err := parseAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		logging.GetGlobalLogger().WithError(err).WithFields(map[string]interface{}{
			"address": address,
			"chain":   chain,
		}).Error("Oracle returned malformed analysis")
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	return analysis, nil
}

// parseAnalysis decodes and validates a raw model response. Some models wrap
// JSON in markdown fences despite instructions, so those are stripped first.
func parseAnalysis(raw string) (*Analysis, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var analysis Analysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}

	if err := Validate(&analysis); err != nil {
		return nil, fmt.Errorf("invalid analysis shape: %w", err)
	}

	return &analysis, nil
}
