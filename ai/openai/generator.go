// Copyright 2025 Seampoint Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seampoint/concierge/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// AnswerGenerator implements ai.AnswerGenerator using OpenAI-compatible chat APIs.
type AnswerGenerator struct {
	client      llms.Model
	temperature float64
	logger      *slog.Logger
}

// reply is an internal type used for JSON unmarshaling.
// It matches the structure requested from the LLM.
type reply struct {
	Answer string `json:"answer"`
}

// newAnswerGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newAnswerGenerator(config *ai.Config) (*AnswerGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat completion
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.GeneratorHost),
		openai.WithToken("none"),
		openai.WithModel(config.GeneratorModel),
	)
	if err != nil {
		return nil, err
	}

	return &AnswerGenerator{
		client:      client,
		temperature: config.Temperature,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewAnswerGenerator creates a new answer generator using the provided configuration.
//
// Returns ai.AnswerGenerator interface to enforce abstraction.
func NewAnswerGenerator(config *ai.Config) (ai.AnswerGenerator, error) {
	return newAnswerGenerator(config)
}

// GenerateAnswer composes a grounded answer from retrieved snippets using an LLM.
// The model call is made once; only JSON parsing of a received response is retried.
func (g *AnswerGenerator) GenerateAnswer(ctx context.Context, req *ai.GenerationRequest) (string, error) {
	if req == nil || strings.TrimSpace(req.Question) == "" {
		return "", fmt.Errorf("%w: generation request has no question", ai.ErrInvalidInput)
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt(req.Snippets)),
			},
		},
	}
	for _, turn := range req.History {
		role := llms.ChatMessageTypeHuman
		if turn.Role == "assistant" {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(turn.Text)},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.Question)},
	})

	response, err := g.client.GenerateContent(ctx, content,
		llms.WithTemperature(g.temperature), llms.WithJSONMode())
	if err != nil {
		g.logger.Error("failed to generate content", "err", err)
		return "", classifyError(err)
	}

	if len(response.Choices) < 1 {
		g.logger.Warn("no choices returned from model")
		return "", fmt.Errorf("%w: model returned no choices", ai.ErrMalformedResponse)
	}

	// Strip markdown code fences if present
	responseText := strings.TrimSpace(response.Choices[0].Content)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	// Try to repair common JSON issues
	responseText = repairJSON(responseText)

	var result reply
	if err := json.Unmarshal([]byte(responseText), &result); err != nil {
		// Some models ignore JSON mode and reply with plain prose.
		// Prose is still a usable answer as long as it isn't JSON debris.
		if !strings.HasPrefix(responseText, "{") && responseText != "" {
			g.logger.Debug("model replied with plain text instead of JSON")
			return responseText, nil
		}
		g.logger.Error("error parsing generator response", "response", responseText, "err", err)
		return "", fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
	}

	answer := strings.TrimSpace(result.Answer)
	if answer == "" {
		return "", fmt.Errorf("%w: model returned an empty answer", ai.ErrMalformedResponse)
	}

	g.logger.Debug("generated answer", "length", len(answer), "snippets", len(req.Snippets))
	return answer, nil
}
