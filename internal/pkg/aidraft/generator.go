package aidraft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
)

const (
	defaultModel       = "gpt-4.1-mini"
	defaultTemperature = 0.2

	systemPrompt = "You generate concise, practical payment/deadline support emails. " +
		"Avoid sensitive data, do not include bank account numbers, and return valid JSON."
)

// ErrNoOutput is returned when the provider answers without a usable draft.
var ErrNoOutput = errors.New("AI provider returned no output")

// GenerationInput is what leaves the process; Prompt is already redacted.
type GenerationInput struct {
	Prompt   string
	Language string
	Tone     string
}

// Generation is the structured draft returned by a Generator.
type Generation struct {
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	SafetyFlags []string `json:"safetyFlags"`
}

// Generator produces an email draft from a prompt.
type Generator interface {
	Generate(ctx context.Context, in GenerationInput) (*Generation, error)
}

// OpenAIGenerator calls the chat completions API with a JSON response format.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIGenerator builds the client once. An empty API key is reported on
// the first Generate call so the server can still start without it.
func NewOpenAIGenerator(cfg config.OpenAIConfig) *OpenAIGenerator {
	g := &OpenAIGenerator{model: cfg.Model, timeout: cfg.Timeout}
	if g.model == "" {
		g.model = defaultModel
	}
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		g.client = openai.NewClientWithConfig(clientConfig)
	}
	return g
}

func (g *OpenAIGenerator) Generate(ctx context.Context, in GenerationInput) (*Generation, error) {
	if g.client == nil {
		return nil, apperror.Internal("OPENAI_API_KEY is required", nil)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: defaultTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(in)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoOutput
	}
	return parseGeneration(resp.Choices[0].Message.Content)
}

func userPrompt(in GenerationInput) string {
	return fmt.Sprintf("Language: %s\nTone: %s\nPrompt: %s\nReturn: {\"subject\": string, \"body\": string, \"safetyFlags\": string[]}",
		in.Language, in.Tone, in.Prompt)
}

func parseGeneration(content string) (*Generation, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrNoOutput
	}
	var gen Generation
	if err := json.Unmarshal([]byte(content), &gen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoOutput, err)
	}
	if strings.TrimSpace(gen.Subject) == "" || strings.TrimSpace(gen.Body) == "" {
		return nil, ErrNoOutput
	}
	return &gen, nil
}
