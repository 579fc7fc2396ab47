package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/stepsmith/internal/model"
)

// OpenAIGenerator implements the Generator interface for OpenAI and
// Azure OpenAI endpoints
type OpenAIGenerator struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIGenerator creates a generator backed by the OpenAI API
func NewOpenAIGenerator(config Config) (*OpenAIGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   "openai",
	}, nil
}

// NewAzureOpenAIGenerator creates a generator backed by an Azure OpenAI
// deployment. The configured model name doubles as the deployment name.
func NewAzureOpenAIGenerator(config Config) (*OpenAIGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Azure OpenAI API key is required")
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("Azure OpenAI endpoint is required")
	}

	clientConfig := openai.DefaultAzureConfig(config.APIKey, config.BaseURL)

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   "azure",
	}, nil
}

// Name returns the backend name
func (g *OpenAIGenerator) Name() string {
	return g.name
}

// IsAvailable checks if the backend is properly configured
func (g *OpenAIGenerator) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	_, err := g.client.ListModels(ctx)
	if err != nil {
		// Surface the actual error so users can diagnose API key issues
		fmt.Fprintf(os.Stderr, "%s API check failed: %v\n", g.name, err)
		return false
	}
	return true
}

// GenerateStep produces one step from one segment via the Chat Completions
// API in JSON mode
func (g *OpenAIGenerator) GenerateStep(ctx context.Context, req GenerateRequest) (*model.Step, error) {
	chatModel := req.Model
	if chatModel == "" {
		chatModel = g.config.Model
	}
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1000
	}

	timeout := time.Duration(g.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: stepSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildStepPrompt(req),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2, // Lower temperature for consistent, grounded output
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := g.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", g.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", g.name)
	}

	step, err := DecodeStep(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, fmt.Errorf("step %d: %w", req.SegmentIndex, err)
	}

	return step, nil
}
