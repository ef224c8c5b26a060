package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

const defaultTemperature = 0.2

// Client talks to OpenAI-compatible chat completion endpoints. It serves the
// openai and mistral routes as well as the "direct model" route, where the
// endpoint comes from configuration and the model identifier is passed
// through verbatim.
type Client struct {
	client *openai.Client
	model  string
	ref    ModelRef
	logger *zap.Logger
}

// Config holds configuration for creating an inference client.
type Config struct {
	Endpoint string // Base URL, e.g. "https://api.openai.com/v1"
	Model    string // Identifier passed to the provider, e.g. "gpt-4o"
	APIKey   string // Optional for local endpoints
}

// NewClient creates an OpenAI-compatible inference client.
func NewClient(cfg *Config, ref ModelRef, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		ref:    ref,
		logger: logger.Named("llm"),
	}, nil
}

// Ref implements InferenceClient.
func (c *Client) Ref() ModelRef {
	return c.ref
}

// SuggestRoofColor implements InferenceClient.
func (c *Client) SuggestRoofColor(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error) {
	return c.complete(ctx, buildSuggestPrompt(req), req.ImageSummary)
}

// ResuggestRoofColor implements InferenceClient.
func (c *Client) ResuggestRoofColor(ctx context.Context, req *models.ReSuggestionRequest) (*models.InferenceResponse, error) {
	return c.complete(ctx, buildResuggestPrompt(req), req.ImageSummary)
}

func (c *Client) complete(ctx context.Context, prompt string, img models.ImageSummary) (*models.InferenceResponse, error) {
	requestID := uuid.NewString()
	logger := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("model", c.model))

	userMessage := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if encoded := pickImage(img); encoded != "" {
		userMessage.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: "data:image/jpeg;base64," + encoded,
				},
			},
		}
	} else {
		userMessage.Content = prompt
	}

	logger.Debug("inference request",
		zap.Int("prompt_len", len(prompt)),
		zap.Bool("has_image", userMessage.Content == ""))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			userMessage,
		},
		Temperature: defaultTemperature,
	})
	if err != nil {
		logger.Error("inference request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		llmErr := ClassifyError(err)
		llmErr.Model = c.model
		return nil, llmErr
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	logger.Info("inference request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return parseSuggestion(resp.Choices[0].Message.Content)
}

// pickImage prefers the full image over the thumbnail when both are present.
func pickImage(img models.ImageSummary) string {
	if img.FullImage != "" {
		return img.FullImage
	}
	return img.Thumbnail
}

var _ InferenceClient = (*Client)(nil)
