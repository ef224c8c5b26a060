package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

const anthropicMaxTokens = 1024

// AnthropicClient serves the anthropic route of the inference contract.
type AnthropicClient struct {
	client *anthropic.Client
	ref    ModelRef
	logger *zap.Logger
}

// NewAnthropicClient creates an Anthropic-backed inference client.
func NewAnthropicClient(apiKey string, ref ModelRef, logger *zap.Logger) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if ref.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		ref:    ref,
		logger: logger.Named("llm"),
	}, nil
}

// Ref implements InferenceClient.
func (c *AnthropicClient) Ref() ModelRef {
	return c.ref
}

// SuggestRoofColor implements InferenceClient.
func (c *AnthropicClient) SuggestRoofColor(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error) {
	return c.complete(ctx, buildSuggestPrompt(req), req.ImageSummary)
}

// ResuggestRoofColor implements InferenceClient.
func (c *AnthropicClient) ResuggestRoofColor(ctx context.Context, req *models.ReSuggestionRequest) (*models.InferenceResponse, error) {
	return c.complete(ctx, buildResuggestPrompt(req), req.ImageSummary)
}

func (c *AnthropicClient) complete(ctx context.Context, prompt string, img models.ImageSummary) (*models.InferenceResponse, error) {
	requestID := uuid.NewString()
	logger := c.logger.With(
		zap.String("request_id", requestID),
		zap.String("model", c.ref.Model))

	content := []anthropic.MessageContent{}
	if encoded := pickImage(img); encoded != "" {
		content = append(content, anthropic.NewImageMessageContent(
			anthropic.NewMessageContentSource(
				anthropic.MessagesContentSourceTypeBase64, "image/jpeg", encoded)))
	}
	content = append(content, anthropic.NewTextMessageContent(prompt))

	logger.Debug("inference request",
		zap.Int("prompt_len", len(prompt)),
		zap.Bool("has_image", len(content) > 1))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.ref.Model),
		MaxTokens: anthropicMaxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: content},
		},
	})
	if err != nil {
		logger.Error("inference request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		llmErr := ClassifyError(err)
		llmErr.Model = c.ref.Model
		return nil, llmErr
	}

	text := firstTextBlock(resp)
	if text == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	logger.Info("inference request completed",
		zap.Duration("elapsed", time.Since(start)))

	return parseSuggestion(text)
}

func firstTextBlock(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}

var _ InferenceClient = (*AnthropicClient)(nil)
