package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Default endpoints for providers with OpenAI-compatible APIs.
const (
	openAIEndpoint  = "https://api.openai.com/v1"
	mistralEndpoint = "https://api.mistral.ai/v1"
)

// FactoryConfig holds the provider credentials and routing inputs for the
// client factory. Model is a free-form identifier; the factory resolves it
// to pick the transport.
type FactoryConfig struct {
	Model           string // e.g. "anthropic/claude-3-5-sonnet", "gpt-4o", "my-local-model"
	Endpoint        string // OpenAI-compatible endpoint for direct/unknown-provider models
	APIKey          string // key for the direct endpoint
	OpenAIAPIKey    string
	AnthropicAPIKey string
	MistralAPIKey   string
}

// ClientFactory creates inference clients routed by the resolved provider.
// An empty or unknown provider routes to the configured OpenAI-compatible
// endpoint (the "direct model" case).
type ClientFactory struct {
	cfg    FactoryConfig
	logger *zap.Logger
}

// NewClientFactory creates a new factory.
func NewClientFactory(cfg FactoryConfig, logger *zap.Logger) *ClientFactory {
	return &ClientFactory{cfg: cfg, logger: logger}
}

// Create resolves the configured model identifier and builds the matching
// transport client.
func (f *ClientFactory) Create() (InferenceClient, error) {
	ref := Resolve(f.cfg.Model)

	f.logger.Debug("resolved inference route",
		zap.String("identifier", f.cfg.Model),
		zap.String("provider", ref.Provider),
		zap.String("model", ref.Model))

	switch ref.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(f.cfg.AnthropicAPIKey, ref, f.logger)

	case ProviderOpenAI:
		return NewClient(&Config{
			Endpoint: openAIEndpoint,
			Model:    ref.Model,
			APIKey:   f.cfg.OpenAIAPIKey,
		}, ref, f.logger)

	case ProviderMistral:
		return NewClient(&Config{
			Endpoint: mistralEndpoint,
			Model:    ref.Model,
			APIKey:   f.cfg.MistralAPIKey,
		}, ref, f.logger)

	default:
		// Unknown or unspecified provider: send the identifier verbatim to
		// the configured OpenAI-compatible endpoint.
		if f.cfg.Endpoint == "" {
			return nil, fmt.Errorf("no endpoint configured for model %q (provider %q)", f.cfg.Model, ref.Provider)
		}
		return NewClient(&Config{
			Endpoint: f.cfg.Endpoint,
			Model:    ref.FullIdentifier(),
			APIKey:   f.cfg.APIKey,
		}, ref, f.logger)
	}
}

// Ensure ClientFactory implements InferenceClientFactory at compile time.
var _ InferenceClientFactory = (*ClientFactory)(nil)
