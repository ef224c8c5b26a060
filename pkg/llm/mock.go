package llm

import (
	"context"

	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

// MockInferenceClient is a configurable mock for testing inference
// consumers. Set the function fields to control behavior in tests.
type MockInferenceClient struct {
	// SuggestFunc is called when SuggestRoofColor is invoked.
	// If nil, returns a fallback "other" suggestion and nil error.
	SuggestFunc func(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error)

	// ResuggestFunc is called when ResuggestRoofColor is invoked.
	// If nil, returns a fallback "other" suggestion and nil error.
	ResuggestFunc func(ctx context.Context, req *models.ReSuggestionRequest) (*models.InferenceResponse, error)

	// ModelRef is returned by Ref. Defaults to a mock route.
	ModelRef ModelRef

	// Call tracking for verification
	SuggestCalls   int
	ResuggestCalls int
}

// NewMockInferenceClient creates a new mock with sensible defaults.
func NewMockInferenceClient() *MockInferenceClient {
	return &MockInferenceClient{
		ModelRef: ModelRef{Provider: "mock", Model: "mock-model", Separator: "/"},
	}
}

// SuggestRoofColor implements InferenceClient.
func (m *MockInferenceClient) SuggestRoofColor(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error) {
	m.SuggestCalls++
	if m.SuggestFunc != nil {
		return m.SuggestFunc(ctx, req)
	}
	return &models.InferenceResponse{Color: "other", Confidence: 0.5, Method: models.MethodFallback}, nil
}

// ResuggestRoofColor implements InferenceClient.
func (m *MockInferenceClient) ResuggestRoofColor(ctx context.Context, req *models.ReSuggestionRequest) (*models.InferenceResponse, error) {
	m.ResuggestCalls++
	if m.ResuggestFunc != nil {
		return m.ResuggestFunc(ctx, req)
	}
	return &models.InferenceResponse{Color: "other", Confidence: 0.5, Method: models.MethodFallback}, nil
}

// Ref implements InferenceClient.
func (m *MockInferenceClient) Ref() ModelRef {
	return m.ModelRef
}

var _ InferenceClient = (*MockInferenceClient)(nil)
