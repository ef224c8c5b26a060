// Package llm resolves model identifiers to providers and carries the
// roof-color inference contract to them.
package llm

import (
	"context"

	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

// InferenceClient is the transport-facing side of the inference contract.
// Use this interface for dependency injection to enable mocking in tests.
type InferenceClient interface {
	// SuggestRoofColor asks the provider for a roof color suggestion.
	SuggestRoofColor(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error)

	// ResuggestRoofColor asks for a second opinion after a human rejected
	// the previous suggestion.
	ResuggestRoofColor(ctx context.Context, req *models.ReSuggestionRequest) (*models.InferenceResponse, error)

	// Ref returns the resolved provider/model route this client serves.
	Ref() ModelRef
}

// InferenceClientFactory creates inference clients for the configured model.
type InferenceClientFactory interface {
	Create() (InferenceClient, error)
}
