// Package services holds the engine's business logic, between the HTTP
// handlers and the repositories/providers.
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/llm"
	"github.com/rooftag-io/rooftag-engine/pkg/metrics"
	"github.com/rooftag-io/rooftag-engine/pkg/models"
	"github.com/rooftag-io/rooftag-engine/pkg/retry"
)

// SuggestionService produces roof color suggestions via the configured
// inference provider.
type SuggestionService interface {
	// Suggest asks the provider for a roof color for one building.
	Suggest(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error)
	// Resuggest asks for a second opinion after a human rejected the
	// previous suggestion.
	Resuggest(ctx context.Context, req *models.ReSuggestionRequest) (*models.InferenceResponse, error)
}

type suggestionService struct {
	client  llm.InferenceClient
	palette []string
	retry   *retry.Config
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewSuggestionService builds the service, creating the provider client from
// the factory. The palette is the default allowed-color list applied to
// requests that do not carry their own.
func NewSuggestionService(factory llm.InferenceClientFactory, palette []string, m *metrics.Metrics, logger *zap.Logger) (SuggestionService, error) {
	client, err := factory.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create inference client: %w", err)
	}

	return &suggestionService{
		client:  client,
		palette: palette,
		retry:   retry.DefaultConfig(),
		metrics: m,
		logger:  logger.Named("suggestion-service"),
	}, nil
}

var _ SuggestionService = (*suggestionService)(nil)

func (s *suggestionService) Suggest(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error) {
	if len(req.AllowedColors) == 0 {
		req.AllowedColors = append([]string(nil), s.palette...)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *models.InferenceResponse
	err := s.timed(ctx, func() error {
		var callErr error
		resp, callErr = s.client.SuggestRoofColor(ctx, req)
		return callErr
	})
	if err != nil {
		s.logger.Error("Suggestion failed",
			zap.Int64("building_id", req.BuildingID),
			zap.String("model", s.client.Ref().DisplayName()),
			zap.Error(err))
		return nil, err
	}

	if err := resp.Validate(req.AllowedColors); err != nil {
		s.countOutcome("invalid")
		return nil, err
	}

	s.countOutcome("success")
	return resp, nil
}

func (s *suggestionService) Resuggest(ctx context.Context, req *models.ReSuggestionRequest) (*models.InferenceResponse, error) {
	if len(req.AllowedColors) == 0 {
		req.AllowedColors = append([]string(nil), s.palette...)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *models.InferenceResponse
	err := s.timed(ctx, func() error {
		var callErr error
		resp, callErr = s.client.ResuggestRoofColor(ctx, req)
		return callErr
	})
	if err != nil {
		s.logger.Error("Re-suggestion failed",
			zap.Int64("building_id", req.BuildingID),
			zap.String("previous_color", req.PreviousColor),
			zap.Error(err))
		return nil, err
	}

	if err := resp.Validate(req.AllowedColors); err != nil {
		s.countOutcome("invalid")
		return nil, err
	}

	s.countOutcome("success")
	return resp, nil
}

// timed runs the provider call with retries while recording latency and
// error outcomes.
func (s *suggestionService) timed(ctx context.Context, fn func() error) error {
	start := time.Now()
	err := retry.Do(ctx, s.retry, fn)
	s.metrics.SuggestionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.countOutcome("error")
	}
	return err
}

func (s *suggestionService) countOutcome(outcome string) {
	s.metrics.SuggestionsTotal.WithLabelValues(s.providerLabel(), outcome).Inc()
}

func (s *suggestionService) providerLabel() string {
	if p := s.client.Ref().Provider; p != "" {
		return p
	}
	return "unknown"
}
