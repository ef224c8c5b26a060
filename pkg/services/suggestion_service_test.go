package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/apperrors"
	"github.com/rooftag-io/rooftag-engine/pkg/llm"
	"github.com/rooftag-io/rooftag-engine/pkg/metrics"
	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

// mockFactory returns a prebuilt client from Create.
type mockFactory struct {
	client    llm.InferenceClient
	createErr error
}

func (f *mockFactory) Create() (llm.InferenceClient, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.client, nil
}

func validInferenceRequest() *models.InferenceRequest {
	return &models.InferenceRequest{
		BuildingID:  123456789,
		Location:    models.Location{Lat: 46.0569, Lon: 14.5058},
		BoundingBox: models.BoundingBox{MinX: 14.50, MinY: 46.05, MaxX: 14.51, MaxY: 46.06},
		SizeRatio:   0.4,
		ImageSummary: models.ImageSummary{
			Thumbnail: "dGh1bWI=",
			Quality:   models.QualityFull,
		},
	}
}

func newSuggestionService(t *testing.T, client llm.InferenceClient) SuggestionService {
	t.Helper()
	svc, err := NewSuggestionService(&mockFactory{client: client}, models.DefaultPalette(), metrics.NewNop(), zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestSuggestionService_Suggest(t *testing.T) {
	mock := llm.NewMockInferenceClient()
	mock.SuggestFunc = func(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error) {
		return &models.InferenceResponse{Color: "red", Confidence: 0.9, Method: models.MethodLLM}, nil
	}
	svc := newSuggestionService(t, mock)

	resp, err := svc.Suggest(context.Background(), validInferenceRequest())
	require.NoError(t, err)
	assert.Equal(t, "red", resp.Color)
	assert.Equal(t, 1, mock.SuggestCalls)
}

func TestSuggestionService_Suggest_AppliesDefaultPalette(t *testing.T) {
	mock := llm.NewMockInferenceClient()
	var gotColors []string
	mock.SuggestFunc = func(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error) {
		gotColors = req.AllowedColors
		return &models.InferenceResponse{Color: "blue", Confidence: 0.8, Method: models.MethodLLM}, nil
	}
	svc := newSuggestionService(t, mock)

	req := validInferenceRequest()
	req.AllowedColors = nil

	_, err := svc.Suggest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPalette(), gotColors)
}

func TestSuggestionService_Suggest_InvalidRequest(t *testing.T) {
	mock := llm.NewMockInferenceClient()
	svc := newSuggestionService(t, mock)

	req := validInferenceRequest()
	req.SizeRatio = -1

	_, err := svc.Suggest(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	assert.Equal(t, 0, mock.SuggestCalls, "provider must not be called for invalid requests")
}

func TestSuggestionService_Suggest_RejectsOffPaletteColor(t *testing.T) {
	mock := llm.NewMockInferenceClient()
	mock.SuggestFunc = func(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error) {
		return &models.InferenceResponse{Color: "chartreuse", Confidence: 0.9, Method: models.MethodLLM}, nil
	}
	svc := newSuggestionService(t, mock)

	_, err := svc.Suggest(context.Background(), validInferenceRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidResponse)
}

func TestSuggestionService_Suggest_ProviderError(t *testing.T) {
	mock := llm.NewMockInferenceClient()
	mock.SuggestFunc = func(ctx context.Context, req *models.InferenceRequest) (*models.InferenceResponse, error) {
		return nil, llm.NewError(llm.ErrorTypeAuth, "invalid api key", false, nil)
	}
	svc := newSuggestionService(t, mock)

	_, err := svc.Suggest(context.Background(), validInferenceRequest())
	require.Error(t, err)
	assert.Equal(t, 1, mock.SuggestCalls, "permanent errors must not be retried")
}

func TestSuggestionService_Resuggest(t *testing.T) {
	mock := llm.NewMockInferenceClient()
	mock.ResuggestFunc = func(ctx context.Context, req *models.ReSuggestionRequest) (*models.InferenceResponse, error) {
		return &models.InferenceResponse{Color: "brown", Confidence: 0.7, Method: models.MethodLLM}, nil
	}
	svc := newSuggestionService(t, mock)

	req := &models.ReSuggestionRequest{
		BuildingID:    123456789,
		PreviousColor: "red",
		Location:      models.Location{Lat: 46.0569, Lon: 14.5058},
		ImageSummary:  models.ImageSummary{Thumbnail: "dGh1bWI=", Quality: models.QualityFull},
		AllowedColors: models.DefaultPalette(),
	}

	resp, err := svc.Resuggest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "brown", resp.Color)
}

func TestSuggestionService_Resuggest_PreviousColorOffPalette(t *testing.T) {
	mock := llm.NewMockInferenceClient()
	svc := newSuggestionService(t, mock)

	req := &models.ReSuggestionRequest{
		BuildingID:    123456789,
		PreviousColor: "chartreuse",
		ImageSummary:  models.ImageSummary{Quality: models.QualityFull},
	}

	_, err := svc.Resuggest(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	assert.Equal(t, 0, mock.ResuggestCalls)
}

func TestNewSuggestionService_FactoryError(t *testing.T) {
	factory := &mockFactory{createErr: assert.AnError}
	_, err := NewSuggestionService(factory, models.DefaultPalette(), metrics.NewNop(), zap.NewNop())
	assert.Error(t, err)
}
