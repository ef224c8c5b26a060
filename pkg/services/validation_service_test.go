package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/apperrors"
	"github.com/rooftag-io/rooftag-engine/pkg/metrics"
	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

// mockBuildingRepo implements repositories.BuildingRepository for testing.
type mockBuildingRepo struct {
	buildings       []*models.ValidatedBuilding
	nextID          int64
	createErr       error
	findPendingErr  error
	markUploadedErr error
	markedUploaded  []int64
}

func (m *mockBuildingRepo) Create(_ context.Context, building *models.ValidatedBuilding) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, b := range m.buildings {
		if b.OsmID == building.OsmID {
			return fmt.Errorf("%w: osm_id %d", apperrors.ErrDuplicateKey, building.OsmID)
		}
	}
	m.nextID++
	building.ID = m.nextID
	if building.ValidatedAt.IsZero() {
		building.ValidatedAt = time.Now()
	}
	m.buildings = append(m.buildings, building)
	return nil
}

func (m *mockBuildingRepo) GetByOsmID(_ context.Context, osmID int64) (*models.ValidatedBuilding, error) {
	for _, b := range m.buildings {
		if b.OsmID == osmID {
			return b, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockBuildingRepo) FindByLocation(_ context.Context, box models.BoundingBox) ([]*models.ValidatedBuilding, error) {
	var result []*models.ValidatedBuilding
	for _, b := range m.buildings {
		loc := models.Location{Lat: b.Latitude, Lon: b.Longitude}
		if box.Contains(loc) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBuildingRepo) FindPendingUpload(_ context.Context) ([]*models.ValidatedBuilding, error) {
	if m.findPendingErr != nil {
		return nil, m.findPendingErr
	}
	var result []*models.ValidatedBuilding
	for _, b := range m.buildings {
		if !b.UploadedToOsm {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBuildingRepo) MarkUploaded(_ context.Context, id int64) error {
	if m.markUploadedErr != nil {
		return m.markUploadedErr
	}
	m.markedUploaded = append(m.markedUploaded, id)
	for _, b := range m.buildings {
		if b.ID == id {
			b.UploadedToOsm = true
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func validParams() models.NewValidatedBuildingParams {
	return models.NewValidatedBuildingParams{
		OsmID:            123456789,
		OsmType:          "way",
		Latitude:         46.05691234,
		Longitude:        14.50575678,
		RoofColorHex:     "#AA3C2F",
		ColorDescription: "red",
		ValidationMethod: models.ValidationMethodManual,
		ValidatedBy:      "validator-1",
	}
}

func TestValidationService_RecordValidation(t *testing.T) {
	repo := &mockBuildingRepo{}
	svc := NewValidationService(repo, metrics.NewNop(), zap.NewNop())

	building, err := svc.RecordValidation(context.Background(), validParams())
	require.NoError(t, err)
	require.NotNil(t, building)

	assert.Equal(t, int64(123456789), building.OsmID)
	assert.NotZero(t, building.ID)
	assert.InDelta(t, 46.0569123, building.Latitude, 1e-9)
	assert.False(t, building.UploadedToOsm)
}

func TestValidationService_RecordValidation_InvalidColor(t *testing.T) {
	repo := &mockBuildingRepo{}
	svc := NewValidationService(repo, metrics.NewNop(), zap.NewNop())

	params := validParams()
	params.RoofColorHex = "red"

	_, err := svc.RecordValidation(context.Background(), params)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConstraintViolation)
	assert.Empty(t, repo.buildings, "invalid record must not reach the repository")
}

func TestValidationService_RecordValidation_DuplicateReturnsExisting(t *testing.T) {
	repo := &mockBuildingRepo{}
	svc := NewValidationService(repo, metrics.NewNop(), zap.NewNop())

	first, err := svc.RecordValidation(context.Background(), validParams())
	require.NoError(t, err)

	params := validParams()
	params.RoofColorHex = "#111111"

	existing, err := svc.RecordValidation(context.Background(), params)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateKey)
	require.NotNil(t, existing, "duplicate error should carry the existing record")
	assert.Equal(t, first.ID, existing.ID)
	assert.Equal(t, models.HexColor("#AA3C2F"), existing.RoofColorHex, "existing record must be unchanged")
}

func TestValidationService_GetBuilding_NotFound(t *testing.T) {
	svc := NewValidationService(&mockBuildingRepo{}, metrics.NewNop(), zap.NewNop())

	_, err := svc.GetBuilding(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestValidationService_FindInArea(t *testing.T) {
	repo := &mockBuildingRepo{}
	svc := NewValidationService(repo, metrics.NewNop(), zap.NewNop())

	inside := validParams()
	_, err := svc.RecordValidation(context.Background(), inside)
	require.NoError(t, err)

	outside := validParams()
	outside.OsmID = 987654321
	outside.Latitude = 48.2
	outside.Longitude = 16.37
	_, err = svc.RecordValidation(context.Background(), outside)
	require.NoError(t, err)

	box := models.BoundingBox{MinX: 14.0, MinY: 45.5, MaxX: 15.0, MaxY: 46.5}
	found, err := svc.FindInArea(context.Background(), box)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(123456789), found[0].OsmID)
}

func TestValidationService_FindInArea_InvertedBox(t *testing.T) {
	svc := NewValidationService(&mockBuildingRepo{}, metrics.NewNop(), zap.NewNop())

	box := models.BoundingBox{MinX: 15.0, MinY: 45.5, MaxX: 14.0, MaxY: 46.5}
	_, err := svc.FindInArea(context.Background(), box)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "min_lon")

	box = models.BoundingBox{MinX: 14.0, MinY: 46.5, MaxX: 15.0, MaxY: 45.5}
	_, err = svc.FindInArea(context.Background(), box)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	assert.Contains(t, err.Error(), "min_lat")
}
