package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/apperrors"
	"github.com/rooftag-io/rooftag-engine/pkg/metrics"
	"github.com/rooftag-io/rooftag-engine/pkg/models"
	"github.com/rooftag-io/rooftag-engine/pkg/repositories"
)

// ValidationService records human-confirmed roof colors and serves lookups
// over the validated record store.
type ValidationService interface {
	// RecordValidation persists a validated roof color. When a record for
	// the same OSM building already exists, the existing record is
	// returned together with apperrors.ErrDuplicateKey.
	RecordValidation(ctx context.Context, params models.NewValidatedBuildingParams) (*models.ValidatedBuilding, error)

	// GetBuilding returns the validated record for one OSM building.
	GetBuilding(ctx context.Context, osmID int64) (*models.ValidatedBuilding, error)

	// FindInArea returns validated records inside a bounding box.
	FindInArea(ctx context.Context, box models.BoundingBox) ([]*models.ValidatedBuilding, error)

	// PendingUploads lists records not yet pushed to OSM, oldest first.
	PendingUploads(ctx context.Context) ([]*models.ValidatedBuilding, error)
}

type validationService struct {
	repo    repositories.BuildingRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewValidationService creates a new ValidationService.
func NewValidationService(repo repositories.BuildingRepository, m *metrics.Metrics, logger *zap.Logger) ValidationService {
	return &validationService{
		repo:    repo,
		metrics: m,
		logger:  logger.Named("validation-service"),
	}
}

var _ ValidationService = (*validationService)(nil)

func (s *validationService) RecordValidation(ctx context.Context, params models.NewValidatedBuildingParams) (*models.ValidatedBuilding, error) {
	building, err := models.NewValidatedBuilding(params)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, building); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			// Surface the existing record so callers can report the
			// conflict with its current contents.
			existing, getErr := s.repo.GetByOsmID(ctx, building.OsmID)
			if getErr != nil {
				return nil, err
			}
			return existing, err
		}

		s.logger.Error("Failed to record validation",
			zap.Int64("osm_id", params.OsmID),
			zap.Error(err))
		return nil, err
	}

	s.metrics.ValidationsTotal.WithLabelValues(building.ValidationMethod).Inc()
	s.logger.Info("Validation recorded",
		zap.Int64("osm_id", building.OsmID),
		zap.String("roof_color", string(building.RoofColorHex)),
		zap.String("method", building.ValidationMethod))

	return building, nil
}

func (s *validationService) GetBuilding(ctx context.Context, osmID int64) (*models.ValidatedBuilding, error) {
	return s.repo.GetByOsmID(ctx, osmID)
}

func (s *validationService) FindInArea(ctx context.Context, box models.BoundingBox) ([]*models.ValidatedBuilding, error) {
	if box.MinX > box.MaxX {
		return nil, fmt.Errorf("%w: bounding box min_lon %v greater than max_lon %v",
			apperrors.ErrInvalidRequest, box.MinX, box.MaxX)
	}
	if box.MinY > box.MaxY {
		return nil, fmt.Errorf("%w: bounding box min_lat %v greater than max_lat %v",
			apperrors.ErrInvalidRequest, box.MinY, box.MaxY)
	}
	return s.repo.FindByLocation(ctx, box)
}

func (s *validationService) PendingUploads(ctx context.Context) ([]*models.ValidatedBuilding, error) {
	return s.repo.FindPendingUpload(ctx)
}
