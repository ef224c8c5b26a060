package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/metrics"
	"github.com/rooftag-io/rooftag-engine/pkg/models"
	"github.com/rooftag-io/rooftag-engine/pkg/repositories"
	"github.com/rooftag-io/rooftag-engine/pkg/retry"
)

// OSMUploader pushes a validated color tag to OpenStreetMap.
type OSMUploader interface {
	UploadColorTag(ctx context.Context, building *models.ValidatedBuilding) error
}

// UploadService drains the pending-upload queue in validation order.
type UploadService interface {
	// Run drains the queue on a fixed interval until ctx is cancelled.
	Run(ctx context.Context)
	// DrainOnce uploads all currently pending records, oldest first.
	// Returns the number of records uploaded successfully.
	DrainOnce(ctx context.Context) (int, error)
}

type uploadService struct {
	repo     repositories.BuildingRepository
	uploader OSMUploader
	interval time.Duration
	retry    *retry.Config
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewUploadService creates a new UploadService.
func NewUploadService(repo repositories.BuildingRepository, uploader OSMUploader, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) UploadService {
	return &uploadService{
		repo:     repo,
		uploader: uploader,
		interval: interval,
		retry:    retry.DefaultConfig(),
		metrics:  m,
		logger:   logger.Named("upload-service"),
	}
}

var _ UploadService = (*uploadService)(nil)

func (s *uploadService) Run(ctx context.Context) {
	s.logger.Info("Upload worker started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Upload worker stopped")
			return
		case <-ticker.C:
			uploaded, err := s.DrainOnce(ctx)
			if err != nil {
				s.logger.Error("Upload pass failed", zap.Error(err))
				continue
			}
			if uploaded > 0 {
				s.logger.Info("Upload pass complete", zap.Int("uploaded", uploaded))
			}
		}
	}
}

func (s *uploadService) DrainOnce(ctx context.Context) (int, error) {
	pending, err := s.repo.FindPendingUpload(ctx)
	if err != nil {
		return 0, err
	}

	uploaded := 0
	for _, building := range pending {
		if ctx.Err() != nil {
			return uploaded, ctx.Err()
		}

		if err := s.uploadOne(ctx, building); err != nil {
			s.metrics.UploadsTotal.WithLabelValues("failure").Inc()
			s.logger.Warn("Upload failed, will retry next pass",
				zap.Int64("osm_id", building.OsmID),
				zap.Error(err))
			// Keep validation order: do not mark later records uploaded
			// ahead of an earlier failure.
			break
		}

		if err := s.repo.MarkUploaded(ctx, building.ID); err != nil {
			s.metrics.UploadsTotal.WithLabelValues("failure").Inc()
			return uploaded, err
		}

		s.metrics.UploadsTotal.WithLabelValues("success").Inc()
		uploaded++
	}

	return uploaded, nil
}

func (s *uploadService) uploadOne(ctx context.Context, building *models.ValidatedBuilding) error {
	return retry.Do(ctx, s.retry, func() error {
		return s.uploader.UploadColorTag(ctx, building)
	})
}
