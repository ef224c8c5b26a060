package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rooftag-io/rooftag-engine/pkg/metrics"
	"github.com/rooftag-io/rooftag-engine/pkg/models"
)

// mockUploader records the order of uploads and can fail specific buildings.
type mockUploader struct {
	uploaded []int64
	failOsm  map[int64]error
}

func (m *mockUploader) UploadColorTag(_ context.Context, building *models.ValidatedBuilding) error {
	if err, ok := m.failOsm[building.OsmID]; ok {
		return err
	}
	m.uploaded = append(m.uploaded, building.OsmID)
	return nil
}

func seedPending(t *testing.T, repo *mockBuildingRepo, osmIDs ...int64) {
	t.Helper()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, osmID := range osmIDs {
		params := validParams()
		params.OsmID = osmID
		building, err := models.NewValidatedBuilding(params)
		require.NoError(t, err)
		building.ValidatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(context.Background(), building))
	}
}

func TestUploadService_DrainOnce_UploadsInOrder(t *testing.T) {
	repo := &mockBuildingRepo{}
	seedPending(t, repo, 100, 200, 300)
	uploader := &mockUploader{}
	svc := NewUploadService(repo, uploader, time.Minute, metrics.NewNop(), zap.NewNop())

	uploaded, err := svc.DrainOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, uploaded)
	assert.Equal(t, []int64{100, 200, 300}, uploader.uploaded)
	assert.Len(t, repo.markedUploaded, 3)
}

func TestUploadService_DrainOnce_StopsAtFirstFailure(t *testing.T) {
	repo := &mockBuildingRepo{}
	seedPending(t, repo, 100, 200, 300)
	uploader := &mockUploader{failOsm: map[int64]error{200: assert.AnError}}
	svc := NewUploadService(repo, uploader, time.Minute, metrics.NewNop(), zap.NewNop())

	uploaded, err := svc.DrainOnce(context.Background())
	require.NoError(t, err)

	// Order preserved: 300 must not jump ahead of the failed 200.
	assert.Equal(t, 1, uploaded)
	assert.Equal(t, []int64{100}, uploader.uploaded)
}

func TestUploadService_DrainOnce_AlreadyDrained(t *testing.T) {
	repo := &mockBuildingRepo{}
	uploader := &mockUploader{}
	svc := NewUploadService(repo, uploader, time.Minute, metrics.NewNop(), zap.NewNop())

	uploaded, err := svc.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, uploaded)
	assert.Empty(t, uploader.uploaded)
}

func TestUploadService_DrainOnce_SecondPassSkipsUploaded(t *testing.T) {
	repo := &mockBuildingRepo{}
	seedPending(t, repo, 100, 200)
	uploader := &mockUploader{}
	svc := NewUploadService(repo, uploader, time.Minute, metrics.NewNop(), zap.NewNop())

	_, err := svc.DrainOnce(context.Background())
	require.NoError(t, err)

	uploaded, err := svc.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, uploaded)
	assert.Equal(t, []int64{100, 200}, uploader.uploaded, "no record may be uploaded twice")
}

func TestUploadService_DrainOnce_ContextCancelled(t *testing.T) {
	repo := &mockBuildingRepo{}
	seedPending(t, repo, 100, 200)
	uploader := &mockUploader{}
	svc := NewUploadService(repo, uploader, time.Minute, metrics.NewNop(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.DrainOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, uploader.uploaded)
}

func TestUploadService_Run_StopsOnCancel(t *testing.T) {
	repo := &mockBuildingRepo{}
	uploader := &mockUploader{}
	svc := NewUploadService(repo, uploader, 10*time.Millisecond, metrics.NewNop(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("upload worker did not stop after cancel")
	}
}
