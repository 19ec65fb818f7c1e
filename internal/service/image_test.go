package service_test

import (
	"context"
	"os"
	"testing"

	"cropr/internal/config"
	"cropr/internal/models"
	"cropr/internal/service"
	"cropr/internal/storage"
	"cropr/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type imageFixture struct {
	cfg    *config.Config
	repo   *testutil.InMemoryRepository
	source *testutil.InMemorySourceStorage
	cache  *storage.RenderCache
	images service.ImageService
}

func newImageFixture(t *testing.T) *imageFixture {
	t.Helper()

	cfg := testutil.TestConfig(t)
	repo := testutil.NewInMemoryRepository()
	source := testutil.NewInMemorySourceStorage()

	cache, err := storage.NewRenderCache(&cfg.Cache)
	require.NoError(t, err)

	images := service.NewImageService(repo, source, cache, service.NewProcessorService(), cfg)

	return &imageFixture{cfg: cfg, repo: repo, source: source, cache: cache, images: images}
}

func TestImageService_ProcessUpload(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()
	data := testutil.TestPNG(t, 640, 480)

	meta, err := f.images.ProcessUpload(ctx, service.UploadInput{
		Filename: "holiday.png",
		Data:     data,
		Size:     int64(len(data)),
	})
	require.NoError(t, err)

	// Dimensions come from decoding, not from the caller
	assert.Equal(t, 640, meta.Width)
	assert.Equal(t, 480, meta.Height)
	assert.Equal(t, "holiday", meta.Name)
	assert.Greater(t, meta.ID, int64(0))

	stored, err := f.source.Download(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	record, err := f.repo.Get(ctx, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.Name, record.Name)
}

func TestImageService_ProcessUploadRejectsGarbage(t *testing.T) {
	f := newImageFixture(t)

	_, err := f.images.ProcessUpload(context.Background(), service.UploadInput{
		Filename: "junk.png",
		Data:     []byte("not an image"),
		Size:     12,
	})
	require.Error(t, err)
	assert.IsType(t, models.DecodeError{}, err)
}

func TestImageService_ProcessUploadRejectsEmpty(t *testing.T) {
	f := newImageFixture(t)

	_, err := f.images.ProcessUpload(context.Background(), service.UploadInput{
		Filename: "empty.png",
	})
	require.Error(t, err)
	assert.IsType(t, models.ValidationError{}, err)
}

func TestImageService_UpdateDetails(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	meta := models.NewImageMetadata(1, "before", 100, 100)
	require.NoError(t, f.repo.Store(ctx, meta))

	name := "after"
	credit := "Jane Photographer"
	updated, err := f.images.UpdateDetails(ctx, 1, models.UpdateDetailRequest{
		Name:   &name,
		Credit: &credit,
	})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Name)
	assert.Equal(t, "Jane Photographer", updated.Credit)

	t.Run("empty name rejected", func(t *testing.T) {
		empty := ""
		_, err := f.images.UpdateDetails(ctx, 1, models.UpdateDetailRequest{Name: &empty})
		require.Error(t, err)
		assert.IsType(t, models.ValidationError{}, err)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := f.images.UpdateDetails(ctx, 404, models.UpdateDetailRequest{Name: &name})
		require.Error(t, err)
		assert.IsType(t, models.NotFoundError{}, err)
	})
}

func TestImageService_Search(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	for i, name := range []string{"sunset beach", "city sunset", "mountains"} {
		meta := models.NewImageMetadata(int64(i+1), name, 100, 100)
		require.NoError(t, f.repo.Store(ctx, meta))
	}

	results, err := f.images.Search(ctx, "sunset")
	require.NoError(t, err)
	require.Len(t, results, 2)
	// Newest first
	assert.Equal(t, int64(2), results[0].ID)
	assert.Equal(t, int64(1), results[1].ID)

	all, err := f.images.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestImageService_UpdateSelection(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	meta := models.NewImageMetadata(1, "pic", 400, 200)
	require.NoError(t, f.repo.Store(ctx, meta))

	sel := models.Selection{X0: 0, Y0: 0, X1: 200, Y1: 200}
	require.NoError(t, f.images.UpdateSelection(ctx, 1, "1x1", sel))

	stored, err := f.repo.Get(ctx, 1)
	require.NoError(t, err)
	got, ok := stored.SelectionFor("1x1")
	require.True(t, ok)
	assert.Equal(t, sel, got)

	t.Run("ratio outside allow-list rejected", func(t *testing.T) {
		err := f.images.UpdateSelection(ctx, 1, "7x5", sel)
		require.Error(t, err)
		assert.IsType(t, models.InvalidRatioError{}, err)
	})

	t.Run("original token rejected", func(t *testing.T) {
		// The original ratio always renders the full frame; a stored
		// selection for it would override that, so the allow-list
		// applies to it like any other token.
		err := f.images.UpdateSelection(ctx, 1, "original", sel)
		require.Error(t, err)
		assert.IsType(t, models.InvalidRatioError{}, err)

		stored, err := f.repo.Get(ctx, 1)
		require.NoError(t, err)
		_, ok := stored.SelectionFor("original")
		assert.False(t, ok)
	})

	t.Run("selection outside bounds rejected", func(t *testing.T) {
		bad := models.Selection{X0: 0, Y0: 0, X1: 500, Y1: 200}
		err := f.images.UpdateSelection(ctx, 1, "1x1", bad)
		require.Error(t, err)
		assert.IsType(t, models.GeometryError{}, err)
	})
}

func TestImageService_UpdateSelectionInvalidatesCache(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	meta := models.NewImageMetadata(1, "pic", 400, 200)
	require.NoError(t, f.repo.Store(ctx, meta))

	// Pre-populate cached renders for two ratios
	require.NoError(t, f.cache.Put(ctx, 1, "1x1", 100, "jpg", []byte("old-a")))
	require.NoError(t, f.cache.Put(ctx, 1, "1x1", 200, "jpg", []byte("old-b")))
	require.NoError(t, f.cache.Put(ctx, 1, "4x3", 100, "jpg", []byte("keep")))

	sel := models.Selection{X0: 100, Y0: 0, X1: 300, Y1: 200}
	require.NoError(t, f.images.UpdateSelection(ctx, 1, "1x1", sel))

	// Every cached width for the updated ratio is gone
	_, hit, err := f.cache.Get(ctx, 1, "1x1", 100, "jpg")
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = f.cache.Get(ctx, 1, "1x1", 200, "jpg")
	require.NoError(t, err)
	assert.False(t, hit)

	// Other ratios survive
	_, hit, err = f.cache.Get(ctx, 1, "4x3", 100, "jpg")
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestImageService_DeleteImage(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	meta := models.NewImageMetadata(1, "pic", 400, 200)
	require.NoError(t, f.repo.Store(ctx, meta))
	require.NoError(t, f.source.Upload(ctx, 1, []byte("bytes"), "image/png"))
	require.NoError(t, f.cache.Put(ctx, 1, "1x1", 100, "jpg", []byte("render")))
	// Crop reads accept ratios outside the configured set, so renders can
	// be cached under them too; deletion must not leave those behind.
	require.NoError(t, f.cache.Put(ctx, 1, "5x7", 100, "png", []byte("render")))

	require.NoError(t, f.images.DeleteImage(ctx, 1))

	_, err := f.repo.Get(ctx, 1)
	assert.IsType(t, models.NotFoundError{}, err)

	exists, err := f.source.Exists(ctx, 1)
	require.NoError(t, err)
	assert.False(t, exists)

	_, statErr := os.Stat(f.cache.EntryPath(1, "1x1", 100, "jpg"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(f.cache.EntryPath(1, "5x7", 100, "png"))
	assert.True(t, os.IsNotExist(statErr))

	t.Run("deleting missing record fails", func(t *testing.T) {
		err := f.images.DeleteImage(ctx, 404)
		assert.IsType(t, models.NotFoundError{}, err)
	})
}

func TestImageService_DeleteImageNoStaleRenders(t *testing.T) {
	f := newImageFixture(t)
	ctx := context.Background()

	placeholder, err := service.NewPlaceholderService(&f.cfg.Image.Placeholder)
	require.NoError(t, err)
	crop := service.NewCropService(f.repo, f.source, f.cache, service.NewProcessorService(), placeholder, f.cfg)

	data := testutil.TestPNG(t, 400, 200)
	require.NoError(t, f.source.Upload(ctx, 1, data, "image/png"))
	require.NoError(t, f.repo.Store(ctx, models.NewImageMetadata(1, "pic", 400, 200)))

	// A read-path ratio outside the configured selection allow-list
	req := service.CropRequest{ID: 1, RatioToken: "5x7", Width: 100, Extension: "png"}
	first, err := crop.Render(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Placeholder)

	require.NoError(t, f.images.DeleteImage(ctx, 1))

	// The cache is probed before the metadata lookup, so any surviving
	// entry would be served for the deleted image indefinitely.
	second, err := crop.Render(ctx, req)
	require.NoError(t, err)
	assert.False(t, second.CacheHit)
	assert.True(t, second.Placeholder)
}
