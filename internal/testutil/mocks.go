package testutil

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"cropr/internal/models"
	"cropr/internal/service"
)

// MockCropService is a mock implementation of service.CropService
type MockCropService struct {
	RenderFunc func(ctx context.Context, req service.CropRequest) (*service.CropResult, error)
}

func (m *MockCropService) Render(ctx context.Context, req service.CropRequest) (*service.CropResult, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, req)
	}
	return nil, nil
}

// MockImageService is a mock implementation of service.ImageService
type MockImageService struct {
	ProcessUploadFunc   func(ctx context.Context, input service.UploadInput) (*models.ImageMetadata, error)
	GetMetadataFunc     func(ctx context.Context, id int64) (*models.ImageMetadata, error)
	UpdateDetailsFunc   func(ctx context.Context, id int64, req models.UpdateDetailRequest) (*models.ImageMetadata, error)
	SearchFunc          func(ctx context.Context, query string) ([]*models.ImageMetadata, error)
	UpdateSelectionFunc func(ctx context.Context, id int64, ratioToken string, sel models.Selection) error
	DeleteImageFunc     func(ctx context.Context, id int64) error
}

func (m *MockImageService) ProcessUpload(ctx context.Context, input service.UploadInput) (*models.ImageMetadata, error) {
	if m.ProcessUploadFunc != nil {
		return m.ProcessUploadFunc(ctx, input)
	}
	return nil, nil
}

func (m *MockImageService) GetMetadata(ctx context.Context, id int64) (*models.ImageMetadata, error) {
	if m.GetMetadataFunc != nil {
		return m.GetMetadataFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockImageService) UpdateDetails(ctx context.Context, id int64, req models.UpdateDetailRequest) (*models.ImageMetadata, error) {
	if m.UpdateDetailsFunc != nil {
		return m.UpdateDetailsFunc(ctx, id, req)
	}
	return nil, nil
}

func (m *MockImageService) Search(ctx context.Context, query string) ([]*models.ImageMetadata, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return nil, nil
}

func (m *MockImageService) UpdateSelection(ctx context.Context, id int64, ratioToken string, sel models.Selection) error {
	if m.UpdateSelectionFunc != nil {
		return m.UpdateSelectionFunc(ctx, id, ratioToken, sel)
	}
	return nil
}

func (m *MockImageService) DeleteImage(ctx context.Context, id int64) error {
	if m.DeleteImageFunc != nil {
		return m.DeleteImageFunc(ctx, id)
	}
	return nil
}

// MockHealthService is a mock implementation of service.HealthService
type MockHealthService struct {
	CheckHealthFunc func(ctx context.Context) (*service.HealthStatus, error)
	GetMetricsFunc  func(ctx context.Context) (map[string]interface{}, error)
}

func (m *MockHealthService) CheckHealth(ctx context.Context) (*service.HealthStatus, error) {
	if m.CheckHealthFunc != nil {
		return m.CheckHealthFunc(ctx)
	}
	return &service.HealthStatus{Services: map[string]string{"application": "healthy"}}, nil
}

func (m *MockHealthService) GetMetrics(ctx context.Context) (map[string]interface{}, error) {
	if m.GetMetricsFunc != nil {
		return m.GetMetricsFunc(ctx)
	}
	return map[string]interface{}{}, nil
}

// InMemoryRepository is a map-backed repository.ImageRepository for
// service-level tests.
type InMemoryRepository struct {
	mu      sync.Mutex
	images  map[int64]*models.ImageMetadata
	nextID  int64
	FailGet error // when set, Get returns this error
}

// NewInMemoryRepository creates an empty in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{images: make(map[int64]*models.ImageMetadata)}
}

func (r *InMemoryRepository) NextID(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return r.nextID, nil
}

func (r *InMemoryRepository) Store(ctx context.Context, img *models.ImageMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *img
	r.images[img.ID] = &clone
	if img.ID > r.nextID {
		r.nextID = img.ID
	}
	return nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id int64) (*models.ImageMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailGet != nil {
		return nil, r.FailGet
	}
	img, ok := r.images[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "image", ID: formatID(id)}
	}
	clone := *img
	return &clone, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, img *models.ImageMetadata) error {
	return r.Store(ctx, img)
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.images, id)
	return nil
}

func (r *InMemoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.images[id]
	return ok, nil
}

func (r *InMemoryRepository) Search(ctx context.Context, query string, limit int) ([]*models.ImageMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	needle := strings.ToLower(query)
	results := make([]*models.ImageMetadata, 0)
	for _, img := range r.images {
		if needle == "" || strings.Contains(strings.ToLower(img.Name), needle) {
			clone := *img
			results = append(results, &clone)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID > results[j].ID })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *InMemoryRepository) Health(ctx context.Context) error { return nil }
func (r *InMemoryRepository) Close() error                     { return nil }

// InMemorySourceStorage is a map-backed storage.SourceStorage
type InMemorySourceStorage struct {
	mu      sync.Mutex
	sources map[int64][]byte
}

// NewInMemorySourceStorage creates an empty in-memory source store
func NewInMemorySourceStorage() *InMemorySourceStorage {
	return &InMemorySourceStorage{sources: make(map[int64][]byte)}
}

func (s *InMemorySourceStorage) Upload(ctx context.Context, id int64, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[id] = append([]byte(nil), data...)
	return nil
}

func (s *InMemorySourceStorage) Download(ctx context.Context, id int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.sources[id]
	if !ok {
		return nil, models.SourceUnavailableError{ID: id}
	}
	return append([]byte(nil), data...), nil
}

func (s *InMemorySourceStorage) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, id)
	return nil
}

func (s *InMemorySourceStorage) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sources[id]
	return ok, nil
}

func (s *InMemorySourceStorage) Health(ctx context.Context) error { return nil }

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
