package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"sync"

	"github.com/DaniilNightingale/EMPIREsite3/utils"
)

// MockImageService is an in-memory ImageService for tests and local development
type MockImageService struct {
	images  map[string][]byte
	deleted []string
	seq     int
	failErr error
	mu      sync.RWMutex
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	return &MockImageService{
		images: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global image service instance for testing
func (m *MockImageService) SetAsMockForTesting() {
	SetImageService(m)
}

// FailWith makes every subsequent storage call return err. Pass nil to recover.
func (m *MockImageService) FailWith(err error) {
	m.mu.Lock()
	m.failErr = err
	m.mu.Unlock()
}

// Seed stores content under a fixed key, as if it had been uploaded earlier
func (m *MockImageService) Seed(imageKey string, content []byte) {
	m.mu.Lock()
	m.images[imageKey] = content
	m.mu.Unlock()
}

// UploadImage validates the file and keeps its content in memory
func (m *MockImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return "", fmt.Errorf("failed to upload image: %w", m.failErr)
	}
	m.seq++
	imageKey := fmt.Sprintf("uploads/mock/%d_%s", m.seq, filepath.Base(fileHeader.Filename))
	m.images[imageKey] = content
	return imageKey, nil
}

// GetImageURL returns a fake bucket URL for a stored image
func (m *MockImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failErr != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", m.failErr)
	}
	if _, exists := m.images[imageKey]; !exists {
		return "", fmt.Errorf("image not found in mock storage: %s", imageKey)
	}
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", imageKey), nil
}

// DeleteImage removes an image and records the key
func (m *MockImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return fmt.Errorf("failed to delete image: %w", m.failErr)
	}
	delete(m.images, imageKey)
	m.deleted = append(m.deleted, imageKey)
	return nil
}

// ImageExists checks if an image exists in mock storage
func (m *MockImageService) ImageExists(imageKey string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.images[imageKey]
	return exists
}

// DeletedKeys returns every key passed to DeleteImage, in call order
func (m *MockImageService) DeletedKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

// Count returns the number of stored images
func (m *MockImageService) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.images)
}

// Clear removes all images and resets recorded state
func (m *MockImageService) Clear() {
	m.mu.Lock()
	m.images = make(map[string][]byte)
	m.deleted = nil
	m.seq = 0
	m.failErr = nil
	m.mu.Unlock()
}
