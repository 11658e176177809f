package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/utils"
	"go.uber.org/zap"
)

// ImageService stores uploaded pictures. Products, custom requests, portfolios and
// avatars keep only the storage key; URLs are minted on read.
type ImageService interface {
	// UploadImage validates and stores an image file, returns the storage key
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL returns a temporary URL for a storage key
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

// StoredImage is an upload result: the key to persist and a URL to preview it with
type StoredImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// S3ImageService keeps images in a private bucket behind presigned URLs
type S3ImageService struct {
	s3Service S3Interface
}

var imageServiceInstance ImageService

// InitImageService installs the S3-backed image service as the process-wide instance
func InitImageService(s3Service S3Interface) ImageService {
	imageServiceInstance = &S3ImageService{
		s3Service: s3Service,
	}
	return imageServiceInstance
}

// GetImageService returns the process-wide image service, or nil when storage is not configured
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	key, err := s.s3Service.UploadFile(ctx, fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to store %q: %w", fileHeader.Filename, err)
	}
	return key, nil
}

func (s *S3ImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to presign %q: %w", imageKey, err)
	}
	return url, nil
}

func (s *S3ImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete %q: %w", imageKey, err)
	}
	return nil
}

// StoreImage uploads a file and presigns a preview URL for it. A URL that cannot be
// minted is logged and left empty; the key is what callers persist.
func StoreImage(ctx context.Context, images ImageService, fileHeader *multipart.FileHeader) (*StoredImage, error) {
	key, err := images.UploadImage(ctx, fileHeader)
	if err != nil {
		return nil, err
	}

	url, err := images.GetImageURL(ctx, key)
	if err != nil {
		config.Logger().Warn("failed to generate URL for uploaded image", zap.String("key", key), zap.Error(err))
	}
	return &StoredImage{Key: key, URL: url}, nil
}

// ResolveImageURLs presigns every key, position for position. Keys that fail resolve to "".
// A nil service resolves nothing.
func ResolveImageURLs(ctx context.Context, images ImageService, keys []string) []string {
	urls := make([]string, len(keys))
	if images == nil {
		return urls
	}
	for i, key := range keys {
		url, err := images.GetImageURL(ctx, key)
		if err != nil {
			config.Logger().Warn("failed to resolve image", zap.String("key", key), zap.Error(err))
			continue
		}
		urls[i] = url
	}
	return urls
}

// DiscardImage deletes a stored image whose record is already gone. Failures only
// leave an orphaned object behind, so they are logged rather than returned.
func DiscardImage(ctx context.Context, images ImageService, imageKey string) bool {
	if images == nil || imageKey == "" {
		return false
	}
	if err := images.DeleteImage(ctx, imageKey); err != nil {
		config.Logger().Warn("failed to delete image", zap.String("key", imageKey), zap.Error(err))
		return false
	}
	return true
}
