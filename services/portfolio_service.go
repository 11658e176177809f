package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"gorm.io/gorm"
)

// PortfolioService manages executor galleries
type PortfolioService struct {
	db     *gorm.DB
	images ImageService
}

// NewPortfolioService creates a portfolio service. images may be nil, in which case
// entries are returned without URLs and deletions leave stored files in place.
func NewPortfolioService(db *gorm.DB, images ImageService) *PortfolioService {
	return &PortfolioService{db: db, images: images}
}

// List returns an executor's gallery, oldest first
func (s *PortfolioService) List(ctx context.Context, userID uint) ([]models.PortfolioEntry, error) {
	db := s.db.WithContext(ctx)

	var owner models.User
	if err := db.Select("id", "role").First(&owner, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("USER_NOT_FOUND", "user not found")
		}
		return nil, dbError(err, "load user")
	}
	if !owner.IsExecutor() {
		return nil, forbiddenError("only executors have a portfolio")
	}

	var entries []models.PortfolioEntry
	if err := db.Where("user_id = ?", userID).Order("created_at ASC").Order("id ASC").Find(&entries).Error; err != nil {
		return nil, dbError(err, "list portfolio")
	}
	s.attachURLs(ctx, entries)
	return entries, nil
}

// Add appends uploaded image keys to the caller's gallery
func (s *PortfolioService) Add(ctx context.Context, caller *models.User, imageKeys []string) ([]models.PortfolioEntry, error) {
	if caller == nil || !caller.IsExecutor() {
		return nil, forbiddenError("only executors can add portfolio entries")
	}
	keys := compactStrings(imageKeys)
	if len(keys) == 0 {
		return nil, validationError("MISSING_IMAGES", "at least one image is required")
	}

	var created []models.PortfolioEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.PortfolioEntry{}).Where("user_id = ?", caller.ID).Count(&existing).Error; err != nil {
			return dbError(err, "count portfolio")
		}
		if int(existing)+len(keys) > models.MaxPortfolioEntries {
			return validationError("PORTFOLIO_FULL", fmt.Sprintf("a portfolio holds at most %d images", models.MaxPortfolioEntries))
		}

		created = make([]models.PortfolioEntry, 0, len(keys))
		for _, key := range keys {
			created = append(created, models.PortfolioEntry{UserID: caller.ID, ImagePath: strings.TrimSpace(key)})
		}
		if err := tx.Create(&created).Error; err != nil {
			return dbError(err, "add portfolio entries")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.attachURLs(ctx, created)
	return created, nil
}

// Delete removes an entry owned by the caller (or any entry for the admin) and its image
func (s *PortfolioService) Delete(ctx context.Context, caller *models.User, id uint) error {
	if caller == nil {
		return &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	db := s.db.WithContext(ctx)

	var entry models.PortfolioEntry
	if err := db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("PORTFOLIO_ENTRY_NOT_FOUND", "portfolio entry not found")
		}
		return dbError(err, "load portfolio entry")
	}
	if entry.UserID != caller.ID && !caller.IsAdmin() {
		return forbiddenError("you can only delete your own portfolio entries")
	}

	if err := db.Delete(&entry).Error; err != nil {
		return dbError(err, "delete portfolio entry")
	}

	DiscardImage(ctx, s.images, entry.ImagePath)
	return nil
}

func (s *PortfolioService) attachURLs(ctx context.Context, entries []models.PortfolioEntry) {
	keys := make([]string, len(entries))
	for i := range entries {
		keys[i] = entries[i].ImagePath
	}
	for i, url := range ResolveImageURLs(ctx, s.images, keys) {
		entries[i].ImageURL = url
	}
}
