package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"gorm.io/gorm"
)

// CustomRequestService handles measurement/quote inquiries
type CustomRequestService struct {
	db *gorm.DB
}

// NewCustomRequestService creates a custom request service over the given database
func NewCustomRequestService(db *gorm.DB) *CustomRequestService {
	return &CustomRequestService{db: db}
}

// CreateCustomRequestInput is what a buyer submits
type CreateCustomRequestInput struct {
	ProductID       *uint
	ProductName     string
	AdditionalName  *string
	ModelLinks      []string
	RequiredHeights []string
	Images          []string
}

// UpdateCustomRequestInput is a partial admin update
type UpdateCustomRequestInput struct {
	Status     *models.RequestStatus
	AdminNotes *string
	Version    *int
}

// Create validates and stores a request in the pending status
func (s *CustomRequestService) Create(ctx context.Context, caller *models.User, in CreateCustomRequestInput) (*models.CustomRequest, error) {
	if caller == nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	name := strings.TrimSpace(in.ProductName)
	if name == "" {
		return nil, validationError("MISSING_PRODUCT_NAME", "product_name is required")
	}
	links := compactStrings(in.ModelLinks)
	if len(links) > models.MaxRequestModelLinks {
		return nil, validationError("TOO_MANY_LINKS", fmt.Sprintf("at most %d model links are allowed", models.MaxRequestModelLinks))
	}
	heights := compactStrings(in.RequiredHeights)
	if len(heights) > models.MaxRequestHeights {
		return nil, validationError("TOO_MANY_HEIGHTS", fmt.Sprintf("at most %d heights are allowed", models.MaxRequestHeights))
	}
	images := compactStrings(in.Images)
	if len(images) > models.MaxRequestImages {
		return nil, validationError("TOO_MANY_IMAGES", fmt.Sprintf("at most %d images are allowed", models.MaxRequestImages))
	}

	request := models.CustomRequest{
		UserID:          caller.ID,
		ProductID:       in.ProductID,
		ProductName:     name,
		AdditionalName:  in.AdditionalName,
		ModelLinks:      links,
		RequiredHeights: heights,
		Images:          images,
		Status:          models.RequestStatusPending,
		Version:         1,
	}
	if err := s.db.WithContext(ctx).Omit("User").Create(&request).Error; err != nil {
		return nil, dbError(err, "create custom request")
	}
	return s.get(ctx, request.ID)
}

// Update applies an admin's status and notes change. Only pending requests move.
func (s *CustomRequestService) Update(ctx context.Context, caller *models.User, id uint, in UpdateCustomRequestInput) (*models.CustomRequest, error) {
	if caller == nil || !caller.IsAdmin() {
		return nil, forbiddenError("only the administrator can update custom requests")
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, validationError("INVALID_STATUS", fmt.Sprintf("unknown request status %q", *in.Status))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.CustomRequest
		if err := tx.First(&request, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("REQUEST_NOT_FOUND", "custom request not found")
			}
			return dbError(err, "load custom request")
		}
		if in.Version != nil && *in.Version != request.Version {
			return conflictError("custom request was changed by someone else; reload and retry")
		}

		updates := map[string]interface{}{}
		if in.Status != nil {
			if !request.Status.CanTransitionTo(*in.Status) {
				return transitionError(string(request.Status), string(*in.Status))
			}
			if *in.Status != request.Status {
				updates["status"] = *in.Status
			}
		}
		if in.AdminNotes != nil && *in.AdminNotes != request.AdminNotes {
			updates["admin_notes"] = *in.AdminNotes
		}
		if len(updates) == 0 {
			return nil
		}

		updates["version"] = gorm.Expr("version + 1")
		res := tx.Model(&models.CustomRequest{}).
			Where("id = ? AND version = ?", request.ID, request.Version).
			Updates(updates)
		if res.Error != nil {
			return dbError(res.Error, "update custom request")
		}
		if res.RowsAffected == 0 {
			return conflictError("custom request was changed by someone else; reload and retry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// List returns every request for the admin and the caller's own otherwise, newest first
func (s *CustomRequestService) List(ctx context.Context, caller *models.User) ([]models.CustomRequest, error) {
	if caller == nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	query := s.db.WithContext(ctx).Preload("User")
	if !caller.IsAdmin() {
		query = query.Where("user_id = ?", caller.ID)
	}

	var requests []models.CustomRequest
	if err := query.Order("created_at DESC").Order("id DESC").Find(&requests).Error; err != nil {
		return nil, dbError(err, "list custom requests")
	}
	return requests, nil
}

func (s *CustomRequestService) get(ctx context.Context, id uint) (*models.CustomRequest, error) {
	var request models.CustomRequest
	if err := s.db.WithContext(ctx).Preload("User").First(&request, id).Error; err != nil {
		return nil, dbError(err, "load custom request")
	}
	return &request, nil
}

// compactStrings trims entries and drops the empty ones
func compactStrings(values []string) models.StringList {
	out := make(models.StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
