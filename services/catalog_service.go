package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"gorm.io/gorm"
)

// CatalogService manages products and favorites
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a catalog service over the given database
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ProductInput is the full editable state of a product
type ProductInput struct {
	Name             string
	RelatedName      *string
	Description      *string
	OriginalHeight   *float64
	OriginalWidth    *float64
	OriginalLength   *float64
	PartsCount       int
	MainImage        *string
	AdditionalImages []string
	PriceOptions     []models.PriceOption
	IsVisible        *bool
}

// ProductFilter narrows the catalog listing
type ProductFilter struct {
	Search string // name, description or exact id
}

// FavoriteToggle reports the state after a toggle
type FavoriteToggle struct {
	ProductID      uint  `json:"product_id"`
	Favorited      bool  `json:"favorited"`
	FavoritesCount int64 `json:"favorites_count"`
}

// List returns products priced under the current coefficient. Hidden products and the
// resin quantity are only shown to the admin.
func (s *CatalogService) List(ctx context.Context, caller *models.User, filter ProductFilter) ([]models.Product, error) {
	db := s.db.WithContext(ctx)
	admin := caller != nil && caller.IsAdmin()

	query := db.Model(&models.Product{}).Preload("PriceOptions", orderByPosition)
	if !admin {
		query = query.Where("is_visible = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		if id, err := strconv.ParseUint(search, 10, 64); err == nil {
			query = query.Where("(id = ? OR LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", id, pattern, pattern)
		} else {
			query = query.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
		}
	}

	var products []models.Product
	if err := query.Order("created_at DESC").Order("id DESC").Find(&products).Error; err != nil {
		return nil, dbError(err, "list products")
	}
	return s.priced(db, products, admin)
}

// Get returns one product. Hidden products are missing for everyone but the admin.
func (s *CatalogService) Get(ctx context.Context, caller *models.User, id uint) (*models.Product, error) {
	db := s.db.WithContext(ctx)
	admin := caller != nil && caller.IsAdmin()

	product, err := loadProduct(db, id)
	if err != nil {
		return nil, err
	}
	if !product.IsVisible && !admin {
		return nil, notFoundError("PRODUCT_NOT_FOUND", "product not found")
	}

	priced, err := s.priced(db, []models.Product{*product}, admin)
	if err != nil {
		return nil, err
	}
	return &priced[0], nil
}

// Create adds a product. Prices in the input are base prices.
func (s *CatalogService) Create(ctx context.Context, caller *models.User, in ProductInput) (*models.Product, error) {
	if caller == nil || !caller.IsAdmin() {
		return nil, forbiddenError("only the administrator can manage products")
	}
	if err := validateProductInput(in); err != nil {
		return nil, err
	}

	product := models.Product{}
	applyProductInput(&product, in)
	product.IsVisible = in.IsVisible == nil || *in.IsVisible

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, dbError(err, "create product")
	}
	return s.Get(ctx, caller, product.ID)
}

// Update replaces the editable state of a product, including its price options.
// Counters are never touched.
func (s *CatalogService) Update(ctx context.Context, caller *models.User, id uint, in ProductInput) (*models.Product, error) {
	if caller == nil || !caller.IsAdmin() {
		return nil, forbiddenError("only the administrator can manage products")
	}
	if err := validateProductInput(in); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := loadProduct(tx, id)
		if err != nil {
			return err
		}
		applyProductInput(product, in)
		if in.IsVisible != nil {
			product.IsVisible = *in.IsVisible
		}

		options := product.PriceOptions
		product.PriceOptions = nil

		if err := tx.Where("product_id = ?", id).Delete(&models.PriceOption{}).Error; err != nil {
			return dbError(err, "replace price options")
		}
		err = tx.Model(product).Select(
			"name", "related_name", "description", "original_height", "original_width",
			"original_length", "parts_count", "main_image", "additional_images", "is_visible",
		).Updates(product).Error
		if err != nil {
			return dbError(err, "update product")
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return dbError(err, "save price options")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, caller, id)
}

// Delete removes a product together with its price options and favorites
func (s *CatalogService) Delete(ctx context.Context, caller *models.User, id uint) error {
	if caller == nil || !caller.IsAdmin() {
		return forbiddenError("only the administrator can manage products")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return dbError(err, "delete favorites")
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.PriceOption{}).Error; err != nil {
			return dbError(err, "delete price options")
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return dbError(res.Error, "delete product")
		}
		if res.RowsAffected == 0 {
			return notFoundError("PRODUCT_NOT_FOUND", "product not found")
		}
		return nil
	})
}

// ToggleFavorite adds or removes the product from the caller's favorites and keeps the
// product's counter in step. The counter never goes below zero.
func (s *CatalogService) ToggleFavorite(ctx context.Context, caller *models.User, productID uint) (*FavoriteToggle, error) {
	if caller == nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	result := &FavoriteToggle{ProductID: productID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id", "is_visible").First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("PRODUCT_NOT_FOUND", "product not found")
			}
			return dbError(err, "load product")
		}

		res := tx.Where("user_id = ? AND product_id = ?", caller.ID, productID).Delete(&models.Favorite{})
		if res.Error != nil {
			return dbError(res.Error, "remove favorite")
		}

		counter := tx.Model(&models.Product{}).Where("id = ?", productID)
		if res.RowsAffected > 0 {
			err := counter.Where("favorites_count > 0").
				UpdateColumn("favorites_count", gorm.Expr("favorites_count - 1")).Error
			if err != nil {
				return dbError(err, "decrement favorites")
			}
			result.Favorited = false
		} else {
			if !product.IsVisible && !caller.IsAdmin() {
				return notFoundError("PRODUCT_NOT_FOUND", "product not found")
			}
			if err := tx.Create(&models.Favorite{UserID: caller.ID, ProductID: productID}).Error; err != nil {
				return dbError(err, "add favorite")
			}
			err := counter.UpdateColumn("favorites_count", gorm.Expr("favorites_count + 1")).Error
			if err != nil {
				return dbError(err, "increment favorites")
			}
			result.Favorited = true
		}

		return tx.Model(&models.Product{}).Where("id = ?", productID).
			Select("favorites_count").Scan(&result.FavoritesCount).Error
	})
	if err != nil {
		return nil, dbError(err, "toggle favorite")
	}
	return result, nil
}

// ListFavorites returns the caller's visible favorite products, most recently added first
func (s *CatalogService) ListFavorites(ctx context.Context, caller *models.User) ([]models.Product, error) {
	if caller == nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	db := s.db.WithContext(ctx)

	var products []models.Product
	err := db.Model(&models.Product{}).
		Preload("PriceOptions", orderByPosition).
		Joins("JOIN user_favorites ON user_favorites.product_id = products.id").
		Where("user_favorites.user_id = ? AND products.is_visible = ?", caller.ID, true).
		Order("user_favorites.created_at DESC").
		Order("user_favorites.id DESC").
		Find(&products).Error
	if err != nil {
		return nil, dbError(err, "list favorites")
	}
	return s.priced(db, products, caller.IsAdmin())
}

// priced converts stored base prices into charged prices for display
func (s *CatalogService) priced(db *gorm.DB, products []models.Product, admin bool) ([]models.Product, error) {
	coefficient, err := currentCoefficient(db)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].PriceOptions = PriceOptionsForDisplay(products[i].PriceOptions, coefficient, admin)
	}
	return products, nil
}

func loadProduct(db *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	if err := db.Preload("PriceOptions", orderByPosition).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("PRODUCT_NOT_FOUND", "product not found")
		}
		return nil, dbError(err, "load product")
	}
	return &product, nil
}

func orderByPosition(tx *gorm.DB) *gorm.DB {
	return tx.Order("position ASC").Order("id ASC")
}

func validateProductInput(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return validationError("MISSING_NAME", "name is required")
	}
	if in.PartsCount < 0 {
		return validationError("INVALID_PARTS_COUNT", "parts_count cannot be negative")
	}
	if len(in.PriceOptions) == 0 {
		return validationError("MISSING_PRICE_OPTIONS", "at least one price option is required")
	}
	seen := make(map[string]bool, len(in.PriceOptions))
	for i, opt := range in.PriceOptions {
		size := strings.TrimSpace(opt.Size)
		if size == "" {
			return validationError("INVALID_PRICE_OPTION", fmt.Sprintf("price option %d: size is required", i+1))
		}
		if seen[size] {
			return validationError("INVALID_PRICE_OPTION", fmt.Sprintf("price option %d: duplicate size %q", i+1, size))
		}
		seen[size] = true
		if opt.Price <= 0 {
			return validationError("INVALID_PRICE_OPTION", fmt.Sprintf("price option %d: price must be positive", i+1))
		}
		if opt.ResinML != nil && *opt.ResinML < 0 {
			return validationError("INVALID_PRICE_OPTION", fmt.Sprintf("price option %d: resin_ml cannot be negative", i+1))
		}
	}
	return nil
}

func applyProductInput(product *models.Product, in ProductInput) {
	product.Name = strings.TrimSpace(in.Name)
	product.RelatedName = in.RelatedName
	product.Description = in.Description
	product.OriginalHeight = in.OriginalHeight
	product.OriginalWidth = in.OriginalWidth
	product.OriginalLength = in.OriginalLength
	product.PartsCount = in.PartsCount
	if product.PartsCount == 0 {
		product.PartsCount = 1
	}
	product.MainImage = in.MainImage
	product.AdditionalImages = compactStrings(in.AdditionalImages)

	options := make([]models.PriceOption, 0, len(in.PriceOptions))
	for i, opt := range in.PriceOptions {
		options = append(options, models.PriceOption{
			ProductID: product.ID,
			Position:  i,
			Size:      strings.TrimSpace(opt.Size),
			Price:     opt.Price,
			ResinML:   opt.ResinML,
		})
	}
	product.PriceOptions = options
}
