package controllers

import (
	"net/http"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/middleware"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/gin-gonic/gin"
)

// PriceOptionRequest is one size variant with its base price
type PriceOptionRequest struct {
	Size    string   `json:"size" binding:"required"`
	Price   int64    `json:"price" binding:"required,gt=0"`
	ResinML *float64 `json:"resin_ml" binding:"omitempty,gte=0"`
}

// ProductRequest represents the request body for creating or replacing a product
type ProductRequest struct {
	Name             string               `json:"name" binding:"required,max=255"`
	RelatedName      *string              `json:"related_name"`
	Description      *string              `json:"description"`
	OriginalHeight   *float64             `json:"original_height" binding:"omitempty,gte=0"`
	OriginalWidth    *float64             `json:"original_width" binding:"omitempty,gte=0"`
	OriginalLength   *float64             `json:"original_length" binding:"omitempty,gte=0"`
	PartsCount       int                  `json:"parts_count" binding:"omitempty,gte=0"`
	MainImage        *string              `json:"main_image"`
	AdditionalImages []string             `json:"additional_images"`
	PriceOptions     []PriceOptionRequest `json:"price_options" binding:"required,min=1,dive"`
	IsVisible        *bool                `json:"is_visible"`
}

// ToggleFavoriteRequest represents the request body for POST /favorites/toggle
type ToggleFavoriteRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

func catalogService() *services.CatalogService {
	return services.NewCatalogService(config.GetDB())
}

// ListProducts handles GET /api/v1/products?search= - lists the catalog.
// The admin also sees hidden products and resin quantities.
func ListProducts(c *gin.Context) {
	products, err := catalogService().List(c.Request.Context(), middleware.GetCurrentUser(c), services.ProductFilter{
		Search: c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, products)
}

// GetProduct handles GET /api/v1/products/:id
func GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := catalogService().Get(c.Request.Context(), middleware.GetCurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products (admin only)
func CreateProduct(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	product, err := catalogService().Create(c.Request.Context(), user, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/:id (admin only)
func UpdateProduct(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	product, err := catalogService().Update(c.Request.Context(), user, id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/:id (admin only)
func DeleteProduct(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := catalogService().Delete(c.Request.Context(), user, id); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// ToggleFavorite handles POST /api/v1/favorites/toggle
func ToggleFavorite(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req ToggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := catalogService().ToggleFavorite(c.Request.Context(), user, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// ListFavorites handles GET /api/v1/favorites
func ListFavorites(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	products, err := catalogService().ListFavorites(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, products)
}

func (r ProductRequest) toInput() services.ProductInput {
	options := make([]models.PriceOption, 0, len(r.PriceOptions))
	for _, opt := range r.PriceOptions {
		options = append(options, models.PriceOption{Size: opt.Size, Price: opt.Price, ResinML: opt.ResinML})
	}
	return services.ProductInput{
		Name:             r.Name,
		RelatedName:      r.RelatedName,
		Description:      r.Description,
		OriginalHeight:   r.OriginalHeight,
		OriginalWidth:    r.OriginalWidth,
		OriginalLength:   r.OriginalLength,
		PartsCount:       r.PartsCount,
		MainImage:        r.MainImage,
		AdditionalImages: r.AdditionalImages,
		PriceOptions:     options,
		IsVisible:        r.IsVisible,
	}
}
