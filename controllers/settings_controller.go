package controllers

import (
	"net/http"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/gin-gonic/gin"
)

// UpdateSettingsRequest replaces the whole settings document
type UpdateSettingsRequest struct {
	PaymentInfo            string                `json:"payment_info"`
	PriceCoefficient       float64               `json:"price_coefficient" binding:"required,gt=0"`
	ShowDiscountOnProducts bool                  `json:"show_discount_on_products"`
	DiscountRules          []models.DiscountRule `json:"discount_rules"`
	Version                *int                  `json:"version"`
}

func settingsService() *services.SettingsService {
	return services.NewSettingsService(config.GetDB())
}

// GetSettings handles GET /api/v1/settings - public payment info, coefficient and discounts
func GetSettings(c *gin.Context) {
	settings, err := settingsService().Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/v1/settings (admin only)
func UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	settings, err := settingsService().Update(c.Request.Context(), services.UpdateSettingsInput{
		PaymentInfo:            req.PaymentInfo,
		PriceCoefficient:       req.PriceCoefficient,
		ShowDiscountOnProducts: req.ShowDiscountOnProducts,
		DiscountRules:          req.DiscountRules,
		Version:                req.Version,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, settings)
}
