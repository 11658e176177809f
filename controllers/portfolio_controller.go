package controllers

import (
	"net/http"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/gin-gonic/gin"
)

// AddPortfolioRequest represents the request body for adding gallery images
type AddPortfolioRequest struct {
	Images []string `json:"images" binding:"required,min=1,dive,required"`
}

func portfolioService() *services.PortfolioService {
	return services.NewPortfolioService(config.GetDB(), services.GetImageService())
}

// ListPortfolio handles GET /api/v1/portfolio/:user_id
func ListPortfolio(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	entries, err := portfolioService().List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, entries)
}

// AddPortfolio handles POST /api/v1/portfolio (executors only)
func AddPortfolio(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req AddPortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	entries, err := portfolioService().Add(c.Request.Context(), user, req.Images)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, entries)
}

// DeletePortfolio handles DELETE /api/v1/portfolio/:id (owner or admin)
func DeletePortfolio(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := portfolioService().Delete(c.Request.Context(), user, id); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}
