package controllers

import (
	"net/http"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/gin-gonic/gin"
)

// CreateCustomRequestRequest represents the request body for a measurement inquiry
type CreateCustomRequestRequest struct {
	ProductID       *uint    `json:"product_id"`
	ProductName     string   `json:"product_name" binding:"required,max=255"`
	AdditionalName  *string  `json:"additional_name"`
	ModelLinks      []string `json:"model_links"`
	RequiredHeights []string `json:"required_heights"`
	Images          []string `json:"images"`
}

// UpdateCustomRequestRequest represents an admin's partial update of an inquiry
type UpdateCustomRequestRequest struct {
	Status     *models.RequestStatus `json:"status" binding:"omitempty,request_status"`
	AdminNotes *string               `json:"admin_notes"`
	Version    *int                  `json:"version"`
}

func customRequestService() *services.CustomRequestService {
	return services.NewCustomRequestService(config.GetDB())
}

// CreateCustomRequest handles POST /api/v1/custom-requests
func CreateCustomRequest(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateCustomRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	request, err := customRequestService().Create(c.Request.Context(), user, services.CreateCustomRequestInput{
		ProductID:       req.ProductID,
		ProductName:     req.ProductName,
		AdditionalName:  req.AdditionalName,
		ModelLinks:      req.ModelLinks,
		RequiredHeights: req.RequiredHeights,
		Images:          req.Images,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, request)
}

// ListCustomRequests handles GET /api/v1/custom-requests
func ListCustomRequests(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	requests, err := customRequestService().List(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, requests)
}

// UpdateCustomRequest handles PUT /api/v1/custom-requests/:id (admin only)
func UpdateCustomRequest(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCustomRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	request, err := customRequestService().Update(c.Request.Context(), user, id, services.UpdateCustomRequestInput{
		Status:     req.Status,
		AdminNotes: req.AdminNotes,
		Version:    req.Version,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, request)
}
