package controllers

import (
	"net/http"

	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/gin-gonic/gin"
)

// UploadImage handles POST /api/v1/uploads - stores one image from the multipart
// "file" field and returns its storage key and a temporary URL
func UploadImage(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondErrorCode(c, http.StatusBadRequest, "NO_FILE", "A file must be uploaded in the \"file\" field")
		return
	}

	images := services.GetImageService()
	if images == nil {
		respondErrorCode(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Image storage is not configured")
		return
	}

	stored, err := services.StoreImage(c.Request.Context(), images, fileHeader)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, stored)
}
