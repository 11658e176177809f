package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/DaniilNightingale/EMPIREsite3/clock"
	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/middleware"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/DaniilNightingale/EMPIREsite3/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var appClock clock.Clock = clock.RealClock{}

// SetClock replaces the clock used by the handlers (primarily for testing)
func SetClock(c clock.Clock) {
	if c == nil {
		c = clock.RealClock{}
	}
	appClock = c
}

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondError maps a service failure onto the error envelope
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	}

	code := "INTERNAL_ERROR"
	message := "Internal server error"
	var svcErr *services.Error
	var uploadErr *utils.FileUploadError
	switch {
	case errors.As(err, &svcErr):
		code = svcErr.Code
		message = svcErr.Message
	case errors.As(err, &uploadErr):
		status = http.StatusBadRequest
		code = uploadErr.Code
		message = uploadErr.Message
	}

	if status >= http.StatusInternalServerError {
		config.Logger().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		_ = c.Error(err)
	}

	respondErrorCode(c, status, code, message)
}

// requireUser returns the authenticated account or writes a 401
func requireUser(c *gin.Context) (*models.User, bool) {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		respondErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return user, true
}

// parseIDParam reads a positive numeric path parameter or writes a 400
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func orderService() *services.OrderService {
	return services.NewOrderService(config.GetDB(), appClock)
}
