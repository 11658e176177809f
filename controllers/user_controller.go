package controllers

import (
	"net/http"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/gin-gonic/gin"
)

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Username string      `json:"username" binding:"required,min=3,max=50"`
	Password string      `json:"password" binding:"required,min=6"`
	Role     models.Role `json:"role" binding:"omitempty,oneof=buyer executor"`
}

// LoginRequest represents the request body for signing in
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest represents the request body for updating the caller's profile
type UpdateUserRequest struct {
	City     *string `json:"city" binding:"omitempty,max=100"`
	Birthday *string `json:"birthday" binding:"omitempty,max=32"`
	Notes    *string `json:"notes"`
	Avatar   *string `json:"avatar"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

// AdminUpdateUserRequest represents an admin's edit of any account
type AdminUpdateUserRequest struct {
	UpdateUserRequest
	Username *string      `json:"username" binding:"omitempty,min=3,max=50"`
	Role     *models.Role `json:"role" binding:"omitempty,role"`
}

func userService() *services.UserService {
	return services.NewUserService(config.GetDB())
}

func issueToken(c *gin.Context, status int, user *models.User) {
	tokens, err := services.NewTokenService(config.GetConfig(), appClock)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, status, gin.H{
		"user":  user,
		"token": token,
	})
}

// Register handles POST /api/v1/register - creates an account and signs the caller in.
// The first account ever created becomes the administrator.
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := userService().Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	issueToken(c, http.StatusCreated, user)
}

// Login handles POST /api/v1/login - exchanges credentials for an access token
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	user, err := userService().Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	issueToken(c, http.StatusOK, user)
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me - updates current user's profile
func UpdateMyProfile(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updated, err := userService().UpdateProfile(c.Request.Context(), user.ID, req.toProfileUpdate())
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, updated)
}

// GetUser handles GET /api/v1/users/:id - gets another user's public profile
func GetUser(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := userService().GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// ListUsers handles GET /api/v1/admin/users?search=&role= (admin only)
func ListUsers(c *gin.Context) {
	role := models.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_ROLE", "role must be buyer, executor or admin")
		return
	}

	users, err := userService().List(c.Request.Context(), services.UserFilter{
		Search: c.Query("search"),
		Role:   role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, users)
}

// AdminUpdateUser handles PUT /api/v1/admin/users/:id (admin only)
func AdminUpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	updated, err := userService().AdminUpdate(c.Request.Context(), id, services.AdminUserUpdate{
		ProfileUpdate: req.toProfileUpdate(),
		Username:      req.Username,
		Role:          req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, updated)
}

// DeleteUser handles DELETE /api/v1/admin/users/:id (admin only)
func DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := userService().Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (r UpdateUserRequest) toProfileUpdate() services.ProfileUpdate {
	return services.ProfileUpdate{
		City:     r.City,
		Birthday: r.Birthday,
		Notes:    r.Notes,
		Avatar:   r.Avatar,
		Password: r.Password,
	}
}
