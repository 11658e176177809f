package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
)

// UserService manages accounts and credentials
type UserService struct {
	db *gorm.DB
}

// NewUserService creates a user service over the given database
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// RegisterInput is the data needed to create an account
type RegisterInput struct {
	Username string
	Password string
	Role     models.Role
}

// ProfileUpdate is a partial update of the caller's own profile
type ProfileUpdate struct {
	City     *string
	Birthday *string
	Notes    *string
	Avatar   *string
	Password *string
}

// AdminUserUpdate is a partial update an admin may apply to any user
type AdminUserUpdate struct {
	ProfileUpdate
	Username *string
	Role     *models.Role
}

// UserFilter narrows the admin user listing
type UserFilter struct {
	Search string // exact id or username substring
	Role   models.Role
}

// Register creates an account. The very first account becomes the admin with the fixed
// admin id; later accounts may only be buyers or executors.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return nil, validationError("INVALID_USERNAME", "username must be between 3 and 50 characters")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError("INVALID_PASSWORD", "password must be at least 6 characters")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
			return dbError(err, "check username")
		}
		if existing > 0 {
			return &Error{Kind: ErrConflict, Code: "USER_EXISTS", Message: "a user with this username already exists"}
		}

		var total int64
		if err := tx.Model(&models.User{}).Count(&total).Error; err != nil {
			return dbError(err, "count users")
		}

		user = models.User{
			Username:        username,
			PasswordHash:    hash,
			Role:            models.RoleBuyer,
			InitialUsername: username,
		}
		if total == 0 {
			user.ID = models.AdminUserID
			user.Role = models.RoleAdmin
		} else if in.Role == models.RoleExecutor {
			user.Role = models.RoleExecutor
		}

		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return &Error{Kind: ErrConflict, Code: "USER_EXISTS", Message: "a user with this username already exists", Err: err}
			}
			return dbError(err, "create user")
		}
		if user.ID == models.AdminUserID && tx.Dialector.Name() == "postgres" {
			// An explicit id does not advance the serial sequence.
			if err := tx.Exec("SELECT setval(pg_get_serial_sequence('users', 'id'), (SELECT MAX(id) FROM users))").Error; err != nil {
				return dbError(err, "advance user id sequence")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Authenticate checks a username/password pair
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, validationError("MISSING_CREDENTIALS", "username and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &Error{Kind: ErrUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid username or password"}
	}
	if err != nil {
		return nil, dbError(err, "load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid username or password"}
	}
	return &user, nil
}

// GetByID loads a user
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("USER_NOT_FOUND", "user not found")
		}
		return nil, dbError(err, "load user")
	}
	return &user, nil
}

// UpdateProfile applies the caller's own profile edits
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) (*models.User, error) {
	updates, err := profileUpdates(in)
	if err != nil {
		return nil, err
	}
	return s.applyUpdates(ctx, id, updates)
}

// AdminUpdate applies an admin's edits, including role changes
func (s *UserService) AdminUpdate(ctx context.Context, id uint, in AdminUserUpdate) (*models.User, error) {
	updates, err := profileUpdates(in.ProfileUpdate)
	if err != nil {
		return nil, err
	}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if len(name) < minUsernameLength || len(name) > maxUsernameLength {
			return nil, validationError("INVALID_USERNAME", "username must be between 3 and 50 characters")
		}
		updates["username"] = name
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, validationError("INVALID_ROLE", "role must be buyer, executor or admin")
		}
		if id == models.AdminUserID && *in.Role != models.RoleAdmin {
			return nil, forbiddenError("the administrator role cannot be removed")
		}
		updates["role"] = *in.Role
	}
	return s.applyUpdates(ctx, id, updates)
}

// List returns users newest first, optionally filtered
func (s *UserService) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		if id, err := strconv.ParseUint(search, 10, 64); err == nil {
			query = query.Where("id = ? OR LOWER(username) LIKE ?", id, pattern)
		} else {
			query = query.Where("LOWER(username) LIKE ?", pattern)
		}
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	var users []models.User
	if err := query.Order("created_at DESC").Order("id DESC").Find(&users).Error; err != nil {
		return nil, dbError(err, "list users")
	}
	return users, nil
}

// Delete removes a user. The administrator account cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if id == models.AdminUserID {
		return forbiddenError("the administrator account cannot be deleted")
	}
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return dbError(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return notFoundError("USER_NOT_FOUND", "user not found")
	}
	return nil
}

func (s *UserService) applyUpdates(ctx context.Context, id uint, updates map[string]interface{}) (*models.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, &Error{Kind: ErrConflict, Code: "USER_EXISTS", Message: "a user with this username already exists", Err: err}
		}
		return nil, dbError(err, "update user")
	}
	return s.GetByID(ctx, id)
}

func profileUpdates(in ProfileUpdate) (map[string]interface{}, error) {
	updates := make(map[string]interface{})
	if in.City != nil {
		updates["city"] = strings.TrimSpace(*in.City)
	}
	if in.Birthday != nil {
		updates["birthday"] = strings.TrimSpace(*in.Birthday)
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Avatar != nil {
		updates["avatar"] = *in.Avatar
	}
	if in.Password != nil {
		if len(*in.Password) < minPasswordLength {
			return nil, validationError("INVALID_PASSWORD", "password must be at least 6 characters")
		}
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hash
	}
	return updates, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", &Error{Kind: ErrValidation, Code: "INVALID_PASSWORD", Message: "password cannot be hashed", Err: err}
	}
	return string(hash), nil
}

// isUniqueViolation works with both PostgreSQL and SQLite error texts
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
