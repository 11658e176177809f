package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plain-text password of every user created by CreateUser
const TestPassword = "secret123"

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// RequireTestEnvironmentOrSkip is similar to RequireTestEnvironment but skips the test
// instead of failing it. Use this for optional tests that should only run in test environment.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}

// TestConfig returns a configuration suitable for in-process tests
func TestConfig() *config.Config {
	return &config.Config{
		DatabaseURL:        "sqlite://memory",
		Port:               "8080",
		GoEnv:              "test",
		JWTSecret:          "test-secret-for-signing-tokens",
		JWTIssuer:          "print-marketplace",
		JWTAudience:        "print-marketplace-api",
		TokenTTL:           time.Hour,
		AWSRegion:          "us-east-1",
		LogLevel:           "error",
		CORSAllowedOrigins: []string{"*"},
	}
}

// UseTestConfig installs TestConfig as the global configuration for the duration of the test
func UseTestConfig(t *testing.T) *config.Config {
	t.Helper()

	previous := config.GetConfig()
	cfg := TestConfig()
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(previous) })
	return cfg
}

// NewTestDB opens a migrated in-memory SQLite database and installs it as the global DB
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	// Every query must see the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db), "Failed to migrate test database")

	previous := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(previous)
		sqlDB.Close()
	})
	return db
}

// CreateUser stores an account whose password is TestPassword
func CreateUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	return CreateUserWithID(t, db, 0, username, role)
}

// CreateUserWithID stores an account with a fixed id (use models.AdminUserID for the admin)
func CreateUserWithID(t *testing.T, db *gorm.DB, id uint, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		ID:              id,
		Username:        username,
		PasswordHash:    string(hash),
		Role:            role,
		InitialUsername: username,
	}
	require.NoError(t, db.Create(user).Error, "Failed to create user %s", username)
	return user
}

// CreateProduct stores a product with the given price options (base prices).
// Without options it gets a single 10cm option at 1000.
func CreateProduct(t *testing.T, db *gorm.DB, name string, visible bool, options ...models.PriceOption) *models.Product {
	t.Helper()

	if len(options) == 0 {
		options = []models.PriceOption{{Size: "10cm", Price: 1000}}
	}
	for i := range options {
		options[i].Position = i
	}
	product := &models.Product{
		Name:         name,
		PartsCount:   1,
		PriceOptions: options,
		IsVisible:    visible,
	}
	require.NoError(t, db.Create(product).Error, "Failed to create product %s", name)
	return product
}
