package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/clock"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to connect to test database")

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, models.AutoMigrate(db), "Failed to migrate test database")
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, id uint, username string, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		ID:              id,
		Username:        username,
		PasswordHash:    "not-a-real-hash",
		Role:            role,
		InitialUsername: username,
		CreatedAt:       testNow.AddDate(0, -6, 0),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, visible bool, options ...models.PriceOption) *models.Product {
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
	require.NoError(t, db.Create(product).Error)
	return product
}

func setTestCoefficient(t *testing.T, db *gorm.DB, coefficient float64) {
	t.Helper()

	_, err := NewSettingsService(db).Update(context.Background(), UpdateSettingsInput{
		PaymentInfo:      models.DefaultPaymentInfo,
		PriceCoefficient: coefficient,
	})
	require.NoError(t, err)
}

func newTestClock() *clock.FakeClock {
	return clock.NewFake(testNow)
}

// assertServiceError checks both the error kind and the machine-readable code
func assertServiceError(t *testing.T, err error, kind error, code string) {
	t.Helper()

	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "expected kind %v, got %v", kind, err)
	var svcErr *Error
	if assert.True(t, errors.As(err, &svcErr), "expected a service error, got %T", err) {
		assert.Equal(t, code, svcErr.Code)
	}
}

func intPtr(v int) *int {
	return &v
}

func int64Ptr(v int64) *int64 {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

func uintPtr(v uint) *uint {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}
