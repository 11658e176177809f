package services

import (
	"context"
	"errors"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsService reads and replaces the singleton settings row
type SettingsService struct {
	db *gorm.DB
}

// NewSettingsService creates a settings service over the given database
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// UpdateSettingsInput replaces the whole settings document
type UpdateSettingsInput struct {
	PaymentInfo            string
	PriceCoefficient       float64
	ShowDiscountOnProducts bool
	DiscountRules          []models.DiscountRule
	Version                *int
}

// Get returns the settings with discount rules, creating the row on first access
func (s *SettingsService) Get(ctx context.Context) (*models.Settings, error) {
	db := s.db.WithContext(ctx)
	if err := ensureSettings(db); err != nil {
		return nil, err
	}

	var settings models.Settings
	err := db.Preload("DiscountRules", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).Preload("DiscountRules.Conditions").First(&settings, models.SettingsID).Error
	if err != nil {
		return nil, dbError(err, "load settings")
	}
	return &settings, nil
}

// Coefficient returns the current global price coefficient
func (s *SettingsService) Coefficient(ctx context.Context) (float64, error) {
	return currentCoefficient(s.db.WithContext(ctx))
}

// Update replaces payment info, coefficient, the display flag and the full rule list.
// When a version is supplied it must match the stored one.
func (s *SettingsService) Update(ctx context.Context, in UpdateSettingsInput) (*models.Settings, error) {
	if in.PriceCoefficient <= 0 {
		return nil, validationError("INVALID_COEFFICIENT", "price_coefficient must be greater than zero")
	}
	if err := ValidateDiscountRules(in.DiscountRules); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSettings(tx); err != nil {
			return err
		}

		query := tx.Model(&models.Settings{}).Where("id = ?", models.SettingsID)
		if in.Version != nil {
			query = query.Where("version = ?", *in.Version)
		}
		res := query.Updates(map[string]interface{}{
			"payment_info":              in.PaymentInfo,
			"price_coefficient":         in.PriceCoefficient,
			"show_discount_on_products": in.ShowDiscountOnProducts,
			"version":                   gorm.Expr("version + 1"),
		})
		if res.Error != nil {
			return dbError(res.Error, "update settings")
		}
		if res.RowsAffected == 0 {
			return conflictError("settings were changed by someone else; reload and retry")
		}

		var ruleIDs []uint
		if err := tx.Model(&models.DiscountRule{}).Where("settings_id = ?", models.SettingsID).Pluck("id", &ruleIDs).Error; err != nil {
			return dbError(err, "load discount rules")
		}
		if len(ruleIDs) > 0 {
			if err := tx.Where("rule_id IN ?", ruleIDs).Delete(&models.DiscountCondition{}).Error; err != nil {
				return dbError(err, "delete discount conditions")
			}
			if err := tx.Where("id IN ?", ruleIDs).Delete(&models.DiscountRule{}).Error; err != nil {
				return dbError(err, "delete discount rules")
			}
		}

		for i := range in.DiscountRules {
			rule := in.DiscountRules[i]
			rule.ID = 0
			rule.SettingsID = models.SettingsID
			rule.Position = i
			conds := make([]models.DiscountCondition, len(rule.Conditions))
			for j, c := range rule.Conditions {
				c.ID = 0
				c.RuleID = 0
				conds[j] = c
			}
			rule.Conditions = conds
			if err := tx.Create(&rule).Error; err != nil {
				return dbError(err, "save discount rule")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx)
}

// ensureSettings inserts the default row unless it already exists
func ensureSettings(db *gorm.DB) error {
	defaults := models.Settings{
		ID:               models.SettingsID,
		PaymentInfo:      models.DefaultPaymentInfo,
		PriceCoefficient: models.ReferenceCoefficient,
		Version:          1,
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Omit("DiscountRules").Create(&defaults).Error
	if err != nil {
		return dbError(err, "create default settings")
	}
	return nil
}

// currentCoefficient reads the coefficient, falling back to the reference value
// when the settings row has not been created yet
func currentCoefficient(db *gorm.DB) (float64, error) {
	var settings models.Settings
	err := db.Select("price_coefficient").First(&settings, models.SettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ReferenceCoefficient, nil
	}
	if err != nil {
		return 0, dbError(err, "load price coefficient")
	}
	if settings.PriceCoefficient <= 0 {
		return models.ReferenceCoefficient, nil
	}
	return settings.PriceCoefficient, nil
}

// loadDiscountRules returns the ordered rule list with conditions
func loadDiscountRules(db *gorm.DB) ([]models.DiscountRule, error) {
	var rules []models.DiscountRule
	err := db.Where("settings_id = ?", models.SettingsID).
		Order("position ASC").
		Preload("Conditions").
		Find(&rules).Error
	if err != nil {
		return nil, dbError(err, "load discount rules")
	}
	return rules, nil
}
