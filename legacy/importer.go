// Package legacy copies data out of the previous storefront's database, where lists
// and statuses were stored as JSON text and Russian labels, into the normalized schema.
package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrDryRun is returned by a dry run after the import transaction has been rolled back
var ErrDryRun = errors.New("dry run: import rolled back")

// ErrDestinationNotEmpty means the target database already holds data
var ErrDestinationNotEmpty = errors.New("destination database is not empty")

// Queryer is the read side of a *sql.DB
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Warning is one row that was imported in degraded form or skipped
type Warning struct {
	Table   string `json:"table"`
	RowID   int64  `json:"row_id"`
	Message string `json:"message"`
}

// Report counts the rows written per table
type Report struct {
	Users          int       `json:"users"`
	Products       int       `json:"products"`
	Orders         int       `json:"orders"`
	CustomRequests int       `json:"custom_requests"`
	ChatMessages   int       `json:"chat_messages"`
	Favorites      int       `json:"favorites"`
	Portfolio      int       `json:"portfolio"`
	DiscountRules  int       `json:"discount_rules"`
	Warnings       []Warning `json:"warnings"`
}

// Importer moves one legacy database into a freshly migrated one
type Importer struct {
	src    Queryer
	dst    *gorm.DB
	logger *zap.Logger
	DryRun bool

	report   Report
	users    map[uint]models.Role
	products map[uint]bool
}

// NewImporter creates an importer reading from src and writing through dst
func NewImporter(src Queryer, dst *gorm.DB, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{src: src, dst: dst, logger: logger}
}

// Run imports everything in one transaction. Rows that cannot be represented are skipped
// or degraded and reported as warnings; write failures abort the whole import.
func (im *Importer) Run(ctx context.Context) (*Report, error) {
	im.report = Report{Warnings: []Warning{}}
	im.users = make(map[uint]models.Role)
	im.products = make(map[uint]bool)

	data, err := im.load(ctx)
	if err != nil {
		return nil, err
	}

	err = im.dst.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmpty(tx); err != nil {
			return err
		}
		steps := []func(*gorm.DB, *legacyData) error{
			im.importUsers,
			im.importProducts,
			im.importSettings,
			im.importOrders,
			im.importCustomRequests,
			im.importChat,
			im.importFavorites,
			im.importPortfolio,
		}
		for _, step := range steps {
			if err := step(tx, data); err != nil {
				return err
			}
		}
		if err := resetSequences(tx); err != nil {
			return err
		}
		if im.DryRun {
			return ErrDryRun
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrDryRun) {
		return nil, err
	}

	im.logger.Info("legacy import finished",
		zap.Bool("dry_run", im.DryRun),
		zap.Int("users", im.report.Users),
		zap.Int("products", im.report.Products),
		zap.Int("orders", im.report.Orders),
		zap.Int("custom_requests", im.report.CustomRequests),
		zap.Int("chat_messages", im.report.ChatMessages),
		zap.Int("warnings", len(im.report.Warnings)))

	report := im.report
	return &report, err
}

func (im *Importer) warn(table string, id int64, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	im.report.Warnings = append(im.report.Warnings, Warning{Table: table, RowID: id, Message: msg})
	im.logger.Warn("legacy row degraded", zap.String("table", table), zap.Int64("id", id), zap.String("reason", msg))
}

func ensureEmpty(tx *gorm.DB) error {
	for _, model := range []interface{}{&models.User{}, &models.Product{}, &models.Order{}, &models.Settings{}} {
		var count int64
		if err := tx.Model(model).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to inspect destination: %w", err)
		}
		if count > 0 {
			return ErrDestinationNotEmpty
		}
	}
	return nil
}

// resetSequences moves PostgreSQL serials past the explicit ids that were inserted
func resetSequences(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"users", "products", "orders", "custom_requests", "chat_messages", "user_favorites", "portfolio"} {
		stmt := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))", table, table)
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to reset %s id sequence: %w", table, err)
		}
	}
	return nil
}

func (im *Importer) importUsers(tx *gorm.DB, data *legacyData) error {
	for _, row := range data.users {
		role := models.Role(strings.ToLower(strings.TrimSpace(row.Role.String)))
		if !role.Valid() {
			im.warn("users", row.ID, "unknown role %q, imported as buyer", row.Role.String)
			role = models.RoleBuyer
		}
		if uint(row.ID) == models.AdminUserID && role != models.RoleAdmin {
			im.warn("users", row.ID, "user %d is not an admin; the admin account must be fixed by hand", row.ID)
		}

		user := models.User{
			ID:              uint(row.ID),
			Username:        row.Username,
			PasswordHash:    row.Password,
			Role:            role,
			City:            row.City.String,
			Birthday:        row.Birthday.String,
			Notes:           row.Notes.String,
			InitialUsername: row.InitialUsername.String,
			CreatedAt:       row.CreatedAt,
			UpdatedAt:       row.UpdatedAt,
		}
		if user.InitialUsername == "" {
			user.InitialUsername = user.Username
		}
		if row.Avatar.Valid && row.Avatar.String != "" {
			avatar := row.Avatar.String
			user.Avatar = &avatar
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to import user %d: %w", row.ID, err)
		}
		im.users[user.ID] = role
		im.report.Users++
	}
	return nil
}

func (im *Importer) importProducts(tx *gorm.DB, data *legacyData) error {
	for _, row := range data.products {
		images, err := decodeStringList(row.AdditionalImages)
		if err != nil {
			im.warn("products", row.ID, "malformed additional_images: %v", err)
		}

		var rawOptions []priceOptionJSON
		if err := decodeJSON(row.PriceOptions, &rawOptions); err != nil {
			im.warn("products", row.ID, "malformed price_options: %v", err)
			rawOptions = nil
		}
		options := make([]models.PriceOption, 0, len(rawOptions))
		seen := make(map[string]bool)
		for i, opt := range rawOptions {
			size := strings.TrimSpace(opt.Size)
			price := opt.Price.round()
			if size == "" || price <= 0 || seen[size] {
				im.warn("products", row.ID, "dropped price option %d (size %q, price %d)", i+1, size, price)
				continue
			}
			seen[size] = true
			option := models.PriceOption{Position: len(options), Size: size, Price: price}
			if opt.ResinML != nil {
				resin := float64(*opt.ResinML)
				option.ResinML = &resin
			}
			options = append(options, option)
		}
		if len(options) == 0 {
			im.warn("products", row.ID, "no usable price options; product cannot be ordered")
		}

		partsCount := int(row.PartsCount.Int64)
		if partsCount < 1 {
			partsCount = 1
		}
		product := models.Product{
			ID:               uint(row.ID),
			Name:             row.Name,
			RelatedName:      nullableString(row.RelatedName),
			Description:      nullableString(row.Description),
			OriginalHeight:   nullableFloat(row.OriginalHeight),
			OriginalWidth:    nullableFloat(row.OriginalWidth),
			OriginalLength:   nullableFloat(row.OriginalLength),
			PartsCount:       partsCount,
			MainImage:        nullableString(row.MainImage),
			AdditionalImages: images,
			PriceOptions:     options,
			IsVisible:        !row.IsVisible.Valid || row.IsVisible.Bool,
			SalesCount:       row.SalesCount.Int64,
			CreatedAt:        row.CreatedAt,
			UpdatedAt:        row.UpdatedAt,
		}
		if err := tx.Create(&product).Error; err != nil {
			return fmt.Errorf("failed to import product %d: %w", row.ID, err)
		}
		im.products[product.ID] = true
		im.report.Products++
	}
	return nil
}

func (im *Importer) importSettings(tx *gorm.DB, data *legacyData) error {
	settings := models.Settings{
		ID:               models.SettingsID,
		PaymentInfo:      models.DefaultPaymentInfo,
		PriceCoefficient: models.ReferenceCoefficient,
		Version:          1,
	}
	row := data.settings
	if row == nil {
		return tx.Create(&settings).Error
	}

	if row.PaymentInfo.Valid {
		settings.PaymentInfo = row.PaymentInfo.String
	}
	if row.PriceCoefficient.Valid && row.PriceCoefficient.Float64 > 0 {
		settings.PriceCoefficient = row.PriceCoefficient.Float64
	} else {
		im.warn("settings", row.ID, "missing price coefficient, using %.2f", models.ReferenceCoefficient)
	}
	settings.ShowDiscountOnProducts = row.ShowDiscount.Valid && row.ShowDiscount.Bool

	var rawRules []discountRuleJSON
	if err := decodeJSON(row.DiscountRules, &rawRules); err != nil {
		im.warn("settings", row.ID, "malformed discount_rules: %v", err)
		rawRules = nil
	}
	for i, raw := range rawRules {
		rule, err := raw.toDiscountRule(len(settings.DiscountRules))
		if err == nil {
			err = services.ValidateDiscountRules([]models.DiscountRule{rule})
		}
		if err != nil {
			im.warn("settings", row.ID, "dropped discount rule %d: %v", i+1, err)
			continue
		}
		settings.DiscountRules = append(settings.DiscountRules, rule)
	}

	if err := tx.Create(&settings).Error; err != nil {
		return fmt.Errorf("failed to import settings: %w", err)
	}
	im.report.DiscountRules = len(settings.DiscountRules)
	return nil
}

func (im *Importer) importOrders(tx *gorm.DB, data *legacyData) error {
	for _, row := range data.orders {
		if _, ok := im.users[uint(row.UserID)]; !ok {
			im.warn("orders", row.ID, "owner %d does not exist, order skipped", row.UserID)
			continue
		}

		status, ok := OrderStatusFromLabel(row.Status.String)
		if !ok {
			im.warn("orders", row.ID, "unknown status %q, imported as %s", row.Status.String, status)
		}

		var rawItems []orderItemJSON
		if err := decodeJSON(row.Products, &rawItems); err != nil {
			im.warn("orders", row.ID, "malformed products: %v", err)
			rawItems = nil
		}
		items := make([]models.OrderLineItem, 0, len(rawItems))
		var subtotal int64
		for i, raw := range rawItems {
			item := models.OrderLineItem{
				ProductID: uint(raw.ID.round()),
				Name:      strings.TrimSpace(raw.Name),
				Price:     raw.Price.round(),
				Quantity:  int(raw.Quantity.round()),
			}
			if raw.SelectedSize != nil {
				item.Size = strings.TrimSpace(raw.SelectedSize.Size)
				item.BasePrice = raw.SelectedSize.Price.round()
			}
			if item.BasePrice <= 0 {
				item.BasePrice = item.Price
			}
			if item.ProductID == 0 || item.Quantity <= 0 || item.Price < 0 {
				im.warn("orders", row.ID, "dropped line %d (product %d, quantity %d)", i+1, item.ProductID, item.Quantity)
				continue
			}
			items = append(items, item)
			subtotal += item.LineTotal()
		}

		total := subtotal
		if row.TotalPrice.Valid {
			total = number(row.TotalPrice.Float64).round()
		}
		discount := subtotal - total
		if discount < 0 {
			discount = 0
		}

		executorIDs, err := decodeIDList(row.AssignedExecutors)
		if err != nil {
			im.warn("orders", row.ID, "malformed assigned_executors: %v", err)
		}
		executors := make([]models.OrderExecutor, 0, len(executorIDs))
		seen := make(map[uint]bool)
		for _, id := range executorIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if im.users[id] != models.RoleExecutor {
				im.warn("orders", row.ID, "assigned user %d is not an executor, dropped", id)
				continue
			}
			executors = append(executors, models.OrderExecutor{ExecutorID: id, CreatedAt: row.UpdatedAt})
		}

		order := models.Order{
			ID:             uint(row.ID),
			UserID:         uint(row.UserID),
			LineItems:      items,
			Subtotal:       subtotal,
			DiscountAmount: discount,
			TotalPrice:     total,
			Notes:          row.Notes.String,
			AdminNotes:     row.AdminNotes.String,
			Status:         status,
			Executors:      executors,
			Version:        1,
			CreatedAt:      row.CreatedAt,
			UpdatedAt:      row.UpdatedAt,
		}
		if err := tx.Omit("User").Create(&order).Error; err != nil {
			return fmt.Errorf("failed to import order %d: %w", row.ID, err)
		}
		im.report.Orders++
	}
	return nil
}

func (im *Importer) importCustomRequests(tx *gorm.DB, data *legacyData) error {
	for _, row := range data.customRequests {
		if _, ok := im.users[uint(row.UserID)]; !ok {
			im.warn("custom_requests", row.ID, "owner %d does not exist, request skipped", row.UserID)
			continue
		}

		status, ok := RequestStatusFromLabel(row.Status.String)
		if !ok {
			im.warn("custom_requests", row.ID, "unknown status %q, imported as %s", row.Status.String, status)
		}

		links := im.boundedList("custom_requests", row.ID, "model_links", row.ModelLinks, models.MaxRequestModelLinks)
		heights := im.boundedList("custom_requests", row.ID, "required_heights", row.RequiredHeights, models.MaxRequestHeights)
		images := im.boundedList("custom_requests", row.ID, "images", row.Images, models.MaxRequestImages)

		req := models.CustomRequest{
			ID:              uint(row.ID),
			UserID:          uint(row.UserID),
			ProductName:     strings.TrimSpace(row.ProductName.String),
			AdditionalName:  nullableString(row.AdditionalName),
			ModelLinks:      links,
			RequiredHeights: heights,
			Images:          images,
			Status:          status,
			AdminNotes:      row.AdminNotes.String,
			Version:         1,
			CreatedAt:       row.CreatedAt,
			UpdatedAt:       row.UpdatedAt,
		}
		if row.ProductID.Valid && row.ProductID.Int64 > 0 {
			pid := uint(row.ProductID.Int64)
			req.ProductID = &pid
		}
		if req.ProductName == "" {
			im.warn("custom_requests", row.ID, "request has no product name")
		}
		if err := tx.Omit("User").Create(&req).Error; err != nil {
			return fmt.Errorf("failed to import custom request %d: %w", row.ID, err)
		}
		im.report.CustomRequests++
	}
	return nil
}

func (im *Importer) boundedList(table string, id int64, column string, raw sql.NullString, limit int) models.StringList {
	list, err := decodeStringList(raw)
	if err != nil {
		im.warn(table, id, "malformed %s: %v", column, err)
		return models.StringList{}
	}
	if len(list) > limit {
		im.warn(table, id, "%s truncated from %d to %d entries", column, len(list), limit)
		list = list[:limit]
	}
	return list
}

func (im *Importer) importChat(tx *gorm.DB, data *legacyData) error {
	batch := make([]models.ChatMessage, 0, len(data.chat))
	for _, row := range data.chat {
		_, fromOK := im.users[uint(row.FromUserID)]
		_, toOK := im.users[uint(row.ToUserID)]
		text := strings.TrimSpace(row.Message.String)
		if !fromOK || !toOK || text == "" {
			im.warn("chat_messages", row.ID, "orphaned or empty message skipped")
			continue
		}
		batch = append(batch, models.ChatMessage{
			ID:         uint(row.ID),
			FromUserID: uint(row.FromUserID),
			ToUserID:   uint(row.ToUserID),
			Message:    text,
			CreatedAt:  row.CreatedAt,
		})
	}
	if len(batch) == 0 {
		return nil
	}
	if err := tx.Omit("FromUser").CreateInBatches(batch, 100).Error; err != nil {
		return fmt.Errorf("failed to import chat messages: %w", err)
	}
	im.report.ChatMessages = len(batch)
	return nil
}

func (im *Importer) importFavorites(tx *gorm.DB, data *legacyData) error {
	seen := make(map[[2]int64]bool)
	for _, row := range data.favorites {
		key := [2]int64{row.UserID, row.ProductID}
		_, userOK := im.users[uint(row.UserID)]
		if !userOK || !im.products[uint(row.ProductID)] || seen[key] {
			im.warn("user_favorites", row.ID, "orphaned or duplicate favorite skipped")
			continue
		}
		seen[key] = true
		fav := models.Favorite{
			ID:        uint(row.ID),
			UserID:    uint(row.UserID),
			ProductID: uint(row.ProductID),
			CreatedAt: row.CreatedAt,
		}
		if err := tx.Create(&fav).Error; err != nil {
			return fmt.Errorf("failed to import favorite %d: %w", row.ID, err)
		}
		im.report.Favorites++
	}

	// Counters are rebuilt from the rows so they can never disagree.
	err := tx.Exec("UPDATE products SET favorites_count = (SELECT COUNT(*) FROM user_favorites WHERE user_favorites.product_id = products.id)").Error
	if err != nil {
		return fmt.Errorf("failed to recount favorites: %w", err)
	}
	return nil
}

func (im *Importer) importPortfolio(tx *gorm.DB, data *legacyData) error {
	perUser := make(map[uint]int)
	for _, row := range data.portfolio {
		userID := uint(row.UserID)
		path := strings.TrimSpace(row.ImagePath.String)
		if im.users[userID] != models.RoleExecutor || path == "" {
			im.warn("portfolio", row.ID, "entry does not belong to an executor or has no image, skipped")
			continue
		}
		if perUser[userID] >= models.MaxPortfolioEntries {
			im.warn("portfolio", row.ID, "executor %d already has %d entries, skipped", userID, models.MaxPortfolioEntries)
			continue
		}
		entry := models.PortfolioEntry{
			ID:        uint(row.ID),
			UserID:    userID,
			ImagePath: path,
			CreatedAt: row.CreatedAt,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to import portfolio entry %d: %w", row.ID, err)
		}
		perUser[userID]++
		im.report.Portfolio++
	}
	return nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	s := v.String
	return &s
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timeOrZero(v sql.NullTime) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return v.Time.UTC()
}
