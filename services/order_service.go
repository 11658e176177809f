package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/clock"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Executor listing scopes
const (
	ScopeAssigned = "assigned"
	ScopeOwn      = "own"
)

// monthlyWindow is the trailing period used by the monthly discount conditions
const monthlyWindow = 30 * 24 * time.Hour

// OrderService runs the order workflow: creation, admin updates and scoped reads
type OrderService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewOrderService creates an order service. A nil clock uses the wall clock.
func NewOrderService(db *gorm.DB, clk clock.Clock) *OrderService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &OrderService{db: db, clock: clk}
}

// LineItemInput is one cart line. Price is what the client displayed and is ignored.
type LineItemInput struct {
	ProductID uint
	Size      string
	Quantity  int
	Price     int64
}

// UpdateOrderInput is a partial admin update. Nil fields are left unchanged.
type UpdateOrderInput struct {
	Status            *models.OrderStatus
	AdminNotes        *string
	TotalPrice        *int64
	AssignedExecutors *[]uint
	Version           *int
}

// OrderFilter narrows order listings
type OrderFilter struct {
	Status models.OrderStatus
	Search string // exact order id
	Scope  string // executors only: assigned (default) or own
	UserID uint   // admins only
}

// QuotedItem is a priced cart line
type QuotedItem struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Size      string `json:"size"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

// Quote is the server-side cart total
type Quote struct {
	Items       []QuotedItem      `json:"items"`
	Subtotal    int64             `json:"subtotal"`
	Discount    int64             `json:"discount_amount"`
	Applied     []AppliedDiscount `json:"applied_discounts"`
	Total       int64             `json:"total_price"`
	Coefficient float64           `json:"price_coefficient"`
}

// CreateOrder prices the cart under the current coefficient, applies discounts and
// stores the order in the created status. The owner is always the caller.
func (s *OrderService) CreateOrder(ctx context.Context, caller *models.User, items []LineItemInput, notes string) (*models.Order, error) {
	if caller == nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	if len(items) == 0 {
		return nil, validationError("EMPTY_ORDER", "order must contain at least one item")
	}

	var orderID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		coefficient, err := currentCoefficient(tx)
		if err != nil {
			return err
		}
		lineItems, err := resolveLineItems(tx, items, coefficient)
		if err != nil {
			return err
		}

		subtotal, err := subtotalOf(lineItems)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		discount, err := s.evaluateDiscount(tx, caller, subtotal, lineItems, now)
		if err != nil {
			return err
		}

		order := models.Order{
			UserID:         caller.ID,
			LineItems:      lineItems,
			Subtotal:       subtotal,
			DiscountAmount: discount.Amount,
			TotalPrice:     subtotal - discount.Amount,
			Notes:          strings.TrimSpace(notes),
			Status:         models.OrderStatusCreated,
			Version:        1,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Omit("User", "Executors").Create(&order).Error; err != nil {
			return dbError(err, "create order")
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, caller, orderID)
}

// QuoteCart prices a cart exactly as CreateOrder would, without persisting anything
func (s *OrderService) QuoteCart(ctx context.Context, caller *models.User, items []LineItemInput) (*Quote, error) {
	if len(items) == 0 {
		return nil, validationError("EMPTY_ORDER", "cart must contain at least one item")
	}
	db := s.db.WithContext(ctx)

	coefficient, err := currentCoefficient(db)
	if err != nil {
		return nil, err
	}
	lineItems, err := resolveLineItems(db, items, coefficient)
	if err != nil {
		return nil, err
	}
	subtotal, err := subtotalOf(lineItems)
	if err != nil {
		return nil, err
	}
	discount, err := s.evaluateDiscount(db, caller, subtotal, lineItems, s.clock.Now())
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		Items:       make([]QuotedItem, 0, len(lineItems)),
		Subtotal:    subtotal,
		Discount:    discount.Amount,
		Applied:     discount.Applied,
		Total:       subtotal - discount.Amount,
		Coefficient: coefficient,
	}
	for _, li := range lineItems {
		quote.Items = append(quote.Items, QuotedItem{
			ProductID: li.ProductID,
			Name:      li.Name,
			Size:      li.Size,
			Price:     li.Price,
			Quantity:  li.Quantity,
			LineTotal: li.LineTotal(),
		})
	}
	return quote, nil
}

// UpdateOrder applies an admin's partial update. Executor assignment is applied before
// the status so the requested status is checked against the post-assignment state.
func (s *OrderService) UpdateOrder(ctx context.Context, caller *models.User, id uint, in UpdateOrderInput) (*models.Order, error) {
	if caller == nil || !caller.IsAdmin() {
		return nil, forbiddenError("only the administrator can update orders")
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, validationError("INVALID_STATUS", fmt.Sprintf("unknown order status %q", *in.Status))
	}
	if in.TotalPrice != nil && *in.TotalPrice < 0 {
		return nil, validationError("INVALID_TOTAL_PRICE", "total_price cannot be negative")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("LineItems").Preload("Executors").First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("ORDER_NOT_FOUND", "order not found")
			}
			return dbError(err, "load order")
		}
		if in.Version != nil && *in.Version != order.Version {
			return conflictError("order was changed by someone else; reload and retry")
		}

		next := order.Status
		updates := map[string]interface{}{}

		order.SyncAssignedExecutors()
		if in.AssignedExecutors != nil && next.IsTerminal() &&
			sameIDs(order.AssignedExecutors, uniqueIDs(*in.AssignedExecutors)) {
			in.AssignedExecutors = nil
		}

		if in.AssignedExecutors != nil {
			if next.IsTerminal() {
				return &Error{
					Kind:    ErrInvalidTransition,
					Code:    "ORDER_CLOSED",
					Message: fmt.Sprintf("executors cannot be assigned to a %s order", next),
				}
			}
			ids, err := validateExecutors(tx, *in.AssignedExecutors)
			if err != nil {
				return err
			}
			if !sameIDs(order.AssignedExecutors, ids) {
				if err := replaceExecutors(tx, order.ID, ids, s.clock.Now()); err != nil {
					return err
				}
				updates["updated_at"] = s.clock.Now()
			}
			switch next {
			case models.OrderStatusCreated, models.OrderStatusUnpaid:
				next = models.OrderStatusAccepted
			}
		}

		if in.Status != nil {
			if !next.CanTransitionTo(*in.Status) {
				return transitionError(string(next), string(*in.Status))
			}
			next = *in.Status
		}
		if next != order.Status {
			updates["status"] = next
		}
		if in.AdminNotes != nil && *in.AdminNotes != order.AdminNotes {
			updates["admin_notes"] = *in.AdminNotes
		}
		if in.TotalPrice != nil && *in.TotalPrice != order.TotalPrice {
			updates["total_price"] = *in.TotalPrice
		}
		if len(updates) == 0 {
			return nil
		}

		updates["version"] = gorm.Expr("version + 1")
		updates["updated_at"] = s.clock.Now()
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(updates)
		if res.Error != nil {
			return dbError(res.Error, "update order")
		}
		if res.RowsAffected == 0 {
			return conflictError("order was changed by someone else; reload and retry")
		}

		if next == models.OrderStatusReady && order.Status != models.OrderStatusReady {
			if err := recordSales(tx, order.LineItems); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, caller, id)
}

// AssignExecutors replaces the executor set of an order. Created and unpaid orders
// move to accepted; in-progress orders keep their status.
func (s *OrderService) AssignExecutors(ctx context.Context, caller *models.User, id uint, executorIDs []uint, version *int) (*models.Order, error) {
	if executorIDs == nil {
		executorIDs = []uint{}
	}
	return s.UpdateOrder(ctx, caller, id, UpdateOrderInput{AssignedExecutors: &executorIDs, Version: version})
}

// ListOrders returns the orders visible to the caller, newest first
func (s *OrderService) ListOrders(ctx context.Context, caller *models.User, filter OrderFilter) ([]models.Order, error) {
	if caller == nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	db := s.db.WithContext(ctx)

	query, err := s.scoped(db, caller, filter.Scope)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() && filter.UserID != 0 {
		query = query.Where("orders.user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, validationError("INVALID_STATUS", fmt.Sprintf("unknown order status %q", filter.Status))
		}
		query = query.Where("orders.status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		id, err := strconv.ParseUint(search, 10, 64)
		if err != nil {
			return []models.Order{}, nil
		}
		query = query.Where("orders.id = ?", id)
	}

	var orders []models.Order
	err = withOrderAssociations(query).
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, dbError(err, "list orders")
	}

	coefficient, err := currentCoefficient(db)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		decorateOrder(&orders[i], coefficient)
	}
	return orders, nil
}

// GetOrder loads one order if the caller may see it. Invisible orders are reported as missing.
func (s *OrderService) GetOrder(ctx context.Context, caller *models.User, id uint) (*models.Order, error) {
	if caller == nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	db := s.db.WithContext(ctx)

	var order models.Order
	if err := withOrderAssociations(db.Model(&models.Order{})).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("ORDER_NOT_FOUND", "order not found")
		}
		return nil, dbError(err, "load order")
	}

	visible := caller.IsAdmin() || order.UserID == caller.ID || (caller.IsExecutor() && order.HasExecutor(caller.ID))
	if !visible {
		return nil, notFoundError("ORDER_NOT_FOUND", "order not found")
	}

	coefficient, err := currentCoefficient(db)
	if err != nil {
		return nil, err
	}
	decorateOrder(&order, coefficient)
	return &order, nil
}

// LatestOrderUpdate returns the most recent update time among the caller's visible orders
func (s *OrderService) LatestOrderUpdate(ctx context.Context, caller *models.User) (*time.Time, error) {
	query, err := s.scoped(s.db.WithContext(ctx), caller, "")
	if err != nil {
		return nil, err
	}
	var order models.Order
	err = query.Select("orders.updated_at").Order("orders.updated_at DESC").Limit(1).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "load latest order update")
	}
	return &order.UpdatedAt, nil
}

func (s *OrderService) scoped(db *gorm.DB, caller *models.User, scope string) (*gorm.DB, error) {
	query := db.Model(&models.Order{})
	switch {
	case caller.IsAdmin():
		return query, nil
	case caller.IsExecutor():
		switch scope {
		case "", ScopeAssigned:
			assigned := db.Model(&models.OrderExecutor{}).Select("order_id").Where("executor_id = ?", caller.ID)
			return query.Where("orders.id IN (?)", assigned), nil
		case ScopeOwn:
			return query.Where("orders.user_id = ?", caller.ID), nil
		default:
			return nil, validationError("INVALID_SCOPE", "scope must be assigned or own")
		}
	default:
		return query.Where("orders.user_id = ?", caller.ID), nil
	}
}

// evaluateDiscount builds the discount context from the caller's order history
func (s *OrderService) evaluateDiscount(tx *gorm.DB, caller *models.User, subtotal int64, items []models.OrderLineItem, now time.Time) (DiscountResult, error) {
	rules, err := loadDiscountRules(tx)
	if err != nil {
		return DiscountResult{}, err
	}
	if len(rules) == 0 || caller == nil {
		return DiscountResult{Applied: []AppliedDiscount{}}, nil
	}

	dctx := DiscountContext{
		UserID:       caller.ID,
		Role:         caller.Role,
		RegisteredAt: caller.CreatedAt,
		Subtotal:     subtotal,
		Now:          now,
	}
	for _, li := range items {
		dctx.ProductIDs = append(dctx.ProductIDs, li.ProductID)
	}

	history := tx.Model(&models.Order{}).
		Where("user_id = ? AND status <> ?", caller.ID, models.OrderStatusCancelled)
	if err := history.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&dctx.LifetimeSpent).Error; err != nil {
		return DiscountResult{}, dbError(err, "sum lifetime spend")
	}

	var monthly struct {
		Orders int
		Spent  int64
	}
	if err := history.Session(&gorm.Session{}).
		Where("created_at >= ?", now.Add(-monthlyWindow)).
		Select("COUNT(*) AS orders, COALESCE(SUM(total_price), 0) AS spent").
		Scan(&monthly).Error; err != nil {
		return DiscountResult{}, dbError(err, "sum monthly spend")
	}
	dctx.MonthlyOrders = monthly.Orders
	dctx.MonthlySpent = monthly.Spent

	return ComputeDiscount(subtotal, rules, dctx), nil
}

// resolveLineItems looks every line up in the catalog and prices it under the coefficient.
// The size label selects the price option; client prices are never trusted.
func resolveLineItems(tx *gorm.DB, items []LineItemInput, coefficient float64) ([]models.OrderLineItem, error) {
	ids := make([]uint, 0, len(items))
	for i, item := range items {
		if item.ProductID == 0 {
			return nil, validationError("INVALID_ITEM", fmt.Sprintf("item %d: product_id is required", i+1))
		}
		if item.Quantity < 1 || item.Quantity > models.MaxLineQuantity {
			return nil, validationError("INVALID_QUANTITY",
				fmt.Sprintf("item %d: quantity must be between 1 and %d", i+1, models.MaxLineQuantity))
		}
		if strings.TrimSpace(item.Size) == "" {
			return nil, validationError("INVALID_ITEM", fmt.Sprintf("item %d: a price option must be selected", i+1))
		}
		ids = append(ids, item.ProductID)
	}

	var products []models.Product
	if err := tx.Preload("PriceOptions").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, dbError(err, "load products")
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lineItems := make([]models.OrderLineItem, 0, len(items))
	for i, item := range items {
		product, ok := byID[item.ProductID]
		if !ok || !product.IsVisible {
			return nil, validationError("PRODUCT_UNAVAILABLE", fmt.Sprintf("item %d: product %d is not available", i+1, item.ProductID))
		}
		option, ok := product.FindPriceOption(strings.TrimSpace(item.Size))
		if !ok {
			return nil, validationError("UNKNOWN_PRICE_OPTION", fmt.Sprintf("item %d: product %d has no size %q", i+1, item.ProductID, item.Size))
		}
		charged := chargedPrice(option.Price, coefficient)
		if charged.GreaterThan(maxAmount) {
			return nil, validationError("ORDER_TOO_LARGE", fmt.Sprintf("item %d: price exceeds the supported amount", i+1))
		}
		price := charged.IntPart()
		if price <= 0 {
			return nil, validationError("INVALID_PRICE", fmt.Sprintf("item %d: price must be positive", i+1))
		}
		lineItems = append(lineItems, models.OrderLineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Size:      option.Size,
			BasePrice: option.Price,
			Price:     price,
			Quantity:  item.Quantity,
		})
	}
	return lineItems, nil
}

// subtotalOf sums the lines and rejects carts whose total does not fit in int64
func subtotalOf(items []models.OrderLineItem) (int64, error) {
	subtotal := decimal.Zero
	for _, li := range items {
		subtotal = subtotal.Add(decimal.NewFromInt(li.Price).Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	if subtotal.GreaterThan(maxAmount) {
		return 0, validationError("ORDER_TOO_LARGE", "order total exceeds the supported amount")
	}
	return subtotal.IntPart(), nil
}

// validateExecutors collapses duplicates and checks every id belongs to an executor
func validateExecutors(tx *gorm.DB, ids []uint) ([]uint, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return unique, nil
	}

	var count int64
	if err := tx.Model(&models.User{}).
		Where("id IN ? AND role = ?", unique, models.RoleExecutor).
		Count(&count).Error; err != nil {
		return nil, dbError(err, "check executors")
	}
	if int(count) != len(unique) {
		return nil, validationError("INVALID_EXECUTOR", "every assigned user must exist and have the executor role")
	}
	return unique, nil
}

func replaceExecutors(tx *gorm.DB, orderID uint, ids []uint, now time.Time) error {
	if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderExecutor{}).Error; err != nil {
		return dbError(err, "clear executors")
	}
	if len(ids) == 0 {
		return nil
	}
	rows := make([]models.OrderExecutor, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.OrderExecutor{OrderID: orderID, ExecutorID: id, CreatedAt: now})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return dbError(err, "assign executors")
	}
	return nil
}

// recordSales bumps each product's sales counter by the quantity sold
func recordSales(tx *gorm.DB, items []models.OrderLineItem) error {
	for _, li := range items {
		err := tx.Model(&models.Product{}).
			Where("id = ?", li.ProductID).
			UpdateColumn("sales_count", gorm.Expr("sales_count + ?", li.Quantity)).Error
		if err != nil {
			return dbError(err, "record sales")
		}
	}
	return nil
}

func withOrderAssociations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("User").
		Preload("LineItems", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Executors", func(tx *gorm.DB) *gorm.DB { return tx.Order("executor_id ASC") })
}

func decorateOrder(order *models.Order, coefficient float64) {
	order.SyncAssignedExecutors()
	ApplyCurrentPrices(order, coefficient)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	unique := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func sameIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]uint(nil), a...)
	y := append([]uint(nil), b...)
	sort.Slice(x, func(i, j int) bool { return x[i] < x[j] })
	sort.Slice(y, func(i, j int) bool { return y[i] < y[j] })
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
