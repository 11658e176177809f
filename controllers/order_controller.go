package controllers

import (
	"net/http"
	"strconv"

	"github.com/DaniilNightingale/EMPIREsite3/models"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/gin-gonic/gin"
)

// OrderItemRequest is one cart line. The price is what the client displayed; the
// server reprices every line.
type OrderItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0,max=1000"`
	Price     int64  `json:"price"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes string             `json:"notes" binding:"max=2000"`
}

// QuoteCartRequest represents the request body for pricing a cart
type QuoteCartRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderRequest represents an admin's partial order update
type UpdateOrderRequest struct {
	Status            *models.OrderStatus `json:"status" binding:"omitempty,order_status"`
	AdminNotes        *string             `json:"admin_notes"`
	TotalPrice        *int64              `json:"total_price" binding:"omitempty,gte=0"`
	AssignedExecutors *[]uint             `json:"assigned_executors"`
	Version           *int                `json:"version"`
}

// AssignExecutorsRequest represents the request body for PUT /orders/:id/executors
type AssignExecutorsRequest struct {
	ExecutorIDs []uint `json:"executor_ids"`
	Version     *int   `json:"version"`
}

// CreateOrder handles POST /api/v1/orders - places an order for the caller
func CreateOrder(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := orderService().CreateOrder(c.Request.Context(), user, lineItemInputs(req.Items), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, order)
}

// QuoteCart handles POST /api/v1/cart/quote - prices a cart without placing it
func QuoteCart(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req QuoteCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	quote, err := orderService().QuoteCart(c.Request.Context(), user, lineItemInputs(req.Items))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, quote)
}

// ListOrders handles GET /api/v1/orders?status=&search=&scope=&user_id=
// Buyers see their own orders, executors see assigned orders (or their own with
// scope=own) and the admin sees everything.
func ListOrders(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	filter := services.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		Search: c.Query("search"),
		Scope:  c.Query("scope"),
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondErrorCode(c, http.StatusBadRequest, "INVALID_ID", "Invalid user_id")
			return
		}
		filter.UserID = uint(id)
	}

	orders, err := orderService().ListOrders(c.Request.Context(), user, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/:id
func GetOrder(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := orderService().GetOrder(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, order)
}

// UpdateOrder handles PUT /api/v1/orders/:id (admin only)
func UpdateOrder(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := orderService().UpdateOrder(c.Request.Context(), user, id, services.UpdateOrderInput{
		Status:            req.Status,
		AdminNotes:        req.AdminNotes,
		TotalPrice:        req.TotalPrice,
		AssignedExecutors: req.AssignedExecutors,
		Version:           req.Version,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, order)
}

// AssignExecutors handles PUT /api/v1/orders/:id/executors (admin only)
func AssignExecutors(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AssignExecutorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	order, err := orderService().AssignExecutors(c.Request.Context(), user, id, req.ExecutorIDs, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, order)
}

func lineItemInputs(items []OrderItemRequest) []services.LineItemInput {
	out := make([]services.LineItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, services.LineItemInput{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return out
}
