package services

import (
	"context"
	"time"

	"github.com/DaniilNightingale/EMPIREsite3/models"
)

// NotificationSummary is what clients poll to decide whether to refresh
type NotificationSummary struct {
	LatestMessageAt     *time.Time `json:"latest_message_at"`
	LatestMessageFrom   *uint      `json:"latest_message_from"`
	LatestOrderUpdateAt *time.Time `json:"latest_order_update_at"`
}

// NotificationService aggregates the poll targets of a user
type NotificationService struct {
	chat   *ChatService
	orders *OrderService
}

// NewNotificationService creates a notification service on top of chat and orders
func NewNotificationService(chat *ChatService, orders *OrderService) *NotificationService {
	return &NotificationService{chat: chat, orders: orders}
}

// Summary returns the newest incoming message and the newest visible order update
func (s *NotificationService) Summary(ctx context.Context, caller *models.User) (*NotificationSummary, error) {
	if caller == nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	summary := &NotificationSummary{}

	msg, err := s.chat.LatestIncoming(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if msg != nil {
		summary.LatestMessageAt = &msg.CreatedAt
		summary.LatestMessageFrom = &msg.FromUserID
	}

	updated, err := s.orders.LatestOrderUpdate(ctx, caller)
	if err != nil {
		return nil, err
	}
	summary.LatestOrderUpdateAt = updated
	return summary, nil
}
