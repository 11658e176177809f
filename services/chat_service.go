package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/DaniilNightingale/EMPIREsite3/clock"
	"github.com/DaniilNightingale/EMPIREsite3/models"
	"gorm.io/gorm"
)

const (
	maxMessageLength        = 2000
	defaultConversationSize = 50
	maxConversationSize     = 200
)

// ChatService stores direct messages between users
type ChatService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewChatService creates a chat service. A nil clock uses the wall clock.
func NewChatService(db *gorm.DB, clk clock.Clock) *ChatService {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &ChatService{db: db, clock: clk}
}

// Send stores a message from the caller to another user
func (s *ChatService) Send(ctx context.Context, caller *models.User, toUserID uint, text string) (*models.ChatMessage, error) {
	if caller == nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	text, err := normalizeMessage(text)
	if err != nil {
		return nil, err
	}
	if toUserID == caller.ID {
		return nil, validationError("INVALID_RECIPIENT", "cannot send a message to yourself")
	}

	db := s.db.WithContext(ctx)
	var recipient models.User
	if err := db.Select("id").First(&recipient, toUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("USER_NOT_FOUND", "recipient not found")
		}
		return nil, dbError(err, "load recipient")
	}

	msg := models.ChatMessage{
		FromUserID: caller.ID,
		ToUserID:   toUserID,
		Message:    text,
		CreatedAt:  s.clock.Now(),
	}
	if err := db.Omit("FromUser").Create(&msg).Error; err != nil {
		return nil, dbError(err, "send message")
	}
	msg.SenderName = caller.Username
	return &msg, nil
}

// Conversation returns the latest messages exchanged between the caller and another user,
// oldest first. A non-positive limit uses the default page size.
func (s *ChatService) Conversation(ctx context.Context, caller *models.User, withUserID uint, limit int) ([]models.ChatMessage, error) {
	if caller == nil {
		return nil, &Error{Kind: ErrUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	}
	if withUserID == 0 {
		return nil, validationError("MISSING_USER", "with_user_id is required")
	}
	if limit <= 0 {
		limit = defaultConversationSize
	}
	if limit > maxConversationSize {
		limit = maxConversationSize
	}

	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Preload("FromUser").
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			caller.ID, withUserID, withUserID, caller.ID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, dbError(err, "load conversation")
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	for i := range messages {
		messages[i].SenderName = messages[i].FromUser.Username
	}
	return messages, nil
}

// Broadcast sends the same message from the admin to every other user in one transaction.
// It returns the number of recipients.
func (s *ChatService) Broadcast(ctx context.Context, caller *models.User, text string) (int, error) {
	if caller == nil || !caller.IsAdmin() {
		return 0, forbiddenError("only the administrator can broadcast messages")
	}
	text, err := normalizeMessage(text)
	if err != nil {
		return 0, err
	}

	var sent int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipients []uint
		if err := tx.Model(&models.User{}).Where("id <> ?", caller.ID).Order("id ASC").Pluck("id", &recipients).Error; err != nil {
			return dbError(err, "load recipients")
		}
		if len(recipients) == 0 {
			return nil
		}

		now := s.clock.Now()
		batch := make([]models.ChatMessage, 0, len(recipients))
		for _, id := range recipients {
			batch = append(batch, models.ChatMessage{FromUserID: caller.ID, ToUserID: id, Message: text, CreatedAt: now})
		}
		if err := tx.Omit("FromUser").CreateInBatches(&batch, 100).Error; err != nil {
			return dbError(err, "broadcast message")
		}
		sent = len(batch)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sent, nil
}

// LatestIncoming returns the newest message addressed to the user, if any
func (s *ChatService) LatestIncoming(ctx context.Context, userID uint) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("to_user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Take(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(err, "load latest message")
	}
	return &msg, nil
}

func normalizeMessage(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", validationError("EMPTY_MESSAGE", "message cannot be empty")
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return "", validationError("MESSAGE_TOO_LONG", "message cannot exceed 2000 characters")
	}
	return text, nil
}
