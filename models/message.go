package models

import (
	"time"
)

// ChatMessage is a direct message between two users. Messages are never edited or deleted.
type ChatMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FromUserID uint      `gorm:"not null;index" json:"sender_id"`
	FromUser   User      `gorm:"foreignKey:FromUserID" json:"-"`
	ToUserID   uint      `gorm:"not null;index" json:"receiver_id"`
	Message    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`

	SenderName string `gorm:"-" json:"sender_name"`
}

// TableName specifies the table name for the ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}
