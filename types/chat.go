package types

import "time"

// Chat is a two-party conversation. The user_a / user_b slots are fixed at
// creation, message attribution is a boolean flag against this ordering.
type Chat struct {
	ChatID int64 `json:"chat_id" gorm:"primaryKey;column:chat_id"`
	UserA  int64 `json:"user_a" gorm:"column:user_a;not null"`
	UserB  int64 `json:"user_b" gorm:"column:user_b;not null"`
}

func (Chat) TableName() string { return "chats" }

func (c *Chat) HasParticipant(userID int64) bool {
	return c.UserA == userID || c.UserB == userID
}

// IsUserA reports whether the given user occupies the user_a slot.
func (c *Chat) IsUserA(userID int64) bool {
	return c.UserA == userID
}

// OtherParticipant returns the counterpart of the given user in this chat.
func (c *Chat) OtherParticipant(userID int64) int64 {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

type ChatMessage struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	ChatID    int64     `json:"chat_id" gorm:"column:chat_id;not null;index"`
	IsUserA   bool      `json:"is_user_a" gorm:"column:is_user_a;not null"`
	Message   string    `json:"message" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
