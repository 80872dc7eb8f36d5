package types

import "time"

// Post and PostComment are owned by the CRUD layer; the gateway only reads
// the fields it re-publishes on the feed rooms.
type Post struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"not null;index"`
	Type      string    `json:"type" gorm:"not null"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (Post) TableName() string { return "posts" }

type PostComment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	PostID    int64     `json:"post_id" gorm:"not null;index"`
	UserID    int64     `json:"user_id" gorm:"not null"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (PostComment) TableName() string { return "post_comments" }

// AuditLog records moderation-relevant actions. Writes are fire-and-forget
// from the gateway's point of view.
type AuditLog struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	UserID     *int64    `json:"user_id"`
	Action     string    `json:"action" gorm:"not null"`
	EntityType string    `json:"entity_type" gorm:"not null"`
	EntityID   *int64    `json:"entity_id"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
