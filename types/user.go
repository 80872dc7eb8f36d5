package types

import "time"

type User struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	Username      string    `json:"username" gorm:"uniqueIndex;not null"`
	AvatarURL     string    `json:"avatar_url"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Identity is the authenticated principal attached to a connection at
// handshake time. It is never re-derived or refreshed while the connection
// lives.
type Identity struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// UserFollow is one edge of the social graph (follower follows following).
type UserFollow struct {
	FollowerID  int64     `gorm:"primaryKey;autoIncrement:false"`
	FollowingID int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt   time.Time `json:"created_at"`
}

func (UserFollow) TableName() string { return "user_follows" }
