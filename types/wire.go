package types

import (
	"encoding/json"
	"time"
)

// Client-to-server event names.
const (
	EventJoinChat    = "join-chat"
	EventLeaveChat   = "leave-chat"
	EventSendMessage = "send-message"
	EventJoinFeed    = "join-feed"
	EventLeaveFeed   = "leave-feed"
)

// Server-to-client event names.
const (
	EventJoinedChat       = "joined-chat"
	EventJoinedFeed       = "joined-feed"
	EventNewMessage       = "new-message"
	EventChatNotification = "chat-notification"
	EventNewPost          = "new-post"
	EventPostLiked        = "post-liked"
	EventNewComment       = "new-comment"
	EventNewFollow        = "new-follow"
	EventNewFollower      = "new-follower"
	EventError            = "error"
)

// JSON-serialized WebsocketMessage is what is actually sent via the Websocket
// connection.
type WebsocketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewWebsocketMessage marshals a payload into the wire envelope.
func NewWebsocketMessage(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WebsocketMessage{Event: event, Data: raw})
}

// The different payloads transferred from the client to here. Incoming data
// is weak-decoded, so chat ids may arrive as numbers or numeric strings.

type JoinChatData struct {
	ChatID int64 `json:"chatId" mapstructure:"chatId"`
}

type LeaveChatData struct {
	ChatID int64 `json:"chatId" mapstructure:"chatId"`
}

type SendMessageData struct {
	ChatID  int64  `json:"chatId" mapstructure:"chatId"`
	Message string `json:"message" mapstructure:"message"`
}

// Outgoing payloads. Field names follow the upstream wire format.

type ErrorData struct {
	Message string `json:"message"`
}

type JoinedChatData struct {
	ChatID int64 `json:"chatId"`
}

// AuthorSummary is the public slice of a user record attached to outgoing
// events.
type AuthorSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type NewMessageData struct {
	ID        int64         `json:"id"`
	ChatID    int64         `json:"chatId"`
	Message   string        `json:"message"`
	IsUserA   bool          `json:"isUserA"`
	CreatedAt time.Time     `json:"created_at"`
	Sender    AuthorSummary `json:"sender"`
}

type ChatNotificationData struct {
	ChatID  int64         `json:"chatId"`
	Message string        `json:"message"`
	Sender  AuthorSummary `json:"sender"`
}

type NewPostData struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Author    AuthorSummary `json:"author"`
	LikeCount int           `json:"likeCount"`
	Liked     bool          `json:"liked"`
}

type PostLikedData struct {
	PostID    int64  `json:"postId"`
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	LikeCount int    `json:"likeCount"`
}

type NewCommentData struct {
	ID        int64         `json:"id"`
	PostID    int64         `json:"postId"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Author    AuthorSummary `json:"author"`
}

type FollowData struct {
	Follower  AuthorSummary `json:"follower"`
	Following AuthorSummary `json:"following"`
}
