package persistence

import (
	"github.com/ryteapp/ryte-gateway/config"
	"github.com/ryteapp/ryte-gateway/types"
)

// Persister is the gateway's view of the relational schema. Lookups return
// (nil, nil) when the record is absent, the gateway translates that into its
// own not-found handling.
type Persister interface {
	GetUser(id int64) (*types.User, error)
	GetChat(id int64) (*types.Chat, error)
	StoreChatMessage(msg *types.ChatMessage) error
	ChatMessagesByChat(chatID int64) ([]*types.ChatMessage, error)
	StoreAuditLog(entry *types.AuditLog) error
	GetFollowingIds(userID int64) ([]int64, error)
	Close() error
}

// NewPersister returns the configured persistence backend, or nil if none is
// configured.
func NewPersister(cfg *config.Config) (Persister, error) {
	return NewGormPersister(cfg)
}
