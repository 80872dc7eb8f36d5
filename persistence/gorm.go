package persistence

import (
	"errors"
	"fmt"
	"time"

	"github.com/ryteapp/ryte-gateway/config"
	"github.com/ryteapp/ryte-gateway/types"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type GormPersist struct {
	db *gorm.DB
}

func NewGormPersister(cfg *config.Config) (Persister, error) {
	db, err := setupGormDB(cfg)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, nil // no or wrong configuration, ignore the persister
	}
	p := GormPersist{db: db}
	return &p, nil
}

func setupGormDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.PersistenceConfig.DSN == "" {
		return nil, nil
	}
	var dial gorm.Dialector
	switch cfg.PersistenceConfig.Type {
	case "postgres":
		dial = postgres.Open(cfg.PersistenceConfig.DSN)

	case "sqlite":
		dial = sqlite.Open(cfg.PersistenceConfig.DSN)

	default:
		return nil, fmt.Errorf("invalid gorm configuration")
	}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(&types.User{}, &types.Chat{}, &types.ChatMessage{}, &types.AuditLog{}, &types.UserFollow{}, &types.Post{}, &types.PostComment{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (p *GormPersist) GetUser(id int64) (*types.User, error) {
	user := types.User{}
	err := p.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *GormPersist) GetChat(id int64) (*types.Chat, error) {
	chat := types.Chat{}
	err := p.db.First(&chat, "chat_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (p *GormPersist) StoreChatMessage(msg *types.ChatMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return p.db.Create(msg).Error
}

func (p *GormPersist) ChatMessagesByChat(chatID int64) ([]*types.ChatMessage, error) {
	msgs := make([]*types.ChatMessage, 0)
	err := p.db.Where("chat_id = ?", chatID).Order("created_at asc").Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (p *GormPersist) StoreAuditLog(entry *types.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return p.db.Create(entry).Error
}

func (p *GormPersist) GetFollowingIds(userID int64) ([]int64, error) {
	ids := make([]int64, 0)
	err := p.db.Model(&types.UserFollow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (p *GormPersist) Close() error {
	return nil
}
