package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ryteapp/ryte-gateway/config"
	"github.com/ryteapp/ryte-gateway/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersister(t *testing.T) Persister {
	t.Helper()
	cfg := &config.Config{}
	cfg.PersistenceConfig.Type = "sqlite"
	cfg.PersistenceConfig.DSN = filepath.Join(t.TempDir(), "ryte.db")
	p, err := NewPersister(cfg)
	require.NoError(t, err)
	require.NotNil(t, p)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPersisterNoConfiguration(t *testing.T) {
	p, err := NewPersister(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPersisterUsersAndChats(t *testing.T) {
	p := newTestPersister(t)
	db := p.(*GormPersist).db

	require.NoError(t, db.Create(&types.User{ID: 1, Username: "alice"}).Error)
	require.NoError(t, db.Create(&types.User{ID: 2, Username: "bob"}).Error)
	require.NoError(t, db.Create(&types.Chat{ChatID: 7, UserA: 1, UserB: 2}).Error)

	user, err := p.GetUser(1)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	user, err = p.GetUser(99)
	require.NoError(t, err)
	assert.Nil(t, user)

	chat, err := p.GetChat(7)
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.True(t, chat.HasParticipant(1))
	assert.True(t, chat.IsUserA(1))
	assert.Equal(t, int64(1), chat.OtherParticipant(2))

	chat, err = p.GetChat(99)
	require.NoError(t, err)
	assert.Nil(t, chat)
}

func TestPersisterChatMessages(t *testing.T) {
	p := newTestPersister(t)
	db := p.(*GormPersist).db

	require.NoError(t, db.Create(&types.Chat{ChatID: 7, UserA: 1, UserB: 2}).Error)

	first := &types.ChatMessage{ChatID: 7, IsUserA: true, Message: "hi", CreatedAt: time.Now().Add(-time.Minute)}
	second := &types.ChatMessage{ChatID: 7, IsUserA: false, Message: "hello"}
	require.NoError(t, p.StoreChatMessage(first))
	require.NoError(t, p.StoreChatMessage(second))
	assert.NotZero(t, first.ID)
	assert.False(t, second.CreatedAt.IsZero())

	msgs, err := p.ChatMessagesByChat(7)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Message)
	assert.Equal(t, "hello", msgs[1].Message)

	msgs, err = p.ChatMessagesByChat(99)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestPersisterFollowingIds(t *testing.T) {
	p := newTestPersister(t)
	db := p.(*GormPersist).db

	require.NoError(t, db.Create(&types.UserFollow{FollowerID: 1, FollowingID: 2}).Error)
	require.NoError(t, db.Create(&types.UserFollow{FollowerID: 1, FollowingID: 3}).Error)
	require.NoError(t, db.Create(&types.UserFollow{FollowerID: 2, FollowingID: 1}).Error)

	ids, err := p.GetFollowingIds(1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{2, 3}, ids)

	ids, err = p.GetFollowingIds(9)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPersisterAuditLog(t *testing.T) {
	p := newTestPersister(t)
	db := p.(*GormPersist).db

	uid := int64(1)
	eid := int64(7)
	entry := &types.AuditLog{UserID: &uid, Action: "message", EntityType: "chat", EntityID: &eid, Details: "User alice sent message in chat 7"}
	require.NoError(t, p.StoreAuditLog(entry))
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())

	var got types.AuditLog
	require.NoError(t, db.First(&got, entry.ID).Error)
	assert.Equal(t, "message", got.Action)
	require.NotNil(t, got.UserID)
	assert.Equal(t, int64(1), *got.UserID)
}
