package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ryteapp/ryte-gateway/presence"
	"github.com/ryteapp/ryte-gateway/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersister struct {
	users     map[int64]*types.User
	chats     map[int64]*types.Chat
	following map[int64][]int64
	messages  []*types.ChatMessage
	audits    []*types.AuditLog

	messageErr error
	auditErr   error
	chatErr    error
	nextMsgID  int64
}

func newFakePersister() *fakePersister {
	return &fakePersister{
		users:     make(map[int64]*types.User),
		chats:     make(map[int64]*types.Chat),
		following: make(map[int64][]int64),
	}
}

func (f *fakePersister) GetUser(id int64) (*types.User, error) {
	return f.users[id], nil
}

func (f *fakePersister) GetChat(id int64) (*types.Chat, error) {
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return f.chats[id], nil
}

func (f *fakePersister) StoreChatMessage(msg *types.ChatMessage) error {
	if f.messageErr != nil {
		return f.messageErr
	}
	f.nextMsgID++
	msg.ID = f.nextMsgID
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakePersister) ChatMessagesByChat(chatID int64) ([]*types.ChatMessage, error) {
	res := make([]*types.ChatMessage, 0)
	for _, m := range f.messages {
		if m.ChatID == chatID {
			res = append(res, m)
		}
	}
	return res, nil
}

func (f *fakePersister) StoreAuditLog(entry *types.AuditLog) error {
	if f.auditErr != nil {
		return f.auditErr
	}
	f.audits = append(f.audits, entry)
	return nil
}

func (f *fakePersister) GetFollowingIds(userID int64) ([]int64, error) {
	return f.following[userID], nil
}

func (f *fakePersister) Close() error { return nil }

func newTestHub(p *fakePersister) *Hub {
	return NewHub(p, presence.NewRegistry())
}

// connect registers an authenticated test connection (no real websocket
// behind it, all assertions read the Send channel directly).
func connect(h *Hub, userID int64, username string) *Client {
	c := NewClient(h, nil, types.Identity{UserID: userID, Username: username})
	h.Register(c)
	return c
}

func recvEvent(t *testing.T, c *Client) (string, map[string]interface{}) {
	t.Helper()
	select {
	case data := <-c.Send:
		msg := types.WebsocketMessage{}
		require.NoError(t, json.Unmarshal(data, &msg))
		payload := make(map[string]interface{})
		if len(msg.Data) > 0 {
			require.NoError(t, json.Unmarshal(msg.Data, &payload))
		}
		return msg.Event, payload
	default:
		t.Fatal("no event queued")
		return "", nil
	}
}

func assertNoEvent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.Send:
		t.Fatalf("unexpected event: %s", data)
	default:
	}
}

func dispatchRaw(c *Client, event, data string) {
	c.dispatch(&types.WebsocketMessage{Event: event, Data: json.RawMessage(data)})
}

func TestRegisterSetsUpPresenceAndPersonalRoom(t *testing.T) {
	h := newTestHub(newFakePersister())
	c := connect(h, 1, "alice")

	connID, ok := h.Presence.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, c.ID(), connID)
	assert.True(t, h.InRoom(c, UserRoom(1)))
	assert.Equal(t, 1, h.NoClients())
}

func TestRegisterJoinsFollowingFeedOnlyWhenFollowing(t *testing.T) {
	p := newFakePersister()
	p.following[1] = []int64{2, 3}
	h := newTestHub(p)

	follower := connect(h, 1, "alice")
	loner := connect(h, 4, "dave")

	assert.True(t, h.InRoom(follower, RoomFollowingFeed))
	assert.False(t, h.InRoom(loner, RoomFollowingFeed))
}

func TestFollowingFeedMembershipIsPointInTime(t *testing.T) {
	p := newFakePersister()
	h := newTestHub(p)
	c := connect(h, 1, "alice")
	assert.False(t, h.InRoom(c, RoomFollowingFeed))

	// the user starts following someone mid-connection; membership stays
	// stale until reconnect
	p.following[1] = []int64{2}
	assert.False(t, h.InRoom(c, RoomFollowingFeed))

	h.Unregister(c)
	c2 := connect(h, 1, "alice")
	assert.True(t, h.InRoom(c2, RoomFollowingFeed))
}

func TestUnregisterReleasesEverything(t *testing.T) {
	p := newFakePersister()
	p.chats[7] = &types.Chat{ChatID: 7, UserA: 1, UserB: 2}
	h := newTestHub(p)
	c := connect(h, 1, "alice")
	require.NoError(t, c.handleJoinChat(7))

	h.Unregister(c)

	assert.Equal(t, 0, h.NoClients())
	assert.Equal(t, 0, h.RoomSize(ChatRoom(7)))
	assert.Equal(t, 0, h.RoomSize(UserRoom(1)))
	_, ok := h.Presence.Lookup(1)
	assert.False(t, ok)

	// send channel is closed so the write loop terminates
	for range c.Send {
	}
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	h := newTestHub(newFakePersister())
	c := connect(h, 1, "alice")
	h.Unregister(c)
	h.Unregister(c)
	assert.Equal(t, 0, h.NoClients())
}

func TestJoinFeedAndLeaveFeed(t *testing.T) {
	h := newTestHub(newFakePersister())
	c := connect(h, 1, "alice")

	dispatchRaw(c, types.EventJoinFeed, "")
	event, _ := recvEvent(t, c)
	assert.Equal(t, types.EventJoinedFeed, event)
	assert.True(t, h.InRoom(c, RoomLiveFeed))

	dispatchRaw(c, types.EventLeaveFeed, "")
	assert.False(t, h.InRoom(c, RoomLiveFeed))
	assertNoEvent(t, c)

	// leaving when not a member is a no-op
	dispatchRaw(c, types.EventLeaveFeed, "")
	assertNoEvent(t, c)
}

func TestLeaveChatNeverJoinedIsNoOp(t *testing.T) {
	h := newTestHub(newFakePersister())
	c := connect(h, 1, "alice")

	dispatchRaw(c, types.EventLeaveChat, `{"chatId": 99}`)
	assertNoEvent(t, c)
	assert.Equal(t, 0, h.RoomSize(ChatRoom(99)))
}

func TestJoinOnUnregisteredClientIsNoOp(t *testing.T) {
	h := newTestHub(newFakePersister())
	c := connect(h, 1, "alice")
	h.Unregister(c)

	h.Join(c, RoomLiveFeed)
	assert.Equal(t, 0, h.RoomSize(RoomLiveFeed))
}

func TestBroadcastRoomDropsWhenBufferFull(t *testing.T) {
	h := newTestHub(newFakePersister())
	c := connect(h, 1, "alice")
	h.Join(c, RoomLiveFeed)

	for i := 0; i < sendChannelSize+10; i++ {
		h.broadcastRoom(RoomLiveFeed, types.EventNewPost, types.NewPostData{ID: int64(i)})
	}
	// the slow client was not evicted, frames past the buffer were dropped
	assert.Equal(t, 1, h.NoClients())
	assert.Len(t, c.Send, sendChannelSize)
}

func TestClientErrorMessageMapping(t *testing.T) {
	assert.Equal(t, "Chat not found", clientErrorMessage(ErrChatNotFound, "fallback"))
	assert.Equal(t, "Access denied", clientErrorMessage(ErrAccessDenied, "fallback"))
	assert.Equal(t, "Message cannot be empty", clientErrorMessage(ErrEmptyMessage, "fallback"))
	perr := &PersistenceError{Op: "store chat message", Err: errors.New("disk full")}
	assert.Equal(t, "fallback", clientErrorMessage(perr, "fallback"))
}
