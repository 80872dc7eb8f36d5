package ws

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
	"github.com/ryteapp/ryte-gateway/globals"
	"github.com/ryteapp/ryte-gateway/types"
)

const sendChannelSize = 256

// Client is a middleman between the websocket connection and the hub. Its
// identity is fixed at handshake time and threaded through every handler.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	id       string
	identity types.Identity

	// Buffered channel of outbound messages.
	Send chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, identity types.Identity) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		id:       uuid.NewString(),
		identity: identity,
		Send:     make(chan []byte, sendChannelSize),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Identity() types.Identity {
	return c.identity
}

// trySend queues an outbound frame, dropping it if the client's buffer is
// full. Callers must hold the hub lock (read or write) so the channel cannot
// be closed underneath them.
func (c *Client) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
		globals.AppLogger.Warn("send buffer full, dropping frame", "connId", c.id, "userId", c.identity.UserID)
	}
}

func (c *Client) sendEvent(event string, payload interface{}) {
	c.hub.sendToClient(c, event, payload)
}

func (c *Client) sendError(message string) {
	c.sendEvent(types.EventError, types.ErrorData{Message: message})
}

// ReadLoop pumps messages from the websocket connection to the handlers.
//
// The application runs ReadLoop in a per-connection goroutine. The
// application ensures that there is at most one reader on a connection by
// executing all reads from this goroutine; handlers therefore run
// sequentially per connection and re-validate chat access after every
// database call.
func (c *Client) ReadLoop() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				globals.AppLogger.Info("ws closed unexpectedly", "connId", c.id, "error", err)
			}
			return
		}

		message := types.WebsocketMessage{}
		if err := json.Unmarshal(raw, &message); err != nil {
			globals.AppLogger.Error("could not unmarshal ws message", "connId", c.id, "error", err)
			continue
		}
		c.dispatch(&message)
	}
}

func (c *Client) dispatch(message *types.WebsocketMessage) {
	switch message.Event {
	case types.EventJoinChat:
		data := types.JoinChatData{}
		if err := decodeData(message.Data, &data); err != nil {
			globals.AppLogger.Error("could not decode join-chat", "connId", c.id, "error", err)
			return
		}
		if err := c.handleJoinChat(data.ChatID); err != nil {
			globals.AppLogger.Error("join-chat failed", "connId", c.id, "chatId", data.ChatID, "error", err)
			c.sendError(clientErrorMessage(err, "Failed to join chat"))
		}

	case types.EventLeaveChat:
		data := types.LeaveChatData{}
		if err := decodeData(message.Data, &data); err != nil {
			globals.AppLogger.Error("could not decode leave-chat", "connId", c.id, "error", err)
			return
		}
		// unconditional, idempotent
		c.hub.Leave(c, ChatRoom(data.ChatID))

	case types.EventSendMessage:
		data := types.SendMessageData{}
		if err := decodeData(message.Data, &data); err != nil {
			globals.AppLogger.Error("could not decode send-message", "connId", c.id, "error", err)
			return
		}
		if err := c.handleSendMessage(data); err != nil {
			globals.AppLogger.Error("send-message failed", "connId", c.id, "chatId", data.ChatID, "error", err)
			c.sendError(clientErrorMessage(err, "Failed to send message"))
		}

	case types.EventJoinFeed:
		c.hub.Join(c, RoomLiveFeed)
		c.sendEvent(types.EventJoinedFeed, struct{}{})

	case types.EventLeaveFeed:
		c.hub.Leave(c, RoomLiveFeed)

	default:
		globals.AppLogger.Debug("unknown event", "connId", c.id, "event", message.Event)
	}
}

// decodeData weak-decodes an incoming payload, so numeric ids arrive intact
// whether the client sent them as numbers or strings.
func decodeData(raw json.RawMessage, out interface{}) error {
	dataMap := make(map[string]interface{})
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &dataMap); err != nil {
			return err
		}
	}
	return mapstructure.WeakDecode(dataMap, out)
}

func (c *Client) handleJoinChat(chatID int64) error {
	chat, err := c.resolveChat(chatID)
	if err != nil {
		return err
	}
	c.hub.Join(c, ChatRoom(chat.ChatID))
	c.sendEvent(types.EventJoinedChat, types.JoinedChatData{ChatID: chat.ChatID})
	return nil
}

func (c *Client) handleSendMessage(data types.SendMessageData) error {
	text := strings.TrimSpace(data.Message)
	if text == "" {
		return ErrEmptyMessage
	}

	chat, err := c.resolveChat(data.ChatID)
	if err != nil {
		return err
	}

	isUserA := chat.IsUserA(c.identity.UserID)
	msg := &types.ChatMessage{
		ChatID:    chat.ChatID,
		IsUserA:   isUserA,
		Message:   text,
		CreatedAt: time.Now(),
	}
	if err := c.hub.Persister.StoreChatMessage(msg); err != nil {
		// nothing is broadcast when the write fails
		return &PersistenceError{Op: "store chat message", Err: err}
	}

	c.audit("message", "chat", chat.ChatID, fmt.Sprintf("User %s sent message in chat %d", c.identity.Username, chat.ChatID))

	sender := types.AuthorSummary{ID: c.identity.UserID, Username: c.identity.Username}
	c.hub.broadcastRoom(ChatRoom(chat.ChatID), types.EventNewMessage, types.NewMessageData{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		Message:   msg.Message,
		IsUserA:   msg.IsUserA,
		CreatedAt: msg.CreatedAt,
		Sender:    sender,
	})

	// the counterpart gets a personal notification regardless of room
	// membership, possibly in addition to the room broadcast
	c.hub.NotifyUser(chat.OtherParticipant(c.identity.UserID), types.EventChatNotification, types.ChatNotificationData{
		ChatID:  chat.ChatID,
		Message: msg.Message,
		Sender:  sender,
	})
	return nil
}

// resolveChat looks up the chat and verifies the connection's user occupies
// one of its two participant slots.
func (c *Client) resolveChat(chatID int64) (*types.Chat, error) {
	chat, err := c.hub.Persister.GetChat(chatID)
	if err != nil {
		return nil, &PersistenceError{Op: "get chat", Err: err}
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.HasParticipant(c.identity.UserID) {
		return nil, ErrAccessDenied
	}
	return chat, nil
}

// audit records an audit entry, fire-and-forget: a failed audit write must
// never block message delivery.
func (c *Client) audit(action, entityType string, entityID int64, details string) {
	userID := c.identity.UserID
	entry := &types.AuditLog{
		UserID:     &userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		Details:    details,
		CreatedAt:  time.Now(),
	}
	if err := c.hub.Persister.StoreAuditLog(entry); err != nil {
		globals.AppLogger.Error("could not store audit entry", "action", action, "error", err)
	}
}

// WriteLoop pumps messages from the hub to the websocket connection.
//
// A goroutine running WriteLoop is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				globals.AppLogger.Info("could not send ping message, exiting write loop", "connId", c.id)
				return
			}
		}
	}
}
