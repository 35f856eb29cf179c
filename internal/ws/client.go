package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"releaf_backend/internal/market"
	"releaf_backend/models"

	"github.com/gofiber/contrib/websocket"
	"gorm.io/gorm"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096 // 4KB
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// User ID derived from authentication
	UserID uint

	// Database connection for unread snapshots
	DB *gorm.DB

	// Per-connection unread reconciliation state. Guarded by mu because
	// the hub pushes refreshes from other goroutines.
	session *market.UnreadSession
	mu      sync.Mutex
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint, db *gorm.DB) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		UserID:  userID,
		DB:      db,
		session: market.NewUnreadSession(),
	}
}

// WSMessage defines the structure of messages received over WebSocket
type WSMessage struct {
	Type           string `json:"type"` // 'mark_read', 'refresh_unread'
	ConversationID uint   `json:"conversation_id,omitempty"`
}

// ReadPump pumps messages from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var wsMsg WSMessage
	if err := json.Unmarshal(message, &wsMsg); err != nil {
		log.Printf("Error unmarshalling message: %v", err)
		return
	}

	switch wsMsg.Type {
	case "mark_read":
		c.markConversationRead(wsMsg.ConversationID)
	case "refresh_unread":
		c.PushUnreadState()
	}
}

// markConversationRead persists the read flags for one conversation and
// suppresses it locally so the badge drops immediately, even before the
// next authoritative snapshot is taken.
func (c *Client) markConversationRead(conversationID uint) {
	if conversationID == 0 {
		return
	}

	var conv models.Conversation
	if err := c.DB.First(&conv, conversationID).Error; err != nil {
		return
	}
	if conv.SellerID != c.UserID && conv.BuyerID != c.UserID {
		return
	}

	if err := c.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conversationID, c.UserID, false).
		Update("is_read", true).Error; err != nil {
		log.Printf("Error marking conversation %d read: %v", conversationID, err)
	}

	c.mu.Lock()
	view := c.session.Dismiss(conversationID)
	c.mu.Unlock()
	c.sendUnreadView(view)
}

// PushUnreadState takes a fresh snapshot of the user's conversations and
// pushes the reconciled badge state to this connection. The refresh
// resets local dismissals: the snapshot is authoritative.
func (c *Client) PushUnreadState() {
	entries, err := UnreadEntries(c.DB, c.UserID)
	if err != nil {
		log.Printf("Error fetching unread snapshot for user %d: %v", c.UserID, err)
		return
	}

	c.mu.Lock()
	view := c.session.Refresh(entries)
	c.mu.Unlock()
	c.sendUnreadView(view)
}

func (c *Client) sendUnreadView(view market.UnreadView) {
	ids := make([]uint, 0, len(view.Display))
	for _, e := range view.Display {
		ids = append(ids, e.ID)
	}
	data, err := json.Marshal(map[string]interface{}{
		"type":             "unread_state",
		"unread_count":     view.Count,
		"conversation_ids": ids,
	})
	if err != nil {
		return
	}
	// Delivered through the hub so a send can never race the close of
	// this connection's channel.
	c.Hub.sendToClient(c, data)
}

// UnreadEntries lists the user's conversations with the authoritative
// has-unread flag derived from the message rows. The HTTP conversation
// list uses the same snapshot, so the unread definition cannot drift
// between the two surfaces.
func UnreadEntries(db *gorm.DB, userID uint) ([]market.UnreadEntry, error) {
	type row struct {
		ID     uint
		Unread int64
	}
	var rows []row
	err := db.Model(&models.Conversation{}).
		Select(`conversations.id,
			(SELECT COUNT(*) FROM messages m
			 WHERE m.conversation_id = conversations.id
			   AND m.sender_id != ?
			   AND m.is_read = ?
			   AND m.deleted_at IS NULL) AS unread`, userID, false).
		Where("conversations.seller_id = ? OR conversations.buyer_id = ?", userID, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]market.UnreadEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, market.UnreadEntry{ID: r.ID, Unread: r.Unread > 0})
	}
	return entries, nil
}
