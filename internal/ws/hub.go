package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the set of active clients and pushes notification and
// unread-badge events to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Map to quickly find clients by UserID (critical for targeted pushes)
	userClients map[uint][]*Client

	// Guards clients and userClients, and serializes every close of a
	// client's Send channel against sends to it.
	mutex sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		userClients: make(map[uint][]*Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	h.clients[client] = true
	h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
	count := len(h.userClients[client.UserID])
	h.mutex.Unlock()

	log.Printf("User %d connected. Total connections for user: %d", client.UserID, count)

	// Push the current unread state so the badge is correct immediately.
	go client.PushUnreadState()
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	h.dropClientLocked(client)
	h.mutex.Unlock()
}

// dropClientLocked removes the client from both maps and then closes its
// Send channel. The order matters: while the mutex is held the client
// becomes unreachable from userClients before the close, so a concurrent
// SendToUser can never write to a closed channel. Idempotent per client.
func (h *Hub) dropClientLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	userConns := h.userClients[client.UserID]
	for i, conn := range userConns {
		if conn == client {
			h.userClients[client.UserID] = append(userConns[:i], userConns[i+1:]...)
			break
		}
	}
	if len(h.userClients[client.UserID]) == 0 {
		delete(h.userClients, client.UserID)
		log.Printf("User %d disconnected", client.UserID)
	}

	close(client.Send)
}

// SendToUser sends a message to a specific user (all their active connections)
func (h *Hub) SendToUser(userID uint, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	// Iterate a copy: dropping a slow client mutates the slice.
	for _, client := range append([]*Client(nil), h.userClients[userID]...) {
		select {
		case client.Send <- message:
		default:
			h.dropClientLocked(client)
		}
	}
}

// sendToClient delivers one frame to a single connection, dropping the
// connection instead of blocking when its buffer is full. A client that
// has already been unregistered is skipped.
func (h *Hub) sendToClient(client *Client, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.Send <- message:
	default:
		h.dropClientLocked(client)
	}
}

// NotifyUser pushes a notification event to the user's connections and
// asks each of them to refresh its unread snapshot: a new server-side
// event is an authoritative change, so local dismissals no longer hold.
func (h *Hub) NotifyUser(userID uint, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"type":         "notification",
		"notification": payload,
	})
	if err != nil {
		log.Printf("Error marshalling notification push: %v", err)
		return
	}
	h.SendToUser(userID, data)

	h.mutex.Lock()
	clients := append([]*Client(nil), h.userClients[userID]...)
	h.mutex.Unlock()
	for _, client := range clients {
		go client.PushUnreadState()
	}
}

// IsUserOnline checks if a user has any active WebSocket connection
func (h *Hub) IsUserOnline(userID uint) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients, ok := h.userClients[userID]
	return ok && len(clients) > 0
}
