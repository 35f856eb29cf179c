package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"releaf_backend/internal/market"
	"releaf_backend/internal/metrics"
	"releaf_backend/internal/ws"
	"releaf_backend/models"
	"releaf_backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ConversationHandler struct {
	DB  *gorm.DB
	Hub *ws.Hub
}

func NewConversationHandler(db *gorm.DB, hub *ws.Hub) *ConversationHandler {
	return &ConversationHandler{DB: db, Hub: hub}
}

// ensureConversation finds or creates the conversation for (item, buyer).
// Creation is idempotent thanks to the unique (item_id, buyer_id) index.
func ensureConversation(db *gorm.DB, item *models.Item, buyerID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := db.Where("item_id = ? AND buyer_id = ?", item.ID, buyerID).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = models.Conversation{
		ItemID:   item.ID,
		SellerID: item.SellerID,
		BuyerID:  buyerID,
	}
	if err := db.Create(&conv).Error; err != nil {
		// Lost a race against a concurrent create: re-read the winner.
		var existing models.Conversation
		if err2 := db.Where("item_id = ? AND buyer_id = ?", item.ID, buyerID).First(&existing).Error; err2 == nil {
			return &existing, nil
		}
		return nil, err
	}
	return &conv, nil
}

// CreateConversation - POST /api/items/:id/conversations
//
// Idempotent per (item, buyer). The seller cannot open a conversation on
// their own item, there is no one to talk to yet.
func (h *ConversationHandler) CreateConversation(c *fiber.Ctx) error {
	itemID, _ := strconv.Atoi(c.Params("id"))
	userID := utils.CurrentUserID(c)

	var item models.Item
	if err := h.DB.First(&item, itemID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
	}

	if item.SellerID == userID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot open a conversation on your own item"})
	}

	// A third party may not message about an item that is already sold.
	if p := activePurchase(h.DB, item.ID); p != nil && p.BuyerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Item is sold"})
	}

	conv, err := ensureConversation(h.DB, &item, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create conversation"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"conversation_id": conv.ID,
		"item_id":         conv.ItemID,
		"seller_id":       conv.SellerID,
		"buyer_id":        conv.BuyerID,
	})
}

// ListConversations - GET /api/conversations
func (h *ConversationHandler) ListConversations(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	var convs []models.Conversation
	if err := h.DB.Preload("Item", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, title, image_url, price, status, seller_id")
	}).Where("seller_id = ? OR buyer_id = ?", userID, userID).
		Order("last_message_at desc").Find(&convs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch conversations"})
	}

	entries, err := ws.UnreadEntries(h.DB, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch conversations"})
	}
	unreadByID := map[uint]bool{}
	for _, e := range entries {
		unreadByID[e.ID] = e.Unread
	}
	view := market.ReconcileUnread(entries, nil)

	type conversationResult struct {
		models.Conversation
		HasUnread  bool `json:"has_unread"`
		PeerOnline bool `json:"peer_online"`
	}
	results := make([]conversationResult, 0, len(convs))
	for _, conv := range convs {
		peerID := conv.SellerID
		if userID == conv.SellerID {
			peerID = conv.BuyerID
		}
		results = append(results, conversationResult{
			Conversation: conv,
			HasUnread:    unreadByID[conv.ID],
			PeerOnline:   h.Hub != nil && h.Hub.IsUserOnline(peerID),
		})
	}

	return c.JSON(fiber.Map{"data": results, "unread_count": view.Count})
}

// GetConversation - GET /api/conversations/:id
func (h *ConversationHandler) GetConversation(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	conv, status, err := h.loadConversation(c, userID)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	var unread int64
	h.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conv.ID, userID, false).
		Count(&unread)

	return c.JSON(fiber.Map{
		"conversation_id": conv.ID,
		"item_id":         conv.ItemID,
		"seller_id":       conv.SellerID,
		"buyer_id":        conv.BuyerID,
		"has_unread":      unread > 0,
	})
}

// MarkRead - POST /api/conversations/:id/read
func (h *ConversationHandler) MarkRead(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	conv, status, err := h.loadConversation(c, userID)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.DB.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conv.ID, userID, false).
		Update("is_read", true).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to mark conversation read"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// ListMessages - GET /api/conversations/:id/messages
//
// Returns the reply forest plus a depth-annotated flat list, rebuilt from
// scratch on every fetch.
func (h *ConversationHandler) ListMessages(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	conv, status, err := h.loadConversation(c, userID)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	var messages []models.Message
	if err := h.DB.Preload("Sender", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, username, full_name, icon_url")
	}).Where("conversation_id = ?", conv.ID).
		Order("created_at asc, id asc").Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch messages"})
	}

	forest := market.BuildThread(messages)
	return c.JSON(fiber.Map{
		"messages": forest,
		"flat":     market.FlattenThread(forest),
	})
}

// SendMessageRequest defines the payload for posting a message
type SendMessageRequest struct {
	Body            string `json:"body"`
	ParentMessageID *uint  `json:"parent_message_id"`
}

// SendMessage - POST /api/conversations/:id/messages
func (h *ConversationHandler) SendMessage(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	conv, status, err := h.loadConversation(c, userID)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "body is required"})
	}

	// A reply's parent must already exist in the same conversation.
	if req.ParentMessageID != nil {
		var parent models.Message
		if err := h.DB.First(&parent, *req.ParentMessageID).Error; err != nil || parent.ConversationID != conv.ID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "parent message does not exist in this conversation"})
		}
	}

	msg := models.Message{
		ConversationID:  conv.ID,
		SenderID:        userID,
		ParentMessageID: req.ParentMessageID,
		Body:            req.Body,
	}
	if err := h.DB.Create(&msg).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send message"})
	}
	metrics.MessagesSent.Inc()

	now := time.Now()
	if err := h.DB.Model(&models.Conversation{}).Where("id = ?", conv.ID).
		Update("last_message_at", now).Error; err != nil {
		// Preview ordering only, the message itself is saved.
	}

	// Notify the other participant.
	recipientID := conv.SellerID
	if userID == conv.SellerID {
		recipientID = conv.BuyerID
	}
	notify(h.DB, h.Hub, models.Notification{
		UserID:         recipientID,
		Type:           models.NotificationTypeMessage,
		Title:          "New message",
		Body:           fmt.Sprintf("You received a new message about item %d.", conv.ItemID),
		ItemID:         ptr(conv.ItemID),
		ConversationID: ptr(conv.ID),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "ok", "data": msg})
}

// DeleteMessage - DELETE /api/messages/:id
//
// Soft delete by the sender only. Replies to the deleted message are kept
// and degrade to roots when the thread is next rebuilt.
func (h *ConversationHandler) DeleteMessage(c *fiber.Ctx) error {
	messageID, _ := strconv.Atoi(c.Params("id"))
	userID := utils.CurrentUserID(c)

	var msg models.Message
	if err := h.DB.First(&msg, messageID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Message not found"})
	}
	if msg.SenderID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	}

	if err := h.DB.Delete(&msg).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete message"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// loadConversation fetches the conversation from the :id param and
// verifies the viewer is a participant.
func (h *ConversationHandler) loadConversation(c *fiber.Ctx, userID uint) (*models.Conversation, int, error) {
	convID, err := c.ParamsInt("id")
	if err != nil {
		return nil, fiber.StatusBadRequest, errors.New("invalid conversation ID")
	}

	var conv models.Conversation
	if err := h.DB.First(&conv, convID).Error; err != nil {
		return nil, fiber.StatusNotFound, errors.New("conversation not found")
	}
	if conv.SellerID != userID && conv.BuyerID != userID {
		return nil, fiber.StatusForbidden, errors.New("you are not a participant of this conversation")
	}
	return &conv, fiber.StatusOK, nil
}
