package models

import (
	"time"

	"gorm.io/gorm"
)

// Message belongs to a conversation. ParentMessageID forms a reply tree:
// nil for a root message, otherwise it points at an earlier message in the
// same conversation. Messages are never edited; the sender may soft-delete
// their own message, which removes it from the visible tree.
type Message struct {
	ID              uint  `gorm:"primaryKey" json:"id"`
	ConversationID  uint  `gorm:"index;not null" json:"conversation_id"`
	SenderID        uint  `gorm:"index;not null" json:"sender_id"`
	ParentMessageID *uint `gorm:"index" json:"parent_message_id,omitempty"`

	Body string `gorm:"type:text;not null" json:"body"`

	// Read flag as seen by the recipient. Cleared in bulk when the
	// recipient marks the conversation read.
	IsRead bool `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Sender User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
