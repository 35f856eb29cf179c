package models

import "time"

// Notification types created by purchase/message events.
const (
	NotificationTypePurchase  = "purchase"
	NotificationTypeShipped   = "shipped"
	NotificationTypeDelivered = "delivered"
	NotificationTypeCanceled  = "canceled"
	NotificationTypeMessage   = "message"
)

type Notification struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"index;not null" json:"user_id"`
	Type   string `gorm:"size:50;not null" json:"type"`
	Title  string `gorm:"size:255" json:"title"`
	Body   string `gorm:"type:text" json:"body"`

	ItemID         *uint `gorm:"index" json:"item_id,omitempty"`
	ConversationID *uint `gorm:"index" json:"conversation_id,omitempty"`
	PurchaseID     *uint `gorm:"index" json:"purchase_id,omitempty"`

	Read      bool      `gorm:"default:false;not null" json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
