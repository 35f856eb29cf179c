package models

import "time"

// Conversation is the messaging channel scoped to one item and one
// buyer-seller pair. Created once per (item, buyer); reused across
// purchases of the same item by the same buyer.
type Conversation struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ItemID   uint `gorm:"index:idx_item_buyer,unique;not null" json:"item_id"`
	SellerID uint `gorm:"index;not null" json:"seller_id"`
	BuyerID  uint `gorm:"index:idx_item_buyer,unique;not null" json:"buyer_id"`

	LastMessageAt *time.Time `json:"last_message_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Item Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}
