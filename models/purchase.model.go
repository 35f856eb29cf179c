package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type PurchaseStatus string

const (
	PurchaseStatusPendingShipment PurchaseStatus = "pending_shipment"
	PurchaseStatusShipped         PurchaseStatus = "shipped"
	PurchaseStatusDelivered       PurchaseStatus = "delivered"
	PurchaseStatusCanceled        PurchaseStatus = "canceled"
)

func ValidPurchaseStatus(s PurchaseStatus) bool {
	switch s {
	case PurchaseStatusPendingShipment, PurchaseStatusShipped,
		PurchaseStatusDelivered, PurchaseStatusCanceled:
		return true
	}
	return false
}

// Purchase binds one buyer to one item through the shipment lifecycle.
// At most one non-canceled purchase exists per item; a canceled purchase
// permits a new one to be created. Immutable once delivered.
type Purchase struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ItemID         uint           `gorm:"index;not null" json:"item_id"`
	BuyerID        uint           `gorm:"index;not null" json:"buyer_id"`
	SellerID       uint           `gorm:"index;not null" json:"seller_id"`
	ConversationID uint           `gorm:"index" json:"conversation_id"`
	Status         PurchaseStatus `gorm:"size:32;not null;index" json:"status"`

	ShippingQRURL string `gorm:"type:text" json:"shipping_qr_url"`
	ShippingNote  string `gorm:"type:text" json:"shipping_note"`

	// Point ledger snapshot taken at purchase time.
	PointsUsed int `json:"points_used"`
	PaidYen    int `json:"paid_yen"`

	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Item  Item `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Buyer User `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
}

// BeforeSave rejects a status string outside the known set before it can
// reach the database.
func (p *Purchase) BeforeSave(tx *gorm.DB) error {
	if !ValidPurchaseStatus(p.Status) {
		return fmt.Errorf("invalid purchase status %q", p.Status)
	}
	return nil
}

// Active reports whether p still locks the item for other buyers.
func (p *Purchase) Active() bool {
	return p != nil && p.Status != PurchaseStatusCanceled
}
