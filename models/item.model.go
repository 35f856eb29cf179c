package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ItemStatus string

const (
	ItemStatusListed        ItemStatus = "listed"
	ItemStatusPaused        ItemStatus = "paused"
	ItemStatusInTransaction ItemStatus = "in_transaction"
	ItemStatusSold          ItemStatus = "sold"
)

// ValidItemStatus reports whether s is one of the statuses the server may store.
// Payloads carrying anything else are rejected at the API boundary.
func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case ItemStatusListed, ItemStatusPaused, ItemStatusInTransaction, ItemStatusSold:
		return true
	}
	return false
}

type Item struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SellerID     uint       `gorm:"index;not null" json:"seller_id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Price        int        `gorm:"not null" json:"price"` // yen
	ImageURL     string     `json:"image_url"`
	CategorySlug string     `gorm:"size:50;index" json:"category_slug"`
	Condition    string     `gorm:"size:20" json:"condition"` // new, used
	Status       ItemStatus `gorm:"size:20;default:'listed';index" json:"status"`

	// Estimated CO2 saved by reusing this item instead of buying new, in kg.
	// Provided by the AI estimation service at listing time; nil when unknown.
	CO2Kg *float64 `gorm:"column:co2_kg" json:"co2_kg,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Seller User `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
}

// BeforeSave rejects a status string outside the known set before it can
// reach the database.
func (i *Item) BeforeSave(tx *gorm.DB) error {
	if !ValidItemStatus(i.Status) {
		return fmt.Errorf("invalid item status %q", i.Status)
	}
	return nil
}
