package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Login info
	Username string `gorm:"unique;not null;size:50" json:"username"`
	Email    string `gorm:"unique;not null;size:100" json:"email"`
	Password string `gorm:"not null" json:"-"`

	// Profile
	FullName string `gorm:"size:100" json:"full_name"`
	Bio      string `gorm:"type:text" json:"bio"`
	IconURL  string `json:"icon_url"`

	Role string `gorm:"default:'user';size:20" json:"role"` // user, admin

	// Tree points earned through completed reuse transactions.
	// Spent (partially or fully) against an item price at purchase time.
	TreePoints int `gorm:"default:0" json:"tree_points"`

	// Accumulated sales revenue in yen, credited when a purchase is delivered.
	RevenueYen int `gorm:"default:0" json:"revenue_yen"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PublicUser is the subset of profile fields visible to other users.
type PublicUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Bio      string `json:"bio"`
	IconURL  string `json:"icon_url"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Bio:      u.Bio,
		IconURL:  u.IconURL,
	}
}
