package config

import (
	"log"
	"releaf_backend/models"
	"releaf_backend/utils"

	"gorm.io/gorm"
)

func SeedCategories(db *gorm.DB) {
	categories := []models.Category{
		{Name: "Fashion", Slug: "fashion"},
		{Name: "Electronics", Slug: "electronics"},
		{Name: "Outdoor", Slug: "outdoor"},
		{Name: "Books", Slug: "books"},
		{Name: "Home & Kitchen", Slug: "home-kitchen"},
		{Name: "Hobby", Slug: "hobby"},
	}

	for _, category := range categories {
		var existing models.Category
		if err := db.Where("slug = ?", category.Slug).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&category).Error; err != nil {
				log.Printf("Failed to seed category %s: %v", category.Slug, err)
			}
		}
	}
}

func SeedUsers(db *gorm.DB) {
	log.Println("Seeding users...")

	password, _ := utils.HashPassword("password123")

	users := []models.User{
		{
			Username: "user1",
			Email:    "user1@example.com",
			Password: password,
			FullName: "User One",
			Role:     "user",
		},
		{
			Username: "user2",
			Email:    "user2@example.com",
			Password: password,
			FullName: "User Two",
			Role:     "user",
		},
	}

	for _, user := range users {
		var existingUser models.User
		if err := db.Where("email = ?", user.Email).First(&existingUser).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&user).Error; err != nil {
					log.Printf("Failed to seed user %s: %v", user.Username, err)
				} else {
					log.Printf("User seeded: %s (ID: %d)", user.Username, user.ID)
				}
			}
		} else {
			log.Printf("User already exists: %s", user.Username)
		}
	}

	log.Println("Seeding complete.")
}

func SeedItems(db *gorm.DB) {
	log.Println("Seeding items...")

	var seller models.User
	if err := db.Where("username = ?", "user1").First(&seller).Error; err != nil {
		log.Printf("Seed seller not found, skipping item seed: %v", err)
		return
	}

	co2Jacket := 50.0
	co2Lamp := 3.0
	items := []models.Item{
		{
			SellerID:     seller.ID,
			Title:        "Down jacket",
			Description:  "Lightly used, one winter season.",
			Price:        5000,
			CategorySlug: "fashion",
			Condition:    "used",
			Status:       models.ItemStatusListed,
			CO2Kg:        &co2Jacket,
		},
		{
			SellerID:     seller.ID,
			Title:        "Desk lamp",
			Description:  "Works fine, small scratch on the base.",
			Price:        1200,
			CategorySlug: "home-kitchen",
			Condition:    "used",
			Status:       models.ItemStatusListed,
			CO2Kg:        &co2Lamp,
		},
	}

	for _, item := range items {
		var existing models.Item
		if err := db.Where("seller_id = ? AND title = ?", item.SellerID, item.Title).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&item).Error; err != nil {
				log.Printf("Failed to seed item %s: %v", item.Title, err)
			}
		}
	}

	log.Println("Item seeding complete.")
}
