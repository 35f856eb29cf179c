package handlers

import (
	"strconv"

	"releaf_backend/models"
	"releaf_backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// GetPublicUser - GET /api/users/:id/public
func (h *UserHandler) GetPublicUser(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"data": user.Public()})
}

// SearchUsers allows searching for users by username or email
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter 'q' is required",
		})
	}

	currentUserID := utils.CurrentUserID(c)

	var users []models.User
	err := h.DB.Select("id, username, full_name, icon_url").
		Where("(username LIKE ? OR email LIKE ?) AND id != ?", "%"+query+"%", "%"+query+"%", currentUserID).
		Limit(10).
		Find(&users).Error

	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not search users",
		})
	}

	results := make([]models.PublicUser, 0, len(users))
	for i := range users {
		results = append(results, users[i].Public())
	}

	return c.JSON(fiber.Map{"data": results})
}
