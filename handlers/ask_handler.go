package handlers

import (
	"strconv"

	"releaf_backend/models"
	"releaf_backend/pkg/gemini"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AskHandler answers buyer questions about a listing with Gemini.
type AskHandler struct {
	DB     *gorm.DB
	Gemini *gemini.Client
}

func NewAskHandler(db *gorm.DB, client *gemini.Client) *AskHandler {
	return &AskHandler{DB: db, Gemini: client}
}

// AskRequest defines the payload for a listing question
type AskRequest struct {
	Question string `json:"question"`
}

// AskItem - POST /api/items/:id/ask
func (h *AskHandler) AskItem(c *fiber.Ctx) error {
	if h.Gemini == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Assistant is not configured"})
	}

	itemID, _ := strconv.Atoi(c.Params("id"))

	var req AskRequest
	if err := c.BodyParser(&req); err != nil || req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "question is required"})
	}

	var item models.Item
	if err := h.DB.First(&item, itemID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
	}

	answer, err := h.Gemini.AnswerItemQuestion(c.Context(), item.Title, item.Description, item.Condition, item.Price, req.Question)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Assistant is unavailable"})
	}

	return c.JSON(fiber.Map{"answer": answer})
}
