package handlers

import (
	"strconv"

	"releaf_backend/internal/market"
	"releaf_backend/models"
	"releaf_backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ItemHandler struct {
	DB *gorm.DB
}

func NewItemHandler(db *gorm.DB) *ItemHandler {
	return &ItemHandler{DB: db}
}

// CreateItemRequest
type CreateItemRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Price        int      `json:"price"`
	CategorySlug string   `json:"category_slug"`
	Condition    string   `json:"condition"`
	ImageURL     string   `json:"image_url"`
	CO2Kg        *float64 `json:"co2_kg"`
}

// CreateItem - POST /api/items
func (h *ItemHandler) CreateItem(c *fiber.Ctx) error {
	var req CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	if req.Title == "" || req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required and price must not be negative"})
	}

	userID := utils.CurrentUserID(c)

	item := models.Item{
		SellerID:     userID,
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		CategorySlug: req.CategorySlug,
		Condition:    req.Condition,
		ImageURL:     req.ImageURL,
		CO2Kg:        req.CO2Kg,
		Status:       models.ItemStatusListed,
	}

	if err := h.DB.Create(&item).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not create item"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Item created", "data": item})
}

// GetAllItems - GET /api/items
func (h *ItemHandler) GetAllItems(c *fiber.Ctx) error {
	filter := h.DB.Model(&models.Item{}).Session(&gorm.Session{}).
		Where("status IN ?", []models.ItemStatus{models.ItemStatusListed, models.ItemStatusInTransaction, models.ItemStatusSold})

	// Filter by Category
	if category := c.Query("category"); category != "" {
		filter = filter.Where("category_slug = ?", category)
	}

	// Search by Title
	if q := c.Query("q"); q != "" {
		filter = filter.Where("title LIKE ?", "%"+q+"%")
	}

	var total int64
	if err := filter.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch items"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var items []models.Item
	if err := filter.Preload("Seller", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, username, full_name, icon_url")
	}).Order("CASE status WHEN 'listed' THEN 0 WHEN 'in_transaction' THEN 1 ELSE 2 END").
		Order("created_at desc").Offset((page - 1) * limit).Limit(limit).
		Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch items"})
	}

	return c.JSON(fiber.Map{
		"items": items,
		"total": total,
		"meta":  models.NewPaginationMeta(page, limit, total),
	})
}

// GetItem - GET /api/items/:id
//
// Publicly viewable. The reply carries the reward preview and the sold
// badge so listing pages render without a second round trip; the
// viewer-specific action set lives on GET /api/items/:id/purchase.
func (h *ItemHandler) GetItem(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	var item models.Item

	if err := h.DB.Preload("Seller", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, username, full_name, icon_url")
	}).First(&item, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
	}

	purchase := activePurchase(h.DB, item.ID)
	reward := market.ComputeReward(item.CO2Kg)

	return c.JSON(fiber.Map{
		"data":   item,
		"reward": reward,
		"badge":  market.Badge(item.Status, purchase),
		"sold":   market.SoldForDisplay(item.Status, purchase),
	})
}

// UpdateItem - PUT /api/items/:id
func (h *ItemHandler) UpdateItem(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	userID := utils.CurrentUserID(c)

	var item models.Item
	if err := h.DB.First(&item, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
	}

	// Check ownership
	if item.SellerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	}

	// An item locked by an active purchase may not be edited.
	if p := activePurchase(h.DB, item.ID); p != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Item has an active purchase"})
	}

	var req CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	item.Title = req.Title
	item.Description = req.Description
	item.Price = req.Price
	item.CategorySlug = req.CategorySlug
	item.Condition = req.Condition
	item.ImageURL = req.ImageURL
	item.CO2Kg = req.CO2Kg

	if err := h.DB.Save(&item).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update item"})
	}

	return c.JSON(fiber.Map{"message": "Item updated", "data": item})
}

// PauseItem - POST /api/items/:id/pause (and /unpause)
func (h *ItemHandler) SetItemPaused(paused bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := strconv.Atoi(c.Params("id"))
		userID := utils.CurrentUserID(c)

		var item models.Item
		if err := h.DB.First(&item, id).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		}
		if item.SellerID != userID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
		}
		if p := activePurchase(h.DB, item.ID); p != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Item has an active purchase"})
		}

		status := models.ItemStatusListed
		if paused {
			status = models.ItemStatusPaused
		}
		if err := h.DB.Model(&item).Update("status", status).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update item"})
		}
		item.Status = status
		return c.JSON(fiber.Map{"message": "Item updated", "data": item})
	}
}

// DeleteItem - DELETE /api/items/:id
func (h *ItemHandler) DeleteItem(c *fiber.Ctx) error {
	id, _ := strconv.Atoi(c.Params("id"))
	userID := utils.CurrentUserID(c)

	var item models.Item
	if err := h.DB.First(&item, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
	}

	// Check ownership
	if item.SellerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	}

	if p := activePurchase(h.DB, item.ID); p != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Item has an active purchase"})
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not delete item"})
	}

	return c.JSON(fiber.Map{"message": "Item deleted"})
}

// GetMyItems - GET /api/my-items
func (h *ItemHandler) GetMyItems(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	var items []models.Item
	if err := h.DB.Where("seller_id = ?", userID).Order("created_at desc").Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch items"})
	}

	return c.JSON(fiber.Map{"data": items})
}

// activePurchase returns the item's non-canceled purchase, or nil.
func activePurchase(db *gorm.DB, itemID uint) *models.Purchase {
	var purchase models.Purchase
	err := db.Where("item_id = ? AND status != ?", itemID, models.PurchaseStatusCanceled).
		Order("id desc").
		First(&purchase).Error
	if err != nil {
		return nil
	}
	return &purchase
}
