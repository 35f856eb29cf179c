package handlers

import (
	"strconv"

	"releaf_backend/models"
	"releaf_backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// GetMyNotifications - GET /api/me/notifications
//
// Defaults to unread only; ?unread_only=false returns the full feed.
// unread_count always reflects the whole feed regardless of filters.
func (h *NotificationHandler) GetMyNotifications(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	query := h.DB.Where("user_id = ?", userID)
	if c.Query("unread_only", "true") != "false" {
		query = query.Where("read = ?", false)
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var notifications []models.Notification
	if err := query.Order("created_at desc").Limit(limit).Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch notifications"})
	}

	var unreadCount int64
	h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).Count(&unreadCount)

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread_count":  unreadCount,
	})
}

// MarkRead - POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	notificationID, _ := strconv.Atoi(c.Params("id"))
	userID := utils.CurrentUserID(c)

	var notification models.Notification
	if err := h.DB.First(&notification, notificationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}
	if notification.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	}

	if err := h.DB.Model(&notification).Update("read", true).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update notification"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// MarkAllRead - POST /api/me/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update notifications"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
