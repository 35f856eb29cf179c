package handlers

import (
	"releaf_backend/models"
	"releaf_backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AccountHandler serves the viewer's tree point balance and sales revenue.
type AccountHandler struct {
	DB *gorm.DB
}

func NewAccountHandler(db *gorm.DB) *AccountHandler {
	return &AccountHandler{DB: db}
}

// GetTreePoints - GET /api/me/tree-points
func (h *AccountHandler) GetTreePoints(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"balance": user.TreePoints})
}

// SpendPointsRequest defines the payload for spending points
type SpendPointsRequest struct {
	Points int `json:"points"`
}

// SpendTreePoints - POST /api/me/tree-points/spend
//
// Standalone spend outside a purchase (e.g. donations). Validated before
// any write: negative amounts are rejected, overspend is a 400.
func (h *AccountHandler) SpendTreePoints(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	var req SpendPointsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.Points <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "points must be positive"})
	}

	var balance int
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
			return err
		}
		if req.Points > user.TreePoints {
			return fiber.NewError(fiber.StatusBadRequest, "insufficient points")
		}
		balance = user.TreePoints - req.Points
		return tx.Model(&user).Update("tree_points", balance).Error
	})
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not spend points"})
	}

	return c.JSON(fiber.Map{"balance": balance})
}

// GetRevenue - GET /api/me/revenue
func (h *AccountHandler) GetRevenue(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"revenue_yen": user.RevenueYen})
}

// WithdrawRequest defines the payload for withdrawing revenue
type WithdrawRequest struct {
	AmountYen int `json:"amount_yen"`
}

// WithdrawRevenue - POST /api/me/revenue/withdraw
func (h *AccountHandler) WithdrawRevenue(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.AmountYen <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount must be positive"})
	}

	var remaining int
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := lockForUpdate(tx).First(&user, userID).Error; err != nil {
			return err
		}
		if req.AmountYen > user.RevenueYen {
			return fiber.NewError(fiber.StatusBadRequest, "insufficient revenue")
		}
		remaining = user.RevenueYen - req.AmountYen
		return tx.Model(&user).Update("revenue_yen", remaining).Error
	})
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not withdraw"})
	}

	return c.JSON(fiber.Map{"revenue_yen": remaining})
}
