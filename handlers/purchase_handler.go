package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"releaf_backend/internal/market"
	"releaf_backend/internal/metrics"
	"releaf_backend/internal/ws"
	"releaf_backend/models"
	"releaf_backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseHandler struct {
	DB  *gorm.DB
	Hub *ws.Hub
}

func NewPurchaseHandler(db *gorm.DB, hub *ws.Hub) *PurchaseHandler {
	return &PurchaseHandler{DB: db, Hub: hub}
}

// PurchaseRequest defines the payload for buying an item
type PurchaseRequest struct {
	PointsUsed int `json:"points_used"`
}

// PurchaseItem - POST /api/items/:id/purchase
//
// Creates the purchase inside one transaction holding a row lock on the
// item, so exactly one buyer wins when two purchase the same item at
// once. The loser gets a 409.
func (h *PurchaseHandler) PurchaseItem(c *fiber.Ctx) error {
	itemID, _ := strconv.Atoi(c.Params("id"))
	userID := utils.CurrentUserID(c)

	var req PurchaseRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.PointsUsed < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "points_used must not be negative"})
	}

	var purchase models.Purchase
	var item models.Item

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&item, itemID).Error; err != nil {
			return err
		}

		var prior *models.Purchase
		var last models.Purchase
		if err := tx.Where("item_id = ?", item.ID).Order("id desc").First(&last).Error; err == nil {
			prior = &last
		}

		role := market.ResolveRole(userID, &item, prior)
		if !market.EligibleActions(&item, prior, role).Has(market.ActionPurchase) {
			if prior.Active() {
				return market.ErrConflict
			}
			return market.ErrForbidden
		}

		var buyer models.User
		if err := lockForUpdate(tx).First(&buyer, userID).Error; err != nil {
			return err
		}

		pointsUsed, payable := market.ClampPoints(req.PointsUsed, item.Price)
		if pointsUsed > buyer.TreePoints {
			return market.ErrInsufficientPoints
		}
		if pointsUsed > 0 {
			if err := tx.Model(&buyer).Update("tree_points", buyer.TreePoints-pointsUsed).Error; err != nil {
				return err
			}
		}

		conv, err := ensureConversation(tx, &item, userID)
		if err != nil {
			return err
		}

		qrToken := uuid.NewString()
		purchase = models.Purchase{
			ItemID:         item.ID,
			BuyerID:        userID,
			SellerID:       item.SellerID,
			ConversationID: conv.ID,
			Status:         models.PurchaseStatusPendingShipment,
			ShippingQRURL:  fmt.Sprintf("/shipping/qr/%s", qrToken),
			ShippingNote:   "Show this QR code at the convenience store counter to print the shipping label.",
			PointsUsed:     pointsUsed,
			PaidYen:        payable,
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}

		return tx.Model(&item).Update("status", models.ItemStatusInTransaction).Error
	})

	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
		case errors.Is(err, market.ErrConflict):
			metrics.PurchaseConflicts.Inc()
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Item already purchased"})
		case errors.Is(err, market.ErrInsufficientPoints):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "insufficient points"})
		case errors.Is(err, market.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You cannot purchase this item"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not complete purchase"})
		}
	}

	metrics.PurchaseTransitions.WithLabelValues(string(market.ActionPurchase)).Inc()
	notify(h.DB, h.Hub, models.Notification{
		UserID:         item.SellerID,
		Type:           models.NotificationTypePurchase,
		Title:          "Your item was purchased",
		Body:           fmt.Sprintf("%q was purchased. Ship it with the QR code on the item page.", item.Title),
		ItemID:         ptr(item.ID),
		ConversationID: ptr(purchase.ConversationID),
		PurchaseID:     ptr(purchase.ID),
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": purchase})
}

// GetItemPurchase - GET /api/items/:id/purchase
//
// Returns the viewer's view of the item's latest purchase: the purchase
// row (when the viewer is a party to it), the eligible actions and the
// display badge. Absent purchase is not an error; it means "no purchase
// exists" and the purchase action may be enabled.
func (h *PurchaseHandler) GetItemPurchase(c *fiber.Ctx) error {
	itemID, _ := strconv.Atoi(c.Params("id"))
	userID := utils.CurrentUserID(c)

	var item models.Item
	if err := h.DB.First(&item, itemID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Item not found"})
	}

	var purchase *models.Purchase
	var last models.Purchase
	if err := h.DB.Where("item_id = ?", item.ID).Order("id desc").First(&last).Error; err == nil {
		purchase = &last
	}

	role := market.ResolveRole(userID, &item, purchase)
	actions := market.EligibleActions(&item, purchase, role)

	resp := fiber.Map{
		"role":    role,
		"actions": actions.List(),
		"badge":   market.Badge(item.Status, purchase),
		"sold":    market.SoldForDisplay(item.Status, purchase),
	}

	// Only the parties see the purchase row itself; a third party just
	// gets the badge.
	if purchase != nil && (role == market.RoleSeller || role == market.RoleBuyer) {
		resp["data"] = purchase
	}

	return c.JSON(resp)
}

// Ship - POST /api/purchases/:id/ship
func (h *PurchaseHandler) Ship(c *fiber.Ctx) error {
	return h.transition(c, market.ActionShip, func(tx *gorm.DB, purchase *models.Purchase, item *models.Item) error {
		now := time.Now()
		purchase.Status = models.PurchaseStatusShipped
		purchase.ShippedAt = &now
		return tx.Save(purchase).Error
	}, func(purchase *models.Purchase, item *models.Item) {
		notify(h.DB, h.Hub, models.Notification{
			UserID:         purchase.BuyerID,
			Type:           models.NotificationTypeShipped,
			Title:          "Your purchase was shipped",
			Body:           fmt.Sprintf("%q is on its way. Report receipt once it arrives.", item.Title),
			ItemID:         ptr(item.ID),
			ConversationID: ptr(purchase.ConversationID),
			PurchaseID:     ptr(purchase.ID),
		})
	})
}

// Receive - POST /api/purchases/:id/receive
//
// Confirming receipt completes the transaction: the item becomes sold,
// the buyer earns tree points from the item's CO2 figure, and the seller
// is credited the paid amount.
func (h *PurchaseHandler) Receive(c *fiber.Ctx) error {
	return h.transition(c, market.ActionConfirmReceipt, func(tx *gorm.DB, purchase *models.Purchase, item *models.Item) error {
		now := time.Now()
		purchase.Status = models.PurchaseStatusDelivered
		purchase.DeliveredAt = &now
		if err := tx.Save(purchase).Error; err != nil {
			return err
		}
		if err := tx.Model(item).Update("status", models.ItemStatusSold).Error; err != nil {
			return err
		}

		// Reward the buyer and credit the seller.
		reward := market.ComputeReward(item.CO2Kg)
		if reward.TreePoints != nil {
			if err := tx.Model(&models.User{}).Where("id = ?", purchase.BuyerID).
				Update("tree_points", gorm.Expr("tree_points + ?", *reward.TreePoints)).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.User{}).Where("id = ?", purchase.SellerID).
			Update("revenue_yen", gorm.Expr("revenue_yen + ?", purchase.PaidYen)).Error
	}, func(purchase *models.Purchase, item *models.Item) {
		notify(h.DB, h.Hub, models.Notification{
			UserID:         purchase.SellerID,
			Type:           models.NotificationTypeDelivered,
			Title:          "Transaction completed",
			Body:           fmt.Sprintf("The buyer received %q. ¥%d was added to your revenue.", item.Title, purchase.PaidYen),
			ItemID:         ptr(item.ID),
			ConversationID: ptr(purchase.ConversationID),
			PurchaseID:     ptr(purchase.ID),
		})
	})
}

// Cancel - POST /api/purchases/:id/cancel
//
// Only the buyer may cancel, and only while the purchase is pending
// shipment. Used points are refunded and the item is relisted.
func (h *PurchaseHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, market.ActionCancel, func(tx *gorm.DB, purchase *models.Purchase, item *models.Item) error {
		purchase.Status = models.PurchaseStatusCanceled
		if err := tx.Save(purchase).Error; err != nil {
			return err
		}
		if purchase.PointsUsed > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", purchase.BuyerID).
				Update("tree_points", gorm.Expr("tree_points + ?", purchase.PointsUsed)).Error; err != nil {
				return err
			}
		}
		return tx.Model(item).Update("status", models.ItemStatusListed).Error
	}, func(purchase *models.Purchase, item *models.Item) {
		notify(h.DB, h.Hub, models.Notification{
			UserID:         purchase.SellerID,
			Type:           models.NotificationTypeCanceled,
			Title:          "Purchase canceled",
			Body:           fmt.Sprintf("The purchase of %q was canceled. The item is listed again.", item.Title),
			ItemID:         ptr(item.ID),
			ConversationID: ptr(purchase.ConversationID),
			PurchaseID:     ptr(purchase.ID),
		})
	})
}

// transition runs one lifecycle action: it locks the purchase, checks
// eligibility for the viewer's role, applies the mutation and fires the
// after-commit notification.
func (h *PurchaseHandler) transition(
	c *fiber.Ctx,
	action market.Action,
	apply func(tx *gorm.DB, purchase *models.Purchase, item *models.Item) error,
	after func(purchase *models.Purchase, item *models.Item),
) error {
	purchaseID, _ := strconv.Atoi(c.Params("id"))
	userID := utils.CurrentUserID(c)

	var purchase models.Purchase
	var item models.Item

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&purchase, purchaseID).Error; err != nil {
			return err
		}
		if err := tx.First(&item, purchase.ItemID).Error; err != nil {
			return err
		}

		role := market.ResolveRole(userID, &item, &purchase)
		if !market.EligibleActions(&item, &purchase, role).Has(action) {
			if role != market.RoleSeller && role != market.RoleBuyer {
				return market.ErrForbidden
			}
			return market.ErrConflict
		}

		return apply(tx, &purchase, &item)
	})

	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Purchase not found"})
		case errors.Is(err, market.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
		case errors.Is(err, market.ErrConflict):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Purchase state does not permit this action"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not update purchase"})
		}
	}

	metrics.PurchaseTransitions.WithLabelValues(string(action)).Inc()
	after(&purchase, &item)

	return c.JSON(fiber.Map{"data": purchase})
}

// GetMyPurchases - GET /api/me/purchases
func (h *PurchaseHandler) GetMyPurchases(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	var purchases []models.Purchase
	if err := h.DB.Preload("Item").
		Where("buyer_id = ?", userID).Order("created_at desc").Find(&purchases).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch purchases"})
	}

	return c.JSON(fiber.Map{"data": purchases})
}

// GetMySales - GET /api/me/sales
func (h *PurchaseHandler) GetMySales(c *fiber.Ctx) error {
	userID := utils.CurrentUserID(c)

	var purchases []models.Purchase
	if err := h.DB.Preload("Item").Preload("Buyer", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, username, full_name, icon_url")
	}).Where("purchases.seller_id = ?", userID).Order("created_at desc").Find(&purchases).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch sales"})
	}

	return c.JSON(fiber.Map{"data": purchases})
}
