package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"releaf_backend/models"
	"releaf_backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test. The cache=shared
// DSN keeps the database alive across the pool's connections.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Item{},
		&models.Purchase{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	))
	return db
}

// newTestApp wires the handlers onto a Fiber app with the production
// route table. The websocket hub is nil; notify degrades to DB-only.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	db := newTestDB(t)
	app := fiber.New()
	api := app.Group("/api")

	authHandler := NewAuthHandler(db)
	itemHandler := NewItemHandler(db)
	purchaseHandler := NewPurchaseHandler(db, nil)
	conversationHandler := NewConversationHandler(db, nil)
	notificationHandler := NewNotificationHandler(db)
	accountHandler := NewAccountHandler(db)
	userHandler := NewUserHandler(db)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	api.Get("/items", itemHandler.GetAllItems)
	api.Get("/items/:id", utils.OptionalAuthMiddleware, itemHandler.GetItem)
	api.Post("/items", utils.AuthMiddleware, itemHandler.CreateItem)
	api.Put("/items/:id", utils.AuthMiddleware, itemHandler.UpdateItem)
	api.Delete("/items/:id", utils.AuthMiddleware, itemHandler.DeleteItem)
	api.Post("/items/:id/pause", utils.AuthMiddleware, itemHandler.SetItemPaused(true))
	api.Post("/items/:id/unpause", utils.AuthMiddleware, itemHandler.SetItemPaused(false))
	api.Get("/my-items", utils.AuthMiddleware, itemHandler.GetMyItems)

	api.Post("/items/:id/purchase", utils.AuthMiddleware, purchaseHandler.PurchaseItem)
	api.Get("/items/:id/purchase", utils.OptionalAuthMiddleware, purchaseHandler.GetItemPurchase)
	api.Post("/purchases/:id/ship", utils.AuthMiddleware, purchaseHandler.Ship)
	api.Post("/purchases/:id/receive", utils.AuthMiddleware, purchaseHandler.Receive)
	api.Post("/purchases/:id/cancel", utils.AuthMiddleware, purchaseHandler.Cancel)
	api.Get("/me/purchases", utils.AuthMiddleware, purchaseHandler.GetMyPurchases)
	api.Get("/me/sales", utils.AuthMiddleware, purchaseHandler.GetMySales)

	api.Post("/items/:id/conversations", utils.AuthMiddleware, conversationHandler.CreateConversation)
	api.Get("/conversations", utils.AuthMiddleware, conversationHandler.ListConversations)
	api.Get("/conversations/:id", utils.AuthMiddleware, conversationHandler.GetConversation)
	api.Post("/conversations/:id/read", utils.AuthMiddleware, conversationHandler.MarkRead)
	api.Get("/conversations/:id/messages", utils.AuthMiddleware, conversationHandler.ListMessages)
	api.Post("/conversations/:id/messages", utils.AuthMiddleware, conversationHandler.SendMessage)
	api.Delete("/messages/:id", utils.AuthMiddleware, conversationHandler.DeleteMessage)

	api.Get("/me/notifications", utils.AuthMiddleware, notificationHandler.GetMyNotifications)
	api.Post("/me/notifications/read-all", utils.AuthMiddleware, notificationHandler.MarkAllRead)
	api.Post("/notifications/:id/read", utils.AuthMiddleware, notificationHandler.MarkRead)

	api.Get("/me/tree-points", utils.AuthMiddleware, accountHandler.GetTreePoints)
	api.Post("/me/tree-points/spend", utils.AuthMiddleware, accountHandler.SpendTreePoints)
	api.Get("/me/revenue", utils.AuthMiddleware, accountHandler.GetRevenue)
	api.Post("/me/revenue/withdraw", utils.AuthMiddleware, accountHandler.WithdrawRevenue)

	api.Get("/users/:id/public", userHandler.GetPublicUser)

	return app, db
}

func createUser(t *testing.T, db *gorm.DB, username string, treePoints int) models.User {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)

	user := models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   hash,
		FullName:   username,
		Role:       "user",
		TreePoints: treePoints,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createItem(t *testing.T, db *gorm.DB, seller models.User, price int, co2Kg *float64) models.Item {
	t.Helper()

	item := models.Item{
		SellerID:     seller.ID,
		Title:        "Mountain bike",
		Description:  "Barely used",
		Price:        price,
		CategorySlug: "outdoor",
		Condition:    "used",
		Status:       models.ItemStatusListed,
		CO2Kg:        co2Kg,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()

	token, err := utils.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func floatPtr(v float64) *float64 { return &v }
