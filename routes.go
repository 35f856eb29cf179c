package main

import (
	"releaf_backend/config"
	"releaf_backend/handlers"
	"releaf_backend/internal/ws"
	"releaf_backend/pkg/gemini"
	"releaf_backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func registerRoutes(app *fiber.App, db *gorm.DB, hub *ws.Hub, geminiClient *gemini.Client, cfg *config.Config) {
	authHandler := handlers.NewAuthHandler(db)
	itemHandler := handlers.NewItemHandler(db)
	purchaseHandler := handlers.NewPurchaseHandler(db, hub)
	conversationHandler := handlers.NewConversationHandler(db, hub)
	notificationHandler := handlers.NewNotificationHandler(db)
	accountHandler := handlers.NewAccountHandler(db)
	userHandler := handlers.NewUserHandler(db)
	categoryHandler := handlers.NewCategoryHandler(db)
	uploadHandler := handlers.NewUploadHandler(cfg.UploadDir)
	askHandler := handlers.NewAskHandler(db, geminiClient)
	wsHandler := handlers.NewWSHandler(hub, db)

	api := app.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Items (detail pages are public; the viewer changes the reply)
	api.Get("/items", itemHandler.GetAllItems)
	api.Get("/items/:id", utils.OptionalAuthMiddleware, itemHandler.GetItem)
	api.Post("/items", utils.AuthMiddleware, itemHandler.CreateItem)
	api.Put("/items/:id", utils.AuthMiddleware, itemHandler.UpdateItem)
	api.Delete("/items/:id", utils.AuthMiddleware, itemHandler.DeleteItem)
	api.Post("/items/:id/pause", utils.AuthMiddleware, itemHandler.SetItemPaused(true))
	api.Post("/items/:id/unpause", utils.AuthMiddleware, itemHandler.SetItemPaused(false))
	api.Get("/my-items", utils.AuthMiddleware, itemHandler.GetMyItems)

	// Purchase lifecycle
	api.Post("/items/:id/purchase", utils.AuthMiddleware, purchaseHandler.PurchaseItem)
	api.Get("/items/:id/purchase", utils.OptionalAuthMiddleware, purchaseHandler.GetItemPurchase)
	api.Post("/purchases/:id/ship", utils.AuthMiddleware, purchaseHandler.Ship)
	api.Post("/purchases/:id/receive", utils.AuthMiddleware, purchaseHandler.Receive)
	api.Post("/purchases/:id/cancel", utils.AuthMiddleware, purchaseHandler.Cancel)
	api.Get("/me/purchases", utils.AuthMiddleware, purchaseHandler.GetMyPurchases)
	api.Get("/me/sales", utils.AuthMiddleware, purchaseHandler.GetMySales)

	// Conversations and messages
	api.Post("/items/:id/conversations", utils.AuthMiddleware, conversationHandler.CreateConversation)
	api.Get("/conversations", utils.AuthMiddleware, conversationHandler.ListConversations)
	api.Get("/conversations/:id", utils.AuthMiddleware, conversationHandler.GetConversation)
	api.Post("/conversations/:id/read", utils.AuthMiddleware, conversationHandler.MarkRead)
	api.Get("/conversations/:id/messages", utils.AuthMiddleware, conversationHandler.ListMessages)
	api.Post("/conversations/:id/messages", utils.AuthMiddleware, conversationHandler.SendMessage)
	api.Delete("/messages/:id", utils.AuthMiddleware, conversationHandler.DeleteMessage)

	// Notifications
	api.Get("/me/notifications", utils.AuthMiddleware, notificationHandler.GetMyNotifications)
	api.Post("/me/notifications/read-all", utils.AuthMiddleware, notificationHandler.MarkAllRead)
	api.Post("/notifications/:id/read", utils.AuthMiddleware, notificationHandler.MarkRead)

	// Tree points and revenue
	api.Get("/me/tree-points", utils.AuthMiddleware, accountHandler.GetTreePoints)
	api.Post("/me/tree-points/spend", utils.AuthMiddleware, accountHandler.SpendTreePoints)
	api.Get("/me/revenue", utils.AuthMiddleware, accountHandler.GetRevenue)
	api.Post("/me/revenue/withdraw", utils.AuthMiddleware, accountHandler.WithdrawRevenue)

	// Users, categories, uploads
	api.Get("/users/:id/public", userHandler.GetPublicUser)
	api.Get("/users/search", utils.AuthMiddleware, userHandler.SearchUsers)
	api.Get("/categories", categoryHandler.GetCategories)
	api.Post("/upload", utils.AuthMiddleware, uploadHandler.UploadImage)

	// Listing Q&A
	api.Post("/items/:id/ask", utils.AuthMiddleware, askHandler.AskItem)

	// WebSocket push
	app.Use("/ws", utils.WSAuthMiddleware, wsHandler.UpgradeMiddleware)
	app.Get("/ws", wsHandler.Handler())
}
