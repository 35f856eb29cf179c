package handlers

import (
	"log"

	"releaf_backend/internal/metrics"
	"releaf_backend/internal/ws"
	"releaf_backend/models"

	"gorm.io/gorm"
)

// notify persists a notification and pushes it to the user's live
// websocket connections. A failed insert is logged, never fatal: the
// originating transition has already committed.
func notify(db *gorm.DB, hub *ws.Hub, n models.Notification) {
	if err := db.Create(&n).Error; err != nil {
		log.Printf("Failed to create notification for user %d: %v", n.UserID, err)
		return
	}
	metrics.NotificationsCreated.WithLabelValues(n.Type).Inc()
	if hub != nil {
		hub.NotifyUser(n.UserID, n)
	}
}

func ptr(v uint) *uint { return &v }
