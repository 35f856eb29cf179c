package handlers

import (
	"net/http"
	"testing"

	"releaf_backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationFeed(t *testing.T) {
	app, db := newTestApp(t)

	user := createUser(t, db, "alice", 0)
	other := createUser(t, db, "bob", 0)

	for i, read := range []bool{false, false, true} {
		n := models.Notification{
			UserID: user.ID,
			Type:   models.NotificationTypeMessage,
			Title:  "New message",
			Read:   read,
		}
		require.NoError(t, db.Create(&n).Error, "notification %d", i)
	}
	require.NoError(t, db.Create(&models.Notification{
		UserID: other.ID,
		Type:   models.NotificationTypePurchase,
		Title:  "Your item was purchased",
	}).Error)

	// Default feed is unread only; the count covers the whole feed.
	resp := doRequest(t, app, "GET", "/api/me/notifications", tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Len(t, body["notifications"], 2)
	assert.Equal(t, float64(2), body["unread_count"])

	resp = doRequest(t, app, "GET", "/api/me/notifications?unread_only=false", tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Len(t, body["notifications"], 3)
	assert.Equal(t, float64(2), body["unread_count"])

	resp = doRequest(t, app, "GET", "/api/me/notifications?unread_only=false&limit=1", tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Len(t, body["notifications"], 1)
	assert.Equal(t, float64(2), body["unread_count"], "limit does not change the count")

	// Another user's feed is isolated.
	resp = doRequest(t, app, "GET", "/api/me/notifications", tokenFor(t, other), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Len(t, body["notifications"], 1)
	assert.Equal(t, float64(1), body["unread_count"])
}

func TestNotificationMarkRead(t *testing.T) {
	app, db := newTestApp(t)

	user := createUser(t, db, "alice", 0)
	other := createUser(t, db, "bob", 0)

	n := models.Notification{UserID: user.ID, Type: models.NotificationTypeShipped, Title: "Shipped"}
	require.NoError(t, db.Create(&n).Error)

	// Only the owner may mark it read.
	resp := doRequest(t, app, "POST", "/api/notifications/1/read", tokenFor(t, other), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, "POST", "/api/notifications/1/read", tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var updated models.Notification
	require.NoError(t, db.First(&updated, n.ID).Error)
	assert.True(t, updated.Read)

	resp = doRequest(t, app, "POST", "/api/notifications/99/read", tokenFor(t, user), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestNotificationMarkAllRead(t *testing.T) {
	app, db := newTestApp(t)

	user := createUser(t, db, "alice", 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Notification{
			UserID: user.ID,
			Type:   models.NotificationTypeMessage,
			Title:  "New message",
		}).Error)
	}

	resp := doRequest(t, app, "POST", "/api/me/notifications/read-all", tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, "GET", "/api/me/notifications", tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Empty(t, body["notifications"])
	assert.Equal(t, float64(0), body["unread_count"])
}
