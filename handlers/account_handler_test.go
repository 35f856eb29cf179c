package handlers

import (
	"net/http"
	"testing"

	"releaf_backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreePointsSpend(t *testing.T) {
	app, db := newTestApp(t)
	user := createUser(t, db, "alice", 120)

	resp := doRequest(t, app, "GET", "/api/me/tree-points", tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(120), body["balance"])

	resp = doRequest(t, app, "POST", "/api/me/tree-points/spend", tokenFor(t, user),
		map[string]any{"points": 20})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(100), body["balance"])

	// Overspend fails and leaves the balance alone.
	resp = doRequest(t, app, "POST", "/api/me/tree-points/spend", tokenFor(t, user),
		map[string]any{"points": 500})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "insufficient points", body["error"])

	resp = doRequest(t, app, "POST", "/api/me/tree-points/spend", tokenFor(t, user),
		map[string]any{"points": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.Equal(t, 100, updated.TreePoints)
}

func TestRevenueWithdraw(t *testing.T) {
	app, db := newTestApp(t)
	user := createUser(t, db, "alice", 0)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("revenue_yen", 8000).Error)

	resp := doRequest(t, app, "GET", "/api/me/revenue", tokenFor(t, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(8000), body["revenue_yen"])

	resp = doRequest(t, app, "POST", "/api/me/revenue/withdraw", tokenFor(t, user),
		map[string]any{"amount_yen": 3000})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(5000), body["revenue_yen"])

	resp = doRequest(t, app, "POST", "/api/me/revenue/withdraw", tokenFor(t, user),
		map[string]any{"amount_yen": 9999})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "insufficient revenue", body["error"])

	resp = doRequest(t, app, "POST", "/api/me/revenue/withdraw", tokenFor(t, user),
		map[string]any{"amount_yen": -10})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
