package handlers

import (
	"net/http"
	"testing"

	"releaf_backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseLifecycleDelivered(t *testing.T) {
	app, db := newTestApp(t)

	seller := createUser(t, db, "seller", 0)
	buyer := createUser(t, db, "buyer", 2000)
	item := createItem(t, db, seller, 5000, floatPtr(50))

	// Buyer purchases, spending the full point balance.
	resp := doRequest(t, app, "POST", "/api/items/1/purchase", tokenFor(t, buyer),
		map[string]any{"points_used": 2000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, "pending_shipment", data["status"])
	assert.Equal(t, float64(2000), data["points_used"])
	assert.Equal(t, float64(3000), data["paid_yen"])
	assert.Contains(t, data["shipping_qr_url"], "/shipping/qr/")

	var updatedItem models.Item
	require.NoError(t, db.First(&updatedItem, item.ID).Error)
	assert.Equal(t, models.ItemStatusInTransaction, updatedItem.Status)

	var updatedBuyer models.User
	require.NoError(t, db.First(&updatedBuyer, buyer.ID).Error)
	assert.Equal(t, 0, updatedBuyer.TreePoints, "points deducted up front")

	// A conversation between buyer and seller exists for the item.
	var conv models.Conversation
	require.NoError(t, db.Where("item_id = ? AND buyer_id = ?", item.ID, buyer.ID).First(&conv).Error)
	assert.Equal(t, seller.ID, conv.SellerID)

	// A second buyer loses with a conflict.
	rival := createUser(t, db, "rival", 0)
	resp = doRequest(t, app, "POST", "/api/items/1/purchase", tokenFor(t, rival), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The seller ships.
	resp = doRequest(t, app, "POST", "/api/purchases/1/ship", tokenFor(t, seller), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	data = body["data"].(map[string]any)
	assert.Equal(t, "shipped", data["status"])
	assert.NotNil(t, data["shipped_at"])

	// The buyer confirms receipt: item sold, points awarded, revenue credited.
	resp = doRequest(t, app, "POST", "/api/purchases/1/receive", tokenFor(t, buyer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	data = body["data"].(map[string]any)
	assert.Equal(t, "delivered", data["status"])

	require.NoError(t, db.First(&updatedItem, item.ID).Error)
	assert.Equal(t, models.ItemStatusSold, updatedItem.Status)

	require.NoError(t, db.First(&updatedBuyer, buyer.ID).Error)
	assert.Equal(t, 5, updatedBuyer.TreePoints, "50 kg CO2 earns 5 tree points")

	var updatedSeller models.User
	require.NoError(t, db.First(&updatedSeller, seller.ID).Error)
	assert.Equal(t, 3000, updatedSeller.RevenueYen, "seller is credited the paid amount only")

	// The seller was notified of the purchase and of the completion.
	var count int64
	db.Model(&models.Notification{}).Where("user_id = ?", seller.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestPurchaseCancelRefundsAndRelists(t *testing.T) {
	app, db := newTestApp(t)

	seller := createUser(t, db, "seller", 0)
	buyer := createUser(t, db, "buyer", 500)
	item := createItem(t, db, seller, 1000, nil)

	resp := doRequest(t, app, "POST", "/api/items/1/purchase", tokenFor(t, buyer),
		map[string]any{"points_used": 500})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Only the buyer may cancel a pending purchase.
	resp = doRequest(t, app, "POST", "/api/purchases/1/cancel", tokenFor(t, seller), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, "POST", "/api/purchases/1/cancel", tokenFor(t, buyer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "canceled", body["data"].(map[string]any)["status"])

	var updatedItem models.Item
	require.NoError(t, db.First(&updatedItem, item.ID).Error)
	assert.Equal(t, models.ItemStatusListed, updatedItem.Status, "cancel relists the item")

	var updatedBuyer models.User
	require.NoError(t, db.First(&updatedBuyer, buyer.ID).Error)
	assert.Equal(t, 500, updatedBuyer.TreePoints, "used points refunded")

	// The canceled purchase reopens the item for another buyer.
	rival := createUser(t, db, "rival", 0)
	resp = doRequest(t, app, "POST", "/api/items/1/purchase", tokenFor(t, rival), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body = decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, "pending_shipment", data["status"])
	assert.Equal(t, float64(1000), data["paid_yen"])
}

func TestPurchaseValidation(t *testing.T) {
	app, db := newTestApp(t)

	seller := createUser(t, db, "seller", 0)
	broke := createUser(t, db, "broke", 100)
	createItem(t, db, seller, 1000, nil)

	// The seller may not buy their own item.
	resp := doRequest(t, app, "POST", "/api/items/1/purchase", tokenFor(t, seller), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Spending more points than held fails before any write.
	resp = doRequest(t, app, "POST", "/api/items/1/purchase", tokenFor(t, broke),
		map[string]any{"points_used": 500})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "insufficient points", body["error"])

	var untouched models.User
	require.NoError(t, db.First(&untouched, broke.ID).Error)
	assert.Equal(t, 100, untouched.TreePoints)

	// Negative point spends are rejected.
	resp = doRequest(t, app, "POST", "/api/items/1/purchase", tokenFor(t, broke),
		map[string]any{"points_used": -5})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown item.
	resp = doRequest(t, app, "POST", "/api/items/999/purchase", tokenFor(t, broke), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Anonymous requests never reach the handler.
	resp = doRequest(t, app, "POST", "/api/items/1/purchase", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestPurchasePointSpendIsClampedToPrice(t *testing.T) {
	app, db := newTestApp(t)

	seller := createUser(t, db, "seller", 0)
	buyer := createUser(t, db, "buyer", 9000)
	createItem(t, db, seller, 5000, nil)

	resp := doRequest(t, app, "POST", "/api/items/1/purchase", tokenFor(t, buyer),
		map[string]any{"points_used": 9000})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(5000), data["points_used"])
	assert.Equal(t, float64(0), data["paid_yen"])

	var updatedBuyer models.User
	require.NoError(t, db.First(&updatedBuyer, buyer.ID).Error)
	assert.Equal(t, 4000, updatedBuyer.TreePoints, "only the clamped spend is deducted")
}

func TestTransitionOrderIsEnforced(t *testing.T) {
	app, db := newTestApp(t)

	seller := createUser(t, db, "seller", 0)
	buyer := createUser(t, db, "buyer", 0)
	outsider := createUser(t, db, "outsider", 0)
	createItem(t, db, seller, 1000, nil)

	resp := doRequest(t, app, "POST", "/api/items/1/purchase", tokenFor(t, buyer), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Receipt cannot be confirmed before shipment.
	resp = doRequest(t, app, "POST", "/api/purchases/1/receive", tokenFor(t, buyer), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The buyer cannot ship, the seller does.
	resp = doRequest(t, app, "POST", "/api/purchases/1/ship", tokenFor(t, buyer), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// A third party touches nothing.
	resp = doRequest(t, app, "POST", "/api/purchases/1/ship", tokenFor(t, outsider), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, "POST", "/api/purchases/1/ship", tokenFor(t, seller), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Cancel is only available while pending.
	resp = doRequest(t, app, "POST", "/api/purchases/1/cancel", tokenFor(t, buyer), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, "POST", "/api/purchases/1/receive", tokenFor(t, buyer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Delivered is terminal.
	resp = doRequest(t, app, "POST", "/api/purchases/1/ship", tokenFor(t, seller), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestGetItemPurchaseViews(t *testing.T) {
	app, db := newTestApp(t)

	seller := createUser(t, db, "seller", 0)
	buyer := createUser(t, db, "buyer", 0)
	outsider := createUser(t, db, "outsider", 0)
	createItem(t, db, seller, 1000, nil)

	// Before any purchase the buyer sees the purchase action.
	resp := doRequest(t, app, "GET", "/api/items/1/purchase", tokenFor(t, buyer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "third_party", body["role"])
	assert.Equal(t, []any{"purchase"}, body["actions"])
	assert.Equal(t, false, body["sold"])

	// The seller never does.
	resp = doRequest(t, app, "GET", "/api/items/1/purchase", tokenFor(t, seller), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "seller", body["role"])
	assert.Empty(t, body["actions"])

	resp = doRequest(t, app, "POST", "/api/items/1/purchase", tokenFor(t, buyer), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// The buyer sees the purchase row and the cancel action.
	resp = doRequest(t, app, "GET", "/api/items/1/purchase", tokenFor(t, buyer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "buyer", body["role"])
	assert.Equal(t, []any{"cancel"}, body["actions"])
	assert.Equal(t, "pending", body["badge"])
	assert.Equal(t, true, body["sold"])
	require.Contains(t, body, "data")

	// The seller sees the row and the ship action.
	resp = doRequest(t, app, "GET", "/api/items/1/purchase", tokenFor(t, seller), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "seller", body["role"])
	assert.Equal(t, []any{"ship"}, body["actions"])
	require.Contains(t, body, "data")

	// An outsider gets the badge but not the purchase row.
	resp = doRequest(t, app, "GET", "/api/items/1/purchase", tokenFor(t, outsider), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "third_party", body["role"])
	assert.Empty(t, body["actions"])
	assert.Equal(t, true, body["sold"])
	assert.NotContains(t, body, "data")

	// Anonymous viewers see the badge only.
	resp = doRequest(t, app, "GET", "/api/items/1/purchase", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "anonymous", body["role"])
	assert.Empty(t, body["actions"])
	assert.NotContains(t, body, "data")
}

func TestMyPurchasesAndSales(t *testing.T) {
	app, db := newTestApp(t)

	seller := createUser(t, db, "seller", 0)
	buyer := createUser(t, db, "buyer", 0)
	createItem(t, db, seller, 1000, nil)
	createItem(t, db, seller, 2000, nil)

	for _, id := range []string{"1", "2"} {
		resp := doRequest(t, app, "POST", "/api/items/"+id+"/purchase", tokenFor(t, buyer), nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doRequest(t, app, "GET", "/api/me/purchases", tokenFor(t, buyer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Len(t, body["data"], 2)

	resp = doRequest(t, app, "GET", "/api/me/sales", tokenFor(t, seller), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Len(t, body["data"], 2)

	// The buyer has no sales.
	resp = doRequest(t, app, "GET", "/api/me/sales", tokenFor(t, buyer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Empty(t, body["data"])
}
