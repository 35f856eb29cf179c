package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"releaf_backend/models"
)

func listedItem(sellerID uint) *models.Item {
	return &models.Item{ID: 1, SellerID: sellerID, Price: 5000, Status: models.ItemStatusListed}
}

func TestResolveRole(t *testing.T) {
	item := listedItem(10)
	purchase := &models.Purchase{BuyerID: 20, Status: models.PurchaseStatusPendingShipment}

	assert.Equal(t, RoleAnonymous, ResolveRole(0, item, purchase))
	assert.Equal(t, RoleSeller, ResolveRole(10, item, purchase))
	assert.Equal(t, RoleBuyer, ResolveRole(20, item, purchase))
	assert.Equal(t, RoleThirdParty, ResolveRole(30, item, purchase))
	assert.Equal(t, RoleThirdParty, ResolveRole(20, item, nil), "buyer without purchase is a third party")
}

func TestEligibleActions_NoPurchase(t *testing.T) {
	for _, status := range []models.ItemStatus{models.ItemStatusListed, models.ItemStatusPaused} {
		item := listedItem(10)
		item.Status = status

		assert.True(t, EligibleActions(item, nil, RoleThirdParty).Has(ActionPurchase),
			"non-seller viewer can purchase a %s item", status)
		assert.False(t, EligibleActions(item, nil, RoleSeller).Has(ActionPurchase),
			"seller never purchases their own item")
		assert.Empty(t, EligibleActions(item, nil, RoleAnonymous).List())
	}
}

func TestEligibleActions_SoldItemBlocksPurchase(t *testing.T) {
	item := listedItem(10)
	item.Status = models.ItemStatusSold

	assert.False(t, EligibleActions(item, nil, RoleThirdParty).Has(ActionPurchase))
	assert.Equal(t, "sold", Badge(item.Status, nil))
}

func TestEligibleActions_PendingShipment(t *testing.T) {
	item := listedItem(10)
	item.Status = models.ItemStatusInTransaction
	purchase := &models.Purchase{BuyerID: 20, Status: models.PurchaseStatusPendingShipment}

	assert.True(t, EligibleActions(item, purchase, RoleSeller).Has(ActionShip))
	assert.True(t, EligibleActions(item, purchase, RoleBuyer).Has(ActionCancel))
	assert.False(t, EligibleActions(item, purchase, RoleBuyer).Has(ActionShip))

	third := EligibleActions(item, purchase, RoleThirdParty)
	assert.False(t, third.Has(ActionShip))
	assert.False(t, third.Has(ActionCancel))
	assert.False(t, third.Has(ActionPurchase))
}

func TestEligibleActions_Shipped(t *testing.T) {
	item := listedItem(10)
	item.Status = models.ItemStatusInTransaction
	purchase := &models.Purchase{BuyerID: 20, Status: models.PurchaseStatusShipped}

	assert.True(t, EligibleActions(item, purchase, RoleBuyer).Has(ActionConfirmReceipt))
	assert.Empty(t, EligibleActions(item, purchase, RoleSeller).List())
}

func TestEligibleActions_DeliveredIsTerminal(t *testing.T) {
	item := listedItem(10)
	item.Status = models.ItemStatusSold
	purchase := &models.Purchase{BuyerID: 20, Status: models.PurchaseStatusDelivered}

	assert.Empty(t, EligibleActions(item, purchase, RoleBuyer).List())
	assert.Empty(t, EligibleActions(item, purchase, RoleSeller).List())
	assert.Equal(t, "delivered", Badge(item.Status, purchase))
}

func TestEligibleActions_CanceledReopensPurchase(t *testing.T) {
	// The item row may still say sold right after a cancel; the explicit
	// canceled purchase must win for action gating.
	item := listedItem(10)
	item.Status = models.ItemStatusSold
	purchase := &models.Purchase{BuyerID: 20, Status: models.PurchaseStatusCanceled}

	actions := EligibleActions(item, purchase, RoleThirdParty)
	assert.True(t, actions.Has(ActionPurchase), "canceled purchase does not lock the item")
	assert.True(t, EligibleActions(item, purchase, RoleBuyer).Has(ActionPurchase),
		"the previous buyer may buy again")
	assert.False(t, EligibleActions(item, purchase, RoleSeller).Has(ActionPurchase))
	assert.False(t, SoldForDisplay(item.Status, purchase))
}

func TestBadge(t *testing.T) {
	item := listedItem(10)
	assert.Equal(t, "", Badge(item.Status, nil))
	assert.Equal(t, "pending", Badge(item.Status, &models.Purchase{Status: models.PurchaseStatusPendingShipment}))
	assert.Equal(t, "shipped", Badge(item.Status, &models.Purchase{Status: models.PurchaseStatusShipped}))
	assert.Equal(t, "canceled", Badge(models.ItemStatusSold, &models.Purchase{Status: models.PurchaseStatusCanceled}))
	assert.Equal(t, "sold", Badge(models.ItemStatusInTransaction, nil))
}

func TestClampPoints(t *testing.T) {
	tests := []struct {
		name       string
		requested  int
		price      int
		wantUsed   int
		wantPay    int
	}{
		{"partial", 2000, 5000, 2000, 3000},
		{"exceeds price", 9000, 5000, 5000, 0},
		{"negative", -50, 5000, 0, 5000},
		{"zero", 0, 5000, 0, 5000},
		{"exact", 5000, 5000, 5000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			used, pay := ClampPoints(tt.requested, tt.price)
			assert.Equal(t, tt.wantUsed, used)
			assert.Equal(t, tt.wantPay, pay)
		})
	}
}
