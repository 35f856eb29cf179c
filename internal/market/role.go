// Package market holds the purchase-lifecycle rules shared by the HTTP
// handlers and the websocket hub: viewer roles, action eligibility, tree
// point rewards, reply-thread reconstruction and unread reconciliation.
// Everything here is a pure function over fetched snapshots; no I/O.
package market

import "releaf_backend/models"

// Role is the viewer's relationship to an item and its purchase.
type Role string

const (
	RoleAnonymous  Role = "anonymous"
	RoleSeller     Role = "seller"
	RoleBuyer      Role = "buyer"
	RoleThirdParty Role = "third_party"
)

// ResolveRole classifies the viewer. A zero viewerID means no
// authenticated user; purchase may be nil when the item has never been
// bought (or only canceled purchases exist and the caller dropped them).
func ResolveRole(viewerID uint, item *models.Item, purchase *models.Purchase) Role {
	if viewerID == 0 {
		return RoleAnonymous
	}
	if item != nil && viewerID == item.SellerID {
		return RoleSeller
	}
	if purchase != nil && viewerID == purchase.BuyerID {
		return RoleBuyer
	}
	return RoleThirdParty
}
