package market

import (
	"errors"

	"releaf_backend/models"
)

// Action is a purchase-lifecycle transition a viewer may request.
type Action string

const (
	ActionPurchase       Action = "purchase"
	ActionShip           Action = "ship"
	ActionConfirmReceipt Action = "confirm_receipt"
	ActionCancel         Action = "cancel"
)

// ActionSet is the set of actions enabled for one viewer on one item.
type ActionSet map[Action]bool

func (s ActionSet) Has(a Action) bool { return s[a] }

// List returns the enabled actions in a fixed order, for JSON replies.
func (s ActionSet) List() []Action {
	out := []Action{}
	for _, a := range []Action{ActionPurchase, ActionShip, ActionConfirmReceipt, ActionCancel} {
		if s[a] {
			out = append(out, a)
		}
	}
	return out
}

var (
	// ErrConflict: the purchase no longer permits the requested action,
	// e.g. buying an item that already has an active purchase.
	ErrConflict = errors.New("item already has an active purchase")

	// ErrForbidden: the viewer's role does not permit the action.
	ErrForbidden = errors.New("action not permitted for this user")

	// ErrInsufficientPoints: the buyer asked to spend more points than held.
	ErrInsufficientPoints = errors.New("insufficient points")
)

// SoldForDisplay derives the "sold" badge. An item shows as sold when the
// server marked it sold/in_transaction or an active purchase exists.
// A canceled purchase overrides a stale sold/in_transaction item status:
// the server item row may lag behind the cancel, and the explicit canceled
// purchase is the fresher signal. Only action gating is affected; the
// stored status string is never rewritten locally.
func SoldForDisplay(status models.ItemStatus, purchase *models.Purchase) bool {
	if purchase != nil {
		return purchase.Active()
	}
	return status == models.ItemStatusSold || status == models.ItemStatusInTransaction
}

// EligibleActions combines purchase status, viewer role and item
// visibility into the exact set of enabled transitions.
//
//	(none)           buyer-candidate  purchase         -> pending_shipment
//	pending_shipment seller           ship             -> shipped
//	pending_shipment buyer            cancel           -> canceled
//	shipped          buyer            confirm_receipt  -> delivered
//	delivered        -                (terminal)
//	canceled         buyer-candidate  purchase         -> pending_shipment (new row)
func EligibleActions(item *models.Item, purchase *models.Purchase, role Role) ActionSet {
	actions := ActionSet{}
	if item == nil || role == RoleAnonymous {
		return actions
	}

	if purchase == nil || purchase.Status == models.PurchaseStatusCanceled {
		// No active purchase. Anyone but the seller may buy, provided the
		// item itself is not locked. A canceled purchase re-enables the
		// purchase action even when item.Status lags as sold.
		locked := SoldForDisplay(item.Status, purchase)
		if !locked && role != RoleSeller {
			actions[ActionPurchase] = true
		}
		return actions
	}

	switch purchase.Status {
	case models.PurchaseStatusPendingShipment:
		if role == RoleSeller {
			actions[ActionShip] = true
		}
		if role == RoleBuyer {
			actions[ActionCancel] = true
		}
	case models.PurchaseStatusShipped:
		if role == RoleBuyer {
			actions[ActionConfirmReceipt] = true
		}
	case models.PurchaseStatusDelivered:
		// terminal
	}
	return actions
}

// Badge returns the user-facing status badge for an item/purchase pair,
// or "" when the item is plainly purchasable.
func Badge(status models.ItemStatus, purchase *models.Purchase) string {
	if purchase != nil {
		switch purchase.Status {
		case models.PurchaseStatusPendingShipment:
			return "pending"
		case models.PurchaseStatusShipped:
			return "shipped"
		case models.PurchaseStatusDelivered:
			return "delivered"
		case models.PurchaseStatusCanceled:
			return "canceled"
		}
	}
	if SoldForDisplay(status, purchase) {
		return "sold"
	}
	return ""
}

// ClampPoints normalizes a requested point spend against the item price:
// pointsUsed is clamped into [0, price] and payable = price - pointsUsed,
// never negative.
func ClampPoints(requested, price int) (pointsUsed, payable int) {
	if requested < 0 {
		requested = 0
	}
	if requested > price {
		requested = price
	}
	payable = price - requested
	if payable < 0 {
		payable = 0
	}
	return requested, payable
}
