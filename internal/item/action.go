package item

import "github.com/feirahq/feirachat/internal/state"

// Action is the quick-action affordance shown for a conversation's item.
type Action string

const (
	ActionNone  Action = ""
	ActionBuy   Action = "buy"
	ActionOffer Action = "offer"
)

// QuickAction maps a snapshot to the affordance it supports: sale listings
// can be bought outright, acquire listings can receive an offer to sell.
// Help and lost-and-found threads carry no transaction.
func QuickAction(snap *state.ItemSnapshot) Action {
	if snap == nil || snap.Unavailable {
		return ActionNone
	}
	switch snap.Kind {
	case state.ItemSale:
		return ActionBuy
	case state.ItemAcquire:
		return ActionOffer
	default:
		return ActionNone
	}
}
