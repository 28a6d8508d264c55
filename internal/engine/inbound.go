package engine

import (
	"github.com/feirahq/feirachat/internal/bus"
	"github.com/feirahq/feirachat/internal/push"
	"github.com/feirahq/feirachat/internal/state"
	"go.uber.org/zap"
)

func (e *Engine) handleEvent(evt bus.Event) {
	switch evt.Kind {
	case "push.message":
		ev, ok := evt.Payload.(push.MessageEvent)
		if !ok {
			return
		}
		e.handleInbound(ev.Message)
	case "push.summary":
		ev, ok := evt.Payload.(push.SummaryEvent)
		if !ok {
			return
		}
		e.mu.Lock()
		e.convs.UpsertFromPush(ev.Summary)
		e.mu.Unlock()
		e.bus.Publish(bus.NewEvent("conversation.updated", nil))
	case "push.error":
		// Already logged by the adapter; the view is unaffected.
	case "push.disconnected":
		e.logger.Warn("push channel dropped; awaiting reconnect policy of the embedder")
	}
}

// handleInbound routes a pushed message: the summary list always updates,
// the visible log only when the message belongs to the active conversation.
func (e *Engine) handleInbound(msg state.Message) {
	e.mu.Lock()
	c := e.convs.UpsertFromIncoming(&msg, e.active)
	cid := c.CounterpartID
	appended := false
	if cid == e.active {
		appended = e.log.Append(cid, msg)
	}
	e.mu.Unlock()

	e.bus.Publish(bus.NewEvent("conversation.updated", nil))
	if appended {
		e.bus.Publish(bus.NewEvent("message.appended", msg))
	}

	if msg.ItemID != 0 {
		go e.resolveItemContext(cid, msg.ItemID)
	}
}

// resolveItemContext fetches the referenced listing and pins it to the
// conversation. The visible item context is only refreshed if that
// conversation is still the active one when resolution completes.
func (e *Engine) resolveItemContext(counterpartID, itemID int64) {
	snap, err := e.items.Resolve(e.runCtx, itemID)
	if err != nil {
		e.logger.Warn("item context resolution cancelled",
			zap.Int64("item_id", itemID), zap.Error(err))
		return
	}

	e.mu.Lock()
	e.convs.AttachItem(counterpartID, snap)
	stillActive := e.active == counterpartID
	e.mu.Unlock()

	if stillActive {
		e.bus.Publish(bus.NewEvent("item.resolved", counterpartID))
	}
}
