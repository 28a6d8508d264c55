// Package engine reconciles three event sources into one conversation view:
// REST snapshot fetches, the live push channel, and local user actions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/feirahq/feirachat/internal/bus"
	"github.com/feirahq/feirachat/internal/state"
	"github.com/feirahq/feirachat/internal/status"
	"github.com/feirahq/feirachat/internal/store"
	"go.uber.org/zap"
)

// ErrNoActiveConversation is returned by Send when nothing is selected.
var ErrNoActiveConversation = errors.New("engine: no active conversation")

// History is a fetched conversation history with the resolved counterpart.
type History struct {
	Messages        []state.Message
	CounterpartID   int64
	CounterpartName string
}

// Backend is the REST surface the engine consumes.
type Backend interface {
	ListConversations(ctx context.Context) ([]state.Conversation, error)
	History(ctx context.Context, counterpartID int64) (*History, error)
	MarkRead(ctx context.Context, counterpartID int64) error
	PlaceOrder(ctx context.Context, itemID int64) (orderID int64, err error)
}

// Channel is the push channel surface the engine consumes.
type Channel interface {
	Connect(ctx context.Context, authToken string) error
	SendMessage(ctx context.Context, toUserID int64, content string, itemID int64) error
	State() status.State
}

// Items resolves listing snapshots, memoized per session.
type Items interface {
	Resolve(ctx context.Context, itemID int64) (*state.ItemSnapshot, error)
}

// Config carries the local identity the engine acts as.
type Config struct {
	UserID    int64
	AuthToken string
}

// Engine owns the conversation view. All state mutation is serialized by one
// mutex; network calls are never made while it is held.
type Engine struct {
	cfg     Config
	backend Backend
	channel Channel
	items   Items
	db      *store.DB
	bus     *bus.Bus
	logger  *zap.Logger

	runCtx context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	convs  *state.ConversationStore
	log    *state.MessageLog
	active int64
}

// New creates an engine for the given local user.
func New(cfg Config, backend Backend, channel Channel, items Items, db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		backend: backend,
		channel: channel,
		items:   items,
		db:      db,
		bus:     b,
		logger:  logger,
		runCtx:  context.Background(),
		convs:   state.NewConversationStore(cfg.UserID),
		log:     state.NewMessageLog(),
		active:  state.NoActive,
	}
}

// Start subscribes to inbound push events on the bus.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.runCtx = ctx
	ch, unsub := e.bus.Subscribe("push.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				e.handleEvent(evt)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Activate brings the engine up: inbox snapshot, push channel, pending
// handoff. Each step degrades independently; activation itself never fails.
func (e *Engine) Activate(ctx context.Context) {
	if err := e.Refresh(ctx); err != nil {
		e.logger.Warn("initial inbox load failed, starting empty", zap.Error(err))
	}
	if err := e.channel.Connect(ctx, e.cfg.AuthToken); err != nil {
		e.logger.Warn("push channel unavailable, realtime updates disabled", zap.Error(err))
	}
	e.consumeHandoff(ctx)
}

// Refresh fetches the conversation list and replaces the store. On failure
// the store is left as-is and a transient notice is published; the caller
// retries via explicit user action.
func (e *Engine) Refresh(ctx context.Context) error {
	convs, err := e.backend.ListConversations(ctx)
	if err != nil {
		e.bus.Publish(bus.NewEvent("notice.transient", "could not load conversations"))
		return fmt.Errorf("refresh inbox: %w", err)
	}

	e.mu.Lock()
	e.convs.Replace(convs)
	e.mu.Unlock()

	if err := e.db.SetCheckpoint("inbox.refreshed_at", strconv.FormatInt(time.Now().UnixMilli(), 10)); err != nil {
		e.logger.Warn("failed to record inbox checkpoint", zap.Error(err))
	}
	e.bus.Publish(bus.NewEvent("conversation.updated", nil))
	return nil
}

// Select makes a conversation active: unread is zeroed immediately, the read
// is reported to the backend best-effort, and history is fetched. A history
// response that lands after the selection moved on is discarded.
func (e *Engine) Select(ctx context.Context, counterpartID int64) error {
	e.mu.Lock()
	e.active = counterpartID
	existed := e.convs.MarkRead(counterpartID)
	e.mu.Unlock()
	e.bus.Publish(bus.NewEvent("conversation.updated", nil))

	if existed {
		go e.reportRead(counterpartID)
	}

	page, err := e.backend.History(ctx, counterpartID)
	if err != nil {
		e.bus.Publish(bus.NewEvent("notice.transient", "could not load messages"))
		return fmt.Errorf("load history for %d: %w", counterpartID, err)
	}

	e.mu.Lock()
	if e.active != counterpartID {
		// The user switched conversations while the fetch was in flight.
		// Applying this response would corrupt the visible log.
		e.mu.Unlock()
		return nil
	}
	e.log.Replace(counterpartID, page.Messages)
	e.convs.SetName(counterpartID, page.CounterpartName)
	e.mu.Unlock()

	e.bus.Publish(bus.NewEvent("message.history_loaded", counterpartID))
	return nil
}

// Deselect clears the active conversation and its materialized log.
func (e *Engine) Deselect() {
	e.mu.Lock()
	e.active = state.NoActive
	e.log.Clear()
	e.mu.Unlock()
}

// Send writes a message to the active conversation over the push channel.
// The frame carries the thread's item context when one is attached. There is
// no local echo: the visible message arrives when the server echoes it back.
// Channel errors surface to the caller; nothing is queued.
func (e *Engine) Send(ctx context.Context, content string) error {
	e.mu.Lock()
	to := e.active
	var itemID int64
	if c, ok := e.convs.Get(to); ok && c.Item != nil && !c.Item.Unavailable {
		itemID = c.Item.ID
	}
	e.mu.Unlock()

	if to == state.NoActive {
		return ErrNoActiveConversation
	}
	return e.channel.SendMessage(ctx, to, content, itemID)
}

// PlaceOrder triggers the quick-action order for a listing.
func (e *Engine) PlaceOrder(ctx context.Context, itemID int64) (int64, error) {
	return e.backend.PlaceOrder(ctx, itemID)
}

// Conversations returns the current summaries, most recent activity first.
func (e *Engine) Conversations() []state.Conversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.convs.List()
}

// ActiveID returns the selected counterpart, or state.NoActive.
func (e *Engine) ActiveID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Thread returns the materialized history of the active conversation.
func (e *Engine) Thread() []state.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Messages()
}

// ChannelState exposes the push channel connectivity flag.
func (e *Engine) ChannelState() status.State {
	return e.channel.State()
}

// reportRead tells the backend the conversation was opened. The local reset
// already happened; a failed report is logged, never rolled back.
func (e *Engine) reportRead(counterpartID int64) {
	if err := e.backend.MarkRead(e.runCtx, counterpartID); err != nil {
		e.logger.Warn("read report failed",
			zap.Int64("counterpart_id", counterpartID), zap.Error(err))
	}
}

// consumeHandoff drains the persisted "open this conversation" intent. The
// record is deleted by TakeHandoff before any network call happens, so
// concurrent activation paths cannot consume it twice.
func (e *Engine) consumeHandoff(ctx context.Context) {
	rec, err := e.db.TakeHandoff()
	if err != nil {
		e.logger.Warn("failed to read handoff slot", zap.Error(err))
		return
	}
	if rec == nil {
		return
	}
	e.logger.Info("consuming handoff", zap.Int64("counterpart_id", rec.CounterpartID))

	e.mu.Lock()
	c := e.convs.EnsurePlaceholder(rec.CounterpartID, rec.CounterpartName)
	if rec.Item != nil {
		e.convs.AttachItem(rec.CounterpartID, rec.Item)
	}
	cid := c.CounterpartID
	e.mu.Unlock()
	e.bus.Publish(bus.NewEvent("conversation.updated", nil))
	if rec.Item != nil {
		e.bus.Publish(bus.NewEvent("item.resolved", rec.CounterpartID))
	}

	if err := e.Select(ctx, cid); err != nil {
		// Best-effort: the placeholder stays usable with locally-known
		// fields even when history cannot be fetched.
		e.logger.Warn("handoff history load failed", zap.Error(err))
	}
}
