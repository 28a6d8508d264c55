package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/feirahq/feirachat/internal/bus"
	"github.com/feirahq/feirachat/internal/status"
	"go.uber.org/zap"
)

// ErrNotReady is returned by Send when the channel is not connected.
// Callers must surface it; nothing is queued.
var ErrNotReady = errors.New("push: channel not ready")

// Adapter owns the persistent WebSocket to the marketplace backend. It
// parses inbound envelopes and publishes typed events on the bus; the engine
// subscribes independently. No reconnect policy lives here: a dropped
// channel stays Disconnected until the embedder calls Connect again.
type Adapter struct {
	url     string
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewAdapter creates a push adapter for the given WebSocket URL.
func NewAdapter(pushURL string, machine *status.Machine, b *bus.Bus, logger *zap.Logger) *Adapter {
	return &Adapter{
		url:     pushURL,
		machine: machine,
		bus:     b,
		logger:  logger,
	}
}

// State returns the current channel state.
func (a *Adapter) State() status.State {
	return a.machine.Current()
}

// Connect dials the channel, authenticating with the token as a query
// parameter. A failed dial lands back in Disconnected; the error is returned
// for logging but the adapter stays usable for a later attempt.
func (a *Adapter) Connect(ctx context.Context, authToken string) error {
	if err := a.machine.Transition(status.Connecting); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	u, err := url.Parse(a.url)
	if err != nil {
		_ = a.machine.Transition(status.Disconnected)
		return fmt.Errorf("parse push url: %w", err)
	}
	q := u.Query()
	q.Set("token", authToken)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		_ = a.machine.Transition(status.Disconnected)
		return fmt.Errorf("dial push channel: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	_ = a.machine.Transition(status.Connected)
	a.bus.Publish(bus.NewEvent("push.connected", nil))
	go a.readLoop(conn)
	return nil
}

// SendMessage writes a message frame. Fails fast with ErrNotReady when the
// channel is not connected.
func (a *Adapter) SendMessage(ctx context.Context, toUserID int64, content string, itemID int64) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()

	if a.machine.Current() != status.Connected || conn == nil {
		return ErrNotReady
	}

	data, err := json.Marshal(outboundMessage{
		Kind:     kindMessage,
		ToUserID: toUserID,
		Content:  content,
		ItemID:   itemID,
	})
	if err != nil {
		return fmt.Errorf("encode message frame: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("write message frame: %w", err)
	}
	return nil
}

// Close tears the channel down.
func (a *Adapter) Close() {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "client shutdown")
	}
}

func (a *Adapter) readLoop(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			a.logger.Warn("push channel closed", zap.Error(err))
			a.mu.Lock()
			if a.conn == conn {
				a.conn = nil
			}
			a.mu.Unlock()
			_ = a.machine.Transition(status.Disconnected)
			a.bus.Publish(bus.NewEvent("push.disconnected", nil))
			return
		}
		a.dispatch(data)
	}
}

func (a *Adapter) dispatch(data []byte) {
	evt, err := ParseInbound(data)
	if err != nil {
		// Malformed frames are dropped; they must not take down the pipeline.
		a.logger.Warn("dropping malformed push frame", zap.Error(err))
		return
	}
	switch evt := evt.(type) {
	case MessageEvent:
		a.bus.Publish(bus.NewEvent("push.message", evt))
	case SummaryEvent:
		a.bus.Publish(bus.NewEvent("push.summary", evt))
	case ErrorEvent:
		a.logger.Error("push channel error frame", zap.String("message", evt.Message))
		a.bus.Publish(bus.NewEvent("push.error", evt))
	case nil:
		// Unknown kind, ignored.
	}
}
