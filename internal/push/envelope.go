package push

import (
	"encoding/json"
	"fmt"

	"github.com/feirahq/feirachat/internal/state"
)

// Inbound is a parsed server-to-client frame. The closed set of
// implementations below is matched exhaustively by the engine.
type Inbound interface {
	inbound()
}

// MessageEvent carries a chat message delivered over the channel.
type MessageEvent struct {
	Message state.Message
}

// SummaryEvent carries a server-declared conversation summary, sent when
// shared state changed outside this client (e.g. messages read elsewhere).
type SummaryEvent struct {
	Summary state.Conversation
}

// ErrorEvent carries a server-reported channel error.
type ErrorEvent struct {
	Message string
}

func (MessageEvent) inbound() {}
func (SummaryEvent) inbound() {}
func (ErrorEvent) inbound()   {}

const (
	kindMessage = "message"
	kindSummary = "conversation-summary-update"
	kindError   = "error"
)

type envelope struct {
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// ParseInbound decodes a server frame into a typed event. Unknown kinds
// return (nil, nil) so newer servers do not break older clients; malformed
// frames return an error and are dropped by the caller.
func ParseInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Kind {
	case kindMessage:
		var msg state.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, fmt.Errorf("decode message frame: %w", err)
		}
		return MessageEvent{Message: msg}, nil
	case kindSummary:
		var summary state.Conversation
		if err := json.Unmarshal(env.Data, &summary); err != nil {
			return nil, fmt.Errorf("decode summary frame: %w", err)
		}
		return SummaryEvent{Summary: summary}, nil
	case kindError:
		return ErrorEvent{Message: env.Message}, nil
	default:
		// Forward-compatible: ignore kinds this client does not know.
		return nil, nil
	}
}

// outboundMessage is the client-to-server send frame.
type outboundMessage struct {
	Kind     string `json:"kind"`
	ToUserID int64  `json:"toUserId"`
	Content  string `json:"content"`
	ItemID   int64  `json:"itemId,omitempty"`
}
