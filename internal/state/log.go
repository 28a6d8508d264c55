package state

// MessageLog materializes history for at most one conversation at a time:
// the one the user is viewing. Pushes for other conversations are absorbed
// by the ConversationStore only, which bounds memory.
//
// Ordering is arrival order. Messages are never re-sorted by timestamp, so
// clock skew between parties cannot reorder a visible thread.
type MessageLog struct {
	counterpartID int64
	msgs          []Message
}

// NewMessageLog creates an empty log with no conversation materialized.
func NewMessageLog() *MessageLog {
	return &MessageLog{counterpartID: NoActive}
}

// CounterpartID returns the conversation the log currently holds, or NoActive.
func (l *MessageLog) CounterpartID() int64 {
	return l.counterpartID
}

// Replace swaps the log contents with freshly fetched history for the given
// conversation, discarding whatever was materialized before.
func (l *MessageLog) Replace(counterpartID int64, msgs []Message) {
	l.counterpartID = counterpartID
	l.msgs = append(l.msgs[:0], msgs...)
}

// Append adds a message if it belongs to the materialized conversation.
// Returns false when the message targets a different conversation.
func (l *MessageLog) Append(counterpartID int64, msg Message) bool {
	if counterpartID != l.counterpartID || l.counterpartID == NoActive {
		return false
	}
	l.msgs = append(l.msgs, msg)
	return true
}

// Messages returns a copy of the materialized history in arrival order.
func (l *MessageLog) Messages() []Message {
	out := make([]Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// Clear drops the materialized history, e.g. when the selection is cleared.
func (l *MessageLog) Clear() {
	l.counterpartID = NoActive
	l.msgs = nil
}
