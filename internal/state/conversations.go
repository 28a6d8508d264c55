package state

// NoActive marks "no conversation selected" when passed as an active ID.
const NoActive int64 = 0

// ConversationStore holds conversation summaries ordered by most recent
// activity first. It is not safe for concurrent use; the engine serializes
// all mutation.
type ConversationStore struct {
	localUserID int64
	order       []*Conversation
	index       map[int64]*Conversation
}

// NewConversationStore creates an empty store for the given local user.
func NewConversationStore(localUserID int64) *ConversationStore {
	return &ConversationStore{
		localUserID: localUserID,
		index:       make(map[int64]*Conversation),
	}
}

// Replace swaps the full contents with a freshly fetched snapshot. The
// incoming slice is assumed to already be in recency order.
func (s *ConversationStore) Replace(convs []Conversation) {
	s.order = s.order[:0]
	s.index = make(map[int64]*Conversation, len(convs))
	for i := range convs {
		c := convs[i]
		s.order = append(s.order, &c)
		s.index[c.CounterpartID] = &c
	}
}

// List returns a copy of all conversations, most recent activity first.
func (s *ConversationStore) List() []Conversation {
	out := make([]Conversation, len(s.order))
	for i, c := range s.order {
		out[i] = *c
	}
	return out
}

// Get returns a copy of the conversation for the given counterpart.
func (s *ConversationStore) Get(counterpartID int64) (Conversation, bool) {
	c, ok := s.index[counterpartID]
	if !ok {
		return Conversation{}, false
	}
	return *c, true
}

// Len returns the number of conversations.
func (s *ConversationStore) Len() int {
	return len(s.order)
}

// UpsertFromIncoming applies an incoming or outgoing message to the summary
// list. The conversation identity is the party that is not the local user.
// Unread is incremented only when the local user is the receiver and the
// conversation is not the active one. The entry moves to the front.
func (s *ConversationStore) UpsertFromIncoming(msg *Message, activeID int64) *Conversation {
	id := msg.CounterpartOf(s.localUserID)
	c, ok := s.index[id]
	if !ok {
		c = &Conversation{CounterpartID: id}
		s.index[id] = c
		s.order = append(s.order, c)
	}
	c.LastMessagePreview = truncate(msg.Content, previewLen)
	c.LastMessageAt = msg.CreatedAt
	if msg.ReceiverID == s.localUserID && id != activeID {
		c.UnreadCount++
	}
	s.moveToFront(id)
	return c
}

// UpsertFromPush replaces or creates an entry from a server-declared summary
// and moves it to the front. Used when shared state changed elsewhere, e.g.
// the counterparty read messages on another device.
func (s *ConversationStore) UpsertFromPush(summary Conversation) {
	c, ok := s.index[summary.CounterpartID]
	if !ok {
		c = &Conversation{}
		s.index[summary.CounterpartID] = c
		s.order = append(s.order, c)
	}
	item := summary.Item
	if item == nil {
		// Keep locally resolved item context when the server summary omits it.
		item = c.Item
	}
	*c = summary
	c.Item = item
	s.moveToFront(summary.CounterpartID)
}

// EnsurePlaceholder inserts a zero-message conversation at the front if
// absent, so a freshly started chat is visible before any message exists.
// An existing conversation is returned as-is, keeping its identity and name.
func (s *ConversationStore) EnsurePlaceholder(counterpartID int64, name string) *Conversation {
	if c, ok := s.index[counterpartID]; ok {
		return c
	}
	c := &Conversation{CounterpartID: counterpartID, CounterpartName: name}
	s.index[counterpartID] = c
	s.order = append(s.order, c)
	s.moveToFront(counterpartID)
	return c
}

// MarkRead resets the unread counter to zero. Returns false if the
// conversation does not exist.
func (s *ConversationStore) MarkRead(counterpartID int64) bool {
	c, ok := s.index[counterpartID]
	if !ok {
		return false
	}
	c.UnreadCount = 0
	return true
}

// SetName updates the counterpart display name, e.g. once history resolves
// the real name behind a placeholder.
func (s *ConversationStore) SetName(counterpartID int64, name string) {
	if c, ok := s.index[counterpartID]; ok && name != "" {
		c.CounterpartName = name
	}
}

// AttachItem pins a resolved item snapshot to the conversation so reopening
// it does not require re-resolving.
func (s *ConversationStore) AttachItem(counterpartID int64, item *ItemSnapshot) bool {
	c, ok := s.index[counterpartID]
	if !ok {
		return false
	}
	c.Item = item
	return true
}

const previewLen = 100

func (s *ConversationStore) moveToFront(counterpartID int64) {
	for i, c := range s.order {
		if c.CounterpartID == counterpartID {
			copy(s.order[1:i+1], s.order[:i])
			s.order[0] = c
			return
		}
	}
}

func truncate(str string, maxLen int) string {
	if len(str) <= maxLen {
		return str
	}
	return str[:maxLen]
}
