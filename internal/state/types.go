package state

// ItemKind classifies a marketplace listing.
type ItemKind string

const (
	ItemSale      ItemKind = "sale"
	ItemAcquire   ItemKind = "acquire"
	ItemHelp      ItemKind = "help"
	ItemLostFound ItemKind = "lostfound"
)

// ItemSnapshot is a denormalized summary of a listing attached to a
// conversation. Immutable once cached.
type ItemSnapshot struct {
	ID       int64    `json:"id"`
	Kind     ItemKind `json:"kind"`
	Title    string   `json:"title"`
	Price    int64    `json:"price"` // minor units
	ImageURL string   `json:"imageUrl"`
	OwnerID  int64    `json:"ownerId"`

	// Unavailable marks the negative-cache sentinel for a listing whose
	// detail fetch failed this session.
	Unavailable bool `json:"-"`
}

// Conversation is a summary of a one-to-one thread, keyed by the counterpart.
type Conversation struct {
	CounterpartID      int64         `json:"counterpartId"`
	CounterpartName    string        `json:"counterpartName"`
	LastMessagePreview string        `json:"lastMessagePreview"`
	LastMessageAt      int64         `json:"lastMessageAt"` // unix ms
	UnreadCount        int           `json:"unreadCount"`
	Item               *ItemSnapshot `json:"item,omitempty"`
}

// Message is a single chat message. ID is 0 until the backend assigns one.
type Message struct {
	ID         int64  `json:"id"`
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	Content    string `json:"content"`
	CreatedAt  int64  `json:"createdAt"` // unix ms
	ItemID     int64  `json:"itemId,omitempty"`
}

// CounterpartOf returns the party of the message that is not the local user.
func (m *Message) CounterpartOf(localUserID int64) int64 {
	if m.SenderID == localUserID {
		return m.ReceiverID
	}
	return m.SenderID
}

// PendingHandoff is a one-shot "open this conversation" intent written by
// another part of the application and consumed at most once per activation.
type PendingHandoff struct {
	CounterpartID   int64         `json:"counterpartId"`
	CounterpartName string        `json:"counterpartName,omitempty"`
	Item            *ItemSnapshot `json:"item,omitempty"`
}
