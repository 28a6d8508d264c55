package state

import "testing"

func TestLogReplaceAndAppend(t *testing.T) {
	l := NewMessageLog()
	l.Replace(7, []Message{
		{SenderID: 7, ReceiverID: 1, Content: "one", CreatedAt: 1},
		{SenderID: 1, ReceiverID: 7, Content: "two", CreatedAt: 2},
	})

	if !l.Append(7, Message{SenderID: 7, ReceiverID: 1, Content: "three", CreatedAt: 3}) {
		t.Fatal("append to materialized conversation should succeed")
	}

	msgs := l.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	for i, want := range []string{"one", "two", "three"} {
		if msgs[i].Content != want {
			t.Errorf("msgs[%d] = %q, want %q (arrival order)", i, msgs[i].Content, want)
		}
	}
}

func TestLogRejectsOtherConversation(t *testing.T) {
	l := NewMessageLog()
	l.Replace(7, nil)

	if l.Append(8, Message{Content: "stray"}) {
		t.Error("append for a different conversation must be rejected")
	}
	if len(l.Messages()) != 0 {
		t.Error("rejected append must not mutate the log")
	}
}

func TestLogAppendWithoutMaterialization(t *testing.T) {
	l := NewMessageLog()
	if l.Append(NoActive, Message{Content: "stray"}) {
		t.Error("append with no materialized conversation must be rejected")
	}
}

func TestLogArrivalOrderNotTimestampOrder(t *testing.T) {
	l := NewMessageLog()
	l.Replace(7, nil)
	// Skewed clock: later arrival carries an earlier timestamp.
	l.Append(7, Message{Content: "a", CreatedAt: 2000})
	l.Append(7, Message{Content: "b", CreatedAt: 1000})

	msgs := l.Messages()
	if msgs[0].Content != "a" || msgs[1].Content != "b" {
		t.Error("log must preserve arrival order, not re-sort by timestamp")
	}
}

func TestLogClear(t *testing.T) {
	l := NewMessageLog()
	l.Replace(7, []Message{{Content: "one"}})
	l.Clear()

	if l.CounterpartID() != NoActive {
		t.Errorf("counterpart after Clear = %d, want NoActive", l.CounterpartID())
	}
	if len(l.Messages()) != 0 {
		t.Error("messages should be empty after Clear")
	}
}
