package status

import (
	"testing"

	"github.com/feirahq/feirachat/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Disconnected {
		t.Errorf("initial state = %s, want DISCONNECTED", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Disconnected, Connecting},
		{Disconnected, Disconnected},
		{Connecting, Connected},
		{Connecting, Disconnected},
		{Connected, Disconnected},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Connected); err == nil {
		t.Error("Transition(DISCONNECTED -> CONNECTED) should fail; must go through CONNECTING")
	}
	if m.Current() != Disconnected {
		t.Errorf("state = %s, want DISCONNECTED (should not have changed)", m.Current())
	}
}

func TestConnectedIsNotReentrant(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Connected)
	if err := m.Transition(Connected); err == nil {
		t.Error("Transition(CONNECTED -> CONNECTED) should fail")
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("push.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Connecting); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != "push.status_changed" {
		t.Errorf("event kind = %q, want push.status_changed", evt.Kind)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Disconnected || change.To != Connecting {
		t.Errorf("change = %v -> %v, want DISCONNECTED -> CONNECTING", change.From, change.To)
	}
}

func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	switch target {
	case Disconnected:
		// Initial state.
	case Connecting:
		if err := m.Transition(Connecting); err != nil {
			t.Fatal(err)
		}
	case Connected:
		if err := m.Transition(Connecting); err != nil {
			t.Fatal(err)
		}
		if err := m.Transition(Connected); err != nil {
			t.Fatal(err)
		}
	}
}
