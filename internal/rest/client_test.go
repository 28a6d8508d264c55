package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feirahq/feirachat/internal/state"
)

func testServer(t *testing.T) (*Client, *http.ServeMux) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok-abc"), mux
}

func TestListConversations(t *testing.T) {
	c, mux := testServer(t)
	mux.HandleFunc("GET /conversations", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		_ = json.NewEncoder(w).Encode([]state.Conversation{
			{CounterpartID: 7, CounterpartName: "Ana", UnreadCount: 2, LastMessageAt: 1000},
		})
	})

	convs, err := c.ListConversations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 || convs[0].CounterpartID != 7 || convs[0].UnreadCount != 2 {
		t.Errorf("convs = %+v, want one conversation for 7 with unread 2", convs)
	}
}

func TestMessages(t *testing.T) {
	c, mux := testServer(t)
	mux.HandleFunc("GET /conversations/7/messages", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"messages": [
				{"id": 10, "senderId": 7, "receiverId": 1, "content": "hi", "createdAt": 1000}
			],
			"counterpart": {"id": 7, "name": "Ana"}
		}`))
	})

	page, err := c.Messages(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if page.Counterpart.Name != "Ana" {
		t.Errorf("counterpart name = %q, want Ana", page.Counterpart.Name)
	}
	if len(page.Messages) != 1 || page.Messages[0].Content != "hi" {
		t.Errorf("messages = %+v, want single 'hi'", page.Messages)
	}
}

func TestMarkRead(t *testing.T) {
	c, mux := testServer(t)
	called := false
	mux.HandleFunc("POST /conversations/7/read", func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.MarkRead(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("read report never reached the backend")
	}
}

func TestItemDetail(t *testing.T) {
	c, mux := testServer(t)
	mux.HandleFunc("GET /items/9/detail", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(state.ItemSnapshot{
			ID: 9, Kind: state.ItemSale, Title: "city bike", Price: 12000, OwnerID: 7,
		})
	})

	snap, err := c.ItemDetail(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Kind != state.ItemSale || snap.Title != "city bike" {
		t.Errorf("snapshot = %+v, want sale 'city bike'", snap)
	}
}

func TestPlaceOrder(t *testing.T) {
	c, mux := testServer(t)
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode order body: %v", err)
		}
		if body["itemId"] != 9 {
			t.Errorf("itemId = %d, want 9", body["itemId"])
		}
		_ = json.NewEncoder(w).Encode(OrderConfirmation{OrderID: 501, ItemID: 9})
	})

	conf, err := c.PlaceOrder(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	if conf.OrderID != 501 {
		t.Errorf("orderId = %d, want 501", conf.OrderID)
	}
}

func TestNonSuccessStatus(t *testing.T) {
	c, mux := testServer(t)
	mux.HandleFunc("GET /conversations", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})

	if _, err := c.ListConversations(context.Background()); err == nil {
		t.Error("expected error for 502 response")
	}
}
