// Package rest is the client for the marketplace backend's HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/feirahq/feirachat/internal/state"
)

// Counterpart identifies the other party of a conversation.
type Counterpart struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// HistoryPage is the response of a full history fetch.
type HistoryPage struct {
	Messages    []state.Message `json:"messages"`
	Counterpart Counterpart     `json:"counterpart"`
}

// OrderConfirmation is the backend's acknowledgement of a quick-action order.
type OrderConfirmation struct {
	OrderID int64 `json:"orderId"`
	ItemID  int64 `json:"itemId"`
}

// Client talks to the marketplace REST API with a bearer token.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// NewClient creates a client for the given base URL and auth token.
func NewClient(baseURL, authToken string) *Client {
	return &Client{
		base:  baseURL,
		token: authToken,
		http:  &http.Client{},
	}
}

// ListConversations fetches the conversation summaries, most recent first.
func (c *Client) ListConversations(ctx context.Context) ([]state.Conversation, error) {
	var convs []state.Conversation
	if err := c.do(ctx, http.MethodGet, "/conversations", nil, &convs); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// Messages fetches the full history for a conversation together with the
// resolved counterpart identity.
func (c *Client) Messages(ctx context.Context, counterpartID int64) (*HistoryPage, error) {
	var page HistoryPage
	path := fmt.Sprintf("/conversations/%d/messages", counterpartID)
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, fmt.Errorf("fetch history for %d: %w", counterpartID, err)
	}
	return &page, nil
}

// MarkRead reports that the local user opened the conversation.
func (c *Client) MarkRead(ctx context.Context, counterpartID int64) error {
	path := fmt.Sprintf("/conversations/%d/read", counterpartID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("report read for %d: %w", counterpartID, err)
	}
	return nil
}

// ItemDetail fetches the denormalized listing summary.
func (c *Client) ItemDetail(ctx context.Context, itemID int64) (*state.ItemSnapshot, error) {
	var snap state.ItemSnapshot
	path := fmt.Sprintf("/items/%d/detail", itemID)
	if err := c.do(ctx, http.MethodGet, path, nil, &snap); err != nil {
		return nil, fmt.Errorf("item detail %d: %w", itemID, err)
	}
	return &snap, nil
}

// PlaceOrder submits a quick-action order for a listing.
func (c *Client) PlaceOrder(ctx context.Context, itemID int64) (*OrderConfirmation, error) {
	body := map[string]int64{"itemId": itemID}
	var conf OrderConfirmation
	if err := c.do(ctx, http.MethodPost, "/orders", body, &conf); err != nil {
		return nil, fmt.Errorf("place order for item %d: %w", itemID, err)
	}
	return &conf, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
