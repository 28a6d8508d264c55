package daemon

import (
	"context"

	"github.com/feirahq/feirachat/internal/engine"
	"github.com/feirahq/feirachat/internal/rest"
	"github.com/feirahq/feirachat/internal/state"
)

// restBackend adapts the REST client to the engine's Backend interface.
type restBackend struct {
	c *rest.Client
}

func (b *restBackend) ListConversations(ctx context.Context) ([]state.Conversation, error) {
	return b.c.ListConversations(ctx)
}

func (b *restBackend) History(ctx context.Context, counterpartID int64) (*engine.History, error) {
	page, err := b.c.Messages(ctx, counterpartID)
	if err != nil {
		return nil, err
	}
	return &engine.History{
		Messages:        page.Messages,
		CounterpartID:   page.Counterpart.ID,
		CounterpartName: page.Counterpart.Name,
	}, nil
}

func (b *restBackend) MarkRead(ctx context.Context, counterpartID int64) error {
	return b.c.MarkRead(ctx, counterpartID)
}

func (b *restBackend) PlaceOrder(ctx context.Context, itemID int64) (int64, error) {
	conf, err := b.c.PlaceOrder(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return conf.OrderID, nil
}
