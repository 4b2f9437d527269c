package registry

import (
	"context"

	"github.com/dmitrijs2005/minsend/internal/transmit"
)

// Peer is the transport handle of a connected client. It is used as the
// registry key, so implementations must be comparable.
type Peer interface {
	Deliver(ctx context.Context, t transmit.Transmittable) error
}

// ClientBinder is implemented by peers that need their own Client. BindClient
// runs under the registry lock before the client can be reached by a
// broadcast.
type ClientBinder interface {
	BindClient(c *Client)
}

// Client is one connection of an Identity.
type Client struct {
	peer     Peer
	registry *Registry

	// guarded by registry.mu
	identity *Identity
}

func (c *Client) Peer() Peer { return c.peer }

// Identity returns the identity the client currently belongs to, or nil
// once it has been unregistered.
func (c *Client) Identity() *Identity {
	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()
	return c.identity
}

// Send delivers t to this client only.
func (c *Client) Send(ctx context.Context, t transmit.Transmittable) error {
	return c.peer.Deliver(ctx, t)
}

// Receive fans t out to every other client of the same identity.
func (c *Client) Receive(ctx context.Context, t transmit.Transmittable) BroadcastResult {
	u := c.Identity()
	if u == nil {
		return BroadcastResult{}
	}
	return c.registry.Broadcast(ctx, u, c, t)
}
