package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/minsend/internal/transmit"
)

type BroadcastResult struct {
	Delivered int
	Failed    int
	Err       error
}

// Broadcast delivers t to every client of identity except sender. The
// sibling set is captured under the lock and delivery happens outside it,
// concurrently. A failing sibling does not stop the others.
func (r *Registry) Broadcast(ctx context.Context, identity *Identity, sender *Client, t transmit.Transmittable) BroadcastResult {
	r.mu.Lock()
	targets := make([]*Client, 0, len(identity.clients))
	for c := range identity.clients {
		if c != sender {
			targets = append(targets, c)
		}
	}
	r.mu.Unlock()

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		res  BroadcastResult
		errs []error
	)

	for _, c := range targets {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			err := c.Send(ctx, t)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failed++
				errs = append(errs, err)
				return
			}
			res.Delivered++
		}(c)
	}
	wg.Wait()

	res.Err = errors.Join(errs...)
	return res
}
