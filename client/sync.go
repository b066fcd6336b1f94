package client

import (
	"context"
	"time"

	"github.com/devprozorov/unicorn/credstore"
)

// StartSync watches the persisted slot for changes made by other
// processes sharing it and reconciles the local session: a new token is
// adopted and its identity reloaded, a cleared slot logs this process
// out without writing the slot again. Returns immediately; watching
// stops when ctx is cancelled.
//
// Synchronization is eventually consistent. Acting on a stale token
// until the next poll is fine: the 401 path heals it.
func (c *Client) StartSync(ctx context.Context, interval time.Duration) {
	if c.store == nil {
		return
	}
	events := credstore.Watch(ctx, c.store, interval)
	go func() {
		for ev := range events {
			if !c.session.ReconcileExternal(ctx, ev) {
				continue
			}
			c.expired.Store(false)
			if err := c.session.Init(ctx); err != nil {
				c.logger.Warn("identity load after external token change failed", "error", err)
			}
		}
	}()
}
