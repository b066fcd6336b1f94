package client

import (
	"context"
	"time"

	"github.com/devprozorov/unicorn/credstore"
	"github.com/devprozorov/unicorn/token"
)

// Bootstrap seeds the session at startup: restore a usable persisted
// token, otherwise try one silent refresh on the ambient cookie,
// otherwise stay anonymous. It never surfaces an error and always
// leaves the session initialized, so gating logic can proceed.
//
// Run it before the application becomes interactive.
func (c *Client) Bootstrap(ctx context.Context) {
	defer c.session.MarkInitialized()

	if c.session.AccessToken() == "" {
		c.restorePersisted(ctx)
	}

	if c.session.AccessToken() != "" {
		if err := c.session.Init(ctx); err != nil {
			c.logger.Warn("bootstrap identity load failed", "error", err)
		}
		return
	}

	fresh, err := c.Refresh(ctx)
	if err != nil {
		// Quiet: an absent or stale cookie just means guest.
		c.logger.Debug("silent refresh failed; starting anonymous", "error", err)
		return
	}
	c.setToken(ctx, fresh)
	if err := c.session.Init(ctx); err != nil {
		c.logger.Warn("bootstrap identity load failed", "error", err)
	}
}

// restorePersisted adopts the persisted token when its embedded expiry
// has not passed; an expired or undecodable token is discarded so the
// next start does not trip over it again.
func (c *Client) restorePersisted(ctx context.Context) {
	persisted := c.session.Tokens().Persisted(ctx)
	if persisted == "" {
		return
	}
	claims, err := token.Decode(persisted)
	if err != nil || claims.Expired(time.Now()) {
		c.logger.Debug("discarding unusable persisted token", "error", err)
		if c.store != nil {
			if cerr := c.store.Clear(ctx); cerr != nil {
				c.logger.Warn("clearing stale persisted token failed", "error", cerr)
			}
		}
		return
	}
	c.session.ReconcileExternal(ctx, credstore.Event{Token: persisted, Present: true})
}
