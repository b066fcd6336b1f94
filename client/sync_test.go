package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devprozorov/unicorn/credstore/memory"
	"github.com/devprozorov/unicorn/internal/apitest"
)

const syncInterval = 20 * time.Millisecond

func TestSyncAdoptsExternalToken(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw", DisplayName: "Alice"})

	store := memory.New()
	c := newTestClient(t, srv, WithCredentialStore(store))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartSync(ctx, syncInterval)

	tok := srv.IssueToken("alice")
	require.NoError(t, store.Save(ctx, tok))

	require.Eventually(t, func() bool {
		return c.session.AccessToken() == tok && c.session.Identity() != nil
	}, 3*time.Second, 10*time.Millisecond)
	require.Equal(t, "Alice", c.session.Identity().DisplayName)
}

func TestSyncExternalLogout(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw", DisplayName: "Alice"})

	store := memory.New()
	c := newTestClient(t, srv, WithCredentialStore(store))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	c.StartSync(ctx, syncInterval)

	require.NoError(t, store.Clear(ctx))

	require.Eventually(t, func() bool {
		return c.session.AccessToken() == ""
	}, 3*time.Second, 10*time.Millisecond)
	require.Nil(t, c.session.Identity())
}

func TestSyncWithoutStoreIsNoop(t *testing.T) {
	srv := apitest.New(t)
	c := newTestClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	c.StartSync(ctx, syncInterval)
	cancel()
}
