package client

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devprozorov/unicorn/credstore/memory"
	"github.com/devprozorov/unicorn/internal/apitest"
)

func newTestClient(t *testing.T, srv *apitest.Server, opts ...Option) *Client {
	t.Helper()
	opts = append(opts, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

type resourceResponse struct {
	OK    bool   `json:"ok"`
	Value string `json:"value"`
}

func TestBearerAttached(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw", DisplayName: "Alice"})
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	var res resourceResponse
	require.NoError(t, c.do(ctx, "GET", "/resource", nil, &res))
	require.Equal(t, "hello Alice", res.Value)
	require.Equal(t, 0, srv.RefreshCalls())
}

func TestRetryAfterRefresh(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw", DisplayName: "Alice"})
	c := newTestClient(t, srv)
	ctx := context.Background()

	login, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	srv.InvalidateAccessTokens()

	var res resourceResponse
	require.NoError(t, c.do(ctx, "GET", "/resource", nil, &res))
	require.Equal(t, "hello Alice", res.Value)

	require.Equal(t, 1, srv.RefreshCalls())
	require.NotEqual(t, login.AccessToken, c.session.AccessToken())

	stats := c.Stats()
	require.Equal(t, uint64(1), stats.Refreshes)
	require.Equal(t, uint64(1), stats.Retries)
	require.Zero(t, stats.SessionExpiries)
}

func TestConcurrentCallersShareOneRefresh(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw", DisplayName: "Alice"})
	srv.SetRefreshDelay(150 * time.Millisecond)
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	srv.InvalidateAccessTokens()

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var res resourceResponse
			errs[i] = c.do(ctx, "GET", "/resource", nil, &res)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}
	require.Equal(t, 1, srv.RefreshCalls())
}

func TestRefreshDeniedExpiresSessionOnce(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw", DisplayName: "Alice"})

	var expirations atomic.Int32
	c := newTestClient(t, srv, WithSessionExpiredHook(func() {
		expirations.Add(1)
	}))
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	srv.InvalidateAccessTokens()
	srv.SetFailRefresh(true)

	var res resourceResponse
	err = c.do(ctx, "GET", "/resource", nil, &res)
	require.ErrorIs(t, err, ErrAuthExpired)
	require.Empty(t, c.session.AccessToken())
	require.Nil(t, c.session.Identity())
	require.Equal(t, int32(1), expirations.Load())

	// With the session already cleared no token is attached, so the
	// next call is a plain 401 and the hook stays at one firing.
	err = c.do(ctx, "GET", "/resource", nil, &res)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, 401, reqErr.Status)
	require.Equal(t, int32(1), expirations.Load())
	require.Equal(t, uint64(1), c.Stats().SessionExpiries)
}

func TestPersistedTokenFallback(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw", DisplayName: "Alice"})

	store := memory.New()
	var expirations atomic.Int32
	c := newTestClient(t, srv,
		WithCredentialStore(store),
		WithSessionExpiredHook(func() { expirations.Add(1) }),
	)
	ctx := context.Background()

	login, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	// Another process refreshed and wrote its token to the shared
	// slot; our own token and refresh path are dead.
	sibling := srv.IssueToken("alice")
	require.NoError(t, store.Save(ctx, sibling))
	srv.RevokeToken(login.AccessToken)
	srv.SetFailRefresh(true)

	var res resourceResponse
	require.NoError(t, c.do(ctx, "GET", "/resource", nil, &res))
	require.Equal(t, "hello Alice", res.Value)
	require.Equal(t, sibling, c.session.AccessToken())
	require.Zero(t, expirations.Load())
}

func TestNoRefreshOnForbidden(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw", DisplayName: "Alice", StepUpRequired: true})
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	var res resourceResponse
	err = c.do(ctx, "GET", "/resource", nil, &res)
	require.ErrorIs(t, err, ErrMFARequired)
	require.Equal(t, 0, srv.RefreshCalls())
	require.NotEmpty(t, c.session.AccessToken())
}

func TestRequestErrorCarriesStatusAndCode(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(apitest.User{Login: "alice", Password: "pw"})
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "wrong")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, 401, reqErr.Status)
	require.Equal(t, "invalid_credentials", reqErr.Code)
	require.NotErrorIs(t, err, ErrMFARequired)
}
