package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devprozorov/unicorn/credstore"
	"github.com/devprozorov/unicorn/credstore/memory"
)

func mintToken(t *testing.T, sub, typ string, exp time.Time) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": sub,
		"typ": typ,
		"exp": exp.Unix(),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	return raw
}

// countingStore wraps a Store and counts writes, to prove reconcile
// paths do not write back redundantly.
type countingStore struct {
	credstore.Store
	saves  atomic.Int64
	clears atomic.Int64
}

func (c *countingStore) Save(ctx context.Context, token string) error {
	c.saves.Add(1)
	return c.Store.Save(ctx, token)
}

func (c *countingStore) Clear(ctx context.Context) error {
	c.clears.Add(1)
	return c.Store.Clear(ctx)
}

type httpError struct{ status int }

func (e *httpError) Error() string   { return fmt.Sprintf("http %d", e.status) }
func (e *httpError) HTTPStatus() int { return e.status }

func newTestManager(store credstore.Store, profile ProfileFunc) *Manager {
	tokens := NewTokenStore(store, slog.Default())
	return NewManager(tokens, profile, slog.Default())
}

func TestInitGuestIsTerminal(t *testing.T) {
	// Scenario: two callers init with no token set; zero network calls.
	var calls atomic.Int64
	m := newTestManager(nil, func(ctx context.Context) (Identity, error) {
		calls.Add(1)
		return Identity{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, m.Init(context.Background()))
		}()
	}
	wg.Wait()

	assert.True(t, m.Initialized())
	assert.Nil(t, m.Identity())
	assert.EqualValues(t, 0, calls.Load())
}

func TestInitSingleFlight(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	m := newTestManager(nil, func(ctx context.Context) (Identity, error) {
		calls.Add(1)
		<-release
		return Identity{DisplayName: "Ada", AccountType: "user"}, nil
	})
	m.SetAccessToken(context.Background(), mintToken(t, "u-1", "user", time.Now().Add(time.Hour)))

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, m.Init(context.Background()))
		}()
	}
	// Let the goroutines pile onto the in-flight load before releasing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load(), "concurrent Init must share one profile fetch")
	assert.True(t, m.Initialized())

	// Initialized sessions are a no-op.
	require.NoError(t, m.Init(context.Background()))
	assert.EqualValues(t, 1, calls.Load())
}

func TestInitMergesTokenClaims(t *testing.T) {
	m := newTestManager(nil, func(ctx context.Context) (Identity, error) {
		// The profile call omits the identifier, like the real backend.
		return Identity{DisplayName: "Acme Corp", AccountType: ""}, nil
	})
	m.SetAccessToken(context.Background(), mintToken(t, "u-42", "company", time.Now().Add(time.Hour)))

	require.NoError(t, m.Init(context.Background()))
	ident := m.Identity()
	require.NotNil(t, ident)
	assert.Equal(t, "u-42", ident.UserID)
	assert.Equal(t, "company", ident.AccountType)
	assert.Equal(t, "Acme Corp", ident.DisplayName)
}

func TestSetTokenResetsInitialized(t *testing.T) {
	m := newTestManager(nil, func(ctx context.Context) (Identity, error) {
		return Identity{DisplayName: "Ada"}, nil
	})
	tok := mintToken(t, "u-1", "user", time.Now().Add(time.Hour))
	ctx := context.Background()

	m.SetAccessToken(ctx, tok)
	require.NoError(t, m.Init(ctx))
	require.True(t, m.Initialized())

	// Same value still resets readiness.
	m.SetAccessToken(ctx, tok)
	assert.False(t, m.Initialized())
}

func TestInitAuthErrorClears(t *testing.T) {
	store := memory.New()
	m := newTestManager(store, func(ctx context.Context) (Identity, error) {
		return Identity{}, &httpError{status: 401}
	})
	ctx := context.Background()
	m.SetAccessToken(ctx, mintToken(t, "u-1", "user", time.Now().Add(time.Hour)))

	require.NoError(t, m.Init(ctx))
	assert.Empty(t, m.AccessToken())
	assert.Nil(t, m.Identity())
	assert.False(t, m.Initialized())
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound, "auth failure clears the persisted slot too")
}

func TestInitTransientErrorKeepsToken(t *testing.T) {
	m := newTestManager(nil, func(ctx context.Context) (Identity, error) {
		return Identity{}, errors.New("connection refused")
	})
	ctx := context.Background()
	tok := mintToken(t, "u-1", "user", time.Now().Add(time.Hour))
	m.SetAccessToken(ctx, tok)

	require.NoError(t, m.Init(ctx))
	assert.Equal(t, tok, m.AccessToken(), "transient failure must not log the user out")
	assert.True(t, m.Initialized())
	assert.Nil(t, m.Identity())
}

func TestInitServerErrorKeepsToken(t *testing.T) {
	m := newTestManager(nil, func(ctx context.Context) (Identity, error) {
		return Identity{}, &httpError{status: 503}
	})
	ctx := context.Background()
	tok := mintToken(t, "u-1", "user", time.Now().Add(time.Hour))
	m.SetAccessToken(ctx, tok)

	require.NoError(t, m.Init(ctx))
	assert.Equal(t, tok, m.AccessToken())
	assert.True(t, m.Initialized())
}

func TestMFAExchange(t *testing.T) {
	m := newTestManager(nil, func(ctx context.Context) (Identity, error) {
		return Identity{}, nil
	})
	ctx := context.Background()

	m.RequireMFA("mfa-tok")
	assert.Equal(t, "mfa-tok", m.MFAPending())

	// An access token supersedes the pending exchange token.
	m.SetAccessToken(ctx, mintToken(t, "u-1", "user", time.Now().Add(time.Hour)))
	assert.Empty(t, m.MFAPending())

	m.RequireMFA("mfa-2")
	m.ConfirmMFA()
	assert.Empty(t, m.MFAPending())
}

func TestClearWipesEverything(t *testing.T) {
	store := memory.New()
	m := newTestManager(store, func(ctx context.Context) (Identity, error) {
		return Identity{DisplayName: "Ada"}, nil
	})
	ctx := context.Background()
	m.SetAccessToken(ctx, mintToken(t, "u-1", "user", time.Now().Add(time.Hour)))
	require.NoError(t, m.Init(ctx))
	m.RequireMFA("mfa-tok")

	m.Clear(ctx, ClearOptions{})

	assert.Empty(t, m.AccessToken())
	assert.Nil(t, m.Identity())
	assert.Empty(t, m.MFAPending())
	assert.False(t, m.Initialized())
	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, credstore.ErrNotFound)
}

func TestReconcileExternalClear(t *testing.T) {
	// Another process cleared the slot: clear locally without touching
	// the slot again.
	cs := &countingStore{Store: memory.New()}
	m := newTestManager(cs, func(ctx context.Context) (Identity, error) {
		return Identity{}, nil
	})
	ctx := context.Background()
	m.SetAccessToken(ctx, mintToken(t, "u-1", "user", time.Now().Add(time.Hour)))
	clearsBefore := cs.clears.Load()

	reinit := m.ReconcileExternal(ctx, credstore.Event{Present: false})

	assert.False(t, reinit)
	assert.Empty(t, m.AccessToken())
	assert.Equal(t, clearsBefore, cs.clears.Load(), "remote clear must not write the slot")
}

func TestReconcileExternalAdopt(t *testing.T) {
	cs := &countingStore{Store: memory.New()}
	m := newTestManager(cs, func(ctx context.Context) (Identity, error) {
		return Identity{}, nil
	})
	ctx := context.Background()
	old := mintToken(t, "u-1", "user", time.Now().Add(time.Hour))
	m.SetAccessToken(ctx, old)
	savesBefore := cs.saves.Load()

	// Same value: no-op.
	assert.False(t, m.ReconcileExternal(ctx, credstore.Event{Token: old, Present: true}))
	assert.Equal(t, savesBefore, cs.saves.Load())

	// New value: adopted without writing it back.
	fresh := mintToken(t, "u-1", "user", time.Now().Add(2*time.Hour))
	assert.True(t, m.ReconcileExternal(ctx, credstore.Event{Token: fresh, Present: true}))
	assert.Equal(t, fresh, m.AccessToken())
	assert.Equal(t, savesBefore, cs.saves.Load(), "adopted token must not be re-persisted")
	assert.False(t, m.Initialized(), "adopted token needs a fresh identity load")
}

func TestReconcileExternalAbsentWhileAnonymous(t *testing.T) {
	m := newTestManager(memory.New(), func(ctx context.Context) (Identity, error) {
		return Identity{}, nil
	})
	assert.False(t, m.ReconcileExternal(context.Background(), credstore.Event{Present: false}))
}
