package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/devprozorov/unicorn/credstore"
)

// TokenStore holds the current access token in memory and mirrors it to
// an optional persistence slot. The in-memory copy lives in a memguard
// enclave so the raw token is encrypted at rest between requests.
//
// Persistence failures are swallowed: the store stays correct in memory
// even when durability is unavailable (read-only disk, missing dir).
type TokenStore struct {
	mu      sync.RWMutex
	enclave *memguard.Enclave
	store   credstore.Store
	logger  *slog.Logger

	// onSet is invoked, with the lock held, after every Set. The
	// session manager uses it to reset its readiness flag.
	onSet func()
}

// ClearOptions controls what Clear wipes.
type ClearOptions struct {
	// KeepPersisted leaves the persisted copy in place. Used when
	// another process already cleared the slot and a redundant write
	// (or delete) would race with it.
	KeepPersisted bool
}

// NewTokenStore creates a TokenStore mirroring to the given slot.
// A nil store keeps the token in memory only.
func NewTokenStore(store credstore.Store, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenStore{store: store, logger: logger}
}

// Set stores the token in memory and mirrors it to the slot.
func (s *TokenStore) Set(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(ctx, token, true)
}

// adopt stores a token observed in the persisted slot without writing
// it back.
func (s *TokenStore) adopt(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(ctx, token, false)
}

func (s *TokenStore) setLocked(ctx context.Context, token string, persist bool) {
	if token == "" {
		s.enclave = nil
	} else {
		s.enclave = memguard.NewEnclave([]byte(token))
	}
	if persist && s.store != nil && token != "" {
		if err := s.store.Save(ctx, token); err != nil {
			s.logger.Warn("persisting access token failed; continuing in memory", "error", err)
		}
	}
	if s.onSet != nil {
		s.onSet()
	}
}

// Clear wipes the in-memory token and, unless opts.KeepPersisted, the
// persisted copy.
func (s *TokenStore) Clear(ctx context.Context, opts ClearOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enclave = nil
	if !opts.KeepPersisted && s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.logger.Warn("clearing persisted access token failed", "error", err)
		}
	}
}

// Current returns the access token, or "" when anonymous.
func (s *TokenStore) Current() string {
	s.mu.RLock()
	enclave := s.enclave
	s.mu.RUnlock()
	if enclave == nil {
		return ""
	}
	buf, err := enclave.Open()
	if err != nil {
		// The enclave is process-local; an open failure means the
		// key material was destroyed. Treat as anonymous.
		return ""
	}
	defer buf.Destroy()
	return string(buf.Bytes())
}

// Persisted reads the slot directly, bypassing the in-memory copy.
// Returns "" when the slot is empty or unreadable.
func (s *TokenStore) Persisted(ctx context.Context) string {
	if s.store == nil {
		return ""
	}
	tok, err := s.store.Load(ctx)
	if err != nil {
		return ""
	}
	return tok
}
