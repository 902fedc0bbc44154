// Package auth owns the identity session: the GitHub OAuth credential held in
// memory for the process lifetime, and the stable user id derived from it.
//
// The session itself is never persisted — it is re-established by logging in
// again after a restart. Only the derived githubUserId is cached in the local
// state store, so a device that synced once can keep showing "last synced as
// user X" without a live session.
package auth

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/state"
)

// Session is an authenticated GitHub credential.
//
// User may be nil: identity resolution failing after login does not invalidate
// the session. Operations that need the resolved id (sync) fail independently
// via Store.ResolveUserID.
type Session struct {
	Token     *oauth2.Token
	User      *GitHubUser
	CreatedAt time.Time
}

// UserFetcher resolves a token to a GitHub user. *GitHubProvider implements
// it; tests substitute a fake.
type UserFetcher interface {
	FetchUser(ctx context.Context, token *oauth2.Token) (*GitHubUser, error)
}

// Store is the credential store. It holds at most one session and serialises
// access with a mutex — HTTP handlers and the auto-sync worker probe it
// concurrently.
type Store struct {
	provider UserFetcher
	local    state.Store
	logger   *slog.Logger

	mu      sync.Mutex
	session *Session
}

// NewStore creates a credential store backed by the given provider and local
// state store (for the cached user id).
func NewStore(provider UserFetcher, local state.Store, logger *slog.Logger) *Store {
	return &Store{
		provider: provider,
		local:    local,
		logger:   logger,
	}
}

// GetSession is a non-blocking probe: it returns the current session or nil,
// and never prompts or performs network I/O.
func (s *Store) GetSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// CompleteLogin installs a session from a finished OAuth exchange and tries to
// resolve the user identity immediately.
//
// A failed /user lookup is logged but does NOT fail the login: the session is
// kept and the id lookup is retried on the next sync. That way a flaky GitHub
// API moment doesn't bounce the user back to the consent screen.
func (s *Store) CompleteLogin(ctx context.Context, token *oauth2.Token) (*Session, error) {
	session := &Session{Token: token, CreatedAt: time.Now()}

	user, err := s.provider.FetchUser(ctx, token)
	if err != nil {
		s.logger.Warn("identity resolution failed after login; keeping session",
			slog.String("error", err.Error()),
		)
	} else {
		session.User = user
		s.cacheUserID(ctx, user)
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	return session, nil
}

// Logout drops the in-memory session. The cached githubUserId is left in the
// local store; only an explicit data clear removes it.
func (s *Store) Logout() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
}

// ResolveUserID returns the stable external user id, resolving it if needed.
//
// Resolution order:
//  1. the current session's already-fetched user
//  2. the locally cached githubUserId
//  3. a fresh "who am I" call (requires a live session)
//
// With no session and no cache, the caller is not authenticated. A live
// session whose lookup fails yields ErrIdentityResolution — authentication
// stays active, but operations needing the id fail.
func (s *Store) ResolveUserID(ctx context.Context) (string, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session != nil && session.User != nil {
		return strconv.FormatInt(session.User.ID, 10), nil
	}

	if cached, ok, err := state.GetString(ctx, s.local, state.KeyGitHubUserID); err == nil && ok && cached != "" {
		return cached, nil
	}

	if session == nil {
		return "", apperror.NotAuthenticated()
	}

	user, err := s.provider.FetchUser(ctx, session.Token)
	if err != nil {
		return "", apperror.IdentityResolution(err)
	}

	s.mu.Lock()
	if s.session == session {
		s.session.User = user
	}
	s.mu.Unlock()
	s.cacheUserID(ctx, user)

	return strconv.FormatInt(user.ID, 10), nil
}

// cacheUserID persists the derived id. Best-effort: a write failure only
// costs us a re-resolution later.
func (s *Store) cacheUserID(ctx context.Context, user *GitHubUser) {
	id := strconv.FormatInt(user.ID, 10)
	if err := state.SetString(ctx, s.local, state.KeyGitHubUserID, id); err != nil {
		s.logger.Warn("failed to cache github user id", slog.String("error", err.Error()))
	}
}
