// Package session tracks the signed-in principal: it derives the current
// user from the auth provider's session plus a profile lookup, and exposes
// the login/registration flows that establish one.
package session

import (
	"log/slog"
	"sync"

	"connectly/pkg/auth"
	"connectly/pkg/domain"
)

// Authenticator is the slice of the auth provider the session needs.
type Authenticator interface {
	CurrentSession() (auth.Session, bool, error)
	SignInWithPassword(email, password string) (auth.Session, error)
	SignUp(email, password string) (auth.Session, error)
	SignOut() error
	OnChange(fn func()) (remove func())
}

// UserStore is the slice of the relational store the session needs.
type UserStore interface {
	GetUserByID(id string) (domain.User, bool, error)
	SaveUser(domain.User) error
}

// Session holds the signed-in principal and its loading state.
type Session struct {
	auth  Authenticator
	users UserStore
	log   *slog.Logger

	mu      sync.Mutex
	current *domain.User
	loading bool
}

// New builds a session in the loading state; call Refresh to resolve it.
func New(authClient Authenticator, users UserStore, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{auth: authClient, users: users, log: log, loading: true}
}

// Refresh re-derives the principal from the auth provider. Any failure
// lands in the safe signed-out state; fetch errors go to the log, not the
// user. The host should invoke Refresh on every auth-change notification.
func (s *Session) Refresh() {
	sess, ok, err := s.auth.CurrentSession()
	if err != nil {
		s.log.Error("fetch session", "err", err)
		s.set(nil)
		return
	}
	if !ok {
		s.set(nil)
		return
	}
	user, found, err := s.users.GetUserByID(sess.UserID)
	if err != nil {
		s.log.Error("fetch profile", "userId", sess.UserID, "err", err)
		s.set(nil)
		return
	}
	if !found {
		s.log.Warn("session without profile row", "userId", sess.UserID)
		s.set(nil)
		return
	}
	s.set(&user)
}

// Logout signs out of the auth provider and clears the principal. It does
// not reset dependent state (active conversation, message stream); callers
// own that via the selector's Reset.
func (s *Session) Logout() error {
	if err := s.auth.SignOut(); err != nil {
		return err
	}
	s.set(nil)
	return nil
}

// Current returns the signed-in principal, if any.
func (s *Session) Current() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.User{}, false
	}
	return *s.current, true
}

// Loading reports whether the initial session resolution is still pending.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) set(user *domain.User) {
	s.mu.Lock()
	s.current = user
	s.loading = false
	s.mu.Unlock()
}
