package auth

import (
	"errors"
	"testing"
	"time"

	"connectly/pkg/store"
)

func newTestClient(ttl time.Duration) *Client {
	return NewClient(store.NewMemoryStore(), "test-secret", ttl)
}

func TestSignUpAndSignIn(t *testing.T) {
	c := newTestClient(time.Minute)

	sess, err := c.SignUp("alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if sess.UserID == "" || sess.Token == "" {
		t.Fatalf("expected populated session, got %+v", sess)
	}

	current, ok, err := c.CurrentSession()
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if !ok || current.UserID != sess.UserID {
		t.Fatalf("expected signed-in session for %q", sess.UserID)
	}

	if err := c.SignOut(); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, ok, _ := c.CurrentSession(); ok {
		t.Fatalf("expected signed-out state after SignOut")
	}

	again, err := c.SignInWithPassword("alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if again.UserID != sess.UserID {
		t.Fatalf("sign in resolved %q, want %q", again.UserID, sess.UserID)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	c := newTestClient(time.Minute)
	if _, err := c.SignUp("bob@example.com", "secret123"); err != nil {
		t.Fatalf("first sign up: %v", err)
	}
	if _, err := c.SignUp("bob@example.com", "other-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got: %v", err)
	}
}

func TestSignInBadCredentials(t *testing.T) {
	c := newTestClient(time.Minute)
	if _, err := c.SignUp("carol@example.com", "secret123"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, err := c.SignInWithPassword("carol@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got: %v", err)
	}
	if _, err := c.SignInWithPassword("nobody@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got: %v", err)
	}
}

func TestExpiredSessionReadsAsSignedOut(t *testing.T) {
	c := newTestClient(time.Minute)
	if _, err := c.SignUp("dave@example.com", "secret123"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	// Move the clock past the TTL.
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, ok, err := c.CurrentSession(); err != nil || ok {
		t.Fatalf("expected expired session to read as signed out, ok=%v err=%v", ok, err)
	}
}

func TestOnChangeNotifications(t *testing.T) {
	c := newTestClient(time.Minute)
	calls := 0
	remove := c.OnChange(func() { calls++ })

	if _, err := c.SignUp("erin@example.com", "secret123"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if err := c.SignOut(); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 notifications, got %d", calls)
	}

	remove()
	if _, err := c.SignInWithPassword("erin@example.com", "secret123"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected no notification after remove, got %d", calls)
	}
}
