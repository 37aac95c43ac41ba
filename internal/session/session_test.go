package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"connectly/pkg/auth"
	"connectly/pkg/domain"
	"connectly/pkg/storage"
	"connectly/pkg/store"
)

func newFixture(t *testing.T) (*Session, *auth.Client, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	client := auth.NewClient(mem, "test-secret", time.Minute)
	return New(client, mem, nil), client, mem
}

func TestRefreshWithoutSession(t *testing.T) {
	s, _, _ := newFixture(t)
	if !s.Loading() {
		t.Fatalf("expected loading before first refresh")
	}
	s.Refresh()
	if s.Loading() {
		t.Fatalf("expected loading cleared after refresh")
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("expected no principal without a session")
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	s, _, _ := newFixture(t)
	blobs := storage.NewMemoryBlobs()

	err := s.Register(context.Background(), blobs, RegisterParams{
		Username:   "alice",
		Email:      "alice@example.com",
		Password:   "secret123",
		Avatar:     strings.NewReader("png-bytes"),
		AvatarName: "avatar.png",
		AvatarSize: 9,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	principal, ok := s.Current()
	if !ok {
		t.Fatalf("expected signed-in principal after register")
	}
	if principal.Username != "alice" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if principal.AvatarURL == "" {
		t.Fatalf("expected avatar URL on profile")
	}
	if principal.Blocked == nil || len(principal.Blocked) != 0 {
		t.Fatalf("expected present empty block list, got %v", principal.Blocked)
	}

	if err := s.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("expected cleared principal after logout")
	}

	if err := s.Login("alice@example.com", "secret123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, ok := s.Current(); !ok {
		t.Fatalf("expected principal after login")
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	s, _, _ := newFixture(t)
	err := s.Register(context.Background(), storage.NewMemoryBlobs(), RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "short",
	})
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s, _, _ := newFixture(t)
	blobs := storage.NewMemoryBlobs()
	params := RegisterParams{Username: "alice", Email: "alice@example.com", Password: "secret123"}
	if err := s.Register(context.Background(), blobs, params); err != nil {
		t.Fatalf("first register: %v", err)
	}
	params.Username = "alice2"
	if err := s.Register(context.Background(), blobs, params); !errors.Is(err, auth.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got: %v", err)
	}
}

func TestRegisterAbortsOnUploadFailure(t *testing.T) {
	s, _, mem := newFixture(t)
	blobs := storage.NewMemoryBlobs()
	blobs.FailPut = errors.New("storage down")

	err := s.Register(context.Background(), blobs, RegisterParams{
		Username:   "alice",
		Email:      "alice@example.com",
		Password:   "secret123",
		Avatar:     strings.NewReader("png-bytes"),
		AvatarName: "avatar.png",
		AvatarSize: 9,
	})
	if err == nil {
		t.Fatalf("expected upload failure to abort registration")
	}
	// The auth record exists but no profile row was written.
	if _, ok, _ := mem.GetUserByUsername("alice"); ok {
		t.Fatalf("expected no profile row after aborted registration")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	s, _, _ := newFixture(t)
	if err := s.Login("nobody@example.com", "whatever"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestRefreshFallsBackOnProfileError(t *testing.T) {
	mem := store.NewMemoryStore()
	client := auth.NewClient(mem, "test-secret", time.Minute)
	s := New(client, failingUserStore{}, nil)

	if _, err := client.SignUp("alice@example.com", "secret123"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	s.Refresh()
	if s.Loading() {
		t.Fatalf("expected loading cleared after failed refresh")
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("expected nil principal after profile fetch error")
	}
}

func TestAuthChangeNotificationDrivesRefresh(t *testing.T) {
	mem := store.NewMemoryStore()
	client := auth.NewClient(mem, "test-secret", time.Minute)
	s := New(client, mem, nil)

	// The host wires Refresh to the auth provider's change feed.
	remove := client.OnChange(s.Refresh)
	defer remove()

	blobs := storage.NewMemoryBlobs()
	if err := s.Register(context.Background(), blobs, RegisterParams{
		Username: "alice", Email: "alice@example.com", Password: "secret123",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := client.SignOut(); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, ok := s.Current(); ok {
		t.Fatalf("expected principal cleared via change notification")
	}
}

type failingUserStore struct{}

func (failingUserStore) GetUserByID(string) (domain.User, bool, error) {
	return domain.User{}, false, errors.New("db down")
}

func (failingUserStore) SaveUser(domain.User) error { return errors.New("db down") }
