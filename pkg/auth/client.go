package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"connectly/pkg/store"
)

var (
	ErrEmailTaken         = errors.New("auth: email already registered")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
)

// Session is the signed-in state the client holds: an identity and a
// signed token with its expiry.
type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Client is the auth provider facade: credential records behind a
// CredentialStore, HS256 session tokens, and session-change notifications
// for the host to fan out to the identity session.
type Client struct {
	creds  store.CredentialStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu           sync.Mutex
	current      *Session
	listeners    map[int]func()
	nextListener int
}

// NewClient builds an auth client. ttl bounds how long an issued session
// stays valid without a fresh sign-in.
func NewClient(creds store.CredentialStore, secret string, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Client{
		creds:     creds,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
		listeners: make(map[int]func()),
	}
}

// SignUp registers a credential record and signs the new identity in.
// The profile row is the caller's follow-up write; the two are not atomic.
func (c *Client) SignUp(email, password string) (Session, error) {
	if _, _, taken, err := c.creds.GetCredentialsByEmail(email); err != nil {
		return Session{}, fmt.Errorf("check email: %w", err)
	} else if taken {
		return Session{}, ErrEmailTaken
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}
	userID := uuid.NewString()
	if err := c.creds.SaveCredentials(userID, email, hash); err != nil {
		return Session{}, fmt.Errorf("save credentials: %w", err)
	}
	return c.signIn(userID)
}

// SignInWithPassword verifies credentials and establishes a session.
func (c *Client) SignInWithPassword(email, password string) (Session, error) {
	userID, hash, ok, err := c.creds.GetCredentialsByEmail(email)
	if err != nil {
		return Session{}, fmt.Errorf("lookup credentials: %w", err)
	}
	if !ok || !CheckPassword(password, hash) {
		return Session{}, ErrInvalidCredentials
	}
	return c.signIn(userID)
}

// SignOut drops the current session and notifies listeners.
func (c *Client) SignOut() error {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	c.notify()
	return nil
}

// CurrentSession returns the current session if one exists and its token
// still validates. An expired or tampered token reads as signed out.
func (c *Client) CurrentSession() (Session, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Session{}, false, nil
	}
	if _, err := c.parseToken(c.current.Token); err != nil {
		c.current = nil
		return Session{}, false, nil
	}
	return *c.current, true, nil
}

// OnChange registers a session-change listener and returns its remover.
// The remover must be called on teardown, paired 1:1 with registration.
func (c *Client) OnChange(fn func()) (remove func()) {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) signIn(userID string) (Session, error) {
	expiresAt := c.now().Add(c.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(c.now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	session := Session{UserID: userID, Token: token, ExpiresAt: expiresAt}
	c.mu.Lock()
	c.current = &session
	c.mu.Unlock()
	c.notify()
	return session, nil
}

func (c *Client) parseToken(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.New("token missing subject")
	}
	return claims.Subject, nil
}

// notify calls listeners outside the lock; a listener may re-enter the
// client (e.g. CurrentSession from a refresh).
func (c *Client) notify() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
