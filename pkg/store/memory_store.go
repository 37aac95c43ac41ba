package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"connectly/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs the state-layer tests
// and mirrors GormStore's ordering and join behavior.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]domain.User   // user ID -> profile
	usernames map[string]string        // username -> user ID
	chats     map[string]domain.Chat   // chat ID -> chat
	entries   map[string]domain.DirectoryEntry // chatID+"/"+ownerID -> entry
	messages  map[string][]domain.Message      // chat ID -> messages, append order
	creds     map[string]credential            // email -> credential
}

type credential struct {
	userID       string
	passwordHash string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]domain.User),
		usernames: make(map[string]string),
		chats:     make(map[string]domain.Chat),
		entries:   make(map[string]domain.DirectoryEntry),
		messages:  make(map[string][]domain.Message),
		creds:     make(map[string]credential),
	}
}

// SaveUser stores or replaces a profile row.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.Blocked == nil {
		u.Blocked = []string{}
	}
	if prev, ok := m.users[u.ID]; ok {
		delete(m.usernames, prev.Username)
	}
	m.users[u.ID] = u
	m.usernames[u.Username] = u.ID
	return nil
}

// GetUserByID retrieves a profile row.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, false, nil
	}
	return copyUser(u), true, nil
}

// GetUserByUsername retrieves a profile row by exact username.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.usernames[username]
	if !ok {
		return domain.User{}, false, nil
	}
	return copyUser(m.users[id]), true, nil
}

// SetBlocked replaces a user's block list.
func (m *MemoryStore) SetBlocked(userID string, blocked []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("set blocked: user %q not found", userID)
	}
	if blocked == nil {
		blocked = []string{}
	}
	u.Blocked = append([]string(nil), blocked...)
	m.users[userID] = u
	return nil
}

// CreateChat inserts a chat row.
func (m *MemoryStore) CreateChat(c domain.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.chats[c.ID]; exists {
		return fmt.Errorf("create chat: %q already exists", c.ID)
	}
	m.chats[c.ID] = c
	return nil
}

// CreateDirectoryEntry inserts one participant's side of a chat.
func (m *MemoryStore) CreateDirectoryEntry(e domain.DirectoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := e.ChatID + "/" + e.UserID
	if _, exists := m.entries[key]; exists {
		return fmt.Errorf("create directory entry: %q already exists", key)
	}
	e.Peer = nil
	m.entries[key] = e
	return nil
}

// ListDirectory returns the owner's entries, most recently updated first,
// with each receiver's profile joined in.
func (m *MemoryStore) ListDirectory(ownerID string) ([]domain.DirectoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.DirectoryEntry, 0)
	for _, e := range m.entries {
		if e.UserID != ownerID {
			continue
		}
		if peer, ok := m.users[e.ReceiverID]; ok {
			p := copyUser(peer)
			e.Peer = &p
		}
		res = append(res, e)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].UpdatedAt.After(res[j].UpdatedAt)
	})
	return res, nil
}

// SetSeen updates the seen flag on one participant's entry.
func (m *MemoryStore) SetSeen(chatID, ownerID string, seen bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := chatID + "/" + ownerID
	e, ok := m.entries[key]
	if !ok {
		return fmt.Errorf("set seen: entry %q not found", key)
	}
	e.Seen = seen
	m.entries[key] = e
	return nil
}

// TouchConversation rewrites both participants' entries under one lock;
// either both sides update or neither does.
func (m *MemoryStore) TouchConversation(chatID, senderID, receiverID, lastMessage string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	senderKey := chatID + "/" + senderID
	receiverKey := chatID + "/" + receiverID
	if _, ok := m.entries[senderKey]; !ok {
		return fmt.Errorf("touch conversation: entry %q not found", senderKey)
	}
	if _, ok := m.entries[receiverKey]; !ok {
		return fmt.Errorf("touch conversation: entry %q not found", receiverKey)
	}
	sender := m.entries[senderKey]
	sender.LastMessage = lastMessage
	sender.Seen = true
	sender.UpdatedAt = at
	m.entries[senderKey] = sender
	receiver := m.entries[receiverKey]
	receiver.LastMessage = lastMessage
	receiver.Seen = false
	receiver.UpdatedAt = at
	m.entries[receiverKey] = receiver
	return nil
}

// AppendMessage records a message in append order.
func (m *MemoryStore) AppendMessage(msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ChatID] = append(m.messages[msg.ChatID], msg)
	return nil
}

// ListMessages returns a chat's messages ordered by creation time.
func (m *MemoryStore) ListMessages(chatID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[chatID]
	res := make([]domain.Message, len(msgs))
	copy(res, msgs)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

// SaveCredentials stores a credential record keyed by email.
func (m *MemoryStore) SaveCredentials(userID, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.creds[email]; exists {
		return fmt.Errorf("save credentials: email %q already registered", email)
	}
	m.creds[email] = credential{userID: userID, passwordHash: passwordHash}
	return nil
}

// GetCredentialsByEmail resolves an email to its credential record.
func (m *MemoryStore) GetCredentialsByEmail(email string) (string, string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.creds[email]
	if !ok {
		return "", "", false, nil
	}
	return c.userID, c.passwordHash, true, nil
}

// copyUser keeps an empty block list non-nil; nil means the row is malformed.
func copyUser(u domain.User) domain.User {
	blocked := make([]string, len(u.Blocked))
	copy(blocked, u.Blocked)
	u.Blocked = blocked
	return u
}
