package store

import (
	"time"

	"connectly/pkg/domain"
)

// Store defines the relational operations the client state layer issues:
// profile rows, chats, per-participant directory entries, and messages.
type Store interface {
	// users
	SaveUser(domain.User) error
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	SetBlocked(userID string, blocked []string) error

	// chats
	CreateChat(domain.Chat) error

	// directory entries
	CreateDirectoryEntry(domain.DirectoryEntry) error
	// ListDirectory returns the owner's entries ordered by updated_at
	// descending, each with Peer joined from the users table.
	ListDirectory(ownerID string) ([]domain.DirectoryEntry, error)
	SetSeen(chatID, ownerID string, seen bool) error
	// TouchConversation rewrites both sides of a chat after a send, as one
	// logical operation: the sender's entry gets {preview, seen, now} and
	// the receiver's {preview, unseen, now} with the same timestamp.
	TouchConversation(chatID, senderID, receiverID, lastMessage string, at time.Time) error

	// messages
	AppendMessage(domain.Message) error
	// ListMessages returns a chat's messages ordered by created_at ascending.
	ListMessages(chatID string) ([]domain.Message, error)
}

// CredentialStore persists the auth provider's credential records. Kept
// separate from the profile row: registration writes both, one after the
// other, without a shared transaction.
type CredentialStore interface {
	SaveCredentials(userID, email, passwordHash string) error
	GetCredentialsByEmail(email string) (userID, passwordHash string, ok bool, err error)
}
