package domain

import (
	"slices"
	"time"
)

// User is a registered principal: the profile row the client reads and
// renders. The auth provider's credential record lives elsewhere.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	// Blocked lists the user IDs this user has blocked. A nil slice means
	// the profile was loaded without its block list; callers must not read
	// nil as "blocks nobody".
	Blocked []string `json:"blocked"`
}

// HasBlocked reports whether the user's block list contains id.
func (u User) HasBlocked(id string) bool {
	return slices.Contains(u.Blocked, id)
}

// Chat is a conversation between two users. Created once, never deleted.
type Chat struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// DirectoryEntry is one participant's summary row for a conversation:
// preview text, seen state, and the peer on the other side. Each chat has
// exactly two entries, one per participant, with independent seen flags.
type DirectoryEntry struct {
	ChatID      string    `json:"chatId"`
	UserID      string    `json:"userId"`
	ReceiverID  string    `json:"receiverId"`
	LastMessage string    `json:"lastMessage,omitempty"`
	Seen        bool      `json:"isSeen"`
	UpdatedAt   time.Time `json:"updatedAt"`
	// Peer is the receiver's profile, joined in by the store on list reads.
	Peer *User `json:"peer,omitempty"`
}

// Message is an append-only chat message. Text may be empty for
// attachment-only messages; AttachmentURL may be empty for text-only ones.
type Message struct {
	ID            string    `json:"id"`
	ChatID        string    `json:"chatId"`
	SenderID      string    `json:"senderId"`
	Text          string    `json:"text,omitempty"`
	AttachmentURL string    `json:"imgUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
