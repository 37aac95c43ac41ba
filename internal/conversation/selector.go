// Package conversation holds which conversation is open, the peer's
// profile, the bidirectional block relationship, and the detail panel
// visibility. All block state is mutated only through this package's
// transitions.
package conversation

import (
	"errors"
	"sync"

	"connectly/pkg/domain"
)

var (
	// ErrMissingBlockList means a profile arrived without its block list.
	// Treating that as "not blocked" could expose a blocked relationship
	// as open, so selection fails loudly instead.
	ErrMissingBlockList = errors.New("conversation: profile is missing its block list")

	// ErrNoVisiblePeer means a block toggle was attempted while no peer
	// profile is visible (nothing selected, or hidden by their block).
	ErrNoVisiblePeer = errors.New("conversation: no visible peer")
)

// Snapshot is a point-in-time copy of the selector state.
type Snapshot struct {
	ChatID string
	Peer   *domain.User
	// CurrentUserBlocked: the peer has blocked the signed-in user.
	CurrentUserBlocked bool
	// ReceiverBlocked: the signed-in user has blocked the peer.
	ReceiverBlocked bool
	DetailOpen      bool
}

// Selector is the active-conversation state machine.
type Selector struct {
	mu                 sync.Mutex
	chatID             string
	peer               *domain.User
	currentUserBlocked bool
	receiverBlocked    bool
	detailOpen         bool
}

// New returns a selector with nothing selected.
func New() *Selector {
	return &Selector{}
}

// Select opens a conversation. Being blocked by the peer is the stronger
// restriction: it hides the peer's profile entirely and skips the reverse
// check. Blocking the peer oneself keeps their profile visible. The chat
// ID is set regardless of the outcome.
func (s *Selector) Select(chatID string, peer, principal domain.User) error {
	if peer.Blocked == nil || principal.Blocked == nil {
		return ErrMissingBlockList
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatID = chatID
	if peer.HasBlocked(principal.ID) {
		s.peer = nil
		s.currentUserBlocked = true
		s.receiverBlocked = false
		return nil
	}
	p := peer
	s.peer = &p
	s.currentUserBlocked = false
	s.receiverBlocked = principal.HasBlocked(peer.ID)
	return nil
}

// ToggleDetail flips the detail panel. No-op without a selection.
func (s *Selector) ToggleDetail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chatID == "" {
		return
	}
	s.detailOpen = !s.detailOpen
}

// FlipLocalBlock flips the local "I blocked the peer" flag. Called after a
// successful backend block write so the view responds without waiting on a
// fresh profile fetch; the next session refresh reconciles.
func (s *Selector) FlipLocalBlock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiverBlocked = !s.receiverBlocked
}

// Reset clears everything to the initial state. Must run on logout so a
// new principal never inherits a stale active conversation.
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatID = ""
	s.peer = nil
	s.currentUserBlocked = false
	s.receiverBlocked = false
	s.detailOpen = false
}

// State returns a copy of the current state.
func (s *Selector) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ChatID:             s.chatID,
		CurrentUserBlocked: s.currentUserBlocked,
		ReceiverBlocked:    s.receiverBlocked,
		DetailOpen:         s.detailOpen,
	}
	if s.peer != nil {
		p := *s.peer
		snap.Peer = &p
	}
	return snap
}

// CanCompose reports whether message composition should be enabled:
// a conversation is open and neither side blocks the other.
func (s *Selector) CanCompose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID != "" && !s.currentUserBlocked && !s.receiverBlocked
}
