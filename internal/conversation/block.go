package conversation

import (
	"fmt"

	"connectly/pkg/domain"
)

// UserStore is the slice of the relational store block toggling needs.
type UserStore interface {
	SetBlocked(userID string, blocked []string) error
}

// ToggleBlock blocks or unblocks the visible peer: it computes the
// principal's new block list, writes it through the store, then flips the
// local flag. The principal's in-memory list is not re-derived here; the
// next session refresh reconciles it.
func (s *Selector) ToggleBlock(users UserStore, principal domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.peer == nil {
		return ErrNoVisiblePeer
	}
	if principal.Blocked == nil {
		return ErrMissingBlockList
	}

	var next []string
	if s.receiverBlocked {
		next = make([]string, 0, len(principal.Blocked))
		for _, id := range principal.Blocked {
			if id != s.peer.ID {
				next = append(next, id)
			}
		}
	} else {
		next = append(append([]string{}, principal.Blocked...), s.peer.ID)
	}

	if err := users.SetBlocked(principal.ID, next); err != nil {
		return fmt.Errorf("update block list: %w", err)
	}
	s.receiverBlocked = !s.receiverBlocked
	return nil
}
