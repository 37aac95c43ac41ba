// Package directory maintains the signed-in user's ordered conversation
// list and keeps it in sync with the backend: every realtime signal scoped
// to the user's entries triggers a full re-fetch, never an incremental
// merge.
package directory

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"connectly/pkg/domain"
	"connectly/pkg/realtime"
)

// Store is the slice of the relational store the directory needs.
type Store interface {
	ListDirectory(ownerID string) ([]domain.DirectoryEntry, error)
	SetSeen(chatID, ownerID string, seen bool) error
	GetUserByUsername(username string) (domain.User, bool, error)
	CreateChat(domain.Chat) error
	CreateDirectoryEntry(domain.DirectoryEntry) error
}

// Directory holds the in-memory conversation list for one principal.
type Directory struct {
	store Store
	bus   realtime.Bus
	log   *slog.Logger

	mu      sync.Mutex
	entries []domain.DirectoryEntry
}

// New builds an empty directory.
func New(store Store, bus realtime.Bus, log *slog.Logger) *Directory {
	if log == nil {
		log = slog.Default()
	}
	return &Directory{store: store, bus: bus, log: log}
}

// Load replaces the list wholesale with the owner's entries, most recent
// first. Correctness over efficiency: no delta merge, the list always
// reflects the latest server state after a successful load.
func (d *Directory) Load(ownerID string) error {
	entries, err := d.store.ListDirectory(ownerID)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.entries = entries
	d.mu.Unlock()
	return nil
}

// Entries returns a copy of the current list.
func (d *Directory) Entries() []domain.DirectoryEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := make([]domain.DirectoryEntry, len(d.entries))
	copy(res, d.entries)
	return res
}

// Filter returns entries whose peer username contains query,
// case-insensitively. Client-side only; the backend is not consulted.
// Entries without a joined peer never match.
func (d *Directory) Filter(query string) []domain.DirectoryEntry {
	query = strings.ToLower(query)
	d.mu.Lock()
	defer d.mu.Unlock()
	res := make([]domain.DirectoryEntry, 0, len(d.entries))
	for _, e := range d.entries {
		if e.Peer == nil {
			continue
		}
		if strings.Contains(strings.ToLower(e.Peer.Username), query) {
			res = append(res, e)
		}
	}
	return res
}

// MarkSeen optimistically flips the local seen flag before issuing the
// backend update, so the caller's view responds without a round-trip. A
// failed backend write is logged and returned but the local flip stays;
// the next full reload reconciles any drift.
func (d *Directory) MarkSeen(chatID, ownerID string) error {
	d.mu.Lock()
	for i := range d.entries {
		if d.entries[i].ChatID == chatID && d.entries[i].UserID == ownerID {
			d.entries[i].Seen = true
			break
		}
	}
	d.mu.Unlock()
	if err := d.store.SetSeen(chatID, ownerID, true); err != nil {
		d.log.Error("mark seen", "chatId", chatID, "err", err)
		return err
	}
	return nil
}

// Watch subscribes to the owner's directory channel and reloads the list
// in full on every signal. The returned stop function releases the
// subscription; it pairs 1:1 with the Watch call and must run on teardown.
func (d *Directory) Watch(ctx context.Context, ownerID string) (stop func(), err error) {
	sub, err := d.bus.Subscribe(ctx, realtime.DirectoryChannel(ownerID))
	if err != nil {
		return nil, err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case _, ok := <-sub.Changes():
				if !ok {
					return
				}
				if err := d.Load(ownerID); err != nil {
					d.log.Error("reload directory", "userId", ownerID, "err", err)
				}
			}
		}
	}()
	return func() { _ = sub.Close() }, nil
}

// SearchUser looks up a profile by exact username. A miss is not an error.
func (d *Directory) SearchUser(username string) (domain.User, bool, error) {
	return d.store.GetUserByUsername(username)
}

// AddContact starts a conversation between principal and peer: one chat
// row, then the peer's directory entry, then the principal's, in that
// order, with no shared transaction. Both participants' directory
// channels are signalled afterwards.
func (d *Directory) AddContact(ctx context.Context, principal, peer domain.User) error {
	now := time.Now().UTC()
	chat := domain.Chat{ID: uuid.NewString(), CreatedAt: now}
	if err := d.store.CreateChat(chat); err != nil {
		return err
	}
	peerEntry := domain.DirectoryEntry{
		ChatID:     chat.ID,
		UserID:     peer.ID,
		ReceiverID: principal.ID,
		UpdatedAt:  now,
	}
	if err := d.store.CreateDirectoryEntry(peerEntry); err != nil {
		return err
	}
	ownEntry := domain.DirectoryEntry{
		ChatID:     chat.ID,
		UserID:     principal.ID,
		ReceiverID: peer.ID,
		UpdatedAt:  now,
	}
	if err := d.store.CreateDirectoryEntry(ownEntry); err != nil {
		return err
	}
	for _, userID := range []string{peer.ID, principal.ID} {
		if err := d.bus.Publish(ctx, realtime.DirectoryChannel(userID)); err != nil {
			d.log.Warn("publish directory change", "userId", userID, "err", err)
		}
	}
	return nil
}
