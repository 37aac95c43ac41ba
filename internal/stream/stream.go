// Package stream loads the active conversation's message history and runs
// the send pipeline: optional attachment upload, one message insert, then
// the two per-participant directory touches. History is replaced wholesale
// on every load; realtime signals trigger full reloads.
package stream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"connectly/pkg/domain"
	"connectly/pkg/realtime"
	"connectly/pkg/storage"
)

// Store is the slice of the relational store the stream needs.
type Store interface {
	ListMessages(chatID string) ([]domain.Message, error)
	AppendMessage(domain.Message) error
	TouchConversation(chatID, senderID, receiverID, lastMessage string, at time.Time) error
}

// attachmentPreview is the directory preview text for attachment-only sends.
const attachmentPreview = "Image"

// Attachment describes an outgoing upload.
type Attachment struct {
	Name        string
	Reader      io.Reader
	Size        int64
	ContentType string
}

// SendParams carries one outgoing message.
type SendParams struct {
	ChatID     string
	SenderID   string
	ReceiverID string
	Text       string
	Attachment *Attachment
}

// Stream holds the loaded history for one conversation at a time.
type Stream struct {
	store Store
	blobs storage.Blobs
	bus   realtime.Bus
	log   *slog.Logger

	mu       sync.Mutex
	messages []domain.Message
}

// New builds an empty stream.
func New(store Store, blobs storage.Blobs, bus realtime.Bus, log *slog.Logger) *Stream {
	if log == nil {
		log = slog.Default()
	}
	return &Stream{store: store, blobs: blobs, bus: bus, log: log}
}

// LoadHistory replaces the loaded messages with the conversation's full
// history in ascending creation order.
func (s *Stream) LoadHistory(chatID string) error {
	messages, err := s.store.ListMessages(chatID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.messages = messages
	s.mu.Unlock()
	return nil
}

// Messages returns a copy of the loaded history.
func (s *Stream) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.Message, len(s.messages))
	copy(res, s.messages)
	return res
}

// SharedAttachments returns the attachment URLs of the loaded history in
// load order. Derived on demand, recomputed per reload.
func (s *Stream) SharedAttachments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]string, 0)
	for _, m := range s.messages {
		if m.AttachmentURL != "" {
			res = append(res, m.AttachmentURL)
		}
	}
	return res
}

// Send runs the outgoing pipeline strictly in order: upload the attachment
// if any (failure aborts before any row is written), insert the message
// row, then touch both directory entries in one store operation (sender
// seen, receiver unseen, same preview and timestamp). The message insert
// and the touch are still separate writes; a failure between them leaves
// the directory stale until the next successful send or reload. Nothing
// is retried.
//
// An empty message (no text, no attachment) is a no-op. Send does not
// re-check the block relationship; composition gating is the caller's job.
func (s *Stream) Send(ctx context.Context, p SendParams) error {
	if p.Text == "" && p.Attachment == nil {
		return nil
	}

	attachmentURL := ""
	if p.Attachment != nil {
		url, err := s.blobs.Put(ctx, storage.AttachmentKey(p.Attachment.Name), p.Attachment.Reader, p.Attachment.Size, p.Attachment.ContentType)
		if err != nil {
			return fmt.Errorf("upload attachment: %w", err)
		}
		attachmentURL = url
	}

	now := time.Now().UTC()
	msg := domain.Message{
		ID:            uuid.NewString(),
		ChatID:        p.ChatID,
		SenderID:      p.SenderID,
		Text:          p.Text,
		AttachmentURL: attachmentURL,
		CreatedAt:     now,
	}
	if err := s.store.AppendMessage(msg); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	preview := p.Text
	if preview == "" {
		preview = attachmentPreview
	}
	if err := s.store.TouchConversation(p.ChatID, p.SenderID, p.ReceiverID, preview, now); err != nil {
		return fmt.Errorf("update directory entries: %w", err)
	}

	// Change-feed stand-in: signal the conversation and both directories.
	channels := []string{
		realtime.MessagesChannel(p.ChatID),
		realtime.DirectoryChannel(p.SenderID),
		realtime.DirectoryChannel(p.ReceiverID),
	}
	for _, channel := range channels {
		if err := s.bus.Publish(ctx, channel); err != nil {
			s.log.Warn("publish change", "channel", channel, "err", err)
		}
	}
	return nil
}

// Watch subscribes to the conversation's message channel and reloads the
// history in full on every signal. The returned stop function releases
// the subscription and must run on teardown, paired 1:1 with Watch.
func (s *Stream) Watch(ctx context.Context, chatID string) (stop func(), err error) {
	sub, err := s.bus.Subscribe(ctx, realtime.MessagesChannel(chatID))
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
				if err := s.LoadHistory(chatID); err != nil {
					s.log.Error("reload history", "chatId", chatID, "err", err)
				}
			}
		}
	}()
	return func() { _ = sub.Close() }, nil
}
