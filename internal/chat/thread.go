// Package chat keeps a per-session view of a chat room. Messages sent from
// the portal show up at once as pending entries tagged with a client id;
// the server's copy later replaces that entry instead of being appended
// next to it. Failed sends stay in the thread, marked failed, until retried.
package chat

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"erp/portal/internal/backend"
	"erp/portal/internal/model"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

var (
	ErrUnknownMessage = errors.New("unknown chat message")
	ErrNotFailed      = errors.New("chat message has not failed")
	ErrEmptyMessage   = errors.New("chat message is empty")
)

type Sender interface {
	SendChatMessage(ctx context.Context, msg model.ChatMessage) (model.ChatMessage, error)
	UploadChatFile(ctx context.Context, file backend.Upload) (string, error)
}

type Entry struct {
	model.ChatMessage
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Attachment is a file held in memory until its upload succeeds.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type slot struct {
	entry      Entry
	attachment *Attachment
}

type Thread struct {
	room string

	mu    sync.Mutex
	slots []*slot
}

func NewThread(room string) *Thread {
	return &Thread{room: room}
}

func (t *Thread) Room() string {
	return t.room
}

// Messages returns a copy of the thread in display order.
func (t *Thread) Messages() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.slots))
	for _, s := range t.slots {
		out = append(out, s.entry)
	}
	return out
}

// Deliver records a server message. It replaces the entry with the same
// client id or the same server id; otherwise it is appended.
func (t *Thread) Deliver(msg model.ChatMessage) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deliverLocked(msg)
}

// Load merges a history page into the thread.
func (t *Thread) Load(history []model.ChatMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, msg := range history {
		t.deliverLocked(msg)
	}
}

func (t *Thread) deliverLocked(msg model.ChatMessage) Entry {
	entry := Entry{ChatMessage: msg, Status: StatusSent}
	if entry.Room == "" {
		entry.Room = t.room
	}
	s := t.findLocked(msg.ClientID, msg.ID)
	if s == nil && msg.ClientID == "" && msg.ID == "" {
		s = t.findAnonymousLocked(msg)
	}
	if s != nil {
		if entry.ClientID == "" {
			entry.ClientID = s.entry.ClientID
		}
		s.entry = entry
		s.attachment = nil
		return entry
	}
	t.slots = append(t.slots, &slot{entry: entry})
	return entry
}

// findAnonymousLocked matches a message that carries neither id against
// earlier id-less entries by content.
func (t *Thread) findAnonymousLocked(msg model.ChatMessage) *slot {
	for _, s := range t.slots {
		e := s.entry
		if e.ID != "" || e.ClientID != "" {
			continue
		}
		if e.SenderID == msg.SenderID && e.Text == msg.Text && e.FileURL == msg.FileURL && e.CreatedAt == msg.CreatedAt {
			return s
		}
	}
	return nil
}

func (t *Thread) findLocked(clientID string, id model.ID) *slot {
	for _, s := range t.slots {
		if clientID != "" && s.entry.ClientID == clientID {
			return s
		}
		if id != "" && s.entry.ID == id {
			return s
		}
	}
	return nil
}

// Send appends a pending entry and posts it. With an attachment the file is
// uploaded first and the message carries the returned URL. The entry ends
// sent or failed; on failure the backend error is returned as well.
func (t *Thread) Send(ctx context.Context, sender Sender, from model.ID, text string, attachment *Attachment) (Entry, error) {
	if text == "" && attachment == nil {
		return Entry{}, ErrEmptyMessage
	}
	pending := Entry{
		ChatMessage: model.ChatMessage{
			Room:     t.room,
			SenderID: from,
			Text:     text,
			ClientID: uuid.NewString(),
		},
		Status: StatusPending,
	}
	t.mu.Lock()
	t.slots = append(t.slots, &slot{entry: pending, attachment: attachment})
	t.mu.Unlock()

	return t.push(ctx, sender, pending.ClientID)
}

// Retry resends a failed entry.
func (t *Thread) Retry(ctx context.Context, sender Sender, clientID string) (Entry, error) {
	t.mu.Lock()
	s := t.findLocked(clientID, "")
	if s == nil {
		t.mu.Unlock()
		return Entry{}, ErrUnknownMessage
	}
	if s.entry.Status != StatusFailed {
		entry := s.entry
		t.mu.Unlock()
		return entry, ErrNotFailed
	}
	s.entry.Status = StatusPending
	s.entry.Error = ""
	t.mu.Unlock()

	return t.push(ctx, sender, clientID)
}

func (t *Thread) push(ctx context.Context, sender Sender, clientID string) (Entry, error) {
	t.mu.Lock()
	s := t.findLocked(clientID, "")
	if s == nil {
		t.mu.Unlock()
		return Entry{}, ErrUnknownMessage
	}
	msg := s.entry.ChatMessage
	attachment := s.attachment
	t.mu.Unlock()

	if attachment != nil && msg.FileURL == "" {
		fileURL, err := sender.UploadChatFile(ctx, backend.Upload{
			Filename:    attachment.Filename,
			ContentType: attachment.ContentType,
			Body:        bytes.NewReader(attachment.Data),
		})
		if err != nil {
			return t.fail(clientID, err)
		}
		msg.FileURL = fileURL
		t.mu.Lock()
		if s := t.findLocked(clientID, ""); s != nil && s.entry.Status == StatusPending {
			s.entry.FileURL = fileURL
			s.attachment = nil
		}
		t.mu.Unlock()
	}

	created, err := sender.SendChatMessage(ctx, msg)
	if err != nil {
		return t.fail(clientID, err)
	}
	if created.ClientID == "" {
		created.ClientID = clientID
	}
	return t.Deliver(created), nil
}

func (t *Thread) fail(clientID string, cause error) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.findLocked(clientID, "")
	if s == nil {
		return Entry{}, cause
	}
	// An echo may have confirmed the message while the request failed.
	if s.entry.Status == StatusSent {
		return s.entry, nil
	}
	s.entry.Status = StatusFailed
	s.entry.Error = cause.Error()
	return s.entry, cause
}
