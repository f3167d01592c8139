// Package helpdesk tracks the suggestions a visitor has submitted. The
// backend has no per-user query for them, so their ids are kept in the
// session's persistence facility and refetched one by one.
package helpdesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"erp/portal/internal/model"
	"erp/portal/internal/storage"
)

var ErrNotTracked = errors.New("suggestion not submitted from this session")

var errCorruptIDs = errors.New("submitted ids unreadable")

type Client interface {
	SubmitSuggestion(ctx context.Context, suggestion model.Suggestion) (model.Suggestion, error)
	GetSuggestion(ctx context.Context, id string) (model.Suggestion, error)
	ReplySuggestion(ctx context.Context, reply model.Reply) (model.Reply, error)
}

const fetchLimit = 4

// submitMu serialises the read-modify-write of the id list.
var submitMu sync.Mutex

type Tracker struct {
	store storage.Store
}

func NewTracker(store storage.Store) *Tracker {
	return &Tracker{store: store}
}

// IDs returns the tracked suggestion ids, oldest first.
func (t *Tracker) IDs(ctx context.Context) ([]string, error) {
	raw, ok, err := t.store.Get(ctx, storage.KeySubmittedQueries)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptIDs, err)
	}
	return ids, nil
}

// Submit sends the suggestion and remembers its id. A failure to persist the
// id is logged; the submitted suggestion is still returned.
func (t *Tracker) Submit(ctx context.Context, client Client, suggestion model.Suggestion) (model.Suggestion, error) {
	created, err := client.SubmitSuggestion(ctx, suggestion)
	if err != nil {
		return model.Suggestion{}, err
	}
	if created.ID == "" {
		return created, nil
	}
	if err := t.track(ctx, created.ID.String()); err != nil {
		log.Printf("helpdesk track failed: %v", err)
	}
	return created, nil
}

func (t *Tracker) track(ctx context.Context, id string) error {
	submitMu.Lock()
	defer submitMu.Unlock()
	ids, err := t.IDs(ctx)
	switch {
	case errors.Is(err, errCorruptIDs):
		log.Printf("helpdesk resetting unreadable id list: %v", err)
		ids = nil
	case err != nil:
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	encoded, err := json.Marshal(append(ids, id))
	if err != nil {
		return err
	}
	return t.store.Set(ctx, storage.KeySubmittedQueries, string(encoded))
}

// Mine refetches every tracked suggestion, newest submission first.
// Suggestions that fail to load are skipped.
func (t *Tracker) Mine(ctx context.Context, client Client) ([]model.Suggestion, error) {
	ids, err := t.IDs(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]*model.Suggestion, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			suggestion, err := client.GetSuggestion(gctx, id)
			if err != nil {
				log.Printf("helpdesk fetch %s failed: %v", id, err)
				return nil
			}
			results[i] = &suggestion
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Suggestion, 0, len(ids))
	for i := len(results) - 1; i >= 0; i-- {
		if results[i] != nil {
			out = append(out, *results[i])
		}
	}
	return out, nil
}

// Reply posts a follow-up on a suggestion submitted from this session.
func (t *Tracker) Reply(ctx context.Context, client Client, suggestionID, message, repliedBy string) (model.Reply, error) {
	ids, err := t.IDs(ctx)
	if err != nil {
		return model.Reply{}, err
	}
	tracked := false
	for _, id := range ids {
		if id == suggestionID {
			tracked = true
			break
		}
	}
	if !tracked {
		return model.Reply{}, ErrNotTracked
	}
	return client.ReplySuggestion(ctx, model.Reply{
		SuggestionID: model.ID(suggestionID),
		Message:      message,
		RepliedBy:    repliedBy,
	})
}
