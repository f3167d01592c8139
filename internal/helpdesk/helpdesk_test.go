package helpdesk

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"erp/portal/internal/model"
	"erp/portal/internal/storage"
)

type fakeClient struct {
	mu      sync.Mutex
	nextID  int
	missing map[string]bool
	replies []model.Reply
}

func (f *fakeClient) SubmitSuggestion(_ context.Context, s model.Suggestion) (model.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = model.ID(strconv.Itoa(f.nextID))
	return s, nil
}

func (f *fakeClient) GetSuggestion(_ context.Context, id string) (model.Suggestion, error) {
	if f.missing[id] {
		return model.Suggestion{}, errors.New("not found")
	}
	return model.Suggestion{ID: model.ID(id), Subject: "subject " + id}, nil
}

func (f *fakeClient) ReplySuggestion(_ context.Context, r model.Reply) (model.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, r)
	r.ID = "r1"
	return r, nil
}

func TestSubmitTracksIDs(t *testing.T) {
	store := storage.NewMemory()
	tracker := NewTracker(store)
	client := &fakeClient{}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := tracker.Submit(ctx, client, model.Suggestion{Subject: "bus late"}); err != nil {
			t.Fatalf("submit error: %v", err)
		}
	}
	raw, _, _ := store.Get(ctx, storage.KeySubmittedQueries)
	if raw != `["1","2","3"]` {
		t.Fatalf("unexpected persisted ids %s", raw)
	}
}

func TestMineSkipsFailuresNewestFirst(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()
	_ = store.Set(ctx, storage.KeySubmittedQueries, `["10","11","12"]`)
	client := &fakeClient{missing: map[string]bool{"11": true}}

	mine, err := NewTracker(store).Mine(ctx, client)
	if err != nil {
		t.Fatalf("mine error: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != "12" || mine[1].ID != "10" {
		t.Fatalf("unexpected suggestions %+v", mine)
	}
}

func TestMineEmpty(t *testing.T) {
	mine, err := NewTracker(storage.NewMemory()).Mine(context.Background(), &fakeClient{})
	if err != nil || len(mine) != 0 {
		t.Fatalf("expected nothing, got %v %v", mine, err)
	}
}

func TestMineCorruptList(t *testing.T) {
	store := storage.NewMemory()
	_ = store.Set(context.Background(), storage.KeySubmittedQueries, `{`)
	if _, err := NewTracker(store).Mine(context.Background(), &fakeClient{}); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestReplyRequiresTrackedID(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()
	_ = store.Set(ctx, storage.KeySubmittedQueries, `["5"]`)
	client := &fakeClient{}
	tracker := NewTracker(store)

	if _, err := tracker.Reply(ctx, client, "6", "hello", "Donor"); !errors.Is(err, ErrNotTracked) {
		t.Fatalf("expected ErrNotTracked, got %v", err)
	}
	reply, err := tracker.Reply(ctx, client, "5", "any update?", "Donor")
	if err != nil {
		t.Fatalf("reply error: %v", err)
	}
	if reply.SuggestionID != "5" || len(client.replies) != 1 {
		t.Fatalf("unexpected reply %+v", reply)
	}
}

type flakyStore struct {
	*storage.Memory
	failGet bool
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("redis timeout")
	}
	return f.Memory.Get(ctx, key)
}

func TestSubmitKeepsIDsWhenReadFails(t *testing.T) {
	store := &flakyStore{Memory: storage.NewMemory()}
	tracker := NewTracker(store)
	client := &fakeClient{}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := tracker.Submit(ctx, client, model.Suggestion{Subject: "canteen"}); err != nil {
			t.Fatalf("submit error: %v", err)
		}
	}
	store.failGet = true
	created, err := tracker.Submit(ctx, client, model.Suggestion{Subject: "canteen"})
	if err != nil || created.ID != "3" {
		t.Fatalf("submit must still succeed, got %+v %v", created, err)
	}
	store.failGet = false

	raw, _, _ := store.Memory.Get(ctx, storage.KeySubmittedQueries)
	if raw != `["1","2"]` {
		t.Fatalf("tracked ids overwritten: %s", raw)
	}
}

func TestSubmitResetsCorruptIDs(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()
	_ = store.Set(ctx, storage.KeySubmittedQueries, `{not json`)

	if _, err := NewTracker(store).Submit(ctx, &fakeClient{}, model.Suggestion{Subject: "bus"}); err != nil {
		t.Fatalf("submit error: %v", err)
	}
	raw, _, _ := store.Get(ctx, storage.KeySubmittedQueries)
	if raw != `["1"]` {
		t.Fatalf("expected list rebuilt, got %s", raw)
	}
}
