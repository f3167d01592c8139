// Package storage is the portal's persistence facility: a small string
// key/value store that survives restarts, the server-side counterpart of
// browser local storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	KeyUserSession      = "userSession"
	KeyUserToken        = "userToken"
	KeyLastAdIndex      = "lastAdIndex"
	KeySubmittedQueries = "submittedQueryIds"
)

var ErrUnknownDriver = errors.New("unknown storage driver")

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

type namespaced struct {
	prefix string
	store  Store
}

// Namespace scopes every key of store under prefix.
func Namespace(store Store, prefix string) Store {
	return &namespaced{prefix: prefix, store: store}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, keys ...string) error {
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, n.prefix+key)
	}
	return n.store.Remove(ctx, prefixed...)
}

// SessionPrefix is the namespace used for one portal session.
func SessionPrefix(sessionID string) string {
	return "session:" + strings.TrimSpace(sessionID) + ":"
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage: empty key")
	}
	return nil
}
