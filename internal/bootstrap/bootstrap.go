// Package bootstrap loads what every portal screen needs in one pass: the
// header identity, the profile and the screen's own data.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	"golang.org/x/sync/errgroup"

	"erp/portal/internal/backend"
	"erp/portal/internal/model"
	"erp/portal/internal/session"
	"erp/portal/internal/storage"
)

var (
	ErrUnknownScreen   = errors.New("unknown screen")
	ErrUnauthenticated = errors.New("not logged in")
	ErrForbidden       = errors.New("screen not available for role")
)

// Env is what a screen fetch gets to work with.
type Env struct {
	Client *backend.Client
	User   model.User
	Store  storage.Store
	Query  url.Values
}

type FetchFunc func(ctx context.Context, env Env) (interface{}, error)

type Screen struct {
	Name string
	// Roles limits the screen; empty means every role.
	Roles []model.Role
	Fetch FetchFunc
}

func (s Screen) allows(role model.Role) bool {
	if len(s.Roles) == 0 {
		return true
	}
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ScreenError wraps a failed screen data fetch.
type ScreenError struct {
	Screen string
	Err    error
}

func (e *ScreenError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Screen, e.Err)
}

func (e *ScreenError) Unwrap() error {
	return e.Err
}

type Header struct {
	DisplayName string     `json:"display_name"`
	Role        model.Role `json:"role"`
	AvatarURL   string     `json:"avatar_url"`
	UnreadCount int        `json:"unread_count"`
}

type Page struct {
	Screen  string        `json:"screen"`
	Header  Header        `json:"header"`
	Profile model.Profile `json:"profile"`
	Data    interface{}   `json:"data"`
}

type Loader struct {
	screens map[string]Screen
}

func NewLoader(screens ...Screen) *Loader {
	l := &Loader{screens: make(map[string]Screen, len(screens))}
	for _, s := range screens {
		l.screens[s.Name] = s
	}
	return l
}

// FallbackProfile stands in for the profile when the backend cannot serve it.
func FallbackProfile(user model.User) model.Profile {
	return user.Profile()
}

// Load fetches the profile and the screen data concurrently. A profile
// failure falls back to the session user; a screen failure is returned as
// *ScreenError. Nothing is returned once ctx is done.
func (l *Loader) Load(ctx context.Context, sess *session.Session, name string, query url.Values) (Page, error) {
	screen, ok := l.screens[name]
	if !ok {
		return Page{}, fmt.Errorf("%w: %s", ErrUnknownScreen, name)
	}
	user, ok := sess.User()
	if !ok {
		return Page{}, ErrUnauthenticated
	}
	if !screen.allows(user.Role) {
		return Page{}, ErrForbidden
	}

	client := sess.Client()
	var (
		profile model.Profile
		data    interface{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := client.GetProfile(gctx, user.ID)
		if err != nil {
			log.Printf("bootstrap %s: profile fetch failed: %v", name, err)
			profile = FallbackProfile(user)
			return nil
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		out, err := screen.Fetch(gctx, Env{Client: client, User: user, Store: sess.Store(), Query: query})
		if err != nil {
			return &ScreenError{Screen: name, Err: err}
		}
		data = out
		return nil
	})
	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Page{}, ctxErr
	}
	if err != nil {
		return Page{}, err
	}

	return Page{
		Screen: name,
		Header: Header{
			DisplayName: user.DisplayName(),
			Role:        user.Role,
			AvatarURL:   sess.ProfileImageURL(),
			UnreadCount: sess.Unread(),
		},
		Profile: profile,
		Data:    data,
	}, nil
}
