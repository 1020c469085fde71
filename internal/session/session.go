// Package session owns the per-browser-session state of the console:
// the bearer token for the upstream CMS API and the operator's language
// preference. It is the single source of truth for "is someone logged
// in" — user id, roles and expiry are always re-derived from the token
// so they can never go stale.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// DefaultLanguage is used until the operator picks one explicitly.
const DefaultLanguage = "en"

// ErrUnsupportedLanguage rejects language values outside the configured set.
var ErrUnsupportedLanguage = errors.New("session: unsupported language")

// Record is one browser session's persisted state. An empty Token means
// logged out; an absent session id reads as a zero Record.
type Record struct {
	Token    string
	Language string
}

// Lang returns the stored language preference, defaulting to English.
func (r Record) Lang() string {
	if r.Language == "" {
		return DefaultLanguage
	}
	return r.Language
}

// Store persists session records keyed by the browser session id.
type Store interface {
	Get(ctx context.Context, sid string) (Record, error)
	SetToken(ctx context.Context, sid, token string) error
	ClearToken(ctx context.Context, sid string) error
	SetLanguage(ctx context.Context, sid, lang string) error
}

// NormalizeLanguage validates a requested language against the
// configured set and returns its canonical lower-case form.
func NormalizeLanguage(lang string, supported []string) (string, error) {
	lang = strings.TrimSpace(strings.ToLower(lang))
	for _, s := range supported {
		if lang == s {
			return lang, nil
		}
	}
	return "", ErrUnsupportedLanguage
}

// Watched decorates a Store and invokes registered watchers after every
// token mutation, so components react to login/logout instead of
// re-reading storage ad hoc.
type Watched struct {
	Store

	mu       sync.Mutex
	watchers []func(sid string)
}

// NewWatched wraps a backing store with change notification.
func NewWatched(s Store) *Watched {
	return &Watched{Store: s}
}

// Watch registers fn to be called with the session id after any token
// change. Watchers run synchronously on the mutating goroutine.
func (w *Watched) Watch(fn func(sid string)) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watchers = append(w.watchers, fn)
}

// SetToken stores the token and notifies watchers.
func (w *Watched) SetToken(ctx context.Context, sid, token string) error {
	if err := w.Store.SetToken(ctx, sid, token); err != nil {
		return err
	}
	w.notify(sid)
	return nil
}

// ClearToken removes the token and notifies watchers.
func (w *Watched) ClearToken(ctx context.Context, sid string) error {
	if err := w.Store.ClearToken(ctx, sid); err != nil {
		return err
	}
	w.notify(sid)
	return nil
}

func (w *Watched) notify(sid string) {
	w.mu.Lock()
	watchers := make([]func(string), len(w.watchers))
	copy(watchers, w.watchers)
	w.mu.Unlock()
	for _, fn := range watchers {
		fn(sid)
	}
}
