// Package crud implements the one list/add/edit interaction pattern all
// admin screens share, parameterized by an entity descriptor. It
// replaces the near-identical per-entity screen code the console would
// otherwise accumulate.
package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"pressdesk.org/internal/cms"
	"pressdesk.org/internal/gateway"
)

// Record is one entity row as returned by the upstream API. Screens
// only need the id and a few display fields, so rows stay schemaless;
// shape expectations belong to the upstream contract.
type Record map[string]any

// ID returns the record's server-assigned identifier as a string.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

// Str returns a string field, or "" when absent or differently typed.
func (r Record) Str(key string) string {
	v, _ := r[key].(string)
	return v
}

// List is the generic list-screen controller: fetch on load, optimistic
// local removal on a confirmed delete. Its state lives for one screen
// render; nothing is shared across navigations.
type List struct {
	desc   cms.Descriptor
	api    *gateway.Client
	notify Notifier
	token  string

	loading bool
	items   []Record
}

// NewList builds a list controller for one entity type. The bearer
// token is attached by the controller on every call; the gateway itself
// never injects it.
func NewList(desc cms.Descriptor, api *gateway.Client, notify Notifier, token string) *List {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &List{desc: desc, api: api, notify: notify, token: token, loading: true}
}

// Load fetches the collection and replaces the local items. A failure
// leaves the list empty; callers log it and render the empty state.
func (l *List) Load(ctx context.Context) error {
	defer func() { l.loading = false }()
	raw, err := l.api.Get(ctx, l.desc.CollectionPath, gateway.WithBearer(l.token))
	if err != nil {
		l.items = nil
		return err
	}
	items, err := unwrapList(raw, l.desc.CollectionKey)
	if err != nil {
		l.items = nil
		return err
	}
	l.items = items
	return nil
}

// Items returns the current local sequence.
func (l *List) Items() []Record { return l.items }

// Loading reports whether the initial fetch is still pending.
func (l *List) Loading() bool { return l.loading }

// Delete removes one record upstream and, on success, drops it from the
// local sequence by id match without refetching. On failure the
// sequence is left untouched and the failure is not retried. The caller
// must have collected the operator's confirmation before calling.
func (l *List) Delete(ctx context.Context, id string) error {
	_, err := l.api.Delete(ctx, l.desc.ItemPath(id), gateway.WithBearer(l.token))
	if err != nil {
		l.notify.Error(userMessage(err, "delete failed"))
		return err
	}
	kept := make([]Record, 0, len(l.items))
	for _, item := range l.items {
		if item.ID() != id {
			kept = append(kept, item)
		}
	}
	l.items = kept
	l.notify.Success(fmt.Sprintf("%s %s deleted", l.desc.Name, id))
	return nil
}

func unwrapList(raw json.RawMessage, key string) ([]Record, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("crud: decode collection: %w", err)
	}
	body, ok := envelope[key]
	if !ok {
		return nil, fmt.Errorf("crud: response missing %q", key)
	}
	var items []Record
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("crud: decode %q: %w", key, err)
	}
	return items, nil
}

// userMessage turns a gateway failure into the toast text shown to the
// operator, preferring the upstream's own message.
func userMessage(err error, fallback string) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
