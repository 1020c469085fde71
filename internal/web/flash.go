package web

import (
	"sync"

	"pressdesk.org/internal/ids"
)

// flash is one transient toast message, rendered once then dropped.
type flash struct {
	ID      string
	Level   string // success, error, warning
	Message string
}

// flashStore keeps pending toasts per browser session. Toasts are
// transient by definition, so memory is the right home even when
// sessions themselves live in Postgres.
type flashStore struct {
	mu      sync.Mutex
	pending map[string][]flash
}

func newFlashStore() *flashStore {
	return &flashStore{pending: make(map[string][]flash)}
}

func (fs *flashStore) push(sid, level, msg string) {
	if sid == "" || msg == "" {
		return
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.pending[sid] = append(fs.pending[sid], flash{ID: ids.New(), Level: level, Message: msg})
}

// drain returns and clears the session's pending toasts.
func (fs *flashStore) drain(sid string) []flash {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := fs.pending[sid]
	delete(fs.pending, sid)
	return out
}

// sessionNotifier adapts the flash store to the crud.Notifier interface.
type sessionNotifier struct {
	flashes *flashStore
	sid     string
}

func (n sessionNotifier) Success(msg string) { n.flashes.push(n.sid, "success", msg) }
func (n sessionNotifier) Error(msg string)   { n.flashes.push(n.sid, "error", msg) }
func (n sessionNotifier) Warn(msg string)    { n.flashes.push(n.sid, "warning", msg) }
