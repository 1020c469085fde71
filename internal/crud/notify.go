package crud

// Notifier receives the transient feedback messages screens emit. The
// web layer backs it with session flashes rendered as toasts; tests use
// a recorder.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Warn(msg string)
}

// NopNotifier drops all messages.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}
func (NopNotifier) Warn(string)    {}
