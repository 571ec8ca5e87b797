package reactive

// Listener is anything that can be notified when a signal it subscribed to
// changes. Notifications carry no payload; listeners re-read the signals
// they care about.
type Listener interface {
	// MarkDirty notifies the listener that a subscribed signal has changed.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication of subscriptions.
	ID() uint64
}

// Cancel removes a previously registered subscription.
// Calling it more than once is harmless.
type Cancel func()

// funcListener adapts a plain function to the Listener interface.
type funcListener struct {
	id uint64
	fn func()
}

func (l *funcListener) MarkDirty() { l.fn() }
func (l *funcListener) ID() uint64 { return l.id }
