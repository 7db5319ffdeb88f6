package log

import "sync"

// Logger receives protocol events from the transport, wire and service
// layers. Implementations must be safe for concurrent use and must not block;
// a nil Logger disables protocol logging wherever one is accepted.
type Logger interface {
	Log(event Event)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(event Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) {
	f(event)
}

// Recorder keeps every event in memory, in arrival order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Log appends event.
func (r *Recorder) Log(event Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Messages returns the wire-layer message events, optionally limited to one
// direction.
func (r *Recorder) Messages(dir ...Direction) []*MessageEvent {
	var out []*MessageEvent
	for _, e := range r.Events() {
		if e.Message == nil {
			continue
		}
		if len(dir) > 0 && e.Direction != dir[0] {
			continue
		}
		out = append(out, e.Message)
	}
	return out
}

var (
	_ Logger = LoggerFunc(nil)
	_ Logger = (*Recorder)(nil)
)
