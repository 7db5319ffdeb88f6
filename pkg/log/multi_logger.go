package log

// MultiLogger fans each event out to several sinks, typically a capture file
// and an SlogAdapter.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger returns a MultiLogger over sinks. Nil sinks are skipped.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Log passes event to every sink in order.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

// Len returns the number of sinks.
func (m *MultiLogger) Len() int {
	return len(m.sinks)
}

// Combine merges sinks into one Logger. It returns nil when every sink is
// nil and the sink itself when only one remains.
func Combine(sinks ...Logger) Logger {
	m := NewMultiLogger(sinks...)
	switch m.Len() {
	case 0:
		return nil
	case 1:
		return m.sinks[0]
	default:
		return m
	}
}

var _ Logger = (*MultiLogger)(nil)
