package command

import (
	"github.com/benita-io/benita-go/pkg/sensor"
)

// NotRecognized is the reply text for input that matches no descriptor.
const NotRecognized = "command not recognized"

// Command is a parsed, validated command bound to one sensor kind.
type Command interface {
	// Name returns the descriptor name that produced the command.
	Name() string

	// Kind returns the sensor kind the command belongs to.
	Kind() sensor.Kind

	// String returns the canonical text form. Parsing it with the same
	// grammar yields an equivalent command; it is also the wire form.
	String() string
}

// Reply is the result of executing or forwarding a command.
type Reply interface {
	String() string
}

// ParseFunc parses a line into a command. It must be pure.
type ParseFunc func(line string) (Command, bool)

// Descriptor is one entry in a Grammar.
type Descriptor struct {
	Name  string
	Parse ParseFunc
}

// Outcome is the result of dispatching a line. The zero value is the
// unmatched outcome.
type Outcome struct {
	Command Command
}

// Matched reports whether a descriptor accepted the line.
func (o Outcome) Matched() bool {
	return o.Command != nil
}

// Grammar is the ordered descriptor list of one sensor kind.
// A Grammar is immutable after construction and safe for concurrent use.
type Grammar struct {
	kind        sensor.Kind
	descriptors []Descriptor
}

// NewGrammar creates a grammar. The descriptors are copied; declaration order
// is the match order.
func NewGrammar(kind sensor.Kind, descriptors ...Descriptor) *Grammar {
	ds := make([]Descriptor, len(descriptors))
	copy(ds, descriptors)
	return &Grammar{kind: kind, descriptors: ds}
}

// Kind returns the sensor kind of the grammar.
func (g *Grammar) Kind() sensor.Kind {
	return g.kind
}

// Len returns the number of descriptors.
func (g *Grammar) Len() int {
	return len(g.descriptors)
}

// Names returns the descriptor names in match order.
func (g *Grammar) Names() []string {
	names := make([]string, len(g.descriptors))
	for i, d := range g.descriptors {
		names[i] = d.Name
	}
	return names
}

// Dispatch returns the outcome of the first descriptor that accepts line.
func (g *Grammar) Dispatch(line string) Outcome {
	for _, d := range g.descriptors {
		if d.Parse == nil {
			continue
		}
		if cmd, ok := d.Parse(line); ok {
			return Outcome{Command: cmd}
		}
	}
	return Outcome{}
}

// Format renders a reply for display. A nil reply yields NotRecognized.
func Format(r Reply) string {
	if r == nil {
		return NotRecognized
	}
	return r.String()
}
