package ezo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/benita-io/benita-go/pkg/command"
)

// ErrUnexpectedReply indicates a circuit answer that does not fit the command.
var ErrUnexpectedReply = errors.New("ezo: unexpected reply")

func unexpected(answer string) error {
	return fmt.Errorf("%w: %q", ErrUnexpectedReply, answer)
}

// Ack is the reply of commands that only change circuit state.
type Ack struct{}

func (Ack) String() string { return "ok" }

// Reading holds the values of a read command, in the circuit's order.
type Reading struct {
	Values []float64
	text   string
}

func (r Reading) String() string {
	if r.text != "" {
		return r.text
	}
	parts := make([]string, len(r.Values))
	for i, v := range r.Values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Info is the device information reply.
type Info struct {
	Device   string
	Firmware string
}

func (i Info) String() string {
	return fmt.Sprintf("device: %s, firmware: %s", i.Device, i.Firmware)
}

// Status is the status reply.
type Status struct {
	RestartReason string
	Vcc           float64
}

func (s Status) String() string {
	return fmt.Sprintf("restart reason: %s, vcc: %sV", s.RestartReason,
		strconv.FormatFloat(s.Vcc, 'f', -1, 64))
}

// Query is the reply of a "?" query such as L,? or Cal,?.
type Query struct {
	Label  string
	Values []string
}

func (q Query) String() string {
	return fmt.Sprintf("%s: %s", q.Label, strings.Join(q.Values, ","))
}

// Slope is the pH probe slope reply, in percent of an ideal probe.
// Neutral is the zero point offset in millivolts, when reported.
type Slope struct {
	Acid    float64
	Base    float64
	Neutral *float64
}

func (s Slope) String() string {
	out := fmt.Sprintf("acid: %s%%, base: %s%%",
		strconv.FormatFloat(s.Acid, 'f', -1, 64),
		strconv.FormatFloat(s.Base, 'f', -1, 64))
	if s.Neutral != nil {
		out += fmt.Sprintf(", neutral: %smV", strconv.FormatFloat(*s.Neutral, 'f', -1, 64))
	}
	return out
}

// MemoryEntry is one stored temperature reading.
type MemoryEntry struct {
	Index int
	Value float64
}

// Memory is the reply of the memory recall commands.
type Memory struct {
	Entries []MemoryEntry
}

func (m Memory) String() string {
	if len(m.Entries) == 0 {
		return "empty"
	}
	parts := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		parts[i] = fmt.Sprintf("%d: %s", e.Index, strconv.FormatFloat(e.Value, 'f', -1, 64))
	}
	return strings.Join(parts, ", ")
}

// Exported is a raw text reply, such as a calibration export chunk.
type Exported struct {
	Text string
}

func (e Exported) String() string {
	return e.Text
}

func ackReply(string) (command.Reply, error) {
	return Ack{}, nil
}

func rawReply(answer string) (command.Reply, error) {
	if answer == "" {
		return nil, unexpected(answer)
	}
	return Exported{Text: answer}, nil
}

func readingReply(answer string) (command.Reply, error) {
	fields := strings.Split(answer, ",")
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, unexpected(answer)
		}
		values = append(values, v)
	}
	return Reading{Values: values, text: answer}, nil
}

// splitQuery splits "?LABEL,a,b" after checking the label.
func splitQuery(answer, label string) ([]string, bool) {
	fields := strings.Split(answer, ",")
	if len(fields) < 2 || !strings.EqualFold(fields[0], "?"+label) {
		return nil, false
	}
	return fields[1:], true
}

func infoReply(answer string) (command.Reply, error) {
	fields, ok := splitQuery(answer, "I")
	if !ok || len(fields) != 2 {
		return nil, unexpected(answer)
	}
	return Info{Device: fields[0], Firmware: fields[1]}, nil
}

var restartReasons = map[string]string{
	"P": "powered off",
	"S": "software reset",
	"B": "brown out",
	"W": "watchdog",
	"U": "unknown",
}

func statusReply(answer string) (command.Reply, error) {
	fields, ok := splitQuery(answer, "STATUS")
	if !ok || len(fields) != 2 {
		return nil, unexpected(answer)
	}
	reason, ok := restartReasons[strings.ToUpper(fields[0])]
	if !ok {
		return nil, unexpected(answer)
	}
	vcc, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, unexpected(answer)
	}
	return Status{RestartReason: reason, Vcc: vcc}, nil
}

// queryReply parses "?LABEL,..." and renders values with mapValue.
func queryReply(label, display string, mapValue func(string) (string, bool)) replyFunc {
	return func(answer string) (command.Reply, error) {
		fields, ok := splitQuery(answer, label)
		if !ok {
			return nil, unexpected(answer)
		}
		values := make([]string, 0, len(fields))
		for _, f := range fields {
			v := f
			if mapValue != nil {
				if v, ok = mapValue(f); !ok {
					return nil, unexpected(answer)
				}
			}
			values = append(values, v)
		}
		return Query{Label: display, Values: values}, nil
	}
}

func onOff(v string) (string, bool) {
	switch v {
	case "1":
		return "on", true
	case "0":
		return "off", true
	}
	return "", false
}

func number(v string) (string, bool) {
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		return "", false
	}
	return v, true
}

var scaleNames = map[string]string{
	"c": "celsius",
	"f": "fahrenheit",
	"k": "kelvin",
}

func scaleName(v string) (string, bool) {
	name, ok := scaleNames[strings.ToLower(v)]
	return name, ok
}

// outputReply accepts "?O,EC,TDS" and a bare "?O" when every parameter is
// disabled.
func outputReply(answer string) (command.Reply, error) {
	fields, ok := splitQuery(answer, "O")
	if !ok {
		if strings.EqualFold(answer, "?O") {
			return Query{Label: "outputs", Values: []string{"none"}}, nil
		}
		return nil, unexpected(answer)
	}
	return Query{Label: "outputs", Values: fields}, nil
}

func slopeReply(answer string) (command.Reply, error) {
	fields, ok := splitQuery(answer, "SLOPE")
	if !ok || len(fields) < 2 || len(fields) > 3 {
		return nil, unexpected(answer)
	}
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, unexpected(answer)
		}
		values[i] = v
	}
	s := Slope{Acid: values[0], Base: values[1]}
	if len(values) == 3 {
		s.Neutral = &values[2]
	}
	return s, nil
}

// memoryReply parses "index,value" pairs.
func memoryReply(answer string) (command.Reply, error) {
	fields := strings.Split(answer, ",")
	if len(fields)%2 != 0 {
		return nil, unexpected(answer)
	}
	var m Memory
	for i := 0; i < len(fields); i += 2 {
		idx, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, unexpected(answer)
		}
		v, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, unexpected(answer)
		}
		if idx == 0 {
			continue
		}
		m.Entries = append(m.Entries, MemoryEntry{Index: idx, Value: v})
	}
	return m, nil
}
