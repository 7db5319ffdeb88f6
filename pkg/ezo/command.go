package ezo

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/benita-io/benita-go/pkg/command"
	"github.com/benita-io/benita-go/pkg/driver"
	"github.com/benita-io/benita-go/pkg/sensor"
)

// Processing delays from the EZO datasheets.
const (
	waitDefault = 300 * time.Millisecond
	waitRead    = 600 * time.Millisecond
	waitSlow    = 900 * time.Millisecond
)

// maxTextArg bounds text arguments so every command fits a request envelope.
const maxTextArg = 512

// Transactor performs one command transaction with a circuit.
// driver.Device satisfies it.
type Transactor interface {
	Transact(ctx context.Context, req driver.Request) (string, error)
}

// argKind is the type of a command's single argument.
type argKind uint8

const (
	argNone argKind = iota
	argFloat
	argUint
	argText
)

// replyFunc parses a circuit answer.
type replyFunc func(answer string) (command.Reply, error)

// def describes one command.
type def struct {
	name   string
	arg    argKind
	device string // fmt verb %s receives the argument
	wait   time.Duration
	reply  replyFunc // nil: the circuit does not answer
}

// Command is a parsed EZO command.
type Command struct {
	kind sensor.Kind
	def  *def
	arg  string
}

var _ command.Command = Command{}

// Name returns the command keyword.
func (c Command) Name() string {
	return c.def.name
}

// Kind returns the sensor kind of the grammar that parsed the command.
func (c Command) Kind() sensor.Kind {
	return c.kind
}

// Arg returns the canonical argument, or "" if the command takes none.
func (c Command) Arg() string {
	return c.arg
}

// String returns the canonical text form.
func (c Command) String() string {
	if c.def.arg == argNone {
		return c.def.name
	}
	return c.def.name + " " + c.arg
}

// DeviceCommand returns the ASCII command sent to the circuit.
func (c Command) DeviceCommand() string {
	if c.def.arg == argNone {
		return c.def.device
	}
	return fmt.Sprintf(c.def.device, c.arg)
}

// Request returns the driver transaction for the command.
func (c Command) Request() driver.Request {
	wait := c.def.wait
	if wait == 0 {
		wait = waitDefault
	}
	return driver.Request{
		Command: c.DeviceCommand(),
		Wait:    wait,
		NoReply: c.def.reply == nil,
	}
}

// Execute runs the command on t and parses the answer.
func (c Command) Execute(ctx context.Context, t Transactor) (command.Reply, error) {
	answer, err := t.Transact(ctx, c.Request())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.def.name, err)
	}
	if c.def.reply == nil {
		return Ack{}, nil
	}
	reply, err := c.def.reply(answer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.def.name, err)
	}
	return reply, nil
}

// descriptor builds the grammar entry for d.
func (d *def) descriptor(kind sensor.Kind) command.Descriptor {
	return command.Descriptor{
		Name: d.name,
		Parse: func(line string) (command.Command, bool) {
			arg, ok := d.parse(line)
			if !ok {
				return nil, false
			}
			return Command{kind: kind, def: d, arg: arg}, true
		},
	}
}

// parse matches line against d and returns the canonical argument.
func (d *def) parse(line string) (string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.EqualFold(fields[0], d.name) {
		return "", false
	}

	if d.arg == argNone {
		return "", len(fields) == 1
	}
	if len(fields) != 2 {
		return "", false
	}

	switch d.arg {
	case argFloat:
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case argUint:
		v, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return "", false
		}
		return strconv.FormatUint(v, 10), true
	case argText:
		if len(fields[1]) > maxTextArg || strings.ContainsRune(fields[1], 0) {
			return "", false
		}
		return fields[1], true
	}
	return "", false
}
