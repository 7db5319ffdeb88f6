package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
)

// Mode selects what a benita process does for its sensor kind.
type Mode string

const (
	ModeRequest Mode = "req"
	ModeRespond Mode = "rep"
	ModeSensor  Mode = "sensor"
)

// errUsage marks command-line mistakes; they exit with status 2.
var errUsage = errors.New("usage error")

const usage = `benita - EZO sensor request/reply tool

Usage:
  benita [global flags] <conductivity|ph|temperature> <mode> [flags] [args]

Modes:
  req    [-c CMD]... [URL]                   send commands to a responder
  rep    [flags] [URL PATH ADDRESS]          serve a local device
  sensor [-c CMD]... [PATH ADDRESS]          drive a local device directly

Without -c, req and sensor start an interactive session (quit with q or exit).
Missing arguments fall back to <KIND>_REQ_URL, <KIND>_REP_URL, <KIND>_REP_PATH
and <KIND>_REP_ADDRESS, then to the config file.

Global flags:
`

// stringSlice collects a repeatable string flag.
type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// invocation is a parsed command line.
type invocation struct {
	ConfigFile string
	EnvFile    string
	LogLevel   string

	Kind sensor.Kind
	Mode Mode

	Commands []string
	History  string

	URL     string
	Path    string
	Address string

	ProtocolLog   string
	MetricsAddr   string
	Advertise     bool
	Discover      bool
	Interface     string
	Simulate      bool
	Quiescence    time.Duration
	QuiescenceSet bool
}

// Batch reports whether commands were given with -c.
func (inv *invocation) Batch() bool {
	return len(inv.Commands) > 0
}

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// parseArgs parses the command line without the program name. It returns
// flag.ErrHelp when help was requested.
func parseArgs(args []string, stderr io.Writer) (*invocation, error) {
	inv := &invocation{}

	fs := flag.NewFlagSet("benita", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&inv.ConfigFile, "config", "", "Configuration file path (YAML)")
	fs.StringVar(&inv.EnvFile, "env-file", ".env", "Environment file loaded before resolving settings")
	fs.StringVar(&inv.LogLevel, "log-level", "", "Log level: debug, info, warn, error (default from config, else info)")

	if err := fs.Parse(args); err != nil {
		return nil, flagError(err)
	}

	rest := fs.Args()
	if len(rest) < 2 {
		fs.Usage()
		return nil, usageErrorf("sensor kind and mode are required")
	}

	kind, err := sensor.ParseKind(rest[0])
	if err != nil {
		return nil, usageErrorf("%v", err)
	}
	inv.Kind = kind
	inv.Mode = Mode(rest[1])

	switch inv.Mode {
	case ModeRequest:
		err = parseRequest(inv, rest[2:], stderr)
	case ModeRespond:
		err = parseRespond(inv, rest[2:], stderr)
	case ModeSensor:
		err = parseSensor(inv, rest[2:], stderr)
	default:
		return nil, usageErrorf("unknown mode %q (use: req, rep, sensor)", rest[1])
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func flagError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", errUsage, err)
}

func newModeFlagSet(inv *invocation, synopsis string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(string(inv.Mode), flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n  benita %s %s %s\n\nFlags:\n", inv.Kind, inv.Mode, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// parseInterleaved parses args with fs, allowing flags before, between and
// after positional arguments. It returns the positionals in order.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, flagError(err)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return pos, nil
		}
		// Parse consumes a "--" terminator; everything after it is positional.
		if len(rest) < len(args) && args[len(args)-len(rest)-1] == "--" {
			return append(pos, rest...), nil
		}
		pos = append(pos, rest[0])
		args = rest[1:]
	}
}

// positional parses args and assigns the positionals to targets in order,
// failing on extras.
func positional(fs *flag.FlagSet, args []string, targets ...*string) error {
	pos, err := parseInterleaved(fs, args)
	if err != nil {
		return err
	}
	if len(pos) > len(targets) {
		fs.Usage()
		return usageErrorf("unexpected argument %q", pos[len(targets)])
	}
	for i, a := range pos {
		*targets[i] = a
	}
	return nil
}

func parseRequest(inv *invocation, args []string, stderr io.Writer) error {
	fs := newModeFlagSet(inv, "[-c CMD]... [URL]", stderr)
	commands := (*stringSlice)(&inv.Commands)
	fs.Var(commands, "c", "Command to send; repeat for a batch")
	fs.StringVar(&inv.History, "history", "", "Interactive history file (default ~/.benita_history)")
	fs.StringVar(&inv.ProtocolLog, "protocol-log", "", "Write a protocol capture to this file")
	fs.BoolVar(&inv.Discover, "discover", false, "Find the responder via mDNS when no URL is configured")
	fs.StringVar(&inv.Interface, "interface", "", "Network interface for -discover (default: all)")

	return positional(fs, args, &inv.URL)
}

func parseRespond(inv *invocation, args []string, stderr io.Writer) error {
	fs := newModeFlagSet(inv, "[flags] [URL PATH ADDRESS]", stderr)
	fs.StringVar(&inv.ProtocolLog, "protocol-log", "", "Write a protocol capture to this file")
	fs.StringVar(&inv.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
	fs.BoolVar(&inv.Advertise, "advertise", false, "Advertise the responder via mDNS (tcp only)")
	fs.StringVar(&inv.Interface, "interface", "", "Network interface for -advertise (default: all)")
	fs.DurationVar(&inv.Quiescence, "quiescence", 0, "Pause after each reply (default from config, else 100ms)")
	fs.BoolVar(&inv.Simulate, "simulate", false, "Use the in-process simulator instead of hardware")

	if err := positional(fs, args, &inv.URL, &inv.Path, &inv.Address); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "quiescence" {
			inv.QuiescenceSet = true
		}
	})
	if inv.QuiescenceSet && inv.Quiescence < 0 {
		return usageErrorf("negative quiescence %s", inv.Quiescence)
	}
	return nil
}

func parseSensor(inv *invocation, args []string, stderr io.Writer) error {
	fs := newModeFlagSet(inv, "[-c CMD]... [PATH ADDRESS]", stderr)
	commands := (*stringSlice)(&inv.Commands)
	fs.Var(commands, "c", "Command to run; repeat for a batch")
	fs.StringVar(&inv.History, "history", "", "Interactive history file (default ~/.benita_history)")
	fs.BoolVar(&inv.Simulate, "simulate", false, "Use the in-process simulator instead of hardware")

	return positional(fs, args, &inv.Path, &inv.Address)
}
