// Command benita-log views and analyzes benita protocol capture files.
//
// Capture files are written by benita req and rep with -protocol-log.
//
// Usage:
//
//	benita-log <command> [flags] <file>
//
// Commands:
//
//	view     View the capture in human-readable form
//	stats    Show statistics about the capture
//	export   Export the capture as JSON lines or CSV
//	filter   Copy matching events into a new capture file
//
// Examples:
//
//	# View only wire-layer events
//	benita-log view -layer wire rep.blog
//
//	# Responder statistics for pH
//	benita-log stats -kind ph rep.blog
//
//	# Export requests and replies to JSONL
//	benita-log export -category message -format jsonl rep.blog
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/benita-io/benita-go/cmd/benita-log/commands"
)

const usage = `benita-log - benita protocol capture analyzer

Usage:
  benita-log <command> [flags] <file>

Commands:
  view     View the capture in human-readable form
  stats    Show statistics about the capture
  export   Export the capture as JSON lines or CSV
  filter   Copy matching events into a new capture file

Use "benita-log <command> -help" for more information about a command.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "view":
		err = runView(rest, stdout, stderr)
	case "stats":
		err = runStats(rest, stdout, stderr)
	case "export":
		err = runExport(rest, stdout, stderr)
	case "filter":
		err = runFilter(rest, stdout, stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(stderr, usage)
		return 2
	}

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

var errUsage = errors.New("usage error")

// newFlagSet creates a command flag set with the common filter flags bound
// to filter.
func newFlagSet(name, synopsis string, filter *commands.FilterFlags, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n  benita-log %s %s\n\nFlags:\n", name, synopsis)
		fs.PrintDefaults()
	}
	fs.StringVar(&filter.ConnID, "conn-id", "", "Filter by connection ID")
	fs.StringVar(&filter.Kind, "kind", "", "Filter by sensor kind (conductivity, ph, temperature)")
	fs.StringVar(&filter.Role, "role", "", "Filter by local role (requester, responder)")
	fs.StringVar(&filter.Layer, "layer", "", "Filter by layer (transport, wire, service)")
	fs.StringVar(&filter.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&filter.Category, "category", "", "Filter by category (message, state, error)")
	fs.StringVar(&filter.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&filter.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return fs
}

// parse parses args and returns the capture file path.
func parse(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", fmt.Errorf("%w: exactly one log file path required", errUsage)
	}
	return fs.Arg(0), nil
}

func runView(args []string, stdout, stderr io.Writer) error {
	var ff commands.FilterFlags
	fs := newFlagSet("view", "[flags] <file>", &ff, stderr)
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	filter, err := ff.Build()
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return commands.RunView(path, filter, stdout)
}

func runStats(args []string, stdout, stderr io.Writer) error {
	var ff commands.FilterFlags
	fs := newFlagSet("stats", "[flags] <file>", &ff, stderr)
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	filter, err := ff.Build()
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return commands.RunStats(path, filter, stdout)
}

func runExport(args []string, stdout, stderr io.Writer) error {
	var ff commands.FilterFlags
	fs := newFlagSet("export", "[flags] <file>", &ff, stderr)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	filter, err := ff.Build()
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return commands.RunExport(path, *format, *output, filter, stdout)
}

func runFilter(args []string, stdout, stderr io.Writer) error {
	var ff commands.FilterFlags
	fs := newFlagSet("filter", "-o <out> [flags] <file>", &ff, stderr)
	output := fs.String("o", "", "Output file (required)")
	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("%w: output file (-o) required", errUsage)
	}
	filter, err := ff.Build()
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	n, err := commands.RunFilter(path, *output, filter)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Filtered %d events to %s\n", n, *output)
	return nil
}
