package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/benita-io/benita-go/pkg/transport"
)

// Evaluator turns one line of operator input into reply text.
// Implemented by Local and Requester.
type Evaluator interface {
	Evaluate(ctx context.Context, line string) (string, error)
}

// LineSource yields operator input one line at a time. ReadLine returns
// io.EOF at end of input and ErrInterrupted when the operator interrupts.
type LineSource interface {
	ReadLine() (string, error)
}

// Compile-time interface satisfaction checks.
var (
	_ Evaluator = (*Local)(nil)
	_ Evaluator = (*Requester)(nil)
)

// RunBatch evaluates lines in order and writes exactly one output line per
// input line. A failed command is reported as "error: ..." and the batch
// continues, unless the connection to the responder is gone.
func RunBatch(ctx context.Context, ev Evaluator, lines []string, w io.Writer) error {
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		reply, err := ev.Evaluate(ctx, line)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			if errors.Is(err, transport.ErrConnectionClosed) {
				return err
			}
			continue
		}
		fmt.Fprintln(w, reply)
	}
	return nil
}

// quitTokens end an interactive session.
var quitTokens = map[string]bool{
	"q":    true,
	"Q":    true,
	"exit": true,
	"quit": true,
}

// IsQuit reports whether line is a quit token.
func IsQuit(line string) bool {
	return quitTokens[strings.TrimSpace(line)]
}

// RunInteractive reads lines from src and prints each reply as "[.] reply"
// until a quit token, end of input, an interrupt or ctx cancellation.
func RunInteractive(ctx context.Context, ev Evaluator, src LineSource, w io.Writer) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := src.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrInterrupted) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsQuit(line) {
			return nil
		}

		reply, err := ev.Evaluate(ctx, line)
		if err != nil {
			fmt.Fprintf(w, "[!] %v\n", err)
			if errors.Is(err, transport.ErrConnectionClosed) {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "[.] %s\n", reply)
	}
}

// ScannerSource is a LineSource over a reader, for piped input.
type ScannerSource struct {
	scanner *bufio.Scanner
}

// NewScannerSource creates a line source reading from r.
func NewScannerSource(r io.Reader) *ScannerSource {
	return &ScannerSource{scanner: bufio.NewScanner(r)}
}

// ReadLine returns the next line, or io.EOF.
func (s *ScannerSource) ReadLine() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
