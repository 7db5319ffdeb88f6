// Package interactive provides the line editor used by benita's interactive
// requester and sensor sessions.
package interactive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/benita-io/benita-go/pkg/service"
	"github.com/chzyer/readline"
)

// HistoryFileName is the default history file, relative to the home directory.
const HistoryFileName = ".benita_history"

// Source reads operator input with line editing and persistent history.
type Source struct {
	rl *readline.Instance
}

// Compile-time interface satisfaction check.
var _ service.LineSource = (*Source)(nil)

// DefaultHistoryPath returns ~/.benita_history, or an empty string when the
// home directory is unknown.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, HistoryFileName)
}

// New creates a line source with the given prompt. An empty history path
// disables history.
func New(prompt, history string) (*Source, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       history,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Source{rl: rl}, nil
}

// ReadLine returns the next line. Ctrl-C yields service.ErrInterrupted and
// Ctrl-D yields io.EOF.
func (s *Source) ReadLine() (string, error) {
	line, err := s.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", service.ErrInterrupted
	case errors.Is(err, io.EOF):
		return "", io.EOF
	case err != nil:
		return "", err
	}
	return line, nil
}

// Stdout returns a writer that does not clobber the prompt.
func (s *Source) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Stderr returns a writer that does not clobber the prompt.
func (s *Source) Stderr() io.Writer {
	return s.rl.Stderr()
}

// Close restores the terminal and flushes history.
func (s *Source) Close() error {
	return s.rl.Close()
}
