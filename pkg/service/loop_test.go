package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/benita-io/benita-go/pkg/command"
	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/benita-io/benita-go/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingEvaluator answers from a table and records every call.
type recordingEvaluator struct {
	replies map[string]string
	errs    map[string]error
	calls   []string
}

func (e *recordingEvaluator) Evaluate(ctx context.Context, line string) (string, error) {
	e.calls = append(e.calls, line)
	if err, ok := e.errs[line]; ok {
		return "", err
	}
	if r, ok := e.replies[line]; ok {
		return r, nil
	}
	return command.NotRecognized, nil
}

// sliceSource yields fixed lines, then err (io.EOF if nil).
type sliceSource struct {
	lines []string
	err   error
}

func (s *sliceSource) ReadLine() (string, error) {
	if len(s.lines) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestRunBatchStatusAndBogus(t *testing.T) {
	l := newLocal(t, sensor.KindTemperature)
	var out bytes.Buffer

	err := RunBatch(context.Background(), l, []string{"status", "bogus"}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "restart reason: powered off, vcc: 5.038V", lines[0])
	assert.Equal(t, command.NotRecognized, lines[1])
}

func TestRunBatchOneLinePerInput(t *testing.T) {
	ev := &recordingEvaluator{
		replies: map[string]string{"a": "1", "c": "3"},
		errs:    map[string]error{"b": fmt.Errorf("%w: device busy", ErrExecution)},
	}
	var out bytes.Buffer

	input := []string{"a", "b", "c", "zzz", ""}
	require.NoError(t, RunBatch(context.Background(), ev, input, &out))

	assert.Equal(t, input, ev.calls)
	assert.Equal(t, "1\nerror: command execution failed: device busy\n3\n"+
		command.NotRecognized+"\n"+command.NotRecognized+"\n", out.String())
}

func TestRunBatchStopsOnClosedConnection(t *testing.T) {
	closed := fmt.Errorf("%w: %w", ErrTransport, transport.ErrConnectionClosed)
	ev := &recordingEvaluator{
		replies: map[string]string{"a": "1"},
		errs:    map[string]error{"b": closed},
	}
	var out bytes.Buffer

	err := RunBatch(context.Background(), ev, []string{"a", "b", "c"}, &out)
	assert.ErrorIs(t, err, transport.ErrConnectionClosed)
	assert.Equal(t, []string{"a", "b"}, ev.calls)
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := &recordingEvaluator{}
	err := RunBatch(ctx, ev, []string{"a"}, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ev.calls)
}

func TestRunInteractiveQuit(t *testing.T) {
	for _, token := range []string{"q", "Q", "exit", "quit", "  quit  "} {
		t.Run(token, func(t *testing.T) {
			ev := &recordingEvaluator{}
			src := &sliceSource{lines: []string{token, "status"}}
			var out bytes.Buffer

			require.NoError(t, RunInteractive(context.Background(), ev, src, &out))
			assert.Empty(t, ev.calls)
			assert.Empty(t, out.String())
		})
	}
}

func TestRunInteractiveReplies(t *testing.T) {
	ev := &recordingEvaluator{
		replies: map[string]string{"read": "7.000"},
		errs:    map[string]error{"find": fmt.Errorf("%w: timeout", ErrExecution)},
	}
	src := &sliceSource{lines: []string{"read", "", "   ", "bogus", "find", "read"}}
	var out bytes.Buffer

	require.NoError(t, RunInteractive(context.Background(), ev, src, &out))
	assert.Equal(t, []string{"read", "bogus", "find", "read"}, ev.calls)
	assert.Equal(t, "[.] 7.000\n[.] "+command.NotRecognized+"\n[!] command execution failed: timeout\n[.] 7.000\n", out.String())
}

func TestRunInteractiveEndings(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "eof", err: io.EOF},
		{name: "interrupt", err: ErrInterrupted},
		{name: "wrapped interrupt", err: fmt.Errorf("readline: %w", ErrInterrupted)},
		{name: "read failure", err: errors.New("tty gone"), wantErr: errors.New("tty gone")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &sliceSource{lines: []string{"read"}, err: tt.err}
			err := RunInteractive(context.Background(), &recordingEvaluator{}, src, io.Discard)
			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRunInteractiveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := &recordingEvaluator{}
	require.NoError(t, RunInteractive(ctx, ev, &sliceSource{lines: []string{"read"}}, io.Discard))
	assert.Empty(t, ev.calls)
}

func TestRunInteractiveStopsOnClosedConnection(t *testing.T) {
	ev := &recordingEvaluator{
		errs: map[string]error{"read": fmt.Errorf("%w: %w", ErrTransport, transport.ErrConnectionClosed)},
	}
	src := &sliceSource{lines: []string{"read", "status"}}

	err := RunInteractive(context.Background(), ev, src, io.Discard)
	assert.ErrorIs(t, err, transport.ErrConnectionClosed)
	assert.Equal(t, []string{"read"}, ev.calls)
}

func TestScannerSource(t *testing.T) {
	src := NewScannerSource(strings.NewReader("status\nread\n"))

	line, err := src.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "status", line)

	line, err = src.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "read", line)

	_, err = src.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestIsQuit(t *testing.T) {
	assert.True(t, IsQuit("q"))
	assert.True(t, IsQuit("exit"))
	assert.False(t, IsQuit("EXIT"))
	assert.False(t, IsQuit("quit now"))
	assert.False(t, IsQuit(""))
}
