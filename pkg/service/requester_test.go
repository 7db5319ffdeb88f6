package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/benita-io/benita-go/pkg/command"
	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/benita-io/benita-go/pkg/transport"
	"github.com/benita-io/benita-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRequestSocket struct {
	mock.Mock
}

func (m *mockRequestSocket) Send(ctx context.Context, data []byte) error {
	return m.Called(ctx, data).Error(0)
}

func (m *mockRequestSocket) Receive(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockRequestSocket) Close() error {
	return m.Called().Error(0)
}

func encodeResponse(t *testing.T, id uint32, status wire.Status, text string) []byte {
	t.Helper()
	data, err := wire.EncodeResponse(&wire.Response{MessageID: id, Status: status, Text: text})
	require.NoError(t, err)
	return data
}

// sentRequest matches a frame that decodes to the given request.
func sentRequest(want wire.Request) any {
	return mock.MatchedBy(func(data []byte) bool {
		got, err := wire.DecodeRequest(data)
		return err == nil && *got == want
	})
}

func TestRequesterUnrecognizedSendsNothing(t *testing.T) {
	sock := &mockRequestSocket{}
	r := newRequester(sensor.KindPH, sock, RequesterConfig{})

	for _, line := range []string{"bogus", "", "read twice", "import " + strings.Repeat("x", 1100)} {
		reply, err := r.Evaluate(context.Background(), line)
		require.NoError(t, err)
		assert.Equal(t, command.NotRecognized, reply)
	}
	sock.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	sock.AssertNotCalled(t, "Receive", mock.Anything)
}

func TestRequesterForwardsCanonicalText(t *testing.T) {
	sock := &mockRequestSocket{}
	r := newRequester(sensor.KindPH, sock, RequesterConfig{})
	ctx := context.Background()

	sock.On("Send", ctx, sentRequest(wire.Request{MessageID: 1, Kind: sensor.KindPH, Command: "calibration_mid 7"})).Return(nil).Once()
	sock.On("Receive", ctx).Return(encodeResponse(t, 1, wire.StatusOK, "ok"), nil).Once()
	sock.On("Send", ctx, sentRequest(wire.Request{MessageID: 2, Kind: sensor.KindPH, Command: "read"})).Return(nil).Once()
	sock.On("Receive", ctx).Return(encodeResponse(t, 2, wire.StatusOK, "7.000"), nil).Once()

	reply, err := r.Evaluate(ctx, "  CALIBRATION_MID 7.0 ")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)

	reply, err = r.Evaluate(ctx, "read")
	require.NoError(t, err)
	assert.Equal(t, "7.000", reply)

	sock.AssertExpectations(t)
}

func TestRequesterStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  wire.Status
		text    string
		want    string
		wantErr error
	}{
		{name: "ok", status: wire.StatusOK, text: "7.000", want: "7.000"},
		{name: "not recognized", status: wire.StatusNotRecognized, text: command.NotRecognized, want: command.NotRecognized},
		{name: "execution failed", status: wire.StatusExecutionFailed, text: command.NotRecognized, want: command.NotRecognized},
		{name: "kind mismatch", status: wire.StatusKindMismatch, text: "responder serves ph", wantErr: ErrRemote},
		{name: "invalid request", status: wire.StatusInvalidRequest, text: "bad", wantErr: ErrRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sock := &mockRequestSocket{}
			sock.On("Send", mock.Anything, mock.Anything).Return(nil)
			sock.On("Receive", mock.Anything).Return(encodeResponse(t, 1, tt.status, tt.text), nil)
			r := newRequester(sensor.KindPH, sock, RequesterConfig{})

			got, err := r.Evaluate(context.Background(), "read")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// echoCommand forwards its line verbatim.
type echoCommand string

func (c echoCommand) Name() string      { return "echo" }
func (c echoCommand) Kind() sensor.Kind { return sensor.KindPH }
func (c echoCommand) String() string    { return string(c) }

func TestRequesterEncodeFailureSendsNothing(t *testing.T) {
	sock := &mockRequestSocket{}
	r := newRequester(sensor.KindPH, sock, RequesterConfig{})
	r.grammar = command.NewGrammar(sensor.KindPH, command.Descriptor{
		Name:  "echo",
		Parse: func(line string) (command.Command, bool) { return echoCommand(line), true },
	})

	_, err := r.Evaluate(context.Background(), strings.Repeat("x", wire.MaxCommandLength+1))
	assert.ErrorIs(t, err, ErrEncode)
	assert.NotErrorIs(t, err, ErrTransport)
	sock.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRequesterTransportErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("send", func(t *testing.T) {
		sock := &mockRequestSocket{}
		sock.On("Send", ctx, mock.Anything).Return(transport.ErrConnectionClosed)
		r := newRequester(sensor.KindPH, sock, RequesterConfig{})

		_, err := r.Evaluate(ctx, "read")
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, transport.ErrConnectionClosed)
		sock.AssertNotCalled(t, "Receive", mock.Anything)
	})

	t.Run("receive", func(t *testing.T) {
		sock := &mockRequestSocket{}
		sock.On("Send", ctx, mock.Anything).Return(nil)
		sock.On("Receive", ctx).Return(nil, errors.New("reset by peer"))
		r := newRequester(sensor.KindPH, sock, RequesterConfig{})

		_, err := r.Evaluate(ctx, "read")
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("garbage reply", func(t *testing.T) {
		sock := &mockRequestSocket{}
		sock.On("Send", ctx, mock.Anything).Return(nil)
		sock.On("Receive", ctx).Return([]byte{0xFF, 0x00}, nil)
		r := newRequester(sensor.KindPH, sock, RequesterConfig{})

		_, err := r.Evaluate(ctx, "read")
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("wrong message id", func(t *testing.T) {
		sock := &mockRequestSocket{}
		sock.On("Send", ctx, mock.Anything).Return(nil)
		sock.On("Receive", ctx).Return(encodeResponse(t, 42, wire.StatusOK, "7.000"), nil)
		r := newRequester(sensor.KindPH, sock, RequesterConfig{})

		_, err := r.Evaluate(ctx, "read")
		assert.ErrorIs(t, err, ErrTransport)
	})
}

func TestRequesterMessageIDSkipsReserved(t *testing.T) {
	r := newRequester(sensor.KindPH, &mockRequestSocket{}, RequesterConfig{})
	r.nextID = ^uint32(0)

	assert.Equal(t, ^uint32(0), r.allocID())
	assert.Equal(t, uint32(1), r.allocID())
}

func TestRequesterClose(t *testing.T) {
	sock := &mockRequestSocket{}
	sock.On("Close").Return(nil).Once()
	r := newRequester(sensor.KindPH, sock, RequesterConfig{})

	require.NoError(t, r.Close())
	sock.AssertExpectations(t)
}

func TestNewRequesterDialFailure(t *testing.T) {
	_, err := NewRequester(context.Background(), sensor.KindPH, "tcp://127.0.0.1", RequesterConfig{})
	assert.ErrorIs(t, err, ErrTransportSetup)
	assert.ErrorIs(t, err, transport.ErrInvalidURL)

	_, err = NewRequester(context.Background(), sensor.KindPH, "ipc:///nonexistent/dir/ph.sock", RequesterConfig{})
	assert.ErrorIs(t, err, ErrTransportSetup)
}
