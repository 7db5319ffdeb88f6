package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/benita-io/benita-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adapterRecord(t *testing.T, level slog.Level, event Event) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))).Log(event)
	if buf.Len() == 0 {
		return nil
	}
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestSlogAdapterResponse(t *testing.T) {
	ok := wire.StatusOK
	took := 610 * time.Millisecond
	rec := adapterRecord(t, slog.LevelDebug, Event{
		ConnectionID: "conn-ph",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		LocalRole:    RoleResponder,
		Kind:         sensor.KindPH,
		RemoteAddr:   "10.0.0.7:41000",
		Message: &MessageEvent{
			Type: MessageTypeResponse, MessageID: 42, Status: &ok,
			Text: "pH: 7.012", ProcessingTime: &took,
		},
	})
	require.NotNil(t, rec)

	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "protocol message", rec["msg"])
	assert.Equal(t, "conn-ph", rec["conn"])
	assert.Equal(t, "OUT", rec["dir"])
	assert.Equal(t, "RESPONDER", rec["role"])
	assert.Equal(t, "ph", rec["kind"])
	assert.Equal(t, "10.0.0.7:41000", rec["peer"])

	env, isGroup := rec["envelope"].(map[string]any)
	require.True(t, isGroup, "envelope group: %v", rec)
	assert.Equal(t, "RESPONSE", env["type"])
	assert.Equal(t, float64(42), env["id"])
	assert.Equal(t, "OK", env["status"])
	assert.Equal(t, "pH: 7.012", env["text"])
	assert.Equal(t, float64(took), env["took"])
}

func TestSlogAdapterMessageGroup(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}).WithGroup("p")))
	adapter.Log(Event{
		Layer:    LayerWire,
		Category: CategoryMessage,
		Kind:     sensor.KindTemperature,
		Message:  &MessageEvent{Type: MessageTypeRequest, MessageID: 3, Command: "calibration_set 100"},
	})

	var rec struct {
		P struct {
			Kind     string `json:"kind"`
			Envelope struct {
				Type    string `json:"type"`
				ID      int    `json:"id"`
				Command string `json:"command"`
			} `json:"envelope"`
		} `json:"p"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "temperature", rec.P.Kind)
	assert.Equal(t, "REQUEST", rec.P.Envelope.Type)
	assert.Equal(t, 3, rec.P.Envelope.ID)
	assert.Equal(t, "calibration_set 100", rec.P.Envelope.Command)
}

func TestSlogAdapterFrameAndState(t *testing.T) {
	rec := adapterRecord(t, slog.LevelDebug, Event{
		Layer:    LayerTransport,
		Category: CategoryMessage,
		Frame:    &FrameEvent{Size: 21, Data: []byte{0xa3}},
	})
	frame, ok := rec["frame"].(map[string]any)
	require.True(t, ok, "frame group: %v", rec)
	assert.Equal(t, float64(21), frame["size"])
	assert.Equal(t, false, frame["truncated"])

	rec = adapterRecord(t, slog.LevelDebug, Event{
		Layer:       LayerService,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Entity: StateEntityResponder, OldState: "AWAITING_REQUEST", NewState: "EXECUTING"},
	})
	assert.Equal(t, "protocol state", rec["msg"])
	state, ok := rec["state"].(map[string]any)
	require.True(t, ok, "state group: %v", rec)
	assert.Equal(t, "RESPONDER", state["entity"])
	assert.Equal(t, "AWAITING_REQUEST", state["from"])
	assert.Equal(t, "EXECUTING", state["to"])
	assert.NotContains(t, state, "reason")
}

func TestSlogAdapterErrorsAtWarn(t *testing.T) {
	event := Event{
		Layer:     LayerService,
		Category:  CategoryError,
		LocalRole: RoleRequester,
		Error:     &ErrorEventData{Layer: LayerService, Message: "connection closed", Context: "receive"},
	}

	rec := adapterRecord(t, slog.LevelWarn, event)
	require.NotNil(t, rec)
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "REQUESTER", rec["role"])
	errGroup, ok := rec["err"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "connection closed", errGroup["message"])
	assert.Equal(t, "receive", errGroup["context"])

	event.Category = CategoryMessage
	event.Error = nil
	assert.Nil(t, adapterRecord(t, slog.LevelWarn, event), "debug events filtered at warn")
}
