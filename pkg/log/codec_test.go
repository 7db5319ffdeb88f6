package log

import (
	"testing"
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/benita-io/benita-go/pkg/wire"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456789, time.UTC)
	original := Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-def6-7890-abcd-ef1234567890",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		LocalRole:    RoleRequester,
		RemoteAddr:   "192.168.1.100:5557",
		Kind:         sensor.KindPH,
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ConnectionID != original.ConnectionID {
		t.Errorf("ConnectionID: got %q, want %q", decoded.ConnectionID, original.ConnectionID)
	}
	if decoded.Direction != original.Direction {
		t.Errorf("Direction: got %v, want %v", decoded.Direction, original.Direction)
	}
	if decoded.Layer != original.Layer {
		t.Errorf("Layer: got %v, want %v", decoded.Layer, original.Layer)
	}
	if decoded.LocalRole != original.LocalRole {
		t.Errorf("LocalRole: got %v, want %v", decoded.LocalRole, original.LocalRole)
	}
	if decoded.RemoteAddr != original.RemoteAddr {
		t.Errorf("RemoteAddr: got %q, want %q", decoded.RemoteAddr, original.RemoteAddr)
	}
	if decoded.Kind != original.Kind {
		t.Errorf("Kind: got %v, want %v", decoded.Kind, original.Kind)
	}
}

func TestFrameEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
		Frame: &FrameEvent{
			Size:      256,
			Data:      []byte{0x01, 0x02, 0x03, 0x04, 0x05},
			Truncated: true,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Frame == nil {
		t.Fatal("Frame is nil")
	}
	if decoded.Frame.Size != original.Frame.Size {
		t.Errorf("Frame.Size: got %d, want %d", decoded.Frame.Size, original.Frame.Size)
	}
	if string(decoded.Frame.Data) != string(original.Frame.Data) {
		t.Errorf("Frame.Data: got %v, want %v", decoded.Frame.Data, original.Frame.Data)
	}
	if !decoded.Frame.Truncated {
		t.Error("Frame.Truncated: got false, want true")
	}
}

func TestMessageEventCBORRoundTrip(t *testing.T) {
	status := wire.StatusExecutionFailed
	processingTime := 2 * time.Millisecond

	tests := []struct {
		name string
		msg  *MessageEvent
	}{
		{
			name: "request",
			msg: &MessageEvent{
				Type:      MessageTypeRequest,
				MessageID: 100,
				Command:   "calibration_mid 7",
			},
		},
		{
			name: "response",
			msg: &MessageEvent{
				Type:           MessageTypeResponse,
				MessageID:      100,
				Status:         &status,
				Text:           "command not recognized",
				ProcessingTime: &processingTime,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeEvent(Event{
				Timestamp: time.Now(),
				Layer:     LayerWire,
				Category:  CategoryMessage,
				Message:   tt.msg,
			})
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}

			decoded, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}
			m := decoded.Message
			if m == nil {
				t.Fatal("Message is nil")
			}
			if m.Type != tt.msg.Type || m.MessageID != tt.msg.MessageID {
				t.Errorf("header: got %v/%d, want %v/%d", m.Type, m.MessageID, tt.msg.Type, tt.msg.MessageID)
			}
			if m.Command != tt.msg.Command {
				t.Errorf("Command: got %q, want %q", m.Command, tt.msg.Command)
			}
			if m.Text != tt.msg.Text {
				t.Errorf("Text: got %q, want %q", m.Text, tt.msg.Text)
			}
			if (m.Status == nil) != (tt.msg.Status == nil) {
				t.Fatalf("Status presence: got %v, want %v", m.Status, tt.msg.Status)
			}
			if m.Status != nil && *m.Status != *tt.msg.Status {
				t.Errorf("Status: got %v, want %v", *m.Status, *tt.msg.Status)
			}
			if tt.msg.ProcessingTime != nil {
				if m.ProcessingTime == nil || *m.ProcessingTime != *tt.msg.ProcessingTime {
					t.Errorf("ProcessingTime: got %v, want %v", m.ProcessingTime, *tt.msg.ProcessingTime)
				}
			}
		})
	}
}

func TestStateChangeEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		Layer:     LayerService,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityResponder,
			OldState: "DISPATCHING",
			NewState: "REPLYING",
			Reason:   "status",
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.StateChange == nil {
		t.Fatal("StateChange is nil")
	}
	if *decoded.StateChange != *original.StateChange {
		t.Errorf("StateChange: got %+v, want %+v", *decoded.StateChange, *original.StateChange)
	}
}

func TestErrorEventCBORRoundTrip(t *testing.T) {
	code := int(wire.StatusInvalidRequest)
	original := Event{
		Timestamp: time.Now(),
		Layer:     LayerWire,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Layer:   LayerWire,
			Message: "failed to decode request",
			Code:    &code,
			Context: "serve",
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Error == nil {
		t.Fatal("Error is nil")
	}
	if decoded.Error.Message != original.Error.Message || decoded.Error.Context != original.Error.Context {
		t.Errorf("Error: got %+v, want %+v", *decoded.Error, *original.Error)
	}
	if decoded.Error.Code == nil || *decoded.Error.Code != code {
		t.Errorf("Error.Code: got %v, want %d", decoded.Error.Code, code)
	}
}

func TestEventCBORUsesIntegerKeys(t *testing.T) {
	event := Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-123",
		Direction:    DirectionIn,
		Layer:        LayerTransport,
		Category:     CategoryMessage,
		Kind:         sensor.KindTemperature,
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	var rawMap map[uint64]any
	if err := eventDecMode.Unmarshal(data, &rawMap); err != nil {
		t.Fatalf("failed to decode as map: %v", err)
	}

	for _, key := range []uint64{1, 2, 3, 4, 5, 8} {
		if _, ok := rawMap[key]; !ok {
			t.Errorf("expected integer key %d not found in encoded data", key)
		}
	}

	var stringMap map[string]any
	if err := eventDecMode.Unmarshal(data, &stringMap); err == nil && len(stringMap) > 0 {
		t.Error("encoded data contains string keys, expected integer keys only")
	}
}
