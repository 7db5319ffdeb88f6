package transport

import (
	"errors"
	"testing"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Endpoint
		wantErr bool
	}{
		{name: "tcp loopback", raw: "tcp://127.0.0.1:5557", want: Endpoint{Network: "tcp", Address: "127.0.0.1:5557"}},
		{name: "tcp wildcard", raw: "tcp://*:5557", want: Endpoint{Network: "tcp", Address: ":5557"}},
		{name: "tcp hostname", raw: "tcp://sensors.local:6000", want: Endpoint{Network: "tcp", Address: "sensors.local:6000"}},
		{name: "tcp ipv6", raw: "tcp://[::1]:5557", want: Endpoint{Network: "tcp", Address: "[::1]:5557"}},
		{name: "ipc absolute", raw: "ipc:///tmp/ph.sock", want: Endpoint{Network: "unix", Address: "/tmp/ph.sock"}},
		{name: "ipc relative", raw: "ipc://ph.sock", want: Endpoint{Network: "unix", Address: "ph.sock"}},
		{name: "surrounding space", raw: "  tcp://127.0.0.1:1 ", want: Endpoint{Network: "tcp", Address: "127.0.0.1:1"}},
		{name: "tcp without port", raw: "tcp://127.0.0.1", wantErr: true},
		{name: "tcp with path", raw: "tcp://127.0.0.1:5557/x", wantErr: true},
		{name: "ipc without path", raw: "ipc://", wantErr: true},
		{name: "no scheme", raw: "127.0.0.1:5557", wantErr: true},
		{name: "unknown scheme", raw: "udp://127.0.0.1:5557", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURL(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Fatalf("ParseURL(%q) error = %v, want ErrInvalidURL", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURL(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseURL(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestEndpointString(t *testing.T) {
	if got := (Endpoint{Network: "tcp", Address: "127.0.0.1:5557"}).String(); got != "tcp://127.0.0.1:5557" {
		t.Errorf("tcp String() = %q", got)
	}
	if got := (Endpoint{Network: "unix", Address: "/tmp/ph.sock"}).String(); got != "ipc:///tmp/ph.sock" {
		t.Errorf("unix String() = %q", got)
	}
}
