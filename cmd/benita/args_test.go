package main

import (
	"errors"
	"flag"
	"io"
	"testing"
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want invocation
	}{
		{
			name: "request batch",
			args: []string{"ph", "req", "-c", "read", "-c", "status", "tcp://localhost:5557"},
			want: invocation{
				EnvFile:  ".env",
				Kind:     sensor.KindPH,
				Mode:     ModeRequest,
				Commands: []string{"read", "status"},
				URL:      "tcp://localhost:5557",
			},
		},
		{
			name: "request interactive with globals",
			args: []string{"-config", "benita.yaml", "-log-level", "debug", "temperature", "req", "-history", "/tmp/h"},
			want: invocation{
				ConfigFile: "benita.yaml",
				EnvFile:    ".env",
				LogLevel:   "debug",
				Kind:       sensor.KindTemperature,
				Mode:       ModeRequest,
				History:    "/tmp/h",
			},
		},
		{
			name: "respond positional",
			args: []string{"conductivity", "rep", "-protocol-log", "ec.blog", "-metrics-addr", ":9100", "-advertise",
				"tcp://*:5556", "/dev/i2c-1", "0x64"},
			want: invocation{
				EnvFile:     ".env",
				Kind:        sensor.KindConductivity,
				Mode:        ModeRespond,
				URL:         "tcp://*:5556",
				Path:        "/dev/i2c-1",
				Address:     "0x64",
				ProtocolLog: "ec.blog",
				MetricsAddr: ":9100",
				Advertise:   true,
			},
		},
		{
			name: "respond quiescence",
			args: []string{"ph", "rep", "-quiescence", "0s", "-simulate"},
			want: invocation{
				EnvFile:       ".env",
				Kind:          sensor.KindPH,
				Mode:          ModeRespond,
				Simulate:      true,
				Quiescence:    0,
				QuiescenceSet: true,
			},
		},
		{
			name: "sensor",
			args: []string{"-env-file", "", "EC", "sensor", "-c", "i", "/dev/ttyUSB0", "9600"},
			want: invocation{
				Kind:     sensor.KindConductivity,
				Mode:     ModeSensor,
				Commands: []string{"i"},
				Path:     "/dev/ttyUSB0",
				Address:  "9600",
			},
		},
		{
			name: "request url before commands",
			args: []string{"ph", "req", "tcp://localhost:5557", "-c", "status", "-c", "bogus"},
			want: invocation{
				EnvFile:  ".env",
				Kind:     sensor.KindPH,
				Mode:     ModeRequest,
				Commands: []string{"status", "bogus"},
				URL:      "tcp://localhost:5557",
			},
		},
		{
			name: "respond flags after positionals",
			args: []string{"ph", "rep", "tcp://*:5557", "/dev/i2c-1", "99", "-simulate"},
			want: invocation{
				EnvFile:  ".env",
				Kind:     sensor.KindPH,
				Mode:     ModeRespond,
				URL:      "tcp://*:5557",
				Path:     "/dev/i2c-1",
				Address:  "99",
				Simulate: true,
			},
		},
		{
			name: "sensor flags between positionals",
			args: []string{"temperature", "sensor", "/dev/ttyUSB0", "-c", "read", "115200"},
			want: invocation{
				EnvFile:  ".env",
				Kind:     sensor.KindTemperature,
				Mode:     ModeSensor,
				Commands: []string{"read"},
				Path:     "/dev/ttyUSB0",
				Address:  "115200",
			},
		},
		{
			name: "terminator ends flags",
			args: []string{"ph", "sensor", "-c", "read", "--", "/dev/ttyUSB0", "-9600"},
			want: invocation{
				EnvFile:  ".env",
				Kind:     sensor.KindPH,
				Mode:     ModeSensor,
				Commands: []string{"read"},
				Path:     "/dev/ttyUSB0",
				Address:  "-9600",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args, io.Discard)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseArgsDurations(t *testing.T) {
	inv, err := parseArgs([]string{"ph", "rep", "-quiescence", "250ms"}, io.Discard)
	require.NoError(t, err)
	assert.True(t, inv.QuiescenceSet)
	assert.Equal(t, 250*time.Millisecond, inv.Quiescence)

	inv, err = parseArgs([]string{"ph", "rep"}, io.Discard)
	require.NoError(t, err)
	assert.False(t, inv.QuiescenceSet)
}

func TestParseArgsUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "nothing", args: nil},
		{name: "kind only", args: []string{"ph"}},
		{name: "unknown kind", args: []string{"salinity", "req"}},
		{name: "unknown mode", args: []string{"ph", "serve"}},
		{name: "unknown global flag", args: []string{"-verbose", "ph", "req"}},
		{name: "unknown mode flag", args: []string{"ph", "sensor", "-discover"}},
		{name: "too many request args", args: []string{"ph", "req", "tcp://a:1", "extra"}},
		{name: "too many sensor args", args: []string{"ph", "sensor", "/dev/i2c-1", "0x63", "extra"}},
		{name: "extra arg after flags", args: []string{"ph", "req", "tcp://a:1", "-c", "read", "extra"}},
		{name: "unknown flag after url", args: []string{"ph", "req", "tcp://a:1", "-bogus"}},
		{name: "negative quiescence", args: []string{"ph", "rep", "-quiescence", "-1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args, io.Discard)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestParseArgsHelp(t *testing.T) {
	_, err := parseArgs([]string{"-h"}, io.Discard)
	assert.True(t, errors.Is(err, flag.ErrHelp))

	_, err = parseArgs([]string{"ph", "req", "-help"}, io.Discard)
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

func TestStringSlice(t *testing.T) {
	var s stringSlice
	require.NoError(t, s.Set("read"))
	require.NoError(t, s.Set("status"))
	assert.Equal(t, stringSlice{"read", "status"}, s)
	assert.Equal(t, "read, status", s.String())
}
