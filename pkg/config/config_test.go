package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
log_level: debug
quiescence: 250ms
metrics_addr: ":9108"
advertise: true
sensors:
  ph:
    req_url: tcp://sensors.local:5557
    rep_url: tcp://*:5557
    path: /dev/i2c-1
    address: "0x63"
  Temperature:
    req_url: ipc:///tmp/temp.sock
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.Quiescence)
	assert.Equal(t, ":9108", cfg.MetricsAddr)
	assert.True(t, cfg.Advertise)
	assert.Equal(t, Endpoint{
		ReqURL:  "tcp://sensors.local:5557",
		RepURL:  "tcp://*:5557",
		Path:    "/dev/i2c-1",
		Address: "0x63",
	}, cfg.Endpoint(sensor.KindPH))
	assert.Equal(t, "ipc:///tmp/temp.sock", cfg.Endpoint(sensor.KindTemperature).ReqURL)
	assert.Equal(t, Endpoint{}, cfg.Endpoint(sensor.KindConductivity))
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unknown kind", data: "sensors:\n  salinity:\n    req_url: tcp://x:1\n"},
		{name: "bad duration", data: "quiescence: soon\n"},
		{name: "negative quiescence", data: "quiescence: -1s\n"},
		{name: "not yaml", data: "sensors: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "benita.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	env := map[string]string{
		"PH_REQ_URL":               "tcp://10.0.0.5:5557",
		"CONDUCTIVITY_REP_PATH":    "sim:conductivity",
		"CONDUCTIVITY_REP_ADDRESS": "100",
		"TEMPERATURE_REP_URL":      "   ",
		"UNRELATED_REQ_URL":        "tcp://nope:1",
	}
	cfg.ApplyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	assert.Equal(t, "tcp://10.0.0.5:5557", cfg.Endpoint(sensor.KindPH).ReqURL)
	assert.Equal(t, "/dev/i2c-1", cfg.Endpoint(sensor.KindPH).Path)
	assert.Equal(t, Endpoint{Path: "sim:conductivity", Address: "100"}, cfg.Endpoint(sensor.KindConductivity))
	assert.Empty(t, cfg.Endpoint(sensor.KindTemperature).RepURL)
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BENITA_TEST_DOTENV=tcp://127.0.0.1:5557\n"), 0o600))
	t.Setenv("BENITA_TEST_DOTENV", "")
	os.Unsetenv("BENITA_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "tcp://127.0.0.1:5557", os.Getenv("BENITA_TEST_DOTENV"))
}

func TestResolve(t *testing.T) {
	got, err := Resolve("tcp://a:1", "tcp://b:2", sensor.KindPH, EnvReqURL)
	require.NoError(t, err)
	assert.Equal(t, "tcp://a:1", got)

	got, err = Resolve("", "tcp://b:2", sensor.KindPH, EnvReqURL)
	require.NoError(t, err)
	assert.Equal(t, "tcp://b:2", got)

	_, err = Resolve("", "", sensor.KindPH, EnvReqURL)
	assert.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "PH_REQ_URL")
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{in: "0x63", want: 0x63},
		{in: "99", want: 99},
		{in: " 100 ", want: 100},
		{in: "9600", want: 9600},
		{in: "115200", want: 115200},
		{in: "0x1c200", want: 115200},
		{in: "", want: 0},
		{in: "0x100000000", wantErr: true},
		{in: "i2c", wantErr: true},
		{in: "-1", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseAddress(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
