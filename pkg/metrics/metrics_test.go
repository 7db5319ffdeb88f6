package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benita-io/benita-go/pkg/sensor"
	"github.com/benita-io/benita-go/pkg/service"
	"github.com/benita-io/benita-go/pkg/wire"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ service.MetricsRecorder = (*Collector)(nil)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.ObserveRequest(sensor.KindPH, wire.StatusOK, 600*time.Millisecond)
	c.ObserveRequest(sensor.KindPH, wire.StatusOK, 610*time.Millisecond)
	c.ObserveRequest(sensor.KindPH, wire.StatusNotRecognized, time.Millisecond)
	c.ObserveExecutionFailure(sensor.KindPH, "read")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("ph", wire.StatusOK.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("ph", wire.StatusNotRecognized.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.executionFailures.WithLabelValues("ph", "read")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.requestDuration))
}

func TestServerHandler(t *testing.T) {
	c := NewCollector()
	c.ObserveRequest(sensor.KindTemperature, wire.StatusOK, 10*time.Millisecond)

	srv := httptest.NewServer(NewServer("", c, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + DefaultPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "benita_responder_requests_total")
	assert.Contains(t, string(body), `kind="temperature"`)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestServerStartStop(t *testing.T) {
	s := NewServer("127.0.0.1:0", NewCollector(), nil)
	assert.Nil(t, s.Addr())

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	addr := s.Addr()
	require.NotNil(t, addr)

	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.HasPrefix(string(body), "OK"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}
