package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveRequest("view", 200, 20*time.Millisecond)
	c.ObserveRequest("requested_items", 200, 5*time.Millisecond)
	c.ObserveRequest("requested_items", 200, 5*time.Millisecond)
	c.ObserveRequest("requested_items", 0, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("view", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("requested_items", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("requested_items", "0")))

	at := time.Unix(1700000000, 0)
	c.RunSucceeded(4, 1, at)
	c.RunFailed()

	assert.Equal(t, 4.0, testutil.ToFloat64(c.records.WithLabelValues("item")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.records.WithLabelValues("empty")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(c.lastSuccess))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues("failure")))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.RunSucceeded(2, 0, time.Now())

	path := filepath.Join(t.TempDir(), "exporter.prom")
	require.NoError(t, WriteTextfile(path, reg))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `freshservice_enriched_records{status="item"} 2`), string(b))
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestNewRegistry_OnlyExporterFamilies(t *testing.T) {
	reg, c := NewRegistry()
	c.ObserveRequest("view", 200, time.Millisecond)
	c.RunSucceeded(1, 0, time.Now())

	path := filepath.Join(t.TempDir(), "exporter.prom")
	require.NoError(t, WriteTextfile(path, reg))
	b, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		assert.True(t, strings.HasPrefix(line, "freshservice_"), "unexpected family: %s", line)
	}
}

func TestHandler(t *testing.T) {
	reg, c := NewRegistry()
	c.RunFailed()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `freshservice_runs_total{result="failure"} 1`)
	assert.NotContains(t, string(body), "go_goroutines")
}
