package job

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshservice-items-exporter/internal/export"
	"freshservice-items-exporter/internal/freshservice"
)

type recorderMock struct {
	items, empty int
	succeeded    int
	failed       int
}

func (r *recorderMock) RunSucceeded(items, empty int, _ time.Time) {
	r.items, r.empty = items, empty
	r.succeeded++
}

func (r *recorderMock) RunFailed() { r.failed++ }

func newFreshservice(t *testing.T, items map[string]string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/view/5" {
			fmt.Fprint(w, `[{"display_id":"T1"},{"display_id":"T2"}]`)
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/requested_items.json")
		body, ok := items[id]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newJob(t *testing.T, baseURL string, policy freshservice.EmptyPolicy) (*Job, *recorderMock, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	client := freshservice.NewClient(baseURL, "token", 5*time.Second)
	client.Logger = logger
	rec := &recorderMock{}
	return &Job{
		Enricher: freshservice.NewEnricher(client, 2, 1, logger),
		ViewID:   "5",
		Policy:   policy,
		Output:   filepath.Join(t.TempDir(), "example.csv"),
		Recorder: rec,
		Logger:   logger,
	}, rec, hook
}

var scenarioItems = map[string]string{
	"T1": `[{"requested_item":{"item_display_id":"C1","catalog_item":"Laptop","requested_item_values":{"color":"black"}}}]`,
	"T2": `[]`,
}

func TestRun_BlankPolicy(t *testing.T) {
	j, rec, hook := newJob(t, newFreshservice(t, scenarioItems), freshservice.EmptyBlank)

	n, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b, err := os.ReadFile(j.Output)
	require.NoError(t, err)
	assert.Equal(t, "ticket_id,catalog_id,catalog_item,color\nT1,C1,Laptop,black\nT2,,,\n", string(b))

	assert.Equal(t, 1, rec.succeeded)
	assert.Equal(t, 1, rec.items)
	assert.Equal(t, 1, rec.empty)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "Export written", last.Message)
	assert.NotEmpty(t, last.Data["run_id"])
}

func TestRun_FetchLogsCarryRunAndTicket(t *testing.T) {
	j, _, hook := newJob(t, newFreshservice(t, scenarioItems), freshservice.EmptyBlank)

	_, err := j.Run(context.Background())
	require.NoError(t, err)

	runIDs := map[interface{}]bool{}
	tickets := map[interface{}]bool{}
	requests := 0
	for _, e := range hook.AllEntries() {
		require.NotEmpty(t, e.Data["run_id"], "entry %q has no run_id", e.Message)
		runIDs[e.Data["run_id"]] = true
		if e.Message != "Freshservice request finished" {
			continue
		}
		requests++
		if e.Data["endpoint"] == freshservice.EndpointRequestedItems {
			tickets[e.Data["ticket_id"]] = true
		} else {
			assert.Equal(t, "5", e.Data["view_id"])
		}
	}
	assert.Equal(t, 3, requests)
	assert.Len(t, runIDs, 1, "one run id per run")
	assert.Equal(t, map[interface{}]bool{"T1": true, "T2": true}, tickets)
}

func TestRun_SkipPolicy(t *testing.T) {
	j, _, _ := newJob(t, newFreshservice(t, scenarioItems), freshservice.EmptySkip)

	n, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f, err := os.Open(j.Output)
	require.NoError(t, err)
	defer f.Close()
	rows, err := export.ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{
		{"ticket_id": "T1", "catalog_id": "C1", "catalog_item": "Laptop", "color": "black"},
	}, rows)
}

func TestRun_FailPolicy(t *testing.T) {
	j, rec, _ := newJob(t, newFreshservice(t, scenarioItems), freshservice.EmptyFail)

	_, err := j.Run(context.Background())
	require.ErrorIs(t, err, freshservice.ErrNoRequestedItems)
	assert.Contains(t, err.Error(), "T2")
	assert.Equal(t, 1, rec.failed)

	_, statErr := os.Stat(j.Output)
	assert.True(t, os.IsNotExist(statErr), "no output on failure")
}

func TestRun_DetailFailureAbortsExport(t *testing.T) {
	j, rec, _ := newJob(t, newFreshservice(t, map[string]string{"T1": `[]`}), freshservice.EmptyBlank)

	_, err := j.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "T2")
	assert.Equal(t, 1, rec.failed)
	assert.Equal(t, 0, rec.succeeded)

	_, statErr := os.Stat(j.Output)
	assert.True(t, os.IsNotExist(statErr))
}
