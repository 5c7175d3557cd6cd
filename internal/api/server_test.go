package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/pipeline"
	"github.com/cascadialive/showcrawler/internal/scrape"
	"github.com/cascadialive/showcrawler/internal/syncer"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type stubRunner struct {
	site   string
	result pipeline.Result
	err    error
	delay  time.Duration
}

func (s *stubRunner) Site() string { return s.site }

func (s *stubRunner) Run(ctx context.Context) (pipeline.Result, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return pipeline.Result{}, ctx.Err()
		}
	}
	return s.result, s.err
}

func newTestServer(runners ...Runner) *Server {
	clock := fixedClock{now: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)}
	return NewServer(runners, clock, 30*time.Second, zap.NewNop())
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestServer().Handler())
	defer srv.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestServer().Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTriggerScrapeSuccess(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{
		site: "portland",
		result: pipeline.Result{
			RunID: "run-1",
			Site:  "portland",
			State: pipeline.StateDone,
			Shows: 5,
			Stats: syncer.Stats{Added: 3, Updated: 2, Total: 5},
		},
	}
	srv := httptest.NewServer(newTestServer(runner).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/scrape/portland", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body scrapeResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	require.True(t, body.Success)
	require.Equal(t, "run-1", body.RunID)
	require.Equal(t, 5, body.Shows)
	require.Equal(t, syncer.Stats{Added: 3, Updated: 2, Total: 5}, body.Stats)
	require.Equal(t, "2026-09-01T12:00:00Z", body.Timestamp)

	// The counters live directly under "stats", not nested deeper.
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &envelope))
	var counters map[string]int
	require.NoError(t, json.Unmarshal(envelope["stats"], &counters))
	require.Equal(t, map[string]int{"added": 3, "updated": 2, "skipped": 0, "total": 5}, counters)
}

func TestTriggerScrapeUnknownSite(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(newTestServer().Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/scrape/nowhere", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Contains(t, body.Error, "nowhere")
}

func TestTriggerScrapeConflict(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{site: "portland", err: pipeline.ErrRunInProgress}
	srv := httptest.NewServer(newTestServer(runner).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/scrape/portland", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTriggerScrapeInitialFetchFailure(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{
		site: "portland",
		err:  fmt.Errorf("%w: https://example.com/events/: status 503", scrape.ErrInitialFetch),
	}
	srv := httptest.NewServer(newTestServer(runner).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/scrape/portland", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Contains(t, body.Error, "status 503")
}

func TestTriggerScrapeTimeout(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{site: "portland", delay: time.Second}
	clock := fixedClock{now: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)}
	srv := httptest.NewServer(NewServer([]Runner{runner}, clock, 50*time.Millisecond, zap.NewNop()).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/scrape/portland", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Contains(t, body.Error, "timed out")
	require.NotEmpty(t, body.Timestamp)
}
