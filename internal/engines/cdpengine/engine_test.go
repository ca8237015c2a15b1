package cdpengine

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"probs/internal/fetcher"
	"probs/internal/testutil"
)

// newTestFetcher returns a fetcher and the pids of every browser it started
func newTestFetcher(t *testing.T) (*fetcher.Fetcher, *[]int) {
	bin := testutil.BrowserBin(t)
	e := New(fetcher.LaunchOptions{Headless: true, NoSandbox: true, Bin: bin}).(*Engine)
	pids := &[]int{}
	e.launched = func(pid int) { *pids = append(*pids, pid) }
	return fetcher.NewWithEngine(e), pids
}

func assertReleased(t *testing.T, pids []int) {
	t.Helper()
	require.NotEmpty(t, pids)
	for _, pid := range pids {
		assert.Eventually(t, func() bool { return !testutil.ProcessAlive(pid) }, 10*time.Second, 100*time.Millisecond, "browser %d still running", pid)
	}
}

func TestFetchStaticPage(t *testing.T) {
	f, pids := newTestFetcher(t)
	srv := testutil.StaticServer(t, http.StatusOK, testutil.PctPage)

	text, err := f.Text(context.Background(), srv.URL+"/", "div.pct", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "13.5", text)
	assertReleased(t, *pids)
}

func TestFetchIsRepeatable(t *testing.T) {
	f, pids := newTestFetcher(t)
	srv := testutil.StaticServer(t, http.StatusOK, testutil.PctPage)

	first, err := f.Fetch(context.Background(), fetcher.Request{URL: srv.URL + "/", Selector: "div.pct", Timeout: 5 * time.Second})
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), fetcher.Request{URL: srv.URL + "/", Selector: "div.pct", Timeout: 5 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, http.StatusOK, first.Status)
	assert.Contains(t, first.HTML, `class="pct"`)
	assert.Len(t, *pids, 2)
	assertReleased(t, *pids)
}

func TestFetchEmptyElement(t *testing.T) {
	f, pids := newTestFetcher(t)
	srv := testutil.StaticServer(t, http.StatusOK, `<html><body><div class="pct"></div></body></html>`)

	text, err := f.Text(context.Background(), srv.URL+"/", "div.pct", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assertReleased(t, *pids)
}

func TestFetchSelectorTimeout(t *testing.T) {
	f, pids := newTestFetcher(t)
	srv := testutil.StaticServer(t, http.StatusOK, `<html><body><div class="other">1</div></body></html>`)

	timeout := time.Second
	start := time.Now()
	_, err := f.Text(context.Background(), srv.URL+"/", "div.pct", timeout)
	elapsed := time.Since(start)

	var target *fetcher.SelectorTimeoutError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, timeout, target.Timeout)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+30*time.Second)
	assertReleased(t, *pids)
}

func TestFetchUnreachableHost(t *testing.T) {
	f, pids := newTestFetcher(t)

	timeout := 30 * time.Second
	start := time.Now()
	_, err := f.Text(context.Background(), "http://127.0.0.1:1/", "div.pct", timeout)

	var target *fetcher.NavigationError
	require.ErrorAs(t, err, &target)
	assert.Less(t, time.Since(start), timeout)
	assertReleased(t, *pids)
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	f, pids := newTestFetcher(t)
	srv := testutil.StaticServer(t, http.StatusNotFound, testutil.PctPage)

	_, err := f.Text(context.Background(), srv.URL+"/", "div.pct", 5*time.Second)

	var target *fetcher.NavigationError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, http.StatusNotFound, target.Status)
	assertReleased(t, *pids)
}

func TestFetchLaunchError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	f := fetcher.NewWithEngine(New(fetcher.LaunchOptions{Headless: true, Bin: "/nonexistent/chromium"}))
	_, err := f.Text(ctx, "http://127.0.0.1:1/", "div.pct", time.Second)

	var target *fetcher.LaunchError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "chromedp", target.Engine)
}
