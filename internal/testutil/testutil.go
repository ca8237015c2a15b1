// Package testutil holds helpers shared by the browser integration tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"

	"github.com/go-rod/rod/lib/launcher"
)

// BrowserBin returns a local browser executable or skips the test
func BrowserBin(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no local browser found")
	}
	return bin
}

// ProcessAlive reports whether a process with the given pid still exists
func ProcessAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}

// PctPage is the static document used by the fetch tests
const PctPage = `<html><body><div class="pct">13.5</div></body></html>`

// StaticServer serves body with the given status on every path
func StaticServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}
