package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"probs/internal/fetcher"
)

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "http://example.com", normalizeURL(" example.com "))
	assert.Equal(t, "https://example.com", normalizeURL("https://example.com"))
	assert.Equal(t, "HTTP://example.com", normalizeURL("HTTP://example.com"))
	assert.Equal(t, "file:///tmp/a.html", normalizeURL("file:///tmp/a.html"))
	assert.Equal(t, "", normalizeURL("  "))
}

func TestDescribe(t *testing.T) {
	sel := fmt.Errorf("failed: %w", &fetcher.SelectorTimeoutError{Selector: "div.pct", Timeout: time.Second})
	assert.Equal(t, `selector timeout: failed: selector "div.pct" did not appear within 1s`, describe(sel))

	nav := &fetcher.NavigationError{URL: "http://x/", Status: 503}
	assert.Equal(t, "navigation: failed to navigate to http://x/: status 503", describe(nav))

	assert.Equal(t, "plain", describe(errors.New("plain")))
}

func TestEnginesRegistered(t *testing.T) {
	assert.Equal(t, []string{"chromedp", "rod"}, fetcher.Engines())
}
