package fetcher

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
)

const (
	// DefaultSelector is the element holding a player's start probability
	DefaultSelector = "div.pct"
	// DefaultTimeout bounds the wait for the selector
	DefaultTimeout = 30 * time.Second
	// DefaultNavigationTimeout bounds navigation plus the load event
	DefaultNavigationTimeout = 30 * time.Second
)

// ErrInvalidRequest is returned before any browser is started
var ErrInvalidRequest = errors.New("invalid fetch request")

// Request describes a single fetch
type Request struct {
	URL               string
	Selector          string
	Timeout           time.Duration // selector wait only
	NavigationTimeout time.Duration // navigation and load event
}

// WithDefaults fills zero timeouts
func (r Request) WithDefaults() Request {
	if r.Timeout <= 0 {
		r.Timeout = DefaultTimeout
	}
	if r.NavigationTimeout <= 0 {
		r.NavigationTimeout = DefaultNavigationTimeout
	}
	return r
}

// Validate checks that URL is absolute and Selector is valid CSS
func (r Request) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: url is empty", ErrInvalidRequest)
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: url %q has no host", ErrInvalidRequest, r.URL)
		}
	case "file":
	default:
		return fmt.Errorf("%w: url %q is not an absolute http(s) or file url", ErrInvalidRequest, r.URL)
	}

	if strings.TrimSpace(r.Selector) == "" {
		return fmt.Errorf("%w: selector is empty", ErrInvalidRequest)
	}
	if _, err := cascadia.Compile(r.Selector); err != nil {
		return fmt.Errorf("%w: selector %q: %v", ErrInvalidRequest, r.Selector, err)
	}
	return nil
}
