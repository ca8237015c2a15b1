package fetcher

import (
	"fmt"
	"time"
)

// LaunchError means the browser engine could not be started or reached
type LaunchError struct {
	Engine string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s browser: %v", e.Engine, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// NavigationError means the page could not be loaded.
// Status is the main document HTTP status, 0 when no response arrived.
type NavigationError struct {
	URL    string
	Status int
	Err    error
}

func (e *NavigationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to navigate to %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("failed to navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// SelectorTimeoutError means no element matched the selector in time
type SelectorTimeoutError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *SelectorTimeoutError) Error() string {
	return fmt.Sprintf("selector %q did not appear within %s", e.Selector, e.Timeout)
}

func (e *SelectorTimeoutError) Unwrap() error { return e.Err }

// IsHTTPFailure reports whether a main document status ends the fetch
func IsHTTPFailure(status int) bool {
	return status >= 400
}
