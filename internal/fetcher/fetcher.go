package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DefaultEngine is used when no engine name is given
const DefaultEngine = "rod"

// Fetcher reads the rendered text of one element from a page.
// Every call starts and stops its own browser, so a Fetcher is safe for
// concurrent use.
type Fetcher struct {
	engine Engine
}

// New creates a Fetcher backed by the named engine
func New(engine string, opts LaunchOptions) (*Fetcher, error) {
	if engine == "" {
		engine = DefaultEngine
	}
	factory, ok := Get(engine)
	if !ok {
		return nil, fmt.Errorf("unknown engine: %s", engine)
	}
	return NewWithEngine(factory(opts)), nil
}

// NewWithEngine creates a Fetcher around an existing engine
func NewWithEngine(engine Engine) *Fetcher {
	return &Fetcher{engine: engine}
}

// Text returns the rendered text of the first element matching selector
func (f *Fetcher) Text(ctx context.Context, url, selector string, timeout time.Duration) (string, error) {
	result, err := f.Fetch(ctx, Request{URL: url, Selector: selector, Timeout: timeout})
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Fetch loads req.URL, waits for req.Selector and reads the element
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := zerolog.Ctx(ctx).With().
		Str("engine", f.engine.Name()).
		Str("url", req.URL).
		Str("selector", req.Selector).
		Logger()
	log.Debug().Dur("timeout", req.Timeout).Msg("Fetching element text")

	start := time.Now()
	result, err := f.engine.Fetch(ctx, req)
	if err != nil {
		log.Debug().Err(err).Str("kind", Kind(err)).Dur("elapsed", time.Since(start)).Msg("Fetch failed")
		return nil, err
	}
	result.Selector = req.Selector
	result.LoadTime = time.Since(start)
	if result.URL == "" {
		result.URL = req.URL
	}

	log.Debug().Int("status", result.Status).Dur("elapsed", result.LoadTime).Msg("Fetched element text")
	return result, nil
}

// Kind names the failure class of a fetch error
func Kind(err error) string {
	var (
		launchErr   *LaunchError
		navErr      *NavigationError
		selectorErr *SelectorTimeoutError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "invalid request"
	case errors.As(err, &launchErr):
		return "launch"
	case errors.As(err, &navErr):
		return "navigation"
	case errors.As(err, &selectorErr):
		return "selector timeout"
	default:
		return "unknown"
	}
}
