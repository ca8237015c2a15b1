// Package rodengine fetches element text with go-rod.
package rodengine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"probs/internal/browser"
	"probs/internal/fetcher"
)

const name = "rod"

// statusGrace bounds how long the load event may run ahead of the document
// response event
const statusGrace = 2 * time.Second

func init() {
	fetcher.Register(name, New)
}

// Engine starts one rod-controlled browser per fetch
type Engine struct {
	cfg browser.Config

	// launched observes every browser right after it starts
	launched func(*browser.Browser)
}

// New creates an Engine from launch options
func New(opts fetcher.LaunchOptions) fetcher.Engine {
	return &Engine{cfg: browser.Config{
		Headless:  opts.Headless,
		NoSandbox: opts.NoSandbox,
		ProxyURL:  opts.ProxyURL,
		UserAgent: opts.UserAgent,
		Bin:       opts.Bin,
		Width:     opts.Width,
		Height:    opts.Height,
	}}
}

func (e *Engine) Name() string { return name }

// Fetch runs the whole browser lifecycle for req
func (e *Engine) Fetch(ctx context.Context, req fetcher.Request) (*fetcher.Result, error) {
	b, err := browser.New(ctx, e.cfg)
	if err != nil {
		return nil, &fetcher.LaunchError{Engine: name, Err: err}
	}
	defer b.Close()

	if e.launched != nil {
		e.launched(b)
	}

	page, err := b.NewPage()
	if err != nil {
		return nil, &fetcher.LaunchError{Engine: name, Err: err}
	}
	page = page.Context(ctx)

	finalURL, status, err := navigate(ctx, page, req)
	if err != nil {
		return nil, err
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, req.Timeout)
	defer cancelWait()

	el, err := page.Context(waitCtx).Element(req.Selector)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &fetcher.SelectorTimeoutError{Selector: req.Selector, Timeout: req.Timeout, Err: err}
		}
		return nil, fmt.Errorf("failed to wait for element '%s': %w", req.Selector, err)
	}
	el = el.Context(ctx)

	text, err := el.Text()
	if err != nil {
		return nil, fmt.Errorf("failed to get element text: %w", err)
	}
	html, err := el.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to get element HTML: %w", err)
	}

	return &fetcher.Result{
		Text:   text,
		HTML:   html,
		URL:    finalURL,
		Status: status,
	}, nil
}

// navigate loads req.URL and waits for the load event. It reports the final
// URL and the status of the main document response.
func navigate(ctx context.Context, page *rod.Page, req fetcher.Request) (string, int, error) {
	navCtx, cancel := context.WithTimeout(ctx, req.NavigationTimeout)
	defer cancel()
	navPage := page.Context(navCtx)

	// the listener is registered before navigating so the document response
	// cannot be missed
	statusCh := make(chan int, 1)
	wait := navPage.EachEvent(func(ev *proto.NetworkResponseReceived) bool {
		if ev.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		statusCh <- ev.Response.Status
		return true
	})
	go wait()

	navErr := func(err error) error {
		return &fetcher.NavigationError{URL: req.URL, Err: err}
	}

	if err := navPage.Navigate(req.URL); err != nil {
		return "", 0, navErr(err)
	}
	if err := navPage.WaitLoad(); err != nil {
		return "", 0, navErr(fmt.Errorf("failed to wait for page load: %w", err))
	}

	var status int
	if hasDocumentResponse(req.URL) {
		select {
		case status = <-statusCh:
		case <-time.After(statusGrace):
		}
	}
	if fetcher.IsHTTPFailure(status) {
		return "", status, &fetcher.NavigationError{URL: req.URL, Status: status}
	}

	info, err := page.Info()
	if err != nil {
		return "", status, navErr(fmt.Errorf("failed to get page info: %w", err))
	}
	return info.URL, status, nil
}

func hasDocumentResponse(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
