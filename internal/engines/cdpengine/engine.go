// Package cdpengine fetches element text with chromedp.
package cdpengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"probs/internal/fetcher"
)

const name = "chromedp"

func init() {
	fetcher.Register(name, New)
}

// Engine allocates one chromedp browser per fetch. Every allocation gets a
// temporary profile, which isolates cookies and storage.
type Engine struct {
	opts fetcher.LaunchOptions

	// launched observes the pid of every browser right after it starts
	launched func(pid int)
}

// New creates an Engine from launch options
func New(opts fetcher.LaunchOptions) fetcher.Engine {
	return &Engine{opts: opts}
}

func (e *Engine) Name() string { return name }

func (e *Engine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", e.opts.Headless))
	opts = append(opts, chromedp.Flag("disable-blink-features", "AutomationControlled"))
	if e.opts.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if e.opts.Bin != "" {
		opts = append(opts, chromedp.ExecPath(e.opts.Bin))
	}
	if e.opts.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(e.opts.ProxyURL))
	}
	if e.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.opts.UserAgent))
	}
	if e.opts.Width > 0 && e.opts.Height > 0 {
		opts = append(opts, chromedp.WindowSize(e.opts.Width, e.opts.Height))
	}
	return opts
}

// Fetch runs the whole browser lifecycle for req
func (e *Engine) Fetch(ctx context.Context, req fetcher.Request) (*fetcher.Result, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, e.allocatorOptions()...)
	defer cancelAlloc()

	// cancelling the first context created from an allocator closes the
	// browser and waits for the process to exit
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		return nil, &fetcher.LaunchError{Engine: name, Err: err}
	}
	if e.launched != nil {
		if p := chromedp.FromContext(browserCtx).Browser.Process(); p != nil {
			e.launched(p.Pid)
		}
	}

	if e.opts.Width > 0 && e.opts.Height > 0 {
		if err := chromedp.Run(browserCtx, emulation.SetDeviceMetricsOverride(int64(e.opts.Width), int64(e.opts.Height), 1, false)); err != nil {
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}

	navCtx, cancelNav := context.WithTimeout(browserCtx, req.NavigationTimeout)
	defer cancelNav()

	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(req.URL))
	if err != nil {
		return nil, &fetcher.NavigationError{URL: req.URL, Err: err}
	}
	var status int
	if resp != nil {
		status = int(resp.Status)
	}
	if fetcher.IsHTTPFailure(status) {
		return nil, &fetcher.NavigationError{URL: req.URL, Status: status}
	}

	selCtx, cancelSel := context.WithTimeout(browserCtx, req.Timeout)
	defer cancelSel()

	if err := chromedp.Run(selCtx, chromedp.WaitReady(req.Selector, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &fetcher.SelectorTimeoutError{Selector: req.Selector, Timeout: req.Timeout, Err: err}
		}
		return nil, fmt.Errorf("failed to wait for element '%s': %w", req.Selector, err)
	}

	var text, html, finalURL string
	err = chromedp.Run(browserCtx,
		chromedp.Text(req.Selector, &text, chromedp.ByQuery),
		chromedp.OuterHTML(req.Selector, &html, chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read element: %w", err)
	}

	return &fetcher.Result{
		Text:   text,
		HTML:   html,
		URL:    finalURL,
		Status: status,
	}, nil
}
