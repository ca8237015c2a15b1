package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Config controls how the browser process is launched
type Config struct {
	Headless  bool
	NoSandbox bool
	ProxyURL  string
	UserAgent string
	Bin       string // browser executable, empty means look it up (or download it)
	Width     int
	Height    int
}

// Browser wraps a rod.Browser together with the launcher that owns its OS process
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      Config
}

// New launches a browser process and connects to it.
// The returned Browser must be closed, otherwise the process is leaked.
func New(ctx context.Context, cfg Config) (*Browser, error) {
	l := launcher.New().Context(ctx).Headless(cfg.Headless)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.NoSandbox {
		l = l.NoSandbox(true)
	}
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}
	l = l.Set("disable-blink-features", "AutomationControlled")

	controlURL, err := l.Launch()
	if err != nil {
		kill(l)
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	rb := rod.New().ControlURL(controlURL).Context(ctx)
	if err := rb.Connect(); err != nil {
		kill(l)
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Browser{
		browser:  rb,
		launcher: l,
		cfg:      cfg,
	}, nil
}

// PID returns the pid of the process started by the launcher, 0 once closed
func (b *Browser) PID() int {
	if b.launcher == nil {
		return 0
	}
	return b.launcher.PID()
}

// NewPage opens a blank page inside a fresh incognito context, so cookies and
// storage are never shared between pages.
func (b *Browser) NewPage() (*rod.Page, error) {
	incognito, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if b.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.cfg.UserAgent}); err != nil {
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	if b.cfg.Width > 0 && b.cfg.Height > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:  b.cfg.Width,
			Height: b.cfg.Height,
		}); err != nil {
			return nil, fmt.Errorf("failed to set viewport: %w", err)
		}
	}

	return page, nil
}

// Close closes the browser and kills its process.
// The process is killed even when the CDP close call fails. Safe to call twice.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		kill(b.launcher)
		b.launcher = nil
	}
	return err
}

func kill(l *launcher.Launcher) {
	// pid 0 means the process was never started
	if l.PID() == 0 {
		return
	}
	l.Kill()
	l.Cleanup()
}
