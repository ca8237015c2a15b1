package fetcher

import (
	"context"
	"sort"
	"strings"
)

// LaunchOptions configure the browser process an engine starts per call
type LaunchOptions struct {
	Headless  bool
	NoSandbox bool
	ProxyURL  string
	UserAgent string
	Bin       string
	Width     int
	Height    int
}

// Engine runs one validated request in its own browser process.
// Implementations must release the process on every return path and map
// failures to LaunchError, NavigationError or SelectorTimeoutError.
type Engine interface {
	Name() string
	Fetch(ctx context.Context, req Request) (*Result, error)
}

// Factory builds an engine from launch options
type Factory func(opts LaunchOptions) Engine

var registry = map[string]Factory{}

// Register makes an engine available by name. Engines call it from init.
func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

// Get returns the factory registered under name
func Get(name string) (Factory, bool) {
	f, ok := registry[strings.ToLower(name)]
	return f, ok
}

// Engines lists registered engine names
func Engines() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
