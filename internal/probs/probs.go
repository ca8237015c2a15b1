// Package probs reads start probabilities from player pages.
package probs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"probs/internal/fetcher"
)

// ErrNoProbability means the page text holds no number
var ErrNoProbability = errors.New("no probability data")

// Parse turns text such as "87%" or " 13,5 % " into a number
func Parse(text string) (float64, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.Replace(s, ",", ".", 1)
	if s == "" {
		return 0, fmt.Errorf("%w: empty text", ErrNoProbability)
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNoProbability, text)
	}
	return p, nil
}

// TextFetcher is satisfied by *fetcher.Fetcher
type TextFetcher interface {
	Text(ctx context.Context, url, selector string, timeout time.Duration) (string, error)
}

// Source fetches probabilities from player pages
type Source struct {
	fetcher  TextFetcher
	selector string
	timeout  time.Duration
}

// NewSource creates a Source; empty selector and zero timeout take the fetcher defaults
func NewSource(f TextFetcher, selector string, timeout time.Duration) *Source {
	if selector == "" {
		selector = fetcher.DefaultSelector
	}
	if timeout <= 0 {
		timeout = fetcher.DefaultTimeout
	}
	return &Source{fetcher: f, selector: selector, timeout: timeout}
}

// Probability returns the start probability shown on playerURL
func (s *Source) Probability(ctx context.Context, playerURL string) (float64, error) {
	text, err := s.fetcher.Text(ctx, playerURL, s.selector, s.timeout)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch probability: %w", err)
	}
	return Parse(text)
}
