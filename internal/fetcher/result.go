package fetcher

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Result is the element read from a page. It holds plain strings only, the
// browser is gone by the time a Result is formatted.
type Result struct {
	Text     string        // rendered innerText of the first match
	HTML     string        // outer HTML of the first match
	URL      string        // final document URL
	Selector string
	Status   int // main document HTTP status, 0 when unknown
	LoadTime time.Duration
}

// ToText returns the rendered text unchanged
func (r *Result) ToText() (string, error) {
	return r.Text, nil
}

// ToHTML returns the element's outer HTML
func (r *Result) ToHTML() (string, error) {
	return r.HTML, nil
}

// ToMarkdown converts the element HTML to Markdown
func (r *Result) ToMarkdown() (string, error) {
	if r.HTML == "" {
		return r.Text, nil
	}
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(r.HTML)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return markdown, nil
}

// ToJSON returns all fields as indented JSON
func (r *Result) ToJSON() ([]byte, error) {
	type jsonOutput struct {
		Text     string `json:"text"`
		HTML     string `json:"html"`
		URL      string `json:"url"`
		Selector string `json:"selector"`
		Status   int    `json:"status,omitempty"`
		LoadTime int64  `json:"load_time"`
	}

	return json.MarshalIndent(jsonOutput{
		Text:     r.Text,
		HTML:     r.HTML,
		URL:      r.URL,
		Selector: r.Selector,
		Status:   r.Status,
		LoadTime: r.LoadTime.Milliseconds(),
	}, "", "  ")
}

// ToCSV returns a header row and one record
func (r *Result) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"url", "selector", "text", "status", "load_time_ms"})
	_ = w.Write([]string{r.URL, r.Selector, r.Text, strconv.Itoa(r.Status), strconv.FormatInt(r.LoadTime.Milliseconds(), 10)})
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.String(), nil
}
