package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/rec-schedule/internal/logger"
)

const (
	UserAgent = "rec-schedule/1.0 (github.com/pfrederiksen/rec-schedule)"
	Timeout   = 30 * time.Second
)

// View is the text of one rendered schedule view (one day tab, or the whole page)
type View struct {
	Label string
	Text  string
}

// Capture is everything acquired from one source session
type Capture struct {
	Views []View
	// HTML is the final page source, when the source has one
	HTML string
}

// Texts returns the text of every view in order
func (c *Capture) Texts() []string {
	texts := make([]string, 0, len(c.Views))
	for _, v := range c.Views {
		texts = append(texts, v.Text)
	}
	return texts
}

// Source produces schedule page text
type Source interface {
	Capture(ctx context.Context) (*Capture, error)
}

// Fetcher downloads a server-rendered schedule page
type Fetcher struct {
	client  *http.Client
	url     string
	retries int
}

// NewFetcher creates a Fetcher for url that retries failed requests up to retries times
func NewFetcher(url string, retries int) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: Timeout,
		},
		url:     url,
		retries: retries,
	}
}

// Capture fetches the page and flattens it into a single view
func (f *Fetcher) Capture(ctx context.Context) (*Capture, error) {
	var body []byte

	op := func() error {
		var err error
		body, err = f.fetch(ctx)
		return err
	}

	start := time.Now()
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(f.retries)), ctx)
	notify := func(err error, wait time.Duration) {
		logger.Warn("Fetch failed, retrying", logger.Fields{
			"url":   f.url,
			"error": err.Error(),
			"wait":  wait.String(),
		})
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	logger.RecordTiming("capture.fetch", time.Since(start))

	text, err := TextFromHTML(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	return &Capture{
		Views: []View{{Label: f.url, Text: text}},
		HTML:  string(body),
	}, nil
}

func (f *Fetcher) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		// Client errors will not fix themselves
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

// FileSource reads a saved schedule from disk, or from Reader when set.
// HTML is detected from the file extension or the leading markup.
type FileSource struct {
	Path   string
	Reader io.Reader
}

// Capture reads the file as a single view
func (s *FileSource) Capture(ctx context.Context) (*Capture, error) {
	r := s.Reader
	if r == nil {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", s.Path, err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.label(), err)
	}

	capture := &Capture{}
	text := string(data)
	if s.isHTML(text) {
		capture.HTML = text
		text, err = TextFromHTML(strings.NewReader(text))
		if err != nil {
			return nil, err
		}
	}
	capture.Views = []View{{Label: s.label(), Text: text}}

	return capture, nil
}

func (s *FileSource) label() string {
	if s.Path == "" || s.Path == "-" {
		return "stdin"
	}
	return filepath.Base(s.Path)
}

func (s *FileSource) isHTML(text string) bool {
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".html", ".htm":
		return true
	case ".txt":
		return false
	}
	head := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
