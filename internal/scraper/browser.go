package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/pfrederiksen/rec-schedule/internal/logger"
)

// Default browser parameters
const (
	DefaultWait    = 5 * time.Second
	DefaultTimeout = 2 * time.Minute
	DefaultWidth   = 1920
	DefaultHeight  = 1080
)

// BrowserOptions configures a headless browser session
type BrowserOptions struct {
	// URL of the schedule page
	URL string
	// TabSelector matches the day tabs. Fewer than two matches means the page is
	// read as a single view.
	TabSelector string
	// Wait is the pause after navigation and after each tab click
	Wait time.Duration
	// Timeout bounds one session
	Timeout time.Duration
	// Retries is the number of extra sessions after a failure
	Retries int
	// ExecPath overrides the Chrome executable
	ExecPath string
}

// Browser renders the schedule page in headless Chrome
type Browser struct {
	opts BrowserOptions
}

// NewBrowser creates a Browser, filling unset options with defaults
func NewBrowser(opts BrowserOptions) *Browser {
	if opts.Wait <= 0 {
		opts.Wait = DefaultWait
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &Browser{opts: opts}
}

// Capture renders the page and returns the text of every day tab, retrying failed
// sessions with exponential backoff.
func (b *Browser) Capture(ctx context.Context) (*Capture, error) {
	if b.opts.URL == "" {
		return nil, errors.New("browser: URL is required")
	}

	var capture *Capture
	op := func() error {
		var err error
		capture, err = b.session(ctx)
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("Browser session failed, retrying", logger.Fields{
			"url":   b.opts.URL,
			"error": err.Error(),
			"wait":  wait.String(),
		})
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(b.opts.Retries)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}

	return capture, nil
}

func (b *Browser) session(parent context.Context) (*Capture, error) {
	start := time.Now()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(DefaultWidth, DefaultHeight),
		chromedp.UserAgent(UserAgent),
	)
	if b.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(b.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	defer cancelAlloc()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer timeoutCancel()

	var tabs []*cdp.Node
	if err := chromedp.Run(ctx,
		chromedp.Navigate(b.opts.URL),
		chromedp.Sleep(b.opts.Wait),
	); err != nil {
		return nil, fmt.Errorf("browser: loading %s: %w", b.opts.URL, err)
	}

	if b.opts.TabSelector != "" {
		if err := chromedp.Run(ctx,
			chromedp.Nodes(b.opts.TabSelector, &tabs, chromedp.ByQueryAll, chromedp.AtLeast(0)),
		); err != nil {
			return nil, fmt.Errorf("browser: finding day tabs: %w", err)
		}
	}

	logger.Debug("Found day tabs", logger.Fields{"count": len(tabs)})

	capture := &Capture{}
	if len(tabs) >= 2 {
		for i, tab := range tabs {
			text, err := b.clickTab(ctx, tab)
			if err != nil {
				// One broken tab does not lose the others
				logger.Warn("Could not read day tab", logger.Fields{
					"tab":   i + 1,
					"error": err.Error(),
				})
				continue
			}
			capture.Views = append(capture.Views, View{Label: tabLabel(i, tab), Text: text})
		}
	}

	if len(capture.Views) == 0 {
		var text string
		if err := chromedp.Run(ctx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
			return nil, fmt.Errorf("browser: reading page text: %w", err)
		}
		capture.Views = append(capture.Views, View{Label: "page", Text: text})
	}

	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &capture.HTML, chromedp.ByQuery)); err != nil {
		logger.Warn("Could not read page HTML", logger.Fields{"error": err.Error()})
	}

	logger.RecordTiming("capture.fetch", time.Since(start))
	logger.Info("Captured schedule", logger.Fields{
		"url":   b.opts.URL,
		"views": len(capture.Views),
	})

	return capture, nil
}

func (b *Browser) clickTab(ctx context.Context, tab *cdp.Node) (string, error) {
	var text string
	err := chromedp.Run(ctx,
		chromedp.MouseClickNode(tab),
		chromedp.Sleep(b.opts.Wait),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	return text, err
}

// tabLabel names a tab by its visible text when the node carries it inline
func tabLabel(i int, tab *cdp.Node) string {
	var parts []string
	for _, c := range tab.Children {
		if c.NodeType == cdp.NodeTypeText {
			if s := strings.TrimSpace(c.NodeValue); s != "" {
				parts = append(parts, s)
			}
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("tab %d", i+1)
	}
	return strings.Join(parts, " ")
}
