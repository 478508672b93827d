package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"

	"minhng/pricewatch/pkg/errors"
)

// Options configures a Chrome session
type Options struct {
	// SettleDelay is how long to wait after navigation for client-side
	// rendering to finish before taking the DOM snapshot.
	SettleDelay time.Duration
	// LoadTimeout bounds a single page render end to end
	LoadTimeout time.Duration
	UserAgent   string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Chrome renders pages with a headless Chrome instance. One Chrome session
// is shared by all rows of a run and must be closed at run end.
type Chrome struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	opts        Options
}

// NewChrome launches a headless Chrome session
func NewChrome(opts Options) (*Chrome, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.LoadTimeout == 0 {
		opts.LoadTimeout = 45 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(opts.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser process up front so a broken Chrome install fails
	// the run setup instead of the first row.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, errors.NewBrowser("chrome", "failed to start headless browser", err)
	}

	return &Chrome{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		cancel:      cancel,
		opts:        opts,
	}, nil
}

// Render navigates to url in the shared session and returns the rendered HTML
func (c *Chrome) Render(ctx context.Context, url string) (string, error) {
	renderCtx, cancel := context.WithTimeout(c.browserCtx, c.opts.LoadTimeout)
	defer cancel()

	// Stop waiting early if the caller's context is done
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-renderCtx.Done():
		}
	}()

	var html string
	err := chromedp.Run(renderCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(c.opts.SettleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", errors.NewBrowser("chrome", "failed to render "+url, err)
	}
	return html, nil
}

// Close tears down the browser session
func (c *Chrome) Close() {
	c.cancel()
	c.allocCancel()
}
