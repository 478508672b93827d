package browser

import (
	"bytes"
	"context"
	"io"
	mathrand "math/rand"
	"net/http"
	"slices"
	"time"

	"golang.org/x/net/html/charset"

	"minhng/pricewatch/pkg/errors"
)

var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.coccoc.com/",
	}
)

// Plain fetches pages over bare HTTP with browser-like headers. It sees only
// server-rendered markup; pages that draw their price client side need the
// Chrome renderer instead.
type Plain struct {
	client *http.Client
}

// NewPlain creates a plain-HTTP renderer with the given per-request timeout
func NewPlain(timeout time.Duration) *Plain {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Plain{
		client: &http.Client{Timeout: timeout},
	}
}

// Render fetches url and returns the body converted to UTF-8
func (p *Plain) Render(ctx context.Context, url string) (string, error) {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", errors.NewNetwork("fetch", "failed to create request", err)
	}

	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "vi-VN,vi;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("upgrade-insecure-requests", "1")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", errors.NewNetwork("fetch", "failed to fetch "+url, err)
	}
	defer resp.Body.Close()

	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		retryAfter := resp.Header.Get("Retry-After")
		return "", errors.NewRateLimit("fetch "+url+" retry-after "+retryAfter, 0)
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewNetwork("fetch", "unexpected status code for "+url, nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewNetwork("fetch", "failed to read response body", err)
	}

	// Convert to UTF-8 when the page declares another encoding
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))
	if name == "utf-8" || name == "UTF-8" {
		return string(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return "", errors.NewParsing("fetch", "failed to convert body to UTF-8", err)
	}
	return buf.String(), nil
}
