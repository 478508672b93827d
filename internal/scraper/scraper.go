package scraper

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"minhng/pricewatch/internal/catalog"
	"minhng/pricewatch/logger"
	"minhng/pricewatch/pkg/errors"
	"minhng/pricewatch/services/cache"
)

// Renderer turns a URL into rendered HTML. The Chrome session behind it is a
// single shared exclusive resource, so rows are scraped one at a time.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Scraper produces price observations from competitor pages. Every failure
// path degrades to the zero-sentinel observation; nothing escapes to the
// row loop.
type Scraper struct {
	renderer   Renderer
	extractors []Extractor
	cacheSvc   cache.CacheService
	blockTime  time.Duration
	log        *logger.Logger
}

// New creates a scraper over a renderer session
func New(renderer Renderer, cacheSvc cache.CacheService, blockTime time.Duration) *Scraper {
	if cacheSvc == nil {
		cacheSvc = cache.NewNoop()
	}
	return &Scraper{
		renderer:   renderer,
		extractors: DefaultExtractors(),
		cacheSvc:   cacheSvc,
		blockTime:  blockTime,
		log:        logger.ForScraper(),
	}
}

// ScrapePrice renders the competitor page and extracts a price observation.
// An empty URL and every render or extraction failure yield the sentinel.
func (s *Scraper) ScrapePrice(ctx context.Context, pageURL string) catalog.Observation {
	if strings.TrimSpace(pageURL) == "" {
		return catalog.FailedObservation(errors.NewValidation("scraper", "empty competitor url"))
	}

	host := hostOf(pageURL)
	blockKey := "scrape_block:" + host
	if host != "" {
		if _, err := s.cacheSvc.Get(blockKey); err == nil {
			s.log.Warn().Str("host", host).Msg("Host is in a block window, skipping")
			return catalog.FailedObservation(errors.NewRateLimit(host, s.blockTime))
		}
	}

	html, err := s.renderer.Render(ctx, pageURL)
	if err != nil {
		if isRateLimited(err) && host != "" {
			if setErr := s.cacheSvc.Set(blockKey, []byte(fmt.Sprintf("%d", int(s.blockTime.Seconds()))), s.blockTime); setErr != nil {
				s.log.Warn().Err(setErr).Str("host", host).Msg("Failed to set block window")
			}
		}
		s.log.Warn().Err(err).Str("url", pageURL).Msg("Render failed")
		return catalog.FailedObservation(err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.log.Warn().Err(err).Str("url", pageURL).Msg("Failed to parse rendered HTML")
		return catalog.FailedObservation(errors.NewParsing("scraper", "failed to parse rendered HTML", err))
	}

	text, extractor := ExtractPrice(s.extractors, pageURL, doc)
	if text == "" {
		s.log.Debug().Str("url", pageURL).Msg("No price found on page")
		return catalog.FailedObservation(errors.NewParsing("scraper", "no price found on "+pageURL, nil))
	}

	value := catalog.NormalizePrice(text)
	s.log.Debug().
		Str("url", pageURL).
		Str("extractor", extractor).
		Str("raw", text).
		Int("price", value).
		Msg("Scraped price")
	return catalog.ObservedPrice(value)
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func isRateLimited(err error) bool {
	var perr *errors.PipelineError
	if stderrors.As(err, &perr) {
		return perr.Type == errors.ErrorTypeRateLimit
	}
	return false
}
