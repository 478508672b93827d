package run

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"minhng/pricewatch/internal/catalog"
	"minhng/pricewatch/internal/scraper"
	"minhng/pricewatch/logger"
	"minhng/pricewatch/services/cache"
	"minhng/pricewatch/services/publisher"
	"minhng/pricewatch/services/sheet"
)

// Storefront is the slice of the storefront client the runner needs
type Storefront interface {
	PriceBySKU(ctx context.Context, sku string) catalog.Observation
	UpdatePriceBySKU(ctx context.Context, sku string, price int) bool
}

// Exporter writes the local table snapshot
type Exporter interface {
	Export(records [][]interface{}) error
	Path() string
}

// RendererFactory opens one renderer session per run. The returned teardown
// must be called when the run ends, fatal errors included.
type RendererFactory func() (scraper.Renderer, func(), error)

// PriceChange is the event published for a row whose price moved
type PriceChange struct {
	SKU           string  `json:"sku"`
	Price         int     `json:"price"`
	PreviousPrice int     `json:"previous_price"`
	Change        int     `json:"change"`
	PercentChange float64 `json:"percent_change"`
	Date          string  `json:"date"`
}

// PushResult is the per-SKU outcome of a bulk price push
type PushResult struct {
	SKU     string `json:"sku"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Options configures a Runner
type Options struct {
	Markdown        int
	ScrapeBlockTime time.Duration
}

// Runner owns the scrape-reconcile-persist pipeline and the bulk price
// push. Rows are processed strictly in table order because the renderer
// session is a single shared exclusive resource.
type Runner struct {
	store       sheet.Store
	storefront  Storefront
	exporter    Exporter
	pub         publisher.Publisher
	cacheSvc    cache.CacheService
	newRenderer RendererFactory
	tracker     *Tracker
	opts        Options
	log         *logger.Logger
	now         func() time.Time
}

// NewRunner creates a runner. pub may be nil when events are disabled.
func NewRunner(
	store sheet.Store,
	sf Storefront,
	exporter Exporter,
	pub publisher.Publisher,
	cacheSvc cache.CacheService,
	newRenderer RendererFactory,
	opts Options,
) *Runner {
	return &Runner{
		store:       store,
		storefront:  sf,
		exporter:    exporter,
		pub:         pub,
		cacheSvc:    cacheSvc,
		newRenderer: newRenderer,
		tracker:     NewTracker(),
		opts:        opts,
		log:         logger.ForRunner(),
		now:         time.Now,
	}
}

// Tracker exposes the progress tracker for pollers
func (r *Runner) Tracker() *Tracker {
	return r.tracker
}

// Start launches the pipeline in a background goroutine. It returns false
// when a run is already active.
func (r *Runner) Start(ctx context.Context) bool {
	if !r.tracker.TryStart() {
		r.log.Warn().Msg("Run already in progress, start rejected")
		return false
	}
	go r.run(ctx)
	return true
}

// run executes the whole pipeline to completion. Per-row failures degrade
// to sentinels; only setup and write-back failures end the run in error.
func (r *Runner) run(ctx context.Context) {
	start := r.now()

	records, err := r.store.LoadAllRows(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to load catalog table")
		r.tracker.Fail("error: " + err.Error())
		return
	}

	table := catalog.ParseTable(records)
	r.tracker.Begin(table.Len())
	r.log.Info().Int("rows", table.Len()).Msg("Starting price run")

	renderer, teardown, err := r.newRenderer()
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to open renderer session")
		r.tracker.Fail("error: " + err.Error())
		return
	}
	defer teardown()

	s := scraper.New(renderer, r.cacheSvc, r.opts.ScrapeBlockTime)

	// Rows whose scrape failed carry the zero sentinel; their change column
	// is an artifact, not a price move, so they are excluded from events.
	failedRows := make(map[int]bool)

	for i := 0; i < table.Len(); i++ {
		sku := table.SKU(i)
		r.log.Debug().
			Int("row", i+1).
			Int("total", table.Len()).
			Str("sku", sku).
			Msg("Processing row")

		scraped := s.ScrapePrice(ctx, table.CompetitorURL(i))
		if !scraped.Found {
			failedRows[i] = true
			r.log.Warn().Err(scraped.Err).Str("sku", sku).Msg("Scrape failed, writing zero sentinel")
		}

		storefrontPrice := r.storefront.PriceBySKU(ctx, sku)
		if !storefrontPrice.Found {
			r.log.Debug().Err(storefrontPrice.Err).Str("sku", sku).Msg("No storefront price for row")
		}

		catalog.Reconcile(table, i, scraped, storefrontPrice, r.opts.Markdown, r.now())

		r.tracker.Step()
	}

	if err := r.store.ReplaceAllRows(ctx, table.Records()); err != nil {
		r.log.Error().Err(err).Msg("Failed to write table back")
		r.tracker.Fail("error: " + err.Error())
		return
	}

	if err := r.exporter.Export(table.Records()); err != nil {
		r.log.Error().Err(err).Msg("Failed to export excel snapshot")
		r.tracker.Fail("error: " + err.Error())
		return
	}

	r.publishChanges(table, failedRows)
	r.tracker.Done()
	r.log.Info().
		Int("rows", table.Len()).
		Dur("elapsed", r.now().Sub(start)).
		Str("artifact", r.exporter.Path()).
		Msg("Price run complete")
}

// publishChanges emits one event per row whose price moved. Rows in
// failedRows are skipped. Event failures are logged and never fail the run.
func (r *Runner) publishChanges(table *catalog.Table, failedRows map[int]bool) {
	if r.pub == nil {
		return
	}

	published := 0
	for i := 0; i < table.Len(); i++ {
		if failedRows[i] {
			continue
		}
		change, err := strconv.Atoi(table.Get(i, catalog.ColChange))
		if err != nil || change == 0 {
			continue
		}
		percent, _ := strconv.ParseFloat(table.Get(i, catalog.ColPercentChange), 64)
		event := PriceChange{
			SKU:           table.SKU(i),
			Price:         catalog.NormalizePrice(table.Get(i, catalog.ColPrice)),
			PreviousPrice: catalog.NormalizePrice(table.Get(i, catalog.ColPreviousPrice)),
			Change:        change,
			PercentChange: percent,
			Date:          table.Get(i, catalog.ColDate),
		}

		data, err := json.Marshal(event)
		if err != nil {
			r.log.Error().Err(err).Str("sku", event.SKU).Msg("Failed to marshal price change")
			continue
		}
		if err := r.pub.Publish(event.SKU, data); err != nil {
			r.log.Error().Err(err).Str("sku", event.SKU).Msg("Failed to publish price change")
			continue
		}
		published++
	}

	if published > 0 {
		if err := r.pub.TrimStream(); err != nil {
			r.log.Error().Err(err).Msg("Failed to trim event stream")
		}
	}
	r.log.Debug().Int("events", published).Msg("Published price changes")
}

// PushPrices pushes the chosen prices to the storefront for the given SKUs
// and persists them into the shared table. SKUs missing from the price map
// get an explicit failure entry; the table write-back covers only SKUs that
// had a price supplied.
func (r *Runner) PushPrices(ctx context.Context, skus []string, prices map[string]int) ([]PushResult, error) {
	records, err := r.store.LoadAllRows(ctx)
	if err != nil {
		return nil, err
	}
	table := catalog.ParseTable(records)

	results := make([]PushResult, 0, len(skus))
	wroteAny := false

	for _, sku := range skus {
		price, ok := prices[sku]
		if !ok {
			results = append(results, PushResult{SKU: sku, Success: false, Error: "no price supplied"})
			continue
		}

		success := r.storefront.UpdatePriceBySKU(ctx, sku, price)
		result := PushResult{SKU: sku, Success: success}
		if !success {
			result.Error = "storefront update failed"
		}
		results = append(results, result)

		// Persist the chosen price for every matching row. Duplicate SKUs
		// in the table all take the update.
		for i := 0; i < table.Len(); i++ {
			if table.SKU(i) != sku {
				continue
			}
			table.Set(i, catalog.ColUpdatePrice, strconv.Itoa(price))
			if success {
				table.Set(i, catalog.ColStorefrontPrice, strconv.Itoa(price))
			}
			table.Set(i, catalog.ColDate, r.now().Format(catalog.DateLayout))
			wroteAny = true
		}
	}

	if wroteAny {
		if err := r.store.ReplaceAllRows(ctx, table.Records()); err != nil {
			return results, err
		}
	}
	return results, nil
}
