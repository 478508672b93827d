package catalog

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the timestamp format written to the date column
const DateLayout = "2006-01-02 15:04:05"

// Observation is one externally obtained price. Found reports whether the
// collaborator actually produced a price; a failed observation carries the
// zero sentinel so downstream math stays uniform.
type Observation struct {
	Value int
	Found bool
	Err   error
}

// ObservedPrice returns a successful observation
func ObservedPrice(value int) Observation {
	return Observation{Value: value, Found: true}
}

// FailedObservation returns the zero-sentinel observation
func FailedObservation(err error) Observation {
	return Observation{Err: err}
}

// NormalizePrice reduces a displayed price string to whole currency units by
// stripping every non-digit rune. "95.000 ₫", "95,000đ" and "95000" all
// normalize to 95000. Empty or unparseable input normalizes to 0.
func NormalizePrice(s string) int {
	var digits strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}

// PercentChange computes the percent delta rounded to two decimals.
// A zero previous price yields 0, never a division by zero.
func PercentChange(current, previous int) float64 {
	if previous == 0 {
		return 0
	}
	return math.Round(float64(current-previous)/float64(previous)*100*100) / 100
}

// SuggestedPrice applies the fixed markdown against the scraped price,
// floored at zero.
func SuggestedPrice(scraped, markdown int) int {
	suggested := scraped - markdown
	if suggested < 0 {
		return 0
	}
	return suggested
}

// Reconcile folds this run's observations into one table row. The old price1
// becomes price-1, the freshly scraped value becomes price1, and the derived
// columns are recomputed. Failed observations compute exactly as the value 0.
func Reconcile(t *Table, row int, scraped, storefront Observation, markdown int, now time.Time) {
	previous := NormalizePrice(t.Get(row, ColPrice))
	current := scraped.Value

	t.Set(row, ColPreviousPrice, strconv.Itoa(previous))
	t.Set(row, ColPrice, strconv.Itoa(current))
	t.Set(row, ColChange, strconv.Itoa(current-previous))
	t.Set(row, ColPercentChange, formatPercent(PercentChange(current, previous)))
	t.Set(row, ColUpdatePrice, strconv.Itoa(SuggestedPrice(current, markdown)))
	t.Set(row, ColStorefrontPrice, strconv.Itoa(storefront.Value))
	t.Set(row, ColDate, now.Format(DateLayout))
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
