package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Extractor is one price-extraction rule. Extractors are tried in order and
// the first whose Matches accepts the URL wins; the generic fallback matches
// every URL and must stay last.
type Extractor struct {
	Name    string
	Matches func(url string) bool
	Extract func(doc *goquery.Document) string
}

// currency markers the generic fallback scans for
var currencyMarkers = []string{"₫", "đ", "VND"}

// invisibleTags hold text a browser never renders. JSON-LD blocks carry
// "priceCurrency":"VND" on most commerce pages, so the generic scan must
// not read them.
var invisibleTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// DefaultExtractors returns the built-in extractor list in priority order
func DefaultExtractors() []Extractor {
	return []Extractor{
		{
			Name: "ketnoitieudung",
			Matches: func(url string) bool {
				return strings.Contains(url, "ketnoitieudung.vn")
			},
			Extract: func(doc *goquery.Document) string {
				// The page lists crossed-out prices first; the live price
				// is the last one.
				sel := doc.Find("span.product-card__main-price")
				if sel.Length() == 0 {
					return ""
				}
				return strings.TrimSpace(sel.Last().Text())
			},
		},
		{
			Name: "boschvn",
			Matches: func(url string) bool {
				return strings.Contains(url, "boschvn.com")
			},
			Extract: func(doc *goquery.Document) string {
				sel := doc.Find("span.woocommerce-Price-amount.amount bdi")
				if sel.Length() == 0 {
					return ""
				}
				text := strings.TrimSpace(sel.First().Text())
				text = strings.ReplaceAll(text, "\u00a0", "")
				text = strings.ReplaceAll(text, " ", "")
				text = strings.TrimSpace(strings.TrimSuffix(text, "₫"))
				if text == "" {
					return ""
				}
				return text + " ₫"
			},
		},
		{
			Name: "generic",
			Matches: func(url string) bool {
				return true
			},
			Extract: extractGeneric,
		},
	}
}

// extractGeneric returns the first visible element whose own text carries a
// currency marker. Own text means direct text nodes only, so a container
// wrapping the whole page does not shadow the actual price element. Only the
// body is scanned, and invisible containers are skipped.
func extractGeneric(doc *goquery.Document) string {
	var found string
	doc.Find("body *").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(s.Nodes) > 0 && invisibleTags[s.Nodes[0].Data] {
			return true
		}
		own := ownText(s)
		if own == "" {
			return true
		}
		for _, marker := range currencyMarkers {
			if strings.Contains(own, marker) {
				found = own
				return false
			}
		}
		return true
	})
	return found
}

// ownText concatenates the direct text-node children of a selection
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, node := range s.Nodes {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.TextNode {
				b.WriteString(child.Data)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// ExtractPrice runs the extractor list against a rendered document and
// returns the raw price text plus the name of the rule that produced it.
// An empty text means no rule found a price.
func ExtractPrice(extractors []Extractor, url string, doc *goquery.Document) (string, string) {
	for _, e := range extractors {
		if !e.Matches(url) {
			continue
		}
		if text := e.Extract(doc); text != "" {
			return text, e.Name
		}
		// Site-specific rules fall through to the generic one when the
		// expected markup is missing.
	}
	return "", ""
}
