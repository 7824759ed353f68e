package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/busmarket/bus-scraper/internal/models"
)

// ListingEntry is one row of a listing page: the partial record built from
// the row plus the detail page to fetch next. The partial record travels with
// the detail request and is completed there.
type ListingEntry struct {
	Bus       *models.Bus
	DetailURL string
}

// ParseListingPage walks every listing table on a paginated listings page.
// Rows without a detail link are skipped entirely: a record is only ever
// emitted after its detail page has been fetched.
func (p *BusParser) ParseListingPage(doc *goquery.Document, base *url.URL, source string) []ListingEntry {
	var entries []ListingEntry

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		bus := models.NewBus(source, "")

		if title := table.Find(listingTitleSelector).First().Text(); title != "" {
			bus.Title = strings.TrimSpace(title)
		}
		bus.Sold = isSold(table)

		href, ok := table.Find(listingLinkSelector).First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		detailURL := resolveURL(base, strings.TrimSpace(href))
		bus.SourceURL = detailURL

		entries = append(entries, ListingEntry{Bus: bus, DetailURL: detailURL})
	})

	return entries
}

// isSold reports whether the listing row's concatenated text carries the
// literal sold marker.
func isSold(table *goquery.Selection) bool {
	return strings.Contains(strings.Join(textNodes(table), ""), "Sold")
}

// resolveURL makes href absolute against the page base.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
