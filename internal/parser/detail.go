package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/busmarket/bus-scraper/internal/models"
)

// ParseDetailPage completes a partial record from its detail page: images,
// free-text description, price, air-conditioning category, then the
// classifier chain over the first details table. Fields already set by the
// listing stage are never overwritten here.
func (p *BusParser) ParseDetailPage(doc *goquery.Document, base *url.URL, bus *models.Bus) {
	bus.Images = append(bus.Images, p.extractImages(doc, base, p.cfg.MainImageSelector, "main_images")...)
	bus.Images = append(bus.Images, p.extractImages(doc, base, p.cfg.ThumbnailSelector, "thumbnails")...)

	bus.Description = p.extractDescription(doc)
	bus.Price = p.extractPrice(doc.Find(priceHeadingSelector).First().Text())

	rows := p.detailRows(doc)
	bus.AirConditioning = p.ClassifyAirConditioning(rows)

	var otherDetails []string
	for _, text := range rows {
		if text == "" {
			continue
		}
		if !p.ClassifyRow(text, bus) {
			otherDetails = append(otherDetails, text)
		}
	}

	overview := &models.BusOverview{}
	if len(otherDetails) > 0 {
		overview.Features = strings.Join(otherDetails, ", ")
	}
	bus.Overview = overview
}

// detailRows extracts the cell text of every row of the first details table,
// in page order.
func (p *BusParser) detailRows(doc *goquery.Document) []string {
	var rows []string
	doc.Find(p.cfg.DetailsTableSelector).Find("tr").Each(func(_ int, row *goquery.Selection) {
		rows = append(rows, cellText(row.Find("td")))
	})
	return rows
}

// extractImages collects one image group in page order. Main/floor images are
// indexed 1..N, thumbnails -1..-N, so render order can be reconstructed from
// the sign alone. Images without alt text get a generated placeholder name.
func (p *BusParser) extractImages(doc *goquery.Document, base *url.URL, selector, group string) []models.BusImage {
	var images []models.BusImage

	doc.Find(selector).Each(func(i int, img *goquery.Selection) {
		src, _ := img.Attr("src")

		image := models.BusImage{
			Name:        img.AttrOr("alt", ""),
			URL:         resolveURL(base, src),
			Description: img.AttrOr("title", ""),
		}

		if group == "thumbnails" {
			image.ImageIndex = -1 - i
		} else {
			image.ImageIndex = 1 + i
		}

		if image.Name == "" {
			image.Name = fmt.Sprintf("%s_%d", group, i)
		}

		images = append(images, image)
	})

	return images
}

// extractDescription concatenates the text of every non-classed paragraph in
// the main content region, each fragment trimmed, with no separator.
func (p *BusParser) extractDescription(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find(contentRegionID).Find("p:not([class])").Each(func(_ int, para *goquery.Selection) {
		for _, part := range textNodes(para) {
			b.WriteString(strings.TrimSpace(part))
		}
	})
	return b.String()
}

// extractPrice pulls the dollar amount out of the page's heading text,
// accepting both plain "$9,999" and "starting at $9,999" forms. The raw
// matched amount is kept; reduction to digits happens at validation.
func (p *BusParser) extractPrice(text string) string {
	if text == "" {
		return ""
	}
	if m := p.pricePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := p.priceStartingPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
