package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// textNodes returns every descendant text node of the selection in document
// order, unmodified.
func textNodes(sel *goquery.Selection) []string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return parts
}

// cellText extracts the text of a table cell. Precedence: a bold sub-element
// wins and is joined with everything after the first text node, then a
// style2-classed span, then the concatenation of all text nodes. The
// precedence resolves cells that carry both bold and plain content and must
// not be reordered.
func cellText(cell *goquery.Selection) string {
	parts := textNodes(cell)
	strongText := cell.Find("strong").First().Text()
	style2Text := cell.Find("span.style2").First().Text()

	if strongText != "" {
		rest := ""
		if len(parts) > 1 {
			rest = strings.TrimSpace(strings.Join(parts[1:], ""))
		}
		return strongText + ", " + rest
	}
	if style2Text != "" {
		return strings.TrimSpace(style2Text)
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
