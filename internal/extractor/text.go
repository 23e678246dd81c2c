package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// MaxTextRunes bounds the page text handed to the model.
const MaxTextRunes = 8000

const noiseSelector = "script, style, noscript, nav, footer, header, svg, iframe"

var titleSeparators = []string{" | ", " - ", " – ", " — ", " :: ", " · "}

// PageText returns the visible main text of a page without layout chrome,
// whitespace-collapsed and truncated to MaxTextRunes.
func PageText(doc *goquery.Document) string {
	sel := doc.Selection.Clone()
	sel.Find(noiseSelector).Remove()
	return truncate(selectionText(sel), MaxTextRunes)
}

// FullText returns all visible text including headers and footers.
func FullText(doc *goquery.Document) string {
	sel := doc.Selection.Clone()
	sel.Find("script, style, noscript").Remove()
	return selectionText(sel)
}

// PageTitle returns the first segment of the <title> text, e.g. "Acme" for
// "Acme | Home".
func PageTitle(doc *goquery.Document) string {
	title := collapse(doc.Find("title").First().Text())
	for _, sep := range titleSeparators {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
		}
	}
	return strings.TrimSpace(title)
}

// selectionText joins text nodes with spaces so adjacent blocks do not merge.
func selectionText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return collapse(b.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
