package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelector matches elements that carry no signal for page
// classification and routinely dominate raw page source.
const noiseSelector = "script, style, noscript, iframe, template"

// cleanHTML strips noise elements from raw page HTML and returns the cleaned
// markup plus the page title. When the markup cannot be parsed at all, the
// raw input is returned so the analysis can still proceed on it.
func cleanHTML(raw string) (cleaned string, title string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw, ""
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	doc.Find(noiseSelector).Remove()

	html, err := doc.Html()
	if err != nil {
		return raw, title
	}
	return html, title
}

// truncate cuts s to at most window bytes, backing up so a multi-byte rune
// is never split.
func truncate(s string, window int) string {
	if len(s) <= window {
		return s
	}
	cut := window
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
