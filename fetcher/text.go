package fetcher

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

const (
	boilerplateSelector = "script, style, noscript, template, svg, iframe, nav, footer, header, aside, form"
	blockSelector       = "p, div, section, article, li, tr, dt, dd, h1, h2, h3, h4, h5, h6, table, ul, ol, dl, blockquote, pre"
)

// HTMLToText reduces a rendered page to one line per block element. Text is
// NFKC-folded so non-breaking spaces and full-width digits read as plain ASCII.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("fetcher: parse html: %w", err)
	}

	doc.Find(boilerplateSelector).Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
		s.AppendHtml("\n")
	})

	text := norm.NFKC.String(doc.Find("body").Text())

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if collapsed := strings.Join(strings.Fields(line), " "); collapsed != "" {
			out = append(out, collapsed)
		}
	}
	return strings.Join(out, "\n"), nil
}
