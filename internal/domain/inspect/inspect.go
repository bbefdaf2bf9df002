package inspect

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/anzchy/frontend-sandbox/internal/shared/utils"
)

// maxMatches bounds the matches returned for one query
const maxMatches = 50

// maxTextLen bounds the text excerpt per match
const maxTextLen = 200

// Match is one element matched by a selector or XPath query
type Match struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
	HTML string `json:"html,omitempty"`
}

// Result is the answer to one inspection query
type Result struct {
	Query   string  `json:"query"`
	Count   int     `json:"count"`
	Matches []Match `json:"matches"`
}

// Metadata describes the assembled document as a whole
type Metadata struct {
	Title   string `json:"title"`
	Charset string `json:"charset"`
	Bytes   int    `json:"bytes"`
}

// Selector runs a CSS selector query over the document
func Selector(document, selector string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	res := &Result{Query: selector}
	sel := doc.Find(selector)
	res.Count = sel.Length()
	sel.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxMatches {
			return false
		}
		outer, _ := goquery.OuterHtml(s)
		res.Matches = append(res.Matches, Match{
			Tag:  goquery.NodeName(s),
			Text: trim(s.Text()),
			HTML: trim(outer),
		})
		return true
	})
	return res, nil
}

// XPath runs an XPath query over the document
func XPath(document, expr string) (*Result, error) {
	doc, err := htmlquery.Parse(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("bad xpath %q: %w", expr, err)
	}

	res := &Result{Query: expr, Count: len(nodes)}
	for i, n := range nodes {
		if i >= maxMatches {
			break
		}
		res.Matches = append(res.Matches, Match{
			Tag:  n.Data,
			Text: trim(htmlquery.InnerText(n)),
			HTML: trim(htmlquery.OutputHTML(n, true)),
		})
	}
	return res, nil
}

// Describe extracts document-level metadata
func Describe(document string) (*Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return &Metadata{
		Title:   trim(doc.Find("title").First().Text()),
		Charset: utils.DetectCharset([]byte(document)),
		Bytes:   len(document),
	}, nil
}

func trim(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxTextLen {
		return s[:maxTextLen] + "…"
	}
	return s
}
