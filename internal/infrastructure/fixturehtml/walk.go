package fixturehtml

import (
	"iter"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/fixture-scout/internal/domain/fixture"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/net/html"
)

type nodeKind int

const (
	kindHeading nodeKind = iota + 1
	kindContainer
	kindRow
)

var headingTags = map[string]struct{}{
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"caption": {}, "legend": {},
}

var containerTags = map[string]struct{}{
	"div": {}, "section": {}, "article": {}, "header": {}, "p": {}, "span": {},
	"li": {}, "dt": {}, "dd": {}, "strong": {}, "b": {}, "time": {},
}

var skippedTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "template": {}, "svg": {}, "head": {},
}

func classify(n *html.Node) (nodeKind, bool) {
	if n.Type != html.ElementNode {
		return 0, false
	}
	if n.Data == "tr" || attr(n, "role") == "row" {
		return kindRow, true
	}
	if _, ok := headingTags[n.Data]; ok {
		return kindHeading, true
	}
	if _, ok := containerTags[n.Data]; ok {
		return kindContainer, true
	}
	return 0, false
}

// structuralNodes yields headings, containers and rows in document order.
// Headings and rows are leaves: their descendants are not yielded.
func structuralNodes(root *html.Node) iter.Seq[*html.Node] {
	return func(yield func(*html.Node) bool) {
		var walk func(n *html.Node) bool
		walk = func(n *html.Node) bool {
			if n.Type == html.ElementNode {
				if _, skip := skippedTags[n.Data]; skip {
					return true
				}
				if kind, ok := classify(n); ok {
					if !yield(n) {
						return false
					}
					if kind != kindContainer {
						return true
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(root)
	}
}

// node is one structural element with everything the context fold needs.
type node struct {
	kind      nodeKind
	text      string
	fixture   bool
	separator bool
	home      string
	away      string
	inline    string
	reportRef string
}

// frame is the context in force at one node index.
type frame struct {
	round *int
	date  *fixture.DateTokens
}

// foldContext carries (round, date) forward over nodes. Headings, containers
// and separator rows may update it; other rows only read it.
func foldContext(nodes []node) []frame {
	frames := make([]frame, len(nodes))
	var current frame
	for idx, n := range nodes {
		if n.kind != kindRow || n.separator {
			current = advance(current, n.text)
		}
		frames[idx] = current
	}
	return frames
}

func advance(current frame, text string) frame {
	if text == "" {
		return current
	}
	next := current
	if round, ok := fixture.ParseRoundMarker(text); ok {
		next.round = &round
	}
	if date, ok := fixture.ParseDateTokens(text); ok {
		next.date = date
	}
	return next
}

func ownText(n *html.Node) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			_, _ = buf.WriteString(c.Data)
			_ = buf.WriteByte(' ')
		}
	}
	return collapseSpace(buf.String())
}

func fullText(sel *goquery.Selection) string {
	return collapseSpace(sel.Text())
}

// collapseSpace trims and folds every whitespace run, NBSP included, to one space.
func collapseSpace(value string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	pendingSpace := false
	for _, r := range value {
		if unicode.IsSpace(r) {
			pendingSpace = buf.Len() > 0
			continue
		}
		if pendingSpace {
			_ = buf.WriteByte(' ')
			pendingSpace = false
		}
		_, _ = buf.WriteString(string(r))
	}
	return buf.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(sel *goquery.Selection, classes ...string) bool {
	for _, class := range classes {
		if sel.HasClass(class) {
			return true
		}
	}
	return false
}

// removeFold blanks every case-insensitive occurrence of name in text.
func removeFold(text, name string) string {
	if name == "" {
		return text
	}
	lower, needle := strings.ToLower(text), strings.ToLower(name)
	if len(lower) != len(text) {
		return strings.ReplaceAll(text, name, " ")
	}
	var b strings.Builder
	for {
		idx := strings.Index(lower, needle)
		if idx < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:idx])
		b.WriteByte(' ')
		text, lower = text[idx+len(needle):], lower[idx+len(needle):]
	}
}
