package fixturehtml

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/fixture-scout/internal/domain/fixture"
	"github.com/riskibarqy/fixture-scout/internal/platform/logging"
	"github.com/riskibarqy/fixture-scout/internal/usecase"
	"golang.org/x/net/html"
)

// Extractor finds fixture rows in a competition schedule page.
//
// It makes one pass over headings, containers and table rows in document
// order. Round and date markers in headings, containers and separator rows
// (rows holding nothing but a date or round label) become the context for the
// rows that follow them; a row's own date or time overrides that
// context for the row only. A row is a fixture when it links to a match
// report and names two teams.
type Extractor struct {
	patterns patterns
	logger   *logging.Logger
}

func NewExtractor(cfg Config, logger *logging.Logger) (*Extractor, error) {
	if logger == nil {
		logger = logging.Default()
	}
	compiled, err := compilePatterns(cfg)
	if err != nil {
		return nil, err
	}
	return &Extractor{patterns: compiled, logger: logger}, nil
}

func (e *Extractor) Extract(doc usecase.SourceDocument) ([]fixture.Candidate, usecase.ExtractStats, error) {
	var stats usecase.ExtractStats

	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, stats, fmt.Errorf("%w: parse html: %v", usecase.ErrSourceMalformed, err)
	}
	base, err := url.Parse(doc.URL)
	if err != nil || base.Host == "" {
		base = nil
	}

	nodes := make([]node, 0, 256)
	strategyHits := make(map[string]int, 3)
	for n := range structuralNodes(parsed.Nodes[0]) {
		item := e.describe(parsed, n, base, strategyHits)
		if item.kind == kindRow {
			stats.Rows++
			if item.fixture {
				stats.FixtureRows++
			} else {
				stats.SkippedRows++
			}
		}
		nodes = append(nodes, item)
	}
	stats.Nodes = len(nodes)

	frames := foldContext(nodes)
	candidates := make([]fixture.Candidate, 0, stats.FixtureRows)
	seen := make(map[string]struct{}, stats.FixtureRows)
	for idx, n := range nodes {
		if !n.fixture {
			continue
		}

		candidate := fixture.Candidate{
			Home:        n.home,
			Away:        n.away,
			RoundMarker: frames[idx].round,
			Date:        frames[idx].date,
			SourceRef:   n.reportRef,
		}
		if date, ok := fixture.ParseDateTokens(n.inline); ok {
			candidate.Date = date
		}
		if clock, ok := fixture.ParseTimeTokens(n.inline); ok {
			candidate.Time = clock
		}
		candidate.Resolve()

		key := candidate.Key()
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		if candidate.KickoffAt != nil {
			stats.Timed++
		}
		candidates = append(candidates, candidate)
	}
	stats.Candidates = len(candidates)

	e.logger.Debug("fixture rows extracted",
		"url", doc.URL,
		"nodes", stats.Nodes,
		"rows", stats.Rows,
		"fixture_rows", stats.FixtureRows,
		"duplicates", stats.Duplicates,
		"timed", stats.Timed,
		"club_profile_rows", strategyHits["club_profile"],
		"primary_link_rows", strategyHits["primary_link"],
		"home_away_cell_rows", strategyHits["home_away_cells"],
	)
	return candidates, stats, nil
}

func (e *Extractor) describe(doc *goquery.Document, n *html.Node, base *url.URL, strategyHits map[string]int) node {
	kind, _ := classify(n)
	switch kind {
	case kindContainer:
		return node{kind: kind, text: ownText(n)}
	case kindHeading:
		return node{kind: kind, text: fullText(doc.FindNodes(n))}
	}

	row := doc.FindNodes(n)
	item := node{kind: kindRow, text: fullText(row)}

	home, away, strategy, hasTeams := e.teams(row)
	report := e.reportLink(row, base)
	if report == "" || !hasTeams {
		item.separator = !hasTeams && !e.hasClubAnchor(row) && fixture.IsMarkerText(item.text)
		return item
	}
	strategyHits[strategy]++

	item.fixture = true
	item.home = home
	item.away = away
	item.reportRef = report
	item.inline = inlineText(row, home, away)
	return item
}
