package fixturehtml

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/fixture-scout/internal/domain/fixture"
)

// teamStrategy pulls (home, away) out of a row. Strategies are tried in rank
// order until one yields two distinct team names.
type teamStrategy struct {
	name string
	find func(row *goquery.Selection) (string, string, bool)
}

func (e *Extractor) strategies() []teamStrategy {
	return []teamStrategy{
		{name: "club_profile", find: e.clubProfileTeams},
		{name: "primary_link", find: e.primaryLinkTeams},
		{name: "home_away_cells", find: homeAwayCellTeams},
	}
}

func (e *Extractor) teams(row *goquery.Selection) (string, string, string, bool) {
	for _, strategy := range e.strategies() {
		if home, away, ok := strategy.find(row); ok {
			return home, away, strategy.name, true
		}
	}
	return "", "", "", false
}

func (e *Extractor) clubProfileTeams(row *goquery.Selection) (string, string, bool) {
	names := make([]string, 0, 2)
	row.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if !e.patterns.clubPath.MatchString(a.AttrOr("href", "")) {
			return true
		}
		names = appendDistinct(names, anchorName(a))
		return len(names) < 2
	})
	return pair(names)
}

func (e *Extractor) hasClubAnchor(row *goquery.Selection) bool {
	found := false
	row.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		found = e.patterns.clubPath.MatchString(a.AttrOr("href", ""))
		return !found
	})
	return found
}

func (e *Extractor) primaryLinkTeams(row *goquery.Selection) (string, string, bool) {
	names := make([]string, 0, 2)
	row.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		flagged := hasClass(a, e.patterns.primaryLinks...) ||
			hasClass(a.ParentsFiltered("td, th, [role=cell]").First(), e.patterns.primaryLinks...)
		if !flagged {
			return true
		}
		names = appendDistinct(names, anchorName(a))
		return len(names) < 2
	})
	return pair(names)
}

func homeAwayCellTeams(row *goquery.Selection) (string, string, bool) {
	home := collapseSpace(row.Find(".home, .team-home, .home-team").First().Text())
	away := collapseSpace(row.Find(".away, .team-away, .away-team").First().Text())
	names := appendDistinct(appendDistinct(nil, home), away)
	return pair(names)
}

// reportLink returns the absolute URL of the row's match-report anchor, or ""
// when the row carries no such marker.
func (e *Extractor) reportLink(row *goquery.Selection, base *url.URL) string {
	var found string
	row.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		byPath := e.patterns.reportPath.MatchString(href) && !e.patterns.clubPath.MatchString(href)
		byText := e.patterns.reportText.MatchString(anchorName(a))
		if !byPath && !byText {
			return true
		}
		found = resolveRef(base, href)
		return false
	})
	return found
}

// inlineText is the text of the row's cells with the team names removed, so
// digits inside a name never read as a date or time.
func inlineText(row *goquery.Selection, home, away string) string {
	cells := row.ChildrenFiltered("td, th, [role=cell], [role=gridcell]")
	if cells.Length() == 0 {
		cells = row.Children()
	}

	parts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		text := removeFold(removeFold(fullText(cell), home), away)
		if text = collapseSpace(text); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

func anchorName(a *goquery.Selection) string {
	if name := fullText(a); name != "" {
		return name
	}
	return collapseSpace(a.AttrOr("title", ""))
}

func appendDistinct(names []string, name string) []string {
	if name == "" {
		return names
	}
	key := fixture.NormalizeName(name)
	for _, existing := range names {
		if fixture.NormalizeName(existing) == key {
			return names
		}
	}
	return append(names, name)
}

func pair(names []string) (string, string, bool) {
	if len(names) < 2 {
		return "", "", false
	}
	return names[0], names[1], true
}

func resolveRef(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
