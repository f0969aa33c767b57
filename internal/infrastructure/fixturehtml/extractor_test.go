package fixturehtml

import (
	"reflect"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-scout/internal/domain/fixture"
	"github.com/riskibarqy/fixture-scout/internal/platform/logging"
	"github.com/riskibarqy/fixture-scout/internal/usecase"
)

const schedulePage = `<!doctype html>
<html><head><title>Chance Liga</title><script>var kolo = "9. kolo 01.01.2020";</script></head>
<body>
<section class="round">
  <h2>1. kolo</h2>
  <div class="date">Sobota <span>14.02.2026</span></div>
  <table class="soutez-zapasy">
    <thead><tr><th>Čas</th><th>Domácí</th><th>Hosté</th><th>Skóre</th><th></th></tr></thead>
    <tbody>
      <tr>
        <td>15:00</td>
        <td><a href="/club/club/aaa">Slavia Praha</a></td>
        <td><a href="/club/club/bbb">Sparta Praha</a></td>
        <td>-:-</td>
        <td><a href="/souteze/zapasy/zapas/101">Zápis</a></td>
      </tr>
      <tr>
        <td>18:30</td>
        <td><a href="/club/club/ccc">Viktoria Plzeň</a></td>
        <td><a href="/club/club/ddd">Baník Ostrava</a></td>
        <td>-:-</td>
        <td><a href="/souteze/zapasy/zapas/102">Zápis</a></td>
      </tr>
      <tr>
        <td>15.02.2026 16:00</td>
        <td><a href="/club/club/eee">Bohemians 1905</a></td>
        <td><a href="/club/club/fff">FK Jablonec</a></td>
        <td>-:-</td>
        <td><a href="/souteze/zapasy/zapas/103">Zápis</a></td>
      </tr>
      <tr>
        <td>17:00</td>
        <td><a href="/club/club/ggg">FK Teplice</a></td>
        <td><a href="/club/club/hhh">Hradec Králové</a></td>
        <td>-:-</td>
        <td></td>
      </tr>
      <tr>
        <td>19:00</td>
        <td><a href="/club/club/iii">Sigma Olomouc</a></td>
        <td>volno</td>
        <td></td>
        <td><a href="/souteze/zapasy/zapas/104">Zápis</a></td>
      </tr>
      <tr><th colspan="5">Neděle 22.02.2026</th></tr>
      <tr>
        <td>14:00</td>
        <td><a href="/club/club/aaa">Slavia   Praha</a></td>
        <td><a href="/club/club/ccc">Viktoria Plzeň</a></td>
        <td>-:-</td>
        <td><a href="/souteze/zapasy/zapas/105">Zápis</a></td>
      </tr>
      <tr>
        <td>14:00</td>
        <td><a href="/club/club/aaa">Slavia Praha</a></td>
        <td><a href="/club/club/ccc"> Viktoria   Plzeň </a></td>
        <td>-:-</td>
        <td><a href="/souteze/zapasy/zapas/105b">Zápis</a></td>
      </tr>
    </tbody>
  </table>
</section>
</body></html>`

func newTestExtractor(t *testing.T, cfg Config) *Extractor {
	t.Helper()
	extractor, err := NewExtractor(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	return extractor
}

func extract(t *testing.T, extractor *Extractor, body string) ([]fixture.Candidate, usecase.ExtractStats) {
	t.Helper()
	candidates, stats, err := extractor.Extract(usecase.SourceDocument{
		URL:  "https://www.fotbal.cz/souteze/turnaje/hlavni/1",
		Body: []byte(body),
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return candidates, stats
}

func kickoff(t *testing.T, c fixture.Candidate) time.Time {
	t.Helper()
	if c.KickoffAt == nil {
		t.Fatalf("expected kickoff for %s vs %s", c.Home, c.Away)
	}
	return *c.KickoffAt
}

func TestExtractor_PropagatesContextAndHonoursInlineTokens(t *testing.T) {
	t.Parallel()

	candidates, stats := extract(t, newTestExtractor(t, Config{}), schedulePage)
	if len(candidates) != 4 {
		t.Fatalf("expected 4 candidates, got %d: %+v", len(candidates), candidates)
	}

	first := candidates[0]
	if first.Home != "Slavia Praha" || first.Away != "Sparta Praha" {
		t.Fatalf("unexpected teams %q vs %q", first.Home, first.Away)
	}
	if got := kickoff(t, first); !got.Equal(time.Date(2026, 2, 14, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first kickoff %s", got)
	}
	if first.RoundMarker == nil || *first.RoundMarker != 1 {
		t.Fatalf("expected round marker 1, got %v", first.RoundMarker)
	}
	if first.SourceRef != "https://www.fotbal.cz/souteze/zapasy/zapas/101" {
		t.Fatalf("unexpected source ref %q", first.SourceRef)
	}

	if got := kickoff(t, candidates[2]); !got.Equal(time.Date(2026, 2, 15, 16, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected inline date to override context, got %s", got)
	}
	if got := kickoff(t, candidates[3]); !got.Equal(time.Date(2026, 2, 22, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected date separator row to update context, got %s", got)
	}

	// header, 7 body rows and the date separator
	if stats.Rows != 9 {
		t.Fatalf("unexpected row count %d", stats.Rows)
	}
	if stats.FixtureRows != 5 || stats.Duplicates != 1 || stats.Timed != 4 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestExtractor_IsDeterministic(t *testing.T) {
	t.Parallel()

	extractor := newTestExtractor(t, Config{})
	first, _ := extract(t, extractor, schedulePage)
	second, _ := extract(t, extractor, schedulePage)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical candidates on repeated extraction")
	}
}

func TestExtractor_FallbackStrategies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		row  string
		home string
		away string
	}{
		{
			name: "primary link cells",
			row: `<tr><td>20:00</td>
				<td class="primary-link"><a href="/es/real-madrid">Real Madrid</a></td>
				<td class="primary-link"><a href="/es/atletico">Atlético</a></td>
				<td><a href="/partido/55">Previa</a></td></tr>`,
			home: "Real Madrid",
			away: "Atlético",
		},
		{
			name: "home and away cells",
			row: `<tr><td>20:00</td>
				<td class="team-home">Legia Warszawa</td>
				<td class="team-away">Lech Poznań</td>
				<td><a href="/mecz/77">Relacja</a></td></tr>`,
			home: "Legia Warszawa",
			away: "Lech Poznań",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			page := `<html><body><h3>Jornada 4</h3><p>07/03/26</p><table>` + tc.row + `</table></body></html>`
			candidates, _ := extract(t, newTestExtractor(t, Config{}), page)
			if len(candidates) != 1 {
				t.Fatalf("expected one candidate, got %d", len(candidates))
			}
			got := candidates[0]
			if got.Home != tc.home || got.Away != tc.away {
				t.Fatalf("unexpected teams %q vs %q", got.Home, got.Away)
			}
			if want := time.Date(2026, 3, 7, 20, 0, 0, 0, time.UTC); !kickoff(t, got).Equal(want) {
				t.Fatalf("unexpected kickoff %s", kickoff(t, got))
			}
			if got.RoundMarker == nil || *got.RoundMarker != 4 {
				t.Fatalf("expected round 4, got %v", got.RoundMarker)
			}
		})
	}
}

func TestExtractor_MissingDateStillEmitsCandidate(t *testing.T) {
	t.Parallel()

	page := `<table><tr>
		<td><a href="/team/a">Ajax</a></td><td><a href="/team/b">PSV</a></td>
		<td><a href="/wedstrijd/1">Verslag</a></td></tr></table>`
	candidates, _ := extract(t, newTestExtractor(t, Config{}), page)
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	if candidates[0].KickoffAt != nil || candidates[0].Date != nil {
		t.Fatalf("expected undated candidate, got %+v", candidates[0])
	}
}

func TestExtractor_CustomPatterns(t *testing.T) {
	t.Parallel()

	extractor := newTestExtractor(t, Config{
		ClubPathPattern:    `/vereine/\d+`,
		ReportPathPattern:  `/spiel/`,
		PrimaryLinkClasses: []string{"verein"},
	})
	page := `<h2>Spieltag 3</h2><div>01.08.2026</div><table><tr>
		<td><a href="/vereine/1">Bayern</a></td><td><a href="/vereine/2">Dortmund</a></td>
		<td>18:30</td><td><a href="/spiel/9">Vorbericht</a></td></tr></table>`
	candidates, _ := extract(t, extractor, page)
	if len(candidates) != 1 || candidates[0].Home != "Bayern" {
		t.Fatalf("unexpected candidates %+v", candidates)
	}

	if _, err := NewExtractor(Config{ReportPathPattern: "("}, logging.NewNop()); err == nil {
		t.Fatalf("expected invalid pattern to fail")
	}
}

func TestFoldContext(t *testing.T) {
	t.Parallel()

	nodes := []node{
		{kind: kindHeading, text: "Round 7"},
		{kind: kindRow, fixture: true},
		{kind: kindContainer, text: "12.09.2026"},
		{kind: kindRow, fixture: true, text: "01.01.2030"},
		{kind: kindRow, text: "Round 8 13/09/2026", separator: true},
		{kind: kindRow, fixture: true},
		{kind: kindRow, text: "odloženo z 20.09.2026"},
		{kind: kindRow, fixture: true},
	}
	frames := foldContext(nodes)

	if frames[1].round == nil || *frames[1].round != 7 || frames[1].date != nil {
		t.Fatalf("unexpected frame 1: %+v", frames[1])
	}
	if frames[3].date == nil || frames[3].date.String() != "12.9.2026" {
		t.Fatalf("fixture rows must not change context, got %+v", frames[3].date)
	}
	if *frames[5].round != 8 || frames[5].date.String() != "13.9.2026" {
		t.Fatalf("expected separator row to update context, got round=%d date=%s", *frames[5].round, frames[5].date)
	}
	if frames[7].date.String() != "13.9.2026" {
		t.Fatalf("plain rows must not change context, got %s", frames[7].date)
	}
}

func TestExtractor_DatedNoteRowKeepsContext(t *testing.T) {
	t.Parallel()

	page := `<h2>Round 3</h2><div>10.08.2024</div><table>
		<tr><td><a href="/club/a">Alpha</a></td><td><a href="/club/b">Beta</a></td>
			<td>postponed from 20.09.2024</td></tr>
		<tr><td>15:00</td><td><a href="/club/g">Gamma</a></td><td><a href="/club/d">Delta</a></td>
			<td><a href="/match/7">Preview</a></td></tr>
		</table>`
	candidates, _ := extract(t, newTestExtractor(t, Config{}), page)
	if len(candidates) != 1 || candidates[0].Home != "Gamma" {
		t.Fatalf("unexpected candidates %+v", candidates)
	}
	if want := time.Date(2024, 8, 10, 15, 0, 0, 0, time.UTC); !kickoff(t, candidates[0]).Equal(want) {
		t.Fatalf("unexpected kickoff %s", kickoff(t, candidates[0]))
	}
	if candidates[0].RoundMarker == nil || *candidates[0].RoundMarker != 3 {
		t.Fatalf("expected round 3, got %v", candidates[0].RoundMarker)
	}
}

func TestExtractor_InlineDateSharesCellWithTeam(t *testing.T) {
	t.Parallel()

	page := `<div>10.08.2024</div><table><tr>
		<td>14.08.2024 18:00 <a href="/club/a">Alpha</a></td>
		<td><a href="/club/b">Beta</a></td>
		<td><a href="/zapas/1">Zápis</a></td></tr></table>`
	candidates, _ := extract(t, newTestExtractor(t, Config{}), page)
	if len(candidates) != 1 || candidates[0].Home != "Alpha" || candidates[0].Away != "Beta" {
		t.Fatalf("unexpected candidates %+v", candidates)
	}
	if want := time.Date(2024, 8, 14, 18, 0, 0, 0, time.UTC); !kickoff(t, candidates[0]).Equal(want) {
		t.Fatalf("unexpected kickoff %s", kickoff(t, candidates[0]))
	}
}

func TestRemoveFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text, name, want string
	}{
		{text: "15.02.2026 16:00 Bohemians 1905", name: "bohemians 1905", want: "15.02.2026 16:00  "},
		{text: "Alpha", name: "", want: "Alpha"},
		{text: "Beta v Beta", name: "BETA", want: "  v  "},
	}
	for _, tc := range tests {
		if got := removeFold(tc.text, tc.name); got != tc.want {
			t.Fatalf("removeFold(%q, %q) = %q, want %q", tc.text, tc.name, got, tc.want)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	t.Parallel()

	if got := collapseSpace("  Slavia  \n Praha\t"); got != "Slavia Praha" {
		t.Fatalf("unexpected collapse result %q", got)
	}
}
