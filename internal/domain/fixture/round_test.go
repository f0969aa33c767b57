package fixture

import (
	"testing"
	"time"
)

func kickoff(day, hour int) *time.Time {
	v := time.Date(2024, time.August, day, hour, 0, 0, 0, time.UTC)
	return &v
}

func TestSelectRound_CleanRound(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		{Home: "E", Away: "F", KickoffAt: kickoff(4, 18)},
		{Home: "A", Away: "B", KickoffAt: kickoff(3, 15)},
		{Home: "C", Away: "D", KickoffAt: kickoff(3, 15)},
		// next round, same teams again one week later
		{Home: "B", Away: "C", KickoffAt: kickoff(10, 15)},
		{Home: "D", Away: "E", KickoffAt: kickoff(10, 15)},
		{Home: "F", Away: "A", KickoffAt: kickoff(11, 18)},
		{Home: "X", Away: "Y"},
	}

	got := SelectRound(candidates, 3)
	if got.Strategy != StrategyWindowEarliestUnique {
		t.Fatalf("unexpected strategy: %s", got.Strategy)
	}
	if len(got.Fixtures) != 3 {
		t.Fatalf("unexpected fixture count: got=%d want=3", len(got.Fixtures))
	}

	wantOrder := [][2]string{{"A", "B"}, {"C", "D"}, {"E", "F"}}
	for i, want := range wantOrder {
		if got.Fixtures[i].Home != want[0] || got.Fixtures[i].Away != want[1] {
			t.Fatalf("fixture %d: got=%s-%s want=%s-%s", i, got.Fixtures[i].Home, got.Fixtures[i].Away, want[0], want[1])
		}
		if got.Fixtures[i].Round != FirstRound {
			t.Fatalf("fixture %d: expected round tag %d, got %d", i, FirstRound, got.Fixtures[i].Round)
		}
	}

	seen := map[string]bool{}
	for _, item := range got.Fixtures {
		for _, team := range []string{item.Home, item.Away} {
			if seen[team] {
				t.Fatalf("team %s appears twice", team)
			}
			seen[team] = true
		}
	}
	if got.Diagnostics.Timed != 6 || got.Diagnostics.Candidates != 7 {
		t.Fatalf("unexpected diagnostics: %+v", got.Diagnostics)
	}
}

func TestSelectRound_PaddedFallback(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		{Home: "A", Away: "B", KickoffAt: kickoff(3, 15)},
		{Home: "A", Away: "C", KickoffAt: kickoff(4, 15)},
		{Home: "B", Away: "C", KickoffAt: kickoff(5, 15)},
	}

	got := SelectRound(candidates, 2)
	if got.Strategy != StrategyPaddedFallback {
		t.Fatalf("unexpected strategy: %s", got.Strategy)
	}
	if len(got.Fixtures) != 2 {
		t.Fatalf("padded result must not exceed needed count, got=%d", len(got.Fixtures))
	}
	if got.Fixtures[1].Home != "A" || got.Fixtures[1].Away != "C" {
		t.Fatalf("expected earliest remaining candidate as padding, got %s-%s", got.Fixtures[1].Home, got.Fixtures[1].Away)
	}
	if got.Diagnostics.Padded != 1 {
		t.Fatalf("expected one padded fixture, got %d", got.Diagnostics.Padded)
	}
}

func TestSelectRound_PaddingIgnoresWindow(t *testing.T) {
	t.Parallel()

	candidates := []Candidate{
		{Home: "A", Away: "B", KickoffAt: kickoff(1, 15)},
		{Home: "C", Away: "D", KickoffAt: kickoff(28, 15)},
	}

	got := SelectRound(candidates, 3)
	if got.Strategy != StrategyPaddedFallback {
		t.Fatalf("unexpected strategy: %s", got.Strategy)
	}
	if len(got.Fixtures) != 2 {
		t.Fatalf("expected candidates exhausted at 2, got %d", len(got.Fixtures))
	}
	if got.Diagnostics.SkippedOutsideWindow != 1 {
		t.Fatalf("expected one candidate outside window, got %d", got.Diagnostics.SkippedOutsideWindow)
	}
}

func TestSelectRound_TieBreakIsIndependentOfParseOrder(t *testing.T) {
	t.Parallel()

	forward := []Candidate{
		{Home: "Zlin", Away: "Brno", KickoffAt: kickoff(3, 15)},
		{Home: "Brno", Away: "Opava", KickoffAt: kickoff(3, 15)},
	}
	backward := []Candidate{forward[1], forward[0]}

	left := SelectRound(forward, 1)
	right := SelectRound(backward, 1)
	if left.Fixtures[0].Home != right.Fixtures[0].Home {
		t.Fatalf("selection depends on parse order: %s vs %s", left.Fixtures[0].Home, right.Fixtures[0].Home)
	}
	if left.Fixtures[0].Home != "Brno" {
		t.Fatalf("expected alphabetical tie-break, got %s", left.Fixtures[0].Home)
	}
}

func TestSelectRound_NoTimestamps(t *testing.T) {
	t.Parallel()

	got := SelectRound([]Candidate{{Home: "A", Away: "B"}}, 4)
	if got.Strategy != StrategyNone {
		t.Fatalf("unexpected strategy: %s", got.Strategy)
	}
	if !got.Empty() {
		t.Fatalf("expected empty selection, got %d", len(got.Fixtures))
	}
}
