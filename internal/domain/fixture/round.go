package fixture

import (
	"sort"
	"time"
)

// Strategy names how a SelectionResult was assembled.
type Strategy string

const (
	StrategyWindowEarliestUnique Strategy = "window_earliest_unique"
	StrategyPaddedFallback       Strategy = "padded_fallback"
	StrategyNone                 Strategy = "none"
)

const (
	// SelectionWindow bounds round membership after the earliest kickoff.
	SelectionWindow = 14 * 24 * time.Hour
	// FirstRound is the logical round tagged on every selected fixture.
	FirstRound = 1
)

// SelectionDiagnostics explains how candidates were filtered.
type SelectionDiagnostics struct {
	Candidates           int        `json:"candidates"`
	Timed                int        `json:"timed"`
	WindowStart          *time.Time `json:"window_start,omitempty"`
	WindowEnd            *time.Time `json:"window_end,omitempty"`
	Accepted             int        `json:"accepted"`
	Padded               int        `json:"padded"`
	SkippedRepeatedTeam  int        `json:"skipped_repeated_team"`
	SkippedOutsideWindow int        `json:"skipped_outside_window"`
}

// SelectionResult is the canonical round carved out of one document.
//
// No team appears twice in Fixtures unless Strategy is StrategyPaddedFallback.
type SelectionResult struct {
	Fixtures    []Candidate
	Strategy    Strategy
	Diagnostics SelectionDiagnostics
}

func (r SelectionResult) Empty() bool {
	return len(r.Fixtures) == 0
}

// SelectRound picks the soonest complete round from all candidates of a document.
//
// Candidates without a kickoff are ignored. The rest are ordered by
// (kickoff, home, away) and accepted greedily while both teams are unseen and
// the kickoff lies within SelectionWindow of the earliest one. If fewer than
// neededCount are accepted the result is padded from the full ordered list,
// which may repeat a team.
func SelectRound(candidates []Candidate, neededCount int) SelectionResult {
	result := SelectionResult{
		Strategy: StrategyNone,
		Diagnostics: SelectionDiagnostics{
			Candidates: len(candidates),
		},
	}

	timed := make([]Candidate, 0, len(candidates))
	for _, item := range candidates {
		if item.KickoffAt == nil {
			continue
		}
		timed = append(timed, item)
	}
	result.Diagnostics.Timed = len(timed)
	if len(timed) == 0 || neededCount <= 0 {
		return result
	}

	sort.SliceStable(timed, func(i, j int) bool {
		left, right := timed[i], timed[j]
		if !left.KickoffAt.Equal(*right.KickoffAt) {
			return left.KickoffAt.Before(*right.KickoffAt)
		}
		if left.Home != right.Home {
			return left.Home < right.Home
		}
		return left.Away < right.Away
	})

	windowStart := *timed[0].KickoffAt
	windowEnd := windowStart.Add(SelectionWindow)
	result.Diagnostics.WindowStart = &windowStart
	result.Diagnostics.WindowEnd = &windowEnd

	selected := make([]Candidate, 0, neededCount)
	taken := make([]bool, len(timed))
	teams := make(map[string]struct{}, neededCount*2)
	for idx, item := range timed {
		if len(selected) >= neededCount {
			break
		}
		if item.KickoffAt.After(windowEnd) {
			result.Diagnostics.SkippedOutsideWindow++
			continue
		}
		home, away := NormalizeName(item.Home), NormalizeName(item.Away)
		_, homeSeen := teams[home]
		_, awaySeen := teams[away]
		if homeSeen || awaySeen {
			result.Diagnostics.SkippedRepeatedTeam++
			continue
		}
		teams[home] = struct{}{}
		teams[away] = struct{}{}
		taken[idx] = true
		selected = append(selected, item)
	}
	result.Diagnostics.Accepted = len(selected)
	result.Strategy = StrategyWindowEarliestUnique

	if len(selected) < neededCount {
		for idx, item := range timed {
			if len(selected) >= neededCount {
				break
			}
			if taken[idx] {
				continue
			}
			taken[idx] = true
			selected = append(selected, item)
			result.Diagnostics.Padded++
		}
		result.Strategy = StrategyPaddedFallback
	}

	for idx := range selected {
		selected[idx].Round = FirstRound
	}
	result.Fixtures = selected
	return result
}
