package httpapi

import (
	"context"
	"time"

	"github.com/riskibarqy/fixture-scout/internal/domain/competition"
	"github.com/riskibarqy/fixture-scout/internal/domain/fixture"
	"github.com/riskibarqy/fixture-scout/internal/usecase"
)

type sourceDTO struct {
	URL    string `json:"url"`
	Locale string `json:"locale,omitempty"`
}

type competitionDTO struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	NeededCount int         `json:"needed_count"`
	Mapped      bool        `json:"mapped"`
	Sources     []sourceDTO `json:"sources"`
}

type fixtureDTO struct {
	Home        string     `json:"home"`
	Away        string     `json:"away"`
	Round       int        `json:"round"`
	RoundMarker *int       `json:"round_marker,omitempty"`
	Date        string     `json:"date,omitempty"`
	Time        string     `json:"time,omitempty"`
	KickoffAt   *time.Time `json:"kickoff_at,omitempty"`
	SourceRef   string     `json:"source_ref,omitempty"`
}

type discoveryDTO struct {
	Competition string                        `json:"competition"`
	Strategy    string                        `json:"strategy"`
	Total       int                           `json:"total"`
	Fixtures    []fixtureDTO                  `json:"fixtures"`
	SourceURL   string                        `json:"source_url,omitempty"`
	FromCache   bool                          `json:"from_cache"`
	CachedAt    *time.Time                    `json:"cached_at,omitempty"`
	Diagnostics *usecase.DiscoveryDiagnostics `json:"diagnostics,omitempty"`
}

type cacheClearedDTO struct {
	Competition string `json:"competition,omitempty"`
	Cleared     bool   `json:"cleared"`
}

func competitionToDTO(ctx context.Context, v competition.Competition) competitionDTO {
	_, span := startSpan(ctx, "httpapi.competitionToDTO")
	defer span.End()

	sources := make([]sourceDTO, 0, len(v.Sources))
	for _, source := range v.Sources {
		sources = append(sources, sourceDTO{URL: source.URL(), Locale: source.Locale})
	}
	return competitionDTO{
		Code:        v.Code,
		Name:        v.Name,
		NeededCount: v.NeededCount,
		Mapped:      len(v.Sources) > 0,
		Sources:     sources,
	}
}

func fixtureToDTO(v fixture.Candidate) fixtureDTO {
	out := fixtureDTO{
		Home:        v.Home,
		Away:        v.Away,
		Round:       v.Round,
		RoundMarker: v.RoundMarker,
		Date:        v.Date.String(),
		Time:        v.Time.String(),
		KickoffAt:   v.KickoffAt,
		SourceRef:   v.SourceRef,
	}
	if v.KickoffAt != nil {
		out.Date = v.KickoffAt.Format(time.DateOnly)
		if v.Time != nil {
			out.Time = v.KickoffAt.Format("15:04")
		}
	}
	return out
}

func discoveryToDTO(ctx context.Context, v usecase.Discovery) discoveryDTO {
	_, span := startSpan(ctx, "httpapi.discoveryToDTO")
	defer span.End()

	out := discoveryDTO{
		Competition: v.Competition,
		Strategy:    string(v.Strategy),
		Total:       v.Total,
		Fixtures:    make([]fixtureDTO, 0, len(v.Fixtures)),
		SourceURL:   v.SourceURL,
		FromCache:   v.FromCache,
	}
	for _, item := range v.Fixtures {
		out.Fixtures = append(out.Fixtures, fixtureToDTO(item))
	}
	if !v.CachedAt.IsZero() {
		cachedAt := v.CachedAt
		out.CachedAt = &cachedAt
	}
	if len(v.Diagnostics.Variants) > 0 {
		diagnostics := v.Diagnostics
		out.Diagnostics = &diagnostics
	}
	return out
}
