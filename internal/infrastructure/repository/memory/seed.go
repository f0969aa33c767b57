package memory

import "github.com/riskibarqy/fixture-scout/internal/domain/competition"

const (
	CompetitionCodeCzechFirst   = "CZE1"
	CompetitionCodeCzechSecond  = "CZE2"
	CompetitionCodeSpainPrimera = "ESP1"
)

// SeedCompetitions is the mapping used when no competitions file is configured.
func SeedCompetitions() []competition.Competition {
	return []competition.Competition{
		{
			Code:        CompetitionCodeCzechFirst,
			Name:        "Chance Liga",
			NeededCount: 8,
			Sources: []competition.Source{
				{BaseURL: "https://www.fotbal.cz", Slug: "souteze/turnaje/hlavni/a3d5ab4d-6a2d-4b58-9d3e-8d7b8a9c2b11", Locale: "cs-CZ"},
				{BaseURL: "https://www.chanceliga.cz", Slug: "rozpis-zapasu", Locale: "cs-CZ"},
			},
		},
		{
			Code:        CompetitionCodeCzechSecond,
			Name:        "Chance Národní Liga",
			NeededCount: 8,
			Sources: []competition.Source{
				{BaseURL: "https://www.fotbal.cz", Slug: "souteze/turnaje/hlavni/5c0f1f8e-2b8c-4e6f-9a3b-3c2d1e0f4a22", Locale: "cs-CZ"},
			},
		},
		{
			Code:        CompetitionCodeSpainPrimera,
			Name:        "LaLiga EA Sports",
			NeededCount: 10,
			Sources: []competition.Source{
				{BaseURL: "https://www.laliga.com", Slug: "laliga-easports/calendario", Locale: "es-ES"},
				{BaseURL: "https://www.laliga.com", Slug: "en-GB/laliga-easports/calendar", Locale: "en-GB"},
			},
		},
	}
}
