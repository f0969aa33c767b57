package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/fixture-scout/internal/domain/competition"
)

// CompetitionsFile is the YAML document pointed to by COMPETITIONS_FILE.
type CompetitionsFile struct {
	Competitions []CompetitionEntry `yaml:"competitions" validate:"required,min=1,dive"`
	Identities   []IdentityEntry    `yaml:"identities" validate:"dive"`
	Extraction   ExtractionEntry    `yaml:"extraction"`
}

type CompetitionEntry struct {
	Code        string        `yaml:"code" validate:"required,max=16"`
	Name        string        `yaml:"name" validate:"required"`
	NeededCount int           `yaml:"needed_count" validate:"required,min=1,max=64"`
	Sources     []SourceEntry `yaml:"sources" validate:"dive"`
}

type SourceEntry struct {
	BaseURL string `yaml:"base_url" validate:"required,url"`
	Slug    string `yaml:"slug"`
	Locale  string `yaml:"locale" validate:"omitempty,bcp47_language_tag"`
}

type IdentityEntry struct {
	UserAgent string `yaml:"user_agent" validate:"required"`
}

// ExtractionEntry overrides the extractor's markup heuristics.
type ExtractionEntry struct {
	ClubPathPattern    string   `yaml:"club_path_pattern"`
	ReportPathPattern  string   `yaml:"report_path_pattern"`
	ReportTextPattern  string   `yaml:"report_text_pattern"`
	PrimaryLinkClasses []string `yaml:"primary_link_classes"`
}

func LoadCompetitions(path string) (CompetitionsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CompetitionsFile{}, fmt.Errorf("read competitions file: %w", err)
	}
	return ParseCompetitions(data)
}

func ParseCompetitions(data []byte) (CompetitionsFile, error) {
	var file CompetitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return CompetitionsFile{}, fmt.Errorf("parse competitions file: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return CompetitionsFile{}, fmt.Errorf("validate competitions file: %w", err)
	}

	seen := make(map[string]struct{}, len(file.Competitions))
	for idx := range file.Competitions {
		code := competition.NormalizeCode(file.Competitions[idx].Code)
		if _, ok := seen[code]; ok {
			return CompetitionsFile{}, fmt.Errorf("duplicate competition code %q", code)
		}
		seen[code] = struct{}{}
		file.Competitions[idx].Code = code
	}

	return file, nil
}

func (f CompetitionsFile) DomainCompetitions() []competition.Competition {
	out := make([]competition.Competition, 0, len(f.Competitions))
	for _, entry := range f.Competitions {
		sources := make([]competition.Source, 0, len(entry.Sources))
		for _, source := range entry.Sources {
			sources = append(sources, competition.Source{
				BaseURL: strings.TrimSpace(source.BaseURL),
				Slug:    strings.TrimSpace(source.Slug),
				Locale:  strings.TrimSpace(source.Locale),
			})
		}
		out = append(out, competition.Competition{
			Code:        entry.Code,
			Name:        strings.TrimSpace(entry.Name),
			NeededCount: entry.NeededCount,
			Sources:     sources,
		})
	}
	return out
}

func (f CompetitionsFile) UserAgents() []string {
	out := make([]string, 0, len(f.Identities))
	for _, identity := range f.Identities {
		out = append(out, identity.UserAgent)
	}
	return out
}
