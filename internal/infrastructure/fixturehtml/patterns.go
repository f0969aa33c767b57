package fixturehtml

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	defaultClubPathPattern   = `(?i)/(?:club|clubs|klub|kluby|team|teams|equipo|equipos|verein|vereine|squadra|squadre|druzyna|csapat|equipe)(?:/|$)`
	defaultReportPathPattern = `(?i)(?:report|zapis|zapas|spielbericht|cronaca|partido|informe|wedstrijd|merkozes|mecz|matchcent(?:re|er)|/match(?:es)?/|/game/)`
	defaultReportTextPattern = `(?i)(?:report|zápis|zápas|detail|bericht|preview|cronaca|informe|relacja|verslag|match\s*cent(?:re|er))`
)

var defaultPrimaryLinkClasses = []string{"primary-link", "link-primary", "team-link", "team-name"}

// Config overrides the markup heuristics. Empty fields keep the defaults.
type Config struct {
	ClubPathPattern    string
	ReportPathPattern  string
	ReportTextPattern  string
	PrimaryLinkClasses []string
}

type patterns struct {
	clubPath     *regexp.Regexp
	reportPath   *regexp.Regexp
	reportText   *regexp.Regexp
	primaryLinks []string
}

func compilePatterns(cfg Config) (patterns, error) {
	compile := func(name, expr, fallback string) (*regexp.Regexp, error) {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			expr = fallback
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s pattern: %w", name, err)
		}
		return re, nil
	}

	clubPath, err := compile("club path", cfg.ClubPathPattern, defaultClubPathPattern)
	if err != nil {
		return patterns{}, err
	}
	reportPath, err := compile("report path", cfg.ReportPathPattern, defaultReportPathPattern)
	if err != nil {
		return patterns{}, err
	}
	reportText, err := compile("report text", cfg.ReportTextPattern, defaultReportTextPattern)
	if err != nil {
		return patterns{}, err
	}

	classes := make([]string, 0, len(cfg.PrimaryLinkClasses))
	for _, class := range cfg.PrimaryLinkClasses {
		if class = strings.TrimSpace(class); class != "" {
			classes = append(classes, class)
		}
	}
	if len(classes) == 0 {
		classes = append(classes, defaultPrimaryLinkClasses...)
	}

	return patterns{
		clubPath:     clubPath,
		reportPath:   reportPath,
		reportText:   reportText,
		primaryLinks: classes,
	}, nil
}
