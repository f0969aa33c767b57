package fixture

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	dateTokenRegex  = regexp.MustCompile(`\b(\d{1,2})[./](\d{1,2})[./](\d{4}|\d{2})\b`)
	timeTokenRegex  = regexp.MustCompile(`\b([01]?\d|2[0-3])[:.h]([0-5]\d)\b`)
	roundLabelRegex = regexp.MustCompile(`(?i)\b(?:round|matchday|match\s*day|gameweek|kolo|runda|kolejka|spieltag|giornata|jornada|journ[ée]e|speeltag|fordul[óo]|tour)\.?\s*(\d{1,3})\b`)
	roundOrdinal    = regexp.MustCompile(`(?i)^\s*(\d{1,3})\.\s*(?:round|kolo|runda|kolejka|spieltag|giornata|jornada|journ[ée]e|speeltag|fordul[óo])`)
	bareRoundRegex  = regexp.MustCompile(`^\s*(\d{1,3})\.?\s*$`)
)

// ParseDateTokens finds the first D.M.YYYY or D/M/YY style date in text.
func ParseDateTokens(text string) (*DateTokens, bool) {
	m := dateTokenRegex.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return &DateTokens{Day: m[1], Month: m[2], Year: m[3]}, true
}

// ParseTimeTokens finds the first HH:MM style kickoff time in text. Dates are
// removed first so that "12.08.2024" is never read as 12:08.
func ParseTimeTokens(text string) (*TimeTokens, bool) {
	text = dateTokenRegex.ReplaceAllString(text, " ")
	m := timeTokenRegex.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	return &TimeTokens{Hour: m[1], Minute: m[2]}, true
}

// ParseRoundMarker recognises "Round 3", "3. kolo", "Spieltag 12" and bare
// one-to-three digit integers.
func ParseRoundMarker(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for _, re := range []*regexp.Regexp{roundOrdinal, roundLabelRegex, bareRoundRegex} {
		if m := re.FindStringSubmatch(text); m != nil {
			value, err := strconv.Atoi(m[1])
			if err != nil || value <= 0 {
				continue
			}
			return value, true
		}
	}
	return 0, false
}

var weekdayWords = weekdaySet()

func weekdaySet() map[string]struct{} {
	set := make(map[string]struct{}, 96)
	for _, group := range []string{
		"monday tuesday wednesday thursday friday saturday sunday mon tue tues wed thu thur thurs fri sat sun",
		"pondělí úterý středa čtvrtek pátek sobota neděle po út st čt pá so ne",
		"pondelok utorok streda štvrtok piatok nedeľa",
		"montag dienstag mittwoch donnerstag freitag samstag sonntag mo di mi do fr sa",
		"lunes martes miércoles jueves viernes sábado domingo",
		"lunedì martedì mercoledì giovedì venerdì sabato domenica",
		"lundi mardi mercredi jeudi vendredi samedi dimanche",
		"poniedziałek wtorek środa czwartek piątek niedziela",
		"maandag dinsdag woensdag donderdag vrijdag zaterdag zondag",
		"hétfő kedd szerda csütörtök péntek szombat vasárnap",
	} {
		for _, word := range strings.Fields(group) {
			set[word] = struct{}{}
		}
	}
	return set
}

// IsMarkerText reports whether text is only a date and/or round marker,
// optionally with a weekday name and a kickoff time, as in "Sobota 14.03.2026"
// or "Round 8 13/09/2026".
func IsMarkerText(text string) bool {
	text = strings.TrimSpace(text)
	if bareRoundRegex.MatchString(text) {
		return true
	}
	_, hasDate := ParseDateTokens(text)
	_, hasRound := ParseRoundMarker(text)
	if !hasDate && !hasRound {
		return false
	}

	rest := dateTokenRegex.ReplaceAllString(text, " ")
	rest = timeTokenRegex.ReplaceAllString(rest, " ")
	rest = roundOrdinal.ReplaceAllString(strings.TrimSpace(rest), " ")
	rest = roundLabelRegex.ReplaceAllString(rest, " ")
	words := strings.FieldsFunc(rest, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		if _, ok := weekdayWords[strings.ToLower(word)]; !ok {
			return false
		}
	}
	return true
}
