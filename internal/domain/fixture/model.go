package fixture

import (
	"strconv"
	"strings"
	"time"
)

// Candidate is a fixture parsed from raw markup before round selection.
type Candidate struct {
	Home        string      `json:"home"`
	Away        string      `json:"away"`
	RoundMarker *int        `json:"round_marker,omitempty"`
	Date        *DateTokens `json:"date,omitempty"`
	Time        *TimeTokens `json:"time,omitempty"`
	KickoffAt   *time.Time  `json:"kickoff_at,omitempty"`
	SourceRef   string      `json:"source_ref,omitempty"`
	// Round is the logical round assigned by SelectRound; zero until selected.
	Round int `json:"round"`
}

// DateTokens holds the raw day/month/year strings as they appeared in the document.
type DateTokens struct {
	Day   string `json:"day"`
	Month string `json:"month"`
	Year  string `json:"year,omitempty"`
}

// TimeTokens holds the raw hour/minute strings of a kickoff time.
type TimeTokens struct {
	Hour   string `json:"hour"`
	Minute string `json:"minute"`
}

func (d *DateTokens) String() string {
	if d == nil {
		return ""
	}
	return canonicalNumber(d.Day) + "." + canonicalNumber(d.Month) + "." + expandYear(strings.TrimSpace(d.Year))
}

func (t *TimeTokens) String() string {
	if t == nil {
		return ""
	}
	return canonicalNumber(t.Hour) + ":" + canonicalNumber(t.Minute)
}

// Key identifies a fixture for de-duplication.
func (c Candidate) Key() string {
	return NormalizeName(c.Home) + "|" + NormalizeName(c.Away) + "|" + c.Date.String() + "|" + c.Time.String()
}

// Resolve fills KickoffAt from the date/time tokens. It is a no-op without a date.
func (c *Candidate) Resolve() {
	if kickoff, ok := Normalize(c.Date, c.Time); ok {
		c.KickoffAt = &kickoff
		return
	}
	c.KickoffAt = nil
}

// NormalizeName folds case and collapses whitespace so incidental markup
// differences do not produce distinct team identities.
func NormalizeName(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

func canonicalNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return raw
	}
	return strconv.Itoa(n)
}
