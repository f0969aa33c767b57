package usecase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrSourceNetwork       = errors.New("source network error")
	ErrSourceAntiBot       = errors.New("source anti-bot response")
	ErrSourceFatalHTTP     = errors.New("source fatal http status")
	ErrSourceMalformed     = errors.New("source returned malformed document")
	ErrSourceCircuitOpen   = errors.New("source circuit is open")
	ErrUnmappedCompetition = errors.New("competition is not mapped")
	ErrEmptySelection      = errors.New("no fixtures discovered")
)

// FetchError is the terminal failure of one (url, locale) fetch. Kind is one
// of the ErrSource* sentinels.
type FetchError struct {
	Kind       error
	URL        string
	Locale     string
	StatusCode int
	Attempts   int
	Trail      []FetchAttempt
	Err        error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	fmt.Fprintf(&b, ": url=%s", e.URL)
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " status=%d", e.StatusCode)
	}
	fmt.Fprintf(&b, " attempts=%d", e.Attempts)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return target == e.Kind
}

// DiscoveryError is returned when every source variant of a competition
// failed or produced an empty selection.
type DiscoveryError struct {
	Competition string
	Diagnostics DiscoveryDiagnostics
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s: competition=%s variants=%d", ErrEmptySelection, e.Competition, len(e.Diagnostics.Variants))
}

func (e *DiscoveryError) Unwrap() error {
	return ErrEmptySelection
}

// Classify maps an error to a short operator-facing label.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSourceAntiBot):
		return "anti_bot"
	case errors.Is(err, ErrSourceNetwork):
		return "network"
	case errors.Is(err, ErrSourceFatalHTTP):
		return "fatal_http"
	case errors.Is(err, ErrSourceMalformed):
		return "malformed"
	case errors.Is(err, ErrSourceCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrUnmappedCompetition):
		return "unmapped"
	case errors.Is(err, ErrEmptySelection):
		return "empty_selection"
	default:
		return "error"
	}
}
