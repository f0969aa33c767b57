package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/fixture-scout/internal/domain/fixture"
)

// FetchAttempt records one HTTP try made while fetching a source document.
type FetchAttempt struct {
	Attempt    int           `json:"attempt"`
	StatusCode int           `json:"status_code,omitempty"`
	Class      string        `json:"class"`
	Elapsed    time.Duration `json:"elapsed"`
	Wait       time.Duration `json:"wait,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// SourceDocument is a successfully fetched HTML document.
type SourceDocument struct {
	URL        string
	Locale     string
	StatusCode int
	Body       []byte
	Trail      []FetchAttempt
	Elapsed    time.Duration
}

// FixtureSource fetches one source variant. Failures are *FetchError.
type FixtureSource interface {
	Fetch(ctx context.Context, url, locale string) (SourceDocument, error)
}

// ExtractStats counts what the extractor saw in one document.
type ExtractStats struct {
	Nodes       int `json:"nodes"`
	Rows        int `json:"rows"`
	FixtureRows int `json:"fixture_rows"`
	SkippedRows int `json:"skipped_rows"`
	Duplicates  int `json:"duplicates"`
	Candidates  int `json:"candidates"`
	Timed       int `json:"timed"`
}

// CandidateExtractor turns a document into de-duplicated fixture candidates
// in document order.
type CandidateExtractor interface {
	Extract(doc SourceDocument) ([]fixture.Candidate, ExtractStats, error)
}

// CachedRound is the cache entry for one competition.
type CachedRound struct {
	Competition string                  `json:"competition"`
	SourceURL   string                  `json:"source_url"`
	InsertedAt  time.Time               `json:"inserted_at"`
	Result      fixture.SelectionResult `json:"result"`
}

// RoundCache stores selected rounds by competition code with a TTL.
// Concurrent writers to one key race benignly; the last write wins.
type RoundCache interface {
	Get(ctx context.Context, code string) (CachedRound, bool, error)
	Set(ctx context.Context, entry CachedRound) error
	Delete(ctx context.Context, code string) error
	Clear(ctx context.Context) error
}
