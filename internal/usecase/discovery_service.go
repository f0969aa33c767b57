package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/riskibarqy/fixture-scout/internal/domain/competition"
	"github.com/riskibarqy/fixture-scout/internal/domain/fixture"
	"github.com/riskibarqy/fixture-scout/internal/platform/id"
	"github.com/riskibarqy/fixture-scout/internal/platform/logging"
	"github.com/riskibarqy/fixture-scout/internal/platform/resilience"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

const (
	outcomeSelected     = "selected"
	outcomeExtractPanic = "extract_panic"
	outcomeExtractError = "extract_error"
)

// Discovery is the outcome of one discover call.
type Discovery struct {
	Competition string              `json:"competition"`
	Fixtures    []fixture.Candidate `json:"fixtures"`
	Strategy    fixture.Strategy    `json:"strategy"`
	SourceURL   string              `json:"source_url,omitempty"`
	FromCache   bool                `json:"from_cache"`
	CachedAt    time.Time           `json:"cached_at"`
	// Total is the size of the selected round before the caller's limit.
	Total       int                  `json:"total"`
	Diagnostics DiscoveryDiagnostics `json:"diagnostics"`
}

// DiscoveryDiagnostics is the per-variant trail of a variant walk. It is
// empty on a cache hit.
type DiscoveryDiagnostics struct {
	RunID    string               `json:"run_id,omitempty"`
	Variants []VariantDiagnostics `json:"variants"`
}

// VariantDiagnostics tells an operator why a source variant did or did not
// produce a round.
type VariantDiagnostics struct {
	URL            string                        `json:"url"`
	Locale         string                        `json:"locale"`
	Outcome        string                        `json:"outcome"`
	StatusCode     int                           `json:"status_code,omitempty"`
	Attempts       int                           `json:"attempts"`
	Error          string                        `json:"error,omitempty"`
	CandidateRows  int                           `json:"candidate_rows"`
	ParsedFixtures int                           `json:"parsed_fixtures"`
	Extract        ExtractStats                  `json:"extract"`
	Strategy       fixture.Strategy              `json:"strategy"`
	Selection      *fixture.SelectionDiagnostics `json:"selection,omitempty"`
	Trail          []FetchAttempt                `json:"trail,omitempty"`
	ElapsedMs      int64                         `json:"elapsed_ms"`
}

type DiscoveryServiceConfig struct {
	// RefreshWorkers bounds how many competitions RefreshAll discovers at once.
	RefreshWorkers int
	IDs            id.Generator
}

type DiscoveryService struct {
	competitions competition.Repository
	source       FixtureSource
	extractor    CandidateExtractor
	cache        RoundCache
	cfg          DiscoveryServiceConfig
	logger       *logging.Logger
	flight       resilience.SingleFlight[Discovery]
	now          func() time.Time
}

func NewDiscoveryService(
	competitions competition.Repository,
	source FixtureSource,
	extractor CandidateExtractor,
	cache RoundCache,
	cfg DiscoveryServiceConfig,
	logger *logging.Logger,
) *DiscoveryService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RefreshWorkers < 1 {
		cfg.RefreshWorkers = 2
	}
	if cfg.IDs == nil {
		cfg.IDs = id.NewRandomGenerator("run", 8)
	}

	return &DiscoveryService{
		competitions: competitions,
		source:       source,
		extractor:    extractor,
		cache:        cache,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *DiscoveryService) ListCompetitions(ctx context.Context) ([]competition.Competition, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.ListCompetitions")
	defer span.End()

	items, err := s.competitions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	return items, nil
}

// Discover returns up to limit fixtures of the soonest round of a competition;
// limit <= 0 returns the whole round. A cached round is returned without any
// fetch. Otherwise source variants are tried strictly in order and the first
// non-empty selection is cached. When every variant fails the returned
// Discovery is empty and the error is a *DiscoveryError.
func (s *DiscoveryService) Discover(ctx context.Context, code string, limit int) (Discovery, error) {
	code = competition.NormalizeCode(code)
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.Discover", attribute.String("competition", code))
	defer span.End()

	if code == "" {
		return Discovery{}, fmt.Errorf("%w: competition code is required", ErrInvalidInput)
	}

	comp, err := s.lookup(ctx, code)
	if err != nil {
		return Discovery{}, err
	}

	if cached, ok := s.cached(ctx, code); ok {
		return truncate(cached, limit), nil
	}

	result, err, shared := s.flight.Do(code, func() (Discovery, error) {
		if cached, ok := s.cached(ctx, code); ok {
			return cached, nil
		}
		return s.walk(ctx, comp)
	})
	if shared {
		s.logger.DebugContext(ctx, "joined in-flight discovery", "competition", code)
	}
	return truncate(result, limit), err
}

func (s *DiscoveryService) ClearCache(ctx context.Context, code string) error {
	code = competition.NormalizeCode(code)
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.ClearCache", attribute.String("competition", code))
	defer span.End()

	if code == "" {
		return fmt.Errorf("%w: competition code is required", ErrInvalidInput)
	}
	if _, err := s.lookup(ctx, code); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, code); err != nil {
		return fmt.Errorf("delete cached round competition=%s: %w", code, err)
	}
	return nil
}

func (s *DiscoveryService) ClearAllCache(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.ClearAllCache")
	defer span.End()

	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear round cache: %w", err)
	}
	return nil
}

func (s *DiscoveryService) lookup(ctx context.Context, code string) (competition.Competition, error) {
	comp, exists, err := s.competitions.GetByCode(ctx, code)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition: %w", err)
	}
	if !exists || len(comp.Sources) == 0 {
		return competition.Competition{}, fmt.Errorf("%w: competition=%s", ErrUnmappedCompetition, code)
	}
	return comp, nil
}

func (s *DiscoveryService) cached(ctx context.Context, code string) (Discovery, bool) {
	entry, ok, err := s.cache.Get(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "round cache read failed, treating as miss", "competition", code, "error", err)
		return Discovery{}, false
	}
	if !ok {
		return Discovery{}, false
	}

	return Discovery{
		Competition: code,
		Fixtures:    entry.Result.Fixtures,
		Strategy:    entry.Result.Strategy,
		SourceURL:   entry.SourceURL,
		FromCache:   true,
		CachedAt:    entry.InsertedAt,
		Total:       len(entry.Result.Fixtures),
	}, true
}

func (s *DiscoveryService) walk(ctx context.Context, comp competition.Competition) (Discovery, error) {
	runID, err := s.cfg.IDs.NewID()
	if err != nil {
		return Discovery{}, fmt.Errorf("generate run id: %w", err)
	}

	diagnostics := DiscoveryDiagnostics{
		RunID:    runID,
		Variants: make([]VariantDiagnostics, 0, len(comp.Sources)),
	}

	for _, source := range comp.Sources {
		variant, result := s.tryVariant(ctx, comp, source)
		diagnostics.Variants = append(diagnostics.Variants, variant)

		if !result.Empty() {
			now := s.now().UTC()
			entry := CachedRound{
				Competition: comp.Code,
				SourceURL:   variant.URL,
				InsertedAt:  now,
				Result:      result,
			}
			if err := s.cache.Set(ctx, entry); err != nil {
				s.logger.WarnContext(ctx, "round cache write failed", "competition", comp.Code, "error", err)
			}

			s.logger.InfoContext(ctx, "fixtures discovered",
				"run_id", runID,
				"competition", comp.Code,
				"url", variant.URL,
				"strategy", result.Strategy,
				"fixtures", len(result.Fixtures),
			)
			return Discovery{
				Competition: comp.Code,
				Fixtures:    result.Fixtures,
				Strategy:    result.Strategy,
				SourceURL:   variant.URL,
				CachedAt:    now,
				Total:       len(result.Fixtures),
				Diagnostics: diagnostics,
			}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Discovery{Competition: comp.Code, Strategy: fixture.StrategyNone, Diagnostics: diagnostics},
				fmt.Errorf("discover competition=%s: %w", comp.Code, ctxErr)
		}
	}

	s.logger.WarnContext(ctx, "no fixtures discovered from any source",
		"run_id", runID,
		"competition", comp.Code,
		"variants", len(diagnostics.Variants),
	)
	return Discovery{
			Competition: comp.Code,
			Fixtures:    []fixture.Candidate{},
			Strategy:    fixture.StrategyNone,
			Diagnostics: diagnostics,
		}, &DiscoveryError{
			Competition: comp.Code,
			Diagnostics: diagnostics,
		}
}

// tryVariant never returns an error: every failure is folded into the
// variant's diagnostics so the walk can move on.
func (s *DiscoveryService) tryVariant(ctx context.Context, comp competition.Competition, source competition.Source) (variant VariantDiagnostics, result fixture.SelectionResult) {
	start := time.Now()
	variant = VariantDiagnostics{
		URL:      source.URL(),
		Locale:   source.Locale,
		Strategy: fixture.StrategyNone,
	}
	result = fixture.SelectionResult{Strategy: fixture.StrategyNone}
	defer func() {
		variant.ElapsedMs = time.Since(start).Milliseconds()
	}()

	doc, err := s.source.Fetch(ctx, variant.URL, source.Locale)
	if err != nil {
		variant.Outcome = Classify(err)
		variant.Error = err.Error()
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			variant.StatusCode = fetchErr.StatusCode
			variant.Attempts = fetchErr.Attempts
			variant.Trail = fetchErr.Trail
		}
		s.logger.WarnContext(ctx, "source variant fetch failed",
			"competition", comp.Code,
			"url", variant.URL,
			"outcome", variant.Outcome,
			"status", variant.StatusCode,
			"error", err,
		)
		return variant, result
	}
	variant.StatusCode = doc.StatusCode
	variant.Attempts = len(doc.Trail)
	variant.Trail = doc.Trail

	var (
		candidates []fixture.Candidate
		stats      ExtractStats
		extractErr error
		catcher    panics.Catcher
	)
	catcher.Try(func() {
		candidates, stats, extractErr = s.extractor.Extract(doc)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		variant.Outcome = outcomeExtractPanic
		variant.Error = fmt.Sprintf("extractor panic: %v", recovered.Value)
		s.logger.ErrorContext(ctx, "extractor panicked", "competition", comp.Code, "url", variant.URL, "panic", variant.Error)
		return variant, result
	}
	if extractErr != nil {
		variant.Outcome = outcomeExtractError
		variant.Error = extractErr.Error()
		s.logger.WarnContext(ctx, "source variant extraction failed", "competition", comp.Code, "url", variant.URL, "error", extractErr)
		return variant, result
	}

	variant.Extract = stats
	variant.CandidateRows = stats.FixtureRows
	variant.ParsedFixtures = len(candidates)

	result = fixture.SelectRound(candidates, comp.NeededCount)
	variant.Strategy = result.Strategy
	variant.Selection = &result.Diagnostics
	if result.Empty() {
		variant.Outcome = Classify(ErrEmptySelection)
		s.logger.WarnContext(ctx, "source variant yielded no round",
			"competition", comp.Code,
			"url", variant.URL,
			"rows", stats.Rows,
			"candidates", len(candidates),
		)
		return variant, result
	}

	variant.Outcome = outcomeSelected
	return variant, result
}

// truncate returns d with its own copy of at most limit fixtures, so callers
// never share a slice with the round cache or with each other.
func truncate(d Discovery, limit int) Discovery {
	if limit > 0 && len(d.Fixtures) > limit {
		d.Fixtures = d.Fixtures[:limit]
	}
	d.Fixtures = slices.Clone(d.Fixtures)
	return d
}

func trimCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = competition.NormalizeCode(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
