package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-scout/internal/domain/competition"
	"github.com/riskibarqy/fixture-scout/internal/domain/fixture"
	competitionmock "github.com/riskibarqy/fixture-scout/internal/mocks/domain/competition"
	usecasemock "github.com/riskibarqy/fixture-scout/internal/mocks/usecase"
	"github.com/riskibarqy/fixture-scout/internal/platform/logging"
	"github.com/riskibarqy/fixture-scout/internal/usecase"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// lineExtractor reads "home|away|date|time" lines; "panic" panics.
type lineExtractor struct{}

func (lineExtractor) Extract(doc usecase.SourceDocument) ([]fixture.Candidate, usecase.ExtractStats, error) {
	body := string(doc.Body)
	if body == "panic" {
		panic("unexpected markup")
	}

	stats := usecase.ExtractStats{}
	out := make([]fixture.Candidate, 0)
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		parts := strings.Split(line, "|")
		stats.Rows++
		if len(parts) != 4 {
			stats.SkippedRows++
			continue
		}
		stats.FixtureRows++
		item := fixture.Candidate{Home: parts[0], Away: parts[1], SourceRef: doc.URL}
		if date, ok := fixture.ParseDateTokens(parts[2]); ok {
			item.Date = date
		}
		if clock, ok := fixture.ParseTimeTokens(parts[3]); ok {
			item.Time = clock
		}
		item.Resolve()
		out = append(out, item)
	}
	stats.Candidates = len(out)
	return out, stats, nil
}

type mapCache struct {
	mu    sync.Mutex
	items map[string]usecase.CachedRound
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string]usecase.CachedRound)}
}

func (c *mapCache) Get(_ context.Context, code string) (usecase.CachedRound, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[code]
	return item, ok, nil
}

func (c *mapCache) Set(_ context.Context, entry usecase.CachedRound) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[entry.Competition] = entry
	return nil
}

func (c *mapCache) Delete(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, code)
	return nil
}

func (c *mapCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]usecase.CachedRound)
	return nil
}

const czechRound = `slavia|sparta|14.02.2026|18:00
plzen|ostrava|14.02.2026|15:00
bohemians|jablonec|15.02.2026|
header row
slavia|plzen|21.02.2026|18:00`

func czechLeague() competition.Competition {
	return competition.Competition{
		Code:        "CZE1",
		Name:        "Chance Liga",
		NeededCount: 3,
		Sources: []competition.Source{
			{BaseURL: "https://primary.test", Slug: "souteze/1", Locale: "cs-CZ"},
			{BaseURL: "https://mirror.test", Slug: "liga", Locale: "cs-CZ"},
		},
	}
}

func newService(t *testing.T, repo competition.Repository, source usecase.FixtureSource, cache usecase.RoundCache) *usecase.DiscoveryService {
	t.Helper()
	return usecase.NewDiscoveryService(repo, source, lineExtractor{}, cache, usecase.DiscoveryServiceConfig{RefreshWorkers: 2}, logging.NewNop())
}

func TestDiscoveryService_Discover_UnmappedCompetitionFailsFast(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := competitionmock.NewRepository(t)
	source := usecasemock.NewFixtureSource(t)
	repo.On("GetByCode", ctx, "XXX1").Return(competition.Competition{}, false, nil).Once()

	service := newService(t, repo, source, newMapCache())
	_, err := service.Discover(ctx, " xxx1 ", 10)
	if !errors.Is(err, usecase.ErrUnmappedCompetition) {
		t.Fatalf("expected ErrUnmappedCompetition, got %v", err)
	}
	source.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestDiscoveryService_Discover_FallsBackToNextVariantAndCaches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	league := czechLeague()
	repo := competitionmock.NewRepository(t)
	source := usecasemock.NewFixtureSource(t)
	cache := newMapCache()

	repo.On("GetByCode", ctx, "CZE1").Return(league, true, nil).Twice()
	source.On("Fetch", ctx, "https://primary.test/souteze/1", "cs-CZ").
		Return(usecase.SourceDocument{}, &usecase.FetchError{
			Kind:       usecase.ErrSourceAntiBot,
			URL:        "https://primary.test/souteze/1",
			StatusCode: 429,
			Attempts:   4,
		}).
		Once()
	source.On("Fetch", ctx, "https://mirror.test/liga", "cs-CZ").
		Return(usecase.SourceDocument{URL: "https://mirror.test/liga", StatusCode: 200, Body: []byte(czechRound)}, nil).
		Once()

	service := newService(t, repo, source, cache)
	got, err := service.Discover(ctx, "cze1", 2)
	require.NoError(t, err)
	require.Len(t, got.Fixtures, 2)
	require.Equal(t, 3, got.Total)
	require.Equal(t, fixture.StrategyWindowEarliestUnique, got.Strategy)
	require.Equal(t, "https://mirror.test/liga", got.SourceURL)
	require.Len(t, got.Diagnostics.Variants, 2)

	first := got.Diagnostics.Variants[0]
	require.Equal(t, "anti_bot", first.Outcome)
	require.Equal(t, 429, first.StatusCode)
	require.Equal(t, 4, first.Attempts)

	second := got.Diagnostics.Variants[1]
	require.Equal(t, "selected", second.Outcome)
	require.Equal(t, 4, second.CandidateRows)
	require.Equal(t, 4, second.ParsedFixtures)

	if got.Fixtures[0].Home != "plzen" || got.Fixtures[1].Home != "slavia" {
		t.Fatalf("expected fixtures sorted by kickoff, got %s then %s", got.Fixtures[0].Home, got.Fixtures[1].Home)
	}

	cached, err := service.Discover(ctx, "CZE1", 0)
	require.NoError(t, err)
	require.True(t, cached.FromCache)
	require.Len(t, cached.Fixtures, 3)
	require.Empty(t, cached.Diagnostics.Variants)
}

func TestDiscoveryService_Discover_CacheHitReturnsOwnCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := competitionmock.NewRepository(t)
	source := usecasemock.NewFixtureSource(t)
	cache := newMapCache()
	require.NoError(t, cache.Set(ctx, usecase.CachedRound{
		Competition: "CZE1",
		SourceURL:   "https://primary.test/souteze/1",
		Result: fixture.SelectionResult{
			Fixtures: []fixture.Candidate{{Home: "slavia", Away: "sparta"}, {Home: "plzen", Away: "ostrava"}},
			Strategy: fixture.StrategyWindowEarliestUnique,
		},
	}))
	repo.On("GetByCode", ctx, "CZE1").Return(czechLeague(), true, nil).Twice()

	service := newService(t, repo, source, cache)
	first, err := service.Discover(ctx, "CZE1", 0)
	require.NoError(t, err)
	require.True(t, first.FromCache)
	first.Fixtures[0].Home = "changed"

	second, err := service.Discover(ctx, "CZE1", 0)
	require.NoError(t, err)
	require.Equal(t, "slavia", second.Fixtures[0].Home)

	entry, _, _ := cache.Get(ctx, "CZE1")
	require.Equal(t, "slavia", entry.Result.Fixtures[0].Home)
}

func TestDiscoveryService_Discover_AllVariantsFailReturnsDiagnostics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	league := czechLeague()
	repo := competitionmock.NewRepository(t)
	source := usecasemock.NewFixtureSource(t)
	cache := newMapCache()

	repo.On("GetByCode", ctx, "CZE1").Return(league, true, nil).Once()
	source.On("Fetch", ctx, "https://primary.test/souteze/1", "cs-CZ").
		Return(usecase.SourceDocument{}, &usecase.FetchError{Kind: usecase.ErrSourceFatalHTTP, StatusCode: 404, Attempts: 1}).
		Once()
	source.On("Fetch", ctx, "https://mirror.test/liga", "cs-CZ").
		Return(usecase.SourceDocument{StatusCode: 200, Body: []byte("no fixtures here")}, nil).
		Once()

	service := newService(t, repo, source, cache)
	got, err := service.Discover(ctx, "CZE1", 5)

	var discoveryErr *usecase.DiscoveryError
	if !errors.As(err, &discoveryErr) {
		t.Fatalf("expected DiscoveryError, got %v", err)
	}
	if !errors.Is(err, usecase.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection in chain, got %v", err)
	}
	require.Empty(t, got.Fixtures)
	require.Equal(t, fixture.StrategyNone, got.Strategy)

	variants := discoveryErr.Diagnostics.Variants
	require.Len(t, variants, 2)
	require.Equal(t, "fatal_http", variants[0].Outcome)
	require.Equal(t, 404, variants[0].StatusCode)
	require.Equal(t, "empty_selection", variants[1].Outcome)
	require.Equal(t, 1, variants[1].Extract.Rows)
	require.Equal(t, fixture.StrategyNone, variants[1].Strategy)

	_, hit, _ := cache.Get(ctx, "CZE1")
	require.False(t, hit, "failed discovery must not be cached")
}

func TestDiscoveryService_Discover_RecoversExtractorPanic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	league := czechLeague()
	repo := competitionmock.NewRepository(t)
	source := usecasemock.NewFixtureSource(t)

	repo.On("GetByCode", ctx, "CZE1").Return(league, true, nil).Once()
	source.On("Fetch", ctx, "https://primary.test/souteze/1", "cs-CZ").
		Return(usecase.SourceDocument{StatusCode: 200, Body: []byte("panic")}, nil).
		Once()
	source.On("Fetch", ctx, "https://mirror.test/liga", "cs-CZ").
		Return(usecase.SourceDocument{StatusCode: 200, Body: []byte(czechRound)}, nil).
		Once()

	service := newService(t, repo, source, newMapCache())
	got, err := service.Discover(ctx, "CZE1", 0)
	require.NoError(t, err)
	require.Len(t, got.Fixtures, 3)
	require.Equal(t, "extract_panic", got.Diagnostics.Variants[0].Outcome)
	require.Contains(t, got.Diagnostics.Variants[0].Error, "unexpected markup")
}

func TestDiscoveryService_Discover_ConcurrentCallsShareOneWalk(t *testing.T) {
	t.Parallel()

	league := czechLeague()
	league.Sources = league.Sources[:1]
	repo := competitionmock.NewRepository(t)
	source := usecasemock.NewFixtureSource(t)

	repo.On("GetByCode", mock.Anything, "CZE1").Return(league, true, nil)
	source.On("Fetch", mock.Anything, "https://primary.test/souteze/1", "cs-CZ").
		Run(func(mock.Arguments) { time.Sleep(50 * time.Millisecond) }).
		Return(usecase.SourceDocument{StatusCode: 200, Body: []byte(czechRound)}, nil).
		Once()

	service := newService(t, repo, source, newMapCache())

	const callers = 8
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			got, err := service.Discover(context.Background(), "CZE1", 0)
			if err != nil {
				t.Errorf("discover: %v", err)
				return
			}
			if len(got.Fixtures) != 3 {
				t.Errorf("expected 3 fixtures, got %d", len(got.Fixtures))
			}
		}()
	}
	wg.Wait()
}

func TestDiscoveryService_ClearCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := competitionmock.NewRepository(t)
	source := usecasemock.NewFixtureSource(t)
	cache := newMapCache()
	_ = cache.Set(ctx, usecase.CachedRound{Competition: "CZE1"})
	_ = cache.Set(ctx, usecase.CachedRound{Competition: "ESP1"})

	repo.On("GetByCode", ctx, "CZE1").Return(czechLeague(), true, nil).Once()
	repo.On("GetByCode", ctx, "NOPE").Return(competition.Competition{}, false, nil).Once()

	service := newService(t, repo, source, cache)
	require.NoError(t, service.ClearCache(ctx, "cze1"))
	_, hit, _ := cache.Get(ctx, "CZE1")
	require.False(t, hit)

	err := service.ClearCache(ctx, "nope")
	require.ErrorIs(t, err, usecase.ErrUnmappedCompetition)

	require.ErrorIs(t, service.ClearCache(ctx, " "), usecase.ErrInvalidInput)

	require.NoError(t, service.ClearAllCache(ctx))
	_, hit, _ = cache.Get(ctx, "ESP1")
	require.False(t, hit)
}

func TestDiscoveryService_RefreshAll(t *testing.T) {
	t.Parallel()

	czech := czechLeague()
	czech.Sources = czech.Sources[:1]
	spain := competition.Competition{
		Code:        "ESP1",
		NeededCount: 2,
		Sources:     []competition.Source{{BaseURL: "https://laliga.test", Slug: "calendario", Locale: "es-ES"}},
	}

	repo := competitionmock.NewRepository(t)
	source := usecasemock.NewFixtureSource(t)
	cache := newMapCache()
	_ = cache.Set(context.Background(), usecase.CachedRound{Competition: "CZE1"})

	repo.On("List", mock.Anything).Return([]competition.Competition{czech, spain}, nil).Once()
	repo.On("GetByCode", mock.Anything, "CZE1").Return(czech, true, nil).Once()
	repo.On("GetByCode", mock.Anything, "ESP1").Return(spain, true, nil).Once()
	source.On("Fetch", mock.Anything, "https://primary.test/souteze/1", "cs-CZ").
		Return(usecase.SourceDocument{StatusCode: 200, Body: []byte(czechRound)}, nil).
		Once()
	source.On("Fetch", mock.Anything, "https://laliga.test/calendario", "es-ES").
		Return(usecase.SourceDocument{}, &usecase.FetchError{Kind: usecase.ErrSourceNetwork, Attempts: 4}).
		Once()

	service := newService(t, repo, source, cache)
	got, err := service.RefreshAll(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, got.CompetitionCount)
	require.Equal(t, 1, got.SuccessCount)
	require.Equal(t, 1, got.EmptyCount)
	require.Len(t, got.Items, 2)
	require.Equal(t, "CZE1", got.Items[0].Competition)
	require.Equal(t, 3, got.Items[0].Fixtures)
	require.Equal(t, "ESP1", got.Items[1].Competition)
	require.Equal(t, "empty", got.Items[1].Status)
}
