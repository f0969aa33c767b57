package app

import (
	"context"
	"fmt"
	"net/http"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fixture-scout/external/scrapesource"
	"github.com/riskibarqy/fixture-scout/internal/config"
	"github.com/riskibarqy/fixture-scout/internal/domain/competition"
	"github.com/riskibarqy/fixture-scout/internal/infrastructure/fixturehtml"
	"github.com/riskibarqy/fixture-scout/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fixture-scout/internal/infrastructure/roundcache"
	"github.com/riskibarqy/fixture-scout/internal/interfaces/httpapi"
	"github.com/riskibarqy/fixture-scout/internal/platform/identity"
	"github.com/riskibarqy/fixture-scout/internal/platform/logging"
	"github.com/riskibarqy/fixture-scout/internal/platform/resilience"
	"github.com/riskibarqy/fixture-scout/internal/usecase"
)

// Components is the discovery pipeline shared by the API server and the CLI.
type Components struct {
	Discovery *usecase.DiscoveryService
	closers   []func() error
}

func (c *Components) Close() error {
	var errs error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = crerr.CombineErrors(errs, err)
		}
	}
	c.closers = nil
	return errs
}

// NewComponents wires the fetcher, extractor, round cache and competition
// catalogue. Competitions come from COMPETITIONS_FILE when set, otherwise
// from the built-in seed.
func NewComponents(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Components, error) {
	if logger == nil {
		logger = logging.Default()
	}

	catalogue := config.CompetitionsFile{}
	competitions := memory.SeedCompetitions()
	if cfg.CompetitionsFile != "" {
		loaded, err := config.LoadCompetitions(cfg.CompetitionsFile)
		if err != nil {
			return nil, crerr.Wrapf(err, "load competitions from %s", cfg.CompetitionsFile)
		}
		catalogue = loaded
		competitions = loaded.DomainCompetitions()
	}

	repo, err := memory.NewCompetitionRepository(competitions)
	if err != nil {
		return nil, crerr.Wrap(err, "build competition repository")
	}

	extractor, err := fixturehtml.NewExtractor(fixturehtml.Config{
		ClubPathPattern:    catalogue.Extraction.ClubPathPattern,
		ReportPathPattern:  catalogue.Extraction.ReportPathPattern,
		ReportTextPattern:  catalogue.Extraction.ReportTextPattern,
		PrimaryLinkClasses: catalogue.Extraction.PrimaryLinkClasses,
	}, logger.Named("extractor"))
	if err != nil {
		return nil, crerr.Wrap(err, "build extractor")
	}

	source := scrapesource.NewClient(scrapesource.ClientConfig{
		Timeout:        cfg.FetchTimeout,
		ConnectTimeout: cfg.FetchConnectTimeout,
		MaxRetries:     cfg.FetchMaxRetries,
		Concurrency:    cfg.FetchConcurrency,
		BackoffBase:    cfg.FetchBackoffBase,
		Jitter:         cfg.FetchJitter,
		AntiBotJitter:  cfg.FetchAntiBotJitter,
		MaxBodyBytes:   int64(cfg.FetchMaxBodyBytes),
		Identities:     identity.NewRotator(catalogue.UserAgents()),
		Logger:         logger.Named("scrapesource"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FetchCircuitEnabled,
			FailureThreshold: cfg.FetchCircuitFailureCount,
			OpenTimeout:      cfg.FetchCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FetchCircuitHalfOpenMaxReq,
		},
	})

	components := &Components{}
	cache, err := newRoundCache(ctx, cfg, components)
	if err != nil {
		return nil, err
	}

	components.Discovery = usecase.NewDiscoveryService(
		repo,
		source,
		extractor,
		cache,
		usecase.DiscoveryServiceConfig{RefreshWorkers: cfg.DiscoveryWorkers},
		logger.Named("discovery"),
	)

	logger.Info("discovery pipeline ready",
		"competitions", len(competitions),
		"mapped", countMapped(competitions),
		"cache_backend", cfg.CacheBackend,
		"cache_ttl", cfg.CacheTTL,
		"fetch_concurrency", cfg.FetchConcurrency,
		"fetch_max_retries", cfg.FetchMaxRetries,
	)
	return components, nil
}

func newRoundCache(ctx context.Context, cfg config.Config, components *Components) (usecase.RoundCache, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		client, err := roundcache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		components.closers = append(components.closers, client.Close)
		return roundcache.NewRedisCache(client, cfg.CacheTTL, cfg.RedisNamespace), nil
	case config.CacheBackendMemory, "":
		return roundcache.NewMemoryCache(cfg.CacheTTL), nil
	default:
		return nil, crerr.Newf("unsupported cache backend %q", cfg.CacheBackend)
	}
}

func countMapped(items []competition.Competition) int {
	mapped := 0
	for _, item := range items {
		if len(item.Sources) > 0 {
			mapped++
		}
	}
	return mapped
}

func NewHTTPServer(cfg config.Config, components *Components, logger *logging.Logger) (*http.Server, error) {
	if components == nil || components.Discovery == nil {
		return nil, fmt.Errorf("discovery components are required")
	}

	handler := httpapi.NewHandler(components.Discovery, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}
