package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/fixture-scout/internal/domain/fixture"
)

const (
	refreshStatusSuccess = "success"
	refreshStatusEmpty   = "empty"
	refreshStatusFailed  = "failed"
)

type RefreshResult struct {
	CompetitionCount int                 `json:"competition_count"`
	SuccessCount     int                 `json:"success_count"`
	EmptyCount       int                 `json:"empty_count"`
	FailedCount      int                 `json:"failed_count"`
	WorkerCount      int                 `json:"worker_count"`
	Items            []RefreshItemResult `json:"items"`
}

type RefreshItemResult struct {
	Competition string           `json:"competition"`
	Status      string           `json:"status"`
	Strategy    fixture.Strategy `json:"strategy"`
	Fixtures    int              `json:"fixtures"`
	SourceURL   string           `json:"source_url,omitempty"`
	DurationMs  int64            `json:"duration_ms"`
	Message     string           `json:"message,omitempty"`
}

// RefreshAll drops the cached round of each competition and discovers it
// again. Empty codes means every configured competition. Competitions run on
// a bounded worker pool; variants of one competition stay sequential.
func (s *DiscoveryService) RefreshAll(ctx context.Context, codes []string) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DiscoveryService.RefreshAll")
	defer span.End()

	targets := trimCodes(codes)
	if len(targets) == 0 {
		items, err := s.competitions.List(ctx)
		if err != nil {
			return RefreshResult{}, fmt.Errorf("list competitions: %w", err)
		}
		for _, item := range items {
			targets = append(targets, item.Code)
		}
	}

	workerCount := normalizeRefreshWorkerCount(s.cfg.RefreshWorkers, len(targets))
	result := RefreshResult{
		CompetitionCount: len(targets),
		WorkerCount:      workerCount,
		Items:            make([]RefreshItemResult, 0, len(targets)),
	}
	if len(targets) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RefreshResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	rows := make(chan RefreshItemResult, len(targets))
	var successCount, emptyCount, failedCount atomic.Int32

	var workers sync.WaitGroup
	for _, code := range targets {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			row := s.refreshOne(ctx, code)
			switch row.Status {
			case refreshStatusSuccess:
				successCount.Add(1)
			case refreshStatusEmpty:
				emptyCount.Add(1)
			default:
				failedCount.Add(1)
			}
			rows <- row
		}); err != nil {
			workers.Done()
			return RefreshResult{}, fmt.Errorf("submit refresh to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		result.Items = append(result.Items, row)
	}
	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].Competition < result.Items[j].Competition
	})
	result.SuccessCount = int(successCount.Load())
	result.EmptyCount = int(emptyCount.Load())
	result.FailedCount = int(failedCount.Load())

	s.logger.InfoContext(ctx, "refresh completed",
		"competitions", result.CompetitionCount,
		"success", result.SuccessCount,
		"empty", result.EmptyCount,
		"failed", result.FailedCount,
	)
	return result, nil
}

func (s *DiscoveryService) refreshOne(ctx context.Context, code string) RefreshItemResult {
	start := time.Now()
	row := RefreshItemResult{
		Competition: code,
		Strategy:    fixture.StrategyNone,
	}

	if err := s.cache.Delete(ctx, code); err != nil {
		s.logger.WarnContext(ctx, "drop cached round before refresh failed", "competition", code, "error", err)
	}

	discovery, err := s.Discover(ctx, code, 0)
	row.Strategy = discovery.Strategy
	row.Fixtures = len(discovery.Fixtures)
	row.SourceURL = discovery.SourceURL
	switch {
	case err == nil:
		row.Status = refreshStatusSuccess
	case errors.Is(err, ErrEmptySelection):
		row.Status = refreshStatusEmpty
		row.Message = err.Error()
	default:
		row.Status = refreshStatusFailed
		row.Message = err.Error()
	}
	row.DurationMs = time.Since(start).Milliseconds()
	return row
}

func normalizeRefreshWorkerCount(requested, tasks int) int {
	if requested < 1 {
		requested = 1
	}
	if tasks > 0 && requested > tasks {
		return tasks
	}
	return requested
}
