package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/fixture-scout/internal/domain/competition"
)

type CompetitionRepository struct {
	mu     sync.RWMutex
	items  map[string]competition.Competition
	orders []string
}

// NewCompetitionRepository indexes competitions by normalized code, keeping
// input order for List. Duplicate codes are rejected.
func NewCompetitionRepository(competitions []competition.Competition) (*CompetitionRepository, error) {
	items := make(map[string]competition.Competition, len(competitions))
	orders := make([]string, 0, len(competitions))

	for _, c := range competitions {
		c.Code = competition.NormalizeCode(c.Code)
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, exists := items[c.Code]; exists {
			return nil, fmt.Errorf("duplicate competition code %s", c.Code)
		}
		c.Sources = append([]competition.Source(nil), c.Sources...)
		items[c.Code] = c
		orders = append(orders, c.Code)
	}

	return &CompetitionRepository{
		items:  items,
		orders: orders,
	}, nil
}

func (r *CompetitionRepository) List(_ context.Context) ([]competition.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]competition.Competition, 0, len(r.orders))
	for _, code := range r.orders {
		out = append(out, r.items[code])
	}

	return out, nil
}

func (r *CompetitionRepository) GetByCode(_ context.Context, code string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[competition.NormalizeCode(code)]
	if !ok {
		return competition.Competition{}, false, nil
	}

	return c, true, nil
}
