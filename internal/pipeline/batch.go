package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// BatchResult is the outcome for one company of a batch.
type BatchResult struct {
	Report *models.ComparativeReport
	Err    error
}

// RunBatch analyses several companies with at most workers runs in flight.
// Results are keyed by the normalised name of each company's first
// occurrence. Names sharing a utils.CompanyKey ("Tesla", "TESLA") run once.
func (p *Pipeline) RunBatch(ctx context.Context, companies []string, articles, workers int) map[string]BatchResult {
	if workers <= 0 {
		workers = 1
	}
	seen := make(map[string]bool, len(companies))
	var unique []string
	for _, c := range companies {
		c = utils.NormalizeCompany(c)
		key := utils.CompanyKey(c)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, c)
	}

	results := make(map[string]BatchResult, len(unique))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(workers)
	for _, company := range unique {
		company := company
		g.Go(func() error {
			rep, err := p.Run(ctx, company, articles)
			if err != nil {
				p.logger.Warn("batch run failed", "company", company, "error", err)
			}
			mu.Lock()
			results[company] = BatchResult{Report: rep, Err: err}
			mu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck
	return results
}
