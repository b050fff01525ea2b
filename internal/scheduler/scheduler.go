// Package scheduler re-analyses a watchlist of companies on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/pipeline"
	"github.com/seenimoa/newspulse/pkg/utils"
)

// DefaultSchedule refreshes the watchlist every six hours.
const DefaultSchedule = "0 */6 * * *"

var (
	// ErrEmptyWatchlist is returned by New when there is nothing to watch.
	ErrEmptyWatchlist = errors.New("scheduler: watchlist is empty")
	// ErrBusy is returned by RunNow while a refresh is still running.
	ErrBusy = errors.New("scheduler: refresh already running")
)

// BatchRunner analyses a set of companies.
type BatchRunner interface {
	RunBatch(ctx context.Context, companies []string, articles, workers int) map[string]pipeline.BatchResult
}

// Summary describes one refresh.
type Summary struct {
	Started   time.Time
	Elapsed   time.Duration
	Succeeded []string
	Failed    map[string]error
}

// Scheduler owns a cron instance with a single watchlist job.
type Scheduler struct {
	runner    BatchRunner
	companies []string
	schedule  string
	articles  int
	workers   int
	logger    *slog.Logger

	cron    *cron.Cron
	entryID cron.EntryID
	running atomic.Bool

	mu   sync.Mutex
	last *Summary

	ctx    context.Context
	cancel context.CancelFunc
}

// New validates the watchlist and registers the cron job. The job does not
// fire until Start.
func New(runner BatchRunner, wl config.WatchlistConfig, workers int, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var companies []string
	seen := make(map[string]bool, len(wl.Companies))
	for _, c := range wl.Companies {
		c = utils.NormalizeCompany(c)
		key := utils.CompanyKey(c)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		companies = append(companies, c)
	}
	if len(companies) == 0 {
		return nil, ErrEmptyWatchlist
	}
	schedule := wl.Schedule
	if schedule == "" {
		schedule = DefaultSchedule
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		runner:    runner,
		companies: companies,
		schedule:  schedule,
		articles:  wl.Articles,
		workers:   workers,
		logger:    logger.With("component", "scheduler"),
		cron:      cron.New(),
		ctx:       ctx,
		cancel:    cancel,
	}
	id, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.RunNow(s.ctx); errors.Is(err, ErrBusy) {
			s.logger.Warn("cron skipped: previous refresh still running")
		}
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("scheduler: bad schedule %q: %w", schedule, err)
	}
	s.entryID = id
	return s, nil
}

// Start begins firing the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("watchlist scheduled",
		"schedule", s.schedule,
		"companies", len(s.companies),
		"next", s.Next().Format(time.RFC3339),
	)
}

// Stop halts the cron, cancels a refresh in flight and waits for it.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// Next returns the next scheduled fire time, or zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// Companies returns the normalised watchlist.
func (s *Scheduler) Companies() []string {
	return append([]string(nil), s.companies...)
}

// Last returns the most recent refresh summary, or nil.
func (s *Scheduler) Last() *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// RunNow refreshes the whole watchlist immediately. Overlapping refreshes
// are refused with ErrBusy.
func (s *Scheduler) RunNow(ctx context.Context) (*Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	sum := &Summary{Started: time.Now(), Failed: map[string]error{}}
	results := s.runner.RunBatch(ctx, s.companies, s.articles, s.workers)
	byKey := make(map[string]pipeline.BatchResult, len(results))
	for name, r := range results {
		byKey[utils.CompanyKey(name)] = r
	}
	for _, c := range s.companies {
		r, ok := byKey[utils.CompanyKey(c)]
		switch {
		case !ok:
			sum.Failed[c] = errors.New("no result")
		case r.Err != nil:
			sum.Failed[c] = r.Err
		default:
			sum.Succeeded = append(sum.Succeeded, c)
		}
	}
	sum.Elapsed = time.Since(sum.Started)

	s.mu.Lock()
	s.last = sum
	s.mu.Unlock()

	s.logger.Info("watchlist refreshed",
		"ok", len(sum.Succeeded),
		"failed", len(sum.Failed),
		"elapsed", utils.FormatElapsed(sum.Elapsed),
	)
	return sum, nil
}
