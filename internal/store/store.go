// Package store keeps the latest comparative report per company.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/pkg/models"
	"github.com/seenimoa/newspulse/pkg/utils"
)

var (
	// ErrNotFound is returned when no report is stored for a company.
	ErrNotFound = errors.New("store: report not found")

	// ErrEmptyKey is returned for company names that normalise to nothing.
	ErrEmptyKey = errors.New("store: empty company key")
)

// ReportStore persists reports keyed by normalised company name.
type ReportStore interface {
	Get(ctx context.Context, company string) (*models.ComparativeReport, error)
	Put(ctx context.Context, report *models.ComparativeReport) error
	// List returns the stored company keys, sorted.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Key returns the storage key for company.
func Key(company string) (string, error) {
	k := utils.CompanyKey(company)
	if k == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyKey, company)
	}
	return k, nil
}

// New opens the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ReportStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := config.Seconds(cfg.TTL)
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return NewMemoryStore(ttl), nil
	case "redis":
		s, err := NewRedisStore(ctx, cfg.RedisURL, ttl)
		if err != nil {
			return nil, err
		}
		logger.Info("report store connected", "backend", "redis")
		return s, nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}

func ttlOrForever(ttl time.Duration) time.Duration {
	if ttl < 0 {
		return 0
	}
	return ttl
}
