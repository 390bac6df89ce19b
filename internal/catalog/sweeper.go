package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/multierr"
)

// DefaultSweepInterval is the delay between expiry scans.
const DefaultSweepInterval = 5 * time.Minute

// Store is the catalog surface the sweeper needs.
type Store interface {
	FilesCreatedBefore(cutoff time.Time) []string
	BatchesCreatedBefore(cutoff time.Time) []string
	DeleteFile(key string) error
	DeleteBatch(key string) error
}

// SettingsSource provides the runtime auto-delete settings.
type SettingsSource interface {
	AutoDeleteEnabled() bool
	AutoDeleteSeconds() int
}

// Sweeper periodically evicts catalog entries older than the configured
// TTL. It loops until its context is cancelled; a pass in progress
// finishes its deletions before the loop exits.
type Sweeper struct {
	store    Store
	settings SettingsSource
	interval time.Duration
	logger   *log.Logger

	now func() time.Time
}

// NewSweeper creates a sweeper. A non-positive interval falls back to
// DefaultSweepInterval.
func NewSweeper(store Store, settings SettingsSource, interval time.Duration, logger *log.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		settings: settings,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run blocks, sweeping on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep performs one scan. It returns the number of files and batches
// deleted. A deletion failure on one entry is logged and does not stop
// the rest of the pass.
func (s *Sweeper) Sweep() (files, batches int) {
	if !s.settings.AutoDeleteEnabled() {
		return 0, 0
	}

	ttl := time.Duration(s.settings.AutoDeleteSeconds()) * time.Second
	cutoff := s.now().Add(-ttl)

	var errs error
	for _, key := range s.store.FilesCreatedBefore(cutoff) {
		if err := s.store.DeleteFile(key); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete file %s: %w", key, err))
			continue
		}
		files++
	}
	for _, key := range s.store.BatchesCreatedBefore(cutoff) {
		if err := s.store.DeleteBatch(key); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete batch %s: %w", key, err))
			continue
		}
		batches++
	}

	if errs != nil {
		s.logger.Error("sweep finished with errors", "error", errs)
	}
	if files > 0 || batches > 0 {
		s.logger.Info("sweep completed", "files", files, "batches", batches)
	}
	return files, batches
}
