// Package sweeper deletes output artifacts older than a retention age.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// DefaultMaxAge is the retention age used when none is configured
const DefaultMaxAge = 24 * time.Hour

// LockName is the lock file kept in the swept directory; it is never deleted
const LockName = ".sweep.lock"

// JobPruner removes finished job records older than a cutoff
type JobPruner interface {
	CleanupFinished(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper removes aged files from a flat directory
type Sweeper struct {
	dir    string
	maxAge time.Duration
	jobs   JobPruner
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	lock *flock.Flock
}

// New creates a Sweeper for dir. jobs may be nil.
func New(dir string, maxAge time.Duration, jobs JobPruner, logger *slog.Logger) *Sweeper {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		dir:    dir,
		maxAge: maxAge,
		jobs:   jobs,
		logger: logger,
		now:    time.Now,
		lock:   flock.New(filepath.Join(dir, LockName)),
	}
}

// Sweep deletes every regular file in the directory whose modification time is older
// than the retention age and returns how many were removed. A file that cannot be
// deleted is logged and skipped. When another sweep holds the lock, Sweep returns at once.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	if !s.mu.TryLock() {
		return 0, nil
	}
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return 0, fmt.Errorf("ensure sweep directory: %w", err)
	}

	locked, err := s.lock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !locked {
		s.logger.Debug("sweep skipped, lock held by another process", "dir", s.dir)
		return 0, nil
	}
	defer s.lock.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read sweep directory: %w", err)
	}

	now := s.now()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == LockName {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		age := now.Sub(info.ModTime())
		if age <= s.maxAge {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn("error removing aged file", "path", path, "error", err)
			}
			continue
		}
		removed++
		s.logger.Info("removed aged file", "file", entry.Name(), "age", age.Round(time.Second))
	}

	if s.jobs != nil {
		n, err := s.jobs.CleanupFinished(ctx, now.Add(-s.maxAge))
		if err != nil {
			s.logger.Warn("error pruning finished jobs", "error", err)
		} else if n > 0 {
			s.logger.Info("pruned finished jobs", "count", n)
		}
	}

	return removed, nil
}
