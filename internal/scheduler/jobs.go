package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// ListMaintainer is the request list upkeep the daily jobs need.
type ListMaintainer interface {
	EnsureCurrentDay(ctx context.Context) (bool, error)
	PruneExpired(ctx context.Context) ([]string, error)
}

// CachePurger empties the download cache.
type CachePurger interface {
	Purge() error
}

// RegisterDailyJobs adds the list and cache upkeep jobs.
func RegisterDailyJobs(s *Scheduler, lists ListMaintainer, cache CachePurger) error {
	if err := s.Add("ensure_list", EnsureListSpec, func(ctx context.Context) error {
		created, err := lists.EnsureCurrentDay(ctx)
		if err == nil && created {
			s.log.Info("created empty list for the broadcast day")
		}
		return err
	}); err != nil {
		return err
	}

	if err := s.Add("prune_lists", PruneListsSpec, func(ctx context.Context) error {
		removed, err := lists.PruneExpired(ctx)
		if len(removed) > 0 {
			s.log.Info("pruned old lists", zap.Strings("days", removed))
		}
		return err
	}); err != nil {
		return err
	}

	if cache == nil {
		return nil
	}
	return s.Add("purge_downloads", PurgeCacheSpec, func(ctx context.Context) error {
		return cache.Purge()
	})
}
