package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yukikurage/taskflow/internal/cache"
	"github.com/yukikurage/taskflow/internal/repository"
	"github.com/yukikurage/taskflow/internal/stats"
)

// StatsService serves the dashboard, cache-aside when a cache is configured.
type StatsService struct {
	taskRepo repository.TaskRepository
	cache    cache.Store
	logger   *slog.Logger
	now      func() time.Time

	// generations counts invalidations per user. A dashboard computed while
	// the count moved is not left in the cache.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewStatsService creates a StatsService. A nil store disables caching.
func NewStatsService(taskRepo repository.TaskRepository, store cache.Store, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		taskRepo: taskRepo,
		cache:    store,
		logger:      logger,
		now:         time.Now,
		generations: make(map[string]uint64),
	}
}

// Dashboard computes the user's statistics for today.
// Cache failures degrade to a direct computation.
func (s *StatsService) Dashboard(ctx context.Context, userID string) (stats.Dashboard, error) {
	now := s.now()
	key := cache.StatsKey(userID, now)

	if s.cache != nil {
		var cached stats.Dashboard
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("stats cache read failed", "key", key, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	gen := s.generation(userID)
	tasks, err := s.taskRepo.ListByUser(userID, repository.OrderByCreatedDesc)
	if err != nil {
		return stats.Dashboard{}, err
	}
	dashboard := stats.Compute(tasks, now)

	if s.cache != nil && s.generation(userID) == gen {
		if err := s.cache.Set(ctx, key, dashboard); err != nil {
			s.logger.Warn("stats cache write failed", "key", key, "error", err)
		}
		// An invalidation may have landed between the check and the write.
		if s.generation(userID) != gen {
			if err := s.cache.DeletePattern(ctx, key); err != nil {
				s.logger.Warn("stats cache cleanup failed", "key", key, "error", err)
			}
		}
	}
	return dashboard, nil
}

// Invalidate drops every cached dashboard of the user
func (s *StatsService) Invalidate(ctx context.Context, userID string) error {
	if s.cache == nil {
		return nil
	}
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()
	return s.cache.DeletePattern(ctx, cache.UserStatsPattern(userID))
}

func (s *StatsService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}
