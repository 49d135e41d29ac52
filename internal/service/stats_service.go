package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/persistence"
	"github.com/quickdesk/helpdesk-service/internal/repository"
)

// Statistics bundles the read-only rollups served to staff dashboards.
type Statistics struct {
	Overview   repository.StatsOverview      `json:"overview"`
	ByPriority map[domain.TicketPriority]int `json:"priorityStats"`
	ByCategory map[string]int                `json:"categoryStats"`
	AgentStats []repository.AgentStat        `json:"agentStats"`
}

// StatsService computes rollups over the ticket store, memoized in Redis
// for a short window. It never mutates anything.
type StatsService struct {
	stats  repository.StatsRepository
	cache  *persistence.Redis
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsService constructs the service. cache may be nil.
func NewStatsService(stats repository.StatsRepository, cache *persistence.Redis, ttl time.Duration, logger *zap.Logger) *StatsService {
	return &StatsService{stats: stats, cache: cache, ttl: ttl, logger: logger}
}

// Get returns statistics for the optional date range. An empty store
// yields all-zero counts.
func (s *StatsService) Get(ctx context.Context, from, to *time.Time) (*Statistics, error) {
	key := cacheKey(from, to)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	overview, err := s.stats.Overview(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.stats.PriorityCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.stats.CategoryCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	agentStats, err := s.stats.AgentStats(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if byPriority == nil {
		byPriority = map[domain.TicketPriority]int{}
	}
	if byCategory == nil {
		byCategory = map[string]int{}
	}
	if agentStats == nil {
		agentStats = []repository.AgentStat{}
	}

	result := &Statistics{
		Overview:   overview,
		ByPriority: byPriority,
		ByCategory: byCategory,
		AgentStats: agentStats,
	}
	s.toCache(ctx, key, result)
	return result, nil
}

func cacheKey(from, to *time.Time) string {
	fromStr, toStr := "", ""
	if from != nil {
		fromStr = from.UTC().Format(time.RFC3339)
	}
	if to != nil {
		toStr = to.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("stats:%s:%s", fromStr, toStr)
}

func (s *StatsService) fromCache(ctx context.Context, key string) *Statistics {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var stats Statistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.logger.Debug("stats cache entry unreadable", zap.Error(err))
		return nil
	}
	return &stats
}

func (s *StatsService) toCache(ctx context.Context, key string, stats *Statistics) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
}
