package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/repository"
)

type fakeStatsRepo struct {
	overview   repository.StatsOverview
	byPriority map[domain.TicketPriority]int
	byCategory map[string]int
	agents     []repository.AgentStat
	calls      int
}

func (f *fakeStatsRepo) Overview(context.Context, *time.Time, *time.Time) (repository.StatsOverview, error) {
	f.calls++
	return f.overview, nil
}

func (f *fakeStatsRepo) PriorityCounts(context.Context, *time.Time, *time.Time) (map[domain.TicketPriority]int, error) {
	return f.byPriority, nil
}

func (f *fakeStatsRepo) CategoryCounts(context.Context, *time.Time, *time.Time) (map[string]int, error) {
	return f.byCategory, nil
}

func (f *fakeStatsRepo) AgentStats(context.Context, *time.Time, *time.Time) ([]repository.AgentStat, error) {
	return f.agents, nil
}

func TestStatsEmptyStoreYieldsZeroes(t *testing.T) {
	repo := &fakeStatsRepo{}
	svc := NewStatsService(repo, nil, time.Second, zap.NewNop())

	stats, err := svc.Get(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Overview.Total)
	assert.NotNil(t, stats.ByPriority)
	assert.NotNil(t, stats.ByCategory)
	assert.NotNil(t, stats.AgentStats)
	assert.Empty(t, stats.AgentStats)
}

func TestStatsPassesThroughRollups(t *testing.T) {
	repo := &fakeStatsRepo{
		overview: repository.StatsOverview{Total: 7, Open: 2, InProgress: 1, Resolved: 3, Closed: 1},
		byPriority: map[domain.TicketPriority]int{
			domain.TicketPriorityHigh: 4,
			domain.TicketPriorityLow:  3,
		},
		byCategory: map[string]int{"Hardware": 5, "Billing": 2},
		agents: []repository.AgentStat{
			{Agent: "carol", Assigned: 4, Resolved: 3, Closed: 1},
		},
	}
	svc := NewStatsService(repo, nil, time.Second, zap.NewNop())

	stats, err := svc.Get(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Overview.Total)
	assert.Equal(t, 4, stats.ByPriority[domain.TicketPriorityHigh])
	assert.Equal(t, 5, stats.ByCategory["Hardware"])
	require.Len(t, stats.AgentStats, 1)
	assert.Equal(t, "carol", stats.AgentStats[0].Agent)
}
