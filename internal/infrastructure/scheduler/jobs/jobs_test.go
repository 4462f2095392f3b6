package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cptrack/cptrack-hub/internal/application/leaderboard"
	"github.com/cptrack/cptrack-hub/internal/application/updater"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeUpdater struct {
	allCalls    int
	cohortCalls []string
	deactivated int
	failAll     bool
	failCohort  bool
}

func (u *fakeUpdater) UpdateAll(context.Context) (updater.BatchResult, error) {
	u.allCalls++
	if u.failAll {
		return updater.BatchResult{}, errors.New("platform outage")
	}
	return updater.BatchResult{Total: 3, Success: 3}, nil
}

func (u *fakeUpdater) UpdateCohort(_ context.Context, cohort string) (updater.BatchResult, error) {
	u.cohortCalls = append(u.cohortCalls, cohort)
	if u.failCohort {
		return updater.BatchResult{}, errors.New("platform outage")
	}
	return updater.BatchResult{Total: 2, Success: 2}, nil
}

func (u *fakeUpdater) DeactivateStale(context.Context) (int, error) {
	return u.deactivated, nil
}

type fakeLeaderboard struct {
	invalidated []string
	topCalls    int
}

func (l *fakeLeaderboard) Top(context.Context, int) ([]leaderboard.Entry, error) {
	l.topCalls++
	return []leaderboard.Entry{{Rank: 1, UserID: "user1"}}, nil
}

func (l *fakeLeaderboard) InvalidateSnapshots(_ context.Context, cohort string) error {
	l.invalidated = append(l.invalidated, cohort)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Full refresh
// ─────────────────────────────────────────────────────────────────────────────

func TestRefreshAllJob(t *testing.T) {
	u := &fakeUpdater{}
	lb := &fakeLeaderboard{}
	job := NewRefreshAllJob(u, lb, nil)

	assert.Equal(t, "refresh-all-trackers", job.Name())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, 1, u.allCalls)
	assert.Equal(t, []string{""}, lb.invalidated)
	assert.Equal(t, 1, lb.topCalls)
}

func TestRefreshAllJob_PropagatesBatchError(t *testing.T) {
	u := &fakeUpdater{failAll: true}
	lb := &fakeLeaderboard{}
	job := NewRefreshAllJob(u, lb, nil)

	assert.Error(t, job.Run(context.Background()))
	assert.Empty(t, lb.invalidated)
}

func TestRefreshAllJob_NilLeaderboard(t *testing.T) {
	job := NewRefreshAllJob(&fakeUpdater{}, nil, nil)
	assert.NoError(t, job.Run(context.Background()))
}

// ─────────────────────────────────────────────────────────────────────────────
// Cohort refresh
// ─────────────────────────────────────────────────────────────────────────────

func TestCohortRefreshJob(t *testing.T) {
	u := &fakeUpdater{}
	lb := &fakeLeaderboard{}
	job := NewCohortRefreshJob("2026", u, lb, nil)

	assert.Equal(t, "refresh-cohort-2026", job.Name())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, []string{"2026"}, u.cohortCalls)
	assert.Equal(t, []string{"2026"}, lb.invalidated)
}

func TestCohortRefreshJob_NamesAreUniquePerCohort(t *testing.T) {
	a := NewCohortRefreshJob("2025", &fakeUpdater{}, nil, nil)
	b := NewCohortRefreshJob("2026", &fakeUpdater{}, nil, nil)
	assert.NotEqual(t, a.Name(), b.Name())
}

func TestCohortRefreshJob_PropagatesBatchError(t *testing.T) {
	u := &fakeUpdater{failCohort: true}
	job := NewCohortRefreshJob("2026", u, &fakeLeaderboard{}, nil)
	assert.Error(t, job.Run(context.Background()))
}

// ─────────────────────────────────────────────────────────────────────────────
// Stale cleanup
// ─────────────────────────────────────────────────────────────────────────────

func TestCleanupStaleJob(t *testing.T) {
	u := &fakeUpdater{deactivated: 4}
	job := NewCleanupStaleJob(u, nil)

	assert.Equal(t, "cleanup-stale-trackers", job.Name())
	assert.NoError(t, job.Run(context.Background()))
}
