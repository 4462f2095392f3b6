// Package jobs contains the scheduled jobs of CPTrack Hub: the full
// tracker refresh, cohort-scoped refreshes and stale-profile cleanup.
package jobs

import (
	"context"

	"github.com/cptrack/cptrack-hub/internal/application/leaderboard"
	"github.com/cptrack/cptrack-hub/internal/application/updater"
)

// ProfileUpdater is the slice of the updater service the jobs depend on.
type ProfileUpdater interface {
	UpdateAll(ctx context.Context) (updater.BatchResult, error)
	UpdateCohort(ctx context.Context, cohort string) (updater.BatchResult, error)
	DeactivateStale(ctx context.Context) (int, error)
}

// LeaderboardMaintainer is the slice of the leaderboard service the jobs
// depend on: reading the top entries logged after each refresh run, and
// dropping cached snapshot pages once a batch has written fresh stats.
type LeaderboardMaintainer interface {
	Top(ctx context.Context, n int) ([]leaderboard.Entry, error)
	InvalidateSnapshots(ctx context.Context, cohort string) error
}

// snapshotSize is how many leaderboard entries each refresh run logs.
const snapshotSize = 10
