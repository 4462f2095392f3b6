package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// CohortRefreshJob refreshes the active trackers of a single cohort.
// One instance is registered per cohort, each on its own interval.
type CohortRefreshJob struct {
	cohort      string
	updater     ProfileUpdater
	leaderboard LeaderboardMaintainer
	logger      *slog.Logger
}

// NewCohortRefreshJob creates a cohort-scoped refresh job.
func NewCohortRefreshJob(cohort string, u ProfileUpdater, lb LeaderboardMaintainer, logger *slog.Logger) *CohortRefreshJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CohortRefreshJob{cohort: cohort, updater: u, leaderboard: lb, logger: logger}
}

// Name returns the job name, unique per cohort.
func (j *CohortRefreshJob) Name() string {
	return "refresh-cohort-" + j.cohort
}

// Description returns a human-readable description.
func (j *CohortRefreshJob) Description() string {
	return fmt.Sprintf("Refreshes active trackers in cohort %q", j.cohort)
}

// Run executes the cohort refresh.
func (j *CohortRefreshJob) Run(ctx context.Context) error {
	result, err := j.updater.UpdateCohort(ctx, j.cohort)
	if err != nil {
		return fmt.Errorf("refresh cohort %s: %w", j.cohort, err)
	}

	j.logger.Info("cohort refresh finished",
		"cohort", j.cohort,
		"success", result.Success,
		"failed", result.Failed,
		"total", result.Total,
	)

	invalidateSnapshots(ctx, j.leaderboard, j.cohort, j.logger)
	logLeaderboardSnapshot(ctx, j.leaderboard, j.logger)
	return nil
}
