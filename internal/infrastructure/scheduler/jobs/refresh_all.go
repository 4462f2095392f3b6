package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// RefreshAllJob refreshes every active tracker from the external platforms.
// After each run it logs a top-of-leaderboard snapshot for observability;
// the snapshot is a side effect, not a correctness requirement.
type RefreshAllJob struct {
	updater     ProfileUpdater
	leaderboard LeaderboardMaintainer
	logger      *slog.Logger
}

// NewRefreshAllJob creates the full-refresh job.
func NewRefreshAllJob(u ProfileUpdater, lb LeaderboardMaintainer, logger *slog.Logger) *RefreshAllJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshAllJob{updater: u, leaderboard: lb, logger: logger}
}

// Name returns the job name.
func (j *RefreshAllJob) Name() string { return "refresh-all-trackers" }

// Description returns a human-readable description.
func (j *RefreshAllJob) Description() string {
	return "Refreshes every active tracker from all connected platforms"
}

// Run executes the full refresh.
func (j *RefreshAllJob) Run(ctx context.Context) error {
	result, err := j.updater.UpdateAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh all trackers: %w", err)
	}

	j.logger.Info("full refresh finished",
		"success", result.Success,
		"failed", result.Failed,
		"total", result.Total,
	)

	invalidateSnapshots(ctx, j.leaderboard, "", j.logger)
	logLeaderboardSnapshot(ctx, j.leaderboard, j.logger)
	return nil
}

// invalidateSnapshots drops cached leaderboard pages after a batch wrote
// fresh stats. Failures are logged and swallowed; the pages expire on their
// own TTL anyway.
func invalidateSnapshots(ctx context.Context, lb LeaderboardMaintainer, cohort string, logger *slog.Logger) {
	if lb == nil {
		return
	}
	if err := lb.InvalidateSnapshots(ctx, cohort); err != nil {
		logger.Warn("leaderboard snapshot invalidation failed", "cohort", cohort, "error", err)
	}
}

// logLeaderboardSnapshot logs the current top entries. Failures here are
// swallowed: the snapshot must never fail a refresh run.
func logLeaderboardSnapshot(ctx context.Context, lb LeaderboardMaintainer, logger *slog.Logger) {
	if lb == nil {
		return
	}
	entries, err := lb.Top(ctx, snapshotSize)
	if err != nil {
		logger.Warn("leaderboard snapshot unavailable", "error", err)
		return
	}
	for _, entry := range entries {
		logger.Info("leaderboard snapshot",
			"rank", entry.Rank,
			"user_id", entry.UserID,
			"performance_score", entry.PerformanceScore,
		)
	}
}
