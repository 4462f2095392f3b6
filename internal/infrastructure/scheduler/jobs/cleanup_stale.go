package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// CleanupStaleJob deactivates trackers that have gone untouched past the
// staleness window. Deactivation is a soft delete; no data is removed.
type CleanupStaleJob struct {
	updater ProfileUpdater
	logger  *slog.Logger
}

// NewCleanupStaleJob creates the cleanup job.
func NewCleanupStaleJob(u ProfileUpdater, logger *slog.Logger) *CleanupStaleJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupStaleJob{updater: u, logger: logger}
}

// Name returns the job name.
func (j *CleanupStaleJob) Name() string { return "cleanup-stale-trackers" }

// Description returns a human-readable description.
func (j *CleanupStaleJob) Description() string {
	return "Deactivates trackers with no updates past the staleness window"
}

// Run executes the cleanup.
func (j *CleanupStaleJob) Run(ctx context.Context) error {
	count, err := j.updater.DeactivateStale(ctx)
	if err != nil {
		return fmt.Errorf("cleanup stale trackers: %w", err)
	}
	j.logger.Info("stale cleanup finished", "deactivated", count)
	return nil
}
