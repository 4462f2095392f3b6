// Package updater orchestrates profile refreshes: it fetches statistics
// from every enabled platform for a user, merges the results into the
// tracker record, recomputes the derived scores and persists the outcome.
// Batch runs serialize users with a fixed delay between them so the hub
// never bursts the shared rate limits of the upstream platforms.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
	"github.com/cptrack/cptrack-hub/internal/infrastructure/external/platforms"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the updater service.
type Config struct {
	// BatchDelay is the pause between users in a batch run.
	BatchDelay time.Duration

	// StaleAfter is how long a tracker may go untouched before the cleanup
	// pass deactivates it.
	StaleAfter time.Duration

	// RecentWindow defines "recently updated" for update statistics.
	RecentWindow time.Duration

	// NeedsUpdateAfter defines "needs update" for update statistics.
	NeedsUpdateAfter time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchDelay:       2 * time.Second,
		StaleAfter:       30 * 24 * time.Hour,
		RecentWindow:     24 * time.Hour,
		NeedsUpdateAfter: 7 * 24 * time.Hour,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// Service is the profile updater.
type Service struct {
	trackers tracker.Repository
	clients  platforms.Registry
	config   Config
	logger   *slog.Logger
}

// NewService creates an updater service.
func NewService(trackers tracker.Repository, clients platforms.Registry, config Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		trackers: trackers,
		clients:  clients,
		config:   config,
		logger:   logger,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SINGLE-PROFILE UPDATE
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfile refreshes one user's tracker from every enabled platform.
//
// A platform returning no data leaves that platform's previously known
// stats untouched; only when at least one platform yielded fresh data are
// the scores recomputed and persisted. Zero reachable platforms is not an
// error: the tracker is returned unchanged.
func (s *Service) UpdateProfile(ctx context.Context, userID string) (*tracker.Tracker, error) {
	t, err := s.trackers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, tracker.ErrTrackerNotFound
	}

	updated := 0
	for _, platform := range t.ActivePlatforms {
		username := t.Usernames.Get(platform)
		if username == "" {
			continue
		}
		client, ok := s.clients[platform]
		if !ok {
			continue
		}

		result, err := client.Fetch(ctx, username)
		if err != nil {
			// Scoped to this platform's attempt only; the rest of the
			// user's update proceeds on whatever data we already hold.
			s.logger.Warn("platform fetch failed",
				"user_id", userID,
				"platform", platform.String(),
				"error", err,
			)
			continue
		}
		if result == nil {
			s.logger.Info("platform returned no data",
				"user_id", userID,
				"platform", platform.String(),
				"username", username,
			)
			continue
		}

		result.ApplyTo(t)
		updated++
	}

	if updated > 0 {
		t.ComputeScores()
		t.UpdatedAt = time.Now().UTC()
		if err := s.trackers.Update(ctx, t); err != nil {
			return nil, fmt.Errorf("persist updated tracker: %w", err)
		}
		s.logger.Info("profile updated",
			"user_id", userID,
			"platforms_updated", updated,
			"performance_score", t.PerformanceScore,
		)
	}

	return t, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BATCH UPDATES
// ══════════════════════════════════════════════════════════════════════════════

// BatchResult accumulates the outcome of a batch run.
type BatchResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// UpdateAll refreshes every active tracker.
func (s *Service) UpdateAll(ctx context.Context) (BatchResult, error) {
	return s.updateBatch(ctx, "")
}

// UpdateCohort refreshes every active tracker in the given cohort.
func (s *Service) UpdateCohort(ctx context.Context, cohort string) (BatchResult, error) {
	return s.updateBatch(ctx, cohort)
}

// updateBatch iterates trackers sequentially with a delay between users.
// One user's failure never aborts the batch.
func (s *Service) updateBatch(ctx context.Context, cohort string) (BatchResult, error) {
	trackers, err := s.trackers.ListActive(ctx, tracker.ListOptions{Cohort: cohort})
	if err != nil {
		return BatchResult{}, fmt.Errorf("list active trackers: %w", err)
	}

	result := BatchResult{Total: len(trackers)}
	for i, t := range trackers {
		if _, err := s.UpdateProfile(ctx, t.UserID); err != nil {
			result.Failed++
			s.logger.Warn("batch update failed for user",
				"user_id", t.UserID,
				"error", err,
			)
		} else {
			result.Success++
		}

		// The delay keeps the hub under the upstream platforms' shared
		// rate limits; skipped after the last user.
		if s.config.BatchDelay > 0 && i < len(trackers)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(s.config.BatchDelay):
			}
		}
	}

	s.logger.Info("batch update completed",
		"cohort", cohort,
		"success", result.Success,
		"failed", result.Failed,
		"total", result.Total,
	)
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CLEANUP
// ══════════════════════════════════════════════════════════════════════════════

// DeactivateStale soft-deactivates trackers untouched for longer than the
// configured staleness window. Returns the number deactivated.
func (s *Service) DeactivateStale(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.config.StaleAfter)
	stale, err := s.trackers.FindStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find stale trackers: %w", err)
	}

	deactivated := 0
	for _, t := range stale {
		t.Deactivate()
		if err := s.trackers.Update(ctx, t); err != nil {
			s.logger.Warn("failed to deactivate stale tracker",
				"user_id", t.UserID,
				"error", err,
			)
			continue
		}
		deactivated++
	}

	if deactivated > 0 {
		s.logger.Info("stale trackers deactivated", "count", deactivated)
	}
	return deactivated, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE CONNECTION
// ══════════════════════════════════════════════════════════════════════════════

// ConnectOrUpdateProfile creates a tracker for the user when absent, or
// updates the usernames of the existing one. Active platforms are derived
// from which usernames are non-empty.
func (s *Service) ConnectOrUpdateProfile(ctx context.Context, userID string, usernames tracker.Usernames, cohort string) (*tracker.Tracker, error) {
	if err := tracker.ValidateUsernames(usernames); err != nil {
		return nil, err
	}

	t, err := s.trackers.GetByUserID(ctx, userID)
	if errors.Is(err, tracker.ErrTrackerNotFound) {
		t = tracker.NewTracker(userID, usernames)
		t.Cohort = cohort
		if err := s.trackers.Create(ctx, t); err != nil {
			return nil, fmt.Errorf("create tracker: %w", err)
		}
		s.logger.Info("tracker created", "user_id", userID, "platforms", len(t.ActivePlatforms))
		return t, nil
	}
	if err != nil {
		return nil, err
	}

	t.SetUsernames(usernames)
	if cohort != "" {
		t.Cohort = cohort
	}
	t.Activate()
	if err := s.trackers.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update tracker: %w", err)
	}
	return t, nil
}

// Profile returns the user's tracker as stored.
func (s *Service) Profile(ctx context.Context, userID string) (*tracker.Tracker, error) {
	return s.trackers.GetByUserID(ctx, userID)
}

// DisconnectProfile soft-deactivates the user's tracker. The record and
// its history survive; reconnecting reactivates it.
func (s *Service) DisconnectProfile(ctx context.Context, userID string) error {
	t, err := s.trackers.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	t.Deactivate()
	if err := s.trackers.Update(ctx, t); err != nil {
		return fmt.Errorf("deactivate tracker: %w", err)
	}
	s.logger.Info("tracker disconnected", "user_id", userID)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MANUAL REFRESH
// ══════════════════════════════════════════════════════════════════════════════

// RefreshProfile is the user-initiated refresh path, gated by the 24-hour
// cooldown. On rejection it returns a RateLimitedError carrying the ceiling
// of hours remaining. On success the cooldown stamp is persisted before the
// update runs, so a refresh that reaches zero platforms still consumes the
// attempt.
func (s *Service) RefreshProfile(ctx context.Context, userID string) (*tracker.Tracker, error) {
	t, err := s.trackers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	allowed, hoursRemaining := t.CanUserRefresh(now)
	if !allowed {
		return nil, &tracker.RateLimitedError{HoursRemaining: hoursRemaining}
	}

	t.StampUserRefresh(now)
	if err := s.trackers.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("persist refresh stamp: %w", err)
	}

	return s.UpdateProfile(ctx, userID)
}

// AdminRefreshProfile is the ungated administrative refresh path.
func (s *Service) AdminRefreshProfile(ctx context.Context, userID string) (*tracker.Tracker, error) {
	return s.UpdateProfile(ctx, userID)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// Statistics summarizes the state of the tracker population.
type Statistics struct {
	TotalProfiles   int `json:"totalProfiles"`
	ActiveProfiles  int `json:"activeProfiles"`
	RecentlyUpdated int `json:"recentlyUpdated"`
	NeedsUpdate     int `json:"needsUpdate"`
}

// UpdateStatistics reports how fresh the tracker population is.
func (s *Service) UpdateStatistics(ctx context.Context) (Statistics, error) {
	now := time.Now().UTC()

	total, err := s.trackers.Count(ctx)
	if err != nil {
		return Statistics{}, fmt.Errorf("count trackers: %w", err)
	}
	active, err := s.trackers.CountActive(ctx, "")
	if err != nil {
		return Statistics{}, fmt.Errorf("count active trackers: %w", err)
	}
	recent, err := s.trackers.CountUpdatedSince(ctx, now.Add(-s.config.RecentWindow))
	if err != nil {
		return Statistics{}, fmt.Errorf("count recently updated: %w", err)
	}
	fresh, err := s.trackers.CountUpdatedSince(ctx, now.Add(-s.config.NeedsUpdateAfter))
	if err != nil {
		return Statistics{}, fmt.Errorf("count fresh trackers: %w", err)
	}

	return Statistics{
		TotalProfiles:   total,
		ActiveProfiles:  active,
		RecentlyUpdated: recent,
		NeedsUpdate:     active - fresh,
	}, nil
}
