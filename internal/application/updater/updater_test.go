package updater

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
	"github.com/cptrack/cptrack-hub/internal/infrastructure/external/platforms"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeRepo struct {
	trackers map[string]*tracker.Tracker
	updates  int
	failNext error
}

func newFakeRepo(trackers ...*tracker.Tracker) *fakeRepo {
	r := &fakeRepo{trackers: make(map[string]*tracker.Tracker)}
	for _, t := range trackers {
		r.trackers[t.UserID] = t
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, t *tracker.Tracker) error {
	if _, ok := r.trackers[t.UserID]; ok {
		return tracker.ErrTrackerAlreadyExists
	}
	r.trackers[t.UserID] = t
	return nil
}

func (r *fakeRepo) GetByUserID(_ context.Context, userID string) (*tracker.Tracker, error) {
	t, ok := r.trackers[userID]
	if !ok {
		return nil, tracker.ErrTrackerNotFound
	}
	return t, nil
}

func (r *fakeRepo) Update(_ context.Context, t *tracker.Tracker) error {
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if _, ok := r.trackers[t.UserID]; !ok {
		return tracker.ErrTrackerNotFound
	}
	r.trackers[t.UserID] = t
	r.updates++
	return nil
}

func (r *fakeRepo) ListActive(_ context.Context, opts tracker.ListOptions) ([]*tracker.Tracker, error) {
	var out []*tracker.Tracker
	for _, t := range r.trackers {
		if !t.IsActive {
			continue
		}
		if opts.Cohort != "" && t.Cohort != opts.Cohort {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeRepo) CountActive(_ context.Context, cohort string) (int, error) {
	n := 0
	for _, t := range r.trackers {
		if t.IsActive && (cohort == "" || t.Cohort == cohort) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) Count(_ context.Context) (int, error) {
	return len(r.trackers), nil
}

func (r *fakeRepo) CountUpdatedSince(_ context.Context, since time.Time) (int, error) {
	n := 0
	for _, t := range r.trackers {
		if t.IsActive && !t.UpdatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) FindStale(_ context.Context, olderThan time.Time) ([]*tracker.Tracker, error) {
	var out []*tracker.Tracker
	for _, t := range r.trackers {
		if t.IsActive && t.UpdatedAt.Before(olderThan) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeClient struct {
	platform tracker.Platform
	result   *platforms.Result
	err      error
	calls    int
}

func (c *fakeClient) Platform() tracker.Platform { return c.platform }

func (c *fakeClient) Fetch(_ context.Context, _ string) (*platforms.Result, error) {
	c.calls++
	return c.result, c.err
}

func leetcodeClient(stats *tracker.LeetCodeStats, err error) *fakeClient {
	var result *platforms.Result
	if stats != nil {
		result = &platforms.Result{Platform: tracker.PlatformLeetCode, LeetCode: stats}
	}
	return &fakeClient{platform: tracker.PlatformLeetCode, result: result, err: err}
}

func codeforcesClient(stats *tracker.CodeForcesStats, err error) *fakeClient {
	var result *platforms.Result
	if stats != nil {
		result = &platforms.Result{Platform: tracker.PlatformCodeForces, CodeForces: stats}
	}
	return &fakeClient{platform: tracker.PlatformCodeForces, result: result, err: err}
}

func newService(repo *fakeRepo, clients platforms.Registry) *Service {
	cfg := DefaultConfig()
	cfg.BatchDelay = 0
	return NewService(repo, clients, cfg, nil)
}

// ─────────────────────────────────────────────────────────────────────────────
// Single-profile update
// ─────────────────────────────────────────────────────────────────────────────

func TestUpdateProfile_MergesFreshStatsAndRecomputesScores(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "alice", CodeForces: "alice_cf"})
	repo := newFakeRepo(tr)

	clients := platforms.Registry{
		tracker.PlatformLeetCode:   leetcodeClient(&tracker.LeetCodeStats{TotalSolved: 50, PracticeSolved: 50}, nil),
		tracker.PlatformCodeForces: codeforcesClient(&tracker.CodeForcesStats{Rating: 1200, Contests: 2}, nil),
	}

	updated, err := newService(repo, clients).UpdateProfile(context.Background(), "user1")
	require.NoError(t, err)

	assert.Equal(t, 50, updated.LeetCode.TotalSolved)
	assert.Equal(t, 1200, updated.CodeForces.Rating)
	assert.Equal(t, 100.0, updated.LeetCodeScore)
	assert.Equal(t, 1230.0, updated.CodeForcesScore)
	assert.Equal(t, 1330.0, updated.PerformanceScore)
	assert.Equal(t, 1, repo.updates)
}

func TestUpdateProfile_PartialFailureKeepsOldStats(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "alice", CodeForces: "alice_cf"})
	tr.CodeForces = tracker.CodeForcesStats{Rating: 1500, Contests: 10}
	repo := newFakeRepo(tr)

	clients := platforms.Registry{
		tracker.PlatformLeetCode:   leetcodeClient(&tracker.LeetCodeStats{TotalSolved: 10}, nil),
		tracker.PlatformCodeForces: codeforcesClient(nil, errors.New("upstream down")),
	}

	updated, err := newService(repo, clients).UpdateProfile(context.Background(), "user1")
	require.NoError(t, err)

	// Fresh LeetCode data applied, stale CodeForces data preserved.
	assert.Equal(t, 10, updated.LeetCode.TotalSolved)
	assert.Equal(t, 1500, updated.CodeForces.Rating)
	assert.Equal(t, 10, updated.CodeForces.Contests)
}

func TestUpdateProfile_AllPlatformsUnreachable_NoPersist(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "alice"})
	repo := newFakeRepo(tr)

	clients := platforms.Registry{
		tracker.PlatformLeetCode: leetcodeClient(nil, nil),
	}

	_, err := newService(repo, clients).UpdateProfile(context.Background(), "user1")
	require.NoError(t, err)
	assert.Zero(t, repo.updates)
}

func TestUpdateProfile_InactiveTrackerNotFound(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "alice"})
	tr.Deactivate()
	repo := newFakeRepo(tr)

	_, err := newService(repo, platforms.Registry{}).UpdateProfile(context.Background(), "user1")
	assert.ErrorIs(t, err, tracker.ErrTrackerNotFound)
}

func TestUpdateProfile_SkipsPlatformsWithoutUsername(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "alice"})
	repo := newFakeRepo(tr)

	cf := codeforcesClient(&tracker.CodeForcesStats{Rating: 9999}, nil)
	clients := platforms.Registry{
		tracker.PlatformLeetCode:   leetcodeClient(&tracker.LeetCodeStats{TotalSolved: 1}, nil),
		tracker.PlatformCodeForces: cf,
	}

	_, err := newService(repo, clients).UpdateProfile(context.Background(), "user1")
	require.NoError(t, err)
	assert.Zero(t, cf.calls)
}

// ─────────────────────────────────────────────────────────────────────────────
// Batch updates
// ─────────────────────────────────────────────────────────────────────────────

func TestUpdateAll_CountsSuccessAndFailure(t *testing.T) {
	ok := tracker.NewTracker("ok-user", tracker.Usernames{LeetCode: "alice"})
	broken := tracker.NewTracker("broken-user", tracker.Usernames{LeetCode: "bob"})
	repo := newFakeRepo(ok, broken)

	clients := platforms.Registry{
		tracker.PlatformLeetCode: leetcodeClient(&tracker.LeetCodeStats{TotalSolved: 5}, nil),
	}
	svc := newService(repo, clients)

	// Make persistence fail once; whichever user hits it first fails, the
	// batch continues.
	repo.failNext = errors.New("db down")

	result, err := svc.UpdateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Success)
	assert.Equal(t, 1, result.Failed)
}

func TestUpdateCohort_FiltersByCohort(t *testing.T) {
	in := tracker.NewTracker("in-user", tracker.Usernames{LeetCode: "alice"})
	in.Cohort = "2026"
	out := tracker.NewTracker("out-user", tracker.Usernames{LeetCode: "bob"})
	out.Cohort = "2025"
	repo := newFakeRepo(in, out)

	clients := platforms.Registry{
		tracker.PlatformLeetCode: leetcodeClient(&tracker.LeetCodeStats{TotalSolved: 5}, nil),
	}

	result, err := newService(repo, clients).UpdateCohort(context.Background(), "2026")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Success)
}

// ─────────────────────────────────────────────────────────────────────────────
// Connection and refresh
// ─────────────────────────────────────────────────────────────────────────────

func TestConnectOrUpdateProfile_CreatesTracker(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, platforms.Registry{})

	tr, err := svc.ConnectOrUpdateProfile(context.Background(), "user1", tracker.Usernames{LeetCode: "alice"}, "2026")
	require.NoError(t, err)
	assert.Equal(t, "2026", tr.Cohort)
	assert.True(t, tr.IsActive)
	assert.Len(t, repo.trackers, 1)
}

func TestConnectOrUpdateProfile_UpdatesExisting(t *testing.T) {
	existing := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "old"})
	existing.Deactivate()
	repo := newFakeRepo(existing)
	svc := newService(repo, platforms.Registry{})

	tr, err := svc.ConnectOrUpdateProfile(context.Background(), "user1", tracker.Usernames{LeetCode: "new"}, "")
	require.NoError(t, err)
	assert.Equal(t, "new", tr.Usernames.LeetCode)
	assert.True(t, tr.IsActive, "reconnecting reactivates the tracker")
}

func TestConnectOrUpdateProfile_RejectsInvalidUsername(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, platforms.Registry{})

	_, err := svc.ConnectOrUpdateProfile(context.Background(), "user1", tracker.Usernames{CodeChef: "Bad Name"}, "")
	var validationErr *tracker.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Empty(t, repo.trackers)
}

func TestRefreshProfile_RateLimitedWithinCooldown(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "alice"})
	tr.StampUserRefresh(time.Now().UTC().Add(-23 * time.Hour))
	repo := newFakeRepo(tr)
	svc := newService(repo, platforms.Registry{})

	_, err := svc.RefreshProfile(context.Background(), "user1")

	var rateLimited *tracker.RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 1, rateLimited.HoursRemaining)
}

func TestRefreshProfile_AllowedAfterCooldown(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "alice"})
	tr.StampUserRefresh(time.Now().UTC().Add(-25 * time.Hour))
	repo := newFakeRepo(tr)

	clients := platforms.Registry{
		tracker.PlatformLeetCode: leetcodeClient(&tracker.LeetCodeStats{TotalSolved: 3}, nil),
	}

	updated, err := newService(repo, clients).RefreshProfile(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, 3, updated.LeetCode.TotalSolved)
	assert.WithinDuration(t, time.Now().UTC(), *updated.LastUserRefreshAt, time.Minute)
}

func TestRefreshProfile_StampConsumedEvenWhenNoPlatformData(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "alice"})
	repo := newFakeRepo(tr)

	clients := platforms.Registry{
		tracker.PlatformLeetCode: leetcodeClient(nil, nil),
	}
	svc := newService(repo, clients)

	_, err := svc.RefreshProfile(context.Background(), "user1")
	require.NoError(t, err)

	// Second attempt right away must hit the cooldown.
	_, err = svc.RefreshProfile(context.Background(), "user1")
	var rateLimited *tracker.RateLimitedError
	assert.ErrorAs(t, err, &rateLimited)
}

func TestAdminRefreshProfile_BypassesCooldown(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "alice"})
	tr.StampUserRefresh(time.Now().UTC())
	repo := newFakeRepo(tr)

	clients := platforms.Registry{
		tracker.PlatformLeetCode: leetcodeClient(&tracker.LeetCodeStats{TotalSolved: 7}, nil),
	}

	updated, err := newService(repo, clients).AdminRefreshProfile(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, 7, updated.LeetCode.TotalSolved)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cleanup and statistics
// ─────────────────────────────────────────────────────────────────────────────

func TestDeactivateStale(t *testing.T) {
	stale := tracker.NewTracker("stale-user", tracker.Usernames{LeetCode: "alice"})
	stale.UpdatedAt = time.Now().UTC().Add(-40 * 24 * time.Hour)
	fresh := tracker.NewTracker("fresh-user", tracker.Usernames{LeetCode: "bob"})
	repo := newFakeRepo(stale, fresh)

	count, err := newService(repo, platforms.Registry{}).DeactivateStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, repo.trackers["stale-user"].IsActive)
	assert.True(t, repo.trackers["fresh-user"].IsActive)
}

func TestUpdateStatistics(t *testing.T) {
	recent := tracker.NewTracker("recent-user", tracker.Usernames{LeetCode: "alice"})
	aging := tracker.NewTracker("aging-user", tracker.Usernames{LeetCode: "bob"})
	aging.UpdatedAt = time.Now().UTC().Add(-10 * 24 * time.Hour)
	inactive := tracker.NewTracker("inactive-user", tracker.Usernames{LeetCode: "carol"})
	inactive.Deactivate()
	repo := newFakeRepo(recent, aging, inactive)

	stats, err := newService(repo, platforms.Registry{}).UpdateStatistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalProfiles)
	assert.Equal(t, 2, stats.ActiveProfiles)
	assert.Equal(t, 1, stats.RecentlyUpdated)
	assert.Equal(t, 1, stats.NeedsUpdate)
}

func TestDisconnectProfile(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "alice"})
	repo := newFakeRepo(tr)
	svc := newService(repo, platforms.Registry{})

	require.NoError(t, svc.DisconnectProfile(context.Background(), "user1"))
	assert.False(t, repo.trackers["user1"].IsActive)
}
