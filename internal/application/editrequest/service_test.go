package editrequest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeTrackerRepo struct {
	trackers map[string]*tracker.Tracker
}

func (r *fakeTrackerRepo) Create(_ context.Context, t *tracker.Tracker) error {
	r.trackers[t.UserID] = t
	return nil
}

func (r *fakeTrackerRepo) GetByUserID(_ context.Context, userID string) (*tracker.Tracker, error) {
	t, ok := r.trackers[userID]
	if !ok {
		return nil, tracker.ErrTrackerNotFound
	}
	return t, nil
}

func (r *fakeTrackerRepo) Update(_ context.Context, t *tracker.Tracker) error {
	r.trackers[t.UserID] = t
	return nil
}

func (r *fakeTrackerRepo) ListActive(context.Context, tracker.ListOptions) ([]*tracker.Tracker, error) {
	return nil, nil
}

func (r *fakeTrackerRepo) CountActive(context.Context, string) (int, error) { return 0, nil }
func (r *fakeTrackerRepo) Count(context.Context) (int, error)               { return 0, nil }

func (r *fakeTrackerRepo) CountUpdatedSince(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (r *fakeTrackerRepo) FindStale(context.Context, time.Time) ([]*tracker.Tracker, error) {
	return nil, nil
}

type fakeRequestRepo struct {
	requests map[string]*tracker.EditRequest
}

func (r *fakeRequestRepo) Create(_ context.Context, req *tracker.EditRequest) error {
	for _, existing := range r.requests {
		if existing.UserID == req.UserID && existing.Status == tracker.EditRequestPending {
			return tracker.ErrPendingEditRequest
		}
	}
	r.requests[req.ID] = req
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id string) (*tracker.EditRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, tracker.ErrEditRequestNotFound
	}
	return req, nil
}

func (r *fakeRequestRepo) GetPendingByUserID(_ context.Context, userID string) (*tracker.EditRequest, error) {
	for _, req := range r.requests {
		if req.UserID == userID && req.Status == tracker.EditRequestPending {
			return req, nil
		}
	}
	return nil, tracker.ErrEditRequestNotFound
}

func (r *fakeRequestRepo) ListByStatus(_ context.Context, status tracker.EditRequestStatus, _ tracker.ListOptions) ([]*tracker.EditRequest, error) {
	var out []*tracker.EditRequest
	for _, req := range r.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) Update(_ context.Context, req *tracker.EditRequest) error {
	r.requests[req.ID] = req
	return nil
}

func setup(trackers ...*tracker.Tracker) (*Service, *fakeTrackerRepo, *fakeRequestRepo) {
	trackerRepo := &fakeTrackerRepo{trackers: make(map[string]*tracker.Tracker)}
	for _, t := range trackers {
		trackerRepo.trackers[t.UserID] = t
	}
	requestRepo := &fakeRequestRepo{requests: make(map[string]*tracker.EditRequest)}
	return NewService(trackerRepo, requestRepo, nil), trackerRepo, requestRepo
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestSubmit_CreatesPendingRequest(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "old"})
	svc, _, requests := setup(tr)

	req, err := svc.Submit(context.Background(), "user1", tracker.Usernames{LeetCode: "new"}, "renamed")
	require.NoError(t, err)

	assert.Equal(t, tracker.EditRequestPending, req.Status)
	assert.Equal(t, "old", req.CurrentUsernames.LeetCode)
	assert.Equal(t, "new", req.RequestedUsernames.LeetCode)
	assert.Len(t, requests.requests, 1)
}

func TestSubmit_NoTracker(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Submit(context.Background(), "ghost", tracker.Usernames{LeetCode: "new"}, "")
	assert.ErrorIs(t, err, tracker.ErrTrackerNotFound)
}

func TestSubmit_SecondPendingRejected(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "old"})
	svc, _, _ := setup(tr)

	_, err := svc.Submit(context.Background(), "user1", tracker.Usernames{LeetCode: "first"}, "")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "user1", tracker.Usernames{LeetCode: "second"}, "")
	assert.ErrorIs(t, err, tracker.ErrPendingEditRequest)
}

func TestSubmit_InvalidUsername(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "old"})
	svc, _, _ := setup(tr)

	_, err := svc.Submit(context.Background(), "user1", tracker.Usernames{CodeChef: "Invalid Name"}, "")
	var validationErr *tracker.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestApprove_AppliesUsernames(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "old"})
	svc, trackers, _ := setup(tr)

	req, err := svc.Submit(context.Background(), "user1", tracker.Usernames{LeetCode: "new", AtCoder: "new_ac"}, "")
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), req.ID, "admin1", "verified")
	require.NoError(t, err)
	assert.Equal(t, tracker.EditRequestApproved, approved.Status)

	updated := trackers.trackers["user1"]
	assert.Equal(t, "new", updated.Usernames.LeetCode)
	assert.True(t, updated.HasPlatform(tracker.PlatformAtCoder))
}

func TestReject_LeavesTrackerUntouched(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "old"})
	svc, trackers, _ := setup(tr)

	req, err := svc.Submit(context.Background(), "user1", tracker.Usernames{LeetCode: "new"}, "")
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), req.ID, "admin1", "account not found")
	require.NoError(t, err)
	assert.Equal(t, tracker.EditRequestRejected, rejected.Status)
	assert.Equal(t, "old", trackers.trackers["user1"].Usernames.LeetCode)
}

func TestApprove_AlreadyReviewed(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "old"})
	svc, _, _ := setup(tr)

	req, err := svc.Submit(context.Background(), "user1", tracker.Usernames{LeetCode: "new"}, "")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, "admin1", "")
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, "admin2", "")
	assert.ErrorIs(t, err, tracker.ErrEditRequestClosed)
}

func TestApprove_UnknownRequest(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Approve(context.Background(), "missing", "admin1", "")
	assert.ErrorIs(t, err, tracker.ErrEditRequestNotFound)
}

func TestSubmit_AllowedAfterPreviousResolved(t *testing.T) {
	tr := tracker.NewTracker("user1", tracker.Usernames{LeetCode: "old"})
	svc, _, _ := setup(tr)

	req, err := svc.Submit(context.Background(), "user1", tracker.Usernames{LeetCode: "first"}, "")
	require.NoError(t, err)
	_, err = svc.Reject(context.Background(), req.ID, "admin1", "")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), "user1", tracker.Usernames{LeetCode: "second"}, "")
	assert.NoError(t, err)
}
