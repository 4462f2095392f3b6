package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTracker(t *testing.T) {
	tr := NewTracker("user1", Usernames{LeetCode: "alice", AtCoder: "alice_ac"})

	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, "user1", tr.UserID)
	assert.True(t, tr.IsActive)
	assert.Equal(t, []Platform{PlatformLeetCode, PlatformAtCoder}, tr.ActivePlatforms)
	assert.Nil(t, tr.LastUserRefreshAt)
}

func TestUsernames_ActivePlatforms_Empty(t *testing.T) {
	var u Usernames
	assert.Empty(t, u.ActivePlatforms())
}

func TestTracker_HasPlatform(t *testing.T) {
	tr := NewTracker("user1", Usernames{CodeForces: "bob"})

	assert.True(t, tr.HasPlatform(PlatformCodeForces))
	assert.False(t, tr.HasPlatform(PlatformLeetCode))
}

func TestTracker_SetUsernames_RederivesPlatforms(t *testing.T) {
	tr := NewTracker("user1", Usernames{LeetCode: "alice"})

	tr.SetUsernames(Usernames{CodeChef: "alice_cc", AtCoder: "alice_ac"})

	assert.False(t, tr.HasPlatform(PlatformLeetCode))
	assert.True(t, tr.HasPlatform(PlatformCodeChef))
	assert.True(t, tr.HasPlatform(PlatformAtCoder))
}

func TestTracker_DeactivateActivate(t *testing.T) {
	tr := NewTracker("user1", Usernames{LeetCode: "alice"})

	tr.Deactivate()
	assert.False(t, tr.IsActive)

	tr.Activate()
	assert.True(t, tr.IsActive)
}

func TestCanUserRefresh_NeverRefreshed(t *testing.T) {
	tr := NewTracker("user1", Usernames{LeetCode: "alice"})

	allowed, hours := tr.CanUserRefresh(time.Now().UTC())
	assert.True(t, allowed)
	assert.Equal(t, 0, hours)
}

func TestCanUserRefresh_WithinCooldown(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tr := NewTracker("user1", Usernames{LeetCode: "alice"})
	tr.StampUserRefresh(now.Add(-23 * time.Hour))

	allowed, hours := tr.CanUserRefresh(now)
	assert.False(t, allowed)
	assert.Equal(t, 1, hours)
}

func TestCanUserRefresh_PartialHourRoundsUp(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tr := NewTracker("user1", Usernames{LeetCode: "alice"})
	tr.StampUserRefresh(now.Add(-30 * time.Minute))

	allowed, hours := tr.CanUserRefresh(now)
	assert.False(t, allowed)
	assert.Equal(t, 24, hours)
}

func TestCanUserRefresh_CooldownExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tr := NewTracker("user1", Usernames{LeetCode: "alice"})
	tr.StampUserRefresh(now.Add(-25 * time.Hour))

	allowed, hours := tr.CanUserRefresh(now)
	assert.True(t, allowed)
	assert.Equal(t, 0, hours)
}

func TestCanUserRefresh_ExactBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tr := NewTracker("user1", Usernames{LeetCode: "alice"})
	tr.StampUserRefresh(now.Add(-ManualRefreshCooldown))

	allowed, _ := tr.CanUserRefresh(now)
	assert.True(t, allowed)
}
