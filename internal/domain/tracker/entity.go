// Package tracker contains the domain model for CPTrack Hub.
// A Tracker is the per-user record aggregating competitive-programming
// statistics from external platforms together with the derived scores
// used to rank users on the leaderboard.
package tracker

import (
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLATFORMS
// ══════════════════════════════════════════════════════════════════════════════

// Platform identifies one of the supported competitive-programming platforms.
type Platform string

const (
	PlatformLeetCode   Platform = "leetcode"
	PlatformCodeForces Platform = "codeforces"
	PlatformCodeChef   Platform = "codechef"
	PlatformAtCoder    Platform = "atcoder"
)

// AllPlatforms lists every supported platform in a stable order.
// The order matters for deterministic iteration during profile updates.
var AllPlatforms = []Platform{
	PlatformLeetCode,
	PlatformCodeForces,
	PlatformCodeChef,
	PlatformAtCoder,
}

// IsValid reports whether p is a known platform.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformLeetCode, PlatformCodeForces, PlatformCodeChef, PlatformAtCoder:
		return true
	}
	return false
}

// String returns the platform name.
func (p Platform) String() string {
	return string(p)
}

// ══════════════════════════════════════════════════════════════════════════════
// RAW PLATFORM STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// LeetCodeStats holds raw statistics fetched from LeetCode.
type LeetCodeStats struct {
	EasySolved     int
	MediumSolved   int
	HardSolved     int
	TotalSolved    int
	ContestSolved  int
	PracticeSolved int

	ContestsAttended int
	CurrentRating    float64
	HighestRating    float64

	LastContestName string
	LastContestAt   *time.Time
}

// CodeForcesStats holds raw statistics fetched from CodeForces.
type CodeForcesStats struct {
	Rating         int
	MaxRating      int
	Rank           string
	Contests       int
	ProblemsSolved int
}

// CodeChefStats holds raw statistics scraped from CodeChef.
type CodeChefStats struct {
	Rating         int
	HighestRating  int
	Stars          int
	Contests       int
	ProblemsSolved int
}

// AtCoderStats holds raw statistics fetched from AtCoder.
type AtCoderStats struct {
	Rating         int
	MaxRating      int
	Color          string
	Contests       int
	ProblemsSolved int
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACKER ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Usernames holds the per-platform handles supplied by the user.
// An empty string means the platform is not connected.
type Usernames struct {
	LeetCode   string
	CodeForces string
	CodeChef   string
	AtCoder    string
}

// Get returns the username for a platform.
func (u Usernames) Get(p Platform) string {
	switch p {
	case PlatformLeetCode:
		return u.LeetCode
	case PlatformCodeForces:
		return u.CodeForces
	case PlatformCodeChef:
		return u.CodeChef
	case PlatformAtCoder:
		return u.AtCoder
	}
	return ""
}

// Set sets the username for a platform.
func (u *Usernames) Set(p Platform, username string) {
	switch p {
	case PlatformLeetCode:
		u.LeetCode = username
	case PlatformCodeForces:
		u.CodeForces = username
	case PlatformCodeChef:
		u.CodeChef = username
	case PlatformAtCoder:
		u.AtCoder = username
	}
}

// ActivePlatforms derives the set of platforms that have a username.
func (u Usernames) ActivePlatforms() []Platform {
	platforms := make([]Platform, 0, len(AllPlatforms))
	for _, p := range AllPlatforms {
		if u.Get(p) != "" {
			platforms = append(platforms, p)
		}
	}
	return platforms
}

// Tracker aggregates a user's competitive-programming presence.
// Exactly one Tracker exists per user; raw per-platform statistics are
// independently zero-defaulted and the score fields are derived, never
// edited directly.
type Tracker struct {
	ID     string
	UserID string

	Usernames Usernames

	LeetCode   LeetCodeStats
	CodeForces CodeForcesStats
	CodeChef   CodeChefStats
	AtCoder    AtCoderStats

	// Derived scores, recomputed on every update via ComputeScores.
	LeetCodeScore    float64
	CodeForcesScore  float64
	CodeChefScore    float64
	AtCoderScore     float64
	PerformanceScore float64

	ActivePlatforms []Platform
	IsActive        bool
	Cohort          string

	CreatedAt time.Time
	UpdatedAt time.Time

	// LastUserRefreshAt is the instant of the last user-initiated manual
	// refresh. It only exists to enforce the 24-hour cooldown.
	LastUserRefreshAt *time.Time
}

// NewTracker creates an active Tracker for a user with the given usernames.
func NewTracker(userID string, usernames Usernames) *Tracker {
	now := time.Now().UTC()
	return &Tracker{
		ID:              uuid.NewString(),
		UserID:          userID,
		Usernames:       usernames,
		ActivePlatforms: usernames.ActivePlatforms(),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// HasPlatform reports whether the platform is enabled for this tracker.
func (t *Tracker) HasPlatform(p Platform) bool {
	for _, active := range t.ActivePlatforms {
		if active == p {
			return true
		}
	}
	return false
}

// SetUsernames replaces the usernames and re-derives the active platforms.
func (t *Tracker) SetUsernames(usernames Usernames) {
	t.Usernames = usernames
	t.ActivePlatforms = usernames.ActivePlatforms()
	t.UpdatedAt = time.Now().UTC()
}

// Deactivate soft-deletes the tracker. Inactive trackers are excluded from
// batch updates and the leaderboard; data is never hard-deleted.
func (t *Tracker) Deactivate() {
	t.IsActive = false
	t.UpdatedAt = time.Now().UTC()
}

// Activate re-enables a previously deactivated tracker.
func (t *Tracker) Activate() {
	t.IsActive = true
	t.UpdatedAt = time.Now().UTC()
}

// ManualRefreshCooldown is the minimum interval between user-initiated refreshes.
const ManualRefreshCooldown = 24 * time.Hour

// CanUserRefresh reports whether a manual refresh is allowed at the given
// time. When it is not, hoursRemaining carries the ceiling of the wait left.
func (t *Tracker) CanUserRefresh(now time.Time) (allowed bool, hoursRemaining int) {
	if t.LastUserRefreshAt == nil {
		return true, 0
	}
	elapsed := now.Sub(*t.LastUserRefreshAt)
	if elapsed >= ManualRefreshCooldown {
		return true, 0
	}
	remaining := ManualRefreshCooldown - elapsed
	hours := int(remaining / time.Hour)
	if remaining%time.Hour > 0 {
		hours++
	}
	return false, hours
}

// StampUserRefresh records the instant of a user-initiated refresh.
func (t *Tracker) StampUserRefresh(now time.Time) {
	at := now
	t.LastUserRefreshAt = &at
}
