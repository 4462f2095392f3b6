package tracker

import (
	"errors"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrTrackerNotFound is returned when no tracker exists for a user.
	ErrTrackerNotFound = errors.New("tracker not found")

	// ErrTrackerAlreadyExists is returned when creating a tracker for a user
	// that already has one.
	ErrTrackerAlreadyExists = errors.New("tracker already exists")

	// ErrEditRequestNotFound is returned when an edit request does not exist.
	ErrEditRequestNotFound = errors.New("edit request not found")

	// ErrPendingEditRequest is returned when a user already has a pending
	// edit request; at most one may be open at a time.
	ErrPendingEditRequest = errors.New("a pending edit request already exists")

	// ErrEditRequestClosed is returned when reviewing an already reviewed request.
	ErrEditRequestClosed = errors.New("edit request has already been reviewed")
)

// RateLimitedError is returned when a manual refresh is attempted within the
// 24-hour cooldown window.
type RateLimitedError struct {
	HoursRemaining int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("manual refresh rate limited: try again in %d hour(s)", e.HoursRemaining)
}

// ValidationError indicates malformed input, such as a username failing a
// platform's format rules.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}
