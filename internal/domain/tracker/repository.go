package tracker

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ListOptions controls pagination and filtering for list queries.
type ListOptions struct {
	// Limit is the maximum number of records to return (0 = no limit).
	Limit int

	// Offset is the number of records to skip.
	Offset int

	// Cohort filters by cohort when non-empty.
	Cohort string
}

// Repository defines persistence operations for trackers.
type Repository interface {
	// Create stores a new tracker.
	// Returns ErrTrackerAlreadyExists when the user already has one.
	Create(ctx context.Context, t *Tracker) error

	// GetByUserID returns the tracker owned by the given user.
	// Returns ErrTrackerNotFound when absent.
	GetByUserID(ctx context.Context, userID string) (*Tracker, error)

	// Update persists all mutable tracker fields.
	// Returns ErrTrackerNotFound when absent.
	Update(ctx context.Context, t *Tracker) error

	// ListActive returns active trackers ordered by performance score
	// descending, ties broken by earliest creation time.
	ListActive(ctx context.Context, opts ListOptions) ([]*Tracker, error)

	// CountActive returns the number of active trackers, optionally
	// filtered by cohort.
	CountActive(ctx context.Context, cohort string) (int, error)

	// Count returns the total number of trackers, active or not.
	Count(ctx context.Context) (int, error)

	// CountUpdatedSince returns the number of active trackers updated at or
	// after the given time.
	CountUpdatedSince(ctx context.Context, since time.Time) (int, error)

	// FindStale returns active trackers not updated since the given time.
	FindStale(ctx context.Context, olderThan time.Time) ([]*Tracker, error)
}

// EditRequestRepository defines persistence operations for edit requests.
type EditRequestRepository interface {
	// Create stores a new edit request.
	// Returns ErrPendingEditRequest when the user already has a pending one.
	Create(ctx context.Context, r *EditRequest) error

	// GetByID returns an edit request by ID.
	// Returns ErrEditRequestNotFound when absent.
	GetByID(ctx context.Context, id string) (*EditRequest, error)

	// GetPendingByUserID returns the user's pending request, if any.
	// Returns ErrEditRequestNotFound when absent.
	GetPendingByUserID(ctx context.Context, userID string) (*EditRequest, error)

	// ListByStatus returns edit requests with the given status, newest first.
	ListByStatus(ctx context.Context, status EditRequestStatus, opts ListOptions) ([]*EditRequest, error)

	// Update persists review state changes.
	// Returns ErrEditRequestNotFound when absent.
	Update(ctx context.Context, r *EditRequest) error
}
