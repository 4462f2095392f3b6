package tracker

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// EDIT REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

// EditRequestStatus is the lifecycle state of an edit request.
type EditRequestStatus string

const (
	EditRequestPending  EditRequestStatus = "pending"
	EditRequestApproved EditRequestStatus = "approved"
	EditRequestRejected EditRequestStatus = "rejected"
)

// EditRequest represents a pending change to a tracker's usernames that
// requires administrator approval. Approval mutates the tracker; rejection
// leaves it untouched.
type EditRequest struct {
	ID     string
	UserID string

	CurrentUsernames   Usernames
	RequestedUsernames Usernames
	Reason             string

	Status     EditRequestStatus
	ReviewedBy *string
	ReviewNote string
	ReviewedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEditRequest creates a pending edit request.
// The requested usernames must pass platform format validation.
func NewEditRequest(userID string, current, requested Usernames, reason string) (*EditRequest, error) {
	if err := ValidateUsernames(requested); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &EditRequest{
		ID:                 uuid.NewString(),
		UserID:             userID,
		CurrentUsernames:   current,
		RequestedUsernames: requested,
		Reason:             reason,
		Status:             EditRequestPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Approve marks the request approved by the given reviewer.
// The caller is responsible for applying RequestedUsernames to the tracker.
func (r *EditRequest) Approve(reviewerID, note string) error {
	if r.Status != EditRequestPending {
		return ErrEditRequestClosed
	}
	now := time.Now().UTC()
	r.Status = EditRequestApproved
	r.ReviewedBy = &reviewerID
	r.ReviewNote = note
	r.ReviewedAt = &now
	r.UpdatedAt = now
	return nil
}

// Reject marks the request rejected by the given reviewer.
func (r *EditRequest) Reject(reviewerID, note string) error {
	if r.Status != EditRequestPending {
		return ErrEditRequestClosed
	}
	now := time.Now().UTC()
	r.Status = EditRequestRejected
	r.ReviewedBy = &reviewerID
	r.ReviewNote = note
	r.ReviewedAt = &now
	r.UpdatedAt = now
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// USERNAME VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// Per-platform handle formats. These mirror what the platforms themselves
// accept at registration time; scraping with an invalid handle only wastes
// a request, so malformed handles are rejected up front.
var usernamePatterns = map[Platform]*regexp.Regexp{
	PlatformLeetCode:   regexp.MustCompile(`^[A-Za-z0-9_-]{1,30}$`),
	PlatformCodeForces: regexp.MustCompile(`^[A-Za-z0-9._-]{3,24}$`),
	PlatformCodeChef:   regexp.MustCompile(`^[a-z][a-z0-9_]{2,19}$`),
	PlatformAtCoder:    regexp.MustCompile(`^[A-Za-z0-9_]{3,16}$`),
}

// ValidateUsername checks a single platform handle. Empty handles are valid:
// they mean the platform is not connected.
func ValidateUsername(p Platform, username string) error {
	if username == "" {
		return nil
	}
	pattern, ok := usernamePatterns[p]
	if !ok {
		return &ValidationError{Field: string(p), Reason: "unknown platform"}
	}
	if !pattern.MatchString(username) {
		return &ValidationError{Field: string(p), Reason: "invalid username format"}
	}
	return nil
}

// ValidateUsernames checks every non-empty handle in the set.
func ValidateUsernames(u Usernames) error {
	for _, p := range AllPlatforms {
		if err := ValidateUsername(p, u.Get(p)); err != nil {
			return err
		}
	}
	return nil
}
