// Package editrequest implements the approval flow for tracker username
// changes. Users submit a requested set of usernames with a reason; an
// administrator approves (which mutates the tracker) or rejects (which
// leaves it untouched). At most one request may be pending per user.
package editrequest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
)

// Service coordinates edit requests against the tracker store.
type Service struct {
	trackers tracker.Repository
	requests tracker.EditRequestRepository
	logger   *slog.Logger
}

// NewService creates an edit-request service.
func NewService(trackers tracker.Repository, requests tracker.EditRequestRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{trackers: trackers, requests: requests, logger: logger}
}

// Submit creates a pending edit request for the user's tracker.
func (s *Service) Submit(ctx context.Context, userID string, requested tracker.Usernames, reason string) (*tracker.EditRequest, error) {
	t, err := s.trackers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.requests.GetPendingByUserID(ctx, userID); err == nil {
		return nil, tracker.ErrPendingEditRequest
	} else if !errors.Is(err, tracker.ErrEditRequestNotFound) {
		return nil, fmt.Errorf("check pending request: %w", err)
	}

	request, err := tracker.NewEditRequest(userID, t.Usernames, requested, reason)
	if err != nil {
		return nil, err
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("create edit request: %w", err)
	}

	s.logger.Info("edit request submitted", "user_id", userID, "request_id", request.ID)
	return request, nil
}

// ListByStatus returns edit requests with the given status, newest first.
func (s *Service) ListByStatus(ctx context.Context, status tracker.EditRequestStatus, opts tracker.ListOptions) ([]*tracker.EditRequest, error) {
	return s.requests.ListByStatus(ctx, status, opts)
}

// Approve applies the requested usernames to the tracker and closes the
// request. The tracker's active platforms are re-derived from the new set.
func (s *Service) Approve(ctx context.Context, requestID, reviewerID, note string) (*tracker.EditRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := request.Approve(reviewerID, note); err != nil {
		return nil, err
	}

	t, err := s.trackers.GetByUserID(ctx, request.UserID)
	if err != nil {
		return nil, err
	}
	t.SetUsernames(request.RequestedUsernames)
	if err := s.trackers.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("apply approved usernames: %w", err)
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("persist approval: %w", err)
	}

	s.logger.Info("edit request approved",
		"request_id", requestID,
		"user_id", request.UserID,
		"reviewer", reviewerID,
	)
	return request, nil
}

// Reject closes the request without touching the tracker.
func (s *Service) Reject(ctx context.Context, requestID, reviewerID, note string) (*tracker.EditRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := request.Reject(reviewerID, note); err != nil {
		return nil, err
	}
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("persist rejection: %w", err)
	}

	s.logger.Info("edit request rejected",
		"request_id", requestID,
		"user_id", request.UserID,
		"reviewer", reviewerID,
	)
	return request, nil
}
