package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cptrack/cptrack-hub/internal/application/leaderboard"
	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
)

// handler holds the application services behind the routes.
type handler struct {
	deps   Dependencies
	logger *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST / RESPONSE TYPES
// ══════════════════════════════════════════════════════════════════════════════

type usernamesPayload struct {
	LeetCode   string `json:"leetcode"`
	CodeForces string `json:"codeforces"`
	CodeChef   string `json:"codechef"`
	AtCoder    string `json:"atcoder"`
}

func (p usernamesPayload) toDomain() tracker.Usernames {
	return tracker.Usernames{
		LeetCode:   p.LeetCode,
		CodeForces: p.CodeForces,
		CodeChef:   p.CodeChef,
		AtCoder:    p.AtCoder,
	}
}

func usernamesFromDomain(u tracker.Usernames) usernamesPayload {
	return usernamesPayload{
		LeetCode:   u.LeetCode,
		CodeForces: u.CodeForces,
		CodeChef:   u.CodeChef,
		AtCoder:    u.AtCoder,
	}
}

type connectRequest struct {
	UserID    string           `json:"userId"`
	Usernames usernamesPayload `json:"usernames"`
	Cohort    string           `json:"cohort"`
}

type trackerResponse struct {
	UserID    string           `json:"userId"`
	Usernames usernamesPayload `json:"usernames"`
	Cohort    string           `json:"cohort,omitempty"`
	IsActive  bool             `json:"isActive"`

	LeetCodeScore    float64 `json:"leetcodeScore"`
	CodeForcesScore  float64 `json:"codeforcesScore"`
	CodeChefScore    float64 `json:"codechefScore"`
	AtCoderScore     float64 `json:"atcoderScore"`
	PerformanceScore float64 `json:"performanceScore"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func trackerFromDomain(t *tracker.Tracker) trackerResponse {
	return trackerResponse{
		UserID:           t.UserID,
		Usernames:        usernamesFromDomain(t.Usernames),
		Cohort:           t.Cohort,
		IsActive:         t.IsActive,
		LeetCodeScore:    t.LeetCodeScore,
		CodeForcesScore:  t.CodeForcesScore,
		CodeChefScore:    t.CodeChefScore,
		AtCoderScore:     t.AtCoderScore,
		PerformanceScore: t.PerformanceScore,
		UpdatedAt:        t.UpdatedAt,
	}
}

type editRequestPayload struct {
	UserID    string           `json:"userId"`
	Usernames usernamesPayload `json:"usernames"`
	Reason    string           `json:"reason"`
}

type reviewPayload struct {
	ReviewerID string `json:"reviewerId"`
	Note       string `json:"note"`
}

type editRequestResponse struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Requested usernamesPayload `json:"requested"`
	Reason    string           `json:"reason,omitempty"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
}

func editRequestFromDomain(r *tracker.EditRequest) editRequestResponse {
	return editRequestResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		Requested: usernamesFromDomain(r.RequestedUsernames),
		Reason:    r.Reason,
		Status:    string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeError maps domain errors onto HTTP status codes.
func writeError(c echo.Context, err error) error {
	var rateLimited *tracker.RateLimitedError
	var validation *tracker.ValidationError

	switch {
	case errors.As(err, &rateLimited):
		return c.JSON(http.StatusTooManyRequests, echo.Map{
			"error":          "refresh rate limited",
			"hoursRemaining": rateLimited.HoursRemaining,
		})
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validation.Error()})
	case errors.Is(err, tracker.ErrTrackerNotFound),
		errors.Is(err, tracker.ErrEditRequestNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, tracker.ErrPendingEditRequest),
		errors.Is(err, tracker.ErrEditRequestClosed),
		errors.Is(err, tracker.ErrTrackerAlreadyExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TRACKER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// ConnectTracker creates or updates the caller's tracker.
func (h *handler) ConnectTracker(c echo.Context) error {
	var req connectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId is required"})
	}

	t, err := h.deps.Updater.ConnectOrUpdateProfile(c.Request().Context(), req.UserID, req.Usernames.toDomain(), req.Cohort)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, trackerFromDomain(t))
}

// GetTracker returns a user's tracker.
func (h *handler) GetTracker(c echo.Context) error {
	t, err := h.deps.Updater.Profile(c.Request().Context(), c.Param("userID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, trackerFromDomain(t))
}

// RefreshTracker is the user-initiated refresh, gated by the cooldown.
func (h *handler) RefreshTracker(c echo.Context) error {
	t, err := h.deps.Updater.RefreshProfile(c.Request().Context(), c.Param("userID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, trackerFromDomain(t))
}

// DisconnectTracker soft-deactivates a tracker.
func (h *handler) DisconnectTracker(c echo.Context) error {
	if err := h.deps.Updater.DisconnectProfile(c.Request().Context(), c.Param("userID")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AdminRefreshTracker refreshes a tracker bypassing the cooldown.
func (h *handler) AdminRefreshTracker(c echo.Context) error {
	t, err := h.deps.Updater.AdminRefreshProfile(c.Request().Context(), c.Param("userID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, trackerFromDomain(t))
}

// TriggerBatchRefresh runs a batch refresh. An optional cohort query
// parameter restricts the batch.
func (h *handler) TriggerBatchRefresh(c echo.Context) error {
	cohort := c.QueryParam("cohort")

	var (
		result any
		err    error
	)
	if cohort == "" {
		result, err = h.deps.Updater.UpdateAll(c.Request().Context())
	} else {
		result, err = h.deps.Updater.UpdateCohort(c.Request().Context(), cohort)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetStatistics reports freshness of the tracker population.
func (h *handler) GetStatistics(c echo.Context) error {
	stats, err := h.deps.Updater.UpdateStatistics(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboard serves a ranked page. Query parameters: page, limit,
// cohort, live.
func (h *handler) GetLeaderboard(c echo.Context) error {
	q := leaderboard.Query{
		Cohort: c.QueryParam("cohort"),
		Live:   c.QueryParam("live") == "true",
	}
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		q.Page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		q.Limit = v
	}

	page, err := h.deps.Leaderboard.GetLeaderboard(c.Request().Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// ══════════════════════════════════════════════════════════════════════════════
// EDIT REQUEST HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// SubmitEditRequest opens a username change request for review.
func (h *handler) SubmitEditRequest(c echo.Context) error {
	var req editRequestPayload
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId is required"})
	}

	r, err := h.deps.EditRequests.Submit(c.Request().Context(), req.UserID, req.Usernames.toDomain(), req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, editRequestFromDomain(r))
}

// ListEditRequests lists requests by status, defaulting to pending.
func (h *handler) ListEditRequests(c echo.Context) error {
	status := tracker.EditRequestStatus(c.QueryParam("status"))
	if status == "" {
		status = tracker.EditRequestPending
	}

	opts := tracker.ListOptions{Limit: 50}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		opts.Offset = v
	}

	requests, err := h.deps.EditRequests.ListByStatus(c.Request().Context(), status, opts)
	if err != nil {
		return writeError(c, err)
	}

	out := make([]editRequestResponse, 0, len(requests))
	for _, r := range requests {
		out = append(out, editRequestFromDomain(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": out})
}

// ApproveEditRequest approves a pending request and applies the new
// usernames to the tracker.
func (h *handler) ApproveEditRequest(c echo.Context) error {
	var review reviewPayload
	if err := c.Bind(&review); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	r, err := h.deps.EditRequests.Approve(c.Request().Context(), c.Param("id"), review.ReviewerID, review.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, editRequestFromDomain(r))
}

// RejectEditRequest rejects a pending request; the tracker is untouched.
func (h *handler) RejectEditRequest(c echo.Context) error {
	var review reviewPayload
	if err := c.Bind(&review); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	r, err := h.deps.EditRequests.Reject(c.Request().Context(), c.Param("id"), review.ReviewerID, review.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, editRequestFromDomain(r))
}

// ══════════════════════════════════════════════════════════════════════════════
// JOB HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// ListJobs lists the scheduler's registered jobs.
func (h *handler) ListJobs(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"jobs": h.deps.Scheduler.ListJobs()})
}

// RunJob triggers a job and returns as soon as the run is dispatched.
// Batch jobs take minutes; the caller polls ListJobs for the outcome.
func (h *handler) RunJob(c echo.Context) error {
	name := c.Param("name")
	if !h.deps.Scheduler.HasJob(name) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "job not found: " + name})
	}

	// Detached from the request context so the run outlives the response.
	// RunNow records and logs the outcome itself.
	go func() {
		_ = h.deps.Scheduler.RunNow(context.Background(), name)
	}()

	return c.JSON(http.StatusAccepted, echo.Map{"status": "started", "job": name})
}

// EnableJob enables a disabled job.
func (h *handler) EnableJob(c echo.Context) error {
	if err := h.deps.Scheduler.Enable(c.Param("name")); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// DisableJob disables a job without unregistering it.
func (h *handler) DisableJob(c echo.Context) error {
	if err := h.deps.Scheduler.Disable(c.Param("name")); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// Health pings every registered dependency and reports per-dependency
// status. Any failing dependency turns the response into a 503.
func (h *handler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	status := http.StatusOK
	overall := "ok"
	checks := make(map[string]string, len(h.deps.HealthCheckers))
	for name, checker := range h.deps.HealthCheckers {
		if err := checker.Ping(ctx); err != nil {
			checks[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			overall = "degraded"
			continue
		}
		checks[name] = "ok"
	}

	return c.JSON(status, echo.Map{
		"status": overall,
		"checks": checks,
		"time":   time.Now().UTC(),
	})
}
