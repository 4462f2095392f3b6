package platforms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CODEFORCES CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// CodeForcesClient fetches statistics from the CodeForces REST API.
// Three calls: user.info for rating and rank, user.rating for contest
// participation, and user.status for the distinct-solved-problem count.
type CodeForcesClient struct {
	baseURL string
	f       *fetcher
}

// NewCodeForcesClient creates a CodeForces client.
func NewCodeForcesClient(config Config, logger *slog.Logger) *CodeForcesClient {
	return &CodeForcesClient{
		baseURL: strings.TrimRight(config.CodeForcesBaseURL, "/"),
		f:       newFetcher("codeforces", config, logger),
	}
}

// Platform returns the platform this client serves.
func (c *CodeForcesClient) Platform() tracker.Platform {
	return tracker.PlatformCodeForces
}

// ──────────────────────────────────────────────────────────────────────────────
// Wire types
// ──────────────────────────────────────────────────────────────────────────────

type cfUserInfoResponse struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  []struct {
		Handle    string `json:"handle"`
		Rating    int    `json:"rating"`
		MaxRating int    `json:"maxRating"`
		Rank      string `json:"rank"`
	} `json:"result"`
}

type cfRatingResponse struct {
	Status string `json:"status"`
	Result []struct {
		ContestID int `json:"contestId"`
	} `json:"result"`
}

type cfStatusResponse struct {
	Status string `json:"status"`
	Result []struct {
		Verdict string `json:"verdict"`
		Problem struct {
			ContestID int    `json:"contestId"`
			Index     string `json:"index"`
		} `json:"problem"`
	} `json:"result"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Fetch
// ──────────────────────────────────────────────────────────────────────────────

// Fetch returns normalized CodeForces statistics, or nil when the API
// reports a non-OK status or an empty result for the handle.
func (c *CodeForcesClient) Fetch(ctx context.Context, username string) (*Result, error) {
	stats, found := c.fetchUserInfo(ctx, username)
	if !found {
		return nil, nil
	}

	// Contest count and solved count come from separate endpoints; a
	// failure there degrades those fields to zero rather than losing
	// the rating data already fetched.
	if contests, ok := c.fetchContestCount(ctx, username); ok {
		stats.Contests = contests
	}
	if solved, ok := c.fetchSolvedCount(ctx, username); ok {
		stats.ProblemsSolved = solved
	}

	return &Result{Platform: tracker.PlatformCodeForces, CodeForces: stats}, nil
}

func (c *CodeForcesClient) fetchUserInfo(ctx context.Context, handle string) (*tracker.CodeForcesStats, bool) {
	var out cfUserInfoResponse
	err := c.f.do(ctx, func(ctx context.Context) error {
		resp, err := c.f.http.R().
			SetContext(ctx).
			SetQueryParam("handles", handle).
			SetResult(&out).
			Get(c.baseURL + "/api/user.info")
		if err != nil {
			return err
		}
		// CodeForces answers 400 with status FAILED for unknown handles.
		if resp.IsError() && resp.StatusCode() != 400 {
			return fmt.Errorf("codeforces user.info: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		c.f.logger.Warn("user.info failed", "handle", handle, "error", err)
		return nil, false
	}
	if out.Status != "OK" || len(out.Result) == 0 {
		c.f.logger.Info("user not found", "handle", handle, "comment", out.Comment)
		return nil, false
	}

	user := out.Result[0]
	return &tracker.CodeForcesStats{
		Rating:    user.Rating,
		MaxRating: user.MaxRating,
		Rank:      user.Rank,
	}, true
}

// fetchContestCount returns the length of the rating-change history.
func (c *CodeForcesClient) fetchContestCount(ctx context.Context, handle string) (int, bool) {
	var out cfRatingResponse
	err := c.f.do(ctx, func(ctx context.Context) error {
		resp, err := c.f.http.R().
			SetContext(ctx).
			SetQueryParam("handle", handle).
			SetResult(&out).
			Get(c.baseURL + "/api/user.rating")
		if err != nil {
			return err
		}
		if resp.IsError() && resp.StatusCode() != 400 {
			return fmt.Errorf("codeforces user.rating: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil || out.Status != "OK" {
		c.f.logger.Warn("user.rating failed", "handle", handle, "error", err)
		return 0, false
	}
	return len(out.Result), true
}

// fetchSolvedCount counts distinct problems (contest-id + index) with at
// least one OK verdict submission.
func (c *CodeForcesClient) fetchSolvedCount(ctx context.Context, handle string) (int, bool) {
	var out cfStatusResponse
	err := c.f.do(ctx, func(ctx context.Context) error {
		resp, err := c.f.http.R().
			SetContext(ctx).
			SetQueryParam("handle", handle).
			SetResult(&out).
			Get(c.baseURL + "/api/user.status")
		if err != nil {
			return err
		}
		if resp.IsError() && resp.StatusCode() != 400 {
			return fmt.Errorf("codeforces user.status: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil || out.Status != "OK" {
		c.f.logger.Warn("user.status failed", "handle", handle, "error", err)
		return 0, false
	}

	solved := make(map[string]struct{})
	for _, submission := range out.Result {
		if submission.Verdict != "OK" {
			continue
		}
		key := fmt.Sprintf("%d%s", submission.Problem.ContestID, submission.Problem.Index)
		solved[key] = struct{}{}
	}
	return len(solved), true
}
