package platforms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATCODER CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// AtCoderClient fetches statistics from AtCoder's contest-history endpoint
// and the community AtCoder Problems API for submission data. The color
// tier is derived locally from the fixed rating thresholds.
type AtCoderClient struct {
	baseURL         string
	problemsBaseURL string
	f               *fetcher
}

// NewAtCoderClient creates an AtCoder client.
func NewAtCoderClient(config Config, logger *slog.Logger) *AtCoderClient {
	return &AtCoderClient{
		baseURL:         strings.TrimRight(config.AtCoderBaseURL, "/"),
		problemsBaseURL: strings.TrimRight(config.AtCoderProblemsBaseURL, "/"),
		f:               newFetcher("atcoder", config, logger),
	}
}

// Platform returns the platform this client serves.
func (c *AtCoderClient) Platform() tracker.Platform {
	return tracker.PlatformAtCoder
}

// ──────────────────────────────────────────────────────────────────────────────
// Wire types
// ──────────────────────────────────────────────────────────────────────────────

type atcoderHistoryEntry struct {
	IsRated     bool   `json:"IsRated"`
	NewRating   int    `json:"NewRating"`
	ContestName string `json:"ContestName"`
}

type atcoderSubmission struct {
	ProblemID string `json:"problem_id"`
	Result    string `json:"result"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Fetch
// ──────────────────────────────────────────────────────────────────────────────

// Fetch returns normalized AtCoder statistics, or nil when the user has no
// contest history and no submissions.
func (c *AtCoderClient) Fetch(ctx context.Context, username string) (*Result, error) {
	stats, historyOK := c.fetchHistory(ctx, username)
	solved, solvedOK := c.fetchSolvedCount(ctx, username)

	if !historyOK && !solvedOK {
		c.f.logger.Info("user not found", "username", username)
		return nil, nil
	}
	if stats == nil {
		stats = &tracker.AtCoderStats{}
	}
	if solvedOK {
		stats.ProblemsSolved = solved
	}
	stats.Color = atcoderColor(stats.Rating)

	return &Result{Platform: tracker.PlatformAtCoder, AtCoder: stats}, nil
}

// fetchHistory reads the contest history: current rating is the last rated
// entry's new rating, max rating the highest ever, contests the rated count.
func (c *AtCoderClient) fetchHistory(ctx context.Context, username string) (*tracker.AtCoderStats, bool) {
	var history []atcoderHistoryEntry
	err := c.f.do(ctx, func(ctx context.Context) error {
		resp, err := c.f.http.R().
			SetContext(ctx).
			SetResult(&history).
			Get(c.baseURL + "/users/" + username + "/history/json")
		if err != nil {
			return err
		}
		if resp.StatusCode() == 404 {
			return errNotFound
		}
		if resp.IsError() {
			return fmt.Errorf("atcoder history: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		c.f.logger.Warn("history fetch failed", "username", username, "error", err)
		return nil, false
	}
	if len(history) == 0 {
		return nil, false
	}

	stats := &tracker.AtCoderStats{}
	for _, entry := range history {
		if !entry.IsRated {
			continue
		}
		stats.Contests++
		stats.Rating = entry.NewRating
		if entry.NewRating > stats.MaxRating {
			stats.MaxRating = entry.NewRating
		}
	}
	return stats, true
}

// fetchSolvedCount counts distinct problems with an accepted submission via
// the AtCoder Problems results endpoint.
func (c *AtCoderClient) fetchSolvedCount(ctx context.Context, username string) (int, bool) {
	var submissions []atcoderSubmission
	err := c.f.do(ctx, func(ctx context.Context) error {
		resp, err := c.f.http.R().
			SetContext(ctx).
			SetQueryParam("user", username).
			SetResult(&submissions).
			Get(c.problemsBaseURL + "/atcoder-api/results")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("atcoder problems api: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		c.f.logger.Warn("submissions fetch failed", "username", username, "error", err)
		return 0, false
	}
	if len(submissions) == 0 {
		return 0, false
	}

	solved := make(map[string]struct{})
	for _, submission := range submissions {
		if submission.Result == "AC" {
			solved[submission.ProblemID] = struct{}{}
		}
	}
	return len(solved), true
}

// ──────────────────────────────────────────────────────────────────────────────
// Color tiers
// ──────────────────────────────────────────────────────────────────────────────

// atcoderColor maps a rating to AtCoder's color tier.
func atcoderColor(rating int) string {
	switch {
	case rating >= 3200:
		return "Red"
	case rating >= 2800:
		return "Orange"
	case rating >= 2400:
		return "Yellow"
	case rating >= 2000:
		return "Blue"
	case rating >= 1600:
		return "Cyan"
	case rating >= 1200:
		return "Green"
	case rating >= 800:
		return "Brown"
	case rating >= 400:
		return "Gray"
	default:
		return "Unrated"
	}
}
