package platforms

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEETCODE CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// LeetCodeClient fetches statistics from the LeetCode GraphQL API, with a
// best-effort HTML fallback when the API does not answer. Contest history is
// a separate endpoint and is always attempted independently of the primary
// profile query.
type LeetCodeClient struct {
	baseURL string
	f       *fetcher
}

// NewLeetCodeClient creates a LeetCode client.
func NewLeetCodeClient(config Config, logger *slog.Logger) *LeetCodeClient {
	return &LeetCodeClient{
		baseURL: strings.TrimRight(config.LeetCodeBaseURL, "/"),
		f:       newFetcher("leetcode", config, logger),
	}
}

// Platform returns the platform this client serves.
func (c *LeetCodeClient) Platform() tracker.Platform {
	return tracker.PlatformLeetCode
}

// ──────────────────────────────────────────────────────────────────────────────
// GraphQL wire types
// ──────────────────────────────────────────────────────────────────────────────

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

const leetcodeProfileQuery = `
query userProfile($username: String!) {
  matchedUser(username: $username) {
    username
    submitStatsGlobal {
      acSubmissionNum { difficulty count }
    }
  }
  userContestRanking(username: $username) {
    attendedContestsCount
    rating
  }
}`

const leetcodeContestHistoryQuery = `
query contestHistory($username: String!) {
  userContestRankingHistory(username: $username) {
    attended
    rating
    problemsSolved
    contest { title startTime }
  }
}`

type leetcodeProfileResponse struct {
	Data struct {
		MatchedUser *struct {
			Username          string `json:"username"`
			SubmitStatsGlobal struct {
				ACSubmissionNum []struct {
					Difficulty string `json:"difficulty"`
					Count      int    `json:"count"`
				} `json:"acSubmissionNum"`
			} `json:"submitStatsGlobal"`
		} `json:"matchedUser"`
		UserContestRanking *struct {
			AttendedContestsCount int     `json:"attendedContestsCount"`
			Rating                float64 `json:"rating"`
		} `json:"userContestRanking"`
	} `json:"data"`
}

type leetcodeHistoryResponse struct {
	Data struct {
		UserContestRankingHistory []struct {
			Attended       bool    `json:"attended"`
			Rating         float64 `json:"rating"`
			ProblemsSolved int     `json:"problemsSolved"`
			Contest        struct {
				Title     string `json:"title"`
				StartTime int64  `json:"startTime"`
			} `json:"contest"`
		} `json:"userContestRankingHistory"`
	} `json:"data"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Fetch
// ──────────────────────────────────────────────────────────────────────────────

// Fetch returns normalized LeetCode statistics for the username, or nil when
// neither the API nor the profile page knows the user.
func (c *LeetCodeClient) Fetch(ctx context.Context, username string) (*Result, error) {
	stats, found := c.fetchProfile(ctx, username)
	if !found {
		// Primary path failed; the public profile page sometimes still
		// renders for users the GraphQL API refuses to answer for.
		stats, found = c.scrapeProfile(ctx, username)
	}

	// Contest history is a separate endpoint; try it even when the
	// profile query failed.
	history, historyOK := c.fetchContestHistory(ctx, username)

	if !found && !historyOK {
		c.f.logger.Info("user not found", "username", username)
		return nil, nil
	}
	if stats == nil {
		stats = &tracker.LeetCodeStats{}
	}

	if historyOK {
		stats.HighestRating = history.highestRating
		stats.ContestSolved = history.contestSolved
		stats.LastContestName = history.lastContestName
		stats.LastContestAt = history.lastContestAt
	}

	// Practice-solved is derived, clamped at zero since contest-solved
	// comes from a different endpoint and can exceed a stale total.
	stats.PracticeSolved = stats.TotalSolved - stats.ContestSolved
	if stats.PracticeSolved < 0 {
		stats.PracticeSolved = 0
	}

	return &Result{Platform: tracker.PlatformLeetCode, LeetCode: stats}, nil
}

// fetchProfile runs the primary GraphQL profile query.
func (c *LeetCodeClient) fetchProfile(ctx context.Context, username string) (*tracker.LeetCodeStats, bool) {
	var out leetcodeProfileResponse
	err := c.f.do(ctx, func(ctx context.Context) error {
		resp, err := c.f.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(graphqlRequest{
				Query:     leetcodeProfileQuery,
				Variables: map[string]any{"username": username},
			}).
			SetResult(&out).
			Post(c.baseURL + "/graphql")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("leetcode graphql: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		c.f.logger.Warn("profile query failed", "username", username, "error", err)
		return nil, false
	}
	if out.Data.MatchedUser == nil {
		return nil, false
	}

	stats := &tracker.LeetCodeStats{}
	for _, entry := range out.Data.MatchedUser.SubmitStatsGlobal.ACSubmissionNum {
		switch strings.ToLower(entry.Difficulty) {
		case "easy":
			stats.EasySolved = entry.Count
		case "medium":
			stats.MediumSolved = entry.Count
		case "hard":
			stats.HardSolved = entry.Count
		case "all":
			stats.TotalSolved = entry.Count
		}
	}
	if stats.TotalSolved == 0 {
		stats.TotalSolved = stats.EasySolved + stats.MediumSolved + stats.HardSolved
	}

	if ranking := out.Data.UserContestRanking; ranking != nil {
		stats.ContestsAttended = ranking.AttendedContestsCount
		stats.CurrentRating = ranking.Rating
	}

	return stats, true
}

// contestSummary aggregates the per-contest history.
type contestSummary struct {
	highestRating   float64
	contestSolved   int
	lastContestName string
	lastContestAt   *time.Time
}

// fetchContestHistory computes highest-ever rating, problems solved within
// contests and the most recent attended contest.
func (c *LeetCodeClient) fetchContestHistory(ctx context.Context, username string) (*contestSummary, bool) {
	var out leetcodeHistoryResponse
	err := c.f.do(ctx, func(ctx context.Context) error {
		resp, err := c.f.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(graphqlRequest{
				Query:     leetcodeContestHistoryQuery,
				Variables: map[string]any{"username": username},
			}).
			SetResult(&out).
			Post(c.baseURL + "/graphql")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("leetcode contest history: status %d", resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		c.f.logger.Warn("contest history query failed", "username", username, "error", err)
		return nil, false
	}
	if len(out.Data.UserContestRankingHistory) == 0 {
		return nil, false
	}

	summary := &contestSummary{}
	for _, entry := range out.Data.UserContestRankingHistory {
		if !entry.Attended {
			continue
		}
		if entry.Rating > summary.highestRating {
			summary.highestRating = entry.Rating
		}
		summary.contestSolved += entry.ProblemsSolved
		if entry.Contest.StartTime > 0 {
			at := time.Unix(entry.Contest.StartTime, 0).UTC()
			if summary.lastContestAt == nil || at.After(*summary.lastContestAt) {
				summary.lastContestName = entry.Contest.Title
				summary.lastContestAt = &at
			}
		}
	}
	return summary, true
}

// ──────────────────────────────────────────────────────────────────────────────
// HTML fallback
// ──────────────────────────────────────────────────────────────────────────────

var (
	leetcodeSolvedPattern     = regexp.MustCompile(`(\d+)\s*/\s*\d+\s*Solved`)
	leetcodeDifficultyPattern = regexp.MustCompile(`(Easy|Medium|Hard)\D{0,40}?(\d+)\s*/\s*\d+`)
)

// scrapeProfile extracts solved counts from the public profile page.
// "User not found" and "zero activity" are not reliably distinguishable
// here: a page that exists but matches no pattern yields zero-filled stats.
func (c *LeetCodeClient) scrapeProfile(ctx context.Context, username string) (*tracker.LeetCodeStats, bool) {
	var body string
	err := c.f.do(ctx, func(ctx context.Context) error {
		resp, err := c.f.http.R().
			SetContext(ctx).
			Get(c.baseURL + "/u/" + username + "/")
		if err != nil {
			return err
		}
		if resp.StatusCode() == 404 {
			return errNotFound
		}
		if resp.IsError() {
			return fmt.Errorf("leetcode profile page: status %d", resp.StatusCode())
		}
		body = string(resp.Body())
		return nil
	})
	if err != nil {
		c.f.logger.Warn("profile page scrape failed", "username", username, "error", err)
		return nil, false
	}

	stats := &tracker.LeetCodeStats{}
	if m := leetcodeSolvedPattern.FindStringSubmatch(body); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			stats.TotalSolved = n
		}
	}
	for _, m := range leetcodeDifficultyPattern.FindAllStringSubmatch(body, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		switch m[1] {
		case "Easy":
			stats.EasySolved = n
		case "Medium":
			stats.MediumSolved = n
		case "Hard":
			stats.HardSolved = n
		}
	}

	c.f.logger.Info("used html fallback", "username", username, "total_solved", stats.TotalSolved)
	return stats, true
}
