package platforms

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CODECHEF CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// CodeChefClient scrapes the public CodeChef profile page. CodeChef has no
// public API, and the page layout shifts between redesigns, so extraction
// runs several independent strategies in order and records which one
// succeeded. Any fetch or parse failure yields a zero-filled record rather
// than nil: CodeChef's absence must not block scoring of other platforms.
type CodeChefClient struct {
	baseURL string
	f       *fetcher
}

// NewCodeChefClient creates a CodeChef client.
func NewCodeChefClient(config Config, logger *slog.Logger) *CodeChefClient {
	return &CodeChefClient{
		baseURL: strings.TrimRight(config.CodeChefBaseURL, "/"),
		f:       newFetcher("codechef", config, logger),
	}
}

// Platform returns the platform this client serves.
func (c *CodeChefClient) Platform() tracker.Platform {
	return tracker.PlatformCodeChef
}

// Fetch returns scraped CodeChef statistics. The record is zero-filled when
// the page cannot be fetched or none of the extraction strategies match.
func (c *CodeChefClient) Fetch(ctx context.Context, username string) (*Result, error) {
	stats := &tracker.CodeChefStats{}

	var body string
	err := c.f.do(ctx, func(ctx context.Context) error {
		resp, err := c.f.http.R().
			SetContext(ctx).
			Get(c.baseURL + "/users/" + username)
		if err != nil {
			return err
		}
		if resp.StatusCode() == 404 {
			return errNotFound
		}
		if resp.IsError() {
			return fmt.Errorf("codechef profile page: status %d", resp.StatusCode())
		}
		body = string(resp.Body())
		return nil
	})
	if err != nil {
		c.f.logger.Warn("profile fetch failed, returning zero stats", "username", username, "error", err)
		return &Result{Platform: tracker.PlatformCodeChef, CodeChef: stats}, nil
	}

	strategy := c.extract(body, stats)
	c.f.logger.Info("profile scraped",
		"username", username,
		"strategy", strategy,
		"rating", stats.Rating,
		"problems_solved", stats.ProblemsSolved,
	)

	return &Result{Platform: tracker.PlatformCodeChef, CodeChef: stats}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Extraction strategies
// ──────────────────────────────────────────────────────────────────────────────

// extract fills stats from the page HTML, trying structured selectors first
// and falling back to a free-text regex scan. Returns the name of the
// strategy that produced the rating, or "none".
func (c *CodeChefClient) extract(body string, stats *tracker.CodeChefStats) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err == nil {
		if c.extractRatingHeader(doc, stats) {
			c.extractSolvedCounts(doc, body, stats)
			return "rating-header"
		}
		if c.extractStatsTable(doc, stats) {
			c.extractSolvedCounts(doc, body, stats)
			return "stats-table"
		}
	}
	if c.extractFreeText(body, stats) {
		return "free-text"
	}
	return "none"
}

// extractRatingHeader reads the rating widget present on the current layout.
func (c *CodeChefClient) extractRatingHeader(doc *goquery.Document, stats *tracker.CodeChefStats) bool {
	ratingText := strings.TrimSpace(doc.Find(".rating-number").First().Text())
	rating, err := strconv.Atoi(strings.TrimSuffix(ratingText, "?"))
	if err != nil {
		return false
	}
	stats.Rating = rating

	header := doc.Find(".rating-header").First().Text()
	if m := codechefHighestPattern.FindStringSubmatch(header); m != nil {
		stats.HighestRating, _ = strconv.Atoi(m[1])
	}
	stats.Stars = doc.Find(".rating-star span").Length()
	if stats.Stars == 0 {
		if m := codechefStarsPattern.FindStringSubmatch(doc.Find(".rating-star").First().Text()); m != nil {
			stats.Stars, _ = strconv.Atoi(m[1])
		}
	}
	return true
}

// extractStatsTable reads the older ratings-table layout.
func (c *CodeChefClient) extractStatsTable(doc *goquery.Document, stats *tracker.CodeChefStats) bool {
	found := false
	doc.Find("table.rating-table tr, .user-details-container li").Each(func(_ int, row *goquery.Selection) {
		text := row.Text()
		if m := codechefRatingLabelPattern.FindStringSubmatch(text); m != nil {
			if rating, err := strconv.Atoi(m[1]); err == nil {
				stats.Rating = rating
				found = true
			}
		}
		if m := codechefHighestPattern.FindStringSubmatch(text); m != nil {
			stats.HighestRating, _ = strconv.Atoi(m[1])
		}
	})
	return found
}

// extractSolvedCounts reads contest participation and problems solved from
// the sections below the rating widget, with regex backup.
func (c *CodeChefClient) extractSolvedCounts(doc *goquery.Document, body string, stats *tracker.CodeChefStats) {
	doc.Find(".contest-participated-count b").Each(func(_ int, sel *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(sel.Text())); err == nil {
			stats.Contests = n
		}
	})
	doc.Find("section.problems-solved h3, .problems-solved h5").Each(func(_ int, sel *goquery.Selection) {
		if m := codechefSolvedPattern.FindStringSubmatch(sel.Text()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				stats.ProblemsSolved = n
			}
		}
	})

	if stats.Contests == 0 {
		if m := codechefContestsPattern.FindStringSubmatch(body); m != nil {
			stats.Contests, _ = strconv.Atoi(m[1])
		}
	}
	if stats.ProblemsSolved == 0 {
		if m := codechefSolvedPattern.FindStringSubmatch(body); m != nil {
			stats.ProblemsSolved, _ = strconv.Atoi(m[1])
		}
	}
}

// extractFreeText is the last resort: regex scan of the raw HTML.
func (c *CodeChefClient) extractFreeText(body string, stats *tracker.CodeChefStats) bool {
	found := false
	if m := codechefRatingLabelPattern.FindStringSubmatch(body); m != nil {
		stats.Rating, _ = strconv.Atoi(m[1])
		found = true
	}
	if m := codechefHighestPattern.FindStringSubmatch(body); m != nil {
		stats.HighestRating, _ = strconv.Atoi(m[1])
		found = true
	}
	if m := codechefStarsPattern.FindStringSubmatch(body); m != nil {
		stats.Stars, _ = strconv.Atoi(m[1])
	}
	if m := codechefContestsPattern.FindStringSubmatch(body); m != nil {
		stats.Contests, _ = strconv.Atoi(m[1])
	}
	if m := codechefSolvedPattern.FindStringSubmatch(body); m != nil {
		stats.ProblemsSolved, _ = strconv.Atoi(m[1])
	}
	return found
}

var (
	codechefRatingLabelPattern = regexp.MustCompile(`(?i)Rating[^0-9]{0,20}(\d{3,4})`)
	codechefHighestPattern     = regexp.MustCompile(`(?i)Highest\s+Rating\s*:?\s*\(?(\d{3,4})`)
	codechefStarsPattern       = regexp.MustCompile(`(\d)\s*★`)
	codechefContestsPattern    = regexp.MustCompile(`(?i)No\.?\s+of\s+Contests?\s+Participated\s*:?\s*(\d+)`)
	codechefSolvedPattern      = regexp.MustCompile(`(?i)Total\s+Problems?\s+Solved\s*:?\s*(\d+)`)
)
