// Package leaderboard serves the ranked tracker listing. It supports a
// cached snapshot path for cheap reads and a live path that recomputes
// scores from the current raw statistics before sorting, so the ranking
// reflects the latest persisted stats even when the stored score field is
// briefly stale.
package leaderboard

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
)

// ══════════════════════════════════════════════════════════════════════════════
// TYPES
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one ranked row of the leaderboard.
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Cohort string `json:"cohort,omitempty"`

	LeetCodeScore    float64 `json:"leetcodeScore"`
	CodeForcesScore  float64 `json:"codeforcesScore"`
	CodeChefScore    float64 `json:"codechefScore"`
	AtCoderScore     float64 `json:"atcoderScore"`
	PerformanceScore float64 `json:"performanceScore"`
}

// Pagination describes the page window of a result.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of ranked entries.
type Page struct {
	Entries    []Entry    `json:"entries"`
	Pagination Pagination `json:"pagination"`
	// GeneratedAt is when the ranking was computed; cached pages carry the
	// computation time, not the serve time.
	GeneratedAt time.Time `json:"generatedAt"`
}

// Query selects a leaderboard page.
type Query struct {
	Page   int
	Limit  int
	Cohort string

	// Live bypasses the snapshot cache and recomputes scores.
	Live bool
}

// Cache is the optional snapshot store. Implementations must treat absence
// as a soft condition: any error here degrades to live computation.
// Invalidate drops the cached pages for one cohort; the empty cohort drops
// every cached page.
type Cache interface {
	GetPage(ctx context.Context, cohort string, page, limit int) (*Page, error)
	SetPage(ctx context.Context, cohort string, page, limit int, p *Page, ttl time.Duration) error
	Invalidate(ctx context.Context, cohort string) error
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVICE
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the leaderboard service.
type Config struct {
	// DefaultLimit is the page size used when the query does not set one.
	DefaultLimit int

	// MaxLimit caps the page size.
	MaxLimit int

	// SnapshotTTL is how long cached pages stay valid.
	SnapshotTTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 25,
		MaxLimit:     100,
		SnapshotTTL:  5 * time.Minute,
	}
}

// Service ranks trackers by performance score.
type Service struct {
	trackers tracker.Repository
	cache    Cache
	config   Config
	logger   *slog.Logger
}

// NewService creates a leaderboard service. The cache may be nil, in which
// case every read takes the live path.
func NewService(trackers tracker.Repository, cache Cache, config Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = DefaultConfig().DefaultLimit
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = DefaultConfig().MaxLimit
	}
	return &Service{trackers: trackers, cache: cache, config: config, logger: logger}
}

// GetLeaderboard returns one ranked page. The snapshot path serves the last
// computed ranking from cache when available; cache absence or failure
// silently degrades to live computation.
func (s *Service) GetLeaderboard(ctx context.Context, q Query) (*Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = s.config.DefaultLimit
	}
	if q.Limit > s.config.MaxLimit {
		q.Limit = s.config.MaxLimit
	}

	if !q.Live && s.cache != nil {
		cached, err := s.cache.GetPage(ctx, q.Cohort, q.Page, q.Limit)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.logger.Debug("snapshot cache unavailable, computing live", "error", err)
		}
	}

	page, err := s.computePage(ctx, q)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetPage(ctx, q.Cohort, q.Page, q.Limit, page, s.config.SnapshotTTL); err != nil {
			s.logger.Debug("snapshot cache write failed", "error", err)
		}
	}
	return page, nil
}

// InvalidateSnapshots drops cached pages so the next read after a batch
// refresh serves fresh scores. The empty cohort drops all pages, including
// the per-cohort ones. A nil cache is a no-op.
func (s *Service) InvalidateSnapshots(ctx context.Context, cohort string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, cohort)
}

// Top returns the first n entries of the live ranking. Used by scheduled
// jobs to log a leaderboard snapshot after each refresh run.
func (s *Service) Top(ctx context.Context, n int) ([]Entry, error) {
	page, err := s.computePage(ctx, Query{Page: 1, Limit: n, Live: true})
	if err != nil {
		return nil, err
	}
	return page.Entries, nil
}

// computePage is the live path: load, recompute scores from raw stats,
// sort, paginate.
func (s *Service) computePage(ctx context.Context, q Query) (*Page, error) {
	trackers, err := s.trackers.ListActive(ctx, tracker.ListOptions{Cohort: q.Cohort})
	if err != nil {
		return nil, err
	}

	type ranked struct {
		t      *tracker.Tracker
		scores tracker.Scores
	}
	rankedAll := make([]ranked, 0, len(trackers))
	for _, t := range trackers {
		rankedAll = append(rankedAll, ranked{t: t, scores: tracker.CalculateScores(t)})
	}

	// Descending by performance; ties go to the earlier-created tracker so
	// the ordering is deterministic across runs.
	sort.SliceStable(rankedAll, func(i, j int) bool {
		if rankedAll[i].scores.Performance != rankedAll[j].scores.Performance {
			return rankedAll[i].scores.Performance > rankedAll[j].scores.Performance
		}
		return rankedAll[i].t.CreatedAt.Before(rankedAll[j].t.CreatedAt)
	})

	total := len(rankedAll)
	offset := (q.Page - 1) * q.Limit
	end := offset + q.Limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}

	entries := make([]Entry, 0, end-offset)
	for i, r := range rankedAll[offset:end] {
		entries = append(entries, Entry{
			Rank:             offset + i + 1,
			UserID:           r.t.UserID,
			Cohort:           r.t.Cohort,
			LeetCodeScore:    r.scores.LeetCode,
			CodeForcesScore:  r.scores.CodeForces,
			CodeChefScore:    r.scores.CodeChef,
			AtCoderScore:     r.scores.AtCoder,
			PerformanceScore: r.scores.Performance,
		})
	}

	totalPages := 0
	if q.Limit > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}

	return &Page{
		Entries: entries,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
		GeneratedAt: time.Now().UTC(),
	}, nil
}
