package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
)

// TrackerRepository implements tracker.Repository on PostgreSQL.
type TrackerRepository struct {
	conn *Connection
}

// NewTrackerRepository creates a tracker repository.
func NewTrackerRepository(conn *Connection) *TrackerRepository {
	return &TrackerRepository{conn: conn}
}

// trackerColumns is the column list shared by every SELECT.
const trackerColumns = `
	id, user_id,
	leetcode_username, codeforces_username, codechef_username, atcoder_username,
	lc_easy_solved, lc_medium_solved, lc_hard_solved, lc_total_solved,
	lc_contest_solved, lc_practice_solved, lc_contests_attended,
	lc_current_rating, lc_highest_rating, lc_last_contest_name, lc_last_contest_at,
	cf_rating, cf_max_rating, cf_rank, cf_contests, cf_problems_solved,
	cc_rating, cc_highest_rating, cc_stars, cc_contests, cc_problems_solved,
	ac_rating, ac_max_rating, ac_color, ac_contests, ac_problems_solved,
	leetcode_score, codeforces_score, codechef_score, atcoder_score, performance_score,
	active_platforms, is_active, cohort,
	created_at, updated_at, last_user_refresh_at`

// Create stores a new tracker.
func (r *TrackerRepository) Create(ctx context.Context, t *tracker.Tracker) error {
	query := `
		INSERT INTO trackers (` + trackerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
				$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
				$31, $32, $33, $34, $35, $36, $37, $38, $39, $40,
				$41, $42, $43)
	`

	_, err := r.conn.Pool().Exec(ctx, query, trackerArgs(t)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return tracker.ErrTrackerAlreadyExists
		}
		return fmt.Errorf("failed to create tracker: %w", err)
	}
	return nil
}

// GetByUserID returns the tracker owned by the given user.
func (r *TrackerRepository) GetByUserID(ctx context.Context, userID string) (*tracker.Tracker, error) {
	query := `SELECT ` + trackerColumns + ` FROM trackers WHERE user_id = $1`
	row := r.conn.Pool().QueryRow(ctx, query, userID)
	return scanTracker(row)
}

// Update persists all mutable tracker fields.
func (r *TrackerRepository) Update(ctx context.Context, t *tracker.Tracker) error {
	query := `
		UPDATE trackers SET
			leetcode_username = $2, codeforces_username = $3,
			codechef_username = $4, atcoder_username = $5,
			lc_easy_solved = $6, lc_medium_solved = $7, lc_hard_solved = $8,
			lc_total_solved = $9, lc_contest_solved = $10, lc_practice_solved = $11,
			lc_contests_attended = $12, lc_current_rating = $13, lc_highest_rating = $14,
			lc_last_contest_name = $15, lc_last_contest_at = $16,
			cf_rating = $17, cf_max_rating = $18, cf_rank = $19,
			cf_contests = $20, cf_problems_solved = $21,
			cc_rating = $22, cc_highest_rating = $23, cc_stars = $24,
			cc_contests = $25, cc_problems_solved = $26,
			ac_rating = $27, ac_max_rating = $28, ac_color = $29,
			ac_contests = $30, ac_problems_solved = $31,
			leetcode_score = $32, codeforces_score = $33, codechef_score = $34,
			atcoder_score = $35, performance_score = $36,
			active_platforms = $37, is_active = $38, cohort = $39,
			updated_at = $40, last_user_refresh_at = $41
		WHERE user_id = $1
	`

	platforms := make([]string, 0, len(t.ActivePlatforms))
	for _, p := range t.ActivePlatforms {
		platforms = append(platforms, string(p))
	}

	result, err := r.conn.Pool().Exec(ctx, query,
		t.UserID,
		t.Usernames.LeetCode, t.Usernames.CodeForces, t.Usernames.CodeChef, t.Usernames.AtCoder,
		t.LeetCode.EasySolved, t.LeetCode.MediumSolved, t.LeetCode.HardSolved,
		t.LeetCode.TotalSolved, t.LeetCode.ContestSolved, t.LeetCode.PracticeSolved,
		t.LeetCode.ContestsAttended, t.LeetCode.CurrentRating, t.LeetCode.HighestRating,
		t.LeetCode.LastContestName, t.LeetCode.LastContestAt,
		t.CodeForces.Rating, t.CodeForces.MaxRating, t.CodeForces.Rank,
		t.CodeForces.Contests, t.CodeForces.ProblemsSolved,
		t.CodeChef.Rating, t.CodeChef.HighestRating, t.CodeChef.Stars,
		t.CodeChef.Contests, t.CodeChef.ProblemsSolved,
		t.AtCoder.Rating, t.AtCoder.MaxRating, t.AtCoder.Color,
		t.AtCoder.Contests, t.AtCoder.ProblemsSolved,
		t.LeetCodeScore, t.CodeForcesScore, t.CodeChefScore,
		t.AtCoderScore, t.PerformanceScore,
		platforms, t.IsActive, t.Cohort,
		t.UpdatedAt, t.LastUserRefreshAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update tracker: %w", err)
	}
	if result.RowsAffected() == 0 {
		return tracker.ErrTrackerNotFound
	}
	return nil
}

// ListActive returns active trackers ordered by performance score
// descending, ties broken by earliest creation time.
func (r *TrackerRepository) ListActive(ctx context.Context, opts tracker.ListOptions) ([]*tracker.Tracker, error) {
	query := `SELECT ` + trackerColumns + `
		FROM trackers
		WHERE is_active AND ($1 = '' OR cohort = $1)
		ORDER BY performance_score DESC, created_at ASC`
	args := []any{opts.Cohort}

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.conn.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list active trackers: %w", err)
	}
	defer rows.Close()

	var trackers []*tracker.Tracker
	for rows.Next() {
		t, err := scanTracker(rows)
		if err != nil {
			return nil, err
		}
		trackers = append(trackers, t)
	}
	return trackers, rows.Err()
}

// CountActive returns the number of active trackers.
func (r *TrackerRepository) CountActive(ctx context.Context, cohort string) (int, error) {
	var count int
	err := r.conn.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM trackers WHERE is_active AND ($1 = '' OR cohort = $1)`,
		cohort,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active trackers: %w", err)
	}
	return count, nil
}

// Count returns the total number of trackers.
func (r *TrackerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM trackers`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trackers: %w", err)
	}
	return count, nil
}

// CountUpdatedSince returns the number of active trackers updated at or
// after the given time.
func (r *TrackerRepository) CountUpdatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.conn.Pool().QueryRow(ctx,
		`SELECT COUNT(*) FROM trackers WHERE is_active AND updated_at >= $1`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recently updated trackers: %w", err)
	}
	return count, nil
}

// FindStale returns active trackers not updated since the given time.
func (r *TrackerRepository) FindStale(ctx context.Context, olderThan time.Time) ([]*tracker.Tracker, error) {
	query := `SELECT ` + trackerColumns + `
		FROM trackers
		WHERE is_active AND updated_at < $1
		ORDER BY updated_at ASC`

	rows, err := r.conn.Pool().Query(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale trackers: %w", err)
	}
	defer rows.Close()

	var trackers []*tracker.Tracker
	for rows.Next() {
		t, err := scanTracker(rows)
		if err != nil {
			return nil, err
		}
		trackers = append(trackers, t)
	}
	return trackers, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning helpers
// ─────────────────────────────────────────────────────────────────────────────

// trackerArgs flattens a tracker into the INSERT argument order, matching
// trackerColumns.
func trackerArgs(t *tracker.Tracker) []any {
	platforms := make([]string, 0, len(t.ActivePlatforms))
	for _, p := range t.ActivePlatforms {
		platforms = append(platforms, string(p))
	}
	return []any{
		t.ID, t.UserID,
		t.Usernames.LeetCode, t.Usernames.CodeForces, t.Usernames.CodeChef, t.Usernames.AtCoder,
		t.LeetCode.EasySolved, t.LeetCode.MediumSolved, t.LeetCode.HardSolved, t.LeetCode.TotalSolved,
		t.LeetCode.ContestSolved, t.LeetCode.PracticeSolved, t.LeetCode.ContestsAttended,
		t.LeetCode.CurrentRating, t.LeetCode.HighestRating, t.LeetCode.LastContestName, t.LeetCode.LastContestAt,
		t.CodeForces.Rating, t.CodeForces.MaxRating, t.CodeForces.Rank, t.CodeForces.Contests, t.CodeForces.ProblemsSolved,
		t.CodeChef.Rating, t.CodeChef.HighestRating, t.CodeChef.Stars, t.CodeChef.Contests, t.CodeChef.ProblemsSolved,
		t.AtCoder.Rating, t.AtCoder.MaxRating, t.AtCoder.Color, t.AtCoder.Contests, t.AtCoder.ProblemsSolved,
		t.LeetCodeScore, t.CodeForcesScore, t.CodeChefScore, t.AtCoderScore, t.PerformanceScore,
		platforms, t.IsActive, t.Cohort,
		t.CreatedAt, t.UpdatedAt, t.LastUserRefreshAt,
	}
}

// scanTracker reads one tracker row.
func scanTracker(row pgx.Row) (*tracker.Tracker, error) {
	var t tracker.Tracker
	var platforms []string

	err := row.Scan(
		&t.ID, &t.UserID,
		&t.Usernames.LeetCode, &t.Usernames.CodeForces, &t.Usernames.CodeChef, &t.Usernames.AtCoder,
		&t.LeetCode.EasySolved, &t.LeetCode.MediumSolved, &t.LeetCode.HardSolved, &t.LeetCode.TotalSolved,
		&t.LeetCode.ContestSolved, &t.LeetCode.PracticeSolved, &t.LeetCode.ContestsAttended,
		&t.LeetCode.CurrentRating, &t.LeetCode.HighestRating, &t.LeetCode.LastContestName, &t.LeetCode.LastContestAt,
		&t.CodeForces.Rating, &t.CodeForces.MaxRating, &t.CodeForces.Rank, &t.CodeForces.Contests, &t.CodeForces.ProblemsSolved,
		&t.CodeChef.Rating, &t.CodeChef.HighestRating, &t.CodeChef.Stars, &t.CodeChef.Contests, &t.CodeChef.ProblemsSolved,
		&t.AtCoder.Rating, &t.AtCoder.MaxRating, &t.AtCoder.Color, &t.AtCoder.Contests, &t.AtCoder.ProblemsSolved,
		&t.LeetCodeScore, &t.CodeForcesScore, &t.CodeChefScore, &t.AtCoderScore, &t.PerformanceScore,
		&platforms, &t.IsActive, &t.Cohort,
		&t.CreatedAt, &t.UpdatedAt, &t.LastUserRefreshAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tracker.ErrTrackerNotFound
		}
		return nil, fmt.Errorf("failed to scan tracker: %w", err)
	}

	t.ActivePlatforms = make([]tracker.Platform, 0, len(platforms))
	for _, p := range platforms {
		t.ActivePlatforms = append(t.ActivePlatforms, tracker.Platform(p))
	}
	return &t, nil
}
