package postgres

import (
	"context"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: TRACKERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001 = `
CREATE TABLE IF NOT EXISTS trackers (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL UNIQUE,

    leetcode_username VARCHAR(64) NOT NULL DEFAULT '',
    codeforces_username VARCHAR(64) NOT NULL DEFAULT '',
    codechef_username VARCHAR(64) NOT NULL DEFAULT '',
    atcoder_username VARCHAR(64) NOT NULL DEFAULT '',

    lc_easy_solved INTEGER NOT NULL DEFAULT 0,
    lc_medium_solved INTEGER NOT NULL DEFAULT 0,
    lc_hard_solved INTEGER NOT NULL DEFAULT 0,
    lc_total_solved INTEGER NOT NULL DEFAULT 0,
    lc_contest_solved INTEGER NOT NULL DEFAULT 0,
    lc_practice_solved INTEGER NOT NULL DEFAULT 0,
    lc_contests_attended INTEGER NOT NULL DEFAULT 0,
    lc_current_rating DECIMAL(10,2) NOT NULL DEFAULT 0,
    lc_highest_rating DECIMAL(10,2) NOT NULL DEFAULT 0,
    lc_last_contest_name VARCHAR(200) NOT NULL DEFAULT '',
    lc_last_contest_at TIMESTAMP WITH TIME ZONE,

    cf_rating INTEGER NOT NULL DEFAULT 0,
    cf_max_rating INTEGER NOT NULL DEFAULT 0,
    cf_rank VARCHAR(50) NOT NULL DEFAULT '',
    cf_contests INTEGER NOT NULL DEFAULT 0,
    cf_problems_solved INTEGER NOT NULL DEFAULT 0,

    cc_rating INTEGER NOT NULL DEFAULT 0,
    cc_highest_rating INTEGER NOT NULL DEFAULT 0,
    cc_stars INTEGER NOT NULL DEFAULT 0,
    cc_contests INTEGER NOT NULL DEFAULT 0,
    cc_problems_solved INTEGER NOT NULL DEFAULT 0,

    ac_rating INTEGER NOT NULL DEFAULT 0,
    ac_max_rating INTEGER NOT NULL DEFAULT 0,
    ac_color VARCHAR(20) NOT NULL DEFAULT '',
    ac_contests INTEGER NOT NULL DEFAULT 0,
    ac_problems_solved INTEGER NOT NULL DEFAULT 0,

    leetcode_score DECIMAL(12,2) NOT NULL DEFAULT 0,
    codeforces_score DECIMAL(12,2) NOT NULL DEFAULT 0,
    codechef_score DECIMAL(12,2) NOT NULL DEFAULT 0,
    atcoder_score DECIMAL(12,2) NOT NULL DEFAULT 0,
    performance_score DECIMAL(12,2) NOT NULL DEFAULT 0,

    active_platforms TEXT[] NOT NULL DEFAULT '{}',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    cohort VARCHAR(64) NOT NULL DEFAULT '',

    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_user_refresh_at TIMESTAMP WITH TIME ZONE
);

CREATE INDEX IF NOT EXISTS idx_trackers_user_id ON trackers(user_id);
CREATE INDEX IF NOT EXISTS idx_trackers_cohort ON trackers(cohort);
CREATE INDEX IF NOT EXISTS idx_trackers_updated_at ON trackers(updated_at);
CREATE INDEX IF NOT EXISTS idx_trackers_active_score
    ON trackers(performance_score DESC, created_at ASC) WHERE is_active;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: EDIT REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

const migration002 = `
CREATE TABLE IF NOT EXISTS edit_requests (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,

    current_leetcode VARCHAR(64) NOT NULL DEFAULT '',
    current_codeforces VARCHAR(64) NOT NULL DEFAULT '',
    current_codechef VARCHAR(64) NOT NULL DEFAULT '',
    current_atcoder VARCHAR(64) NOT NULL DEFAULT '',

    requested_leetcode VARCHAR(64) NOT NULL DEFAULT '',
    requested_codeforces VARCHAR(64) NOT NULL DEFAULT '',
    requested_codechef VARCHAR(64) NOT NULL DEFAULT '',
    requested_atcoder VARCHAR(64) NOT NULL DEFAULT '',

    reason TEXT NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    reviewed_by UUID,
    review_note TEXT NOT NULL DEFAULT '',
    reviewed_at TIMESTAMP WITH TIME ZONE,

    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_status CHECK (status IN ('pending', 'approved', 'rejected'))
);

CREATE INDEX IF NOT EXISTS idx_edit_requests_user_id ON edit_requests(user_id);
CREATE INDEX IF NOT EXISTS idx_edit_requests_status ON edit_requests(status, created_at DESC);
CREATE UNIQUE INDEX IF NOT EXISTS idx_edit_requests_one_pending
    ON edit_requests(user_id) WHERE status = 'pending';
`

// Migrate applies all migrations in order. Statements are idempotent, so
// re-running on startup is safe.
func Migrate(ctx context.Context, conn *Connection) error {
	migrations := []string{migration001, migration002}
	for i, migration := range migrations {
		if _, err := conn.Pool().Exec(ctx, migration); err != nil {
			return fmt.Errorf("postgres: migration %03d failed: %w", i+1, err)
		}
	}
	return nil
}
