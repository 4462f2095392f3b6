package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cptrack/cptrack-hub/internal/domain/tracker"
)

// EditRequestRepository implements tracker.EditRequestRepository on PostgreSQL.
type EditRequestRepository struct {
	conn *Connection
}

// NewEditRequestRepository creates an edit request repository.
func NewEditRequestRepository(conn *Connection) *EditRequestRepository {
	return &EditRequestRepository{conn: conn}
}

const editRequestColumns = `
	id, user_id,
	current_leetcode, current_codeforces, current_codechef, current_atcoder,
	requested_leetcode, requested_codeforces, requested_codechef, requested_atcoder,
	reason, status, reviewed_by, review_note, reviewed_at,
	created_at, updated_at`

// Create stores a new edit request. The partial unique index on pending
// requests turns a second pending request for the same user into
// ErrPendingEditRequest.
func (r *EditRequestRepository) Create(ctx context.Context, req *tracker.EditRequest) error {
	query := `
		INSERT INTO edit_requests (` + editRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.conn.Pool().Exec(ctx, query,
		req.ID, req.UserID,
		req.CurrentUsernames.LeetCode, req.CurrentUsernames.CodeForces,
		req.CurrentUsernames.CodeChef, req.CurrentUsernames.AtCoder,
		req.RequestedUsernames.LeetCode, req.RequestedUsernames.CodeForces,
		req.RequestedUsernames.CodeChef, req.RequestedUsernames.AtCoder,
		req.Reason, req.Status, req.ReviewedBy, req.ReviewNote, req.ReviewedAt,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return tracker.ErrPendingEditRequest
		}
		return fmt.Errorf("failed to create edit request: %w", err)
	}
	return nil
}

// GetByID returns an edit request by its identifier.
func (r *EditRequestRepository) GetByID(ctx context.Context, id string) (*tracker.EditRequest, error) {
	query := `SELECT ` + editRequestColumns + ` FROM edit_requests WHERE id = $1`
	return scanEditRequest(r.conn.Pool().QueryRow(ctx, query, id))
}

// GetPendingByUserID returns the user's pending edit request, if any.
func (r *EditRequestRepository) GetPendingByUserID(ctx context.Context, userID string) (*tracker.EditRequest, error) {
	query := `SELECT ` + editRequestColumns + `
		FROM edit_requests
		WHERE user_id = $1 AND status = 'pending'`
	return scanEditRequest(r.conn.Pool().QueryRow(ctx, query, userID))
}

// ListByStatus returns edit requests in the given state, newest first.
func (r *EditRequestRepository) ListByStatus(ctx context.Context, status tracker.EditRequestStatus, opts tracker.ListOptions) ([]*tracker.EditRequest, error) {
	query := `SELECT ` + editRequestColumns + `
		FROM edit_requests
		WHERE status = $1
		ORDER BY created_at DESC`
	args := []any{status}

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.conn.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list edit requests: %w", err)
	}
	defer rows.Close()

	var requests []*tracker.EditRequest
	for rows.Next() {
		req, err := scanEditRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Update persists the review outcome of an edit request.
func (r *EditRequestRepository) Update(ctx context.Context, req *tracker.EditRequest) error {
	query := `
		UPDATE edit_requests SET
			status = $2, reviewed_by = $3, review_note = $4,
			reviewed_at = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.conn.Pool().Exec(ctx, query,
		req.ID, req.Status, req.ReviewedBy, req.ReviewNote,
		req.ReviewedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update edit request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return tracker.ErrEditRequestNotFound
	}
	return nil
}

// scanEditRequest reads one edit request row.
func scanEditRequest(row pgx.Row) (*tracker.EditRequest, error) {
	var req tracker.EditRequest

	err := row.Scan(
		&req.ID, &req.UserID,
		&req.CurrentUsernames.LeetCode, &req.CurrentUsernames.CodeForces,
		&req.CurrentUsernames.CodeChef, &req.CurrentUsernames.AtCoder,
		&req.RequestedUsernames.LeetCode, &req.RequestedUsernames.CodeForces,
		&req.RequestedUsernames.CodeChef, &req.RequestedUsernames.AtCoder,
		&req.Reason, &req.Status, &req.ReviewedBy, &req.ReviewNote, &req.ReviewedAt,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tracker.ErrEditRequestNotFound
		}
		return nil, fmt.Errorf("failed to scan edit request: %w", err)
	}
	return &req, nil
}
