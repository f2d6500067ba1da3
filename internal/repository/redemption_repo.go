package repository

import (
	"context"
	"errors"

	"puglands_server/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RedemptionRepository struct {
	db *pgxpool.Pool
}

func NewRedemptionRepository(db *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

// HasPendingTx reports whether the user already has a pending request. It is
// called under the user row lock, so submit/submit races on the same user
// serialize before this check.
func (r *RedemptionRepository) HasPendingTx(ctx context.Context, tx pgx.Tx, userID int64) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM redemption_requests WHERE user_id = $1 AND status = 'pending')`,
		userID).Scan(&exists)
	return exists, err
}

func (r *RedemptionRepository) InsertTx(ctx context.Context, tx pgx.Tx, req *domain.RedemptionRequest) error {
	return tx.QueryRow(ctx,
		`INSERT INTO redemption_requests (user_id, amount, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING id, status, requested_at`,
		req.UserID, req.Amount,
	).Scan(&req.ID, &req.Status, &req.RequestedAt)
}

func (r *RedemptionRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.RedemptionRequest, error) {
	var req domain.RedemptionRequest
	err := tx.QueryRow(ctx,
		`SELECT id, user_id, amount, status, requested_at
		 FROM redemption_requests WHERE id = $1 FOR UPDATE`, id,
	).Scan(&req.ID, &req.UserID, &req.Amount, &req.Status, &req.RequestedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ResolveTx flips a pending request to its terminal status. The guard on
// status = 'pending' makes the transition one-shot even under double submits
// from the review tooling.
func (r *RedemptionRepository) ResolveTx(ctx context.Context, tx pgx.Tx, id int64, status domain.RedemptionStatus) error {
	tag, err := tx.Exec(ctx,
		`UPDATE redemption_requests SET status = $1 WHERE id = $2 AND status = 'pending'`,
		status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *RedemptionRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.RedemptionRequest, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, amount, status, requested_at
		 FROM redemption_requests
		 WHERE user_id = $1
		 ORDER BY requested_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.RedemptionRequest
	for rows.Next() {
		var req domain.RedemptionRequest
		if err := rows.Scan(&req.ID, &req.UserID, &req.Amount, &req.Status, &req.RequestedAt); err != nil {
			return nil, err
		}
		res = append(res, &req)
	}
	return res, rows.Err()
}
