package repository

import (
	"context"
	"errors"

	"puglands_server/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const landColumns = `gx, gy, pps, owner_id, owner_name, purchased_at`

type LandRepository struct {
	db *pgxpool.Pool
}

func NewLandRepository(db *pgxpool.Pool) *LandRepository {
	return &LandRepository{db: db}
}

func scanLands(rows pgx.Rows) ([]*domain.Land, error) {
	defer rows.Close()

	var res []*domain.Land
	for rows.Next() {
		var l domain.Land
		if err := rows.Scan(&l.GX, &l.GY, &l.PPS, &l.OwnerID, &l.OwnerName, &l.PurchasedAt); err != nil {
			return nil, err
		}
		res = append(res, &l)
	}
	return res, rows.Err()
}

func (r *LandRepository) GetAll(ctx context.Context) ([]*domain.Land, error) {
	rows, err := r.db.Query(ctx, `SELECT `+landColumns+` FROM lands`)
	if err != nil {
		return nil, err
	}
	return scanLands(rows)
}

func (r *LandRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*domain.Land, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+landColumns+` FROM lands WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, err
	}
	return scanLands(rows)
}

func (r *LandRepository) Get(ctx context.Context, gx, gy int) (*domain.Land, error) {
	var l domain.Land
	err := r.db.QueryRow(ctx,
		`SELECT `+landColumns+` FROM lands WHERE gx = $1 AND gy = $2`, gx, gy,
	).Scan(&l.GX, &l.GY, &l.PPS, &l.OwnerID, &l.OwnerName, &l.PurchasedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// SumRateByOwnerTx totals the per-plot income rates of a user's holdings
// inside tx. Each plot accrues at the pps stored when it was purchased, so
// re-rating a constant never touches already-sold land. The caller holds the
// user row lock, which keeps the sum stable against that user's own
// acquisitions for the life of the transaction.
func (r *LandRepository) SumRateByOwnerTx(ctx context.Context, tx pgx.Tx, ownerID int64) (float64, error) {
	var rate float64
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(pps), 0) FROM lands WHERE owner_id = $1`, ownerID).Scan(&rate)
	return rate, err
}

// InsertTx creates the land row. The primary key on (gx, gy) decides races:
// the first committed insert owns the cell and any concurrent insert comes
// back as AlreadyOwnedError.
func (r *LandRepository) InsertTx(ctx context.Context, tx pgx.Tx, l *domain.Land) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO lands (gx, gy, pps, owner_id, owner_name, purchased_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING purchased_at`,
		l.GX, l.GY, l.PPS, l.OwnerID, l.OwnerName, l.PurchasedAt,
	).Scan(&l.PurchasedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return &domain.AlreadyOwnedError{GX: l.GX, GY: l.GY}
			case "40001", "40P01":
				// Serialization failure or deadlock: the batch rolled
				// back cleanly and the caller may retry it.
				return domain.ErrConflict
			}
		}
		return err
	}
	return nil
}
