package repository

import (
	"context"
	"errors"

	"puglands_server/internal/domain"
	"puglands_server/internal/economy"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, COALESCE(email, ''), balance, COALESCE(pug_coins, 0), land_vouchers,
	last_seen, boost_end_time, range_boost_end_time,
	last_voucher_ad_watch, last_boost_ad_watch, last_range_boost_ad_watch, created_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Balance,
		&u.PugCoins,
		&u.LandVouchers,
		&u.LastSeen,
		&u.BoostEndTime,
		&u.RangeBoostEndTime,
		&u.LastVoucherAdWatch,
		&u.LastBoostAdWatch,
		&u.LastRangeBoostAdWatch,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user with the starting balance grant. The accrual
// watermark starts at row creation time.
func (r *UserRepository) Create(ctx context.Context, u *domain.User, passwordHash string) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, balance, last_seen)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING id, balance, last_seen, created_at`,
		u.Name, u.Email, passwordHash, economy.StartingBalance,
	).Scan(&u.ID, &u.Balance, &u.LastSeen, &u.CreatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user plus their password hash, for login.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, string, error) {
	var hash string
	err := r.db.QueryRow(ctx,
		`SELECT password_hash FROM users WHERE email = $1`, email).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", err
	}

	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, "", err
	}
	return u, hash, nil
}

// GetForUpdateTx locks the user row for the duration of tx. Every mutating
// operation starts here so that accrual and validation read fresh state.
func (r *UserRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.User, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	return scanUser(row)
}

// SaveStateTx writes back the mutable economy fields of a locked user row.
func (r *UserRepository) SaveStateTx(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	tag, err := tx.Exec(ctx,
		`UPDATE users SET
			balance = $1,
			pug_coins = $2,
			land_vouchers = $3,
			last_seen = $4,
			boost_end_time = $5,
			range_boost_end_time = $6,
			last_voucher_ad_watch = $7,
			last_boost_ad_watch = $8,
			last_range_boost_ad_watch = $9
		 WHERE id = $10`,
		u.Balance,
		u.PugCoins,
		u.LandVouchers,
		u.LastSeen,
		u.BoostEndTime,
		u.RangeBoostEndTime,
		u.LastVoucherAdWatch,
		u.LastBoostAdWatch,
		u.LastRangeBoostAdWatch,
		u.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateName changes the display name only. Land rows keep the owner name
// they were purchased under (it is a display cache, not the ownership
// relation).
func (r *UserRepository) UpdateName(ctx context.Context, id int64, name string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users SET name = $1 WHERE id = $2 RETURNING `+userColumns, name, id)
	return scanUser(row)
}
