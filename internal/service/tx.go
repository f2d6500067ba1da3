package service

import (
	"context"
	"time"

	"puglands_server/internal/domain"
	"puglands_server/internal/economy"
	"puglands_server/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// timeNow is the wall clock for accrual and expiry math. Tests may stub it.
var timeNow = time.Now

// Broadcaster receives post-commit snapshots. It must never fail or block a
// request; delivery is best-effort.
type Broadcaster interface {
	BroadcastUser(u *domain.User)
	BroadcastLands(lands []*domain.Land)
}

// NopBroadcaster drops all updates. Used where no push channel is wired.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastUser(*domain.User)    {}
func (NopBroadcaster) BroadcastLands([]*domain.Land) {}

// userTxFunc runs with the user row locked and pending income already folded
// into the snapshot. Returning an error aborts the whole transaction.
type userTxFunc func(ctx context.Context, tx pgx.Tx, u *domain.User, now time.Time) error

// runUserTx is the shared mutation discipline: open a transaction, lock the
// user row, apply lazy accrual against the user's current land count, run the
// operation, write the row back and commit. Nothing is ever written outside
// this path, and a validation failure leaves no partial state.
func runUserTx(
	ctx context.Context,
	db *pgxpool.Pool,
	users *repository.UserRepository,
	lands *repository.LandRepository,
	uid int64,
	fn userTxFunc,
) (*domain.User, error) {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, domain.ErrUnavailable
	}
	defer func() { _ = tx.Rollback(ctx) }()

	u, err := users.GetForUpdateTx(ctx, tx, uid)
	if err != nil {
		return nil, err
	}

	now := timeNow()

	rate, err := lands.SumRateByOwnerTx(ctx, tx, uid)
	if err != nil {
		return nil, err
	}

	earned := economy.Accrue(rate, u.LastSeen, now, u.BoostEndTime)
	u.Balance += earned
	if now.After(u.LastSeen) {
		u.LastSeen = now
	}

	if fn != nil {
		if err := fn(ctx, tx, u, now); err != nil {
			return nil, err
		}
	}

	if err := users.SaveStateTx(ctx, tx, u); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrUnavailable
	}

	return u, nil
}
