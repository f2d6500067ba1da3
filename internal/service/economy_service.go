package service

import (
	"context"
	"sort"
	"time"

	"puglands_server/internal/domain"
	"puglands_server/internal/economy"
	"puglands_server/internal/geo"
	"puglands_server/internal/logger"
	"puglands_server/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EconomyService is the acquisition engine plus the read path that applies
// lazy accrual. All mutations follow read -> accrue -> validate -> commit ->
// broadcast.
type EconomyService struct {
	db           *pgxpool.Pool
	users        *repository.UserRepository
	lands        *repository.LandRepository
	transactions *repository.TransactionRepository
	broadcaster  Broadcaster
}

func NewEconomyService(db *pgxpool.Pool, broadcaster Broadcaster) *EconomyService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &EconomyService{
		db:           db,
		users:        repository.NewUserRepository(db),
		lands:        repository.NewLandRepository(db),
		transactions: repository.NewTransactionRepository(db),
		broadcaster:  broadcaster,
	}
}

// GetUser returns the canonical user snapshot with pending income applied.
// Re-reading without wall-clock advance is a no-op on the balance.
func (s *EconomyService) GetUser(ctx context.Context, uid int64) (*domain.User, error) {
	u, err := runUserTx(ctx, s.db, s.users, s.lands, uid, nil)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastUser(u)
	return u, nil
}

func (s *EconomyService) GetAllLands(ctx context.Context) ([]*domain.Land, error) {
	return s.lands.GetAll(ctx)
}

func (s *EconomyService) GetUserLands(ctx context.Context, uid int64) ([]*domain.Land, error) {
	return s.lands.GetByOwner(ctx, uid)
}

// AcquireLand claims a single cell by purchase or voucher. The lands primary
// key closes the check-then-act race: of two concurrent buyers exactly one
// insert commits and the other caller gets AlreadyOwned.
func (s *EconomyService) AcquireLand(ctx context.Context, uid int64, gx, gy int, method domain.AcquireMethod) (*domain.User, *domain.Land, error) {
	if method != domain.AcquireBuy && method != domain.AcquireVoucher {
		return nil, nil, domain.ErrInvalidArgument
	}
	if !geo.ValidCell(gx, gy) {
		return nil, nil, domain.ErrInvalidArgument
	}

	var land *domain.Land

	u, err := runUserTx(ctx, s.db, s.users, s.lands, uid,
		func(ctx context.Context, tx pgx.Tx, u *domain.User, now time.Time) error {
			txType := domain.TxTypeLandBuy
			debit := -economy.LandCost
			switch method {
			case domain.AcquireBuy:
				if u.Balance < economy.LandCost {
					return domain.ErrInsufficientFunds
				}
				u.Balance -= economy.LandCost
			case domain.AcquireVoucher:
				if u.LandVouchers < 1 {
					return domain.ErrInsufficientVouchers
				}
				u.LandVouchers--
				txType = domain.TxTypeLandVoucher
				debit = 0
			}

			land = &domain.Land{
				GX:          gx,
				GY:          gy,
				PPS:         economy.LandPPS,
				OwnerID:     u.ID,
				OwnerName:   u.Name,
				PurchasedAt: now,
			}
			if err := s.lands.InsertTx(ctx, tx, land); err != nil {
				return err
			}

			return s.transactions.CreateWithTx(ctx, tx, &domain.Transaction{
				UserID: u.ID,
				Type:   txType,
				Amount: debit,
				Meta:   map[string]interface{}{"gx": gx, "gy": gy, "method": string(method)},
			})
		})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("land acquired", "user_id", uid, "gx", gx, "gy", gy, "method", method)

	s.broadcaster.BroadcastUser(u)
	s.broadcaster.BroadcastLands([]*domain.Land{land})

	return u, land, nil
}

// BulkClaim spends one voucher per plot and claims all of them or none. Any
// already-owned cell aborts the whole batch naming the conflicting cell; a
// partial claim would leave the client guessing which plots it got.
func (s *EconomyService) BulkClaim(ctx context.Context, uid int64, plots []domain.Plot) (*domain.User, []*domain.Land, error) {
	plots, err := normalizePlots(plots)
	if err != nil {
		return nil, nil, err
	}

	var claimed []*domain.Land

	u, err := runUserTx(ctx, s.db, s.users, s.lands, uid,
		func(ctx context.Context, tx pgx.Tx, u *domain.User, now time.Time) error {
			if u.LandVouchers < len(plots) {
				return domain.ErrInsufficientVouchers
			}

			// The client's spatial search is advisory; each plot is
			// re-validated here through the insert itself.
			for _, p := range plots {
				land := &domain.Land{
					GX:          p.GX,
					GY:          p.GY,
					PPS:         economy.LandPPS,
					OwnerID:     u.ID,
					OwnerName:   u.Name,
					PurchasedAt: now,
				}
				if err := s.lands.InsertTx(ctx, tx, land); err != nil {
					claimed = nil
					return err
				}
				claimed = append(claimed, land)
			}

			u.LandVouchers -= len(plots)

			return s.transactions.CreateWithTx(ctx, tx, &domain.Transaction{
				UserID: u.ID,
				Type:   domain.TxTypeBulkClaim,
				Amount: 0,
				Meta:   map[string]interface{}{"plots": len(plots)},
			})
		})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("bulk claim", "user_id", uid, "plots", len(claimed))

	s.broadcaster.BroadcastUser(u)
	s.broadcaster.BroadcastLands(claimed)

	return u, claimed, nil
}

// normalizePlots validates a bulk-claim batch and fixes its order. Inserting
// in (gx, gy) order means two overlapping batches always lock contended cells
// in the same sequence, so they cannot deadlock on each other.
func normalizePlots(plots []domain.Plot) ([]domain.Plot, error) {
	if len(plots) == 0 || len(plots) > economy.MaxBulkPlots {
		return nil, domain.ErrInvalidArgument
	}

	seen := make(map[domain.Plot]struct{}, len(plots))
	out := make([]domain.Plot, 0, len(plots))
	for _, p := range plots {
		if !geo.ValidCell(p.GX, p.GY) {
			return nil, domain.ErrInvalidArgument
		}
		if _, dup := seen[p]; dup {
			return nil, domain.ErrInvalidArgument
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].GX != out[j].GX {
			return out[i].GX < out[j].GX
		}
		return out[i].GY < out[j].GY
	})
	return out, nil
}

// ExchangePugCoins converts premium currency to pugbucks at the fixed rate.
func (s *EconomyService) ExchangePugCoins(ctx context.Context, uid int64, amount float64) (*domain.User, error) {
	if amount < 1 {
		return nil, domain.ErrInvalidArgument
	}

	u, err := runUserTx(ctx, s.db, s.users, s.lands, uid,
		func(ctx context.Context, tx pgx.Tx, u *domain.User, now time.Time) error {
			if u.PugCoins < amount {
				return domain.ErrInsufficientFunds
			}
			u.PugCoins -= amount
			u.Balance += amount * economy.ExchangeRate

			return s.transactions.CreateWithTx(ctx, tx, &domain.Transaction{
				UserID: u.ID,
				Type:   domain.TxTypeExchange,
				Amount: amount * economy.ExchangeRate,
				Meta:   map[string]interface{}{"pug_coins": amount},
			})
		})
	if err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastUser(u)
	return u, nil
}

// GrantPugbucks credits soft currency directly. The boundary must gate this
// on an admin identity check; the service only applies the credit.
func (s *EconomyService) GrantPugbucks(ctx context.Context, uid int64, amount float64) (*domain.User, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	u, err := runUserTx(ctx, s.db, s.users, s.lands, uid,
		func(ctx context.Context, tx pgx.Tx, u *domain.User, now time.Time) error {
			u.Balance += amount

			return s.transactions.CreateWithTx(ctx, tx, &domain.Transaction{
				UserID: u.ID,
				Type:   domain.TxTypeAdminGrant,
				Amount: amount,
			})
		})
	if err != nil {
		return nil, err
	}

	logger.Info("admin grant", "user_id", uid, "amount", amount)

	s.broadcaster.BroadcastUser(u)
	return u, nil
}
