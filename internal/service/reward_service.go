package service

import (
	"context"
	"time"

	"puglands_server/internal/domain"
	"puglands_server/internal/economy"
	"puglands_server/internal/logger"
	"puglands_server/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RewardKind identifies which ad-reward cooldown gates a grant.
type RewardKind string

const (
	RewardVoucher    RewardKind = "voucher"
	RewardBoost      RewardKind = "boost"
	RewardRangeBoost RewardKind = "range_boost"
)

// RewardService manages the time-boxed boosts, ad-gated voucher grants and
// the redemption workflow. "Ad watched" is an untrusted external signal; the
// only contract here is that a reward is granted when its cooldown elapsed.
type RewardService struct {
	db           *pgxpool.Pool
	users        *repository.UserRepository
	lands        *repository.LandRepository
	redemptions  *repository.RedemptionRepository
	transactions *repository.TransactionRepository
	broadcaster  Broadcaster
}

func NewRewardService(db *pgxpool.Pool, broadcaster Broadcaster) *RewardService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &RewardService{
		db:           db,
		users:        repository.NewUserRepository(db),
		lands:        repository.NewLandRepository(db),
		redemptions:  repository.NewRedemptionRepository(db),
		transactions: repository.NewTransactionRepository(db),
		broadcaster:  broadcaster,
	}
}

// OnRewardConfirmed is the entry point the ad collaborator calls once a
// rewarded view completes.
func (s *RewardService) OnRewardConfirmed(ctx context.Context, uid int64, kind RewardKind) (*domain.User, error) {
	switch kind {
	case RewardVoucher:
		return s.GrantVoucher(ctx, uid)
	case RewardBoost:
		return s.GrantBoost(ctx, uid)
	case RewardRangeBoost:
		return s.GrantRangeBoost(ctx, uid)
	default:
		return nil, domain.ErrInvalidArgument
	}
}

// GrantVoucher adds one land voucher, gated by the voucher ad cooldown.
func (s *RewardService) GrantVoucher(ctx context.Context, uid int64) (*domain.User, error) {
	return s.grant(ctx, uid, RewardVoucher,
		func(u *domain.User, now time.Time) error {
			if !economy.CooldownOver(u.LastVoucherAdWatch, now) {
				return domain.ErrCooldownActive
			}
			watched := now
			u.LastVoucherAdWatch = &watched
			u.LandVouchers++
			return nil
		})
}

// GrantBoost starts a fresh income boost window. An active boost is replaced,
// not extended.
func (s *RewardService) GrantBoost(ctx context.Context, uid int64) (*domain.User, error) {
	return s.grant(ctx, uid, RewardBoost,
		func(u *domain.User, now time.Time) error {
			if !economy.CooldownOver(u.LastBoostAdWatch, now) {
				return domain.ErrCooldownActive
			}
			watched := now
			end := now.Add(economy.BoostDuration)
			u.LastBoostAdWatch = &watched
			u.BoostEndTime = &end
			return nil
		})
}

// GrantRangeBoost widens the claim radius for a fixed window.
func (s *RewardService) GrantRangeBoost(ctx context.Context, uid int64) (*domain.User, error) {
	return s.grant(ctx, uid, RewardRangeBoost,
		func(u *domain.User, now time.Time) error {
			if !economy.CooldownOver(u.LastRangeBoostAdWatch, now) {
				return domain.ErrCooldownActive
			}
			watched := now
			end := now.Add(economy.RangeBoostDuration)
			u.LastRangeBoostAdWatch = &watched
			u.RangeBoostEndTime = &end
			return nil
		})
}

func (s *RewardService) grant(ctx context.Context, uid int64, kind RewardKind, apply func(u *domain.User, now time.Time) error) (*domain.User, error) {
	u, err := runUserTx(ctx, s.db, s.users, s.lands, uid,
		func(ctx context.Context, tx pgx.Tx, u *domain.User, now time.Time) error {
			return apply(u, now)
		})
	if err != nil {
		return nil, err
	}

	logger.Info("reward granted", "user_id", uid, "kind", kind)

	s.broadcaster.BroadcastUser(u)
	return u, nil
}

// SubmitRedemption debits pug coins and enqueues a pending cash-out request
// in one transaction. At most one pending request per user; the check runs
// under the user row lock so two concurrent submits serialize.
func (s *RewardService) SubmitRedemption(ctx context.Context, uid int64, amount float64) (*domain.User, *domain.RedemptionRequest, error) {
	if amount < economy.RedeemMin || amount > economy.RedeemMax {
		return nil, nil, domain.ErrInvalidArgument
	}

	var req *domain.RedemptionRequest

	u, err := runUserTx(ctx, s.db, s.users, s.lands, uid,
		func(ctx context.Context, tx pgx.Tx, u *domain.User, now time.Time) error {
			pending, err := s.redemptions.HasPendingTx(ctx, tx, uid)
			if err != nil {
				return err
			}
			if pending {
				return domain.ErrPendingRequestExists
			}

			if u.PugCoins < amount {
				return domain.ErrInsufficientFunds
			}
			u.PugCoins -= amount

			req = &domain.RedemptionRequest{UserID: uid, Amount: amount}
			if err := s.redemptions.InsertTx(ctx, tx, req); err != nil {
				return err
			}

			return s.transactions.CreateWithTx(ctx, tx, &domain.Transaction{
				UserID: uid,
				Type:   domain.TxTypeRedemption,
				Amount: -amount,
				Meta:   map[string]interface{}{"request_id": req.ID},
			})
		})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("redemption submitted", "user_id", uid, "amount", amount, "request_id", req.ID)

	s.broadcaster.BroadcastUser(u)
	return u, req, nil
}

// ResolveRedemption is the external-reviewer transition: pending -> approved
// leaves the debit in place, pending -> rejected credits it back. Both are
// terminal.
func (s *RewardService) ResolveRedemption(ctx context.Context, requestID int64, approve bool) (*domain.RedemptionRequest, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, domain.ErrUnavailable
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := s.redemptions.GetForUpdateTx(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RedemptionPending {
		return nil, domain.ErrConflict
	}

	status := domain.RedemptionApproved
	if !approve {
		status = domain.RedemptionRejected
	}

	if err := s.redemptions.ResolveTx(ctx, tx, requestID, status); err != nil {
		return nil, err
	}

	var refunded *domain.User
	if !approve {
		u, err := s.users.GetForUpdateTx(ctx, tx, req.UserID)
		if err != nil {
			return nil, err
		}
		u.PugCoins += req.Amount
		if err := s.users.SaveStateTx(ctx, tx, u); err != nil {
			return nil, err
		}
		if err := s.transactions.CreateWithTx(ctx, tx, &domain.Transaction{
			UserID: req.UserID,
			Type:   domain.TxTypeRedemptionRefund,
			Amount: req.Amount,
			Meta:   map[string]interface{}{"request_id": req.ID},
		}); err != nil {
			return nil, err
		}
		refunded = u
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrUnavailable
	}

	req.Status = status
	logger.Info("redemption resolved", "request_id", requestID, "status", status)

	if refunded != nil {
		s.broadcaster.BroadcastUser(refunded)
	}
	return req, nil
}

// ListRedemptions returns a user's redemption history, newest first.
func (s *RewardService) ListRedemptions(ctx context.Context, uid int64, limit int) ([]*domain.RedemptionRequest, error) {
	return s.redemptions.ListByUser(ctx, uid, limit)
}
