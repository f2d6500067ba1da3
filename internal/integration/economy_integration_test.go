package integration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"puglands_server/internal/domain"
	"puglands_server/internal/economy"
	"puglands_server/internal/repository"
	"puglands_server/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func applyMigrations(t *testing.T, db *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "..", "internal", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := db.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	applyMigrations(t, db)
	return db
}

var userSeq int64

func createUser(t *testing.T, db *pgxpool.Pool) *domain.User {
	t.Helper()
	userSeq++
	u := &domain.User{
		Name:  fmt.Sprintf("tester%d", userSeq),
		Email: fmt.Sprintf("tester%d-%d@example.com", userSeq, time.Now().UnixNano()),
	}
	repo := repository.NewUserRepository(db)
	if err := repo.Create(context.Background(), u, "x"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func setPugCoins(t *testing.T, db *pgxpool.Pool, uid int64, amount float64) {
	t.Helper()
	if _, err := db.Exec(context.Background(),
		`UPDATE users SET pug_coins = $1 WHERE id = $2`, amount, uid); err != nil {
		t.Fatalf("set pug coins: %v", err)
	}
}

func freshCell(t *testing.T) (int, int) {
	t.Helper()
	// high-latitude cells no real player would claim; unique per call
	return int(time.Now().UnixNano() % 1000000), 1100000 + rand.Intn(150000)
}

func TestGetUser_IdempotentAccrual(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)
	u := createUser(t, db)

	// No lands, so the rate is zero and repeated reads must not move the
	// balance at all.
	first, err := svc.GetUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	second, err := svc.GetUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}

	if first.Balance != second.Balance {
		t.Fatalf("balance drifted across reads: %v then %v", first.Balance, second.Balance)
	}
	if second.LastSeen.Before(first.LastSeen) {
		t.Fatal("accrual watermark moved backwards")
	}
}

func TestAccrual_NoDoubleCounting(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)
	u := createUser(t, db)

	// One owned plot, watermark pushed 1000s into the past.
	if _, _, err := svc.AcquireLand(context.Background(), u.ID, mustCell(t), mustCellY(t), domain.AcquireBuy); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := db.Exec(context.Background(),
		`UPDATE users SET last_seen = now() - interval '1000 seconds' WHERE id = $1`, u.ID); err != nil {
		t.Fatalf("rewind watermark: %v", err)
	}

	got, err := svc.GetUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}

	// Starting balance minus land cost plus ~1000s of single-plot income.
	base := economy.StartingBalance - economy.LandCost
	want := base + 1000*economy.LandPPS
	if math.Abs(got.Balance-want) > economy.LandPPS*10 {
		t.Fatalf("balance %v, want ~%v", got.Balance, want)
	}

	// An immediate re-read may earn at most a moment of real income, never
	// the 1000s again.
	again, err := svc.GetUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if again.Balance-got.Balance > 10*economy.LandPPS {
		t.Fatalf("income double-applied: %v -> %v", got.Balance, again.Balance)
	}
}

func TestAccrual_UsesStoredPlotRates(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)
	u := createUser(t, db)

	user, land, err := svc.AcquireLand(context.Background(), u.ID, mustCell(t), mustCellY(t), domain.AcquireBuy)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// A plot's rate is fixed at purchase. Re-rate this one directly and the
	// accrual must follow the stored value, not the current constant.
	if _, err := db.Exec(context.Background(),
		`UPDATE lands SET pps = 0.5 WHERE gx = $1 AND gy = $2`, land.GX, land.GY); err != nil {
		t.Fatalf("re-rate plot: %v", err)
	}
	if _, err := db.Exec(context.Background(),
		`UPDATE users SET last_seen = now() - interval '100 seconds' WHERE id = $1`, u.ID); err != nil {
		t.Fatalf("rewind watermark: %v", err)
	}

	got, err := svc.GetUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}

	want := user.Balance + 100*0.5
	if math.Abs(got.Balance-want) > 1 {
		t.Fatalf("balance %v, want ~%v (stored pps ignored)", got.Balance, want)
	}
}

func TestAccrual_BoostSplitAgainstStore(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)
	u := createUser(t, db)

	if _, _, err := svc.AcquireLand(context.Background(), u.ID, mustCell(t), mustCellY(t), domain.AcquireBuy); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// Window opened 50s ago; boost covered the first 30s of it.
	if _, err := db.Exec(context.Background(),
		`UPDATE users SET last_seen = now() - interval '50 seconds',
		  boost_end_time = now() - interval '20 seconds' WHERE id = $1`, u.ID); err != nil {
		t.Fatalf("set window: %v", err)
	}

	got, err := svc.GetUser(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}

	r := economy.LandPPS
	base := economy.StartingBalance - economy.LandCost
	want := base + 30*r*economy.BoostMultiplier + 20*r
	if math.Abs(got.Balance-want) > r*economy.BoostMultiplier*2 {
		t.Fatalf("balance %v, want ~%v", got.Balance, want)
	}
}

func mustCell(t *testing.T) int {
	gx, _ := freshCell(t)
	return gx
}

func mustCellY(t *testing.T) int {
	_, gy := freshCell(t)
	return gy
}

func TestAcquireLand_ExclusiveUnderContention(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)

	const n = 8
	users := make([]*domain.User, n)
	for i := range users {
		users[i] = createUser(t, db)
	}

	gx, gy := freshCell(t)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.AcquireLand(context.Background(), users[i].ID, gx, gy, domain.AcquireBuy)
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	var winner int64
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
			winner = users[i].ID
		case errors.Is(err, domain.ErrAlreadyOwned):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if wins != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 winner and %d conflicts, got %d/%d", n-1, wins, conflicts)
	}

	land, err := repository.NewLandRepository(db).Get(context.Background(), gx, gy)
	if err != nil {
		t.Fatalf("get land: %v", err)
	}
	if land.OwnerID != winner {
		t.Fatalf("land owned by %d, expected winner %d", land.OwnerID, winner)
	}
}

func TestAcquireLand_InsufficientFunds(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)
	u := createUser(t, db)

	// Starting balance covers exactly one plot.
	if _, _, err := svc.AcquireLand(context.Background(), u.ID, mustCell(t), mustCellY(t), domain.AcquireBuy); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	_, _, err := svc.AcquireLand(context.Background(), u.ID, mustCell(t), mustCellY(t), domain.AcquireBuy)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestAcquireLand_RejectsOffWorldCoordinates(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)
	u := createUser(t, db)

	_, _, err := svc.AcquireLand(context.Background(), u.ID, 0, 100000000, domain.AcquireBuy)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestAcquireLand_VoucherPath(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)
	u := createUser(t, db)

	_, _, err := svc.AcquireLand(context.Background(), u.ID, mustCell(t), mustCellY(t), domain.AcquireVoucher)
	if !errors.Is(err, domain.ErrInsufficientVouchers) {
		t.Fatalf("expected insufficient vouchers, got %v", err)
	}

	if _, err := db.Exec(context.Background(),
		`UPDATE users SET land_vouchers = 1 WHERE id = $1`, u.ID); err != nil {
		t.Fatalf("grant voucher: %v", err)
	}

	user, land, err := svc.AcquireLand(context.Background(), u.ID, mustCell(t), mustCellY(t), domain.AcquireVoucher)
	if err != nil {
		t.Fatalf("voucher acquire: %v", err)
	}
	if user.LandVouchers != 0 {
		t.Fatalf("voucher not spent: %d left", user.LandVouchers)
	}
	if math.Abs(user.Balance-economy.StartingBalance) > 1e-6 {
		t.Fatalf("voucher claim touched the balance: %v", user.Balance)
	}
	if land.OwnerID != u.ID {
		t.Fatalf("land owner %d, want %d", land.OwnerID, u.ID)
	}
}

func TestBulkClaim_AllOrNothing(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)

	owner := createUser(t, db)
	claimer := createUser(t, db)

	if _, err := db.Exec(context.Background(),
		`UPDATE users SET land_vouchers = 5 WHERE id = $1`, claimer.ID); err != nil {
		t.Fatalf("grant vouchers: %v", err)
	}

	gx, gy := freshCell(t)
	plots := []domain.Plot{
		{GX: gx, GY: gy}, {GX: gx + 1, GY: gy}, {GX: gx + 2, GY: gy},
		{GX: gx + 3, GY: gy}, {GX: gx + 4, GY: gy},
	}

	// The 3rd plot is already owned by someone else.
	if _, err := db.Exec(context.Background(),
		`UPDATE users SET land_vouchers = 1 WHERE id = $1`, owner.ID); err != nil {
		t.Fatalf("grant voucher: %v", err)
	}
	if _, _, err := svc.AcquireLand(context.Background(), owner.ID, gx+2, gy, domain.AcquireVoucher); err != nil {
		t.Fatalf("pre-own plot: %v", err)
	}

	_, _, err := svc.BulkClaim(context.Background(), claimer.ID, plots)

	var owned *domain.AlreadyOwnedError
	if !errors.As(err, &owned) {
		t.Fatalf("expected AlreadyOwnedError, got %v", err)
	}
	if owned.GX != gx+2 || owned.GY != gy {
		t.Fatalf("conflict reported at (%d,%d), want (%d,%d)", owned.GX, owned.GY, gx+2, gy)
	}

	// Vouchers untouched, and none of the other four plots claimed.
	after, err := repository.NewUserRepository(db).GetByID(context.Background(), claimer.ID)
	if err != nil {
		t.Fatalf("reload claimer: %v", err)
	}
	if after.LandVouchers != 5 {
		t.Fatalf("vouchers changed by failed bulk claim: %d", after.LandVouchers)
	}

	lands, err := repository.NewLandRepository(db).GetByOwner(context.Background(), claimer.ID)
	if err != nil {
		t.Fatalf("list lands: %v", err)
	}
	if len(lands) != 0 {
		t.Fatalf("partial bulk claim: %d plots created", len(lands))
	}
}

func TestBulkClaim_Succeeds(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)
	u := createUser(t, db)

	if _, err := db.Exec(context.Background(),
		`UPDATE users SET land_vouchers = 3 WHERE id = $1`, u.ID); err != nil {
		t.Fatalf("grant vouchers: %v", err)
	}

	gx, gy := freshCell(t)
	plots := []domain.Plot{{GX: gx, GY: gy}, {GX: gx + 1, GY: gy}, {GX: gx + 2, GY: gy}}

	user, lands, err := svc.BulkClaim(context.Background(), u.ID, plots)
	if err != nil {
		t.Fatalf("bulk claim: %v", err)
	}
	if user.LandVouchers != 0 {
		t.Fatalf("expected all vouchers spent, %d left", user.LandVouchers)
	}
	if len(lands) != 3 {
		t.Fatalf("expected 3 lands, got %d", len(lands))
	}
}

func TestGrantVoucher_CooldownGate(t *testing.T) {
	db := setupDB(t)
	svc := service.NewRewardService(db, nil)
	u := createUser(t, db)

	user, err := svc.GrantVoucher(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("first grant: %v", err)
	}
	if user.LandVouchers != 1 {
		t.Fatalf("expected 1 voucher, got %d", user.LandVouchers)
	}

	_, err = svc.GrantVoucher(context.Background(), u.ID)
	if !errors.Is(err, domain.ErrCooldownActive) {
		t.Fatalf("expected cooldown, got %v", err)
	}

	after, err := repository.NewUserRepository(db).GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.LandVouchers != 1 {
		t.Fatalf("failed grant changed vouchers: %d", after.LandVouchers)
	}

	// Cooldowns are independent per reward kind.
	if _, err := svc.GrantBoost(context.Background(), u.ID); err != nil {
		t.Fatalf("boost should not share the voucher cooldown: %v", err)
	}

	// After the window passes the voucher grant works again.
	if _, err := db.Exec(context.Background(),
		`UPDATE users SET last_voucher_ad_watch = now() - interval '24 hours' WHERE id = $1`, u.ID); err != nil {
		t.Fatalf("age watermark: %v", err)
	}
	user, err = svc.GrantVoucher(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("grant after window: %v", err)
	}
	if user.LandVouchers != 2 {
		t.Fatalf("expected 2 vouchers, got %d", user.LandVouchers)
	}
}

func TestGrantBoost_ReplacesActiveWindow(t *testing.T) {
	db := setupDB(t)
	svc := service.NewRewardService(db, nil)
	u := createUser(t, db)

	first, err := svc.GrantBoost(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}

	// Age the cooldown but leave the boost running; a second grant must
	// replace the window, not extend it past now + duration.
	if _, err := db.Exec(context.Background(),
		`UPDATE users SET last_boost_ad_watch = now() - interval '24 hours' WHERE id = $1`, u.ID); err != nil {
		t.Fatalf("age watermark: %v", err)
	}

	second, err := svc.GrantBoost(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}

	if second.BoostEndTime == nil || first.BoostEndTime == nil {
		t.Fatal("boost end not set")
	}
	maxEnd := time.Now().Add(economy.BoostDuration + time.Minute)
	if second.BoostEndTime.After(maxEnd) {
		t.Fatalf("boost stacked instead of replaced: ends %v", second.BoostEndTime)
	}
}

func TestRedemption_PendingExclusivity(t *testing.T) {
	db := setupDB(t)
	svc := service.NewRewardService(db, nil)
	u := createUser(t, db)
	setPugCoins(t, db, u.ID, 10)

	user, req, err := svc.SubmitRedemption(context.Background(), u.ID, 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if user.PugCoins != 8 {
		t.Fatalf("expected 8 pug coins after debit, got %v", user.PugCoins)
	}
	if req.Status != domain.RedemptionPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}

	_, _, err = svc.SubmitRedemption(context.Background(), u.ID, 1)
	if !errors.Is(err, domain.ErrPendingRequestExists) {
		t.Fatalf("expected pending-exists, got %v", err)
	}

	after, err := repository.NewUserRepository(db).GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.PugCoins != 8 {
		t.Fatalf("failed submit changed balance: %v", after.PugCoins)
	}
}

func TestRedemption_RejectRefunds(t *testing.T) {
	db := setupDB(t)
	svc := service.NewRewardService(db, nil)
	u := createUser(t, db)
	setPugCoins(t, db, u.ID, 3)

	_, req, err := svc.SubmitRedemption(context.Background(), u.ID, 3)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	resolved, err := svc.ResolveRedemption(context.Background(), req.ID, false)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if resolved.Status != domain.RedemptionRejected {
		t.Fatalf("expected rejected, got %s", resolved.Status)
	}

	after, err := repository.NewUserRepository(db).GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.PugCoins != 3 {
		t.Fatalf("rejection did not refund: %v", after.PugCoins)
	}

	// Terminal: cannot re-resolve.
	if _, err := svc.ResolveRedemption(context.Background(), req.ID, true); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on double resolve, got %v", err)
	}
}

func TestRedemption_Bounds(t *testing.T) {
	db := setupDB(t)
	svc := service.NewRewardService(db, nil)
	u := createUser(t, db)
	setPugCoins(t, db, u.ID, 10)

	for _, amount := range []float64{0, 0.5, 4, -1} {
		if _, _, err := svc.SubmitRedemption(context.Background(), u.ID, amount); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("amount %v: expected invalid argument, got %v", amount, err)
		}
	}
}

func TestExchangePugCoins(t *testing.T) {
	db := setupDB(t)
	svc := service.NewEconomyService(db, nil)
	u := createUser(t, db)
	setPugCoins(t, db, u.ID, 2)

	user, err := svc.ExchangePugCoins(context.Background(), u.ID, 1)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if user.PugCoins != 1 {
		t.Fatalf("expected 1 pug coin left, got %v", user.PugCoins)
	}
	want := economy.StartingBalance + economy.ExchangeRate
	if math.Abs(user.Balance-want) > 1e-6 {
		t.Fatalf("balance %v, want ~%v", user.Balance, want)
	}

	if _, err := svc.ExchangePugCoins(context.Background(), u.ID, 5); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, err := svc.ExchangePugCoins(context.Background(), u.ID, 0.5); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

// Random interleavings of spend-heavy operations must never drive either
// balance negative; every failure path rolls back cleanly.
func TestNonNegativeBalancesUnderRandomOps(t *testing.T) {
	db := setupDB(t)
	econ := service.NewEconomyService(db, nil)
	rewards := service.NewRewardService(db, nil)
	u := createUser(t, db)
	setPugCoins(t, db, u.ID, 3)

	rng := rand.New(rand.NewSource(42))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 25; i++ {
				switch r.Intn(4) {
				case 0:
					_, _, _ = econ.AcquireLand(context.Background(), u.ID,
						r.Intn(1000000), 1000000+r.Intn(100000), domain.AcquireBuy)
				case 1:
					_, _ = econ.ExchangePugCoins(context.Background(), u.ID, float64(1+r.Intn(3)))
				case 2:
					_, _, _ = rewards.SubmitRedemption(context.Background(), u.ID, float64(1+r.Intn(3)))
				case 3:
					_, _ = econ.GetUser(context.Background(), u.ID)
				}
			}
		}(rng.Int63())
	}
	wg.Wait()

	after, err := repository.NewUserRepository(db).GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.Balance < 0 {
		t.Fatalf("balance went negative: %v", after.Balance)
	}
	if after.PugCoins < 0 {
		t.Fatalf("pug coins went negative: %v", after.PugCoins)
	}
	if after.LandVouchers < 0 {
		t.Fatalf("vouchers went negative: %d", after.LandVouchers)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	db := setupDB(t)
	os.Setenv("JWT_SECRET", "integration-secret")
	service.InitJWT()
	auth := service.NewAuthService(db)

	email := fmt.Sprintf("dup-%d@example.com", time.Now().UnixNano())

	u, token, err := auth.Signup(context.Background(), "Dup", email, "password123")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if token == "" {
		t.Fatal("no token issued")
	}
	if math.Abs(u.Balance-economy.StartingBalance) > 1e-9 {
		t.Fatalf("starting balance %v, want %v", u.Balance, economy.StartingBalance)
	}

	if _, _, err := auth.Signup(context.Background(), "Dup2", email, "password123"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}

	// Login round trip.
	logged, token2, err := auth.Login(context.Background(), email, "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != u.ID || token2 == "" {
		t.Fatal("login returned wrong identity")
	}
	if _, _, err := auth.Login(context.Background(), email, "wrong-password"); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
}
