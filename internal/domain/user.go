package domain

import "time"

type User struct {
	ID           int64     `db:"id" json:"uid"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"-"`
	Balance      float64   `db:"balance" json:"balance"`
	PugCoins     float64   `db:"pug_coins" json:"pugCoins"`
	LandVouchers int       `db:"land_vouchers" json:"landVouchers"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`

	// LastSeen is the accrual watermark: income has been folded into
	// Balance up to this instant.
	LastSeen time.Time `db:"last_seen" json:"lastSeen"`

	BoostEndTime      *time.Time `db:"boost_end_time" json:"boostEndTime,omitempty"`
	RangeBoostEndTime *time.Time `db:"range_boost_end_time" json:"rangeBoostEndTime,omitempty"`

	// Ad cooldown watermarks, one per reward kind.
	LastVoucherAdWatch    *time.Time `db:"last_voucher_ad_watch" json:"lastVoucherAdWatch,omitempty"`
	LastBoostAdWatch      *time.Time `db:"last_boost_ad_watch" json:"lastBoostAdWatch,omitempty"`
	LastRangeBoostAdWatch *time.Time `db:"last_range_boost_ad_watch" json:"lastRangeBoostAdWatch,omitempty"`
}
