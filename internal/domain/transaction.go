package domain

import "time"

// Transaction is an audit record of a balance-changing operation. Passive
// accrual is not journaled (it happens on every read); explicit actions are.
type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Type      string                 `db:"type" json:"type"`
	Amount    float64                `db:"amount" json:"amount"`
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

const (
	TxTypeLandBuy          = "land_buy"
	TxTypeLandVoucher      = "land_voucher"
	TxTypeBulkClaim        = "bulk_claim"
	TxTypeExchange         = "exchange"
	TxTypeRedemption       = "redemption"
	TxTypeRedemptionRefund = "redemption_refund"
	TxTypeAdminGrant       = "admin_grant"
)
