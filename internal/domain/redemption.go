package domain

import "time"

type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "pending"
	RedemptionApproved RedemptionStatus = "approved"
	RedemptionRejected RedemptionStatus = "rejected"
)

// RedemptionRequest is a pending cash-out of pug coins. The debit happens
// when the request is submitted; rejection credits it back. A user can have
// at most one pending request at a time.
type RedemptionRequest struct {
	ID          int64            `db:"id" json:"id"`
	UserID      int64            `db:"user_id" json:"userId"`
	Amount      float64          `db:"amount" json:"amount"`
	Status      RedemptionStatus `db:"status" json:"status"`
	RequestedAt time.Time        `db:"requested_at" json:"requestedAt"`
}
