package domain

import "time"

// Land is one grid cell. The (GX, GY) pair is the primary key; a cell is
// owned by at most one user and is never deleted or reassigned.
type Land struct {
	GX          int       `db:"gx" json:"gx"`
	GY          int       `db:"gy" json:"gy"`
	PPS         float64   `db:"pps" json:"pps"`
	OwnerID     int64     `db:"owner_id" json:"ownerId"`
	OwnerName   string    `db:"owner_name" json:"ownerName"`
	PurchasedAt time.Time `db:"purchased_at" json:"purchasedAt"`
}

// Plot is a bare cell reference, used for bulk claim requests.
type Plot struct {
	GX int `json:"gx"`
	GY int `json:"gy"`
}

// AcquireMethod selects how a land purchase is paid for.
type AcquireMethod string

const (
	AcquireBuy     AcquireMethod = "BUY"
	AcquireVoucher AcquireMethod = "VOUCHER"
)
