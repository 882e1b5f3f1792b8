package wallet

import "time"

// StartingBalance is the free toonCoin grant a wallet receives when it is
// first created.
const StartingBalance int64 = 10

// Wallet holds a user's spendable toonCoins plus the creator earnings
// buckets. One row per user; created lazily on first access.
type Wallet struct {
	ID                    int       `db:"id" json:"id"`
	UserID                int       `db:"user_id" json:"user_id"`
	Balance               int64     `db:"balance" json:"balance"`
	PendingBalance        int64     `db:"pending_balance" json:"pending_balance"`
	WithdrawableBalance   int64     `db:"withdrawable_balance" json:"withdrawable_balance"`
	TotalLifetimeEarnings int64     `db:"total_lifetime_earnings" json:"total_lifetime_earnings"`
	IsLocked              bool      `db:"is_locked" json:"is_locked"`
	LastTransactionAt     time.Time `db:"last_transaction_at" json:"last_transaction_at"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction types.
const (
	TypeCoinPurchase  = "COIN_PURCHASE"
	TypeAdReward      = "AD_REWARD"
	TypeMangaUnlock   = "MANGA_UNLOCK"
	TypeRefund        = "REFUND"
	TypeCreatorPayout = "CREATOR_PAYOUT"
	TypeRevenueShare  = "REVENUE_SHARE"
)

// Transaction currencies.
const (
	CurrencyToonCoins = "toonCoins"
	CurrencyINR       = "INR"
)

// Transaction directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Transaction statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusReversed  = "reversed"
)

// Transaction is an immutable ledger record. Amounts never change after
// insertion; only status may move (completed -> reversed).
type Transaction struct {
	ID                    int       `db:"id" json:"id"`
	UserID                int       `db:"user_id" json:"user_id"`
	Type                  string    `db:"type" json:"type"`
	Currency              string    `db:"currency" json:"currency"`
	Amount                int64     `db:"amount" json:"amount"`
	Direction             string    `db:"direction" json:"direction"`
	Description           string    `db:"description" json:"description"`
	PlatformFee           int64     `db:"platform_fee" json:"platform_fee"`
	NetEarning            int64     `db:"net_earning" json:"net_earning"`
	RelatedMangaID        *int      `db:"related_manga_id" json:"related_manga_id,omitempty"`
	BeneficiaryID         *int      `db:"beneficiary_id" json:"beneficiary_id,omitempty"`
	ExternalTransactionID *string   `db:"external_transaction_id" json:"external_transaction_id,omitempty"`
	Status                string    `db:"status" json:"status"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// UnlockRecord marks permanent read access to a manga, priced at the
// moment of purchase. At most one row per (user, manga).
type UnlockRecord struct {
	ID          int       `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	MangaID     int       `db:"manga_id" json:"manga_id"`
	AmountSpent int64     `db:"amount_spent" json:"amount_spent"`
	UnlockedAt  time.Time `db:"unlocked_at" json:"unlocked_at"`
}

// EarningsDelta describes a change to the creator earnings buckets of a
// wallet. Zero values leave the bucket untouched.
type EarningsDelta struct {
	Pending      int64
	Withdrawable int64
	Lifetime     int64
}
