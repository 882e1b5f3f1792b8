package notification

import "time"

const (
	CategoryReader  = "reader"
	CategoryCreator = "creator"
	CategorySystem  = "system"
)

type Notification struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Category  string    `db:"category" json:"category"`
	Kind      string    `db:"kind" json:"kind"`
	Message   string    `db:"message" json:"message"`
	MangaID   *int      `db:"manga_id" json:"manga_id,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// categoryFor buckets a notification kind into the feed tab it belongs to.
func categoryFor(kind string) string {
	switch kind {
	case "revenue_earned", "payout_requested", "payout_completed", "earnings_settled",
		"contract_offered", "premium_approved":
		return CategoryCreator
	case "manga_unlocked", "coins_earned", "chapter_uploaded", "refund_issued":
		return CategoryReader
	default:
		return CategorySystem
	}
}
