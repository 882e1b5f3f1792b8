package premium

import "time"

const (
	StatusPending         = "pending"
	StatusContractOffered = "contract_offered"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusCancelled       = "cancelled"
)

// Request is a creator's application to move a series behind the
// paywall. The stats columns snapshot the series at the moment of the
// request so growth between applications is visible.
type Request struct {
	ID                int        `db:"id" json:"id"`
	MangaID           int        `db:"manga_id" json:"manga_id"`
	CreatorID         int        `db:"creator_id" json:"creator_id"`
	Status            string     `db:"status" json:"status"`
	ViewsAtRequest    int64      `db:"views_at_request" json:"views_at_request"`
	ChaptersAtRequest int        `db:"chapters_at_request" json:"chapters_at_request"`
	RatingAtRequest   float64    `db:"rating_at_request" json:"rating_at_request"`
	OfferedPrice      int64      `db:"offered_price" json:"offered_price"`
	OfferNote         string     `db:"offer_note" json:"offer_note"`
	OfferedAt         *time.Time `db:"offered_at" json:"offered_at,omitempty"`
	RespondedAt       *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// QueueView joins series and creator identity for the admin queue.
type QueueView struct {
	Request
	MangaTitle  string `db:"manga_title" json:"manga_title"`
	CoverImage  string `db:"cover_image" json:"cover_image"`
	CreatorName string `db:"creator_name" json:"creator_name"`
}
