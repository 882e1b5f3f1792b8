package manga

import (
	"time"

	"github.com/lib/pq"
)

const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusHiatus    = "hiatus"
	StatusCancelled = "cancelled"
)

type Manga struct {
	ID            int            `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Author        string         `db:"author" json:"author"`
	Artist        string         `db:"artist" json:"artist"`
	Description   string         `db:"description" json:"description"`
	CoverImage    string         `db:"cover_image" json:"cover_image"`
	ExternalID    *string        `db:"external_id" json:"external_id,omitempty"`
	UploaderID    int            `db:"uploader_id" json:"uploader_id"`
	IsAdult       bool           `db:"is_adult" json:"is_adult"`
	IsPremium     bool           `db:"is_premium" json:"is_premium"`
	Price         int64          `db:"price" json:"price"`
	Status        string         `db:"status" json:"status"`
	Rating        float64        `db:"rating" json:"rating"`
	Views         int64          `db:"views" json:"views"`
	TotalChapters int            `db:"total_chapters" json:"total_chapters"`
	Tags          pq.StringArray `db:"tags" json:"tags"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ListFilter narrows catalog listings. Zero values mean "no filter".
type ListFilter struct {
	Search      string
	Tag         string
	Status      string
	PremiumOnly bool
	Limit       int
	Offset      int
}
