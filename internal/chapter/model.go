package chapter

import (
	"time"

	"github.com/lib/pq"
)

type Chapter struct {
	ID            int            `db:"id" json:"id"`
	MangaID       int            `db:"manga_id" json:"manga_id"`
	ChapterNumber int            `db:"chapter_number" json:"chapter_number"`
	Title         string         `db:"title" json:"title"`
	Hash          *string        `db:"hash" json:"hash,omitempty"`
	Pages         pq.StringArray `db:"pages" json:"pages"`
	ExternalID    *string        `db:"external_id" json:"external_id,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ContentResponse is the reader-facing chapter payload. Pages are
// emptied when the reader has no access, so a locked chapter renders as
// a paywall instead of leaking page URLs.
type ContentResponse struct {
	Chapter
	IsLocked bool `json:"is_locked"`
}
