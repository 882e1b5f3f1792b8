package library

import "time"

const (
	StatusReading   = "Reading"
	StatusFavorite  = "Favorite"
	StatusBookmarks = "Bookmarks"
	StatusSubscribe = "Subscribe"
)

// ValidStatus reports whether s is one of the library tab statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusReading, StatusFavorite, StatusBookmarks, StatusSubscribe:
		return true
	}
	return false
}

type Entry struct {
	ID             int       `db:"id" json:"id"`
	UserID         int       `db:"user_id" json:"user_id"`
	MangaID        int       `db:"manga_id" json:"manga_id"`
	MangaTitle     string    `db:"manga_title" json:"manga_title"`
	CoverImage     string    `db:"cover_image" json:"cover_image"`
	Status         string    `db:"status" json:"status"`
	Progress       int       `db:"progress" json:"progress"`
	CurrentChapter int       `db:"current_chapter" json:"current_chapter"`
	Rating         int       `db:"rating" json:"rating"`
	LastReadAt     time.Time `db:"last_read_at" json:"last_read_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
