package comment

import "time"

const (
	TargetManga   = "manga"
	TargetChapter = "chapter"

	VoteLike    = "like"
	VoteDislike = "dislike"

	MaxContentLength = 2000
)

type Comment struct {
	ID         int       `db:"id" json:"id"`
	TargetType string    `db:"target_type" json:"target_type"`
	TargetID   int       `db:"target_id" json:"target_id"`
	UserID     int       `db:"user_id" json:"user_id"`
	Username   string    `db:"username" json:"username"`
	Content    string    `db:"content" json:"content"`
	ParentID   *int      `db:"parent_id" json:"parent_id,omitempty"`
	IsPinned   bool      `db:"is_pinned" json:"is_pinned"`
	IsReported bool      `db:"is_reported" json:"is_reported"`
	Likes      int       `db:"likes" json:"likes"`
	Dislikes   int       `db:"dislikes" json:"dislikes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
