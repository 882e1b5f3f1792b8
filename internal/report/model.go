package report

import "time"

const (
	TargetManga   = "manga"
	TargetComment = "comment"
	TargetChapter = "chapter"

	StatusPending       = "pending"
	StatusInvestigating = "investigating"
	StatusResolved      = "resolved"
	StatusDismissed     = "dismissed"
)

type Report struct {
	ID            int       `db:"id" json:"id"`
	ReporterID    int       `db:"reporter_id" json:"reporter_id"`
	TargetUserID  int       `db:"target_user_id" json:"target_user_id"`
	MangaID       *int      `db:"manga_id" json:"manga_id,omitempty"`
	TargetType    string    `db:"target_type" json:"target_type"`
	TargetID      int       `db:"target_id" json:"target_id"`
	ChapterNumber *int      `db:"chapter_number" json:"chapter_number,omitempty"`
	Reason        string    `db:"reason" json:"reason"`
	Details       string    `db:"details" json:"details"`
	Status        string    `db:"status" json:"status"`
	Priority      string    `db:"priority" json:"priority"`
	AdminNote     string    `db:"admin_note" json:"admin_note"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// AdminView is a report row joined with reporter and target identities
// for the moderation dashboard.
type AdminView struct {
	Report
	ReporterName      string  `db:"reporter_name" json:"reporter_name"`
	TargetUserName    string  `db:"target_user_name" json:"target_user_name"`
	TargetReportCount int     `db:"target_report_count" json:"target_report_count"`
	MangaTitle        *string `db:"manga_title" json:"manga_title,omitempty"`
}
