package report

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrReportNotFound = errors.New("report not found")
	ErrAlreadyFiled   = errors.New("a report for this content already exists")
	ErrTargetNotFound = errors.New("reported content not found")
	ErrSelfReport     = errors.New("cannot report yourself")
)

const reportColumns = `id, reporter_id, target_user_id, manga_id, target_type, target_id,
	 chapter_number, reason, details, status, priority, admin_note, created_at, updated_at`

// targetTables whitelists the tables a report may point at. The type is
// always resolved through this map, never interpolated from user input.
var targetTables = map[string]string{
	TargetManga:   "mangas",
	TargetComment: "comments",
	TargetChapter: "chapters",
}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create files a report after verifying the target still exists, and
// bumps the target user's strike counter. A reporter gets one report per
// piece of content; repeats surface as ErrAlreadyFiled.
func (r *Repository) Create(ctx context.Context, rep *Report) (*Report, error) {
	if rep.ReporterID == rep.TargetUserID {
		return nil, ErrSelfReport
	}
	table, ok := targetTables[rep.TargetType]
	if !ok {
		return nil, ErrTargetNotFound
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var targetExists bool
	err = tx.GetContext(ctx, &targetExists,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, rep.TargetID)
	if err != nil {
		return nil, err
	}
	if !targetExists {
		return nil, ErrTargetNotFound
	}

	var duplicate bool
	err = tx.GetContext(ctx, &duplicate,
		`SELECT EXISTS (SELECT 1 FROM reports
		 WHERE reporter_id = $1 AND target_type = $2 AND target_id = $3)`,
		rep.ReporterID, rep.TargetType, rep.TargetID)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, ErrAlreadyFiled
	}

	created := &Report{}
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO reports (reporter_id, target_user_id, manga_id, target_type,
		                      target_id, chapter_number, reason, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+reportColumns,
		rep.ReporterID, rep.TargetUserID, rep.MangaID, rep.TargetType,
		rep.TargetID, rep.ChapterNumber, rep.Reason, rep.Details,
	).StructScan(created)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET report_count = report_count + 1 WHERE id = $1`,
		rep.TargetUserID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// List returns reports for the moderation dashboard, newest first.
// An empty status returns everything.
func (r *Repository) List(ctx context.Context, status string) ([]AdminView, error) {
	query := `
		SELECT r.id, r.reporter_id, r.target_user_id, r.manga_id, r.target_type,
		       r.target_id, r.chapter_number, r.reason, r.details, r.status,
		       r.priority, r.admin_note, r.created_at, r.updated_at,
		       rep.username AS reporter_name,
		       tgt.username AS target_user_name,
		       tgt.report_count AS target_report_count,
		       m.title AS manga_title
		FROM reports r
		JOIN users rep ON rep.id = r.reporter_id
		JOIN users tgt ON tgt.id = r.target_user_id
		LEFT JOIN mangas m ON m.id = r.manga_id`

	var (
		views []AdminView
		err   error
	)
	if status != "" {
		err = r.db.SelectContext(ctx, &views,
			query+` WHERE r.status = $1 ORDER BY r.created_at DESC`, status)
	} else {
		err = r.db.SelectContext(ctx, &views,
			query+` ORDER BY r.created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	return views, nil
}

// SetStatus moves a report through the moderation workflow. Dismissing a
// report takes the strike back from the target user; re-dismissing does
// not take it twice.
func (r *Repository) SetStatus(ctx context.Context, id int, status, adminNote string) (*Report, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var previous string
	err = tx.GetContext(ctx, &previous,
		`SELECT status FROM reports WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	updated := &Report{}
	err = tx.QueryRowxContext(ctx,
		`UPDATE reports
		 SET status = $1,
		     admin_note = CASE WHEN $2 <> '' THEN $2 ELSE admin_note END,
		     updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+reportColumns,
		status, adminNote, id,
	).StructScan(updated)
	if err != nil {
		return nil, err
	}

	if status == StatusDismissed && previous != StatusDismissed {
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET report_count = GREATEST(report_count - 1, 0) WHERE id = $1`,
			updated.TargetUserID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

// PurgeProcessed deletes resolved and dismissed reports and reports how
// many went.
func (r *Repository) PurgeProcessed(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reports WHERE status IN ($1, $2)`,
		StatusResolved, StatusDismissed)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
