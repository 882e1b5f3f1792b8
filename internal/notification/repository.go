package notification

import (
	"context"

	"github.com/jmoiron/sqlx"
)

const notificationColumns = `id, user_id, category, kind, message, manga_id, is_read, created_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, n *Notification) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO notifications (user_id, category, kind, message, manga_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+notificationColumns+`
	`, n.UserID, n.Category, n.Kind, n.Message, n.MangaID).StructScan(n)
}

func (r *Repository) ListByUser(ctx context.Context, userID int, category string, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
	`
	args := []interface{}{userID}

	if category != "" {
		args = append(args, category)
		query += ` AND category = $2`
	}
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}

	args = append(args, limit, offset)
	query += ` ORDER BY created_at DESC`
	if category != "" {
		query += ` LIMIT $3 OFFSET $4`
	} else {
		query += ` LIMIT $2 OFFSET $3`
	}

	items := []*Notification{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

func (r *Repository) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = $1 AND is_read = FALSE
	`, userID)
	return count, err
}

// MarkRead marks the given notifications as read. With no IDs it marks
// everything the user has.
func (r *Repository) MarkRead(ctx context.Context, userID int, ids []int) (int64, error) {
	if len(ids) == 0 {
		res, err := r.db.ExecContext(ctx, `
			UPDATE notifications
			SET is_read = TRUE
			WHERE user_id = $1 AND is_read = FALSE
		`, userID)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	}

	query, args, err := sqlx.In(`
		UPDATE notifications
		SET is_read = TRUE
		WHERE user_id = ? AND id IN (?)
	`, userID, ids)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
