package comment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotOwner        = errors.New("only the author can delete this comment")
)

// selectComment joins usernames and vote counts onto each row so the
// client never needs a second round trip.
const selectComment = `
	SELECT c.id, c.target_type, c.target_id, c.user_id, u.username, c.content,
	       c.parent_id, c.is_pinned, c.is_reported,
	       COALESCE(SUM(CASE WHEN v.vote = 1 THEN 1 ELSE 0 END), 0) AS likes,
	       COALESCE(SUM(CASE WHEN v.vote = -1 THEN 1 ELSE 0 END), 0) AS dislikes,
	       c.created_at, c.updated_at
	FROM comments c
	JOIN users u ON u.id = c.user_id
	LEFT JOIN comment_votes v ON v.comment_id = c.id`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c *Comment) (*Comment, error) {
	if c.ParentID != nil {
		// A reply to a vanished comment must not leave an orphan.
		var parentExists bool
		err := r.db.GetContext(ctx, &parentExists,
			`SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)`, *c.ParentID)
		if err != nil {
			return nil, err
		}
		if !parentExists {
			return nil, ErrCommentNotFound
		}
	}

	var id int
	err := r.db.GetContext(ctx, &id,
		`INSERT INTO comments (target_type, target_id, user_id, content, parent_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		c.TargetType, c.TargetID, c.UserID, c.Content, c.ParentID)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) GetByID(ctx context.Context, id int) (*Comment, error) {
	c := &Comment{}
	err := r.db.GetContext(ctx, c,
		selectComment+` WHERE c.id = $1 GROUP BY c.id, u.username`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Repository) ListByTarget(ctx context.Context, targetType string, targetID int) ([]Comment, error) {
	var comments []Comment
	err := r.db.SelectContext(ctx, &comments,
		selectComment+`
		 WHERE c.target_type = $1 AND c.target_id = $2
		 GROUP BY c.id, u.username
		 ORDER BY c.is_pinned DESC, c.created_at DESC`,
		targetType, targetID)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Vote records a like or dislike. A repeat vote replaces the previous
// one; voting the same way twice clears it.
func (r *Repository) Vote(ctx context.Context, commentID, userID int, vote int) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)`, commentID); err != nil {
		return err
	}
	if !exists {
		return ErrCommentNotFound
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM comment_votes WHERE comment_id = $1 AND user_id = $2 AND vote = $3`,
		commentID, userID, vote)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows > 0 {
		// Same vote again: treated as un-voting.
		return nil
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO comment_votes (comment_id, user_id, vote)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (comment_id, user_id) DO UPDATE SET vote = EXCLUDED.vote`,
		commentID, userID, vote)
	return err
}

// Delete removes a user's own comment. Replies go with it via the
// parent_id cascade.
func (r *Repository) Delete(ctx context.Context, commentID, userID int) error {
	var ownerID int
	err := r.db.GetContext(ctx, &ownerID,
		`SELECT user_id FROM comments WHERE id = $1`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != userID {
		return ErrNotOwner
	}

	_, err = r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, commentID)
	return err
}

// SetPinned is an uploader/admin moderation toggle.
func (r *Repository) SetPinned(ctx context.Context, commentID int, pinned bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE comments SET is_pinned = $1, updated_at = NOW() WHERE id = $2`,
		pinned, commentID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCommentNotFound
	}
	return nil
}
