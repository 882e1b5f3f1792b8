package library

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrEntryNotFound = errors.New("library entry not found")

const selectEntry = `
	SELECT l.id, l.user_id, l.manga_id, m.title AS manga_title, m.cover_image,
	       l.status, l.progress, l.current_chapter, l.rating, l.last_read_at, l.created_at
	FROM library_entries l
	JOIN mangas m ON m.id = l.manga_id`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Upsert creates or updates the user's entry for a manga. Each reader
// has at most one entry per series; changing tabs moves it.
func (r *Repository) Upsert(ctx context.Context, userID, mangaID int, status string, progress, currentChapter, rating *int) (*Entry, error) {
	var id int
	err := r.db.GetContext(ctx, &id,
		`INSERT INTO library_entries (user_id, manga_id, status, progress, current_chapter, rating)
		 VALUES ($1, $2, $3, COALESCE($4, 0), COALESCE($5, 1), COALESCE($6, 0))
		 ON CONFLICT (user_id, manga_id) DO UPDATE SET
		   status = EXCLUDED.status,
		   progress = COALESCE($4, library_entries.progress),
		   current_chapter = COALESCE($5, library_entries.current_chapter),
		   rating = COALESCE($6, library_entries.rating),
		   last_read_at = NOW()
		 RETURNING id`,
		userID, mangaID, status, progress, currentChapter, rating)
	if err != nil {
		return nil, err
	}
	return r.getByID(ctx, id)
}

func (r *Repository) getByID(ctx context.Context, id int) (*Entry, error) {
	e := &Entry{}
	err := r.db.GetContext(ctx, e, selectEntry+` WHERE l.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns the user's library, optionally one tab.
func (r *Repository) List(ctx context.Context, userID int, status string) ([]Entry, error) {
	query := selectEntry + ` WHERE l.user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND l.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY l.last_read_at DESC`

	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repository) Remove(ctx context.Context, userID, mangaID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM library_entries WHERE user_id = $1 AND manga_id = $2`,
		userID, mangaID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// RecordProgress advances the reader's position without touching the
// tab the entry lives in; a missing entry defaults to Reading.
func (r *Repository) RecordProgress(ctx context.Context, userID, mangaID, chapterNumber int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO library_entries (user_id, manga_id, status, current_chapter)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, manga_id) DO UPDATE SET
		   current_chapter = GREATEST(library_entries.current_chapter, EXCLUDED.current_chapter),
		   last_read_at = NOW()`,
		userID, mangaID, StatusReading, chapterNumber)
	return err
}

// ListSubscriberIDs feeds new-chapter notifications.
func (r *Repository) ListSubscriberIDs(ctx context.Context, mangaID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM library_entries WHERE manga_id = $1 AND status = $2`,
		mangaID, StatusSubscribe)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
