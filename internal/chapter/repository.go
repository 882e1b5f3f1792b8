package chapter

import (
	"context"
	"database/sql"
	"errors"

	"toonlord/internal/wallet"

	"github.com/jmoiron/sqlx"
)

const chapterColumns = `id, manga_id, chapter_number, title, hash, pages, external_id, created_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, ch *Chapter) (*Chapter, error) {
	created := &Chapter{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO chapters (manga_id, chapter_number, title, hash, pages, external_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+chapterColumns,
		ch.MangaID, ch.ChapterNumber, ch.Title, ch.Hash, ch.Pages, ch.ExternalID,
	).StructScan(created)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListByManga returns chapter metadata only; page URLs stay behind the
// access check in the content endpoint.
func (r *Repository) ListByManga(ctx context.Context, mangaID int) ([]Chapter, error) {
	var chapters []Chapter
	err := r.db.SelectContext(ctx, &chapters,
		`SELECT id, manga_id, chapter_number, title, hash, '{}'::text[] AS pages,
		        external_id, created_at, updated_at
		 FROM chapters WHERE manga_id = $1 ORDER BY chapter_number ASC`,
		mangaID)
	if err != nil {
		return nil, err
	}
	return chapters, nil
}

func (r *Repository) GetByNumber(ctx context.Context, mangaID, chapterNumber int) (*Chapter, error) {
	ch := &Chapter{}
	err := r.db.GetContext(ctx, ch,
		`SELECT `+chapterColumns+` FROM chapters WHERE manga_id = $1 AND chapter_number = $2`,
		mangaID, chapterNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wallet.ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (r *Repository) Update(ctx context.Context, id, chapterNumber int, title string) (*Chapter, error) {
	updated := &Chapter{}
	err := r.db.QueryRowxContext(ctx,
		`UPDATE chapters SET chapter_number = $1, title = $2, updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+chapterColumns,
		chapterNumber, title, id,
	).StructScan(updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wallet.ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id int) (*Chapter, error) {
	deleted := &Chapter{}
	err := r.db.QueryRowxContext(ctx,
		`DELETE FROM chapters WHERE id = $1 RETURNING `+chapterColumns, id,
	).StructScan(deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wallet.ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
