package manga

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"toonlord/internal/ledger"
	"toonlord/internal/wallet"

	"github.com/jmoiron/sqlx"
)

const mangaColumns = `id, title, author, artist, description, cover_image, external_id,
	uploader_id, is_adult, is_premium, price, status, rating, views, total_chapters,
	tags, created_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, m *Manga) (*Manga, error) {
	created := &Manga{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO mangas
		   (title, author, artist, description, cover_image, external_id,
		    uploader_id, is_adult, is_premium, price, status, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+mangaColumns,
		m.Title, m.Author, m.Artist, m.Description, m.CoverImage, m.ExternalID,
		m.UploaderID, m.IsAdult, m.IsPremium, m.Price, m.Status, m.Tags,
	).StructScan(created)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*Manga, error) {
	m := &Manga{}
	err := r.db.GetContext(ctx, m,
		`SELECT `+mangaColumns+` FROM mangas WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wallet.ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetPricing is the catalog view the ledger engine charges from.
func (r *Repository) GetPricing(ctx context.Context, mangaID int) (*ledger.Pricing, error) {
	m, err := r.GetByID(ctx, mangaID)
	if err != nil {
		return nil, err
	}
	price := m.Price
	if !m.IsPremium {
		price = 0
	}
	return &ledger.Pricing{
		MangaID:    m.ID,
		Title:      m.Title,
		Price:      price,
		UploaderID: m.UploaderID,
	}, nil
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Manga, error) {
	query := `SELECT ` + mangaColumns + ` FROM mangas`
	var conditions []string
	var args []interface{}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR author ILIKE $%d)", len(args), len(args)))
	}
	if f.Tag != "" {
		args = append(args, f.Tag)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.PremiumOnly {
		conditions = append(conditions, "is_premium = TRUE")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var mangas []Manga
	if err := r.db.SelectContext(ctx, &mangas, query, args...); err != nil {
		return nil, err
	}
	return mangas, nil
}

func (r *Repository) ListByUploader(ctx context.Context, uploaderID int) ([]Manga, error) {
	var mangas []Manga
	err := r.db.SelectContext(ctx, &mangas,
		`SELECT `+mangaColumns+` FROM mangas WHERE uploader_id = $1 ORDER BY updated_at DESC`,
		uploaderID)
	if err != nil {
		return nil, err
	}
	return mangas, nil
}

func (r *Repository) Update(ctx context.Context, m *Manga) (*Manga, error) {
	updated := &Manga{}
	err := r.db.QueryRowxContext(ctx,
		`UPDATE mangas
		 SET title = $1, author = $2, artist = $3, description = $4,
		     cover_image = $5, is_adult = $6, is_premium = $7, price = $8,
		     status = $9, tags = $10, updated_at = NOW()
		 WHERE id = $11
		 RETURNING `+mangaColumns,
		m.Title, m.Author, m.Artist, m.Description,
		m.CoverImage, m.IsAdult, m.IsPremium, m.Price,
		m.Status, m.Tags, m.ID,
	).StructScan(updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wallet.ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mangas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return wallet.ErrContentNotFound
	}
	return nil
}

func (r *Repository) IncrementViews(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE mangas SET views = views + 1 WHERE id = $1`, id)
	return err
}

// AdjustChapterCount keeps the denormalized chapter counter in step with
// chapter uploads and deletions.
func (r *Repository) AdjustChapterCount(ctx context.Context, id, delta int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE mangas SET total_chapters = GREATEST(total_chapters + $1, 0), updated_at = NOW() WHERE id = $2`,
		delta, id)
	return err
}
