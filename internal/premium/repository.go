package premium

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrRequestNotFound = errors.New("premium request not found")
	ErrMangaNotFound   = errors.New("manga not found")
	ErrNotUploader     = errors.New("only the uploader can manage this request")
	ErrAlreadyOpen     = errors.New("an open premium request already exists for this manga")
	ErrAlreadyPremium  = errors.New("this manga is already premium")
	ErrNoOffer         = errors.New("no contract offer to respond to")
)

const requestColumns = `id, manga_id, creator_id, status, views_at_request,
	 chapters_at_request, rating_at_request, offered_price, offer_note,
	 offered_at, responded_at, created_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create opens a premium application for a creator's own series,
// snapshotting its stats. One open application per series at a time.
func (r *Repository) Create(ctx context.Context, mangaID, creatorID int) (*Request, error) {
	var m struct {
		UploaderID int     `db:"uploader_id"`
		IsPremium  bool    `db:"is_premium"`
		Views      int64   `db:"views"`
		Chapters   int     `db:"total_chapters"`
		Rating     float64 `db:"rating"`
	}
	err := r.db.GetContext(ctx, &m,
		`SELECT uploader_id, is_premium, views, total_chapters, rating
		 FROM mangas WHERE id = $1`, mangaID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMangaNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.UploaderID != creatorID {
		return nil, ErrNotUploader
	}
	if m.IsPremium {
		return nil, ErrAlreadyPremium
	}

	var open bool
	err = r.db.GetContext(ctx, &open,
		`SELECT EXISTS (SELECT 1 FROM premium_requests
		 WHERE manga_id = $1 AND status IN ($2, $3))`,
		mangaID, StatusPending, StatusContractOffered)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrAlreadyOpen
	}

	req := &Request{}
	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO premium_requests
			(manga_id, creator_id, views_at_request, chapters_at_request, rating_at_request)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+requestColumns,
		mangaID, creatorID, m.Views, m.Chapters, m.Rating,
	).StructScan(req)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*Request, error) {
	req := &Request{}
	err := r.db.GetContext(ctx, req,
		`SELECT `+requestColumns+` FROM premium_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListQueue returns requests joined with series and creator identity,
// newest first. An empty status returns the full contract history.
func (r *Repository) ListQueue(ctx context.Context, status string) ([]QueueView, error) {
	query := `
		SELECT pr.id, pr.manga_id, pr.creator_id, pr.status, pr.views_at_request,
		       pr.chapters_at_request, pr.rating_at_request, pr.offered_price,
		       pr.offer_note, pr.offered_at, pr.responded_at, pr.created_at, pr.updated_at,
		       m.title AS manga_title,
		       m.cover_image AS cover_image,
		       u.username AS creator_name
		FROM premium_requests pr
		JOIN mangas m ON m.id = pr.manga_id
		JOIN users u ON u.id = pr.creator_id`

	var (
		views []QueueView
		err   error
	)
	if status != "" {
		err = r.db.SelectContext(ctx, &views,
			query+` WHERE pr.status = $1 ORDER BY pr.created_at DESC`, status)
	} else {
		err = r.db.SelectContext(ctx, &views,
			query+` ORDER BY pr.created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (r *Repository) ListByCreator(ctx context.Context, creatorID int) ([]Request, error) {
	var requests []Request
	err := r.db.SelectContext(ctx, &requests,
		`SELECT `+requestColumns+`
		 FROM premium_requests
		 WHERE creator_id = $1
		 ORDER BY created_at DESC`, creatorID)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// Offer attaches the platform's price to a pending request and moves it
// to contract_offered.
func (r *Repository) Offer(ctx context.Context, id int, price int64, note string) (*Request, error) {
	req := &Request{}
	err := r.db.QueryRowxContext(ctx,
		`UPDATE premium_requests
		 SET status = $1, offered_price = $2, offer_note = $3,
		     offered_at = NOW(), updated_at = NOW()
		 WHERE id = $4 AND status = $5
		 RETURNING `+requestColumns,
		StatusContractOffered, price, note, id, StatusPending,
	).StructScan(req)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Accept signs the offered contract: the request becomes approved and
// the series goes premium at the offered price, both in one
// transaction.
func (r *Repository) Accept(ctx context.Context, id, creatorID int) (*Request, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current := &Request{}
	err = tx.GetContext(ctx, current,
		`SELECT `+requestColumns+` FROM premium_requests WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	if current.CreatorID != creatorID {
		return nil, ErrNotUploader
	}
	if current.Status != StatusContractOffered {
		return nil, ErrNoOffer
	}

	req := &Request{}
	err = tx.QueryRowxContext(ctx,
		`UPDATE premium_requests
		 SET status = $1, responded_at = NOW(), updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+requestColumns,
		StatusApproved, id,
	).StructScan(req)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE mangas SET is_premium = TRUE, price = $1, updated_at = NOW() WHERE id = $2`,
		current.OfferedPrice, current.MangaID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return req, nil
}

// Decline lets the creator turn down an offer or cancel a pending
// application.
func (r *Repository) Decline(ctx context.Context, id, creatorID int) (*Request, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.CreatorID != creatorID {
		return nil, ErrNotUploader
	}

	status := StatusCancelled
	if current.Status == StatusContractOffered {
		status = StatusRejected
	} else if current.Status != StatusPending {
		return nil, ErrNoOffer
	}

	req := &Request{}
	err = r.db.QueryRowxContext(ctx,
		`UPDATE premium_requests
		 SET status = $1, responded_at = NOW(), updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+requestColumns,
		status, id,
	).StructScan(req)
	if err != nil {
		return nil, err
	}
	return req, nil
}
