package manga

import (
	"context"
	"testing"
	"time"

	"toonlord/internal/wallet"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mangaCols = []string{
	"id", "title", "author", "artist", "description", "cover_image", "external_id",
	"uploader_id", "is_adult", "is_premium", "price", "status", "rating", "views",
	"total_chapters", "tags", "created_at", "updated_at",
}

func mangaRow(id int, title string, uploaderID int, premium bool, price int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(mangaCols).
		AddRow(id, title, "Author", "Artist", "A series", "https://img.example.com/c.jpg", nil,
			uploaderID, false, premium, price, StatusOngoing, 4.5, 100, 12,
			pq.StringArray{"action"}, now, now)
}

func setupRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mockDB
}

func TestGetPricing_PremiumSeries(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectQuery("SELECT .+ FROM mangas WHERE id = \\$1").
		WithArgs(3).
		WillReturnRows(mangaRow(3, "Neural Archive", 20, true, 60))

	pricing, err := repo.GetPricing(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 3, pricing.MangaID)
	assert.Equal(t, "Neural Archive", pricing.Title)
	assert.Equal(t, int64(60), pricing.Price)
	assert.Equal(t, 20, pricing.UploaderID)
}

func TestGetPricing_FreeSeriesIgnoresStalePrice(t *testing.T) {
	repo, mockDB := setupRepo(t)

	// A price left over from a revoked premium flag must not charge anyone.
	mockDB.ExpectQuery("SELECT .+ FROM mangas WHERE id = \\$1").
		WithArgs(4).
		WillReturnRows(mangaRow(4, "Free Series", 20, false, 60))

	pricing, err := repo.GetPricing(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pricing.Price)
}

func TestGetPricing_NotFound(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectQuery("SELECT .+ FROM mangas WHERE id = \\$1").
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows(mangaCols))

	_, err := repo.GetPricing(context.Background(), 404)
	require.ErrorIs(t, err, wallet.ErrContentNotFound)
}

func TestList_BuildsFilters(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectQuery("SELECT .+ FROM mangas WHERE \\(title ILIKE \\$1 OR author ILIKE \\$1\\) AND \\$2 = ANY\\(tags\\) AND is_premium = TRUE ORDER BY updated_at DESC").
		WithArgs("%archive%", "action", 20, 0).
		WillReturnRows(mangaRow(3, "Neural Archive", 20, true, 60))

	mangas, err := repo.List(context.Background(), ListFilter{
		Search:      "archive",
		Tag:         "action",
		PremiumOnly: true,
	})
	require.NoError(t, err)
	require.Len(t, mangas, 1)
	assert.Equal(t, "Neural Archive", mangas[0].Title)
}

func TestDelete_NotFound(t *testing.T) {
	repo, mockDB := setupRepo(t)

	mockDB.ExpectExec("DELETE FROM mangas WHERE id = \\$1").
		WithArgs(404).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 404)
	require.ErrorIs(t, err, wallet.ErrContentNotFound)
}
