package chapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"toonlord/internal/manga"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUnlockChecker struct {
	mock.Mock
}

func (m *MockUnlockChecker) HasUnlock(ctx context.Context, userID, mangaID int) (bool, error) {
	args := m.Called(ctx, userID, mangaID)
	return args.Bool(0), args.Error(1)
}

var mangaCols = []string{
	"id", "title", "author", "artist", "description", "cover_image", "external_id",
	"uploader_id", "is_adult", "is_premium", "price", "status", "rating", "views",
	"total_chapters", "tags", "created_at", "updated_at",
}

var chapterCols = []string{
	"id", "manga_id", "chapter_number", "title", "hash", "pages", "external_id",
	"created_at", "updated_at",
}

func premiumMangaRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(mangaCols).
		AddRow(3, "Neural Archive", "Author", "Artist", "A series", "cover.jpg", nil,
			20, false, true, int64(60), manga.StatusOngoing, 4.5, 100, 12,
			pq.StringArray{"action"}, now, now)
}

func chapterRow(num int, hash *string, pages pq.StringArray) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(chapterCols).
		AddRow(40+num, 3, num, "Chapter", hash, pages, nil, now, now)
}

func setupContentRouter(t *testing.T, userID int, unlocks *MockUnlockChecker) (*gin.Engine, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)

	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	handler := NewHandler(NewRepository(sqlxDB), manga.NewRepository(sqlxDB), unlocks, nil, nil)

	router := gin.New()
	router.GET("/manga/:mangaID/chapters/:chapterNum", func(c *gin.Context) {
		if userID > 0 {
			c.Set("user_id", userID)
			c.Set("user_role", "reader")
		}
		c.Next()
	}, handler.GetContent)
	return router, mockDB
}

func TestGetContent_LockedChapterHidesPages(t *testing.T) {
	unlocks := &MockUnlockChecker{}
	router, mockDB := setupContentRouter(t, 10, unlocks)

	mockDB.ExpectQuery("SELECT .+ FROM mangas WHERE id = \\$1").
		WithArgs(3).
		WillReturnRows(premiumMangaRow())
	hash := "abc123"
	mockDB.ExpectQuery("SELECT .+ FROM chapters WHERE manga_id = \\$1 AND chapter_number = \\$2").
		WithArgs(3, 4).
		WillReturnRows(chapterRow(4, &hash, pq.StringArray{"p1.jpg", "p2.jpg"}))
	unlocks.On("HasUnlock", mock.Anything, 10, 3).Return(false, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/manga/3/chapters/4", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ContentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsLocked)
	assert.Empty(t, resp.Pages)
}

func TestGetContent_OwnedChapterResolvesPageURLs(t *testing.T) {
	unlocks := &MockUnlockChecker{}
	router, mockDB := setupContentRouter(t, 10, unlocks)

	mockDB.ExpectQuery("SELECT .+ FROM mangas WHERE id = \\$1").
		WithArgs(3).
		WillReturnRows(premiumMangaRow())
	hash := "abc123"
	mockDB.ExpectQuery("SELECT .+ FROM chapters WHERE manga_id = \\$1 AND chapter_number = \\$2").
		WithArgs(3, 4).
		WillReturnRows(chapterRow(4, &hash, pq.StringArray{"p1.jpg"}))
	unlocks.On("HasUnlock", mock.Anything, 10, 3).Return(true, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/manga/3/chapters/4", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ContentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.IsLocked)
	require.Len(t, resp.Pages, 1)
	assert.Equal(t, "https://uploads.mangadex.org/data/abc123/p1.jpg", resp.Pages[0])
}

func TestGetContent_GuestReadsPremiumPreview(t *testing.T) {
	router, mockDB := setupContentRouter(t, 0, &MockUnlockChecker{})

	mockDB.ExpectQuery("SELECT .+ FROM mangas WHERE id = \\$1").
		WithArgs(3).
		WillReturnRows(premiumMangaRow())
	mockDB.ExpectQuery("SELECT .+ FROM chapters WHERE manga_id = \\$1 AND chapter_number = \\$2").
		WithArgs(3, 2).
		WillReturnRows(chapterRow(2, nil, pq.StringArray{"https://cdn.example.com/p1.jpg"}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/manga/3/chapters/2", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ContentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.IsLocked)
	assert.Equal(t, "https://cdn.example.com/p1.jpg", resp.Pages[0])
}

func TestGetContent_MissingChapter(t *testing.T) {
	router, mockDB := setupContentRouter(t, 10, &MockUnlockChecker{})

	mockDB.ExpectQuery("SELECT .+ FROM mangas WHERE id = \\$1").
		WithArgs(3).
		WillReturnRows(premiumMangaRow())
	mockDB.ExpectQuery("SELECT .+ FROM chapters WHERE manga_id = \\$1 AND chapter_number = \\$2").
		WithArgs(3, 99).
		WillReturnRows(sqlmock.NewRows(chapterCols))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/manga/3/chapters/99", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
