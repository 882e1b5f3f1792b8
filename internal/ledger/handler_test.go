package ledger

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"toonlord/internal/wallet"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, userID int) (*gin.Engine, sqlmock.Sqlmock, *MockCatalog) {
	gin.SetMode(gin.TestMode)

	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	catalog := &MockCatalog{}
	store := wallet.NewStore(sqlxDB)
	log := wallet.NewLog(sqlxDB)
	engine := NewEngine(sqlxDB, store, log, catalog, &MockDirectory{}, nil, 99)
	handler := NewHandler(engine, log, store)

	router := gin.New()
	authed := router.Group("/")
	authed.Use(func(c *gin.Context) {
		if userID > 0 {
			c.Set("user_id", userID)
			c.Set("user_role", "reader")
		}
		c.Next()
	})
	authed.POST("/manga/:mangaID/unlock", handler.Unlock)
	authed.POST("/rewards/ad", handler.RewardAd)
	authed.POST("/creator/payouts", handler.RequestPayout)
	authed.POST("/admin/wallets/:userID/lock", handler.SetWalletLock)
	return router, mockDB, catalog
}

func TestUnlockHandler_InsufficientFunds(t *testing.T) {
	router, mockDB, catalog := setupRouter(t, 10)

	catalog.On("GetPricing", mock.Anything, 3).Return(&Pricing{
		MangaID: 3, Title: "Neural Archive", Price: 60, UploaderID: 20,
	}, nil)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT .+ FROM wallets WHERE user_id = \\$1 FOR UPDATE").
		WithArgs(10).
		WillReturnRows(walletRow(5, 10, 10, 0, 0, 0, false))
	mockDB.ExpectQuery("SELECT EXISTS").
		WithArgs(10, 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mockDB.ExpectRollback()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/manga/3/unlock", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient")
}

func TestUnlockHandler_NotFound(t *testing.T) {
	router, _, catalog := setupRouter(t, 10)

	catalog.On("GetPricing", mock.Anything, 404).Return(nil, wallet.ErrContentNotFound)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/manga/404/unlock", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnlockHandler_InvalidMangaID(t *testing.T) {
	router, _, _ := setupRouter(t, 10)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/manga/abc/unlock", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnlockHandler_Unauthenticated(t *testing.T) {
	router, _, _ := setupRouter(t, 0)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/manga/3/unlock", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRewardAdHandler_CapReached(t *testing.T) {
	router, mockDB, _ := setupRouter(t, 10)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT .+ FROM wallets WHERE user_id = \\$1 FOR UPDATE").
		WithArgs(10).
		WillReturnRows(walletRow(5, 10, 40, 0, 0, 0, false))
	mockDB.ExpectQuery("SELECT COALESCE").
		WithArgs(10, wallet.TypeAdReward, wallet.StatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(AdRewardDailyCap))
	mockDB.ExpectRollback()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rewards/ad", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSetWalletLockHandler(t *testing.T) {
	router, mockDB, _ := setupRouter(t, 1)

	mockDB.ExpectQuery("UPDATE wallets SET is_locked = \\$1").
		WithArgs(true, 42).
		WillReturnRows(walletRow(9, 42, 150, 0, 0, 0, true))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/wallets/42/lock", strings.NewReader(`{"locked": true}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_locked":true`)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestSetWalletLockHandler_MissingFlag(t *testing.T) {
	router, _, _ := setupRouter(t, 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/wallets/42/lock", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestPayoutHandler_BadBody(t *testing.T) {
	router, _, _ := setupRouter(t, 20)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/creator/payouts", strings.NewReader(`{"amount": -5}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
