package wallet

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var walletCols = []string{
	"id", "user_id", "balance", "pending_balance", "withdrawable_balance",
	"total_lifetime_earnings", "is_locked", "last_transaction_at", "created_at", "updated_at",
}

func walletRow(id, userID int, balance, pending, withdrawable, lifetime int64, locked bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(walletCols).
		AddRow(id, userID, balance, pending, withdrawable, lifetime, locked, now, now, now)
}

func setupStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock, *sqlx.DB, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	store := NewStore(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return store, mock, sqlxDB, closer
}

func TestGetOrCreate_Existing(t *testing.T) {
	store, mock, _, close := setupStoreMock(t)
	defer close()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id = \\$1").
		WithArgs(10).
		WillReturnRows(walletRow(5, 10, 40, 0, 0, 0, false))

	w, err := store.GetOrCreate(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 5, w.ID)
	require.Equal(t, int64(40), w.Balance)
}

func TestGetOrCreate_CreatesWithStartingGrant(t *testing.T) {
	store, mock, _, close := setupStoreMock(t)
	defer close()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id = \\$1").
		WithArgs(10).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery("INSERT INTO wallets").
		WithArgs(10, StartingBalance).
		WillReturnRows(walletRow(5, 10, StartingBalance, 0, 0, 0, false))

	w, err := store.GetOrCreate(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, StartingBalance, w.Balance)
}

func TestGetOrCreate_RaceLoserRefetchesWinner(t *testing.T) {
	store, mock, _, close := setupStoreMock(t)
	defer close()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id = \\$1").
		WithArgs(10).
		WillReturnError(sql.ErrNoRows)

	// Another request created the wallet between our read and our insert.
	mock.ExpectQuery("INSERT INTO wallets").
		WithArgs(10, StartingBalance).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "wallets_user_id_key"})

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id = \\$1").
		WithArgs(10).
		WillReturnRows(walletRow(7, 10, StartingBalance, 0, 0, 0, false))

	w, err := store.GetOrCreate(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 7, w.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDeltaTx_DebitAndCredit(t *testing.T) {
	store, mock, db, close := setupStoreMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE wallets")).
		WithArgs(int64(40), int64(42), int64(0), int64(42), 5).
		WillReturnRows(walletRow(5, 10, 40, 42, 0, 42, false))

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	w := &Wallet{ID: 5, UserID: 10, Balance: 100}
	updated, err := store.ApplyDeltaTx(context.Background(), tx, w, -60, EarningsDelta{Pending: 42, Lifetime: 42})
	require.NoError(t, err)
	require.Equal(t, int64(40), updated.Balance)
	require.Equal(t, int64(42), updated.PendingBalance)
}

func TestApplyDeltaTx_Overdraft(t *testing.T) {
	store, mock, db, close := setupStoreMock(t)
	defer close()

	mock.ExpectBegin()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	w := &Wallet{ID: 5, UserID: 10, Balance: 10}
	_, err = store.ApplyDeltaTx(context.Background(), tx, w, -60, EarningsDelta{})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestApplyDeltaTx_LockedWallet(t *testing.T) {
	store, mock, db, close := setupStoreMock(t)
	defer close()

	mock.ExpectBegin()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	w := &Wallet{ID: 5, UserID: 10, Balance: 100, IsLocked: true}
	_, err = store.ApplyDeltaTx(context.Background(), tx, w, -60, EarningsDelta{})
	require.ErrorIs(t, err, ErrWalletLocked)
}

func TestApplyDeltaTx_EarningsOverdraft(t *testing.T) {
	store, mock, db, close := setupStoreMock(t)
	defer close()

	mock.ExpectBegin()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	w := &Wallet{ID: 5, UserID: 10, Balance: 0, WithdrawableBalance: 20}
	_, err = store.ApplyDeltaTx(context.Background(), tx, w, 0, EarningsDelta{Withdrawable: -50})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestGetForUpdateTx_LocksExistingRow(t *testing.T) {
	store, mock, db, close := setupStoreMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE user_id = \\$1 FOR UPDATE").
		WithArgs(10).
		WillReturnRows(walletRow(5, 10, 100, 0, 0, 0, false))

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	w, err := store.GetForUpdateTx(context.Background(), tx, 10)
	require.NoError(t, err)
	require.Equal(t, int64(100), w.Balance)
}

func TestInsertUnlockTx_Duplicate(t *testing.T) {
	store, mock, db, close := setupStoreMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO unlocked_content").
		WithArgs(10, 3, int64(60)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "unlocked_content_user_id_manga_id_key"})

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	_, err = store.InsertUnlockTx(context.Background(), tx, 10, 3, 60)
	require.ErrorIs(t, err, ErrAlreadyUnlocked)
}

func TestHasUnlock(t *testing.T) {
	store, mock, _, close := setupStoreMock(t)
	defer close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(10, 3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	owned, err := store.HasUnlock(context.Background(), 10, 3)
	require.NoError(t, err)
	require.True(t, owned)
}
