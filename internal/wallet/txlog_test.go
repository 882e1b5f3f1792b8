package wallet

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var txCols = []string{
	"id", "user_id", "type", "currency", "amount", "direction", "description",
	"platform_fee", "net_earning", "related_manga_id", "beneficiary_id",
	"external_transaction_id", "status", "created_at",
}

func txRow(id, userID int, txType string, amount int64, status string, externalRef *string) *sqlmock.Rows {
	return sqlmock.NewRows(txCols).
		AddRow(id, userID, txType, CurrencyToonCoins, amount, DirectionOut, "test",
			int64(0), int64(0), nil, nil, externalRef, status, time.Now())
}

func setupLogMock(t *testing.T) (*Log, sqlmock.Sqlmock, *sqlx.DB, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	log := NewLog(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return log, mock, sqlxDB, closer
}

func TestAppendTx_Success(t *testing.T) {
	log, mock, db, close := setupLogMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO transactions").
		WillReturnRows(txRow(1, 10, TypeMangaUnlock, 60, StatusCompleted, nil))

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	saved, err := log.AppendTx(context.Background(), tx, &Transaction{
		UserID:      10,
		Type:        TypeMangaUnlock,
		Currency:    CurrencyToonCoins,
		Amount:      60,
		Direction:   DirectionOut,
		Description: "test",
	})
	require.NoError(t, err)
	require.Equal(t, 1, saved.ID)
	require.Equal(t, StatusCompleted, saved.Status)
}

func TestAppendTx_NegativeAmount(t *testing.T) {
	log, mock, db, close := setupLogMock(t)
	defer close()

	mock.ExpectBegin()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	_, err = log.AppendTx(context.Background(), tx, &Transaction{
		UserID: 10, Type: TypeCoinPurchase, Amount: -5,
	})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAppendTx_DuplicateExternalRef(t *testing.T) {
	log, mock, db, close := setupLogMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO transactions").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "transactions_type_external_ref_idx"})

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	ref := "sess_1"
	_, err = log.AppendTx(context.Background(), tx, &Transaction{
		UserID:                10,
		Type:                  TypeCoinPurchase,
		Currency:              CurrencyToonCoins,
		Amount:                500,
		Direction:             DirectionIn,
		ExternalTransactionID: &ref,
	})
	require.ErrorIs(t, err, ErrDuplicateExternalRef)
}

func TestFindByExternalRef_Missing(t *testing.T) {
	log, mock, _, close := setupLogMock(t)
	defer close()

	mock.ExpectQuery("SELECT .+ FROM transactions").
		WithArgs(TypeCoinPurchase, "sess_absent").
		WillReturnError(sql.ErrNoRows)

	found, err := log.FindByExternalRef(context.Background(), TypeCoinPurchase, "sess_absent")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestFindByExternalRef_Found(t *testing.T) {
	log, mock, _, close := setupLogMock(t)
	defer close()

	ref := "sess_1"
	mock.ExpectQuery("SELECT .+ FROM transactions").
		WithArgs(TypeCoinPurchase, "sess_1").
		WillReturnRows(txRow(3, 10, TypeCoinPurchase, 500, StatusCompleted, &ref))

	found, err := log.FindByExternalRef(context.Background(), TypeCoinPurchase, "sess_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, 3, found.ID)
}

func TestHistory_DefaultsLimit(t *testing.T) {
	log, mock, _, close := setupLogMock(t)
	defer close()

	mock.ExpectQuery("SELECT .+ FROM transactions").
		WithArgs(10, 50, 0).
		WillReturnRows(txRow(2, 10, TypeMangaUnlock, 60, StatusCompleted, nil))

	txs, err := log.History(context.Background(), 10, 0, -1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestReverseTx_FlipsStatusAndDerivesRefund(t *testing.T) {
	log, mock, db, close := setupLogMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE transactions SET status").
		WithArgs(StatusReversed, 4, StatusCompleted).
		WillReturnRows(txRow(4, 10, TypeMangaUnlock, 60, StatusReversed, nil))
	mock.ExpectQuery("INSERT INTO transactions").
		WillReturnRows(sqlmock.NewRows(txCols).
			AddRow(5, 10, TypeRefund, CurrencyToonCoins, int64(60), DirectionIn, "Reversal of transaction #4",
				int64(0), int64(0), nil, nil, nil, StatusCompleted, time.Now()))

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	original, compensating, err := log.ReverseTx(context.Background(), tx, 4)
	require.NoError(t, err)
	require.Equal(t, StatusReversed, original.Status)
	require.Equal(t, TypeRefund, compensating.Type)
	require.Equal(t, DirectionIn, compensating.Direction)
	require.Equal(t, original.Amount, compensating.Amount)
}

func TestReverseTx_AlreadyReversed(t *testing.T) {
	log, mock, db, close := setupLogMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE transactions SET status").
		WithArgs(StatusReversed, 4, StatusCompleted).
		WillReturnError(sql.ErrNoRows)

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	_, _, err = log.ReverseTx(context.Background(), tx, 4)
	require.ErrorIs(t, err, ErrNotReversible)
}
