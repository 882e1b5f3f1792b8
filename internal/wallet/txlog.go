package wallet

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/jmoiron/sqlx"
)

const transactionColumns = `id, user_id, type, currency, amount, direction, description,
	 platform_fee, net_earning, related_manga_id, beneficiary_id,
	 external_transaction_id, status, created_at`

// Log is the append-only transaction record. Rows are immutable after
// insertion; the only sanctioned update is the completed -> reversed
// status flip performed by ReverseTx.
type Log struct {
	db *sqlx.DB
}

func NewLog(db *sqlx.DB) *Log {
	return &Log{db: db}
}

// AppendTx persists one immutable record inside tx. A non-null external
// reference that already exists for the same type fails with
// ErrDuplicateExternalRef; the partial unique index is the idempotency
// gate, so the check and the insert are one atomic step.
func (l *Log) AppendTx(ctx context.Context, tx *sqlx.Tx, t *Transaction) (*Transaction, error) {
	if t.Amount < 0 {
		return nil, ErrInvalidAmount
	}
	if t.Status == "" {
		t.Status = StatusCompleted
	}

	saved := &Transaction{}
	err := tx.QueryRowxContext(ctx,
		`INSERT INTO transactions
		   (user_id, type, currency, amount, direction, description,
		    platform_fee, net_earning, related_manga_id, beneficiary_id,
		    external_transaction_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+transactionColumns,
		t.UserID, t.Type, t.Currency, t.Amount, t.Direction, t.Description,
		t.PlatformFee, t.NetEarning, t.RelatedMangaID, t.BeneficiaryID,
		t.ExternalTransactionID, t.Status,
	).StructScan(saved)
	if err != nil {
		if IsUniqueViolation(err, "transactions_type_external_ref_idx") {
			return nil, ErrDuplicateExternalRef
		}
		return nil, err
	}
	return saved, nil
}

// FindByExternalRef looks up a prior record for an external provider
// reference. Returns (nil, nil) when none exists.
func (l *Log) FindByExternalRef(ctx context.Context, txType, externalRef string) (*Transaction, error) {
	t := &Transaction{}
	err := l.db.GetContext(ctx, t,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE type = $1 AND external_transaction_id = $2`,
		txType, externalRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID fetches one record.
func (l *Log) GetByID(ctx context.Context, id int) (*Transaction, error) {
	t := &Transaction{}
	err := l.db.GetContext(ctx, t,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// History returns a user's records in reverse-chronological order.
func (l *Log) History(ctx context.Context, userID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs := []Transaction{}
	err := l.db.SelectContext(ctx, &txs,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// EarningsHistory returns records where userID is the beneficiary,
// newest first. This is the creator's revenue view of the log.
func (l *Log) EarningsHistory(ctx context.Context, beneficiaryID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs := []Transaction{}
	err := l.db.SelectContext(ctx, &txs,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE beneficiary_id = $1 AND type = $2
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3 OFFSET $4`,
		beneficiaryID, TypeMangaUnlock, limit, offset)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// SumTodayByTypeTx totals today's credited amounts of one type for a
// user, evaluated under tx so reward caps share the credit's atomic
// boundary.
func (l *Log) SumTodayByTypeTx(ctx context.Context, tx *sqlx.Tx, userID int, txType string) (int64, error) {
	var total int64
	err := tx.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(amount), 0)
		 FROM transactions
		 WHERE user_id = $1 AND type = $2 AND status = $3
		   AND created_at >= date_trunc('day', NOW())`,
		userID, txType, StatusCompleted)
	return total, err
}

// RevenueSummary aggregates the platform's cut of completed unlocks.
type RevenueSummary struct {
	UnlockCount      int   `db:"unlock_count" json:"unlock_count"`
	GrossCoins       int64 `db:"gross_coins" json:"gross_coins"`
	PlatformFeeCoins int64 `db:"platform_fee_coins" json:"platform_fee_coins"`
	CreatorCoins     int64 `db:"creator_coins" json:"creator_coins"`
}

func (l *Log) PlatformRevenue(ctx context.Context) (*RevenueSummary, error) {
	s := &RevenueSummary{}
	err := l.db.GetContext(ctx, s,
		`SELECT COUNT(*) AS unlock_count,
		        COALESCE(SUM(amount), 0) AS gross_coins,
		        COALESCE(SUM(platform_fee), 0) AS platform_fee_coins,
		        COALESCE(SUM(net_earning), 0) AS creator_coins
		 FROM transactions
		 WHERE type = $1 AND status = $2`,
		TypeMangaUnlock, StatusCompleted)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListPendingPayouts returns CREATOR_PAYOUT records awaiting settlement.
func (l *Log) ListPendingPayouts(ctx context.Context) ([]Transaction, error) {
	txs := []Transaction{}
	err := l.db.SelectContext(ctx, &txs,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE type = $1 AND status = $2
		 ORDER BY created_at ASC`,
		TypeCreatorPayout, StatusPending)
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// MarkCompleted flips a pending record to completed.
func (l *Log) MarkCompleted(ctx context.Context, id int) (*Transaction, error) {
	t := &Transaction{}
	err := l.db.QueryRowxContext(ctx,
		`UPDATE transactions SET status = $1
		 WHERE id = $2 AND status = $3
		 RETURNING `+transactionColumns,
		StatusCompleted, id, StatusPending,
	).StructScan(t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ReverseTx marks a completed record reversed and appends the derived
// compensating REFUND record. The original amounts stay untouched; the
// guard on status makes a double reversal fail with ErrNotReversible.
func (l *Log) ReverseTx(ctx context.Context, tx *sqlx.Tx, id int) (*Transaction, *Transaction, error) {
	original := &Transaction{}
	err := tx.QueryRowxContext(ctx,
		`UPDATE transactions SET status = $1
		 WHERE id = $2 AND status = $3
		 RETURNING `+transactionColumns,
		StatusReversed, id, StatusCompleted,
	).StructScan(original)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotReversible
	}
	if err != nil {
		return nil, nil, err
	}

	compensating := &Transaction{
		UserID:         original.UserID,
		Type:           TypeRefund,
		Currency:       original.Currency,
		Amount:         original.Amount,
		Direction:      mirrorDirection(original.Direction),
		Description:    "Reversal of transaction #" + strconv.Itoa(original.ID),
		PlatformFee:    original.PlatformFee,
		NetEarning:     original.NetEarning,
		RelatedMangaID: original.RelatedMangaID,
		BeneficiaryID:  original.BeneficiaryID,
		Status:         StatusCompleted,
	}
	saved, err := l.AppendTx(ctx, tx, compensating)
	if err != nil {
		return nil, nil, err
	}
	return original, saved, nil
}

func mirrorDirection(d string) string {
	if d == DirectionOut {
		return DirectionIn
	}
	return DirectionOut
}

