package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

const walletColumns = `id, user_id, balance, pending_balance, withdrawable_balance,
	 total_lifetime_earnings, is_locked, last_transaction_at, created_at, updated_at`

// Store is the single source of truth for balances. Every mutation goes
// through ApplyDeltaTx inside a database transaction; nothing else is
// allowed to edit wallet rows.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// GetOrCreate fetches the wallet for userID, creating it with the
// starting grant when absent. Concurrent creation attempts converge on
// one row: the loser of the insert race detects the unique violation and
// re-fetches the winner's wallet.
func (s *Store) GetOrCreate(ctx context.Context, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := s.db.GetContext(ctx, w,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = s.db.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id, balance)
		 VALUES ($1, $2)
		 RETURNING `+walletColumns,
		userID, StartingBalance,
	).StructScan(w)
	if err == nil {
		return w, nil
	}
	if !IsUniqueViolation(err, "wallets_user_id_key") {
		return nil, err
	}

	// Lost the creation race; the winner's row is there now.
	err = s.db.GetContext(ctx, w,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// GetForUpdateTx locks the wallet row for the rest of tx, creating the
// wallet first if it does not exist yet.
func (s *Store) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, userID int) (*Wallet, error) {
	w := &Wallet{}
	err := tx.QueryRowxContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 FOR UPDATE`,
		userID,
	).StructScan(w)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO wallets (user_id, balance)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		 RETURNING `+walletColumns,
		userID, StartingBalance,
	).StructScan(w)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ApplyDeltaTx mutates one locked wallet's numeric fields and touches
// last_transaction_at. The wallet must already be held FOR UPDATE in tx.
// Overdrafts on any bucket fail with ErrInsufficientFunds; a locked
// wallet rejects every mutation.
func (s *Store) ApplyDeltaTx(ctx context.Context, tx *sqlx.Tx, w *Wallet, balanceDelta int64, earnings EarningsDelta) (*Wallet, error) {
	if w.IsLocked {
		return nil, ErrWalletLocked
	}

	newBalance := w.Balance + balanceDelta
	newPending := w.PendingBalance + earnings.Pending
	newWithdrawable := w.WithdrawableBalance + earnings.Withdrawable
	newLifetime := w.TotalLifetimeEarnings + earnings.Lifetime

	if newBalance < 0 || newPending < 0 || newWithdrawable < 0 || newLifetime < 0 {
		return nil, ErrInsufficientFunds
	}

	updated := &Wallet{}
	err := tx.QueryRowxContext(ctx,
		`UPDATE wallets
		 SET balance = $1,
		     pending_balance = $2,
		     withdrawable_balance = $3,
		     total_lifetime_earnings = $4,
		     last_transaction_at = NOW(),
		     updated_at = NOW()
		 WHERE id = $5
		 RETURNING `+walletColumns,
		newBalance, newPending, newWithdrawable, newLifetime, w.ID,
	).StructScan(updated)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetLocked flips the administrative lock flag.
func (s *Store) SetLocked(ctx context.Context, userID int, locked bool) (*Wallet, error) {
	w := &Wallet{}
	err := s.db.QueryRowxContext(ctx,
		`UPDATE wallets SET is_locked = $1, updated_at = NOW()
		 WHERE user_id = $2
		 RETURNING `+walletColumns,
		locked, userID,
	).StructScan(w)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// HasUnlockTx reports whether userID already owns mangaID, evaluated
// under tx so the check shares the unlock's atomic boundary.
func (s *Store) HasUnlockTx(ctx context.Context, tx *sqlx.Tx, userID, mangaID int) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM unlocked_content WHERE user_id = $1 AND manga_id = $2)`,
		userID, mangaID)
	return exists, err
}

// HasUnlock is the read-only variant used by access checks outside the
// ledger path.
func (s *Store) HasUnlock(ctx context.Context, userID, mangaID int) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM unlocked_content WHERE user_id = $1 AND manga_id = $2)`,
		userID, mangaID)
	return exists, err
}

// InsertUnlockTx records ownership of mangaID at the price paid.
func (s *Store) InsertUnlockTx(ctx context.Context, tx *sqlx.Tx, userID, mangaID int, amountSpent int64) (*UnlockRecord, error) {
	rec := &UnlockRecord{}
	err := tx.QueryRowxContext(ctx,
		`INSERT INTO unlocked_content (user_id, manga_id, amount_spent)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, manga_id, amount_spent, unlocked_at`,
		userID, mangaID, amountSpent,
	).StructScan(rec)
	if err != nil {
		if IsUniqueViolation(err, "unlocked_content_user_id_manga_id_key") {
			return nil, ErrAlreadyUnlocked
		}
		return nil, err
	}
	return rec, nil
}

// DeleteUnlockTx removes an ownership record as part of a refund.
func (s *Store) DeleteUnlockTx(ctx context.Context, tx *sqlx.Tx, userID, mangaID int) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM unlocked_content WHERE user_id = $1 AND manga_id = $2`,
		userID, mangaID)
	return err
}

// ListUnlocks returns a user's ownership records, newest first.
func (s *Store) ListUnlocks(ctx context.Context, userID int) ([]UnlockRecord, error) {
	recs := []UnlockRecord{}
	err := s.db.SelectContext(ctx, &recs,
		`SELECT id, user_id, manga_id, amount_spent, unlocked_at
		 FROM unlocked_content
		 WHERE user_id = $1
		 ORDER BY unlocked_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	return recs, nil
}
