package ledger

import (
	"context"
	"errors"
	"fmt"

	"toonlord/internal/logger"
	"toonlord/internal/metrics"
	"toonlord/internal/wallet"

	"github.com/jmoiron/sqlx"
)

const (
	// RevenueSplitPercent is the creator's cut of each unlock. The
	// platform fee absorbs the rounding remainder, so no coins are lost
	// or created.
	RevenueSplitPercent = 70

	AdRewardCoins    int64 = 5
	AdRewardDailyCap int64 = 25
)

var ErrAdRewardCapReached = errors.New("daily ad reward cap reached")

// Pricing is what the engine needs to know about a manga to charge for it.
type Pricing struct {
	MangaID    int
	Title      string
	Price      int64
	UploaderID int
}

// Catalog resolves manga pricing. Implemented by the manga repository.
type Catalog interface {
	GetPricing(ctx context.Context, mangaID int) (*Pricing, error)
}

// Directory resolves user accounts, in particular the platform fee
// account. Implemented by the user repository.
type Directory interface {
	FirstAdminID(ctx context.Context) (int, error)
}

// Notifier delivers activity notifications after a committed ledger
// operation. Delivery is fire-and-forget: a failed notification never
// rolls back or blocks a transaction.
type Notifier interface {
	Notify(userID int, kind, message string, mangaID *int)
}

// Engine orchestrates economic events: it computes splits, applies
// multi-wallet deltas, and appends the transaction record, all inside a
// single database transaction.
type Engine struct {
	db       *sqlx.DB
	wallets  *wallet.Store
	log      *wallet.Log
	catalog  Catalog
	users    Directory
	notifier Notifier

	// Configured platform account; 0 falls back to the first admin user.
	platformUserID int
}

func NewEngine(db *sqlx.DB, wallets *wallet.Store, log *wallet.Log, catalog Catalog, users Directory, notifier Notifier, platformUserID int) *Engine {
	return &Engine{
		db:             db,
		wallets:        wallets,
		log:            log,
		catalog:        catalog,
		users:          users,
		notifier:       notifier,
		platformUserID: platformUserID,
	}
}

// Split computes the creator/platform division of an unlock price.
func Split(price int64) (creatorShare, platformFee int64) {
	creatorShare = price * RevenueSplitPercent / 100
	platformFee = price - creatorShare
	return creatorShare, platformFee
}

type UnlockResult struct {
	AlreadyUnlocked bool                `json:"already_unlocked"`
	Free            bool                `json:"free"`
	Price           int64               `json:"price"`
	CreatorShare    int64               `json:"creator_share"`
	PlatformFee     int64               `json:"platform_fee"`
	NewBalance      int64               `json:"new_balance"`
	Transaction     *wallet.Transaction `json:"transaction,omitempty"`
}

type PurchaseResult struct {
	AlreadyProcessed bool                `json:"already_processed"`
	Coins            int64               `json:"coins"`
	NewBalance       int64               `json:"new_balance"`
	Transaction      *wallet.Transaction `json:"transaction,omitempty"`
}

func (e *Engine) platformAccountID(ctx context.Context) (int, error) {
	if e.platformUserID > 0 {
		return e.platformUserID, nil
	}
	return e.users.FirstAdminID(ctx)
}

// mapConflict turns Postgres serialization failures and deadlocks into
// the retry signal callers are told to act on.
func mapConflict(err error) error {
	if wallet.IsSerializationFailure(err) {
		return wallet.ErrConcurrentConflict
	}
	return err
}

// Unlock charges readerID for permanent access to mangaID and splits the
// price between the creator and the platform. Unlocking content the
// reader already owns is a soft success, detected inside the same
// transaction that would perform the debit so concurrent duplicate
// requests collapse to one charge.
func (e *Engine) Unlock(ctx context.Context, readerID, mangaID int) (*UnlockResult, error) {
	pricing, err := e.catalog.GetPricing(ctx, mangaID)
	if err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	readerW, err := e.wallets.GetForUpdateTx(ctx, tx, readerID)
	if err != nil {
		return nil, mapConflict(err)
	}
	if readerW.IsLocked {
		return nil, wallet.ErrWalletLocked
	}

	// The ownership check shares the debit's atomic boundary: a second
	// concurrent unlock by the same reader blocks on the wallet row and
	// then sees the first one's record here.
	owned, err := e.wallets.HasUnlockTx(ctx, tx, readerID, mangaID)
	if err != nil {
		return nil, err
	}
	if owned || pricing.UploaderID == readerID {
		metrics.RecordUnlock("already_unlocked", 0)
		return &UnlockResult{AlreadyUnlocked: true, NewBalance: readerW.Balance}, nil
	}

	if pricing.Price == 0 {
		if _, err := e.wallets.InsertUnlockTx(ctx, tx, readerID, mangaID, 0); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, mapConflict(err)
		}
		metrics.RecordUnlock("free", 0)
		return &UnlockResult{Free: true, NewBalance: readerW.Balance}, nil
	}

	if readerW.Balance < pricing.Price {
		metrics.RecordUnlock("insufficient_funds", 0)
		return nil, wallet.ErrInsufficientFunds
	}

	creatorShare, platformFee := Split(pricing.Price)

	updatedReader, err := e.wallets.ApplyDeltaTx(ctx, tx, readerW, -pricing.Price, wallet.EarningsDelta{})
	if err != nil {
		return nil, mapConflict(err)
	}

	platformID, err := e.platformAccountID(ctx)
	if err != nil {
		return nil, err
	}

	if pricing.UploaderID == platformID {
		// Platform-owned content: one wallet takes both the earnings
		// share and the fee.
		platformW, err := e.wallets.GetForUpdateTx(ctx, tx, platformID)
		if err != nil {
			return nil, mapConflict(err)
		}
		if _, err := e.wallets.ApplyDeltaTx(ctx, tx, platformW, platformFee, wallet.EarningsDelta{Pending: creatorShare, Lifetime: creatorShare}); err != nil {
			return nil, mapConflict(err)
		}
	} else {
		creatorW, err := e.wallets.GetForUpdateTx(ctx, tx, pricing.UploaderID)
		if err != nil {
			return nil, mapConflict(err)
		}
		if _, err := e.wallets.ApplyDeltaTx(ctx, tx, creatorW, 0, wallet.EarningsDelta{Pending: creatorShare, Lifetime: creatorShare}); err != nil {
			return nil, mapConflict(err)
		}

		platformW, err := e.wallets.GetForUpdateTx(ctx, tx, platformID)
		if err != nil {
			return nil, mapConflict(err)
		}
		if _, err := e.wallets.ApplyDeltaTx(ctx, tx, platformW, platformFee, wallet.EarningsDelta{}); err != nil {
			return nil, mapConflict(err)
		}
	}

	if _, err := e.wallets.InsertUnlockTx(ctx, tx, readerID, mangaID, pricing.Price); err != nil {
		return nil, err
	}

	uploaderID := pricing.UploaderID
	record, err := e.log.AppendTx(ctx, tx, &wallet.Transaction{
		UserID:         readerID,
		Type:           wallet.TypeMangaUnlock,
		Currency:       wallet.CurrencyToonCoins,
		Amount:         pricing.Price,
		Direction:      wallet.DirectionOut,
		Description:    fmt.Sprintf("Unlocked full access to %s", pricing.Title),
		PlatformFee:    platformFee,
		NetEarning:     creatorShare,
		RelatedMangaID: &pricing.MangaID,
		BeneficiaryID:  &uploaderID,
		Status:         wallet.StatusCompleted,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(err)
	}

	metrics.RecordUnlock("completed", pricing.Price)
	e.notify(readerID, "manga_unlocked",
		fmt.Sprintf("You unlocked %s for %d toonCoins.", pricing.Title, pricing.Price), &pricing.MangaID)
	e.notify(pricing.UploaderID, "revenue_earned",
		fmt.Sprintf("You earned %d toonCoins from an unlock of %s.", creatorShare, pricing.Title), &pricing.MangaID)

	return &UnlockResult{
		Price:        pricing.Price,
		CreatorShare: creatorShare,
		PlatformFee:  platformFee,
		NewBalance:   updatedReader.Balance,
		Transaction:  record,
	}, nil
}

// CompletePurchase credits coins bought through the external checkout
// provider. The append of the COIN_PURCHASE record doubles as the
// idempotency gate: the partial unique index on the external reference
// serializes concurrent confirmations, and the loser returns the
// winner's committed result instead of crediting again.
func (e *Engine) CompletePurchase(ctx context.Context, externalRef string, userID int, coins int64) (*PurchaseResult, error) {
	if coins <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	if externalRef == "" {
		return nil, wallet.ErrInvalidAmount
	}

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	record, err := e.log.AppendTx(ctx, tx, &wallet.Transaction{
		UserID:                userID,
		Type:                  wallet.TypeCoinPurchase,
		Currency:              wallet.CurrencyToonCoins,
		Amount:                coins,
		Direction:             wallet.DirectionIn,
		Description:           fmt.Sprintf("Purchased %d toonCoins", coins),
		ExternalTransactionID: &externalRef,
		Status:                wallet.StatusCompleted,
	})
	if errors.Is(err, wallet.ErrDuplicateExternalRef) {
		tx.Rollback()
		return e.priorPurchase(ctx, externalRef)
	}
	if err != nil {
		return nil, err
	}

	w, err := e.wallets.GetForUpdateTx(ctx, tx, userID)
	if err != nil {
		return nil, mapConflict(err)
	}
	updated, err := e.wallets.ApplyDeltaTx(ctx, tx, w, coins, wallet.EarningsDelta{})
	if err != nil {
		return nil, mapConflict(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(err)
	}

	metrics.RecordPurchase("completed", coins)
	e.notify(userID, "coins_earned",
		fmt.Sprintf("Successfully added %d toonCoins to your vault.", coins), nil)

	return &PurchaseResult{
		Coins:       coins,
		NewBalance:  updated.Balance,
		Transaction: record,
	}, nil
}

func (e *Engine) priorPurchase(ctx context.Context, externalRef string) (*PurchaseResult, error) {
	prior, err := e.log.FindByExternalRef(ctx, wallet.TypeCoinPurchase, externalRef)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		// The conflicting insert rolled back between our attempt and
		// this read; the whole operation is safe to retry.
		return nil, wallet.ErrConcurrentConflict
	}

	w, err := e.wallets.GetOrCreate(ctx, prior.UserID)
	if err != nil {
		return nil, err
	}

	metrics.RecordPurchase("duplicate", 0)
	return &PurchaseResult{
		AlreadyProcessed: true,
		Coins:            prior.Amount,
		NewBalance:       w.Balance,
		Transaction:      prior,
	}, nil
}

// RewardAd grants the fixed ad-watch reward, bounded by a per-day cap.
func (e *Engine) RewardAd(ctx context.Context, userID int) (*PurchaseResult, error) {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := e.wallets.GetForUpdateTx(ctx, tx, userID)
	if err != nil {
		return nil, mapConflict(err)
	}
	if w.IsLocked {
		return nil, wallet.ErrWalletLocked
	}

	earnedToday, err := e.log.SumTodayByTypeTx(ctx, tx, userID, wallet.TypeAdReward)
	if err != nil {
		return nil, err
	}
	if earnedToday+AdRewardCoins > AdRewardDailyCap {
		return nil, ErrAdRewardCapReached
	}

	record, err := e.log.AppendTx(ctx, tx, &wallet.Transaction{
		UserID:      userID,
		Type:        wallet.TypeAdReward,
		Currency:    wallet.CurrencyToonCoins,
		Amount:      AdRewardCoins,
		Direction:   wallet.DirectionIn,
		Description: fmt.Sprintf("Earned %d toonCoins from watching an ad", AdRewardCoins),
		Status:      wallet.StatusCompleted,
	})
	if err != nil {
		return nil, err
	}

	updated, err := e.wallets.ApplyDeltaTx(ctx, tx, w, AdRewardCoins, wallet.EarningsDelta{})
	if err != nil {
		return nil, mapConflict(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(err)
	}

	metrics.RecordPurchase("ad_reward", AdRewardCoins)
	return &PurchaseResult{
		Coins:       AdRewardCoins,
		NewBalance:  updated.Balance,
		Transaction: record,
	}, nil
}

// RequestPayout moves coins out of a creator's withdrawable bucket into
// a pending CREATOR_PAYOUT awaiting admin approval.
func (e *Engine) RequestPayout(ctx context.Context, creatorID int, amount int64) (*wallet.Transaction, error) {
	if amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := e.wallets.GetForUpdateTx(ctx, tx, creatorID)
	if err != nil {
		return nil, mapConflict(err)
	}
	if _, err := e.wallets.ApplyDeltaTx(ctx, tx, w, 0, wallet.EarningsDelta{Withdrawable: -amount}); err != nil {
		return nil, mapConflict(err)
	}

	record, err := e.log.AppendTx(ctx, tx, &wallet.Transaction{
		UserID:      creatorID,
		Type:        wallet.TypeCreatorPayout,
		Currency:    wallet.CurrencyINR,
		Amount:      amount,
		Direction:   wallet.DirectionOut,
		Description: fmt.Sprintf("Payout request for %d withdrawable coins", amount),
		Status:      wallet.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(err)
	}

	metrics.RecordPayout("pending")
	e.notify(creatorID, "payout_requested",
		fmt.Sprintf("Your payout request for %d coins is awaiting review.", amount), nil)

	return record, nil
}

// CompletePayout marks a pending CREATOR_PAYOUT settled.
func (e *Engine) CompletePayout(ctx context.Context, txID int) (*wallet.Transaction, error) {
	record, err := e.log.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if record.Type != wallet.TypeCreatorPayout {
		return nil, wallet.ErrNotReversible
	}

	completed, err := e.log.MarkCompleted(ctx, txID)
	if err != nil {
		return nil, err
	}

	metrics.RecordPayout("completed")
	e.notify(completed.UserID, "payout_completed",
		fmt.Sprintf("Your payout of %d has been processed.", completed.Amount), nil)
	return completed, nil
}

// SettleEarnings moves a creator's pending earnings into the
// withdrawable bucket and appends a REVENUE_SHARE record marking the
// moment the earnings became real.
func (e *Engine) SettleEarnings(ctx context.Context, creatorID int, amount int64) (*wallet.Wallet, error) {
	if amount <= 0 {
		return nil, wallet.ErrInvalidAmount
	}

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := e.wallets.GetForUpdateTx(ctx, tx, creatorID)
	if err != nil {
		return nil, mapConflict(err)
	}
	updated, err := e.wallets.ApplyDeltaTx(ctx, tx, w, 0, wallet.EarningsDelta{Pending: -amount, Withdrawable: amount})
	if err != nil {
		return nil, mapConflict(err)
	}

	if _, err := e.log.AppendTx(ctx, tx, &wallet.Transaction{
		UserID:      creatorID,
		Type:        wallet.TypeRevenueShare,
		Currency:    wallet.CurrencyToonCoins,
		Amount:      amount,
		Direction:   wallet.DirectionIn,
		Description: fmt.Sprintf("Settled %d pending coins to withdrawable balance", amount),
		NetEarning:  amount,
		Status:      wallet.StatusCompleted,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(err)
	}

	e.notify(creatorID, "earnings_settled",
		fmt.Sprintf("%d coins moved to your withdrawable balance.", amount), nil)
	return updated, nil
}

// Refund reverses a completed MANGA_UNLOCK as the mirror image of the
// original split: the reader gets the price back, the creator's pending
// and lifetime earnings drop by the net earning, and the platform
// returns its fee. The ownership record is removed.
func (e *Engine) Refund(ctx context.Context, txID int) (*wallet.Transaction, error) {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	original, compensating, err := e.log.ReverseTx(ctx, tx, txID)
	if err != nil {
		return nil, err
	}
	if original.Type != wallet.TypeMangaUnlock {
		return nil, wallet.ErrNotReversible
	}
	if original.BeneficiaryID == nil || original.RelatedMangaID == nil {
		return nil, wallet.ErrNotReversible
	}

	readerW, err := e.wallets.GetForUpdateTx(ctx, tx, original.UserID)
	if err != nil {
		return nil, mapConflict(err)
	}
	if _, err := e.wallets.ApplyDeltaTx(ctx, tx, readerW, original.Amount, wallet.EarningsDelta{}); err != nil {
		return nil, mapConflict(err)
	}

	platformID, err := e.platformAccountID(ctx)
	if err != nil {
		return nil, err
	}

	if *original.BeneficiaryID == platformID {
		platformW, err := e.wallets.GetForUpdateTx(ctx, tx, platformID)
		if err != nil {
			return nil, mapConflict(err)
		}
		if _, err := e.wallets.ApplyDeltaTx(ctx, tx, platformW, -original.PlatformFee,
			wallet.EarningsDelta{Pending: -original.NetEarning, Lifetime: -original.NetEarning}); err != nil {
			return nil, mapConflict(err)
		}
	} else {
		creatorW, err := e.wallets.GetForUpdateTx(ctx, tx, *original.BeneficiaryID)
		if err != nil {
			return nil, mapConflict(err)
		}
		if _, err := e.wallets.ApplyDeltaTx(ctx, tx, creatorW, 0,
			wallet.EarningsDelta{Pending: -original.NetEarning, Lifetime: -original.NetEarning}); err != nil {
			return nil, mapConflict(err)
		}

		platformW, err := e.wallets.GetForUpdateTx(ctx, tx, platformID)
		if err != nil {
			return nil, mapConflict(err)
		}
		if _, err := e.wallets.ApplyDeltaTx(ctx, tx, platformW, -original.PlatformFee, wallet.EarningsDelta{}); err != nil {
			return nil, mapConflict(err)
		}
	}

	if err := e.wallets.DeleteUnlockTx(ctx, tx, original.UserID, *original.RelatedMangaID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapConflict(err)
	}

	metrics.RecordRefund()
	e.notify(original.UserID, "refund_issued",
		fmt.Sprintf("%d toonCoins were returned to your wallet.", original.Amount), original.RelatedMangaID)

	return compensating, nil
}

func (e *Engine) notify(userID int, kind, message string, mangaID *int) {
	if e.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("notification panic for user %d: %v", userID, r)
		}
	}()
	e.notifier.Notify(userID, kind, message, mangaID)
}
