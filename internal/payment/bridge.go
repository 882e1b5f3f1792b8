package payment

import (
	"context"
	"errors"
	"strconv"

	"toonlord/internal/ledger"
	"toonlord/internal/wallet"
)

var (
	ErrSessionNotPaid  = errors.New("payment not verified")
	ErrInvalidMetadata = errors.New("session metadata is invalid")
	ErrUnknownUser     = errors.New("session references an unknown user")
)

// CheckoutClient is the slice of the provider the bridge needs.
type CheckoutClient interface {
	CreateSession(ctx context.Context, userID int, coins, amountINR int64) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
}

// Purchaser credits verified coin purchases. Implemented by the ledger
// engine.
type Purchaser interface {
	CompletePurchase(ctx context.Context, externalRef string, userID int, coins int64) (*ledger.PurchaseResult, error)
}

// UserChecker confirms that a user referenced by session metadata
// exists. Implemented by the user repository.
type UserChecker interface {
	ExistsByID(ctx context.Context, id int) (bool, error)
}

// Bridge connects the external checkout provider to the coin ledger.
// The provider is the source of truth for payment state; the ledger is
// the source of truth for balances. The bridge never credits coins the
// provider has not confirmed.
type Bridge struct {
	provider CheckoutClient
	ledger   Purchaser
	users    UserChecker
}

func NewBridge(provider CheckoutClient, purchaser Purchaser, users UserChecker) *Bridge {
	return &Bridge{provider: provider, ledger: purchaser, users: users}
}

type ConfirmResult struct {
	Paid             bool   `json:"paid"`
	AlreadyProcessed bool   `json:"already_processed"`
	Coins            int64  `json:"coins"`
	NewBalance       int64  `json:"new_balance"`
	SessionID        string `json:"session_id"`
}

// StartCheckout opens a provider session for the given coin package.
func (b *Bridge) StartCheckout(ctx context.Context, userID int, coins, amountINR int64) (*Session, error) {
	if coins <= 0 || amountINR <= 0 {
		return nil, wallet.ErrInvalidAmount
	}
	return b.provider.CreateSession(ctx, userID, coins, amountINR)
}

// Confirm verifies a session with the provider and credits the coins on
// first confirmation. Re-confirming an already-credited session is a
// soft success carrying the original result; an unpaid session touches
// no wallet.
func (b *Bridge) Confirm(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	session, err := b.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Paid() {
		return &ConfirmResult{Paid: false, SessionID: sessionID}, nil
	}

	userID, coins, err := parseMetadata(session.Metadata)
	if err != nil {
		return nil, err
	}

	exists, err := b.users.ExistsByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUnknownUser
	}

	res, err := b.ledger.CompletePurchase(ctx, sessionID, userID, coins)
	if err != nil {
		return nil, err
	}

	return &ConfirmResult{
		Paid:             true,
		AlreadyProcessed: res.AlreadyProcessed,
		Coins:            res.Coins,
		NewBalance:       res.NewBalance,
		SessionID:        sessionID,
	}, nil
}

func parseMetadata(metadata map[string]string) (userID int, coins int64, err error) {
	userID, err = strconv.Atoi(metadata["userId"])
	if err != nil || userID <= 0 {
		return 0, 0, ErrInvalidMetadata
	}
	coins, err = strconv.ParseInt(metadata["coins"], 10, 64)
	if err != nil || coins <= 0 {
		return 0, 0, ErrInvalidMetadata
	}
	return userID, coins, nil
}
