package ledger

import (
	"context"
	"time"
)

// Store is the backing store for accounts and redemption requests. It is the
// single source of truth for coin balances; balances only change through
// Credit and Debit.
type Store interface {
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByUsername(ctx context.Context, username string) (Account, error)
	CreateAccount(ctx context.Context, username, passwordHash string, initialBalance int64, isAdmin bool) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)

	// Credit adds amount coins and returns the new balance.
	Credit(ctx context.Context, id string, amount int64) (int64, error)
	// Debit removes amount coins if the balance covers it, returning the new
	// balance or ErrInsufficientBalance. The balance check and the write must
	// be a single conditional update so two concurrent debits cannot both
	// pass the check.
	Debit(ctx context.Context, id string, amount int64) (int64, error)

	InsertRequest(ctx context.Context, req RedemptionRequest) error
	GetRequest(ctx context.Context, id string) (RedemptionRequest, error)
	// CompleteRequest moves a pending request to completed, stamping
	// completedAt and the fulfillment code. The transition is conditional on
	// the current status, so a second call fails with ErrAlreadyCompleted.
	CompleteRequest(ctx context.Context, id, fulfillmentCode string, at time.Time) (RedemptionRequest, error)
	// ListRequests returns requests in the given status, newest first.
	ListRequests(ctx context.Context, status RequestStatus) ([]RedemptionRequest, error)
	ListRequestsByAccount(ctx context.Context, accountID string) ([]RedemptionRequest, error)
}

// TxStore is implemented by stores that can couple request creation and the
// account debit in one transaction. The redemption workflow prefers it when
// available; without it the two writes are separate and a failure in between
// surfaces as *PartialFailure.
type TxStore interface {
	// InsertRequestAndDebit inserts the pending request and debits its amount
	// from the account atomically, returning the new balance.
	InsertRequestAndDebit(ctx context.Context, req RedemptionRequest) (int64, error)
}
