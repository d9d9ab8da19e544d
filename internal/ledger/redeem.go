package ledger

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultRedeemCost is the coin price of one redemption request.
const DefaultRedeemCost = 1000

var (
	emailPattern = regexp.MustCompile(`^[\w.\-]+@([\w\-]+\.)+[\w\-]{2,}$`)
	upiPattern   = regexp.MustCompile(`^[\w.\-]+@[\w.\-]+$`)
)

// Workflow drives redemption requests from creation through admin processing.
// It is stateless between calls; the caller identity is always an explicit
// account id.
type Workflow struct {
	store Store
	now   func() time.Time
}

func NewWorkflow(store Store) *Workflow {
	return &Workflow{store: store, now: time.Now}
}

func validateRecipient(kind RequestKind, recipient string) *ValidationError {
	switch kind {
	case KindGooglePlay:
		if !emailPattern.MatchString(recipient) {
			return &ValidationError{Field: "recipient", Reason: "must be a valid email address"}
		}
	case KindUPI:
		if !upiPattern.MatchString(recipient) {
			return &ValidationError{Field: "recipient", Reason: "must be a valid UPI id"}
		}
	default:
		return &ValidationError{Field: "kind", Reason: "must be google_play or upi"}
	}
	return nil
}

// CreateRequest validates the ask, records a pending request and debits the
// account. On a TxStore both writes happen in one transaction. Otherwise the
// request is inserted first and the debit follows; if the debit fails at that
// point the orphaned request is reported as *PartialFailure so an operator
// can reconcile it.
func (w *Workflow) CreateRequest(ctx context.Context, accountID string, kind RequestKind, recipient string, amount int64) (RedemptionRequest, error) {
	recipient = strings.TrimSpace(recipient)
	if err := validateRecipient(kind, recipient); err != nil {
		return RedemptionRequest{}, err
	}
	if amount <= 0 {
		return RedemptionRequest{}, &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	account, err := w.store.GetAccount(ctx, accountID)
	if err != nil {
		return RedemptionRequest{}, err
	}
	if account.CoinBalance < amount {
		return RedemptionRequest{}, ErrInsufficientBalance
	}

	req := RedemptionRequest{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		Username:  account.Username,
		Kind:      kind,
		Recipient: recipient,
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: w.now(),
	}

	if tx, ok := w.store.(TxStore); ok {
		if _, err := tx.InsertRequestAndDebit(ctx, req); err != nil {
			return RedemptionRequest{}, err
		}
		return req, nil
	}

	if err := w.store.InsertRequest(ctx, req); err != nil {
		return RedemptionRequest{}, err
	}
	if _, err := w.store.Debit(ctx, accountID, amount); err != nil {
		return RedemptionRequest{}, &PartialFailure{RequestID: req.ID, Err: err}
	}
	return req, nil
}

// ProcessRequest marks a pending request completed on behalf of an admin.
// google_play requests need the redeem code the operator bought; upi requests
// carry none. Completing does not dispatch the reward itself — it records that
// an operator fulfilled it.
func (w *Workflow) ProcessRequest(ctx context.Context, requestID, fulfillmentCode string) (RedemptionRequest, error) {
	fulfillmentCode = strings.TrimSpace(fulfillmentCode)

	req, err := w.store.GetRequest(ctx, requestID)
	if err != nil {
		return RedemptionRequest{}, err
	}
	if req.Status == StatusCompleted {
		return RedemptionRequest{}, ErrAlreadyCompleted
	}
	if req.Kind == KindGooglePlay && fulfillmentCode == "" {
		return RedemptionRequest{}, &ValidationError{Field: "fulfillment_code", Reason: "required for google_play requests"}
	}
	if req.Kind == KindUPI {
		fulfillmentCode = ""
	}

	// CompleteRequest transitions conditionally on status, so a concurrent
	// second call still fails with ErrAlreadyCompleted.
	return w.store.CompleteRequest(ctx, requestID, fulfillmentCode, w.now())
}

// ListRequests is a read-only projection for the admin panel, newest first.
func (w *Workflow) ListRequests(ctx context.Context, status RequestStatus) ([]RedemptionRequest, error) {
	return w.store.ListRequests(ctx, status)
}
