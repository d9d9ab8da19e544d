package ledger

import "time"

// RequestKind is what the user wants their coins converted into.
type RequestKind string

const (
	KindGooglePlay RequestKind = "google_play"
	KindUPI        RequestKind = "upi"
)

// RequestStatus tracks the redemption lifecycle. Requests move from pending
// to completed exactly once and are never reverted or deleted.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
)

type Account struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	CoinBalance int64     `json:"coin_balance"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

type RedemptionRequest struct {
	ID          string        `json:"id"`
	AccountID   string        `json:"account_id"`
	Username    string        `json:"username"`
	Kind        RequestKind   `json:"kind"`
	Recipient   string        `json:"recipient"`
	Amount      int64         `json:"amount"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	// FulfillmentCode is the redeem code the admin attaches when completing a
	// google_play request. Empty for upi requests.
	FulfillmentCode string `json:"fulfillment_code,omitempty"`
}
