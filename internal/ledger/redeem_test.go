package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedemptionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	account := newTestAccount(t, store, "mia", 1500)
	w := NewWorkflow(store)

	req, err := w.CreateRequest(ctx, account.ID, KindGooglePlay, "a@b.com", 1000)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, int64(1000), req.Amount)
	assert.Equal(t, "mia", req.Username)

	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.CoinBalance)

	completed, err := w.ProcessRequest(ctx, req.ID, "CODE123")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, "CODE123", completed.FulfillmentCode)
	require.NotNil(t, completed.CompletedAt)
}

func TestCreateRequestInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	account := newTestAccount(t, store, "mia", 500)
	w := NewWorkflow(store)

	_, err := w.CreateRequest(ctx, account.ID, KindGooglePlay, "a@b.com", 1000)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	pending, err := store.ListRequests(ctx, StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending, "no request may exist without its debit")

	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got.CoinBalance)
}

func TestCreateRequestValidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	account := newTestAccount(t, store, "mia", 2000)
	w := NewWorkflow(store)

	cases := []struct {
		name      string
		kind      RequestKind
		recipient string
		field     string
	}{
		{"upi id without handle", KindUPI, "not-an-id", "recipient"},
		{"malformed email", KindGooglePlay, "nope", "recipient"},
		{"email without tld", KindGooglePlay, "a@b", "recipient"},
		{"unknown kind", RequestKind("paypal"), "a@b.com", "kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := w.CreateRequest(ctx, account.ID, tc.kind, tc.recipient, 1000)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)

			got, err := store.GetAccount(ctx, account.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2000), got.CoinBalance)
		})
	}
}

func TestUPIRecipientAccepted(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	account := newTestAccount(t, store, "mia", 1000)
	w := NewWorkflow(store)

	req, err := w.CreateRequest(ctx, account.ID, KindUPI, "mia123@okbank", 1000)
	require.NoError(t, err)
	assert.Equal(t, "mia123@okbank", req.Recipient)
}

func TestProcessRequestTwice(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	account := newTestAccount(t, store, "mia", 1000)
	w := NewWorkflow(store)

	req, err := w.CreateRequest(ctx, account.ID, KindGooglePlay, "a@b.com", 1000)
	require.NoError(t, err)

	first, err := w.ProcessRequest(ctx, req.ID, "CODE123")
	require.NoError(t, err)

	_, err = w.ProcessRequest(ctx, req.ID, "CODE456")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	// The losing call must not touch the stored completion.
	got, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "CODE123", got.FulfillmentCode)
	assert.Equal(t, first.CompletedAt.UnixNano(), got.CompletedAt.UnixNano())
}

func TestProcessGooglePlayRequiresCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	account := newTestAccount(t, store, "mia", 1000)
	w := NewWorkflow(store)

	req, err := w.CreateRequest(ctx, account.ID, KindGooglePlay, "a@b.com", 1000)
	require.NoError(t, err)

	_, err = w.ProcessRequest(ctx, req.ID, "  ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fulfillment_code", verr.Field)

	got, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestProcessUPIDropsCode(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	account := newTestAccount(t, store, "mia", 1000)
	w := NewWorkflow(store)

	req, err := w.CreateRequest(ctx, account.ID, KindUPI, "mia@okbank", 1000)
	require.NoError(t, err)

	completed, err := w.ProcessRequest(ctx, req.ID, "stray-code")
	require.NoError(t, err)
	assert.Empty(t, completed.FulfillmentCode)
}

func TestProcessUnknownRequest(t *testing.T) {
	ctx := context.Background()
	w := NewWorkflow(NewMemStore())

	_, err := w.ProcessRequest(ctx, "nope", "CODE123")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

type failingDebitStore struct {
	Store
	err error
}

func (s *failingDebitStore) Debit(context.Context, string, int64) (int64, error) {
	return 0, s.err
}

func TestCreateRequestPartialFailure(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	account := newTestAccount(t, store, "mia", 1500)

	backingErr := errors.New("backing store unavailable")
	w := NewWorkflow(&failingDebitStore{Store: store, err: backingErr})

	_, err := w.CreateRequest(ctx, account.ID, KindGooglePlay, "a@b.com", 1000)
	var pf *PartialFailure
	require.ErrorAs(t, err, &pf)
	assert.ErrorIs(t, err, backingErr)

	// The orphaned request is in the store and named by the error, so an
	// operator can reconcile it.
	got, err := store.GetRequest(ctx, pf.RequestID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	acct, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), acct.CoinBalance)
}

// atomicMemStore couples the request insert and the debit the way the SQL
// store does, and counts which store methods the workflow reaches for.
type atomicMemStore struct {
	*MemStore
	failWith    error
	atomicCalls int
	insertCalls int
	debitCalls  int
}

func (s *atomicMemStore) InsertRequest(ctx context.Context, req RedemptionRequest) error {
	s.insertCalls++
	return s.MemStore.InsertRequest(ctx, req)
}

func (s *atomicMemStore) Debit(ctx context.Context, id string, amount int64) (int64, error) {
	s.debitCalls++
	return s.MemStore.Debit(ctx, id, amount)
}

func (s *atomicMemStore) InsertRequestAndDebit(ctx context.Context, req RedemptionRequest) (int64, error) {
	s.atomicCalls++
	if s.failWith != nil {
		return 0, s.failWith
	}
	balance, err := s.MemStore.Debit(ctx, req.AccountID, req.Amount)
	if err != nil {
		return 0, err
	}
	if err := s.MemStore.InsertRequest(ctx, req); err != nil {
		return 0, err
	}
	return balance, nil
}

func TestCreateRequestUsesAtomicStore(t *testing.T) {
	ctx := context.Background()
	store := &atomicMemStore{MemStore: NewMemStore()}
	account := newTestAccount(t, store.MemStore, "mia", 1500)
	w := NewWorkflow(store)

	req, err := w.CreateRequest(ctx, account.ID, KindGooglePlay, "a@b.com", 1000)
	require.NoError(t, err)

	assert.Equal(t, 1, store.atomicCalls)
	assert.Zero(t, store.insertCalls, "atomic stores must not take the two-step path")
	assert.Zero(t, store.debitCalls, "atomic stores must not take the two-step path")

	got, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	acct, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), acct.CoinBalance)
}

func TestCreateRequestAtomicStoreFailure(t *testing.T) {
	ctx := context.Background()
	backingErr := errors.New("backing store unavailable")
	store := &atomicMemStore{MemStore: NewMemStore(), failWith: backingErr}
	account := newTestAccount(t, store.MemStore, "mia", 1500)
	w := NewWorkflow(store)

	_, err := w.CreateRequest(ctx, account.ID, KindGooglePlay, "a@b.com", 1000)
	assert.ErrorIs(t, err, backingErr)

	// A failed transaction leaves nothing behind, so there is nothing to
	// reconcile.
	var pf *PartialFailure
	assert.False(t, errors.As(err, &pf))

	pending, err := store.ListRequests(ctx, StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	acct, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), acct.CoinBalance)
}

func TestListRequestsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	account := newTestAccount(t, store, "mia", 3000)
	w := NewWorkflow(store)

	base := time.Now()
	times := []time.Time{base, base.Add(time.Second), base.Add(2 * time.Second)}
	i := 0
	w.now = func() time.Time { t := times[i]; i++; return t }

	var ids []string
	for range times {
		req, err := w.CreateRequest(ctx, account.ID, KindGooglePlay, "a@b.com", 1000)
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}

	pending, err := w.ListRequests(ctx, StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, ids[2], pending[0].ID)
	assert.Equal(t, ids[1], pending[1].ID)
	assert.Equal(t, ids[0], pending[2].ID)

	completed, err := w.ListRequests(ctx, StatusCompleted)
	require.NoError(t, err)
	assert.Empty(t, completed)
}
