package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore keeps the ledger in memory behind a single mutex. It backs the
// ledger tests and local development without Postgres. The mutex is the
// per-account serialization point, so the non-negative balance invariant
// holds under concurrent credits and debits.
type MemStore struct {
	mu           sync.Mutex
	accounts     map[string]*Account
	accountOrder []string // account ids, oldest first
	byName       map[string]string
	requests     map[string]*RedemptionRequest
	order        []string // request ids, oldest first
}

func NewMemStore() *MemStore {
	return &MemStore{
		accounts: make(map[string]*Account),
		byName:   make(map[string]string),
		requests: make(map[string]*RedemptionRequest),
	}
}

func (s *MemStore) GetAccount(_ context.Context, id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *a, nil
}

func (s *MemStore) GetAccountByUsername(_ context.Context, username string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byName[username]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *s.accounts[id], nil
}

func (s *MemStore) CreateAccount(_ context.Context, username, _ string, initialBalance int64, isAdmin bool) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[username]; exists {
		return Account{}, ErrDuplicateUsername
	}
	a := &Account{
		ID:          uuid.New().String(),
		Username:    username,
		CoinBalance: initialBalance,
		IsAdmin:     isAdmin,
		CreatedAt:   time.Now(),
	}
	s.accounts[a.ID] = a
	s.accountOrder = append(s.accountOrder, a.ID)
	s.byName[username] = a.ID
	return *a, nil
}

func (s *MemStore) ListAccounts(_ context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := make([]Account, 0, len(s.accounts))
	// Newest first, matching the created_at DESC ordering of the SQL store.
	for i := len(s.accountOrder) - 1; i >= 0; i-- {
		accounts = append(accounts, *s.accounts[s.accountOrder[i]])
	}
	return accounts, nil
}

func (s *MemStore) Credit(_ context.Context, id string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return 0, ErrAccountNotFound
	}
	a.CoinBalance += amount
	return a.CoinBalance, nil
}

func (s *MemStore) Debit(_ context.Context, id string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return 0, ErrAccountNotFound
	}
	if a.CoinBalance < amount {
		return 0, ErrInsufficientBalance
	}
	a.CoinBalance -= amount
	return a.CoinBalance, nil
}

func (s *MemStore) InsertRequest(_ context.Context, req RedemptionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := req
	s.requests[r.ID] = &r
	s.order = append(s.order, r.ID)
	return nil
}

func (s *MemStore) GetRequest(_ context.Context, id string) (RedemptionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return RedemptionRequest{}, ErrRequestNotFound
	}
	return *r, nil
}

func (s *MemStore) CompleteRequest(_ context.Context, id, fulfillmentCode string, at time.Time) (RedemptionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return RedemptionRequest{}, ErrRequestNotFound
	}
	if r.Status != StatusPending {
		return RedemptionRequest{}, ErrAlreadyCompleted
	}
	r.Status = StatusCompleted
	completedAt := at
	r.CompletedAt = &completedAt
	r.FulfillmentCode = fulfillmentCode
	return *r, nil
}

func (s *MemStore) ListRequests(_ context.Context, status RequestStatus) ([]RedemptionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var requests []RedemptionRequest
	// Requests are created in order, so reverse insertion order is
	// createdAt descending.
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.requests[s.order[i]]
		if r.Status == status {
			requests = append(requests, *r)
		}
	}
	return requests, nil
}

func (s *MemStore) ListRequestsByAccount(_ context.Context, accountID string) ([]RedemptionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var requests []RedemptionRequest
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.requests[s.order[i]]
		if r.AccountID == accountID {
			requests = append(requests, *r)
		}
	}
	return requests, nil
}
