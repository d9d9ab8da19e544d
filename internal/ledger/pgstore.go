package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore runs the ledger against Postgres. Debits use a conditional update
// so the balance check and the write are one statement, and request
// processing uses a conditional status transition. Create-and-debit is
// wrapped in a transaction (PGStore implements TxStore).
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const accountColumns = `id, username, coin_balance, is_admin, created_at`

func (s *PGStore) GetAccount(ctx context.Context, id string) (Account, error) {
	var a Account
	err := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id).
		Scan(&a.ID, &a.Username, &a.CoinBalance, &a.IsAdmin, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *PGStore) GetAccountByUsername(ctx context.Context, username string) (Account, error) {
	var a Account
	err := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username).
		Scan(&a.ID, &a.Username, &a.CoinBalance, &a.IsAdmin, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

func (s *PGStore) CreateAccount(ctx context.Context, username, passwordHash string, initialBalance int64, isAdmin bool) (Account, error) {
	var a Account
	err := s.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, username, password, coin_balance, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		uuid.New().String(), username, passwordHash, initialBalance, isAdmin).
		Scan(&a.ID, &a.Username, &a.CoinBalance, &a.IsAdmin, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateUsername
		}
		return Account{}, err
	}
	return a, nil
}

func (s *PGStore) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Username, &a.CoinBalance, &a.IsAdmin, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *PGStore) Credit(ctx context.Context, id string, amount int64) (int64, error) {
	var balance int64
	err := s.pool.QueryRow(ctx,
		`UPDATE accounts SET coin_balance = coin_balance + $2 WHERE id = $1 RETURNING coin_balance`,
		id, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *PGStore) Debit(ctx context.Context, id string, amount int64) (int64, error) {
	var balance int64
	err := s.pool.QueryRow(ctx,
		`UPDATE accounts SET coin_balance = coin_balance - $2
		 WHERE id = $1 AND coin_balance >= $2
		 RETURNING coin_balance`,
		id, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Disambiguate: unknown account vs not enough coins.
		if _, getErr := s.GetAccount(ctx, id); getErr != nil {
			return 0, getErr
		}
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

const requestColumns = `id, account_id, username, kind, recipient, amount, status, created_at, completed_at, COALESCE(fulfillment_code, '')`

func scanRequest(row pgx.Row) (RedemptionRequest, error) {
	var r RedemptionRequest
	err := row.Scan(&r.ID, &r.AccountID, &r.Username, &r.Kind, &r.Recipient,
		&r.Amount, &r.Status, &r.CreatedAt, &r.CompletedAt, &r.FulfillmentCode)
	return r, err
}

func (s *PGStore) InsertRequest(ctx context.Context, req RedemptionRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO redemption_requests (id, account_id, username, kind, recipient, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID, req.AccountID, req.Username, req.Kind, req.Recipient, req.Amount, req.Status, req.CreatedAt)
	return err
}

// InsertRequestAndDebit creates the pending request and removes its amount
// from the account in one transaction, so a failed debit never leaves an
// orphaned request behind.
func (s *PGStore) InsertRequestAndDebit(ctx context.Context, req RedemptionRequest) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO redemption_requests (id, account_id, username, kind, recipient, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID, req.AccountID, req.Username, req.Kind, req.Recipient, req.Amount, req.Status, req.CreatedAt)
	if err != nil {
		return 0, err
	}

	var balance int64
	err = tx.QueryRow(ctx,
		`UPDATE accounts SET coin_balance = coin_balance - $2
		 WHERE id = $1 AND coin_balance >= $2
		 RETURNING coin_balance`,
		req.AccountID, req.Amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *PGStore) GetRequest(ctx context.Context, id string) (RedemptionRequest, error) {
	r, err := scanRequest(s.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM redemption_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return RedemptionRequest{}, ErrRequestNotFound
	}
	if err != nil {
		return RedemptionRequest{}, err
	}
	return r, nil
}

func (s *PGStore) CompleteRequest(ctx context.Context, id, fulfillmentCode string, at time.Time) (RedemptionRequest, error) {
	r, err := scanRequest(s.pool.QueryRow(ctx, `
		UPDATE redemption_requests
		SET status = $2, completed_at = $3, fulfillment_code = NULLIF($4, '')
		WHERE id = $1 AND status = $5
		RETURNING `+requestColumns,
		id, StatusCompleted, at, fulfillmentCode, StatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetRequest(ctx, id); getErr != nil {
			return RedemptionRequest{}, getErr
		}
		return RedemptionRequest{}, ErrAlreadyCompleted
	}
	if err != nil {
		return RedemptionRequest{}, err
	}
	return r, nil
}

func (s *PGStore) ListRequests(ctx context.Context, status RequestStatus) ([]RedemptionRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM redemption_requests WHERE status = $1 ORDER BY created_at DESC`,
		status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func (s *PGStore) ListRequestsByAccount(ctx context.Context, accountID string) ([]RedemptionRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM redemption_requests WHERE account_id = $1 ORDER BY created_at DESC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

func collectRequests(rows pgx.Rows) ([]RedemptionRequest, error) {
	var requests []RedemptionRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}
