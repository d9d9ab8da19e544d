package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
	}

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	// Ensure the accounts table exists with the balance invariant
	ensureAccountsTable()

	// Ensure the redemption_requests table and its admin-panel indexes exist
	ensureRedemptionRequestsTable()
}

// ensureAccountsTable creates accounts if missing. The CHECK constraint backs
// the non-negative balance invariant; debits are conditional updates that
// should never trip it.
func ensureAccountsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS accounts (
            id UUID PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            coin_balance BIGINT NOT NULL DEFAULT 0 CHECK (coin_balance >= 0),
            is_admin BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
    `)
	if err != nil {
		log.Printf("failed to create accounts table: %v", err)
	}
}

// ensureRedemptionRequestsTable creates redemption_requests if missing
func ensureRedemptionRequestsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS redemption_requests (
            id UUID PRIMARY KEY,
            account_id UUID NOT NULL,
            username TEXT NOT NULL,
            kind TEXT NOT NULL CHECK (kind IN ('google_play', 'upi')),
            recipient TEXT NOT NULL,
            amount BIGINT NOT NULL CHECK (amount > 0),
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            completed_at TIMESTAMP WITH TIME ZONE NULL,
            fulfillment_code TEXT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_redemption_requests_status_created ON redemption_requests(status, created_at DESC);
        CREATE INDEX IF NOT EXISTS idx_redemption_requests_account ON redemption_requests(account_id);
    `)
	if err != nil {
		log.Printf("failed to create redemption_requests table: %v", err)
	}
}
